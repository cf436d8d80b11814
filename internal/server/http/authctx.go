package httpserver

import (
	"context"
)

type ctxKey string

const (
	userIDKey    ctxKey = "vm.userID"
	requestIDKey ctxKey = "vm.requestID"
)

// WithUserID stores the verified user ID in context.
func WithUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserIDFromCtx fetches the verified user ID from context.
func UserIDFromCtx(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok && id > 0
}

// RequestIDFromCtx returns the request id set by RequestID, if any.
func RequestIDFromCtx(ctx context.Context) string {
	s, _ := ctx.Value(requestIDKey).(string)
	return s
}

func contextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}
