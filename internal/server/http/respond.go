package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/and161185/village-mart/internal/errs"
)

// MaxBodyBytes caps every JSON request body.
const MaxBodyBytes = 1 << 20

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps service sentinels onto HTTP statuses. Unknown errors become a bare 500.
func writeError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	var (
		status int
		msg    string
	)
	switch {
	case errors.Is(err, errs.ErrValidation):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, errs.ErrInvalidCredentials):
		status, msg = http.StatusBadRequest, "Invalid credentials."
	case errors.Is(err, errs.ErrAlreadyExists):
		status, msg = http.StatusConflict, "Username already exists."
	case errors.Is(err, errs.ErrNotFound):
		status, msg = http.StatusNotFound, "User not found."
	case errors.Is(err, errs.ErrMissingToken):
		status, msg = http.StatusForbidden, "No token provided."
	case errors.Is(err, errs.ErrInvalidToken):
		status, msg = http.StatusUnauthorized, "Invalid or expired token."
	case errors.Is(err, errs.ErrForbidden):
		status, msg = http.StatusForbidden, "Access denied."
	case errors.Is(err, errs.ErrRateLimited):
		status, msg = http.StatusTooManyRequests, "Too many attempts, try again later."
	default:
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", RequestIDFromCtx(r.Context())),
			zap.Error(err),
		)
		status, msg = http.StatusInternalServerError, "internal server error"
	}
	writeJSON(w, status, errorBody{Error: msg})
}

// decodeJSON reads a single JSON object from a size-limited body.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errs.ErrValidation)
		}
		return fmt.Errorf("%w: malformed JSON body", errs.ErrValidation)
	}
	return nil
}
