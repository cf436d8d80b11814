package httpserver

import (
	"net"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/and161185/village-mart/internal/errs"
	"github.com/and161185/village-mart/internal/token"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// RequestID keeps an incoming X-Request-ID or assigns a random UUID.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			u, err := uuid.NewV4()
			if err == nil {
				id = u.String()
			}
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(contextWithRequestID(r.Context(), id)))
	})
}

// Logging logs one line per request. Bodies are never logged.
func Logging(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			log.Info("http",
				zap.String("method", r.Method),
				zap.String("route", route),
				zap.Int("status", status),
				zap.Duration("dur", time.Since(start)),
				zap.String("peer", r.RemoteAddr),
				zap.String("request_id", RequestIDFromCtx(r.Context())),
			)
		})
	}
}

// Recover turns a handler panic into a 500.
func Recover(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					log.Error("panic",
						zap.Any("reason", rec),
						zap.ByteString("stack", debug.Stack()),
						zap.String("path", r.URL.Path),
					)
					writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth verifies the bearer credential and stores the user id in context.
func RequireAuth(key []byte, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := token.FromHeader(r.Header.Get("Authorization"))
			if err != nil {
				writeError(w, r, log, err)
				return
			}
			claims, err := token.Verify(raw, key)
			if err != nil {
				writeError(w, r, log, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), claims.UserID)))
		})
	}
}

// RequireOwner admits the request only when the {id} path parameter equals the verified
// user id. It must run after RequireAuth. An unparsable id is treated as someone else's.
func RequireOwner(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid, ok := UserIDFromCtx(r.Context())
			if !ok {
				writeError(w, r, log, errs.ErrMissingToken)
				return
			}
			target, err := parseID(chi.URLParam(r, "id"))
			if err != nil || target != uid {
				writeError(w, r, log, errs.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IPRateLimiter throttles requests per client address with token buckets.
type IPRateLimiter struct {
	mu      sync.Mutex
	rps     rate.Limit
	burst   int
	idle    time.Duration
	lastGC  time.Time
	clients map[string]*visitor
	now     func() time.Time
}

type visitor struct {
	lim  *rate.Limiter
	seen time.Time
}

// NewIPRateLimiter allows rps requests per second with the given burst per address.
func NewIPRateLimiter(rps float64, burst int) *IPRateLimiter {
	return &IPRateLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		idle:    3 * time.Minute,
		clients: map[string]*visitor{},
		now:     time.Now,
	}
}

func (l *IPRateLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastGC) > time.Minute {
		for k, v := range l.clients {
			if now.Sub(v.seen) > l.idle {
				delete(l.clients, k)
			}
		}
		l.lastGC = now
	}

	v, ok := l.clients[ip]
	if !ok {
		v = &visitor{lim: rate.NewLimiter(l.rps, l.burst)}
		l.clients[ip] = v
	}
	v.seen = now
	return v.lim.AllowN(now, 1)
}

// Middleware answers 429 once an address exhausts its bucket.
func (l *IPRateLimiter) Middleware(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.allow(clientIP(r)) {
				writeError(w, r, log, errs.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
