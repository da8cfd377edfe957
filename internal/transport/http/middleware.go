package httptransport

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "github.com/gabrielgmza/simply-backend-sub000/pkg/domain-errors"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/platform/httputil"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/requestcontext"
)

const requestIDHeader = "X-Request-ID"

// RequestID assigns a correlation ID to every request, honoring an
// inbound X-Request-ID when the caller already has one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestTime pins the evaluation time for the whole request so every
// service sees the same clock reading.
func RequestTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientMetadata extracts the client IP and User-Agent so evaluators can
// reach them without touching the request.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithClientMetadata(r.Context(), clientIP(r), r.UserAgent())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// clientIP prefers the first X-Forwarded-For hop, falling back to the
// socket peer address.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Recovery converts handler panics into 500 responses instead of
// dropping the connection.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if logger != nil {
						logger.ErrorContext(r.Context(), "handler panic",
							"request_id", requestcontext.RequestID(r.Context()),
							"path", r.URL.Path,
							"panic", rec,
						)
					}
					httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "internal error"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger emits one structured line per completed request.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r)
			if logger != nil {
				logger.InfoContext(r.Context(), "request completed",
					"request_id", requestcontext.RequestID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"status", recorder.status,
					"duration_ms", time.Since(start).Milliseconds(),
				)
			}
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RequireUser validates the bearer token and requires a user identity.
// The user ID, session ID and actor attribution land in the context.
func RequireUser(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := authenticate(w, r, validator, logger)
			if !ok {
				return
			}
			if identity.UserID.IsNil() {
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "user token required"))
				return
			}
			ctx := requestcontext.WithUserID(r.Context(), identity.UserID)
			ctx = requestcontext.WithSessionID(ctx, identity.SessionID)
			ctx = requestcontext.WithActor(ctx, "user:"+identity.UserID.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireEmployee validates the bearer token and requires an employee
// identity. Back-office routes mount this instead of RequireUser.
func RequireEmployee(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := authenticate(w, r, validator, logger)
			if !ok {
				return
			}
			if identity.EmployeeID.IsNil() {
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "employee token required"))
				return
			}
			ctx := requestcontext.WithEmployeeID(r.Context(), identity.EmployeeID)
			ctx = requestcontext.WithSessionID(ctx, identity.SessionID)
			ctx = requestcontext.WithActor(ctx, "employee:"+identity.EmployeeID.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authenticate(w http.ResponseWriter, r *http.Request, validator TokenValidator, logger *slog.Logger) (*Identity, bool) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing bearer token"))
		return nil, false
	}
	identity, err := validator.ValidateToken(token)
	if err != nil {
		if logger != nil {
			logger.WarnContext(r.Context(), "token rejected",
				"request_id", requestcontext.RequestID(r.Context()),
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return nil, false
	}
	return identity, true
}
