// Package requestcontext provides HTTP-independent accessors for
// request-scoped values.
//
// Middleware sets these values; services consume them. Keeping this package
// free of net/http lets evaluation code and background sweeps import only
// what they need. The request-scoped clock (Now) is what services use in
// place of time.Now so tests can pin evaluation time.
package requestcontext

import (
	"context"
	"time"

	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
)

// Context key types (unexported for encapsulation).
type (
	userIDKey     struct{}
	employeeIDKey struct{}
	sessionIDKey  struct{}
	actorKey      struct{}
	clientIPKey   struct{}
	userAgentKey  struct{}
	requestIDKey  struct{}
	timeKey       struct{}
)

// UserID retrieves the authenticated user ID from the context.
// Returns the zero value if not set.
func UserID(ctx context.Context) id.UserID {
	if v, ok := ctx.Value(userIDKey{}).(id.UserID); ok {
		return v
	}
	return id.UserID{}
}

// WithUserID injects a user ID into the context.
func WithUserID(ctx context.Context, userID id.UserID) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// EmployeeID retrieves the acting employee ID from the context.
func EmployeeID(ctx context.Context) id.EmployeeID {
	if v, ok := ctx.Value(employeeIDKey{}).(id.EmployeeID); ok {
		return v
	}
	return id.EmployeeID{}
}

// WithEmployeeID injects an employee ID into the context.
func WithEmployeeID(ctx context.Context, employeeID id.EmployeeID) context.Context {
	return context.WithValue(ctx, employeeIDKey{}, employeeID)
}

// SessionID retrieves the session ID from the context.
func SessionID(ctx context.Context) id.SessionID {
	if v, ok := ctx.Value(sessionIDKey{}).(id.SessionID); ok {
		return v
	}
	return id.SessionID{}
}

// WithSessionID injects a session ID into the context.
func WithSessionID(ctx context.Context, sessionID id.SessionID) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, sessionID)
}

// Actor retrieves the audit attribution string ("user:<id>", "employee:<id>",
// "system:auto-trigger") for the current request. Every mutation records it.
func Actor(ctx context.Context) string {
	if v, ok := ctx.Value(actorKey{}).(string); ok {
		return v
	}
	return ""
}

// WithActor injects an actor attribution string into the context.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ClientIP retrieves the client IP address from the context.
func ClientIP(ctx context.Context) string {
	if v, ok := ctx.Value(clientIPKey{}).(string); ok {
		return v
	}
	return ""
}

// UserAgent retrieves the User-Agent from the context.
func UserAgent(ctx context.Context) string {
	if v, ok := ctx.Value(userAgentKey{}).(string); ok {
		return v
	}
	return ""
}

// WithClientMetadata injects client IP and User-Agent into a context.
// Useful for service unit tests that don't run the HTTP middleware chain.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey{}, clientIP)
	ctx = context.WithValue(ctx, userAgentKey{}, userAgent)
	return ctx
}

// RequestID retrieves the request correlation ID from the context.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now retrieves the request-scoped time from the context.
// Falls back to time.Now() for non-HTTP contexts (sweeps, CLI, tests that
// don't care about time).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(timeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a fixed time into a context. Sweeps use it for a
// consistent view within one pass; tests use it to pin evaluation time.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, timeKey{}, t)
}
