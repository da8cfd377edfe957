package testutil

import (
	"context"
	"testing"
	"time"

	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/requestcontext"
)

// Ctx builds a request-like context for service unit tests: a pinned clock,
// an authenticated user, and client metadata, without running the HTTP
// middleware chain.
func Ctx(t *testing.T, userID id.UserID, at time.Time, ip string) context.Context {
	t.Helper()
	ctx := requestcontext.WithTime(context.Background(), at)
	ctx = requestcontext.WithUserID(ctx, userID)
	ctx = requestcontext.WithActor(ctx, "user:"+userID.String())
	return requestcontext.WithClientMetadata(ctx, ip, "testutil/1.0")
}

// EmployeeCtx builds a context for employee-scoped service tests.
func EmployeeCtx(t *testing.T, employeeID id.EmployeeID, at time.Time, ip string) context.Context {
	t.Helper()
	ctx := requestcontext.WithTime(context.Background(), at)
	ctx = requestcontext.WithEmployeeID(ctx, employeeID)
	ctx = requestcontext.WithActor(ctx, "employee:"+employeeID.String())
	return requestcontext.WithClientMetadata(ctx, ip, "testutil/1.0")
}
