package device

import (
	"context"
	"time"

	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
)

// Store persists device records. Counter updates must be atomic per record
// so concurrent logins from one device never lose increments; that is a
// store contract, not a service concern.
type Store interface {
	// Get returns the record for (userID, fingerprint) or sentinel.ErrNotFound.
	Get(ctx context.Context, userID id.UserID, fingerprint string) (*Record, error)

	// Create inserts a new record; sentinel.ErrConflict if the
	// (userID, fingerprint) pair already exists.
	Create(ctx context.Context, record *Record) error

	// Touch atomically bumps login count and last-seen data for a sighting
	// and returns the updated record.
	Touch(ctx context.Context, userID id.UserID, fingerprint, ip string, at time.Time) (*Record, error)

	// RecordOperation atomically increments the success or failure counter
	// and returns the updated record.
	RecordOperation(ctx context.Context, userID id.UserID, fingerprint string, success bool) (*Record, error)

	// SetTrustLevel updates the trust level (explicit trust/untrust and
	// automatic degradation).
	SetTrustLevel(ctx context.Context, userID id.UserID, fingerprint string, level TrustLevel) (*Record, error)

	// SetBlocked flips the blocked flag.
	SetBlocked(ctx context.Context, userID id.UserID, fingerprint string, blocked bool) (*Record, error)

	// ListByUser returns all devices for a user, most recently seen first.
	ListByUser(ctx context.Context, userID id.UserID) ([]*Record, error)
}
