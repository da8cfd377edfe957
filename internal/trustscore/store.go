package trustscore

import (
	"context"

	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
)

// Store persists snapshots. Snapshots are append-only; a recompute writes a
// new row and the previous one becomes history.
type Store interface {
	// Save appends a snapshot.
	Save(ctx context.Context, snapshot *Snapshot) error

	// Latest returns the most recent snapshot for the user or
	// sentinel.ErrNotFound.
	Latest(ctx context.Context, userID id.UserID) (*Snapshot, error)
}
