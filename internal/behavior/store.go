package behavior

import (
	"context"

	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
)

// Store holds one current profile per user. Replace swaps the whole
// document; there is no field-level update path.
type Store interface {
	// Get returns the current profile or sentinel.ErrNotFound.
	Get(ctx context.Context, userID id.UserID) (*Profile, error)

	// Replace upserts the profile wholesale.
	Replace(ctx context.Context, profile *Profile) error
}
