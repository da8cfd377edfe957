package fraud

import (
	"context"

	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
)

// Store persists evaluations. The record set is append-only; nothing
// updates or deletes a verdict once written.
type Store interface {
	Create(ctx context.Context, evaluation *Evaluation) error

	// Get returns one evaluation or sentinel.ErrNotFound.
	Get(ctx context.Context, evaluationID id.EvaluationID) (*Evaluation, error)

	// ListByUser returns evaluations newest-first, capped at limit.
	ListByUser(ctx context.Context, userID id.UserID, limit int) ([]*Evaluation, error)
}
