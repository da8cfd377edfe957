package riskauth

import (
	"context"

	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
)

// Store persists assessments. Stores do I/O only; scoring lives in the
// service. The record is append-only except for the single challenge
// completion flip.
type Store interface {
	// Create persists a new assessment.
	Create(ctx context.Context, assessment *Assessment) error

	// LatestForSession returns the newest assessment for (userID, sessionID)
	// or sentinel.ErrNotFound.
	LatestForSession(ctx context.Context, userID id.UserID, sessionID id.SessionID) (*Assessment, error)

	// MarkChallengeCompleted flips the completion flag exactly once and
	// returns the updated record. A second call on the same assessment
	// returns sentinel.ErrConflict.
	MarkChallengeCompleted(ctx context.Context, assessmentID id.AssessmentID) (*Assessment, error)

	// ListByUser returns assessments newest-first, capped at limit.
	ListByUser(ctx context.Context, userID id.UserID, limit int) ([]*Assessment, error)
}
