package alerting

import (
	"context"
	"time"

	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
)

// Store persists alerts. Implementations return sentinel.ErrNotFound for
// missing alerts; the service translates to coded errors.
type Store interface {
	Create(ctx context.Context, alert *Alert) error
	Get(ctx context.Context, alertID id.AlertID) (*Alert, error)
	Update(ctx context.Context, alert *Alert) error

	// FindRecentDuplicate returns the newest alert with the same dedup key
	// created after the cutoff, or nil.
	FindRecentDuplicate(ctx context.Context, dedupKey string, after time.Time) (*Alert, error)

	// ListEscalationDue returns unread original alerts (not linked
	// escalation copies) whose escalation timer has elapsed and whose
	// level is below the cap.
	ListEscalationDue(ctx context.Context, now time.Time, interval time.Duration) ([]*Alert, error)

	// ListByTarget returns alerts for a recipient, newest first.
	ListByTarget(ctx context.Context, target Target, unreadOnly bool) ([]*Alert, error)
}
