package employee

import (
	"context"
	"time"

	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
)

// Store persists the action log, baselines, anomalies, and the
// dual-approval flag.
type Store interface {
	// RecordAction appends one action to the employee's log.
	RecordAction(ctx context.Context, action ActionRecord) error

	// ListActions returns the employee's actions since the cutoff, oldest
	// first.
	ListActions(ctx context.Context, employeeID id.EmployeeID, since time.Time) ([]ActionRecord, error)

	// GetBaseline returns the current baseline or sentinel.ErrNotFound.
	GetBaseline(ctx context.Context, employeeID id.EmployeeID) (*Baseline, error)

	// ReplaceBaseline upserts the baseline wholesale.
	ReplaceBaseline(ctx context.Context, baseline *Baseline) error

	// CreateAnomaly persists a new anomaly.
	CreateAnomaly(ctx context.Context, anomaly *Anomaly) error

	// GetAnomaly returns one anomaly or sentinel.ErrNotFound.
	GetAnomaly(ctx context.Context, anomalyID id.AnomalyID) (*Anomaly, error)

	// TransitionAnomaly moves an anomaly from one status to another and
	// appends the note to its action trail. It compares against the
	// expected current status and returns sentinel.ErrConflict when the
	// anomaly moved in the meantime.
	TransitionAnomaly(ctx context.Context, anomalyID id.AnomalyID, from, to Status, note string) (*Anomaly, error)

	// ListAnomalies returns the employee's newest anomalies first.
	ListAnomalies(ctx context.Context, employeeID id.EmployeeID, limit int) ([]*Anomaly, error)

	// RequireDualApproval flags the employee for mandatory dual approval
	// on sensitive operations.
	RequireDualApproval(ctx context.Context, employeeID id.EmployeeID, reason string, at time.Time) error

	// DualApprovalRequired reports whether the flag is set.
	DualApprovalRequired(ctx context.Context, employeeID id.EmployeeID) (bool, error)
}
