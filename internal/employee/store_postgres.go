package employee

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/platform/sentinel"
)

// PostgresStore persists the action log, baselines, and anomalies in
// PostgreSQL. Baselines are one JSONB document per employee.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) RecordAction(ctx context.Context, action ActionRecord) error {
	query := `
		INSERT INTO employee_actions (employee_id, action, resource, client_id, ip, amount, at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		action.EmployeeID.String(),
		action.Action,
		action.Resource,
		nullableString(action.ClientID),
		action.IP,
		action.Amount,
		action.At,
	)
	if err != nil {
		return fmt.Errorf("insert employee action: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListActions(ctx context.Context, employeeID id.EmployeeID, since time.Time) ([]ActionRecord, error) {
	query := `
		SELECT employee_id, action, resource, client_id, ip, amount, at
		FROM employee_actions
		WHERE employee_id = $1 AND at > $2
		ORDER BY at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, employeeID.String(), since)
	if err != nil {
		return nil, fmt.Errorf("list employee actions: %w", err)
	}
	defer rows.Close()

	var out []ActionRecord
	for rows.Next() {
		var (
			action     ActionRecord
			rawID      string
			clientID   sql.NullString
		)
		if err := rows.Scan(&rawID, &action.Action, &action.Resource, &clientID, &action.IP, &action.Amount, &action.At); err != nil {
			return nil, fmt.Errorf("scan employee action: %w", err)
		}
		if action.EmployeeID, err = id.ParseEmployeeID(rawID); err != nil {
			return nil, err
		}
		action.ClientID = clientID.String
		out = append(out, action)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetBaseline(ctx context.Context, employeeID id.EmployeeID) (*Baseline, error) {
	var raw []byte
	query := `SELECT document FROM employee_baselines WHERE employee_id = $1`
	err := s.db.QueryRowContext(ctx, query, employeeID.String()).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load employee baseline: %w", err)
	}

	var baseline Baseline
	if err := json.Unmarshal(raw, &baseline); err != nil {
		return nil, fmt.Errorf("decode employee baseline: %w", err)
	}
	return &baseline, nil
}

func (s *PostgresStore) ReplaceBaseline(ctx context.Context, baseline *Baseline) error {
	raw, err := json.Marshal(baseline)
	if err != nil {
		return fmt.Errorf("marshal employee baseline: %w", err)
	}

	query := `
		INSERT INTO employee_baselines (employee_id, document, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (employee_id) DO UPDATE SET document = $2, updated_at = $3
	`
	if _, err := s.db.ExecContext(ctx, query, baseline.EmployeeID.String(), raw, baseline.UpdatedAt); err != nil {
		return fmt.Errorf("replace employee baseline: %w", err)
	}
	return nil
}

const anomalyColumns = `
	id, employee_id, anomaly_type, severity, description,
	baseline, actual, deviation_percent, status, actions_taken, detected_at
`

func (s *PostgresStore) CreateAnomaly(ctx context.Context, anomaly *Anomaly) error {
	taken, err := json.Marshal(anomaly.ActionsTaken)
	if err != nil {
		return fmt.Errorf("marshal actions taken: %w", err)
	}

	query := `
		INSERT INTO employee_anomalies (` + anomalyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = s.db.ExecContext(ctx, query,
		anomaly.ID.String(),
		anomaly.EmployeeID.String(),
		string(anomaly.Type),
		string(anomaly.Severity),
		anomaly.Description,
		anomaly.Baseline,
		anomaly.Actual,
		anomaly.DeviationPercent,
		string(anomaly.Status),
		taken,
		anomaly.DetectedAt,
	)
	if err != nil {
		return fmt.Errorf("insert employee anomaly: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetAnomaly(ctx context.Context, anomalyID id.AnomalyID) (*Anomaly, error) {
	query := `SELECT ` + anomalyColumns + ` FROM employee_anomalies WHERE id = $1`
	anomaly, err := scanAnomaly(s.db.QueryRowContext(ctx, query, anomalyID.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return anomaly, err
}

func (s *PostgresStore) TransitionAnomaly(ctx context.Context, anomalyID id.AnomalyID, from, to Status, note string) (*Anomaly, error) {
	noteJSON, err := json.Marshal([]string{note})
	if err != nil {
		return nil, fmt.Errorf("marshal transition note: %w", err)
	}

	query := `
		UPDATE employee_anomalies
		SET status = $1, actions_taken = actions_taken || $2::jsonb
		WHERE id = $3 AND status = $4
		RETURNING ` + anomalyColumns
	anomaly, err := scanAnomaly(s.db.QueryRowContext(ctx, query, string(to), noteJSON, anomalyID.String(), string(from)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, s.transitionConflict(ctx, anomalyID)
	}
	return anomaly, err
}

// transitionConflict distinguishes a concurrent status change from a
// missing anomaly after an empty CAS update.
func (s *PostgresStore) transitionConflict(ctx context.Context, anomalyID id.AnomalyID) error {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM employee_anomalies WHERE id = $1)`
	if err := s.db.QueryRowContext(ctx, query, anomalyID.String()).Scan(&exists); err != nil {
		return fmt.Errorf("check anomaly existence: %w", err)
	}
	if exists {
		return sentinel.ErrConflict
	}
	return sentinel.ErrNotFound
}

func (s *PostgresStore) ListAnomalies(ctx context.Context, employeeID id.EmployeeID, limit int) ([]*Anomaly, error) {
	query := `
		SELECT ` + anomalyColumns + `
		FROM employee_anomalies
		WHERE employee_id = $1
		ORDER BY detected_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, employeeID.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("list employee anomalies: %w", err)
	}
	defer rows.Close()

	var out []*Anomaly
	for rows.Next() {
		anomaly, err := scanAnomaly(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, anomaly)
	}
	return out, rows.Err()
}

func (s *PostgresStore) RequireDualApproval(ctx context.Context, employeeID id.EmployeeID, reason string, at time.Time) error {
	query := `
		INSERT INTO employee_dual_approval (employee_id, reason, flagged_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (employee_id) DO UPDATE SET reason = $2, flagged_at = $3
	`
	if _, err := s.db.ExecContext(ctx, query, employeeID.String(), reason, at); err != nil {
		return fmt.Errorf("flag dual approval: %w", err)
	}
	return nil
}

func (s *PostgresStore) DualApprovalRequired(ctx context.Context, employeeID id.EmployeeID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM employee_dual_approval WHERE employee_id = $1)`
	if err := s.db.QueryRowContext(ctx, query, employeeID.String()).Scan(&exists); err != nil {
		return false, fmt.Errorf("check dual approval flag: %w", err)
	}
	return exists, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnomaly(row rowScanner) (*Anomaly, error) {
	var (
		anomaly       Anomaly
		rawID, rawEmp string
		taken         []byte
	)
	err := row.Scan(
		&rawID,
		&rawEmp,
		(*string)(&anomaly.Type),
		(*string)(&anomaly.Severity),
		&anomaly.Description,
		&anomaly.Baseline,
		&anomaly.Actual,
		&anomaly.DeviationPercent,
		(*string)(&anomaly.Status),
		&taken,
		&anomaly.DetectedAt,
	)
	if err != nil {
		return nil, err
	}
	if anomaly.ID, err = id.ParseAnomalyID(rawID); err != nil {
		return nil, err
	}
	if anomaly.EmployeeID, err = id.ParseEmployeeID(rawEmp); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(taken, &anomaly.ActionsTaken); err != nil {
		return nil, fmt.Errorf("decode actions taken: %w", err)
	}
	return &anomaly, nil
}

func nullableString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}
