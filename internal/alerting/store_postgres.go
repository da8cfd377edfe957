package alerting

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

// PostgresStore persists alerts in PostgreSQL. The dedup key is stored
// denormalized so duplicate lookups stay a single indexed query.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const alertColumns = `
	id, category, priority, title, message, target_type, target_id,
	source, source_id, channels, status, escalation_level, escalated_from,
	created_at, sent_at, read_at, actioned_by, last_escalated_at
`

func (s *PostgresStore) Create(ctx context.Context, alert *Alert) error {
	channels, err := json.Marshal(alert.Channels)
	if err != nil {
		return fmt.Errorf("marshal channels: %w", err)
	}

	var escalatedFrom sql.NullString
	if alert.EscalatedFrom != nil {
		escalatedFrom = sql.NullString{String: alert.EscalatedFrom.String(), Valid: true}
	}

	query := `
		INSERT INTO alerts (` + alertColumns + `, dedup_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`
	_, err = s.db.ExecContext(ctx, query,
		alert.ID.String(),
		alert.Category,
		string(alert.Priority),
		alert.Title,
		alert.Message,
		string(alert.Target.Type),
		alert.Target.ID,
		alert.Source,
		alert.SourceID,
		channels,
		string(alert.Status),
		alert.EscalationLevel,
		escalatedFrom,
		alert.CreatedAt,
		alert.SentAt,
		alert.ReadAt,
		alert.ActionedBy,
		alert.LastEscalatedAt,
		alert.DedupKey(),
	)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, alertID id.AlertID) (*Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE id = $1`
	alert, err := scanAlert(s.db.QueryRowContext(ctx, query, alertID.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return alert, err
}

func (s *PostgresStore) Update(ctx context.Context, alert *Alert) error {
	query := `
		UPDATE alerts
		SET status = $1, escalation_level = $2, sent_at = $3, read_at = $4,
		    actioned_by = $5, last_escalated_at = $6
		WHERE id = $7
	`
	result, err := s.db.ExecContext(ctx, query,
		string(alert.Status),
		alert.EscalationLevel,
		alert.SentAt,
		alert.ReadAt,
		alert.ActionedBy,
		alert.LastEscalatedAt,
		alert.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("update alert: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update alert: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindRecentDuplicate(ctx context.Context, dedupKey string, after time.Time) (*Alert, error) {
	query := `
		SELECT ` + alertColumns + `
		FROM alerts
		WHERE dedup_key = $1 AND created_at >= $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	alert, err := scanAlert(s.db.QueryRowContext(ctx, query, dedupKey, after))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return alert, err
}

func (s *PostgresStore) ListEscalationDue(ctx context.Context, now time.Time, interval time.Duration) ([]*Alert, error) {
	query := `
		SELECT ` + alertColumns + `
		FROM alerts
		WHERE status NOT IN ('READ', 'ACTIONED')
		  AND escalation_level < $1
		  AND escalated_from IS NULL
		  AND COALESCE(last_escalated_at, created_at) <= $2
		ORDER BY created_at ASC
	`
	return s.queryAlerts(ctx, query, MaxEscalationLevel, now.Add(-interval))
}

func (s *PostgresStore) ListByTarget(ctx context.Context, target Target, unreadOnly bool) ([]*Alert, error) {
	query := `
		SELECT ` + alertColumns + `
		FROM alerts
		WHERE target_type = $1 AND target_id = $2
	`
	if unreadOnly {
		query += ` AND status NOT IN ('READ', 'ACTIONED')`
	}
	query += ` ORDER BY created_at DESC`
	return s.queryAlerts(ctx, query, string(target.Type), target.ID)
}

func (s *PostgresStore) queryAlerts(ctx context.Context, query string, args ...any) ([]*Alert, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var out []*Alert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, alert)
	}
	return out, rows.Err()
}

type alertRowScanner interface {
	Scan(dest ...any) error
}

func scanAlert(row alertRowScanner) (*Alert, error) {
	var (
		alert         Alert
		rawID         string
		escalatedFrom sql.NullString
		channels      []byte
	)
	err := row.Scan(
		&rawID,
		&alert.Category,
		(*string)(&alert.Priority),
		&alert.Title,
		&alert.Message,
		(*string)(&alert.Target.Type),
		&alert.Target.ID,
		&alert.Source,
		&alert.SourceID,
		&channels,
		(*string)(&alert.Status),
		&alert.EscalationLevel,
		&escalatedFrom,
		&alert.CreatedAt,
		&alert.SentAt,
		&alert.ReadAt,
		&alert.ActionedBy,
		&alert.LastEscalatedAt,
	)
	if err != nil {
		return nil, err
	}
	if alert.ID, err = id.ParseAlertID(rawID); err != nil {
		return nil, err
	}
	if escalatedFrom.Valid {
		parsed, err := id.ParseAlertID(escalatedFrom.String)
		if err != nil {
			return nil, err
		}
		alert.EscalatedFrom = &parsed
	}
	if err := json.Unmarshal(channels, &alert.Channels); err != nil {
		return nil, fmt.Errorf("decode channels: %w", err)
	}
	return &alert, nil
}
