package device

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/platform/sentinel"
)

// PostgresStore persists device records in PostgreSQL. The store is pure
// I/O; degradation thresholds and trust transitions live in the service.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const deviceColumns = `
	id, user_id, fingerprint, trust_level, platform, display_name,
	first_seen_at, last_seen_at, last_seen_ip, login_count,
	successful_ops, failed_ops, is_blocked, is_emulator, is_rooted
`

func (s *PostgresStore) Get(ctx context.Context, userID id.UserID, fingerprint string) (*Record, error) {
	query := `SELECT ` + deviceColumns + ` FROM user_devices WHERE user_id = $1 AND fingerprint = $2`
	record, err := scanDevice(s.db.QueryRowContext(ctx, query, userID.String(), fingerprint))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get device: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) Create(ctx context.Context, record *Record) error {
	query := `
		INSERT INTO user_devices (` + deviceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (user_id, fingerprint) DO NOTHING
	`
	result, err := s.db.ExecContext(ctx, query,
		record.ID.String(),
		record.UserID.String(),
		record.Fingerprint,
		string(record.TrustLevel),
		record.Platform,
		record.DisplayName,
		record.FirstSeenAt,
		record.LastSeenAt,
		record.LastSeenIP,
		record.LoginCount,
		record.SuccessfulOps,
		record.FailedOps,
		record.IsBlocked,
		record.IsEmulator,
		record.IsRooted,
	)
	if err != nil {
		return fmt.Errorf("create device: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("create device rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

// Touch uses a single UPDATE...RETURNING so concurrent sightings never lose
// login counts.
func (s *PostgresStore) Touch(ctx context.Context, userID id.UserID, fingerprint, ip string, at time.Time) (*Record, error) {
	query := `
		UPDATE user_devices
		SET login_count = login_count + 1,
		    last_seen_at = $3,
		    last_seen_ip = CASE WHEN $4 <> '' THEN $4 ELSE last_seen_ip END
		WHERE user_id = $1 AND fingerprint = $2
		RETURNING ` + deviceColumns
	record, err := scanDevice(s.db.QueryRowContext(ctx, query, userID.String(), fingerprint, at, ip))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("touch device: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) RecordOperation(ctx context.Context, userID id.UserID, fingerprint string, success bool) (*Record, error) {
	query := `
		UPDATE user_devices
		SET successful_ops = successful_ops + CASE WHEN $3 THEN 1 ELSE 0 END,
		    failed_ops = failed_ops + CASE WHEN $3 THEN 0 ELSE 1 END
		WHERE user_id = $1 AND fingerprint = $2
		RETURNING ` + deviceColumns
	record, err := scanDevice(s.db.QueryRowContext(ctx, query, userID.String(), fingerprint, success))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("record device operation: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) SetTrustLevel(ctx context.Context, userID id.UserID, fingerprint string, level TrustLevel) (*Record, error) {
	query := `
		UPDATE user_devices
		SET trust_level = $3
		WHERE user_id = $1 AND fingerprint = $2
		RETURNING ` + deviceColumns
	record, err := scanDevice(s.db.QueryRowContext(ctx, query, userID.String(), fingerprint, string(level)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("set device trust level: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) SetBlocked(ctx context.Context, userID id.UserID, fingerprint string, blocked bool) (*Record, error) {
	query := `
		UPDATE user_devices
		SET is_blocked = $3
		WHERE user_id = $1 AND fingerprint = $2
		RETURNING ` + deviceColumns
	record, err := scanDevice(s.db.QueryRowContext(ctx, query, userID.String(), fingerprint, blocked))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("set device blocked: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID) ([]*Record, error) {
	query := `SELECT ` + deviceColumns + ` FROM user_devices WHERE user_id = $1 ORDER BY last_seen_at DESC`
	rows, err := s.db.QueryContext(ctx, query, userID.String())
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		record, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate devices: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDevice(row rowScanner) (*Record, error) {
	var (
		record           Record
		deviceID, userID string
		trustLevel       string
		lastSeenIP       sql.NullString
	)
	err := row.Scan(
		&deviceID,
		&userID,
		&record.Fingerprint,
		&trustLevel,
		&record.Platform,
		&record.DisplayName,
		&record.FirstSeenAt,
		&record.LastSeenAt,
		&lastSeenIP,
		&record.LoginCount,
		&record.SuccessfulOps,
		&record.FailedOps,
		&record.IsBlocked,
		&record.IsEmulator,
		&record.IsRooted,
	)
	if err != nil {
		return nil, err
	}

	record.ID, err = id.ParseDeviceID(deviceID)
	if err != nil {
		return nil, fmt.Errorf("parse device id: %w", err)
	}
	record.UserID, err = id.ParseUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("parse user id: %w", err)
	}
	record.TrustLevel = TrustLevel(trustLevel)
	record.LastSeenIP = lastSeenIP.String
	return &record, nil
}
