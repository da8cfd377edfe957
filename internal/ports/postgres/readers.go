// Package portspg implements the collaborator ports against the shared
// backend database. The risk engine runs alongside the core banking
// services and reads the tables they own; nothing here writes to them
// except session termination.
package portspg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gabrielgmza/simply-backend-sub000/internal/ports"
	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/platform/sentinel"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/requestcontext"
)

// Readers bundles every port backed by the shared database.
type Readers struct {
	db *sql.DB
}

func New(db *sql.DB) *Readers {
	return &Readers{db: db}
}

// -----------------------------------------------------------------------------
// IdentityReader
// -----------------------------------------------------------------------------

func (r *Readers) GetIdentity(ctx context.Context, userID id.UserID) (*ports.IdentityRecord, error) {
	query := `
		SELECT kyc_status, phone_verified, email_verified, biometrics_active,
		       created_at, level, total_invested,
		       active_defaults, settled_defaults,
		       referral_count, referred_by IS NOT NULL, profile_complete
		FROM users
		WHERE id = $1
	`
	record := ports.IdentityRecord{UserID: userID}
	var kycStatus string
	err := r.db.QueryRowContext(ctx, query, userID.String()).Scan(
		&kycStatus,
		&record.PhoneVerified,
		&record.EmailVerified,
		&record.BiometricsActive,
		&record.AccountCreatedAt,
		&record.Level,
		&record.TotalInvested,
		&record.ActiveDefaults,
		&record.SettledDefaults,
		&record.ReferralCount,
		&record.ReferredBy,
		&record.ProfileComplete,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get identity: %w", err)
	}
	record.KYCStatus = ports.KYCStatus(kycStatus)
	return &record, nil
}

// -----------------------------------------------------------------------------
// LedgerReader
// -----------------------------------------------------------------------------

func (r *Readers) ListTransactions(ctx context.Context, userID id.UserID, since time.Time) ([]ports.Transaction, error) {
	query := `
		SELECT id, user_id, type, amount, currency,
		       COALESCE(recipient_id, ''), international, status, created_at
		FROM transactions
		WHERE user_id = $1 AND created_at >= $2
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID.String(), since)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []ports.Transaction
	for rows.Next() {
		var (
			tx            ports.Transaction
			rawID, rawUID string
		)
		if err := rows.Scan(&rawID, &rawUID, &tx.Type, &tx.Amount, &tx.Currency,
			&tx.RecipientID, &tx.International, &tx.Status, &tx.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if tx.ID, err = id.ParseTransactionID(rawID); err != nil {
			return nil, fmt.Errorf("parse transaction id: %w", err)
		}
		if tx.UserID, err = id.ParseUserID(rawUID); err != nil {
			return nil, fmt.Errorf("parse user id: %w", err)
		}
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}

func (r *Readers) CountRecentOperations(ctx context.Context, userID id.UserID, window time.Duration) (int, error) {
	query := `SELECT COUNT(*) FROM transactions WHERE user_id = $1 AND created_at >= $2`
	var count int
	since := requestcontext.Now(ctx).Add(-window)
	if err := r.db.QueryRowContext(ctx, query, userID.String(), since).Scan(&count); err != nil {
		return 0, fmt.Errorf("count recent operations: %w", err)
	}
	return count, nil
}

func (r *Readers) RecipientTransferCount(ctx context.Context, userID id.UserID, recipientID string) (int, error) {
	query := `SELECT COUNT(*) FROM transactions WHERE user_id = $1 AND recipient_id = $2`
	var count int
	if err := r.db.QueryRowContext(ctx, query, userID.String(), recipientID).Scan(&count); err != nil {
		return 0, fmt.Errorf("recipient transfer count: %w", err)
	}
	return count, nil
}

// -----------------------------------------------------------------------------
// SessionReader
// -----------------------------------------------------------------------------

const sessionColumns = `
	id, user_id, COALESCE(ip, ''), COALESCE(platform, ''),
	COALESCE(device_fingerprint, ''), COALESCE(country, ''),
	COALESCE(latitude, 0), COALESCE(longitude, 0),
	started_at, COALESCE(ended_at, 'epoch'::timestamptz)
`

func (r *Readers) ListSessions(ctx context.Context, userID id.UserID, since time.Time) ([]ports.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE user_id = $1 AND started_at >= $2
		ORDER BY started_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID.String(), since)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []ports.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	return sessions, rows.Err()
}

func (r *Readers) LastSession(ctx context.Context, userID id.UserID) (*ports.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE user_id = $1
		ORDER BY started_at DESC
		LIMIT 1
	`
	row := r.db.QueryRowContext(ctx, query, userID.String())
	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return session, nil
}

func (r *Readers) CountFailedLogins(ctx context.Context, userID id.UserID, window time.Duration) (int, error) {
	query := `
		SELECT COUNT(*) FROM login_attempts
		WHERE user_id = $1 AND success = false AND attempted_at >= $2
	`
	var count int
	since := requestcontext.Now(ctx).Add(-window)
	if err := r.db.QueryRowContext(ctx, query, userID.String(), since).Scan(&count); err != nil {
		return 0, fmt.Errorf("count failed logins: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*ports.Session, error) {
	var (
		session       ports.Session
		rawID, rawUID string
		endedAt       time.Time
	)
	err := row.Scan(&rawID, &rawUID, &session.IP, &session.Platform,
		&session.DeviceFP, &session.Country, &session.Latitude, &session.Longitude,
		&session.StartedAt, &endedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	if session.ID, err = id.ParseSessionID(rawID); err != nil {
		return nil, fmt.Errorf("parse session id: %w", err)
	}
	if session.UserID, err = id.ParseUserID(rawUID); err != nil {
		return nil, fmt.Errorf("parse user id: %w", err)
	}
	// epoch stands in for NULL; open sessions keep the zero value.
	if endedAt.Unix() > 0 {
		session.EndedAt = endedAt
	}
	return &session, nil
}

// -----------------------------------------------------------------------------
// EmployeeDirectory / SessionTerminator
// -----------------------------------------------------------------------------

func (r *Readers) GetEmployee(ctx context.Context, employeeID id.EmployeeID) (*ports.Employee, error) {
	query := `
		SELECT id, role, status, COALESCE(supervisor_id::text, '')
		FROM employees
		WHERE id = $1
	`
	var (
		employee           ports.Employee
		rawID, rawSupervID string
	)
	err := r.db.QueryRowContext(ctx, query, employeeID.String()).Scan(
		&rawID, &employee.Role, &employee.Status, &rawSupervID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get employee: %w", err)
	}
	if employee.ID, err = id.ParseEmployeeID(rawID); err != nil {
		return nil, fmt.Errorf("parse employee id: %w", err)
	}
	if rawSupervID != "" {
		if employee.SupervisorID, err = id.ParseEmployeeID(rawSupervID); err != nil {
			return nil, fmt.Errorf("parse supervisor id: %w", err)
		}
	}
	return &employee, nil
}

func (r *Readers) ListByRole(ctx context.Context, role string) ([]ports.Employee, error) {
	query := `
		SELECT id, role, status, COALESCE(supervisor_id::text, '')
		FROM employees
		WHERE role = $1 AND status = 'active'
	`
	rows, err := r.db.QueryContext(ctx, query, role)
	if err != nil {
		return nil, fmt.Errorf("list employees by role: %w", err)
	}
	defer rows.Close()

	var employees []ports.Employee
	for rows.Next() {
		var (
			employee           ports.Employee
			rawID, rawSupervID string
		)
		if err := rows.Scan(&rawID, &employee.Role, &employee.Status, &rawSupervID); err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		if employee.ID, err = id.ParseEmployeeID(rawID); err != nil {
			return nil, fmt.Errorf("parse employee id: %w", err)
		}
		if rawSupervID != "" {
			if employee.SupervisorID, err = id.ParseEmployeeID(rawSupervID); err != nil {
				return nil, fmt.Errorf("parse supervisor id: %w", err)
			}
		}
		employees = append(employees, employee)
	}
	return employees, rows.Err()
}

func (r *Readers) TerminateActiveSessions(ctx context.Context, employeeID id.EmployeeID, reason string) error {
	query := `
		UPDATE employee_sessions
		SET ended_at = $1, end_reason = $2
		WHERE employee_id = $3 AND ended_at IS NULL
	`
	_, err := r.db.ExecContext(ctx, query, requestcontext.Now(ctx), reason, employeeID.String())
	if err != nil {
		return fmt.Errorf("terminate employee sessions: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------
// WatchlistReader
// -----------------------------------------------------------------------------

func (r *Readers) IsIPBlacklisted(ctx context.Context, ip string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM ip_blacklist WHERE ip = $1)`
	var blacklisted bool
	if err := r.db.QueryRowContext(ctx, query, ip).Scan(&blacklisted); err != nil {
		return false, fmt.Errorf("ip blacklist lookup: %w", err)
	}
	return blacklisted, nil
}

func (r *Readers) IsRecipientWatchlisted(ctx context.Context, recipientID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM recipient_watchlist WHERE recipient_id = $1)`
	var watchlisted bool
	if err := r.db.QueryRowContext(ctx, query, recipientID).Scan(&watchlisted); err != nil {
		return false, fmt.Errorf("recipient watchlist lookup: %w", err)
	}
	return watchlisted, nil
}

func (r *Readers) HasOpenFraudAlert(ctx context.Context, userID id.UserID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM fraud_alerts WHERE user_id = $1 AND status = 'open')`
	var open bool
	if err := r.db.QueryRowContext(ctx, query, userID.String()).Scan(&open); err != nil {
		return false, fmt.Errorf("open fraud alert lookup: %w", err)
	}
	return open, nil
}

// -----------------------------------------------------------------------------
// TrafficStatsReader
// -----------------------------------------------------------------------------

// TrailingStats derives the auto-trigger inputs from the evaluation and
// transaction tables. Rates are 0 when the trailing hour saw no traffic.
func (r *Readers) TrailingStats(ctx context.Context) (*ports.TrafficStats, error) {
	now := requestcontext.Now(ctx)
	stats := ports.TrafficStats{SampledAt: now}

	fraudQuery := `
		SELECT COALESCE(AVG(CASE WHEN decision IN ('DECLINE', 'BLOCK_USER') THEN 1.0 ELSE 0.0 END), 0)
		FROM fraud_evaluations
		WHERE evaluated_at >= $1
	`
	if err := r.db.QueryRowContext(ctx, fraudQuery, now.Add(-time.Hour)).Scan(&stats.FraudRate); err != nil {
		return nil, fmt.Errorf("trailing fraud rate: %w", err)
	}

	trafficQuery := `
		SELECT COALESCE(AVG(CASE WHEN status = 'failed' THEN 1.0 ELSE 0.0 END), 0),
		       COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE created_at >= $1
	`
	if err := r.db.QueryRowContext(ctx, trafficQuery, now.Add(-time.Hour)).Scan(&stats.ErrorRate, &stats.HourVolume); err != nil {
		return nil, fmt.Errorf("trailing hour traffic: %w", err)
	}

	weekQuery := `
		SELECT COALESCE(SUM(amount), 0) / 168.0
		FROM transactions
		WHERE created_at >= $1
	`
	if err := r.db.QueryRowContext(ctx, weekQuery, now.Add(-7*24*time.Hour)).Scan(&stats.WeekHourlyAvg); err != nil {
		return nil, fmt.Errorf("weekly hourly average: %w", err)
	}

	return &stats, nil
}
