package riskauth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/platform/sentinel"
)

// PostgresStore persists assessments in PostgreSQL. Factors are JSONB.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const assessmentColumns = `
	id, user_id, session_id, operation, risk_score, risk_level,
	required_action, risk_factors, cooldown_minutes,
	challenge_completed, device_fingerprint, assessed_at
`

func (s *PostgresStore) Create(ctx context.Context, assessment *Assessment) error {
	factors, err := json.Marshal(assessment.RiskFactors)
	if err != nil {
		return fmt.Errorf("marshal risk factors: %w", err)
	}

	query := `
		INSERT INTO risk_assessments (` + assessmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = s.db.ExecContext(ctx, query,
		assessment.ID.String(),
		assessment.UserID.String(),
		assessment.SessionID.String(),
		assessment.Operation,
		assessment.RiskScore,
		string(assessment.RiskLevel),
		string(assessment.RequiredAction),
		factors,
		assessment.CooldownMinutes,
		assessment.ChallengeCompleted,
		assessment.DeviceFingerprint,
		assessment.AssessedAt,
	)
	if err != nil {
		return fmt.Errorf("create risk assessment: %w", err)
	}
	return nil
}

func (s *PostgresStore) LatestForSession(ctx context.Context, userID id.UserID, sessionID id.SessionID) (*Assessment, error) {
	query := `
		SELECT ` + assessmentColumns + `
		FROM risk_assessments
		WHERE user_id = $1 AND session_id = $2
		ORDER BY assessed_at DESC
		LIMIT 1
	`
	assessment, err := scanAssessment(s.db.QueryRowContext(ctx, query, userID.String(), sessionID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("latest assessment for session: %w", err)
	}
	return assessment, nil
}

func (s *PostgresStore) MarkChallengeCompleted(ctx context.Context, assessmentID id.AssessmentID) (*Assessment, error) {
	// The WHERE clause makes the flip single-shot; a repeat matches no row.
	query := `
		UPDATE risk_assessments
		SET challenge_completed = TRUE
		WHERE id = $1 AND challenge_completed = FALSE
		RETURNING ` + assessmentColumns + `
	`
	assessment, err := scanAssessment(s.db.QueryRowContext(ctx, query, assessmentID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.completionConflict(ctx, assessmentID)
		}
		return nil, fmt.Errorf("mark challenge completed: %w", err)
	}
	return assessment, nil
}

// completionConflict distinguishes a missing assessment from one already
// completed.
func (s *PostgresStore) completionConflict(ctx context.Context, assessmentID id.AssessmentID) error {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM risk_assessments WHERE id = $1)`,
		assessmentID.String(),
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check assessment existence: %w", err)
	}
	if exists {
		return sentinel.ErrConflict
	}
	return sentinel.ErrNotFound
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID, limit int) ([]*Assessment, error) {
	query := `
		SELECT ` + assessmentColumns + `
		FROM risk_assessments
		WHERE user_id = $1
		ORDER BY assessed_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, userID.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	defer rows.Close()

	var out []*Assessment
	for rows.Next() {
		assessment, err := scanAssessment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assessment: %w", err)
		}
		out = append(out, assessment)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssessment(row rowScanner) (*Assessment, error) {
	var (
		assessment    Assessment
		rawID         string
		rawUserID     string
		rawSessionID  string
		level, action string
		factors       []byte
	)
	err := row.Scan(
		&rawID,
		&rawUserID,
		&rawSessionID,
		&assessment.Operation,
		&assessment.RiskScore,
		&level,
		&action,
		&factors,
		&assessment.CooldownMinutes,
		&assessment.ChallengeCompleted,
		&assessment.DeviceFingerprint,
		&assessment.AssessedAt,
	)
	if err != nil {
		return nil, err
	}

	if assessment.ID, err = id.ParseAssessmentID(rawID); err != nil {
		return nil, fmt.Errorf("parse assessment id: %w", err)
	}
	if assessment.UserID, err = id.ParseUserID(rawUserID); err != nil {
		return nil, fmt.Errorf("parse user id: %w", err)
	}
	if assessment.SessionID, err = id.ParseSessionID(rawSessionID); err != nil {
		return nil, fmt.Errorf("parse session id: %w", err)
	}
	assessment.RiskLevel = RiskLevel(level)
	assessment.RequiredAction = Action(action)
	if err := json.Unmarshal(factors, &assessment.RiskFactors); err != nil {
		return nil, fmt.Errorf("unmarshal risk factors: %w", err)
	}
	return &assessment, nil
}
