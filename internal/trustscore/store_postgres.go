package trustscore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/platform/sentinel"
)

// PostgresStore persists snapshots in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, snapshot *Snapshot) error {
	query := `
		INSERT INTO trust_score_snapshots (
			user_id, global_score, tier, trend,
			identity_score, financial_score, behavioral_score,
			transactional_score, social_score, computed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		snapshot.UserID.String(),
		snapshot.GlobalScore,
		string(snapshot.Tier),
		string(snapshot.Trend),
		snapshot.Components.Identity,
		snapshot.Components.Financial,
		snapshot.Components.Behavioral,
		snapshot.Components.Transactional,
		snapshot.Components.Social,
		snapshot.ComputedAt,
	)
	if err != nil {
		return fmt.Errorf("save trust score snapshot: %w", err)
	}
	return nil
}

func (s *PostgresStore) Latest(ctx context.Context, userID id.UserID) (*Snapshot, error) {
	query := `
		SELECT user_id, global_score, tier, trend,
		       identity_score, financial_score, behavioral_score,
		       transactional_score, social_score, computed_at
		FROM trust_score_snapshots
		WHERE user_id = $1
		ORDER BY computed_at DESC
		LIMIT 1
	`
	var (
		snapshot    Snapshot
		rawUserID   string
		tier, trend string
	)
	err := s.db.QueryRowContext(ctx, query, userID.String()).Scan(
		&rawUserID,
		&snapshot.GlobalScore,
		&tier,
		&trend,
		&snapshot.Components.Identity,
		&snapshot.Components.Financial,
		&snapshot.Components.Behavioral,
		&snapshot.Components.Transactional,
		&snapshot.Components.Social,
		&snapshot.ComputedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("latest trust score snapshot: %w", err)
	}

	snapshot.UserID, err = id.ParseUserID(rawUserID)
	if err != nil {
		return nil, fmt.Errorf("parse user id: %w", err)
	}
	snapshot.Tier = Tier(tier)
	snapshot.Trend = Trend(trend)
	snapshot.Benefits = BenefitsFor(snapshot.Tier)
	return &snapshot, nil
}
