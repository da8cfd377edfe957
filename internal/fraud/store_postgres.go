package fraud

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

// PostgresStore persists evaluations in PostgreSQL. Factors and model
// scores are JSONB; the transaction id column is nullable.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const evaluationColumns = `
	id, user_id, transaction_id, fraud_score, risk_level, confidence,
	decision, risk_factors, model_scores, model_version,
	processing_time_ms, evaluated_at
`

func (s *PostgresStore) Create(ctx context.Context, evaluation *Evaluation) error {
	factors, err := json.Marshal(evaluation.RiskFactors)
	if err != nil {
		return fmt.Errorf("marshal risk factors: %w", err)
	}
	modelScores, err := json.Marshal(evaluation.ModelScores)
	if err != nil {
		return fmt.Errorf("marshal model scores: %w", err)
	}

	var transactionID sql.NullString
	if !evaluation.TransactionID.IsNil() {
		transactionID = sql.NullString{String: evaluation.TransactionID.String(), Valid: true}
	}

	query := `
		INSERT INTO fraud_evaluations (` + evaluationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = s.db.ExecContext(ctx, query,
		evaluation.ID.String(),
		evaluation.UserID.String(),
		transactionID,
		evaluation.FraudScore,
		string(evaluation.RiskLevel),
		evaluation.Confidence,
		string(evaluation.Decision),
		factors,
		modelScores,
		evaluation.ModelVersion,
		evaluation.ProcessingTime.Milliseconds(),
		evaluation.EvaluatedAt,
	)
	if err != nil {
		return fmt.Errorf("create fraud evaluation: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, evaluationID id.EvaluationID) (*Evaluation, error) {
	query := `
		SELECT ` + evaluationColumns + `
		FROM fraud_evaluations
		WHERE id = $1
	`
	evaluation, err := scanEvaluation(s.db.QueryRowContext(ctx, query, evaluationID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get fraud evaluation: %w", err)
	}
	return evaluation, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID, limit int) ([]*Evaluation, error) {
	query := `
		SELECT ` + evaluationColumns + `
		FROM fraud_evaluations
		WHERE user_id = $1
		ORDER BY evaluated_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, userID.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("list fraud evaluations: %w", err)
	}
	defer rows.Close()

	var out []*Evaluation
	for rows.Next() {
		evaluation, err := scanEvaluation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fraud evaluation: %w", err)
		}
		out = append(out, evaluation)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvaluation(row rowScanner) (*Evaluation, error) {
	var (
		evaluation    Evaluation
		rawID         string
		rawUserID     string
		transactionID sql.NullString
		level         string
		decision      string
		factors       []byte
		modelScores   []byte
		processingMS  int64
	)
	err := row.Scan(
		&rawID,
		&rawUserID,
		&transactionID,
		&evaluation.FraudScore,
		&level,
		&evaluation.Confidence,
		&decision,
		&factors,
		&modelScores,
		&evaluation.ModelVersion,
		&processingMS,
		&evaluation.EvaluatedAt,
	)
	if err != nil {
		return nil, err
	}

	if evaluation.ID, err = id.ParseEvaluationID(rawID); err != nil {
		return nil, fmt.Errorf("parse evaluation id: %w", err)
	}
	if evaluation.UserID, err = id.ParseUserID(rawUserID); err != nil {
		return nil, fmt.Errorf("parse user id: %w", err)
	}
	if transactionID.Valid {
		if evaluation.TransactionID, err = id.ParseTransactionID(transactionID.String); err != nil {
			return nil, fmt.Errorf("parse transaction id: %w", err)
		}
	}
	evaluation.RiskLevel = RiskLevel(level)
	evaluation.Decision = Decision(decision)
	if err := json.Unmarshal(factors, &evaluation.RiskFactors); err != nil {
		return nil, fmt.Errorf("unmarshal risk factors: %w", err)
	}
	if err := json.Unmarshal(modelScores, &evaluation.ModelScores); err != nil {
		return nil, fmt.Errorf("unmarshal model scores: %w", err)
	}
	evaluation.ProcessingTime = time.Duration(processingMS) * time.Millisecond
	return &evaluation, nil
}
