package fraud

import (
	"time"

	"github.com/gabrielgmza/simply-backend-sub000/internal/trustscore"
	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
)

// Decision is the final verdict on a transaction.
type Decision string

const (
	DecisionApprove     Decision = "APPROVE"
	DecisionApproveWith Decision = "APPROVE_WITH_2FA"
	DecisionReview      Decision = "REVIEW"
	DecisionHold        Decision = "HOLD"
	DecisionDecline     Decision = "DECLINE"
	DecisionBlockUser   Decision = "BLOCK_USER"
)

// DecisionFor maps a clamped fraud score to the decision ladder.
func DecisionFor(score int) Decision {
	switch {
	case score < 20:
		return DecisionApprove
	case score < 40:
		return DecisionApproveWith
	case score < 60:
		return DecisionReview
	case score < 80:
		return DecisionHold
	case score < 90:
		return DecisionDecline
	default:
		return DecisionBlockUser
	}
}

// RiskLevel bands the fraud score the same way assessments band risk.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

func riskLevelFor(score int) RiskLevel {
	switch {
	case score <= 30:
		return RiskLow
	case score <= 60:
		return RiskMedium
	case score <= 85:
		return RiskHigh
	default:
		return RiskCritical
	}
}

// ModelScores are the five independent sub-scores, each 0-100.
type ModelScores struct {
	Anomaly   int `json:"anomaly"`
	Pattern   int `json:"pattern"`
	Rules     int `json:"rules"`
	Velocity  int `json:"velocity"`
	Deviation int `json:"deviation"`
}

// Ensemble weights. They sum to 1.
const (
	weightAnomaly   = 0.25
	weightPattern   = 0.30
	weightRules     = 0.25
	weightVelocity  = 0.10
	weightDeviation = 0.10
)

// Compose combines the sub-scores under the fixed ensemble weights.
func Compose(scores ModelScores) int {
	weighted := weightAnomaly*float64(scores.Anomaly) +
		weightPattern*float64(scores.Pattern) +
		weightRules*float64(scores.Rules) +
		weightVelocity*float64(scores.Velocity) +
		weightDeviation*float64(scores.Deviation)
	return clampScore(int(weighted + 0.5))
}

// trustMultiplier scales the ensemble score by the customer's standing.
func trustMultiplier(tier trustscore.Tier) float64 {
	switch tier {
	case trustscore.TierElite:
		return 0.7
	case trustscore.TierHigh:
		return 0.85
	case trustscore.TierLow:
		return 1.15
	case trustscore.TierCritical:
		return 1.3
	default:
		return 1.0
	}
}

// Factor is one triggered rule with its fixed delta. Critical factors
// force a DECLINE regardless of the composite score.
type Factor struct {
	Name     string `json:"name"`
	Delta    int    `json:"delta"`
	Critical bool   `json:"critical,omitempty"`
}

// Evaluation is one append-only fraud verdict.
type Evaluation struct {
	ID             id.EvaluationID  `json:"id"`
	UserID         id.UserID        `json:"user_id"`
	TransactionID  id.TransactionID `json:"transaction_id,omitzero"`
	FraudScore     int              `json:"fraud_score"`
	RiskLevel      RiskLevel        `json:"risk_level"`
	Confidence     int              `json:"confidence"`
	Decision       Decision         `json:"decision"`
	RiskFactors    []Factor         `json:"risk_factors"`
	ModelScores    ModelScores      `json:"model_scores"`
	ModelVersion   string           `json:"model_version"`
	ProcessingTime time.Duration    `json:"processing_time"`
	EvaluatedAt    time.Time        `json:"evaluated_at"`
}

// TransactionContext is the input to one evaluation.
type TransactionContext struct {
	UserID            id.UserID        `json:"user_id"`
	TransactionID     id.TransactionID `json:"transaction_id,omitzero"`
	SessionID         id.SessionID     `json:"session_id,omitzero"`
	Type              string           `json:"type"`
	Amount            float64          `json:"amount"`
	Currency          string           `json:"currency"`
	RecipientID       string           `json:"recipient_id,omitempty"`
	International     bool             `json:"international"`
	IP                string           `json:"ip"`
	DeviceFingerprint string           `json:"device_fingerprint"`
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
