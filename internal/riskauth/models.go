package riskauth

import (
	"time"

	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
)

// RiskLevel is a coarse band over the 0-100 risk score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// LevelFor maps a clamped score to its band.
func LevelFor(score int) RiskLevel {
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

// Action is the friction the caller must apply before the operation
// proceeds.
type Action string

const (
	ActionAllow        Action = "ALLOW"
	ActionBiometry     Action = "BIOMETRY"
	ActionOTP          Action = "OTP"
	ActionStepUp       Action = "STEP_UP"
	ActionManualReview Action = "MANUAL_REVIEW"
	ActionBlock        Action = "BLOCK"
)

// ActionFor maps a clamped score to the required action. The ladder is a
// pure function of the score.
func ActionFor(score int) Action {
	switch {
	case score <= 15:
		return ActionAllow
	case score <= 30:
		return ActionBiometry
	case score <= 50:
		return ActionOTP
	case score <= 75:
		return ActionStepUp
	case score >= 90:
		return ActionBlock
	default:
		return ActionManualReview
	}
}

// CooldownFor returns the minutes a failed challenge locks the operation
// out for, by score band.
func CooldownFor(score int) int {
	switch {
	case score <= 15:
		return 0
	case score <= 30:
		return 5
	case score <= 50:
		return 15
	case score <= 75:
		return 30
	default:
		return 60
	}
}

// RequiresChallenge reports whether the action involves a verifiable
// challenge.
func (a Action) RequiresChallenge() bool {
	switch a {
	case ActionBiometry, ActionOTP, ActionStepUp:
		return true
	}
	return false
}

// Factor is one named, signed contribution to the risk score.
type Factor struct {
	Name   string `json:"name"`
	Weight int    `json:"weight"`
}

// Assessment is one persisted risk decision. It is written before the
// caller sees the result and mutated exactly once, on challenge
// completion.
type Assessment struct {
	ID                 id.AssessmentID `json:"id"`
	UserID             id.UserID       `json:"user_id"`
	SessionID          id.SessionID    `json:"session_id"`
	Operation          string          `json:"operation"`
	RiskScore          int             `json:"risk_score"`
	RiskLevel          RiskLevel       `json:"risk_level"`
	RequiredAction     Action          `json:"required_action"`
	RiskFactors        []Factor        `json:"risk_factors"`
	CooldownMinutes    int             `json:"cooldown_minutes,omitempty"`
	ChallengeCompleted bool            `json:"challenge_completed"`
	DeviceFingerprint  string          `json:"device_fingerprint,omitempty"`
	AssessedAt         time.Time       `json:"assessed_at"`
}

// OperationContext is the input to one risk assessment.
type OperationContext struct {
	UserID            id.UserID    `json:"user_id"`
	SessionID         id.SessionID `json:"session_id"`
	Operation         string       `json:"operation"`
	Amount            float64      `json:"amount,omitempty"`
	RecipientID       string       `json:"recipient_id,omitempty"`
	IP                string       `json:"ip"`
	DeviceFingerprint string       `json:"device_fingerprint"`
}

// operationBaseRisk is the fixed per-operation base table, 0-90.
var operationBaseRisk = map[string]int{
	"login":                  5,
	"view_balance":           0,
	"transfer_in":            5,
	"transfer_internal":      20,
	"transfer_out":           35,
	"international_transfer": 55,
	"withdrawal":             40,
	"investment":             25,
	"card_create":            45,
	"change_password":        30,
	"change_email":           30,
	"change_phone":           30,
	"close_account":          60,
	"api_key_create":         70,
}

// unknownOperationRisk applies to operations missing from the table.
const unknownOperationRisk = 25

// sensitiveOperations carry a hard risk floor regardless of the evaluator
// sum.
var sensitiveOperations = map[string]bool{
	"change_password": true,
	"change_email":    true,
	"change_phone":    true,
	"close_account":   true,
}

// sensitiveFloor is the minimum score for sensitive operations.
const sensitiveFloor = 50

// BaseRisk returns the table entry for an operation.
func BaseRisk(operation string) int {
	if base, ok := operationBaseRisk[operation]; ok {
		return base
	}
	return unknownOperationRisk
}

// IsSensitive reports whether the operation carries the risk floor.
func IsSensitive(operation string) bool {
	return sensitiveOperations[operation]
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
