// Package employee watches back-office activity against per-employee
// baselines and reacts to deviations by severity.
package employee

import (
	"strings"
	"time"

	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
)

// AnomalyType names one class of deviation a check can emit.
type AnomalyType string

const (
	AnomalyOffHours          AnomalyType = "OFF_HOURS_ACCESS"
	AnomalyWeekend           AnomalyType = "WEEKEND_ACCESS"
	AnomalyBulkData          AnomalyType = "BULK_DATA_ACCESS"
	AnomalyUnassignedClient  AnomalyType = "UNASSIGNED_CLIENT_ACCESS"
	AnomalyApprovalBurst     AnomalyType = "APPROVAL_BURST"
	AnomalyHighValueApproval AnomalyType = "HIGH_VALUE_APPROVAL"
	AnomalyExportSpike       AnomalyType = "EXPORT_SPIKE"
	AnomalyHighVelocity      AnomalyType = "HIGH_VELOCITY"
	AnomalyMultiIP           AnomalyType = "MULTIPLE_IP_ACCESS"
	AnomalyRepeatedSensitive AnomalyType = "REPEATED_SENSITIVE_ACCESS"
)

// Severity grades an anomaly and drives the automatic response.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Status is the review lifecycle of an anomaly.
type Status string

const (
	StatusDetected      Status = "DETECTED"
	StatusInvestigating Status = "INVESTIGATING"
	StatusFalsePositive Status = "FALSE_POSITIVE"
	StatusConfirmed     Status = "CONFIRMED"
	StatusResolved      Status = "RESOLVED"
)

// allowedTransitions is the full review state machine. Anything absent is
// rejected; there are no implicit moves.
var allowedTransitions = map[Status][]Status{
	StatusDetected:      {StatusInvestigating, StatusFalsePositive, StatusConfirmed},
	StatusInvestigating: {StatusFalsePositive, StatusConfirmed, StatusResolved},
	StatusFalsePositive: {StatusResolved},
	StatusConfirmed:     {StatusResolved},
}

// CanTransition reports whether a reviewer may move an anomaly from one
// status to another.
func CanTransition(from, to Status) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Anomaly is one detected deviation with its review trail.
type Anomaly struct {
	ID               id.AnomalyID  `json:"id"`
	EmployeeID       id.EmployeeID `json:"employee_id"`
	Type             AnomalyType   `json:"anomaly_type"`
	Severity         Severity      `json:"severity"`
	Description      string        `json:"description"`
	Baseline         string        `json:"baseline"`
	Actual           string        `json:"actual"`
	DeviationPercent float64       `json:"deviation_percent"`
	Status           Status        `json:"status"`
	ActionsTaken     []string      `json:"actions_taken"`
	DetectedAt       time.Time     `json:"detected_at"`
}

// Baseline is the 30-day activity profile of one employee. It is replaced
// wholesale on rebuild, never patched.
type Baseline struct {
	EmployeeID         id.EmployeeID  `json:"employee_id"`
	WorkHourStart      int            `json:"work_hour_start"`
	WorkHourEnd        int            `json:"work_hour_end"`
	WorkDays           []time.Weekday `json:"work_days"`
	AvgDailyActions    float64        `json:"avg_daily_actions"`
	AvgDailyApprovals  float64        `json:"avg_daily_approvals"`
	AvgDailyExports    float64        `json:"avg_daily_exports"`
	AvgDailyDataAccess float64        `json:"avg_daily_data_access"`
	// AssignedClientIDs mirrors the directory's set, which is empty until
	// the CRM integration ships. Known gap.
	AssignedClientIDs []string  `json:"assigned_client_ids"`
	KnownIPs          []string  `json:"known_ips"`
	DataPoints        int       `json:"data_points"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// WorkDay reports whether the weekday belongs to the baseline's usual days.
func (b *Baseline) WorkDay(day time.Weekday) bool {
	for _, d := range b.WorkDays {
		if d == day {
			return true
		}
	}
	return false
}

// KnownIP reports whether the IP appeared during the baseline window.
func (b *Baseline) KnownIP(ip string) bool {
	for _, known := range b.KnownIPs {
		if known == ip {
			return true
		}
	}
	return false
}

// ActionContext is one back-office action to analyze.
type ActionContext struct {
	EmployeeID id.EmployeeID
	Action     string
	Resource   string
	ClientID   string
	IP         string
	Amount     float64
}

// ActionRecord is a stored action used for baselines and window counts.
type ActionRecord struct {
	EmployeeID id.EmployeeID `json:"employee_id"`
	Action     string        `json:"action"`
	Resource   string        `json:"resource"`
	ClientID   string        `json:"client_id,omitzero"`
	IP         string        `json:"ip"`
	Amount     float64       `json:"amount,omitzero"`
	At         time.Time     `json:"at"`
}

// Action classification. The taxonomy is prefix-based so new concrete
// actions inherit a class without code changes.
func isApproval(action string) bool { return strings.HasPrefix(action, "approve_") }
func isExport(action string) bool   { return strings.HasPrefix(action, "export_") }

func isDataAccess(action string) bool {
	return strings.HasPrefix(action, "view_") || strings.HasPrefix(action, "list_") || isExport(action)
}

// sensitiveActions are the operations compliance wants counted per day.
var sensitiveActions = map[string]bool{
	"view_user_pii":       true,
	"view_card_details":   true,
	"approve_transfer":    true,
	"override_limit":      true,
	"unlock_account":      true,
	"export_transactions": true,
	"export_users":        true,
}

func isSensitive(action string) bool { return sensitiveActions[action] }
