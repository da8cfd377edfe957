// Package audit defines the write-only audit event model and the publisher
// contract every risk module emits through.
package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with regulatory significance:
	// decisions that blocked or held user money movements, kill-switch
	// activations, employee anomaly confirmations.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events for security monitoring and forensics:
	// step-up challenges, device blocks, fraud declines, anomaly detections.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine events useful for debugging:
	// snapshot recomputes, profile rebuilds, sweep runs.
	CategoryOperations EventCategory = "operations"
)

// Severity grades an audit event for downstream filtering.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Event is emitted from domain logic to capture key actions. It is
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category    EventCategory
	Timestamp   time.Time
	Actor       string // "user:<id>", "employee:<id>", "system:<sweep>"
	Action      string
	Resource    string // "<entity>:<id>" the action touched
	Description string
	Severity    Severity
	RequestID   string
	Metadata    map[string]string
}

// AuditEvent names every action the risk modules emit.
type AuditEvent string

const (
	// Trust score events
	EventTrustScoreComputed AuditEvent = "trust_score_computed"

	// Device events
	EventDeviceRegistered AuditEvent = "device_registered"
	EventDeviceTrusted    AuditEvent = "device_trusted"
	EventDeviceBlocked    AuditEvent = "device_blocked"
	EventDeviceDegraded   AuditEvent = "device_trust_degraded"

	// Risk assessment events
	EventRiskAssessed       AuditEvent = "risk_assessed"
	EventChallengeVerified  AuditEvent = "challenge_verified"
	EventOperationBlocked   AuditEvent = "operation_blocked"
	EventChallengeRequested AuditEvent = "challenge_requested"

	// Fraud events
	EventFraudEvaluated AuditEvent = "fraud_evaluated"
	EventFraudDeclined  AuditEvent = "fraud_declined"

	// Behavior events
	EventProfileRebuilt AuditEvent = "behavior_profile_rebuilt"

	// Employee events
	EventEmployeeAnomalyDetected AuditEvent = "employee_anomaly_detected"
	EventEmployeeAnomalyReviewed AuditEvent = "employee_anomaly_reviewed"
	EventEmployeeSessionKilled   AuditEvent = "employee_session_terminated"

	// Kill switch events
	EventKillSwitchActivated   AuditEvent = "kill_switch_activated"
	EventKillSwitchDeactivated AuditEvent = "kill_switch_deactivated"
	EventKillSwitchAutoTrigger AuditEvent = "kill_switch_auto_triggered"
	EventKillSwitchDenied      AuditEvent = "kill_switch_denied"

	// Alert events
	EventAlertCreated   AuditEvent = "alert_created"
	EventAlertEscalated AuditEvent = "alert_escalated"
)

// eventCategories maps each audit event to its category.
var eventCategories = map[AuditEvent]EventCategory{
	// Compliance: money-movement decisions and global controls
	EventOperationBlocked:      CategoryCompliance,
	EventFraudDeclined:         CategoryCompliance,
	EventKillSwitchActivated:   CategoryCompliance,
	EventKillSwitchDeactivated: CategoryCompliance,
	EventKillSwitchAutoTrigger: CategoryCompliance,
	EventEmployeeAnomalyReviewed: CategoryCompliance,

	// Security: monitoring and forensics
	EventDeviceBlocked:           CategorySecurity,
	EventDeviceDegraded:          CategorySecurity,
	EventChallengeRequested:      CategorySecurity,
	EventChallengeVerified:       CategorySecurity,
	EventFraudEvaluated:          CategorySecurity,
	EventEmployeeAnomalyDetected: CategorySecurity,
	EventEmployeeSessionKilled:   CategorySecurity,
	EventKillSwitchDenied:        CategorySecurity,
	EventAlertEscalated:          CategorySecurity,

	// Operations: routine activity, can be sampled
	EventTrustScoreComputed: CategoryOperations,
	EventDeviceRegistered:   CategoryOperations,
	EventDeviceTrusted:      CategoryOperations,
	EventRiskAssessed:       CategoryOperations,
	EventProfileRebuilt:     CategoryOperations,
	EventAlertCreated:       CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events append-only.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByActor(ctx context.Context, actor string) ([]Event, error)
}

// Publisher is the single emission point modules depend on.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}
