package alerting

import (
	"time"

	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
	dErrors "github.com/gabrielgmza/simply-backend-sub000/pkg/domain-errors"
)

// Priority orders alerts for channel selection and escalation urgency.
type Priority string

const (
	PriorityLow       Priority = "LOW"
	PriorityMedium    Priority = "MEDIUM"
	PriorityHigh      Priority = "HIGH"
	PriorityCritical  Priority = "CRITICAL"
	PriorityEmergency Priority = "EMERGENCY"
)

// IsValid checks if the priority is one of the supported enum values.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical, PriorityEmergency:
		return true
	}
	return false
}

// Channel is a delivery mechanism. The engine decides which channels an
// alert goes to; actual transmission belongs to the senders wired at the
// edge.
type Channel string

const (
	ChannelInApp    Channel = "in_app"
	ChannelPush     Channel = "push"
	ChannelEmail    Channel = "email"
	ChannelSMS      Channel = "sms"
	ChannelTelegram Channel = "telegram"
	ChannelWebhook  Channel = "webhook"
)

// defaultChannels maps priority to the default channel set. Callers can
// override per alert.
var defaultChannels = map[Priority][]Channel{
	PriorityLow:       {ChannelInApp},
	PriorityMedium:    {ChannelInApp, ChannelPush},
	PriorityHigh:      {ChannelInApp, ChannelPush, ChannelEmail},
	PriorityCritical:  {ChannelInApp, ChannelPush, ChannelTelegram, ChannelEmail},
	PriorityEmergency: {ChannelInApp, ChannelPush, ChannelTelegram, ChannelEmail, ChannelSMS, ChannelWebhook},
}

// DefaultChannels returns the channel set for a priority. The returned slice
// is a copy; callers may append.
func DefaultChannels(p Priority) []Channel {
	chs := defaultChannels[p]
	out := make([]Channel, len(chs))
	copy(out, chs)
	return out
}

// TargetType says who an alert is for.
type TargetType string

const (
	TargetUser      TargetType = "USER"
	TargetEmployee  TargetType = "EMPLOYEE"
	TargetRole      TargetType = "ROLE"
	TargetTeam      TargetType = "TEAM"
	TargetAllAdmins TargetType = "ALL_ADMINS"
)

// Target identifies the recipient of an alert.
type Target struct {
	Type TargetType `json:"type"`
	ID   string     `json:"id,omitempty"` // user/employee id, role or team name; empty for ALL_ADMINS
}

// Key returns the dedup component for this target.
func (t Target) Key() string {
	return string(t.Type) + ":" + t.ID
}

// Status is the alert lifecycle state.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusSent     Status = "SENT"
	StatusRead     Status = "READ"
	StatusActioned Status = "ACTIONED"
)

// MaxEscalationLevel caps how many times one alert chain escalates.
const MaxEscalationLevel = 3

// Alert is a single notification decision. Delivery status reflects
// persistence plus fan-out attempt, never confirmed receipt.
type Alert struct {
	ID              id.AlertID  `json:"id"`
	Category        string      `json:"category"`
	Priority        Priority    `json:"priority"`
	Title           string      `json:"title"`
	Message         string      `json:"message"`
	Target          Target      `json:"target"`
	Source          string      `json:"source"`    // emitting component
	SourceID        string      `json:"source_id"` // entity that triggered it
	Channels        []Channel   `json:"channels"`
	Status          Status      `json:"status"`
	EscalationLevel int         `json:"escalation_level"`
	EscalatedFrom   *id.AlertID `json:"escalated_from,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	SentAt          *time.Time  `json:"sent_at,omitempty"`
	ReadAt          *time.Time  `json:"read_at,omitempty"`
	ActionedBy      string      `json:"actioned_by,omitempty"`
	LastEscalatedAt *time.Time  `json:"last_escalated_at,omitempty"`
}

// DedupKey identifies duplicates: same kind of event, from the same source
// entity, for the same recipient.
func (a *Alert) DedupKey() string {
	return a.Category + "|" + a.Source + "|" + a.SourceID + "|" + a.Target.Key()
}

// MarkRead transitions SENT→READ. Reading a pending alert is allowed (the
// in-app channel shows it immediately); reading an actioned alert is not an
// error, it is a no-op.
func (a *Alert) MarkRead(at time.Time) error {
	switch a.Status {
	case StatusPending, StatusSent:
		a.Status = StatusRead
		a.ReadAt = &at
		return nil
	case StatusRead, StatusActioned:
		return nil
	}
	return dErrors.Newf(dErrors.CodeInvariantViolation, "cannot mark alert read from status %s", a.Status)
}

// MarkActioned transitions to ACTIONED and records who acted.
func (a *Alert) MarkActioned(actor string, at time.Time) error {
	if a.Status == StatusActioned {
		return dErrors.New(dErrors.CodeConflict, "alert already actioned")
	}
	a.Status = StatusActioned
	a.ActionedBy = actor
	if a.ReadAt == nil {
		a.ReadAt = &at
	}
	return nil
}

// Escalate bumps the escalation level, enforcing the cap and monotonicity.
func (a *Alert) Escalate(at time.Time) error {
	if a.EscalationLevel >= MaxEscalationLevel {
		return dErrors.New(dErrors.CodeInvariantViolation, "alert escalation level is capped")
	}
	a.EscalationLevel++
	a.LastEscalatedAt = &at
	return nil
}

// EscalationTarget widens the audience per level: the original target first,
// then the ADMIN role, then SUPER_ADMIN for every further escalation.
func EscalationTarget(level int) Target {
	if level <= 1 {
		return Target{Type: TargetRole, ID: "ADMIN"}
	}
	return Target{Type: TargetRole, ID: "SUPER_ADMIN"}
}
