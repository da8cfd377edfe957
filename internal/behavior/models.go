package behavior

import (
	"time"

	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
)

// Segment is the single behavioral class a user falls into, decided by an
// ordered first-match list in DetermineSegment.
type Segment string

const (
	SegmentNewUser   Segment = "NEW_USER"
	SegmentDormant   Segment = "DORMANT"
	SegmentAtRisk    Segment = "AT_RISK"
	SegmentHighValue Segment = "HIGH_VALUE"
	SegmentPowerUser Segment = "POWER_USER"
	SegmentPassive   Segment = "PASSIVE"
	SegmentRegular   Segment = "REGULAR"
)

// TemporalPattern describes when the user is normally active.
type TemporalPattern struct {
	// PreferredHours are the top-5 session-start hours, most frequent first.
	PreferredHours []int `json:"preferred_hours"`
	// PreferredDays are weekdays holding more than 10% of sessions.
	PreferredDays      []time.Weekday `json:"preferred_days"`
	AvgSessionDuration time.Duration  `json:"avg_session_duration"`
}

// TransactionPattern describes how the user normally moves money.
type TransactionPattern struct {
	AvgPerMonth float64 `json:"avg_per_month"`
	AvgAmount   float64 `json:"avg_amount"`
	// TopTypes are the three most frequent transaction types.
	TopTypes []string `json:"top_types"`
	// FrequentRecipients received at least three transfers in the window.
	FrequentRecipients []string      `json:"frequent_recipients"`
	MeanGap            time.Duration `json:"mean_gap"`
}

// DevicePattern describes the user's device and location stability.
type DevicePattern struct {
	PrimaryPlatform string `json:"primary_platform"`
	DeviceCount     int    `json:"device_count"`
	OldestDeviceAge int    `json:"oldest_device_age_days"`
	// LocationConsistency is 0..100, derived from IP diversity: fewer
	// distinct IPs per session means a more consistent user.
	LocationConsistency int `json:"location_consistency"`
}

// RiskIndicators are four 0-100 gauges, each from a fixed formula.
type RiskIndicators struct {
	Velocity            int `json:"velocity"`
	AmountVolatility    int `json:"amount_volatility"`
	LocationVariability int `json:"location_variability"`
	Dormancy            int `json:"dormancy"`
}

// Profile is the versioned behavioral snapshot for one user. Rebuilds
// replace the whole document; nothing patches individual fields.
type Profile struct {
	UserID       id.UserID          `json:"user_id"`
	Temporal     TemporalPattern    `json:"temporal"`
	Transactions TransactionPattern `json:"transactions"`
	Devices      DevicePattern      `json:"devices"`
	Risk         RiskIndicators     `json:"risk_indicators"`
	Segment      Segment            `json:"segment"`
	Version      int                `json:"version"`
	DataPoints   int                `json:"data_points"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// AnomalyType names one independent profile-deviation check.
type AnomalyType string

const (
	AnomalyUnusualHour   AnomalyType = "UNUSUAL_HOUR"
	AnomalyUnusualAmount AnomalyType = "UNUSUAL_AMOUNT"
	AnomalyHighVelocity  AnomalyType = "HIGH_VELOCITY"
)

// Anomaly is one detected deviation from the stored profile.
type Anomaly struct {
	Type        AnomalyType `json:"type"`
	Description string      `json:"description"`
	Confidence  int         `json:"confidence"`
	Expected    string      `json:"expected"`
	Actual      string      `json:"actual"`
}

// LiveEvent is one action being compared to the profile.
type LiveEvent struct {
	Type        string    `json:"type"`
	Amount      float64   `json:"amount"`
	At          time.Time `json:"at"`
	OpsLastHour int       `json:"ops_last_hour"`
}
