package device

import (
	"time"

	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
)

// TrustLevel is the registry's judgement of a device.
// NEW devices become KNOWN through use, TRUSTED only through explicit
// action, and UNTRUSTED/blocked through explicit action or degradation.
type TrustLevel string

const (
	TrustNew       TrustLevel = "NEW"
	TrustKnown     TrustLevel = "KNOWN"
	TrustTrusted   TrustLevel = "TRUSTED"
	TrustUntrusted TrustLevel = "UNTRUSTED"
)

// IsValid checks if the trust level is one of the supported enum values.
func (l TrustLevel) IsValid() bool {
	switch l {
	case TrustNew, TrustKnown, TrustTrusted, TrustUntrusted:
		return true
	}
	return false
}

// Record is one device of one user, unique per (userID, fingerprint).
type Record struct {
	ID            id.DeviceID `json:"id"`
	UserID        id.UserID   `json:"user_id"`
	Fingerprint   string      `json:"fingerprint"`
	TrustLevel    TrustLevel  `json:"trust_level"`
	Platform      string      `json:"platform"`
	DisplayName   string      `json:"display_name"`
	FirstSeenAt   time.Time   `json:"first_seen_at"`
	LastSeenAt    time.Time   `json:"last_seen_at"`
	LastSeenIP    string      `json:"last_seen_ip"`
	LoginCount    int         `json:"login_count"`
	SuccessfulOps int         `json:"successful_ops"`
	FailedOps     int         `json:"failed_ops"`
	IsBlocked     bool        `json:"is_blocked"`
	IsEmulator    bool        `json:"is_emulator"`
	IsRooted      bool        `json:"is_rooted"`
}

// failureDegradeThreshold is the cumulative failure count at which a
// TRUSTED device loses its standing.
const failureDegradeThreshold = 5

// SuccessRatio is successfulOps over total recorded operations, 1.0 for a
// device with no history yet.
func (r *Record) SuccessRatio() float64 {
	total := r.SuccessfulOps + r.FailedOps
	if total == 0 {
		return 1.0
	}
	return float64(r.SuccessfulOps) / float64(total)
}

// AgeDays returns whole days since first sighting.
func (r *Record) AgeDays(now time.Time) int {
	return int(now.Sub(r.FirstSeenAt).Hours() / 24)
}

// TrustFactor is one signed contribution to a device's standing. The
// registry computes factors on read and never pre-aggregates them; callers
// (risk assessor, fraud ensemble) weigh them in their own scales.
type TrustFactor struct {
	Name   string `json:"name"`
	Impact int    `json:"impact"`
}

// TrustFactors derives the signed factor list for a record at a point in
// time.
func (r *Record) TrustFactors(now time.Time) []TrustFactor {
	var factors []TrustFactor

	switch age := r.AgeDays(now); {
	case age >= 90:
		factors = append(factors, TrustFactor{Name: "device_age_over_90d", Impact: 20})
	case age >= 30:
		factors = append(factors, TrustFactor{Name: "device_age_over_30d", Impact: 10})
	}

	if r.LoginCount >= 20 {
		factors = append(factors, TrustFactor{Name: "frequent_logins", Impact: 15})
	}

	if total := r.SuccessfulOps + r.FailedOps; total > 0 {
		switch ratio := r.SuccessRatio(); {
		case ratio >= 0.95:
			factors = append(factors, TrustFactor{Name: "high_success_ratio", Impact: 15})
		case ratio < 0.7:
			factors = append(factors, TrustFactor{Name: "low_success_ratio", Impact: -20})
		}
	}

	if r.IsEmulator {
		factors = append(factors, TrustFactor{Name: "emulator", Impact: -30})
	}
	if r.IsRooted {
		factors = append(factors, TrustFactor{Name: "rooted", Impact: -30})
	}
	if r.TrustLevel == TrustTrusted {
		factors = append(factors, TrustFactor{Name: "explicitly_trusted", Impact: 40})
	}
	if r.IsBlocked {
		factors = append(factors, TrustFactor{Name: "blocked", Impact: -100})
	}

	return factors
}
