package trustscore

import (
	"time"

	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
)

// Tier is the discrete band a global score falls into. Tier is a pure
// function of the score; no other state participates.
type Tier string

const (
	TierCritical Tier = "CRITICAL"
	TierLow      Tier = "LOW"
	TierMedium   Tier = "MEDIUM"
	TierHigh     Tier = "HIGH"
	TierElite    Tier = "ELITE"
)

// TierFor maps a global score to its band.
func TierFor(score int) Tier {
	switch {
	case score < 200:
		return TierCritical
	case score < 400:
		return TierLow
	case score < 600:
		return TierMedium
	case score < 800:
		return TierHigh
	default:
		return TierElite
	}
}

// Trend compares the current snapshot with the previous one.
type Trend string

const (
	TrendImproving Trend = "IMPROVING"
	TrendStable    Trend = "STABLE"
	TrendDeclining Trend = "DECLINING"
)

// trendDeadBand is the score movement ignored as noise.
const trendDeadBand = 20

// TrendBetween classifies the move from a previous global score. A first
// snapshot with no predecessor is STABLE.
func TrendBetween(current int, previous *int) Trend {
	if previous == nil {
		return TrendStable
	}
	switch delta := current - *previous; {
	case delta > trendDeadBand:
		return TrendImproving
	case delta < -trendDeadBand:
		return TrendDeclining
	default:
		return TrendStable
	}
}

// Benefits is the fixed bundle a tier grants.
type Benefits struct {
	FinancingLimitPercent int  `json:"financing_limit_percent"`
	InstantWithdrawal     bool `json:"instant_withdrawal"`
	ReducedValidation     bool `json:"reduced_validation"`
	PrioritySupport       bool `json:"priority_support"`
	HigherLimits          bool `json:"higher_limits"`
	BetaAccess            bool `json:"beta_access"`
}

var tierBenefits = map[Tier]Benefits{
	TierCritical: {FinancingLimitPercent: 0},
	TierLow:      {FinancingLimitPercent: 10},
	TierMedium:   {FinancingLimitPercent: 30, HigherLimits: true},
	TierHigh: {
		FinancingLimitPercent: 60,
		InstantWithdrawal:     true,
		ReducedValidation:     true,
		PrioritySupport:       true,
		HigherLimits:          true,
	},
	TierElite: {
		FinancingLimitPercent: 100,
		InstantWithdrawal:     true,
		ReducedValidation:     true,
		PrioritySupport:       true,
		HigherLimits:          true,
		BetaAccess:            true,
	},
}

// BenefitsFor returns the bundle for a tier.
func BenefitsFor(tier Tier) Benefits {
	return tierBenefits[tier]
}

// Components are the five sub-scores, each clamped to [0,200] before
// weighting.
type Components struct {
	Identity      int `json:"identity"`
	Financial     int `json:"financial"`
	Behavioral    int `json:"behavioral"`
	Transactional int `json:"transactional"`
	Social        int `json:"social"`
}

// Component weights. They sum to 1; the global score is five times the
// weighted component sum, giving the [0,1000] range.
const (
	weightIdentity      = 0.25
	weightFinancial     = 0.25
	weightBehavioral    = 0.15
	weightTransactional = 0.25
	weightSocial        = 0.10
)

// Compose combines clamped components into the global score.
func Compose(c Components) int {
	weighted := weightIdentity*float64(clampComponent(c.Identity)) +
		weightFinancial*float64(clampComponent(c.Financial)) +
		weightBehavioral*float64(clampComponent(c.Behavioral)) +
		weightTransactional*float64(clampComponent(c.Transactional)) +
		weightSocial*float64(clampComponent(c.Social))
	return clampGlobal(int(weighted*5.0 + 0.5))
}

func clampComponent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 200 {
		return 200
	}
	return v
}

func clampGlobal(v int) int {
	if v < 0 {
		return 0
	}
	if v > 1000 {
		return 1000
	}
	return v
}

// Snapshot is one immutable trust score computation. Recomputes append a
// new snapshot; nothing mutates an existing one.
type Snapshot struct {
	UserID      id.UserID  `json:"user_id"`
	GlobalScore int        `json:"global_score"`
	Tier        Tier       `json:"tier"`
	Components  Components `json:"components"`
	Trend       Trend      `json:"trend"`
	Benefits    Benefits   `json:"benefits"`
	ComputedAt  time.Time  `json:"computed_at"`
}

// Fresh reports whether the snapshot still satisfies GetScore at the given
// time under the freshness window.
func (s *Snapshot) Fresh(now time.Time, window time.Duration) bool {
	return now.Sub(s.ComputedAt) < window
}
