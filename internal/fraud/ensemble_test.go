package fraud

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gabrielgmza/simply-backend-sub000/internal/behavior"
	"github.com/gabrielgmza/simply-backend-sub000/internal/device"
	"github.com/gabrielgmza/simply-backend-sub000/internal/ports"
	"github.com/gabrielgmza/simply-backend-sub000/internal/trustscore"
)

func routineProfile() *behavior.Profile {
	return &behavior.Profile{
		Temporal: behavior.TemporalPattern{
			PreferredHours: []int{14, 15, 16},
			PreferredDays:  []time.Weekday{time.Monday, time.Tuesday, time.Wednesday},
		},
		Transactions: behavior.TransactionPattern{
			AvgPerMonth:        30,
			AvgAmount:          100,
			TopTypes:           []string{"transfer_out", "transfer_internal", "investment"},
			FrequentRecipients: []string{"alice"},
		},
		Risk:    behavior.RiskIndicators{Velocity: 10, AmountVolatility: 8, LocationVariability: 5, Dormancy: 0},
		Segment: behavior.SegmentRegular,
	}
}

func TestCompose_AppliesEnsembleWeights(t *testing.T) {
	assert.Equal(t, 100, Compose(ModelScores{100, 100, 100, 100, 100}))
	assert.Equal(t, 0, Compose(ModelScores{}))
	// pattern carries 30%
	assert.Equal(t, 30, Compose(ModelScores{Pattern: 100}))
	assert.Equal(t, 10, Compose(ModelScores{Velocity: 100}))
	assert.Equal(t, 25, Compose(ModelScores{Anomaly: 60, Rules: 40}))
}

func TestDecisionLadder(t *testing.T) {
	cases := []struct {
		score    int
		decision Decision
	}{
		{0, DecisionApprove},
		{19, DecisionApprove},
		{20, DecisionApproveWith},
		{39, DecisionApproveWith},
		{40, DecisionReview},
		{59, DecisionReview},
		{60, DecisionHold},
		{79, DecisionHold},
		{80, DecisionDecline},
		{89, DecisionDecline},
		{90, DecisionBlockUser},
		{100, DecisionBlockUser},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.decision, DecisionFor(tc.score), "score %d", tc.score)
	}
}

func TestDecide_CriticalFactorPinsDecline(t *testing.T) {
	critical := []Factor{{Name: "blacklisted_ip", Delta: 50, Critical: true}}

	// Pinned in both directions: a critical factor raises a low score to
	// DECLINE and pulls a BLOCK_USER score down to it.
	assert.Equal(t, DecisionDecline, decide(10, critical))
	assert.Equal(t, DecisionDecline, decide(95, critical))

	// Without one the ladder stands.
	assert.Equal(t, DecisionBlockUser, decide(95, nil))
	assert.Equal(t, DecisionApprove, decide(10, []Factor{{Name: "first_international", Delta: 25}}))
}

func TestTrustMultiplier(t *testing.T) {
	assert.Equal(t, 0.7, trustMultiplier(trustscore.TierElite))
	assert.Equal(t, 0.85, trustMultiplier(trustscore.TierHigh))
	assert.Equal(t, 1.0, trustMultiplier(trustscore.TierMedium))
	assert.Equal(t, 1.15, trustMultiplier(trustscore.TierLow))
	assert.Equal(t, 1.3, trustMultiplier(trustscore.TierCritical))
	assert.Equal(t, 1.0, trustMultiplier(trustscore.Tier("")))
}

func TestPatternScore(t *testing.T) {
	profile := routineProfile()
	afternoon := time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC)
	night := time.Date(2025, 6, 10, 3, 0, 0, 0, time.UTC)

	t.Run("routine transaction scores zero", func(t *testing.T) {
		score := patternScore(profile, TransactionContext{
			Type: "transfer_out", Amount: 110, RecipientID: "alice",
		}, afternoon)
		assert.Equal(t, 0, score)
	})

	t.Run("everything off-pattern accumulates", func(t *testing.T) {
		score := patternScore(profile, TransactionContext{
			Type: "card_create", Amount: 500, RecipientID: "mallory",
		}, night)
		// unusual type 30 + 3x amount 40 + off-hour 20 + new recipient 10
		assert.Equal(t, 100, score)
	})

	t.Run("double average is a mild signal", func(t *testing.T) {
		score := patternScore(profile, TransactionContext{
			Type: "transfer_out", Amount: 210, RecipientID: "alice",
		}, afternoon)
		assert.Equal(t, 20, score)
	})
}

func TestVelocityScore(t *testing.T) {
	busy := routineProfile()
	busy.Transactions.AvgPerMonth = 720 // one operation per hour

	assert.Equal(t, 0, velocityScore(busy, 0))
	assert.Equal(t, 20, velocityScore(busy, 2))
	assert.Equal(t, 35, velocityScore(busy, 3))
	assert.Equal(t, 60, velocityScore(busy, 5))
	assert.Equal(t, 90, velocityScore(busy, 10))

	// A sparse profile implies a tiny hourly rate; any activity is a burst.
	sparse := routineProfile()
	assert.Equal(t, 90, velocityScore(sparse, 1))

	idle := routineProfile()
	idle.Transactions.AvgPerMonth = 0
	assert.Equal(t, 20, velocityScore(idle, 2))
	assert.Equal(t, 60, velocityScore(idle, 3))
}

func TestDeviationScore(t *testing.T) {
	profile := routineProfile()
	assert.Equal(t, 10, deviationScore(profile))

	profile.Risk.Dormancy = 75
	assert.Equal(t, 75, deviationScore(profile))

	profile.Segment = behavior.SegmentAtRisk
	assert.Equal(t, 85, deviationScore(profile))
}

func TestAnomalyScore(t *testing.T) {
	assert.Equal(t, 0, anomalyScore(nil))
	assert.Equal(t, 70, anomalyScore([]behavior.Anomaly{{Confidence: 70}}))
	assert.Equal(t, 90, anomalyScore([]behavior.Anomaly{{Confidence: 70}, {Confidence: 80}}))
	assert.Equal(t, 100, anomalyScore([]behavior.Anomaly{{Confidence: 95}, {Confidence: 70}, {Confidence: 85}}))
}

func TestRulesScore(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	t.Run("fresh account moving big money", func(t *testing.T) {
		ev := &evidence{
			identity: &ports.IdentityRecord{
				KYCStatus:        ports.KYCPending,
				AccountCreatedAt: now.AddDate(0, 0, -2),
			},
		}
		score, factors := rulesScore(ev, TransactionContext{Amount: 80_000}, now)
		// new account 40 + unverified kyc 35
		assert.Equal(t, 75, score)
		assert.Len(t, factors, 2)
		assert.False(t, hasCriticalFactor(factors))
	})

	t.Run("established customer offsets floor at zero", func(t *testing.T) {
		ev := &evidence{
			identity: &ports.IdentityRecord{
				KYCStatus:        ports.KYCApproved,
				AccountCreatedAt: now.AddDate(-2, 0, 0),
			},
			recipientTransfers: 5,
			device:             &device.Record{TrustLevel: device.TrustTrusted},
		}
		score, factors := rulesScore(ev, TransactionContext{Amount: 200}, now)
		assert.Equal(t, 0, score)
		assert.Len(t, factors, 3)
	})

	t.Run("critical factors flagged", func(t *testing.T) {
		ev := &evidence{
			identity:             &ports.IdentityRecord{KYCStatus: ports.KYCApproved, AccountCreatedAt: now.AddDate(-2, 0, 0)},
			blacklistedIP:        true,
			watchlistedRecipient: true,
		}
		score, factors := rulesScore(ev, TransactionContext{Amount: 200}, now)
		// blacklist 50 + watchlist 45 - established 15
		assert.Equal(t, 80, score)
		assert.True(t, hasCriticalFactor(factors))
	})

	t.Run("first international transfer", func(t *testing.T) {
		ev := &evidence{
			identity: &ports.IdentityRecord{KYCStatus: ports.KYCApproved, AccountCreatedAt: now.AddDate(0, -6, 0)},
		}
		_, factors := rulesScore(ev, TransactionContext{Amount: 200, International: true}, now)
		assert.Equal(t, []Factor{{Name: "first_international_transfer", Delta: 25}}, factors)

		ev.priorInternational = true
		_, factors = rulesScore(ev, TransactionContext{Amount: 200, International: true}, now)
		assert.Empty(t, factors)
	})
}

func TestConfidence(t *testing.T) {
	agreeing := ModelScores{50, 50, 50, 50, 50}
	divergent := ModelScores{0, 100, 0, 100, 50}

	high := confidence(0.6, 0.4, agreeing, 3)
	low := confidence(0.6, 0.4, divergent, 3)
	assert.Greater(t, high, low)

	// Zero variance, zero factors: the agreement share alone.
	assert.Equal(t, 60, confidence(0.6, 0.4, agreeing, 0))
	// Factor count saturates at five.
	assert.Equal(t, confidence(0.6, 0.4, agreeing, 5), confidence(0.6, 0.4, agreeing, 9))
}
