package fraud

import (
	"math"
	"slices"
	"time"

	"github.com/gabrielgmza/simply-backend-sub000/internal/behavior"
	"github.com/gabrielgmza/simply-backend-sub000/internal/device"
)

// ruleHighAmount is the threshold the "high amount" rules fire at.
const ruleHighAmount = 50_000

// anomalyScore turns profile-deviation hits into a sub-score: the
// strongest hit leads, each additional one adds a flat bump.
func anomalyScore(anomalies []behavior.Anomaly) int {
	if len(anomalies) == 0 {
		return 0
	}
	top := 0
	for _, anomaly := range anomalies {
		if anomaly.Confidence > top {
			top = anomaly.Confidence
		}
	}
	return clampScore(top + 10*(len(anomalies)-1))
}

// patternScore measures how far the transaction sits from the user's
// established habits.
func patternScore(profile *behavior.Profile, tx TransactionContext, at time.Time) int {
	score := 0

	if len(profile.Transactions.TopTypes) > 0 && !slices.Contains(profile.Transactions.TopTypes, tx.Type) {
		score += 30
	}
	if avg := profile.Transactions.AvgAmount; avg > 0 {
		switch {
		case tx.Amount >= 3*avg:
			score += 40
		case tx.Amount >= 2*avg:
			score += 20
		}
	}
	if len(profile.Temporal.PreferredHours) > 0 && !slices.Contains(profile.Temporal.PreferredHours, at.Hour()) {
		score += 20
	}
	if tx.RecipientID != "" && !slices.Contains(profile.Transactions.FrequentRecipients, tx.RecipientID) {
		score += 10
	}
	return clampScore(score)
}

// velocityScore compares the trailing-hour operation count against the
// rate the profile implies.
func velocityScore(profile *behavior.Profile, opsLastHour int) int {
	if opsLastHour == 0 {
		return 0
	}
	impliedHourly := profile.Transactions.AvgPerMonth / 720
	if impliedHourly <= 0 {
		// No baseline rate; any burst is suspicious on its own.
		if opsLastHour >= 3 {
			return 60
		}
		return opsLastHour * 10
	}
	ratio := float64(opsLastHour) / impliedHourly
	switch {
	case ratio >= 10:
		return 90
	case ratio >= 5:
		return 60
	case ratio >= 3:
		return 35
	default:
		return clampScore(int(ratio * 10))
	}
}

// deviationScore reads the profile's own risk gauges.
func deviationScore(profile *behavior.Profile) int {
	score := profile.Risk.Velocity
	for _, indicator := range []int{profile.Risk.AmountVolatility, profile.Risk.LocationVariability, profile.Risk.Dormancy} {
		if indicator > score {
			score = indicator
		}
	}
	if profile.Segment == behavior.SegmentAtRisk {
		score += 10
	}
	return clampScore(score)
}

// rulesScore runs the auditable fixed-delta checklist. Every triggered
// rule lands in the factor list with its delta; critical rules carry the
// flag that forces a DECLINE.
func rulesScore(ev *evidence, tx TransactionContext, at time.Time) (int, []Factor) {
	var factors []Factor
	add := func(name string, delta int, critical bool) {
		factors = append(factors, Factor{Name: name, Delta: delta, Critical: critical})
	}

	if ev.blacklistedIP {
		add("blacklisted_ip", 50, true)
	}
	if ev.watchlistedRecipient {
		add("watchlisted_recipient", 45, true)
	}

	accountAge := 0
	kycApproved := false
	if ev.identity != nil {
		accountAge = ev.identity.AccountAgeDays(at)
		kycApproved = ev.identity.KYCStatus == "approved"
	}
	if accountAge < newAccountAge && tx.Amount >= ruleHighAmount {
		add("new_account_high_amount", 40, false)
	}
	if tx.International && !ev.priorInternational {
		add("first_international_transfer", 25, false)
	}
	if ev.recentFailures >= 3 {
		add("recent_failed_logins", 30, false)
	}
	if !kycApproved && tx.Amount >= ruleHighAmount {
		add("unverified_kyc_high_amount", 35, false)
	}

	if accountAge > establishedAgeDays {
		add("established_customer", -15, false)
	}
	if ev.recipientTransfers >= 3 {
		add("frequent_recipient", -20, false)
	}
	if ev.device != nil && ev.device.TrustLevel == device.TrustTrusted {
		add("trusted_device", -15, false)
	}

	total := 0
	for _, factor := range factors {
		total += factor.Delta
	}
	return clampScore(total), factors
}

// decide maps the final score through the ladder. A critical factor pins
// the decision to DECLINE whatever the score says, including above the
// BLOCK_USER band; blocking a user stays a pure score outcome.
func decide(score int, factors []Factor) Decision {
	if hasCriticalFactor(factors) {
		return DecisionDecline
	}
	return DecisionFor(score)
}

func hasCriticalFactor(factors []Factor) bool {
	for _, factor := range factors {
		if factor.Critical {
			return true
		}
	}
	return false
}

// confidence blends cross-model agreement with the triggered-factor
// count. Tight model agreement and many explicit factors both raise it.
func confidence(agreementWeight, factorWeight float64, scores ModelScores, factorCount int) int {
	values := []float64{
		float64(scores.Anomaly),
		float64(scores.Pattern),
		float64(scores.Rules),
		float64(scores.Velocity),
		float64(scores.Deviation),
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))
	stddev := math.Sqrt(variance)

	agreement := 100 - math.Min(100, stddev*2)
	factorPart := math.Min(100, float64(factorCount)*20)

	return clampScore(int(agreementWeight*agreement + factorWeight*factorPart + 0.5))
}
