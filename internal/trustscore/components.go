package trustscore

import (
	"time"

	"github.com/gabrielgmza/simply-backend-sub000/internal/ports"
)

// Component point tables. Each calculator is a pure function of the facts
// it receives; absent facts contribute zero, never an error. Results are
// clamped to [0,200] by Compose.

// identityComponent scores verification depth and account longevity.
func identityComponent(identity *ports.IdentityRecord, now time.Time) int {
	if identity == nil {
		return 0
	}
	score := 0

	switch identity.KYCStatus {
	case ports.KYCApproved:
		score += 80
	case ports.KYCPending:
		score += 20
	case ports.KYCRejected:
		score -= 20
	}

	if identity.PhoneVerified {
		score += 30
	}
	if identity.EmailVerified {
		score += 20
	}
	if identity.BiometricsActive {
		score += 20
	}
	if identity.ProfileComplete {
		score += 10
	}

	switch age := identity.AccountAgeDays(now); {
	case age > 365:
		score += 40
	case age > 180:
		score += 25
	case age > 90:
		score += 10
	}

	return score
}

// financialComponent scores invested capital, product level, and defaults.
func financialComponent(identity *ports.IdentityRecord) int {
	if identity == nil {
		return 0
	}
	score := 0

	switch invested := identity.TotalInvested; {
	case invested >= 10_000_000:
		score += 110
	case invested >= 1_000_000:
		score += 80
	case invested >= 100_000:
		score += 50
	case invested >= 10_000:
		score += 25
	case invested > 0:
		score += 10
	}

	switch identity.Level {
	case "BLACK":
		score += 70
	case "ORO":
		score += 50
	case "PLATA":
		score += 25
	}

	score -= 20 * identity.ActiveDefaults
	score -= 5 * identity.SettledDefaults

	return score
}

// behavioralComponent scores login regularity and stability over the
// session window.
func behavioralComponent(sessions []ports.Session, failedLogins int) int {
	if len(sessions) == 0 {
		return 0
	}
	score := 0

	switch n := len(sessions); {
	case n >= 60:
		score += 70
	case n >= 30:
		score += 50
	case n >= 10:
		score += 30
	default:
		score += 10
	}

	platforms := map[string]int{}
	ips := map[string]struct{}{}
	for _, session := range sessions {
		platforms[session.Platform]++
		if session.IP != "" {
			ips[session.IP] = struct{}{}
		}
	}
	for _, count := range platforms {
		if float64(count) >= 0.8*float64(len(sessions)) {
			score += 40
			break
		}
	}
	switch n := len(ips); {
	case n > 0 && n <= 3:
		score += 50
	case n <= 10:
		score += 25
	}

	switch {
	case failedLogins >= 5:
		score -= 40
	case failedLogins >= 3:
		score -= 20
	}

	return score
}

// transactionalComponent scores volume, reliability, and recency of ledger
// activity.
func transactionalComponent(transactions []ports.Transaction, now time.Time) int {
	if len(transactions) == 0 {
		return 0
	}
	score := 0

	completed := 0
	failed := 0
	volume := 0.0
	newest := time.Time{}
	for _, tx := range transactions {
		switch tx.Status {
		case "completed":
			completed++
			volume += tx.Amount
		case "failed", "reversed":
			failed++
		}
		if tx.CreatedAt.After(newest) {
			newest = tx.CreatedAt
		}
	}

	switch {
	case completed >= 100:
		score += 70
	case completed >= 50:
		score += 50
	case completed >= 20:
		score += 35
	case completed >= 5:
		score += 20
	case completed >= 1:
		score += 10
	}

	if total := completed + failed; total > 0 {
		switch rate := float64(failed) / float64(total); {
		case rate < 0.02:
			score += 40
		case rate < 0.05:
			score += 20
		case rate > 0.20:
			score -= 30
		}
	}

	switch {
	case volume >= 10_000_000:
		score += 60
	case volume >= 1_000_000:
		score += 40
	case volume >= 100_000:
		score += 20
	}

	switch age := now.Sub(newest); {
	case age <= 7*24*time.Hour:
		score += 30
	case age <= 30*24*time.Hour:
		score += 15
	}

	return score
}

// socialComponent scores referral graph participation.
func socialComponent(identity *ports.IdentityRecord) int {
	if identity == nil {
		return 0
	}
	score := 0

	referrals := identity.ReferralCount * 25
	if referrals > 120 {
		referrals = 120
	}
	score += referrals

	if identity.ReferredBy {
		score += 40
	}
	if identity.ProfileComplete {
		score += 40
	}

	return score
}
