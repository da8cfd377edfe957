package behavior

import (
	"math"
	"sort"
	"time"

	"github.com/gabrielgmza/simply-backend-sub000/internal/ports"
	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
)

// Evidence windows. Sessions carry the temporal/device signal, transactions
// the monetary one.
const (
	SessionWindow     = 90 * 24 * time.Hour
	TransactionWindow = 180 * 24 * time.Hour
)

const (
	maxPreferredHours  = 5
	preferredDayShare  = 0.10
	frequentRecipients = 3
	topTypeCount       = 3
)

// BuildProfile aggregates raw history into a profile snapshot. Every
// aggregation is a typed function over the ordered record slices; an empty
// window yields zero-valued patterns, never an error.
func BuildProfile(userID id.UserID, sessions []ports.Session, transactions []ports.Transaction, now time.Time, version int) *Profile {
	completed := completedOnly(transactions)

	profile := &Profile{
		UserID:       userID,
		Temporal:     buildTemporal(sessions),
		Transactions: buildTransactions(completed),
		Devices:      buildDevices(sessions, now),
		Version:      version,
		DataPoints:   len(sessions) + len(completed),
		UpdatedAt:    now,
	}
	profile.Risk = buildRiskIndicators(profile, sessions, completed, now)
	profile.Segment = DetermineSegment(profile, lastActivityDays(sessions, now))
	return profile
}

func completedOnly(transactions []ports.Transaction) []ports.Transaction {
	out := make([]ports.Transaction, 0, len(transactions))
	for _, tx := range transactions {
		if tx.Status == "completed" {
			out = append(out, tx)
		}
	}
	return out
}

func buildTemporal(sessions []ports.Session) TemporalPattern {
	if len(sessions) == 0 {
		return TemporalPattern{}
	}

	hourCounts := map[int]int{}
	dayCounts := map[time.Weekday]int{}
	var totalDuration time.Duration
	closed := 0
	for _, session := range sessions {
		hourCounts[session.StartedAt.Hour()]++
		dayCounts[session.StartedAt.Weekday()]++
		if d := session.Duration(); d > 0 {
			totalDuration += d
			closed++
		}
	}

	pattern := TemporalPattern{
		PreferredHours: topHours(hourCounts, maxPreferredHours),
	}
	for day := time.Sunday; day <= time.Saturday; day++ {
		if float64(dayCounts[day]) > preferredDayShare*float64(len(sessions)) {
			pattern.PreferredDays = append(pattern.PreferredDays, day)
		}
	}
	if closed > 0 {
		pattern.AvgSessionDuration = totalDuration / time.Duration(closed)
	}
	return pattern
}

// topHours returns the most frequent hours, count descending, hour
// ascending on ties so the result is deterministic.
func topHours(counts map[int]int, limit int) []int {
	hours := make([]int, 0, len(counts))
	for hour := range counts {
		hours = append(hours, hour)
	}
	sort.Slice(hours, func(i, j int) bool {
		if counts[hours[i]] != counts[hours[j]] {
			return counts[hours[i]] > counts[hours[j]]
		}
		return hours[i] < hours[j]
	})
	if len(hours) > limit {
		hours = hours[:limit]
	}
	return hours
}

func buildTransactions(completed []ports.Transaction) TransactionPattern {
	if len(completed) == 0 {
		return TransactionPattern{}
	}

	months := TransactionWindow.Hours() / 24 / 30
	typeCounts := map[string]int{}
	recipientCounts := map[string]int{}
	total := 0.0
	times := make([]time.Time, 0, len(completed))
	for _, tx := range completed {
		typeCounts[tx.Type]++
		if tx.RecipientID != "" {
			recipientCounts[tx.RecipientID]++
		}
		total += tx.Amount
		times = append(times, tx.CreatedAt)
	}

	pattern := TransactionPattern{
		AvgPerMonth: float64(len(completed)) / months,
		AvgAmount:   total / float64(len(completed)),
		TopTypes:    topStrings(typeCounts, topTypeCount),
	}
	for recipient, count := range recipientCounts {
		if count >= frequentRecipients {
			pattern.FrequentRecipients = append(pattern.FrequentRecipients, recipient)
		}
	}
	sort.Strings(pattern.FrequentRecipients)
	pattern.MeanGap = meanGap(times)
	return pattern
}

func topStrings(counts map[string]int, limit int) []string {
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > limit {
		keys = keys[:limit]
	}
	return keys
}

func meanGap(times []time.Time) time.Duration {
	if len(times) < 2 {
		return 0
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	var total time.Duration
	for i := 1; i < len(times); i++ {
		total += times[i].Sub(times[i-1])
	}
	return total / time.Duration(len(times)-1)
}

func buildDevices(sessions []ports.Session, now time.Time) DevicePattern {
	if len(sessions) == 0 {
		return DevicePattern{}
	}

	platformCounts := map[string]int{}
	firstSeen := map[string]time.Time{}
	ips := map[string]struct{}{}
	for _, session := range sessions {
		platformCounts[session.Platform]++
		if session.DeviceFP != "" {
			seen, ok := firstSeen[session.DeviceFP]
			if !ok || session.StartedAt.Before(seen) {
				firstSeen[session.DeviceFP] = session.StartedAt
			}
		}
		if session.IP != "" {
			ips[session.IP] = struct{}{}
		}
	}

	pattern := DevicePattern{
		PrimaryPlatform: primaryPlatform(platformCounts),
		DeviceCount:     len(firstSeen),
	}
	for _, seen := range firstSeen {
		if age := int(now.Sub(seen).Hours() / 24); age > pattern.OldestDeviceAge {
			pattern.OldestDeviceAge = age
		}
	}
	pattern.LocationConsistency = locationConsistency(len(ips), len(sessions))
	return pattern
}

func primaryPlatform(counts map[string]int) string {
	best, bestCount := "", -1
	for platform, count := range counts {
		if count > bestCount || (count == bestCount && platform < best) {
			best, bestCount = platform, count
		}
	}
	return best
}

// locationConsistency maps IP diversity to 0..100: one IP across all
// sessions is 100, a new IP on every session approaches 0.
func locationConsistency(distinctIPs, sessionCount int) int {
	if sessionCount == 0 || distinctIPs == 0 {
		return 0
	}
	if sessionCount == 1 {
		return 100
	}
	ratio := float64(distinctIPs-1) / float64(sessionCount-1)
	return clampIndicator(int(math.Round((1 - ratio) * 100)))
}

// buildRiskIndicators computes the four fixed-formula gauges.
func buildRiskIndicators(profile *Profile, sessions []ports.Session, completed []ports.Transaction, now time.Time) RiskIndicators {
	indicators := RiskIndicators{
		LocationVariability: clampIndicator(100 - profile.Devices.LocationConsistency),
	}

	// Velocity scales with transactions per day against a 3/day norm.
	perDay := profile.Transactions.AvgPerMonth / 30
	indicators.Velocity = clampIndicator(int(math.Round(perDay / 3 * 100)))

	// Amount volatility is the coefficient of variation, half-weighted.
	if mean := profile.Transactions.AvgAmount; mean > 0 && len(completed) > 1 {
		variance := 0.0
		for _, tx := range completed {
			d := tx.Amount - mean
			variance += d * d
		}
		stddev := math.Sqrt(variance / float64(len(completed)))
		indicators.AmountVolatility = clampIndicator(int(math.Round(stddev / mean * 50)))
	}

	// Dormancy climbs three points per day without a session.
	indicators.Dormancy = clampIndicator(lastActivityDays(sessions, now) * 3)

	return indicators
}

func lastActivityDays(sessions []ports.Session, now time.Time) int {
	if len(sessions) == 0 {
		return int(SessionWindow.Hours() / 24)
	}
	newest := sessions[0].StartedAt
	for _, session := range sessions[1:] {
		if session.StartedAt.After(newest) {
			newest = session.StartedAt
		}
	}
	return int(now.Sub(newest).Hours() / 24)
}

func clampIndicator(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Segment thresholds for the ordered decision list.
const (
	newUserDataPoints  = 10
	dormantDays        = 30
	atRiskIndicator    = 70
	highValueMonthly   = 1_000_000
	powerUserTxMonthly = 30
	powerUserSessions  = 40
	passiveTxMonthly   = 2
)

// DetermineSegment classifies the profile via an ordered first-match list.
// Exactly one segment applies; earlier rules win.
func DetermineSegment(profile *Profile, daysSinceLastSession int) Segment {
	switch {
	case profile.DataPoints < newUserDataPoints:
		return SegmentNewUser
	case daysSinceLastSession > dormantDays:
		return SegmentDormant
	case maxIndicator(profile.Risk) >= atRiskIndicator:
		return SegmentAtRisk
	case profile.Transactions.AvgPerMonth*profile.Transactions.AvgAmount >= highValueMonthly:
		return SegmentHighValue
	case profile.Transactions.AvgPerMonth >= powerUserTxMonthly && profile.DataPoints >= powerUserSessions:
		return SegmentPowerUser
	case profile.Transactions.AvgPerMonth < passiveTxMonthly:
		return SegmentPassive
	default:
		return SegmentRegular
	}
}

func maxIndicator(r RiskIndicators) int {
	m := r.Velocity
	for _, v := range []int{r.AmountVolatility, r.LocationVariability, r.Dormancy} {
		if v > m {
			m = v
		}
	}
	return m
}
