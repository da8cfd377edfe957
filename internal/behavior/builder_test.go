package behavior

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gabrielgmza/simply-backend-sub000/internal/ports"
	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
)

var profileNow = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

// sessionAt builds a closed one-hour session starting at the given time.
func sessionAt(at time.Time, platform, ip, fp string) ports.Session {
	return ports.Session{
		Platform:  platform,
		IP:        ip,
		DeviceFP:  fp,
		StartedAt: at,
		EndedAt:   at.Add(time.Hour),
	}
}

func TestBuildTemporal_PreferredHoursAndDays(t *testing.T) {
	var sessions []ports.Session
	// 40 weekday-morning sessions at 09:00 and 10:00, plus one outlier.
	day := time.Date(2025, 3, 24, 0, 0, 0, 0, time.UTC) // a Monday
	for i := 0; i < 20; i++ {
		sessions = append(sessions,
			sessionAt(time.Date(day.Year(), day.Month(), day.Day()+i%5, 9, 0, 0, 0, time.UTC), "ios", "", ""),
			sessionAt(time.Date(day.Year(), day.Month(), day.Day()+i%5, 10, 0, 0, 0, time.UTC), "ios", "", ""),
		)
	}
	sessions = append(sessions, sessionAt(time.Date(2025, 4, 6, 23, 0, 0, 0, time.UTC), "ios", "", ""))

	pattern := buildTemporal(sessions)

	require.NotEmpty(t, pattern.PreferredHours)
	assert.Equal(t, 9, pattern.PreferredHours[0])
	assert.Contains(t, pattern.PreferredHours, 10)
	assert.Equal(t, time.Hour, pattern.AvgSessionDuration)
	// The 23:00 outlier day holds under 10% of sessions.
	for _, d := range pattern.PreferredDays {
		assert.NotEqual(t, time.Sunday, d)
	}
}

func TestBuildTransactions_TopTypesAndFrequentRecipients(t *testing.T) {
	var txs []ports.Transaction
	base := profileNow.AddDate(0, 0, -100)
	for i := 0; i < 12; i++ {
		txs = append(txs, ports.Transaction{
			Type:        "transfer_out",
			Amount:      1000,
			RecipientID: "alice",
			Status:      "completed",
			CreatedAt:   base.AddDate(0, 0, i),
		})
	}
	for i := 0; i < 4; i++ {
		txs = append(txs, ports.Transaction{
			Type:      "investment",
			Amount:    5000,
			Status:    "completed",
			CreatedAt: base.AddDate(0, 0, 20+i),
		})
	}
	txs = append(txs,
		ports.Transaction{Type: "withdrawal", Amount: 100, RecipientID: "bob", Status: "completed", CreatedAt: base.AddDate(0, 0, 30)},
		ports.Transaction{Type: "transfer_out", Amount: 99999, RecipientID: "mallory", Status: "failed", CreatedAt: base.AddDate(0, 0, 31)},
	)

	pattern := buildTransactions(completedOnly(txs))

	assert.Equal(t, []string{"transfer_out", "investment", "withdrawal"}, pattern.TopTypes)
	assert.Equal(t, []string{"alice"}, pattern.FrequentRecipients)
	// Failed transactions never count.
	assert.InDelta(t, 17.0/6.0, pattern.AvgPerMonth, 0.01)
	assert.Greater(t, pattern.MeanGap, time.Duration(0))
}

func TestBuildDevices_LocationConsistency(t *testing.T) {
	oneIP := []ports.Session{
		sessionAt(profileNow.AddDate(0, 0, -60), "android", "203.0.113.1", "fp-1"),
		sessionAt(profileNow.AddDate(0, 0, -30), "android", "203.0.113.1", "fp-1"),
		sessionAt(profileNow.AddDate(0, 0, -1), "android", "203.0.113.1", "fp-2"),
	}
	scattered := []ports.Session{
		sessionAt(profileNow.AddDate(0, 0, -3), "web", "198.51.100.1", "fp-1"),
		sessionAt(profileNow.AddDate(0, 0, -2), "web", "198.51.100.2", "fp-1"),
		sessionAt(profileNow.AddDate(0, 0, -1), "web", "198.51.100.3", "fp-1"),
	}

	stable := buildDevices(oneIP, profileNow)
	roaming := buildDevices(scattered, profileNow)

	assert.Equal(t, 100, stable.LocationConsistency)
	assert.Equal(t, 0, roaming.LocationConsistency)
	assert.Equal(t, 2, stable.DeviceCount)
	assert.Equal(t, 60, stable.OldestDeviceAge)
	assert.Equal(t, "android", stable.PrimaryPlatform)
}

func TestDetermineSegment_OrderedFirstMatch(t *testing.T) {
	cases := []struct {
		name     string
		profile  Profile
		lastSeen int
		want     Segment
	}{
		{
			name:     "too little data is NEW_USER even when dormant",
			profile:  Profile{DataPoints: 3},
			lastSeen: 90,
			want:     SegmentNewUser,
		},
		{
			name:     "dormancy beats risk indicators",
			profile:  Profile{DataPoints: 50, Risk: RiskIndicators{Velocity: 90}},
			lastSeen: 45,
			want:     SegmentDormant,
		},
		{
			name:     "high indicator is AT_RISK before value",
			profile:  Profile{DataPoints: 50, Risk: RiskIndicators{AmountVolatility: 75}, Transactions: TransactionPattern{AvgPerMonth: 10, AvgAmount: 500_000}},
			lastSeen: 1,
			want:     SegmentAtRisk,
		},
		{
			name:     "monthly volume makes HIGH_VALUE",
			profile:  Profile{DataPoints: 50, Transactions: TransactionPattern{AvgPerMonth: 4, AvgAmount: 300_000}},
			lastSeen: 1,
			want:     SegmentHighValue,
		},
		{
			name:     "many transactions make POWER_USER",
			profile:  Profile{DataPoints: 120, Transactions: TransactionPattern{AvgPerMonth: 35, AvgAmount: 100}},
			lastSeen: 1,
			want:     SegmentPowerUser,
		},
		{
			name:     "rare transactions make PASSIVE",
			profile:  Profile{DataPoints: 40, Transactions: TransactionPattern{AvgPerMonth: 1, AvgAmount: 100}},
			lastSeen: 1,
			want:     SegmentPassive,
		},
		{
			name:     "everything ordinary is REGULAR",
			profile:  Profile{DataPoints: 40, Transactions: TransactionPattern{AvgPerMonth: 8, AvgAmount: 200}},
			lastSeen: 1,
			want:     SegmentRegular,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DetermineSegment(&tc.profile, tc.lastSeen))
		})
	}
}

func TestBuildProfile_EmptyHistory(t *testing.T) {
	profile := BuildProfile(id.NewUserID(), nil, nil, profileNow, 1)

	assert.Equal(t, SegmentNewUser, profile.Segment)
	assert.Zero(t, profile.DataPoints)
	assert.Equal(t, 100, profile.Risk.Dormancy)
	assert.Equal(t, 100, profile.Risk.LocationVariability)
}
