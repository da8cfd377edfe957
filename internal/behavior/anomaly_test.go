package behavior

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func anomalyTypes(anomalies []Anomaly) []AnomalyType {
	out := make([]AnomalyType, 0, len(anomalies))
	for _, a := range anomalies {
		out = append(out, a.Type)
	}
	return out
}

func TestCompareToProfile_HourDeviation(t *testing.T) {
	profile := &Profile{
		Temporal: TemporalPattern{PreferredHours: []int{9, 10, 14}},
	}

	t.Run("inside the window is quiet", func(t *testing.T) {
		assert.Empty(t, CompareToProfile(profile, LiveEvent{
			At: time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC),
		}))
	})

	t.Run("three hours past every preferred hour flags", func(t *testing.T) {
		anomalies := CompareToProfile(profile, LiveEvent{
			At: time.Date(2025, 6, 10, 3, 0, 0, 0, time.UTC),
		})

		require.Len(t, anomalies, 1)
		assert.Equal(t, AnomalyUnusualHour, anomalies[0].Type)
		assert.Equal(t, 70, anomalies[0].Confidence)
	})

	t.Run("circular distance across midnight", func(t *testing.T) {
		nightOwl := &Profile{Temporal: TemporalPattern{PreferredHours: []int{23}}}

		assert.Empty(t, CompareToProfile(nightOwl, LiveEvent{
			At: time.Date(2025, 6, 10, 1, 0, 0, 0, time.UTC),
		}))
	})
}

func TestCompareToProfile_AmountDeviation(t *testing.T) {
	profile := &Profile{
		Transactions: TransactionPattern{AvgAmount: 1000},
	}
	at := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	t.Run("double the average is tolerated", func(t *testing.T) {
		assert.Empty(t, CompareToProfile(profile, LiveEvent{Amount: 2000, At: at}))
	})

	t.Run("past 200% deviation flags with scaling confidence", func(t *testing.T) {
		mild := CompareToProfile(profile, LiveEvent{Amount: 3100, At: at})
		extreme := CompareToProfile(profile, LiveEvent{Amount: 50_000, At: at})

		require.Len(t, mild, 1)
		require.Len(t, extreme, 1)
		assert.Equal(t, AnomalyUnusualAmount, mild[0].Type)
		assert.Greater(t, extreme[0].Confidence, mild[0].Confidence)
		assert.LessOrEqual(t, extreme[0].Confidence, 95)
	})

	t.Run("no average means no amount check", func(t *testing.T) {
		empty := &Profile{}

		assert.Empty(t, CompareToProfile(empty, LiveEvent{Amount: 1_000_000, At: at}))
	})
}

func TestCompareToProfile_Velocity(t *testing.T) {
	// Roughly 72 transactions/month implies 0.1/h; tenfold is 1/h.
	profile := &Profile{
		Transactions: TransactionPattern{AvgPerMonth: 72},
	}
	at := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	quiet := CompareToProfile(profile, LiveEvent{OpsLastHour: 1, At: at})
	burst := CompareToProfile(profile, LiveEvent{OpsLastHour: 12, At: at})

	assert.Empty(t, quiet)
	require.Len(t, burst, 1)
	assert.Equal(t, AnomalyHighVelocity, burst[0].Type)
	assert.Equal(t, 85, burst[0].Confidence)
}

func TestCompareToProfile_ChecksAreIndependent(t *testing.T) {
	profile := &Profile{
		Temporal:     TemporalPattern{PreferredHours: []int{9}},
		Transactions: TransactionPattern{AvgAmount: 100, AvgPerMonth: 72},
	}

	anomalies := CompareToProfile(profile, LiveEvent{
		Amount:      10_000,
		At:          time.Date(2025, 6, 10, 3, 0, 0, 0, time.UTC),
		OpsLastHour: 40,
	})

	assert.ElementsMatch(t,
		[]AnomalyType{AnomalyUnusualHour, AnomalyUnusualAmount, AnomalyHighVelocity},
		anomalyTypes(anomalies))
}
