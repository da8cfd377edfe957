package employee

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func officeBaseline() *Baseline {
	return &Baseline{
		WorkHourStart: 9,
		WorkHourEnd:   18,
		WorkDays: []time.Weekday{
			time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
		},
		AvgDailyActions:    40,
		AvgDailyApprovals:  2,
		AvgDailyExports:    1,
		AvgDailyDataAccess: 20,
		KnownIPs:           []string{"10.0.0.1"},
	}
}

func runChecks(in checkInput) []*Anomaly {
	var out []*Anomaly
	for _, run := range anomalyChecks() {
		if anomaly := run(in); anomaly != nil {
			out = append(out, anomaly)
		}
	}
	return out
}

func quietInput(now time.Time) checkInput {
	return checkInput{
		baseline:  officeBaseline(),
		window:    &activityWindow{lastHourIPs: map[string]bool{"10.0.0.1": true}},
		action:    ActionContext{Action: "view_account", IP: "10.0.0.1"},
		role:      "support",
		now:       now,
		highValue: 100_000,
	}
}

func TestChecks_NightActionOnSundayFlagsOffHoursOnly(t *testing.T) {
	// Sunday 03:00 is both off-hours and off-day; the hour wins and
	// exactly one anomaly comes out.
	sundayNight := time.Date(2025, 6, 8, 3, 0, 0, 0, time.UTC)
	anomalies := runChecks(quietInput(sundayNight))

	require.Len(t, anomalies, 1)
	assert.Equal(t, AnomalyOffHours, anomalies[0].Type)
	assert.Equal(t, SeverityMedium, anomalies[0].Severity)
}

func TestChecks_WeekendMorningFlagsWeekend(t *testing.T) {
	sundayMorning := time.Date(2025, 6, 8, 10, 0, 0, 0, time.UTC)
	anomalies := runChecks(quietInput(sundayMorning))

	require.Len(t, anomalies, 1)
	assert.Equal(t, AnomalyWeekend, anomalies[0].Type)
	assert.Equal(t, SeverityMedium, anomalies[0].Severity)
}

func TestChecks_QuietWeekdayIsClean(t *testing.T) {
	tuesdayNoon := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	assert.Empty(t, runChecks(quietInput(tuesdayNoon)))
}

func TestCheckApprovalBurst(t *testing.T) {
	tuesdayNoon := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	t.Run("burst above baseline is high", func(t *testing.T) {
		in := quietInput(tuesdayNoon)
		in.window.lastHourApprovals = 5
		in.window.maxApprovalAmount = 900

		anomalies := runChecks(in)
		require.Len(t, anomalies, 1)
		assert.Equal(t, AnomalyApprovalBurst, anomalies[0].Type)
		assert.Equal(t, SeverityHigh, anomalies[0].Severity)
	})

	t.Run("high value approval upgrades to critical", func(t *testing.T) {
		in := quietInput(tuesdayNoon)
		in.window.lastHourApprovals = 5
		in.window.maxApprovalAmount = 150_000

		anomalies := runChecks(in)
		require.Len(t, anomalies, 1)
		assert.Equal(t, AnomalyHighValueApproval, anomalies[0].Type)
		assert.Equal(t, SeverityCritical, anomalies[0].Severity)
	})

	t.Run("four approvals stay under the floor", func(t *testing.T) {
		in := quietInput(tuesdayNoon)
		in.window.lastHourApprovals = 4
		assert.Empty(t, runChecks(in))
	})
}

func TestCheckBulkData(t *testing.T) {
	tuesdayNoon := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	t.Run("above the floor flags high", func(t *testing.T) {
		in := quietInput(tuesdayNoon)
		// Hourly baseline is 20/9 ~ 2.2; the floor of ten applies.
		in.window.lastHourDataAccess = 11

		anomalies := runChecks(in)
		require.Len(t, anomalies, 1)
		assert.Equal(t, AnomalyBulkData, anomalies[0].Type)
		assert.Equal(t, SeverityHigh, anomalies[0].Severity)
		assert.Positive(t, anomalies[0].DeviationPercent)
	})

	t.Run("low baseline stays quiet under the floor", func(t *testing.T) {
		in := quietInput(tuesdayNoon)
		// 3x a 2.2/h baseline is ~6.6; without the floor eight reads
		// would flag an ordinary working hour.
		in.window.lastHourDataAccess = 8
		assert.Empty(t, runChecks(in))
	})
}

func TestCheckVelocity(t *testing.T) {
	tuesdayNoon := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	in := quietInput(tuesdayNoon)
	in.window.lastFiveMinActions = velocityLimit + 1

	anomalies := runChecks(in)
	require.Len(t, anomalies, 1)
	assert.Equal(t, AnomalyHighVelocity, anomalies[0].Type)
}

func TestCheckMultiIP(t *testing.T) {
	tuesdayNoon := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	t.Run("three ips with unknown current", func(t *testing.T) {
		in := quietInput(tuesdayNoon)
		in.window.lastHourIPs = map[string]bool{"10.0.0.1": true, "10.0.0.2": true, "198.51.100.9": true}
		in.action.IP = "198.51.100.9"

		anomalies := runChecks(in)
		require.Len(t, anomalies, 1)
		assert.Equal(t, AnomalyMultiIP, anomalies[0].Type)
	})

	t.Run("known current ip is fine", func(t *testing.T) {
		in := quietInput(tuesdayNoon)
		in.window.lastHourIPs = map[string]bool{"10.0.0.1": true, "10.0.0.2": true, "198.51.100.9": true}
		in.action.IP = "10.0.0.1"
		assert.Empty(t, runChecks(in))
	})
}

func TestCheckExportSpike(t *testing.T) {
	tuesdayNoon := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	in := quietInput(tuesdayNoon)
	// Baseline is 1/day, so the minimum spike of three governs.
	in.window.todayExports = 3

	anomalies := runChecks(in)
	require.Len(t, anomalies, 1)
	assert.Equal(t, AnomalyExportSpike, anomalies[0].Type)
}

func TestCheckRepeatedSensitive(t *testing.T) {
	tuesdayNoon := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	in := quietInput(tuesdayNoon)
	in.window.todaySensitive = sensitiveDailyLimit

	anomalies := runChecks(in)
	require.Len(t, anomalies, 1)
	assert.Equal(t, AnomalyRepeatedSensitive, anomalies[0].Type)
	assert.Equal(t, SeverityMedium, anomalies[0].Severity)
}

func TestCheckUnassignedClient_EmptyAssignedSetStaysSilent(t *testing.T) {
	tuesdayNoon := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	in := quietInput(tuesdayNoon)
	in.role = "ops"
	in.action.ClientID = "client-42"
	assert.Empty(t, runChecks(in))

	in.baseline.AssignedClientIDs = []string{"client-1"}
	anomalies := runChecks(in)
	require.Len(t, anomalies, 1)
	assert.Equal(t, AnomalyUnassignedClient, anomalies[0].Type)
}
