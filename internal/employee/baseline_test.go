package employee

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
)

func TestBuildBaseline_WorkHoursArePercentiles(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	employeeID := id.NewEmployeeID()

	// Ten actions across the working day plus one 03:00 outlier. The
	// percentile bounds must shrug the outlier off.
	var actions []ActionRecord
	monday := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	for hour := 9; hour <= 18; hour++ {
		actions = append(actions, ActionRecord{
			EmployeeID: employeeID,
			Action:     "view_account",
			IP:         "10.0.0.1",
			At:         monday.Add(time.Duration(hour) * time.Hour),
		})
	}
	actions = append(actions, ActionRecord{
		EmployeeID: employeeID,
		Action:     "view_account",
		IP:         "10.0.0.1",
		At:         monday.Add(3 * time.Hour),
	})

	baseline := BuildBaseline(employeeID, actions, nil, now)

	assert.Equal(t, 9, baseline.WorkHourStart)
	assert.Equal(t, 17, baseline.WorkHourEnd)
	assert.Equal(t, []time.Weekday{time.Monday}, baseline.WorkDays)
	assert.Equal(t, []string{"10.0.0.1"}, baseline.KnownIPs)
	assert.Equal(t, 11, baseline.DataPoints)
}

func TestBuildBaseline_DailyAverages(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	employeeID := id.NewEmployeeID()

	dayOne := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	dayTwo := dayOne.AddDate(0, 0, 1)
	actions := []ActionRecord{
		{Action: "approve_transfer", Amount: 500, At: dayOne, IP: "10.0.0.1"},
		{Action: "export_users", At: dayOne.Add(time.Hour), IP: "10.0.0.1"},
		{Action: "view_account", At: dayOne.Add(2 * time.Hour), IP: "10.0.0.1"},
		{Action: "approve_transfer", Amount: 200, At: dayTwo, IP: "10.0.0.2"},
		{Action: "view_account", At: dayTwo.Add(time.Hour), IP: "10.0.0.2"},
		{Action: "list_transactions", At: dayTwo.Add(2 * time.Hour), IP: "10.0.0.2"},
	}

	baseline := BuildBaseline(employeeID, actions, nil, now)

	assert.InDelta(t, 3.0, baseline.AvgDailyActions, 0.001)
	assert.InDelta(t, 1.0, baseline.AvgDailyApprovals, 0.001)
	assert.InDelta(t, 0.5, baseline.AvgDailyExports, 0.001)
	// view, export, view, list count as data access.
	assert.InDelta(t, 2.0, baseline.AvgDailyDataAccess, 0.001)
	assert.ElementsMatch(t, []string{"10.0.0.1", "10.0.0.2"}, baseline.KnownIPs)
}

func TestBuildBaseline_EmptyHistoryFallsBackToDefaults(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	baseline := BuildBaseline(id.NewEmployeeID(), nil, nil, now)

	assert.Equal(t, defaultWorkHourStart, baseline.WorkHourStart)
	assert.Equal(t, defaultWorkHourEnd, baseline.WorkHourEnd)
	assert.Empty(t, baseline.WorkDays)
	assert.Zero(t, baseline.AvgDailyActions)
	assert.Equal(t, now, baseline.UpdatedAt)
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusDetected, StatusInvestigating, true},
		{StatusDetected, StatusFalsePositive, true},
		{StatusDetected, StatusConfirmed, true},
		{StatusDetected, StatusResolved, false},
		{StatusInvestigating, StatusResolved, true},
		{StatusConfirmed, StatusResolved, true},
		{StatusFalsePositive, StatusResolved, true},
		{StatusResolved, StatusInvestigating, false},
		{StatusConfirmed, StatusDetected, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}
