package employee

import (
	"sort"
	"time"

	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
)

const (
	// workDayShare is the minimum fraction of total activity a weekday
	// needs to count as a usual work day.
	workDayShare = 0.10

	defaultWorkHourStart = 9
	defaultWorkHourEnd   = 18
)

// BuildBaseline condenses a window of recorded actions into the employee's
// activity profile. Work hours are the 10th and 90th percentile of action
// hours, so a stray late login does not widen the window.
func BuildBaseline(employeeID id.EmployeeID, actions []ActionRecord, assignedClients []string, now time.Time) *Baseline {
	baseline := &Baseline{
		EmployeeID:        employeeID,
		WorkHourStart:     defaultWorkHourStart,
		WorkHourEnd:       defaultWorkHourEnd,
		AssignedClientIDs: assignedClients,
		DataPoints:        len(actions),
		UpdatedAt:         now,
	}
	if len(actions) == 0 {
		return baseline
	}

	hours := make([]int, 0, len(actions))
	dayCounts := make(map[time.Weekday]int)
	days := make(map[string]bool)
	ips := make(map[string]bool)
	var approvals, exports, dataAccess int

	for _, action := range actions {
		hours = append(hours, action.At.Hour())
		dayCounts[action.At.Weekday()]++
		days[action.At.Format(time.DateOnly)] = true
		if action.IP != "" {
			ips[action.IP] = true
		}
		if isApproval(action.Action) {
			approvals++
		}
		if isExport(action.Action) {
			exports++
		}
		if isDataAccess(action.Action) {
			dataAccess++
		}
	}

	sort.Ints(hours)
	baseline.WorkHourStart = percentile(hours, 10)
	baseline.WorkHourEnd = percentile(hours, 90)

	for day := time.Sunday; day <= time.Saturday; day++ {
		if float64(dayCounts[day])/float64(len(actions)) > workDayShare {
			baseline.WorkDays = append(baseline.WorkDays, day)
		}
	}

	activeDays := float64(len(days))
	baseline.AvgDailyActions = float64(len(actions)) / activeDays
	baseline.AvgDailyApprovals = float64(approvals) / activeDays
	baseline.AvgDailyExports = float64(exports) / activeDays
	baseline.AvgDailyDataAccess = float64(dataAccess) / activeDays

	baseline.KnownIPs = make([]string, 0, len(ips))
	for ip := range ips {
		baseline.KnownIPs = append(baseline.KnownIPs, ip)
	}
	sort.Strings(baseline.KnownIPs)

	return baseline
}

// percentile returns the p-th percentile of a sorted int slice using the
// nearest-rank method.
func percentile(sorted []int, p int) int {
	if len(sorted) == 0 {
		return 0
	}
	rank := (p*len(sorted) + 99) / 100
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}

// hourlyRate spreads a daily average over the baseline's working span.
func (b *Baseline) hourlyRate(daily float64) float64 {
	span := b.WorkHourEnd - b.WorkHourStart
	if span <= 0 {
		span = 8
	}
	return daily / float64(span)
}
