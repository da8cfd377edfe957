package employee

import (
	"fmt"
	"time"
)

const (
	velocityWindow      = 5 * time.Minute
	velocityLimit       = 50
	approvalBurstFloor  = 5
	multiIPFloor        = 3
	sensitiveDailyLimit = 5
	bulkDataFloor       = 10
	exportSpikeFloor    = 3
)

// activityWindow is what the trailing day of actions looks like at the
// moment of the action under analysis. The current action is included.
type activityWindow struct {
	lastHourDataAccess int
	lastHourApprovals  int
	lastHourIPs        map[string]bool
	maxApprovalAmount  float64
	lastFiveMinActions int
	todayExports       int
	todaySensitive     int
}

// buildWindow folds the trailing day of recorded actions into the counters
// the checks consume.
func buildWindow(actions []ActionRecord, now time.Time) *activityWindow {
	w := &activityWindow{lastHourIPs: make(map[string]bool)}
	hourAgo := now.Add(-time.Hour)
	fiveMinAgo := now.Add(-velocityWindow)
	today := now.Format(time.DateOnly)

	for _, action := range actions {
		if action.At.After(hourAgo) {
			if isDataAccess(action.Action) {
				w.lastHourDataAccess++
			}
			if isApproval(action.Action) {
				w.lastHourApprovals++
				if action.Amount > w.maxApprovalAmount {
					w.maxApprovalAmount = action.Amount
				}
			}
			if action.IP != "" {
				w.lastHourIPs[action.IP] = true
			}
		}
		if action.At.After(fiveMinAgo) {
			w.lastFiveMinActions++
		}
		if action.At.Format(time.DateOnly) == today {
			if isExport(action.Action) {
				w.todayExports++
			}
			if isSensitive(action.Action) {
				w.todaySensitive++
			}
		}
	}
	return w
}

// checkInput carries everything one check may need. Checks are pure; the
// service persists and reacts to whatever they emit.
type checkInput struct {
	baseline  *Baseline
	window    *activityWindow
	action    ActionContext
	role      string
	now       time.Time
	highValue float64
}

type check func(checkInput) *Anomaly

func anomalyChecks() []check {
	return []check{
		checkSchedule,
		checkBulkData,
		checkUnassignedClient,
		checkApprovalBurst,
		checkExportSpike,
		checkVelocity,
		checkMultiIP,
		checkRepeatedSensitive,
	}
}

// checkSchedule flags activity outside the usual hours, or on an unusual
// day when the hour itself is fine. At most one anomaly comes out.
func checkSchedule(in checkInput) *Anomaly {
	hour := in.now.Hour()
	if hour < in.baseline.WorkHourStart || hour > in.baseline.WorkHourEnd {
		return &Anomaly{
			Type:        AnomalyOffHours,
			Severity:    SeverityMedium,
			Description: fmt.Sprintf("activity at %02d:00, outside usual hours", hour),
			Baseline:    fmt.Sprintf("%02d:00-%02d:00", in.baseline.WorkHourStart, in.baseline.WorkHourEnd),
			Actual:      fmt.Sprintf("%02d:00", hour),
		}
	}
	if len(in.baseline.WorkDays) > 0 && !in.baseline.WorkDay(in.now.Weekday()) {
		return &Anomaly{
			Type:        AnomalyWeekend,
			Severity:    SeverityMedium,
			Description: fmt.Sprintf("activity on %s, not a usual work day", in.now.Weekday()),
			Baseline:    fmt.Sprintf("%v", in.baseline.WorkDays),
			Actual:      in.now.Weekday().String(),
		}
	}
	return nil
}

func checkBulkData(in checkInput) *Anomaly {
	count := in.window.lastHourDataAccess
	hourly := in.baseline.hourlyRate(in.baseline.AvgDailyDataAccess)
	threshold := 3 * hourly
	if threshold < bulkDataFloor {
		threshold = bulkDataFloor
	}
	if float64(count) <= threshold {
		return nil
	}
	return &Anomaly{
		Type:             AnomalyBulkData,
		Severity:         SeverityHigh,
		Description:      fmt.Sprintf("%d data reads in the last hour", count),
		Baseline:         fmt.Sprintf("%.1f/h", hourly),
		Actual:           fmt.Sprintf("%d/h", count),
		DeviationPercent: deviationPct(float64(count), hourly),
	}
}

// checkUnassignedClient only fires for roles that work a fixed book of
// clients. With an empty assigned set there is nothing to judge against, so
// the check stays silent.
func checkUnassignedClient(in checkInput) *Anomaly {
	if in.action.ClientID == "" || len(in.baseline.AssignedClientIDs) == 0 {
		return nil
	}
	if in.role == "support" || in.role == "admin" || in.role == "super_admin" {
		return nil
	}
	for _, assigned := range in.baseline.AssignedClientIDs {
		if assigned == in.action.ClientID {
			return nil
		}
	}
	return &Anomaly{
		Type:        AnomalyUnassignedClient,
		Severity:    SeverityMedium,
		Description: fmt.Sprintf("access to client %s outside the assigned set", in.action.ClientID),
		Baseline:    fmt.Sprintf("%d assigned clients", len(in.baseline.AssignedClientIDs)),
		Actual:      in.action.ClientID,
	}
}

func checkApprovalBurst(in checkInput) *Anomaly {
	count := in.window.lastHourApprovals
	hourly := in.baseline.hourlyRate(in.baseline.AvgDailyApprovals)
	if count < approvalBurstFloor || float64(count) <= 2*hourly {
		return nil
	}
	anomaly := &Anomaly{
		Type:             AnomalyApprovalBurst,
		Severity:         SeverityHigh,
		Description:      fmt.Sprintf("%d approvals in the last hour", count),
		Baseline:         fmt.Sprintf("%.1f/h", hourly),
		Actual:           fmt.Sprintf("%d/h", count),
		DeviationPercent: deviationPct(float64(count), hourly),
	}
	if in.highValue > 0 && in.window.maxApprovalAmount > in.highValue {
		anomaly.Type = AnomalyHighValueApproval
		anomaly.Severity = SeverityCritical
		anomaly.Description = fmt.Sprintf("%d approvals in the last hour, largest %.2f", count, in.window.maxApprovalAmount)
	}
	return anomaly
}

func checkExportSpike(in checkInput) *Anomaly {
	count := in.window.todayExports
	threshold := 3 * in.baseline.AvgDailyExports
	if threshold < exportSpikeFloor {
		threshold = exportSpikeFloor
	}
	if float64(count) < threshold {
		return nil
	}
	return &Anomaly{
		Type:             AnomalyExportSpike,
		Severity:         SeverityHigh,
		Description:      fmt.Sprintf("%d exports today", count),
		Baseline:         fmt.Sprintf("%.1f/day", in.baseline.AvgDailyExports),
		Actual:           fmt.Sprintf("%d/day", count),
		DeviationPercent: deviationPct(float64(count), in.baseline.AvgDailyExports),
	}
}

func checkVelocity(in checkInput) *Anomaly {
	count := in.window.lastFiveMinActions
	if count <= velocityLimit {
		return nil
	}
	return &Anomaly{
		Type:        AnomalyHighVelocity,
		Severity:    SeverityHigh,
		Description: fmt.Sprintf("%d actions in five minutes", count),
		Baseline:    fmt.Sprintf("at most %d per five minutes", velocityLimit),
		Actual:      fmt.Sprintf("%d", count),
	}
}

func checkMultiIP(in checkInput) *Anomaly {
	if len(in.window.lastHourIPs) < multiIPFloor || in.baseline.KnownIP(in.action.IP) {
		return nil
	}
	return &Anomaly{
		Type:        AnomalyMultiIP,
		Severity:    SeverityHigh,
		Description: fmt.Sprintf("%d distinct IPs in the last hour, current one never seen before", len(in.window.lastHourIPs)),
		Baseline:    fmt.Sprintf("%d known IPs", len(in.baseline.KnownIPs)),
		Actual:      in.action.IP,
	}
}

func checkRepeatedSensitive(in checkInput) *Anomaly {
	count := in.window.todaySensitive
	if count < sensitiveDailyLimit {
		return nil
	}
	return &Anomaly{
		Type:        AnomalyRepeatedSensitive,
		Severity:    SeverityMedium,
		Description: fmt.Sprintf("%d sensitive operations today", count),
		Baseline:    fmt.Sprintf("fewer than %d per day", sensitiveDailyLimit),
		Actual:      fmt.Sprintf("%d", count),
	}
}

func deviationPct(actual, expected float64) float64 {
	if expected <= 0 {
		return 0
	}
	return (actual/expected - 1) * 100
}
