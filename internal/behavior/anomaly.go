package behavior

import (
	"fmt"
	"math"
)

// Detection thresholds. The three checks are independent; none suppresses
// another, so one event can raise all three.
const (
	hourDeviationLimit    = 2
	hourConfidence        = 70
	amountDeviationPct    = 200
	velocityMultiple      = 10
	velocityConfidence    = 85
	maxScaledConfidence   = 95
	hoursPerProfileWindow = 30 * 24
)

// CompareToProfile runs every anomaly check for one live event against the
// stored profile and returns all deviations found.
func CompareToProfile(profile *Profile, event LiveEvent) []Anomaly {
	var anomalies []Anomaly
	if a := checkHour(profile, event); a != nil {
		anomalies = append(anomalies, *a)
	}
	if a := checkAmount(profile, event); a != nil {
		anomalies = append(anomalies, *a)
	}
	if a := checkVelocity(profile, event); a != nil {
		anomalies = append(anomalies, *a)
	}
	return anomalies
}

// checkHour flags events more than two hours outside every preferred hour.
func checkHour(profile *Profile, event LiveEvent) *Anomaly {
	if len(profile.Temporal.PreferredHours) == 0 {
		return nil
	}
	hour := event.At.Hour()
	closest := 24
	for _, preferred := range profile.Temporal.PreferredHours {
		if d := hourDistance(hour, preferred); d < closest {
			closest = d
		}
	}
	if closest <= hourDeviationLimit {
		return nil
	}
	return &Anomaly{
		Type:        AnomalyUnusualHour,
		Description: fmt.Sprintf("activity at %02d:00, %d hours outside the usual window", hour, closest),
		Confidence:  hourConfidence,
		Expected:    fmt.Sprintf("within 2h of hours %v", profile.Temporal.PreferredHours),
		Actual:      fmt.Sprintf("%02d:00", hour),
	}
}

// hourDistance is the circular distance between two hours of day.
func hourDistance(a, b int) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	if d > 12 {
		d = 24 - d
	}
	return d
}

// checkAmount flags amounts deviating more than 200% above the profile
// average; confidence grows with the deviation.
func checkAmount(profile *Profile, event LiveEvent) *Anomaly {
	avg := profile.Transactions.AvgAmount
	if avg <= 0 || event.Amount <= 0 {
		return nil
	}
	deviationPct := (event.Amount/avg - 1) * 100
	if deviationPct <= amountDeviationPct {
		return nil
	}
	confidence := int(math.Min(maxScaledConfidence, 50+deviationPct/10))
	return &Anomaly{
		Type:        AnomalyUnusualAmount,
		Description: fmt.Sprintf("amount %.0f%% above the user average", deviationPct),
		Confidence:  confidence,
		Expected:    fmt.Sprintf("around %.2f", avg),
		Actual:      fmt.Sprintf("%.2f", event.Amount),
	}
}

// checkVelocity flags an hourly operation count above ten times the rate
// the profile implies.
func checkVelocity(profile *Profile, event LiveEvent) *Anomaly {
	if profile.Transactions.AvgPerMonth <= 0 || event.OpsLastHour <= 0 {
		return nil
	}
	impliedHourly := profile.Transactions.AvgPerMonth / hoursPerProfileWindow
	threshold := impliedHourly * velocityMultiple
	if threshold < 1 {
		threshold = 1
	}
	if float64(event.OpsLastHour) <= threshold {
		return nil
	}
	return &Anomaly{
		Type:        AnomalyHighVelocity,
		Description: fmt.Sprintf("%d operations in the last hour against an implied rate of %.2f/h", event.OpsLastHour, impliedHourly),
		Confidence:  velocityConfidence,
		Expected:    fmt.Sprintf("at most %.1f operations/h", threshold),
		Actual:      fmt.Sprintf("%d operations/h", event.OpsLastHour),
	}
}
