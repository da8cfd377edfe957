package riskauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gabrielgmza/simply-backend-sub000/internal/device"
	dErrors "github.com/gabrielgmza/simply-backend-sub000/pkg/domain-errors"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/requestcontext"
)

// Evaluator weights. Each evaluator appends named signed factors; the
// assessment is their clamped sum.
const (
	weightUnknownDevice   = 20
	weightNewDevice       = 15
	weightUntrustedDevice = 30
	weightTrustedDevice   = -10

	weightBlacklistedIP     = 50
	weightAnonymousProxy    = 20
	weightHighRiskCountry   = 40
	weightImpossibleTravel  = 35
	weightLateNightHour     = 10
	weightAmountFiveTimes   = 30
	weightAmountThreeTimes  = 15
	weightAbsoluteHighValue = 20
	weightFirstRecipient    = 20
	weightFrequentRecipient = -10
	weightBurstTen          = 25
	weightBurstFive         = 10
	weightFailedLogins      = 15
	weightOpenFraudAlert    = 30
)

const (
	lateNightStart = 2
	lateNightEnd   = 5

	amountAbsoluteThreshold = 1_000_000
	amountHistoryWindow     = 90 * 24 * time.Hour
	burstWindow             = time.Hour
	failedLoginWindow       = 24 * time.Hour
)

// evaluator computes one independent slice of the risk score. Evaluators
// run concurrently and combine by fixed index, so ordering never affects
// the result.
type evaluator struct {
	name string
	run  func(ctx context.Context, op OperationContext) ([]Factor, error)
}

func (s *Service) evaluators() []evaluator {
	return []evaluator{
		{"operation", s.evalOperation},
		{"device", s.evalDevice},
		{"location", s.evalLocation},
		{"time_of_day", s.evalTimeOfDay},
		{"amount", s.evalAmount},
		{"recipient", s.evalRecipient},
		{"history", s.evalHistory},
		{"trust_adjustment", s.evalTrustAdjustment},
	}
}

func (s *Service) evalOperation(_ context.Context, op OperationContext) ([]Factor, error) {
	return []Factor{{Name: "operation_base_risk", Weight: BaseRisk(op.Operation)}}, nil
}

func (s *Service) evalDevice(ctx context.Context, op OperationContext) ([]Factor, error) {
	if op.DeviceFingerprint == "" {
		return []Factor{{Name: "unknown_device", Weight: weightUnknownDevice}}, nil
	}

	record, err := s.devices.Get(ctx, op.UserID, op.DeviceFingerprint)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return []Factor{{Name: "unregistered_device", Weight: weightUnknownDevice}}, nil
		}
		return nil, err
	}

	switch record.TrustLevel {
	case device.TrustNew:
		return []Factor{{Name: "new_device", Weight: weightNewDevice}}, nil
	case device.TrustUntrusted:
		return []Factor{{Name: "untrusted_device", Weight: weightUntrustedDevice}}, nil
	case device.TrustTrusted:
		return []Factor{{Name: "trusted_device", Weight: weightTrustedDevice}}, nil
	}
	return nil, nil
}

// evalLocation checks the IP against the blacklist first; a hit
// short-circuits every other location signal.
func (s *Service) evalLocation(ctx context.Context, op OperationContext) ([]Factor, error) {
	if op.IP == "" {
		return nil, nil
	}

	blacklisted, err := s.watchlist.IsIPBlacklisted(ctx, op.IP)
	if err != nil {
		return nil, err
	}
	if blacklisted {
		return []Factor{{Name: "blacklisted_ip", Weight: weightBlacklistedIP}}, nil
	}

	if s.geo == nil {
		return nil, nil
	}
	info, err := s.geo.Resolve(op.IP)
	if err != nil {
		// Unresolvable IPs are missing evidence, not a failure.
		s.logWarn(ctx, "geoip resolution failed", "ip", op.IP, "error", err)
		return nil, nil
	}

	var factors []Factor
	if info.AnonymousProxy {
		factors = append(factors, Factor{Name: "anonymous_proxy", Weight: weightAnonymousProxy})
	}
	if s.highRisk[info.Country] {
		factors = append(factors, Factor{Name: "high_risk_country", Weight: weightHighRiskCountry})
	}
	if factor := s.impossibleTravel(ctx, op, info); factor != nil {
		factors = append(factors, *factor)
	}
	return factors, nil
}

// impossibleTravel compares against the previous session: a great-circle
// distance requiring more than 900 km/h is not a trip a customer made.
func (s *Service) impossibleTravel(ctx context.Context, op OperationContext, current *GeoInfo) *Factor {
	last, err := s.sessions.LastSession(ctx, op.UserID)
	if err != nil || last == nil {
		return nil
	}
	if last.Latitude == 0 && last.Longitude == 0 {
		return nil
	}
	elapsed := requestcontext.Now(ctx).Sub(last.StartedAt).Hours()
	if elapsed <= 0 {
		return nil
	}
	distance := haversineKM(last.Latitude, last.Longitude, current.Latitude, current.Longitude)
	if distance/elapsed <= maxTravelSpeedKMH {
		return nil
	}
	return &Factor{
		Name:   fmt.Sprintf("impossible_travel_%.0fkm", distance),
		Weight: weightImpossibleTravel,
	}
}

func (s *Service) evalTimeOfDay(ctx context.Context, _ OperationContext) ([]Factor, error) {
	hour := requestcontext.Now(ctx).Hour()
	if hour >= lateNightStart && hour < lateNightEnd {
		return []Factor{{Name: "late_night_hour", Weight: weightLateNightHour}}, nil
	}
	return nil, nil
}

func (s *Service) evalAmount(ctx context.Context, op OperationContext) ([]Factor, error) {
	if op.Amount <= 0 {
		return nil, nil
	}

	var factors []Factor
	transactions, err := s.ledger.ListTransactions(ctx, op.UserID, requestcontext.Now(ctx).Add(-amountHistoryWindow))
	if err != nil {
		return nil, err
	}
	total, count := 0.0, 0
	for _, tx := range transactions {
		if tx.Status == "completed" {
			total += tx.Amount
			count++
		}
	}
	if count > 0 {
		avg := total / float64(count)
		switch ratio := op.Amount / avg; {
		case ratio >= 5:
			factors = append(factors, Factor{Name: "amount_5x_average", Weight: weightAmountFiveTimes})
		case ratio >= 3:
			factors = append(factors, Factor{Name: "amount_3x_average", Weight: weightAmountThreeTimes})
		}
	}
	if op.Amount >= amountAbsoluteThreshold {
		factors = append(factors, Factor{Name: "amount_high_absolute", Weight: weightAbsoluteHighValue})
	}
	return factors, nil
}

func (s *Service) evalRecipient(ctx context.Context, op OperationContext) ([]Factor, error) {
	if op.RecipientID == "" {
		return nil, nil
	}

	count, err := s.ledger.RecipientTransferCount(ctx, op.UserID, op.RecipientID)
	if err != nil {
		return nil, err
	}
	switch {
	case count >= 3:
		return []Factor{{Name: "frequent_recipient", Weight: weightFrequentRecipient}}, nil
	case count == 0:
		return []Factor{{Name: "first_time_recipient", Weight: weightFirstRecipient}}, nil
	}
	return nil, nil
}

func (s *Service) evalHistory(ctx context.Context, op OperationContext) ([]Factor, error) {
	var factors []Factor

	ops, err := s.ledger.CountRecentOperations(ctx, op.UserID, burstWindow)
	if err != nil {
		return nil, err
	}
	switch {
	case ops >= 10:
		factors = append(factors, Factor{Name: "operation_burst_10", Weight: weightBurstTen})
	case ops >= 5:
		factors = append(factors, Factor{Name: "operation_burst_5", Weight: weightBurstFive})
	}

	failed, err := s.sessions.CountFailedLogins(ctx, op.UserID, failedLoginWindow)
	if err != nil {
		return nil, err
	}
	if failed >= 3 {
		factors = append(factors, Factor{Name: "recent_failed_logins", Weight: weightFailedLogins})
	}

	open, err := s.watchlist.HasOpenFraudAlert(ctx, op.UserID)
	if err != nil {
		return nil, err
	}
	if open {
		factors = append(factors, Factor{Name: "open_fraud_alert", Weight: weightOpenFraudAlert})
	}
	return factors, nil
}

func (s *Service) evalTrustAdjustment(ctx context.Context, op OperationContext) ([]Factor, error) {
	snapshot, err := s.trust.GetScore(ctx, op.UserID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var weight int
	switch snapshot.Tier {
	case "ELITE":
		weight = -20
	case "HIGH":
		weight = -10
	case "LOW":
		weight = 15
	case "CRITICAL":
		weight = 30
	default:
		return nil, nil
	}
	return []Factor{{Name: "trust_tier_" + string(snapshot.Tier), Weight: weight}}, nil
}

var errEvaluatorTimeout = errors.New("evaluator timed out")
