// Package fraud implements the transaction fraud ensemble. Five
// deterministic model functions score one transaction independently,
// combine under fixed weights, and scale by the customer's trust tier.
// The rules model is an explicit checklist so every delta in a verdict is
// auditable after the fact.
package fraud

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/gabrielgmza/simply-backend-sub000/internal/alerting"
	"github.com/gabrielgmza/simply-backend-sub000/internal/behavior"
	"github.com/gabrielgmza/simply-backend-sub000/internal/device"
	"github.com/gabrielgmza/simply-backend-sub000/internal/platform/config"
	"github.com/gabrielgmza/simply-backend-sub000/internal/ports"
	"github.com/gabrielgmza/simply-backend-sub000/internal/trustscore"
	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
	dErrors "github.com/gabrielgmza/simply-backend-sub000/pkg/domain-errors"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/platform/audit"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/requestcontext"
)

// alertScoreThreshold is the composite score at which an evaluation
// always raises a companion alert.
const alertScoreThreshold = 60

// ProfileReader serves the behavioral baseline.
type ProfileReader interface {
	GetOrBuild(ctx context.Context, userID id.UserID) (*behavior.Profile, error)
}

// TrustReader serves the trust snapshot for the tier multiplier.
type TrustReader interface {
	GetScore(ctx context.Context, userID id.UserID) (*trustscore.Snapshot, error)
}

// DeviceReader resolves the device record behind a fingerprint.
type DeviceReader interface {
	Get(ctx context.Context, userID id.UserID, fingerprint string) (*device.Record, error)
}

// Alerter raises companion alerts for high-scoring evaluations.
type Alerter interface {
	Create(ctx context.Context, params alerting.CreateParams) (*alerting.Alert, error)
}

// Service is the fraud evaluation ensemble.
type Service struct {
	store     Store
	identity  ports.IdentityReader
	ledger    ports.LedgerReader
	sessions  ports.SessionReader
	watchlist ports.WatchlistReader
	profiles  ProfileReader
	trust     TrustReader
	devices   DeviceReader
	alerter   Alerter
	audit     ports.AuditPublisher
	logger    *slog.Logger
	metrics   *Metrics
	tracer    trace.Tracer
	cfg       *config.FraudConfig
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher ports.AuditPublisher) Option {
	return func(s *Service) { s.audit = publisher }
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithConfig(cfg *config.FraudConfig) Option {
	return func(s *Service) { s.cfg = cfg }
}

func WithAlerter(alerter Alerter) Option {
	return func(s *Service) { s.alerter = alerter }
}

// New constructs the ensemble. All readers are required.
func New(store Store, identity ports.IdentityReader, ledger ports.LedgerReader, sessions ports.SessionReader, watchlist ports.WatchlistReader, profiles ProfileReader, trust TrustReader, devices DeviceReader, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("evaluation store is required")
	}
	if identity == nil || ledger == nil || sessions == nil || watchlist == nil {
		return nil, errors.New("identity, ledger, session, and watchlist readers are required")
	}
	if profiles == nil || trust == nil || devices == nil {
		return nil, errors.New("profile, trust, and device readers are required")
	}
	defaultCfg := config.Default().Fraud
	svc := &Service{
		store:     store,
		identity:  identity,
		ledger:    ledger,
		sessions:  sessions,
		watchlist: watchlist,
		profiles:  profiles,
		trust:     trust,
		devices:   devices,
		tracer:    otel.Tracer("fraud"),
		cfg:       &defaultCfg,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// EvaluateTransaction runs the full ensemble and returns the persisted
// verdict. The evaluation writes before the caller sees it; a verdict
// that was never recorded is never enforced.
func (s *Service) EvaluateTransaction(ctx context.Context, tx TransactionContext) (*Evaluation, error) {
	if tx.UserID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "user id is required")
	}
	if tx.Type == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "transaction type is required")
	}
	if tx.Amount < 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "amount must not be negative")
	}

	ctx, span := s.tracer.Start(ctx, "fraud.EvaluateTransaction",
		trace.WithAttributes(
			attribute.String("transaction_type", tx.Type),
			attribute.Float64("amount", tx.Amount),
		))
	defer span.End()

	started := time.Now()
	now := requestcontext.Now(ctx)

	ev, err := s.gatherEvidence(ctx, tx)
	if err != nil {
		return nil, err
	}

	scores := ModelScores{
		Anomaly:   anomalyScore(ev.anomalies),
		Pattern:   patternScore(ev.profile, tx, now),
		Velocity:  velocityScore(ev.profile, ev.opsLastHour),
		Deviation: deviationScore(ev.profile),
	}
	var factors []Factor
	scores.Rules, factors = rulesScore(ev, tx, now)

	composed := Compose(scores)
	score := clampScore(int(float64(composed)*trustMultiplier(ev.tier) + 0.5))

	decision := decide(score, factors)

	evaluation := &Evaluation{
		ID:             id.NewEvaluationID(),
		UserID:         tx.UserID,
		TransactionID:  tx.TransactionID,
		FraudScore:     score,
		RiskLevel:      riskLevelFor(score),
		Confidence:     confidence(s.cfg.ConfidenceAgreementWeight, s.cfg.ConfidenceFactorWeight, scores, len(factors)),
		Decision:       decision,
		RiskFactors:    factors,
		ModelScores:    scores,
		ModelVersion:   s.cfg.ModelVersion,
		ProcessingTime: time.Since(started),
		EvaluatedAt:    now,
	}

	if err := s.store.Create(ctx, evaluation); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "persist fraud evaluation")
	}

	span.SetAttributes(
		attribute.Int("fraud_score", score),
		attribute.String("decision", string(decision)),
	)
	s.metrics.IncEvaluation(decision)
	s.metrics.ObserveScore(score)
	s.metrics.ObserveProcessing(evaluation.ProcessingTime)

	event := audit.EventFraudEvaluated
	severity := audit.SeverityInfo
	if decision == DecisionDecline || decision == DecisionBlockUser {
		event = audit.EventFraudDeclined
		severity = audit.SeverityCritical
	}
	ports.LogAudit(ctx, s.logger, s.audit, event,
		"evaluation/"+evaluation.ID.String(),
		fmt.Sprintf("transaction scored %d: %s", score, decision),
		severity,
		"user_id", tx.UserID.String(),
		"fraud_score", score,
		"decision", string(decision),
		"model_version", evaluation.ModelVersion,
	)

	if score >= alertScoreThreshold {
		s.raiseAlert(ctx, evaluation, tx)
	}

	return evaluation, nil
}

// History returns the newest evaluations for a user.
func (s *Service) History(ctx context.Context, userID id.UserID, limit int) ([]*Evaluation, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "user id is required")
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	evaluations, err := s.store.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list fraud evaluations")
	}
	return evaluations, nil
}

// raiseAlert notifies the fraud operations team. Alert failure never
// fails the evaluation; the verdict is already persisted.
func (s *Service) raiseAlert(ctx context.Context, evaluation *Evaluation, tx TransactionContext) {
	if s.alerter == nil {
		return
	}

	priority := alerting.PriorityHigh
	if evaluation.Decision == DecisionDecline || evaluation.Decision == DecisionBlockUser {
		priority = alerting.PriorityCritical
	}
	_, err := s.alerter.Create(ctx, alerting.CreateParams{
		Category: "fraud",
		Priority: priority,
		Title:    fmt.Sprintf("Fraud score %d on %s", evaluation.FraudScore, tx.Type),
		Message: fmt.Sprintf("transaction for user %s scored %d (%s), decision %s",
			tx.UserID, evaluation.FraudScore, evaluation.RiskLevel, evaluation.Decision),
		Target:   alerting.Target{Type: alerting.TargetTeam, ID: "fraud_ops"},
		Source:   "fraud_ensemble",
		SourceID: evaluation.ID.String(),
	})
	if err != nil {
		s.logWarn(ctx, "companion fraud alert failed", "evaluation_id", evaluation.ID.String(), "error", err)
		return
	}
	s.metrics.IncAlertRaised()
}

func (s *Service) logWarn(ctx context.Context, msg string, args ...any) {
	if s.logger != nil {
		s.logger.WarnContext(ctx, msg, args...)
	}
}
