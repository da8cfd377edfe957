// Package riskauth is the adaptive authentication engine. Every sensitive
// operation passes through AssessRisk, which combines independent
// evaluator verdicts into a 0-100 score and maps it to the friction the
// caller must apply. Assessments persist before the caller sees them.
package riskauth

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/gabrielgmza/simply-backend-sub000/internal/device"
	"github.com/gabrielgmza/simply-backend-sub000/internal/platform/config"
	"github.com/gabrielgmza/simply-backend-sub000/internal/ports"
	"github.com/gabrielgmza/simply-backend-sub000/internal/trustscore"
	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
	dErrors "github.com/gabrielgmza/simply-backend-sub000/pkg/domain-errors"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/platform/audit"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/platform/sentinel"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/requestcontext"
)

// DeviceReader resolves a device record for the device evaluator and
// receives challenge outcomes so device trust tracks verification history.
type DeviceReader interface {
	Get(ctx context.Context, userID id.UserID, fingerprint string) (*device.Record, error)
	RecordOperation(ctx context.Context, userID id.UserID, fingerprint string, success bool) (*device.Record, error)
}

// TrustReader serves the current trust snapshot for the tier adjustment.
type TrustReader interface {
	GetScore(ctx context.Context, userID id.UserID) (*trustscore.Snapshot, error)
}

// Service is the adaptive authentication engine.
type Service struct {
	store     Store
	devices   DeviceReader
	trust     TrustReader
	ledger    ports.LedgerReader
	sessions  ports.SessionReader
	watchlist ports.WatchlistReader
	geo       GeoResolver
	audit     ports.AuditPublisher
	logger    *slog.Logger
	metrics   *Metrics
	tracer    trace.Tracer
	cfg       *config.RiskAuthConfig
	highRisk  map[string]bool
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

func WithConfig(cfg *config.RiskAuthConfig) Option {
	return func(s *Service) { s.cfg = cfg }
}

// WithGeoResolver enables the country, proxy, and travel checks. Without
// it the location evaluator covers only the IP blacklist.
func WithGeoResolver(geo GeoResolver) Option {
	return func(s *Service) { s.geo = geo }
}

// New constructs the engine. All readers are required; geo is optional.
func New(store Store, devices DeviceReader, trust TrustReader, ledger ports.LedgerReader, sessions ports.SessionReader, watchlist ports.WatchlistReader, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("assessment store is required")
	}
	if devices == nil || trust == nil || ledger == nil || sessions == nil || watchlist == nil {
		return nil, errors.New("device, trust, ledger, session, and watchlist readers are required")
	}
	defaultCfg := config.Default().RiskAuth
	svc := &Service{
		store:     store,
		devices:   devices,
		trust:     trust,
		ledger:    ledger,
		sessions:  sessions,
		watchlist: watchlist,
		tracer:    otel.Tracer("riskauth"),
		cfg:       &defaultCfg,
	}
	for _, opt := range opts {
		opt(svc)
	}
	svc.highRisk = make(map[string]bool, len(svc.cfg.HighRiskCountries))
	for _, country := range svc.cfg.HighRiskCountries {
		svc.highRisk[country] = true
	}
	return svc, nil
}

// AssessRisk scores one operation and returns the persisted assessment.
// Evaluators run concurrently; a failing evaluator contributes nothing
// rather than failing the assessment. The record is written before the
// caller sees the verdict, so an unpersisted decision is never acted on.
func (s *Service) AssessRisk(ctx context.Context, op OperationContext) (*Assessment, error) {
	if op.UserID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "user id is required")
	}
	if op.SessionID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "session id is required")
	}
	if op.Operation == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "operation is required")
	}

	ctx, span := s.tracer.Start(ctx, "riskauth.AssessRisk",
		trace.WithAttributes(attribute.String("operation", op.Operation)))
	defer span.End()

	factors := s.runEvaluators(ctx, op)

	raw := 0
	for _, factor := range factors {
		raw += factor.Weight
	}
	score := clampScore(raw)
	if IsSensitive(op.Operation) && score < sensitiveFloor {
		score = sensitiveFloor
	}

	action := ActionFor(score)
	assessment := &Assessment{
		ID:                id.NewAssessmentID(),
		UserID:            op.UserID,
		SessionID:         op.SessionID,
		Operation:         op.Operation,
		RiskScore:         score,
		RiskLevel:         LevelFor(score),
		RequiredAction:    action,
		RiskFactors:       factors,
		CooldownMinutes:   CooldownFor(score),
		DeviceFingerprint: op.DeviceFingerprint,
		AssessedAt:        requestcontext.Now(ctx),
	}

	if err := s.store.Create(ctx, assessment); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "persist risk assessment")
	}

	span.SetAttributes(
		attribute.Int("risk_score", score),
		attribute.String("required_action", string(action)),
	)
	s.metrics.IncAssessment(action)
	s.metrics.ObserveScore(score)

	severity := audit.SeverityInfo
	event := audit.EventRiskAssessed
	switch {
	case action == ActionBlock:
		severity = audit.SeverityCritical
		event = audit.EventOperationBlocked
	case action.RequiresChallenge():
		event = audit.EventChallengeRequested
	}
	ports.LogAudit(ctx, s.logger, s.audit, event,
		"assessment/"+assessment.ID.String(),
		"risk assessed for "+op.Operation,
		severity,
		"user_id", op.UserID.String(),
		"operation", op.Operation,
		"risk_score", score,
		"required_action", string(action),
	)

	return assessment, nil
}

// runEvaluators fans the evaluator set out concurrently and recombines
// results by fixed index.
func (s *Service) runEvaluators(ctx context.Context, op OperationContext) []Factor {
	evaluators := s.evaluators()
	results := make([][]Factor, len(evaluators))

	g, gctx := errgroup.WithContext(ctx)
	for i, ev := range evaluators {
		g.Go(func() error {
			evalCtx := gctx
			if s.cfg.DependencyTimeout > 0 {
				var cancel context.CancelFunc
				evalCtx, cancel = context.WithTimeout(gctx, s.cfg.DependencyTimeout)
				defer cancel()
			}
			factors, err := ev.run(evalCtx, op)
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					err = errEvaluatorTimeout
				}
				s.logWarn(ctx, "risk evaluator failed", "evaluator", ev.name, "error", err)
				s.metrics.IncEvaluatorFailure(ev.name)
				return nil
			}
			results[i] = factors
			return nil
		})
	}
	_ = g.Wait()

	var factors []Factor
	for _, result := range results {
		factors = append(factors, result...)
	}
	return factors
}

// VerifyChallenge records completion of the challenge the latest session
// assessment demanded. Response content is validated by the issuing
// channel upstream; the engine checks presence and type, never re-derives
// risk.
func (s *Service) VerifyChallenge(ctx context.Context, userID id.UserID, sessionID id.SessionID, challengeType, response string) (*Assessment, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "user id is required")
	}
	if sessionID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "session id is required")
	}
	if response == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "challenge response is required")
	}

	assessment, err := s.store.LatestForSession(ctx, userID, sessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no assessment for session")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load session assessment")
	}

	if !assessment.RequiredAction.RequiresChallenge() {
		return nil, dErrors.Newf(dErrors.CodeConflict,
			"assessment requires %s, not a challenge", assessment.RequiredAction)
	}
	if challengeType != string(assessment.RequiredAction) {
		s.metrics.IncChallenge("type_mismatch")
		s.recordDeviceOutcome(ctx, assessment, false)
		return nil, dErrors.Newf(dErrors.CodeValidation,
			"challenge type %s does not satisfy required %s", challengeType, assessment.RequiredAction)
	}

	updated, err := s.store.MarkChallengeCompleted(ctx, assessment.ID)
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrConflict):
			s.metrics.IncChallenge("duplicate")
			return nil, dErrors.New(dErrors.CodeConflict, "challenge already completed")
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "assessment not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "mark challenge completed")
	}

	s.metrics.IncChallenge("completed")
	s.recordDeviceOutcome(ctx, updated, true)
	ports.LogAudit(ctx, s.logger, s.audit, audit.EventChallengeVerified,
		"assessment/"+updated.ID.String(),
		"challenge completed for "+updated.Operation,
		audit.SeverityInfo,
		"user_id", userID.String(),
		"challenge_type", challengeType,
	)
	return updated, nil
}

// recordDeviceOutcome feeds the challenge outcome into the device success
// and failure counters. Recording never blocks verification.
func (s *Service) recordDeviceOutcome(ctx context.Context, assessment *Assessment, success bool) {
	if assessment.DeviceFingerprint == "" {
		return
	}
	if _, err := s.devices.RecordOperation(ctx, assessment.UserID, assessment.DeviceFingerprint, success); err != nil {
		s.logWarn(ctx, "record device challenge outcome",
			"user_id", assessment.UserID,
			"error", err,
		)
	}
}

// History returns the newest assessments for a user.
func (s *Service) History(ctx context.Context, userID id.UserID, limit int) ([]*Assessment, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "user id is required")
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	assessments, err := s.store.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list assessments")
	}
	return assessments, nil
}

func (s *Service) logWarn(ctx context.Context, msg string, args ...any) {
	if s.logger != nil {
		s.logger.WarnContext(ctx, msg, args...)
	}
}
