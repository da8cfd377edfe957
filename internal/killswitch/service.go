package killswitch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/avast/retry-go/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/gabrielgmza/simply-backend-sub000/internal/alerting"
	"github.com/gabrielgmza/simply-backend-sub000/internal/behavior"
	"github.com/gabrielgmza/simply-backend-sub000/internal/platform/config"
	"github.com/gabrielgmza/simply-backend-sub000/internal/ports"
	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
	dErrors "github.com/gabrielgmza/simply-backend-sub000/pkg/domain-errors"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/platform/audit"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/platform/sentinel"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/requestcontext"
)

// casAttempts bounds the optimistic-write retry loop.
const casAttempts = 3

// ProfileReader resolves a user's behavioral segment for the segment axis.
type ProfileReader interface {
	GetOrBuild(ctx context.Context, userID id.UserID) (*behavior.Profile, error)
}

// Alerter is the slice of the alerting service the kill switch needs.
type Alerter interface {
	Create(ctx context.Context, params alerting.CreateParams) (*alerting.Alert, error)
}

// Service answers the allowed/denied question and owns every write to the
// shared state document.
type Service struct {
	store    Store
	profiles ProfileReader
	traffic  ports.TrafficStatsReader
	alerter  Alerter
	audit    ports.AuditPublisher
	logger   *slog.Logger
	metrics  *Metrics
	tracer   trace.Tracer
	cfg      *config.KillSwitchConfig

	cacheMu  sync.Mutex
	cached   *State
	cachedAt time.Time
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

func WithConfig(cfg *config.KillSwitchConfig) Option {
	return func(s *Service) { s.cfg = cfg }
}

// WithProfileReader enables the user-segment axis. Without it segment
// switches only deny via the wildcard.
func WithProfileReader(profiles ProfileReader) Option {
	return func(s *Service) { s.profiles = profiles }
}

// WithTrafficStats enables the auto-trigger sweep.
func WithTrafficStats(traffic ports.TrafficStatsReader) Option {
	return func(s *Service) { s.traffic = traffic }
}

func WithAlerter(alerter Alerter) Option {
	return func(s *Service) { s.alerter = alerter }
}

// New constructs the kill switch over its state store.
func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("kill-switch store is required")
	}
	defaultCfg := config.Default().KillSwitch
	svc := &Service{
		store:  store,
		tracer: otel.Tracer("killswitch"),
		cfg:    &defaultCfg,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// CheckOperationAllowed walks the axes in fixed order and returns a policy
// denial naming the first one that matches. The segment axis goes last
// because it is the only one needing a user lookup.
func (s *Service) CheckOperationAllowed(ctx context.Context, userID id.UserID, product, region, txType string) error {
	state, err := s.current(ctx)
	if err != nil {
		return err
	}

	deny := func(reason, message string) error {
		s.metrics.IncDenial(reason)
		ports.LogAudit(ctx, s.logger, s.audit, audit.EventKillSwitchDenied,
			"user/"+userID.String(),
			message,
			audit.SeverityWarning,
			"reason", reason,
			"product", product,
		)
		return dErrors.Denied(reason, message)
	}

	if state.GlobalKill {
		return deny("global_kill", "all operations are temporarily suspended")
	}
	if state.MaintenanceMode {
		return deny("maintenance_mode", "the platform is under maintenance")
	}
	if product != "" && (state.Products[product] || state.Products[WildcardAll]) {
		return deny("product_disabled", fmt.Sprintf("operations on %s are temporarily suspended", product))
	}
	if region != "" && state.Regions[region] {
		return deny("region_disabled", fmt.Sprintf("operations in %s are temporarily suspended", region))
	}
	if txType != "" && state.TransactionTypes[txType] {
		return deny("transaction_type_disabled", fmt.Sprintf("%s transactions are temporarily suspended", txType))
	}

	if len(state.UserSegments) > 0 && !userID.IsNil() {
		if state.UserSegments[WildcardAll] {
			return deny("segment_disabled", "operations for your account are temporarily suspended")
		}
		if segment, ok := s.segmentFor(ctx, userID); ok && state.UserSegments[string(segment)] {
			return deny("segment_disabled", "operations for your account are temporarily suspended")
		}
	}
	return nil
}

// segmentFor resolves the user's segment, degrading to "no segment" when
// the profile service is unavailable.
func (s *Service) segmentFor(ctx context.Context, userID id.UserID) (behavior.Segment, bool) {
	if s.profiles == nil {
		return "", false
	}
	profile, err := s.profiles.GetOrBuild(ctx, userID)
	if err != nil {
		s.logWarn(ctx, "segment lookup failed, segment axis skipped", "user_id", userID.String(), "error", err)
		return "", false
	}
	return profile.Segment, true
}

// Activate turns one switch on. Re-activating an already active switch is
// a no-op returning the current document.
func (s *Service) Activate(ctx context.Context, scope Scope, target, reason, actor string, expiresAt time.Time) (*State, error) {
	if err := validateSwitch(scope, target, reason, actor); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "killswitch.Activate",
		trace.WithAttributes(attribute.String("scope", string(scope)), attribute.String("target", target)))
	defer span.End()

	now := requestcontext.Now(ctx)
	state, changed, err := s.mutate(ctx, func(state *State) bool {
		return state.activate(scope, target, reason, actor, now, expiresAt)
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return state, nil
	}

	s.metrics.IncActivation(scope)
	ports.LogAudit(ctx, s.logger, s.audit, audit.EventKillSwitchActivated,
		switchResource(scope, target),
		fmt.Sprintf("kill switch activated: %s", reason),
		audit.SeverityCritical,
		"actor", actor,
		"reason", reason,
	)
	return state, nil
}

// Deactivate turns one switch off across every reason it was activated
// for. Deactivating an inactive switch is a no-op.
func (s *Service) Deactivate(ctx context.Context, scope Scope, target, reason, actor string) (*State, error) {
	if err := validateSwitch(scope, target, reason, actor); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "killswitch.Deactivate",
		trace.WithAttributes(attribute.String("scope", string(scope)), attribute.String("target", target)))
	defer span.End()

	now := requestcontext.Now(ctx)
	state, changed, err := s.mutate(ctx, func(state *State) bool {
		return state.deactivate(scope, target, now)
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return state, nil
	}

	ports.LogAudit(ctx, s.logger, s.audit, audit.EventKillSwitchDeactivated,
		switchResource(scope, target),
		fmt.Sprintf("kill switch deactivated: %s", reason),
		audit.SeverityWarning,
		"actor", actor,
		"reason", reason,
	)
	return state, nil
}

// CurrentState returns the authoritative document for inspection.
func (s *Service) CurrentState(ctx context.Context) (*State, error) {
	return s.authoritative(ctx)
}

// RunAutoTriggerSweep samples trailing traffic and kills outgoing
// transfers for a bounded window when a threshold trips. Safe to re-run
// concurrently; an already active trigger is skipped.
func (s *Service) RunAutoTriggerSweep(ctx context.Context) error {
	if s.traffic == nil {
		return nil
	}
	state, err := s.authoritative(ctx)
	if err != nil {
		return err
	}
	if !state.AutoTriggersEnabled {
		return nil
	}

	stats, err := s.traffic.TrailingStats(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "sample traffic stats")
	}

	type trigger struct {
		reason string
		fired  bool
		detail string
	}
	triggers := []trigger{
		{
			reason: "fraud_rate_spike",
			fired:  stats.FraudRate >= s.cfg.FraudRateThreshold,
			detail: fmt.Sprintf("fraud rate %.1f%% over the trailing hour", stats.FraudRate*100),
		},
		{
			reason: "error_rate_spike",
			fired:  stats.ErrorRate >= s.cfg.ErrorRateThreshold,
			detail: fmt.Sprintf("error rate %.1f%% over the trailing hour", stats.ErrorRate*100),
		},
		{
			reason: "volume_spike",
			fired:  stats.WeekHourlyAvg > 0 && stats.HourVolume > s.cfg.VolumeMultiple*stats.WeekHourlyAvg,
			detail: fmt.Sprintf("hourly volume %.0f against a weekly average of %.0f", stats.HourVolume, stats.WeekHourlyAvg),
		},
	}

	now := requestcontext.Now(ctx)
	for _, tr := range triggers {
		if !tr.fired || state.find(ScopeTransactionType, "transfer_out", tr.reason) != nil {
			continue
		}
		if _, err := s.Activate(ctx, ScopeTransactionType, "transfer_out", tr.reason, "auto_trigger", now.Add(s.cfg.AutoKillDuration)); err != nil {
			return err
		}
		s.metrics.IncAutoTrigger(tr.reason)
		ports.LogAudit(ctx, s.logger, s.audit, audit.EventKillSwitchAutoTrigger,
			switchResource(ScopeTransactionType, "transfer_out"),
			fmt.Sprintf("auto trigger fired: %s", tr.detail),
			audit.SeverityCritical,
			"trigger", tr.reason,
		)
		if s.alerter != nil {
			_, err := s.alerter.Create(ctx, alerting.CreateParams{
				Category: "kill_switch",
				Priority: alerting.PriorityCritical,
				Title:    "Kill switch auto-triggered",
				Message:  tr.detail,
				Target:   alerting.Target{Type: alerting.TargetAllAdmins},
				Source:   "kill_switch",
				SourceID: tr.reason,
			})
			if err != nil {
				s.logWarn(ctx, "auto-trigger alert failed", "trigger", tr.reason, "error", err)
			}
		}
	}
	return nil
}

// RunExpirySweep deactivates past-deadline switches. A sweep finding
// nothing due is a no-op.
func (s *Service) RunExpirySweep(ctx context.Context) error {
	now := requestcontext.Now(ctx)

	var expired []Switch
	_, changed, err := s.mutate(ctx, func(state *State) bool {
		expired = state.dropExpired(now)
		return len(expired) > 0
	})
	if err != nil || !changed {
		return err
	}

	for _, sw := range expired {
		ports.LogAudit(ctx, s.logger, s.audit, audit.EventKillSwitchDeactivated,
			switchResource(sw.Scope, sw.Target),
			fmt.Sprintf("kill switch expired: %s", sw.Reason),
			audit.SeverityInfo,
			"actor", "expiry_sweep",
		)
	}
	return nil
}

// mutate runs one load-modify-CAS round, retrying on write conflicts. The
// closure reports whether it changed anything; unchanged documents are not
// written, which keeps activate and deactivate idempotent.
func (s *Service) mutate(ctx context.Context, apply func(*State) bool) (*State, bool, error) {
	var (
		result  *State
		changed bool
	)
	r := retry.New(
		retry.Context(ctx),
		retry.Attempts(casAttempts),
		retry.LastErrorOnly(true),
	)
	err := r.Do(
		func() error {
			current, err := s.load(ctx)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			next := current.Clone()
			if changed = apply(next); !changed {
				result = current
				return nil
			}
			next.Version = current.Version + 1
			if err := s.store.CompareAndSwap(ctx, current.Version, next); err != nil {
				if errors.Is(err, sentinel.ErrConflict) {
					return err
				}
				return retry.Unrecoverable(err)
			}
			result = next
			return nil
		},
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, false, dErrors.New(dErrors.CodeConflict, "kill-switch state changed concurrently")
		}
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "update kill-switch state")
	}

	if changed {
		s.invalidateCache()
	}
	return result, changed, nil
}

// load returns the stored document, or the everything-allowed default when
// nothing was ever written.
func (s *Service) load(ctx context.Context) (*State, error) {
	state, err := s.store.Get(ctx)
	if errors.Is(err, sentinel.ErrNotFound) {
		return NewState(), nil
	}
	if err != nil {
		return nil, err
	}
	return state, nil
}

// authoritative bypasses the cache and refreshes it.
func (s *Service) authoritative(ctx context.Context) (*State, error) {
	state, err := s.load(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "load kill-switch state")
	}

	s.cacheMu.Lock()
	s.cached = state
	s.cachedAt = time.Now()
	s.cacheMu.Unlock()
	return state, nil
}

// current serves reads from the in-process cache inside the TTL, falling
// back to the last snapshot when the store is unreachable.
func (s *Service) current(ctx context.Context) (*State, error) {
	s.cacheMu.Lock()
	if s.cached != nil && time.Since(s.cachedAt) < s.cfg.CacheTTL {
		state := s.cached
		s.cacheMu.Unlock()
		s.metrics.IncCacheRead("cache")
		return state, nil
	}
	s.cacheMu.Unlock()

	state, err := s.load(ctx)
	if err != nil {
		s.cacheMu.Lock()
		stale := s.cached
		s.cacheMu.Unlock()
		if stale != nil {
			s.logWarn(ctx, "kill-switch store unreachable, serving stale state", "error", err)
			s.metrics.IncCacheRead("stale")
			return stale, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "load kill-switch state")
	}

	s.cacheMu.Lock()
	s.cached = state
	s.cachedAt = time.Now()
	s.cacheMu.Unlock()
	s.metrics.IncCacheRead("store")
	return state, nil
}

func (s *Service) invalidateCache() {
	s.cacheMu.Lock()
	s.cached = nil
	s.cacheMu.Unlock()
}

func validateSwitch(scope Scope, target, reason, actor string) error {
	switch scope {
	case ScopeGlobal, ScopeMaintenance, ScopeProduct, ScopeRegion, ScopeSegment, ScopeTransactionType:
	default:
		return dErrors.Newf(dErrors.CodeInvalidInput, "unknown scope %q", scope)
	}
	if !ValidTarget(scope, target) {
		return dErrors.Newf(dErrors.CodeInvalidInput, "invalid target %q for scope %s", target, scope)
	}
	if reason == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "reason is required")
	}
	if actor == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "actor is required")
	}
	return nil
}

func switchResource(scope Scope, target string) string {
	if target == "" {
		return "killswitch/" + string(scope)
	}
	return "killswitch/" + string(scope) + "/" + target
}

func (s *Service) logWarn(ctx context.Context, msg string, attrs ...any) {
	if s.logger != nil {
		s.logger.WarnContext(ctx, msg, attrs...)
	}
}
