// Package trustscore computes the composite 0-1000 customer trust score.
//
// Five component scores, each clamped to [0,200], combine under fixed
// weights into the global score, which maps to a tier band and its benefits
// bundle. Snapshots are immutable and append-only; GetScore serves a fresh
// snapshot from storage and recomputes only past the freshness window.
package trustscore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gabrielgmza/simply-backend-sub000/internal/platform/config"
	"github.com/gabrielgmza/simply-backend-sub000/internal/ports"
	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
	dErrors "github.com/gabrielgmza/simply-backend-sub000/pkg/domain-errors"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/platform/audit"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/platform/sentinel"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/requestcontext"
)

// Evidence windows for the history-backed components.
const (
	sessionWindow     = 90 * 24 * time.Hour
	transactionWindow = 180 * 24 * time.Hour
	failedLoginWindow = 30 * 24 * time.Hour
)

// Service is the trust score engine.
type Service struct {
	store    Store
	identity ports.IdentityReader
	ledger   ports.LedgerReader
	sessions ports.SessionReader
	audit    ports.AuditPublisher
	logger   *slog.Logger
	metrics  *Metrics
	cfg      *config.TrustScoreConfig
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

func WithConfig(cfg *config.TrustScoreConfig) Option {
	return func(s *Service) { s.cfg = cfg }
}

// New constructs the trust score engine. The ledger and session readers may
// be nil; their components then contribute zero.
func New(store Store, identity ports.IdentityReader, ledger ports.LedgerReader, sessions ports.SessionReader, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("trust score store is required")
	}
	if identity == nil {
		return nil, errors.New("identity reader is required")
	}
	defaultCfg := config.Default().TrustScore
	svc := &Service{
		store:    store,
		identity: identity,
		ledger:   ledger,
		sessions: sessions,
		cfg:      &defaultCfg,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// GetScore returns the latest snapshot if it is still inside the freshness
// window, otherwise recomputes.
func (s *Service) GetScore(ctx context.Context, userID id.UserID) (*Snapshot, error) {
	latest, err := s.store.Latest(ctx, userID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load trust score snapshot")
	}
	if latest != nil && latest.Fresh(requestcontext.Now(ctx), s.cfg.Freshness) {
		s.metrics.IncCacheHit()
		return latest, nil
	}
	return s.Recalculate(ctx, userID)
}

// Recalculate always recomputes, appends a new snapshot, and returns it.
func (s *Service) Recalculate(ctx context.Context, userID id.UserID) (*Snapshot, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "user id is required")
	}
	now := requestcontext.Now(ctx)

	identity, err := s.identity.GetIdentity(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "identity store unreachable")
	}

	// History reads run concurrently. A failed read contributes a zero
	// component instead of failing the computation.
	var (
		sessions     []ports.Session
		failedLogins int
		transactions []ports.Transaction
	)
	group, groupCtx := errgroup.WithContext(ctx)
	if s.sessions != nil {
		group.Go(func() error {
			list, err := s.sessions.ListSessions(groupCtx, userID, now.Add(-sessionWindow))
			if err != nil {
				s.logWarn(ctx, "session history unavailable for scoring", "error", err)
				return nil
			}
			sessions = list
			return nil
		})
		group.Go(func() error {
			count, err := s.sessions.CountFailedLogins(groupCtx, userID, failedLoginWindow)
			if err != nil {
				s.logWarn(ctx, "failed login count unavailable for scoring", "error", err)
				return nil
			}
			failedLogins = count
			return nil
		})
	}
	if s.ledger != nil {
		group.Go(func() error {
			list, err := s.ledger.ListTransactions(groupCtx, userID, now.Add(-transactionWindow))
			if err != nil {
				s.logWarn(ctx, "transaction history unavailable for scoring", "error", err)
				return nil
			}
			transactions = list
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "gather scoring evidence")
	}

	components := Components{
		Identity:      clampComponent(identityComponent(identity, now)),
		Financial:     clampComponent(financialComponent(identity)),
		Behavioral:    clampComponent(behavioralComponent(sessions, failedLogins)),
		Transactional: clampComponent(transactionalComponent(transactions, now)),
		Social:        clampComponent(socialComponent(identity)),
	}
	global := Compose(components)
	tier := TierFor(global)

	var previous *int
	if prior, err := s.store.Latest(ctx, userID); err == nil {
		previous = &prior.GlobalScore
	}

	snapshot := &Snapshot{
		UserID:      userID,
		GlobalScore: global,
		Tier:        tier,
		Components:  components,
		Trend:       TrendBetween(global, previous),
		Benefits:    BenefitsFor(tier),
		ComputedAt:  now,
	}
	if err := s.store.Save(ctx, snapshot); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "save trust score snapshot")
	}

	s.metrics.IncComputed(tier)
	s.metrics.ObserveScore(global)
	ports.LogAudit(ctx, s.logger, s.audit, audit.EventTrustScoreComputed,
		"user/"+userID.String(),
		fmt.Sprintf("trust score recomputed: %d (%s, %s)", global, tier, snapshot.Trend),
		audit.SeverityInfo,
		"score", global,
		"tier", string(tier),
	)

	return snapshot, nil
}

func (s *Service) logWarn(ctx context.Context, msg string, attrs ...any) {
	if s.logger != nil {
		s.logger.WarnContext(ctx, msg, attrs...)
	}
}
