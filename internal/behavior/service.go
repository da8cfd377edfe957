// Package behavior builds per-user behavioral profiles from session and
// transaction history and compares live events against them.
package behavior

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gabrielgmza/simply-backend-sub000/internal/ports"
	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
	dErrors "github.com/gabrielgmza/simply-backend-sub000/pkg/domain-errors"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/platform/audit"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/platform/sentinel"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/requestcontext"
)

// profileMaxAge is how long a stored profile satisfies GetOrBuild before a
// rebuild is forced.
const profileMaxAge = 24 * time.Hour

// Service builds, stores, and queries behavioral profiles.
type Service struct {
	store    Store
	sessions ports.SessionReader
	ledger   ports.LedgerReader
	audit    ports.AuditPublisher
	logger   *slog.Logger
	metrics  *Metrics
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

// New constructs the profile service.
func New(store Store, sessions ports.SessionReader, ledger ports.LedgerReader, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("behavior store is required")
	}
	if sessions == nil || ledger == nil {
		return nil, errors.New("session and ledger readers are required")
	}
	svc := &Service{store: store, sessions: sessions, ledger: ledger}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// GetOrBuild returns the stored profile when it is younger than a day,
// otherwise rebuilds from history.
func (s *Service) GetOrBuild(ctx context.Context, userID id.UserID) (*Profile, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "user id is required")
	}

	profile, err := s.store.Get(ctx, userID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load behavior profile")
	}
	if profile != nil && requestcontext.Now(ctx).Sub(profile.UpdatedAt) < profileMaxAge {
		return profile, nil
	}
	return s.Rebuild(ctx, userID)
}

// Rebuild recomputes the profile from the evidence windows and replaces the
// stored snapshot wholesale.
func (s *Service) Rebuild(ctx context.Context, userID id.UserID) (*Profile, error) {
	now := requestcontext.Now(ctx)

	var (
		sessions     []ports.Session
		transactions []ports.Transaction
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		list, err := s.sessions.ListSessions(groupCtx, userID, now.Add(-SessionWindow))
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		sessions = list
		return nil
	})
	group.Go(func() error {
		list, err := s.ledger.ListTransactions(groupCtx, userID, now.Add(-TransactionWindow))
		if err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		transactions = list
		return nil
	})
	if err := group.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "gather profile history")
	}

	version := 1
	if prior, err := s.store.Get(ctx, userID); err == nil {
		version = prior.Version + 1
	}

	profile := BuildProfile(userID, sessions, transactions, now, version)
	if err := s.store.Replace(ctx, profile); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "replace behavior profile")
	}

	s.metrics.IncRebuild(profile.Segment)
	ports.LogAudit(ctx, s.logger, s.audit, audit.EventProfileRebuilt,
		"user/"+userID.String(),
		fmt.Sprintf("behavior profile rebuilt: version %d, segment %s, %d data points", profile.Version, profile.Segment, profile.DataPoints),
		audit.SeverityInfo,
		"segment", string(profile.Segment),
		"version", profile.Version,
	)
	return profile, nil
}

// DetectAnomalies compares a live event to the user's profile. The checks
// are independent; all deviations found are returned.
func (s *Service) DetectAnomalies(ctx context.Context, userID id.UserID, event LiveEvent) ([]Anomaly, error) {
	profile, err := s.GetOrBuild(ctx, userID)
	if err != nil {
		return nil, err
	}

	anomalies := CompareToProfile(profile, event)
	for _, anomaly := range anomalies {
		s.metrics.IncAnomaly(anomaly.Type)
	}
	return anomalies, nil
}
