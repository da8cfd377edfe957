// Package alerting is the single entry point every risk module uses to
// notify a user, employee, role, team, or all admins.
//
// Creation deduplicates on (category, source, sourceId, targetId) within a
// short window, picks channels from priority defaults, fans out to senders
// with per-channel fault isolation, and records everything for the
// escalation sweep.
package alerting

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gabrielgmza/simply-backend-sub000/internal/platform/config"
	"github.com/gabrielgmza/simply-backend-sub000/internal/ports"
	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
	dErrors "github.com/gabrielgmza/simply-backend-sub000/pkg/domain-errors"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/platform/audit"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/platform/sentinel"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/requestcontext"
)

// Service creates, delivers, and escalates alerts.
type Service struct {
	store   Store
	sender  Sender
	audit   ports.AuditPublisher
	logger  *slog.Logger
	metrics *Metrics
	cfg     *config.AlertingConfig
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithSender(sender Sender) Option {
	return func(s *Service) { s.sender = sender }
}

func WithAuditPublisher(publisher ports.AuditPublisher) Option {
	return func(s *Service) { s.audit = publisher }
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithConfig(cfg *config.AlertingConfig) Option {
	return func(s *Service) { s.cfg = cfg }
}

// New constructs the alerting service.
func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("alert store is required")
	}
	defaultCfg := config.Default().Alerting
	svc := &Service{store: store, cfg: &defaultCfg}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// CreateParams carries everything needed to raise an alert. Channels may be
// empty to accept the priority defaults.
type CreateParams struct {
	Category string
	Priority Priority
	Title    string
	Message  string
	Target   Target
	Source   string
	SourceID string
	Channels []Channel
}

func (p *CreateParams) validate() error {
	if p.Category == "" {
		return dErrors.New(dErrors.CodeValidation, "alert category is required")
	}
	if !p.Priority.IsValid() {
		return dErrors.Newf(dErrors.CodeValidation, "invalid alert priority %q", p.Priority)
	}
	if p.Title == "" {
		return dErrors.New(dErrors.CodeValidation, "alert title is required")
	}
	if p.Target.Type == "" {
		return dErrors.New(dErrors.CodeValidation, "alert target is required")
	}
	if p.Source == "" {
		return dErrors.New(dErrors.CodeValidation, "alert source is required")
	}
	return nil
}

// Create raises an alert. A duplicate inside the dedup window returns the
// existing alert with no new delivery; callers treat that as
// already-handled, not an error.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Alert, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	channels := params.Channels
	if len(channels) == 0 {
		channels = DefaultChannels(params.Priority)
	}

	alert := &Alert{
		ID:        id.NewAlertID(),
		Category:  params.Category,
		Priority:  params.Priority,
		Title:     params.Title,
		Message:   params.Message,
		Target:    params.Target,
		Source:    params.Source,
		SourceID:  params.SourceID,
		Channels:  channels,
		Status:    StatusPending,
		CreatedAt: now,
	}

	existing, err := s.store.FindRecentDuplicate(ctx, alert.DedupKey(), now.Add(-s.cfg.DedupWindow))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check for duplicate alert")
	}
	if existing != nil {
		s.metrics.IncDeduplicated()
		s.logInfo(ctx, "alert deduplicated",
			"alert_id", existing.ID, "category", params.Category, "source", params.Source)
		return existing, nil
	}

	if err := s.store.Create(ctx, alert); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist alert")
	}

	s.fanOut(ctx, *alert)

	// Delivery status reflects persistence plus attempted fan-out, not
	// confirmed receipt.
	alert.Status = StatusSent
	alert.SentAt = &now
	if err := s.store.Update(ctx, alert); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update alert status")
	}

	s.metrics.IncCreated(params.Category, string(params.Priority))
	ports.LogAudit(ctx, s.logger, s.audit, audit.EventAlertCreated,
		"alert:"+alert.ID.String(), params.Title, severityFor(params.Priority),
		"category", params.Category,
		"priority", string(params.Priority),
		"target", params.Target.Key(),
	)

	return alert, nil
}

// Get returns a single alert.
func (s *Service) Get(ctx context.Context, alertID id.AlertID) (*Alert, error) {
	alert, err := s.store.Get(ctx, alertID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "alert not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load alert")
	}
	return alert, nil
}

// ListForTarget returns alerts for a recipient, newest first.
func (s *Service) ListForTarget(ctx context.Context, target Target, unreadOnly bool) ([]*Alert, error) {
	alerts, err := s.store.ListByTarget(ctx, target, unreadOnly)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list alerts")
	}
	return alerts, nil
}

// MarkRead records that the recipient saw the alert, stopping escalation.
func (s *Service) MarkRead(ctx context.Context, alertID id.AlertID) (*Alert, error) {
	alert, err := s.Get(ctx, alertID)
	if err != nil {
		return nil, err
	}
	if err := alert.MarkRead(requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, alert); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark alert read")
	}
	return alert, nil
}

// MarkActioned records that someone acted on the alert.
func (s *Service) MarkActioned(ctx context.Context, alertID id.AlertID, actor string) (*Alert, error) {
	if actor == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "actor is required")
	}
	alert, err := s.Get(ctx, alertID)
	if err != nil {
		return nil, err
	}
	if err := alert.MarkActioned(actor, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, alert); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark alert actioned")
	}
	return alert, nil
}

func severityFor(p Priority) audit.Severity {
	switch p {
	case PriorityCritical, PriorityEmergency:
		return audit.SeverityCritical
	case PriorityHigh:
		return audit.SeverityWarning
	default:
		return audit.SeverityInfo
	}
}
