package alerting

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gabrielgmza/simply-backend-sub000/internal/ports"
	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/platform/audit"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/requestcontext"
)

// RunEscalationSweep escalates unread alerts whose timer elapsed. Each
// escalation creates a new linked alert with a widened target rather than
// mutating the original's recipient; the original only records the bumped
// level. The sweep is idempotent: a pass that finds nothing due is a no-op,
// and concurrent passes at worst race on the same alert, which the level
// cap bounds.
func (s *Service) RunEscalationSweep(ctx context.Context) (escalated int, err error) {
	now := requestcontext.Now(ctx)
	due, err := s.store.ListEscalationDue(ctx, now, s.cfg.EscalationInterval)
	if err != nil {
		return 0, fmt.Errorf("list escalation due: %w", err)
	}

	for _, alert := range due {
		if err := s.escalateOne(ctx, alert, now); err != nil {
			s.logWarn(ctx, "alert escalation failed", "alert_id", alert.ID, "error", err)
			continue
		}
		escalated++
	}
	return escalated, nil
}

func (s *Service) escalateOne(ctx context.Context, alert *Alert, now time.Time) error {
	if err := alert.Escalate(now); err != nil {
		return err
	}
	if err := s.store.Update(ctx, alert); err != nil {
		return err
	}

	origID := alert.ID
	linked := &Alert{
		ID:       id.NewAlertID(),
		Category: alert.Category,
		Priority: alert.Priority,
		Title:    "[ESCALATED] " + alert.Title,
		Message:  alert.Message,
		Target:   EscalationTarget(alert.EscalationLevel),
		Source:   alert.Source,
		SourceID: alert.SourceID,
		Channels: DefaultChannels(alert.Priority),
		Status:   StatusPending,
		// The chain shares one level; the linked alert starts where the
		// original now is so a chain never exceeds the cap.
		EscalationLevel: alert.EscalationLevel,
		EscalatedFrom:   &origID,
		CreatedAt:       now,
	}
	if err := s.store.Create(ctx, linked); err != nil {
		return err
	}

	s.fanOut(ctx, *linked)
	linked.Status = StatusSent
	linked.SentAt = &now
	if err := s.store.Update(ctx, linked); err != nil {
		return err
	}

	s.metrics.IncEscalated(strconv.Itoa(alert.EscalationLevel))
	ports.LogAudit(ctx, s.logger, s.audit, audit.EventAlertEscalated,
		"alert:"+alert.ID.String(),
		fmt.Sprintf("escalated to level %d", alert.EscalationLevel),
		audit.SeverityWarning,
		"linked_alert_id", linked.ID,
		"level", alert.EscalationLevel,
		"target", linked.Target.Key(),
	)
	return nil
}

// StartEscalationLoop runs the sweep on an interval until ctx is cancelled.
func (s *Service) StartEscalationLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweepCtx := requestcontext.WithActor(
				requestcontext.WithTime(ctx, time.Now()), "system:escalation-sweep")
			if n, err := s.RunEscalationSweep(sweepCtx); err != nil {
				s.logWarn(ctx, "escalation sweep failed", "error", err)
			} else if n > 0 {
				s.logInfo(ctx, "escalation sweep completed", "escalated", n)
			}
		}
	}
}
