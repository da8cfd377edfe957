package alerting

import (
	"context"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v5"
	"golang.org/x/sync/errgroup"
)

// Sender delivers an alert over one channel. Implementations live at the
// edge (push gateway, SMS provider, Telegram bot, webhook poster); the
// engine only decides that and to whom an alert goes.
type Sender interface {
	Send(ctx context.Context, channel Channel, alert Alert) error
}

// fanOut attempts delivery on every channel concurrently. One channel's
// failure never blocks or fails the others; each send is retried a few
// times with backoff before being logged and dropped. The returned count is
// how many channels were attempted successfully.
func (s *Service) fanOut(ctx context.Context, alert Alert) int {
	if s.sender == nil {
		return 0
	}

	var g errgroup.Group
	results := make(chan bool, len(alert.Channels))

	for _, ch := range alert.Channels {
		g.Go(func() error {
			r := retry.New(
				retry.Context(ctx),
				retry.Attempts(3),
				retry.Delay(100*time.Millisecond),
				retry.LastErrorOnly(true),
			)
			err := r.Do(func() error { return s.sender.Send(ctx, ch, alert) })
			if err != nil {
				s.metrics.IncSendFailure(string(ch))
				s.logWarn(ctx, "alert channel delivery failed",
					"alert_id", alert.ID, "channel", string(ch), "error", err)
				results <- false
				return nil // isolate: other channels proceed
			}
			s.metrics.IncSent(string(ch))
			results <- true
			return nil
		})
	}
	_ = g.Wait()
	close(results)

	delivered := 0
	for ok := range results {
		if ok {
			delivered++
		}
	}
	return delivered
}

// LogSender is the default Sender: it writes the delivery as a structured
// log line. Real channel integrations (push gateway, SMS, Telegram)
// replace it in deployments that have them.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (l *LogSender) Send(ctx context.Context, channel Channel, alert Alert) error {
	if l.logger != nil {
		l.logger.InfoContext(ctx, "alert dispatched",
			"alert_id", alert.ID,
			"channel", string(channel),
			"priority", string(alert.Priority),
			"category", alert.Category,
			"target", alert.Target.Key(),
			"title", alert.Title,
		)
	}
	return nil
}

func (s *Service) logWarn(ctx context.Context, msg string, attrs ...any) {
	if s.logger != nil {
		s.logger.WarnContext(ctx, msg, attrs...)
	}
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...any) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, msg, attrs...)
	}
}
