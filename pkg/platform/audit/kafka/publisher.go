// Package kafka publishes audit events to the central audit topic.
//
// The publisher is fire-and-forget from the caller's perspective: produce
// errors open a circuit breaker and events fall back to the structured log
// until the broker recovers. Audit emission must never block or fail a
// risk evaluation.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/gabrielgmza/simply-backend-sub000/pkg/platform/audit"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/platform/circuit"
)

// Publisher emits audit events to Kafka, keyed by actor so one actor's
// events stay ordered within a partition.
type Publisher struct {
	client  *kgo.Client
	topic   string
	breaker *circuit.Breaker
	logger  *slog.Logger
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets the fallback logger used when the breaker is open.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

// New creates a Kafka audit publisher.
func New(brokers []string, topic string, opts ...Option) (*Publisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchMaxBytes(1<<20),
		kgo.ProduceRequestTimeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	p := &Publisher{
		client:  client,
		topic:   topic,
		breaker: circuit.New("audit-kafka", circuit.WithFailureThreshold(5), circuit.WithSuccessThreshold(2)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Emit serializes the event and produces it asynchronously. When the breaker
// is open the event goes to the structured log instead so it is never lost
// silently.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}

	if p.breaker.IsOpen() {
		p.logFallback(ctx, event)
		// Probe the broker so the breaker can close again.
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.Actor),
		Value: payload,
	}

	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			_, change := p.breaker.RecordFailure()
			if change.Opened && p.logger != nil {
				p.logger.Warn("audit kafka breaker opened, falling back to log",
					"topic", p.topic, "error", err)
			}
			p.logFallback(context.Background(), event)
			return
		}
		_, change := p.breaker.RecordSuccess()
		if change.Closed && p.logger != nil {
			p.logger.Info("audit kafka breaker closed", "topic", p.topic)
		}
	})
	return nil
}

func (p *Publisher) logFallback(ctx context.Context, event audit.Event) {
	if p.logger == nil {
		return
	}
	p.logger.InfoContext(ctx, "audit event (kafka fallback)",
		"log_type", "audit",
		"category", string(event.Category),
		"actor", event.Actor,
		"action", event.Action,
		"resource", event.Resource,
		"severity", string(event.Severity),
	)
}

// Close flushes pending records and releases the client.
func (p *Publisher) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.client.Flush(ctx); err != nil {
		return err
	}
	p.client.Close()
	return nil
}
