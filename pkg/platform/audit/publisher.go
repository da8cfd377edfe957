package audit

import (
	"context"
	"time"
)

// StorePublisher captures structured audit events synchronously through a
// Store. It is the default publisher for tests and single-node deployments;
// production wires the Kafka publisher instead.
type StorePublisher struct {
	store Store
}

func NewStorePublisher(store Store) *StorePublisher {
	return &StorePublisher{store: store}
}

func (p *StorePublisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = AuditEvent(event.Action).Category()
	}
	return p.store.Append(ctx, event)
}
