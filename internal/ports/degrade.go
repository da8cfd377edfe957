package ports

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
	dErrors "github.com/gabrielgmza/simply-backend-sub000/pkg/domain-errors"
)

// Degrading wraps a keyed dependency read with a timeout, a circuit breaker,
// and a last-known-value fallback. A failed or slow read returns the cached
// value for that key; a key never read successfully fails closed with
// CodeUnavailable so first-ever evaluations deny rather than guess.
type Degrading[K comparable, V any] struct {
	name    string
	timeout time.Duration
	fetch   func(ctx context.Context, key K) (V, error)
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger

	mu   sync.RWMutex
	last map[K]V
}

// NewDegrading builds a degrading wrapper around fetch.
func NewDegrading[K comparable, V any](name string, timeout time.Duration, logger *slog.Logger, fetch func(ctx context.Context, key K) (V, error)) *Degrading[K, V] {
	settings := gobreaker.Settings{
		Name:    name,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &Degrading[K, V]{
		name:    name,
		timeout: timeout,
		fetch:   fetch,
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
		last:    make(map[K]V),
	}
}

// Get reads through the breaker, falling back to the last-known value.
func (d *Degrading[K, V]) Get(ctx context.Context, key K) (V, error) {
	result, err := d.breaker.Execute(func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(ctx, d.timeout)
		defer cancel()
		return d.fetch(fetchCtx, key)
	})
	if err == nil {
		v := result.(V)
		d.mu.Lock()
		d.last[key] = v
		d.mu.Unlock()
		return v, nil
	}

	d.mu.RLock()
	cached, ok := d.last[key]
	d.mu.RUnlock()
	if ok {
		if d.logger != nil {
			d.logger.WarnContext(ctx, "dependency read degraded to last-known value",
				"dependency", d.name, "error", err)
		}
		return cached, nil
	}

	var zero V
	return zero, dErrors.Wrap(err, dErrors.CodeUnavailable, d.name+" unavailable and no prior snapshot")
}

// DegradingIdentityReader is an IdentityReader that survives identity-store
// outages by serving the last snapshot it saw per user.
type DegradingIdentityReader struct {
	inner *Degrading[id.UserID, *IdentityRecord]
}

func NewDegradingIdentityReader(reader IdentityReader, timeout time.Duration, logger *slog.Logger) *DegradingIdentityReader {
	return &DegradingIdentityReader{
		inner: NewDegrading("identity-store", timeout, logger, reader.GetIdentity),
	}
}

func (r *DegradingIdentityReader) GetIdentity(ctx context.Context, userID id.UserID) (*IdentityRecord, error) {
	return r.inner.Get(ctx, userID)
}
