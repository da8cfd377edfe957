// Package circuit provides a small record-based circuit breaker.
//
// Unlike call-wrapping breakers, this one is driven by explicit
// RecordFailure/RecordSuccess calls, which suits async pipelines (the audit
// publisher) where the decision to use a fallback sink happens after the
// attempt, not around it.
package circuit

import "sync"

// State of the breaker.
type State int

const (
	StateClosed State = iota
	StateOpen
)

// StateChange reports transitions so callers can log/alert exactly once.
type StateChange struct {
	Opened bool
	Closed bool
}

// Breaker tracks consecutive failures and successes.
// A run of failureThreshold failures opens the circuit; a run of
// successThreshold successes closes it again. Opposite outcomes reset the
// opposing counter.
type Breaker struct {
	mu sync.Mutex

	name             string
	failureThreshold int
	successThreshold int

	state     State
	failures  int
	successes int
}

// Option configures a Breaker.
type Option func(*Breaker)

// WithFailureThreshold sets how many consecutive failures open the circuit.
func WithFailureThreshold(n int) Option {
	return func(b *Breaker) { b.failureThreshold = n }
}

// WithSuccessThreshold sets how many consecutive successes close it.
func WithSuccessThreshold(n int) Option {
	return func(b *Breaker) { b.successThreshold = n }
}

// New creates a closed breaker. Defaults: 5 failures to open, 1 success to close.
func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:             name,
		failureThreshold: 5,
		successThreshold: 1,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns the breaker's name for logging and metrics labels.
func (b *Breaker) Name() string { return b.name }

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// IsOpen reports whether callers should use the fallback path.
func (b *Breaker) IsOpen() bool {
	return b.State() == StateOpen
}

// RecordFailure registers a failed attempt. The first return value reports
// whether the fallback should be used for the next attempt; change reports
// whether this call opened the circuit.
func (b *Breaker) RecordFailure() (useFallback bool, change StateChange) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.successes = 0
	if b.state == StateOpen {
		return true, StateChange{}
	}

	b.failures++
	if b.failures >= b.failureThreshold {
		b.state = StateOpen
		b.failures = 0
		return true, StateChange{Opened: true}
	}
	return false, StateChange{}
}

// RecordSuccess registers a successful attempt. The first return value
// reports whether the primary path may be used again; change reports whether
// this call closed the circuit.
func (b *Breaker) RecordSuccess() (usePrimary bool, change StateChange) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	if b.state == StateClosed {
		return true, StateChange{}
	}

	b.successes++
	if b.successes >= b.successThreshold {
		b.state = StateClosed
		b.successes = 0
		return true, StateChange{Closed: true}
	}
	return false, StateChange{}
}

// Reset forces the breaker closed and clears counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failures = 0
	b.successes = 0
}
