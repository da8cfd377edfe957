package circuit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBreaker_StartsClosed(t *testing.T) {
	b := New("kafka-audit")

	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "kafka-audit", b.Name())
	assert.False(t, b.IsOpen())
}

func TestBreaker_OpensOnThresholdFailure(t *testing.T) {
	b := New("kafka-audit", WithFailureThreshold(3))

	for range 2 {
		useFallback, change := b.RecordFailure()
		assert.False(t, useFallback)
		assert.False(t, change.Opened)
	}

	useFallback, change := b.RecordFailure()
	assert.True(t, useFallback)
	assert.True(t, change.Opened)
	assert.True(t, b.IsOpen())
}

func TestBreaker_ClosesAfterEnoughSuccesses(t *testing.T) {
	b := New("kafka-audit", WithFailureThreshold(1), WithSuccessThreshold(2))

	b.RecordFailure()
	assert.True(t, b.IsOpen())

	usePrimary, change := b.RecordSuccess()
	assert.False(t, usePrimary)
	assert.False(t, change.Closed)
	assert.True(t, b.IsOpen())

	usePrimary, change = b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.True(t, change.Closed)
	assert.False(t, b.IsOpen())
}

func TestBreaker_SuccessClearsFailureStreak(t *testing.T) {
	b := New("kafka-audit", WithFailureThreshold(3))

	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()

	// The streak restarted, so two more failures stay under threshold.
	b.RecordFailure()
	b.RecordFailure()
	assert.False(t, b.IsOpen())

	b.RecordFailure()
	assert.True(t, b.IsOpen())
}

func TestBreaker_FailureClearsSuccessStreak(t *testing.T) {
	b := New("kafka-audit", WithFailureThreshold(1), WithSuccessThreshold(3))

	b.RecordFailure()
	b.RecordSuccess()
	b.RecordSuccess()
	b.RecordFailure()

	// The half-open streak restarted: three fresh successes are needed.
	b.RecordSuccess()
	b.RecordSuccess()
	assert.True(t, b.IsOpen())
	b.RecordSuccess()
	assert.False(t, b.IsOpen())
}

func TestBreaker_ResetForcesClosed(t *testing.T) {
	b := New("kafka-audit", WithFailureThreshold(1))

	b.RecordFailure()
	assert.True(t, b.IsOpen())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_FailureWhileOpenIsNotATransition(t *testing.T) {
	b := New("kafka-audit", WithFailureThreshold(1))

	b.RecordFailure()

	useFallback, change := b.RecordFailure()
	assert.True(t, useFallback)
	assert.False(t, change.Opened)
}

func TestBreaker_DefaultThresholds(t *testing.T) {
	b := New("kafka-audit")

	// Five consecutive failures open, a single success closes.
	for range 4 {
		useFallback, _ := b.RecordFailure()
		assert.False(t, useFallback)
	}
	useFallback, change := b.RecordFailure()
	assert.True(t, useFallback)
	assert.True(t, change.Opened)

	usePrimary, change := b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.True(t, change.Closed)
}

func TestBreaker_ConcurrentRecording(t *testing.T) {
	b := New("concurrent", WithFailureThreshold(100))

	done := make(chan struct{})
	for range 4 {
		go func() {
			for range 20 {
				b.RecordFailure()
			}
			done <- struct{}{}
		}()
	}
	for range 4 {
		<-done
	}

	// 80 failures under a threshold of 100: still closed.
	assert.False(t, b.IsOpen())
}
