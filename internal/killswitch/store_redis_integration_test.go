//go:build integration

package killswitch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gabrielgmza/simply-backend-sub000/pkg/platform/sentinel"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/testutil/containers"
)

func TestRedisStore_RoundTrip(t *testing.T) {
	redis := containers.NewRedisContainer(t)
	store := NewRedisStore(redis.Client)
	ctx := context.Background()

	_, err := store.Get(ctx)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	state := NewState()
	state.activate(ScopeProduct, "crypto", "volatility halt", "employee:ops-1",
		time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC), time.Time{})
	state.Version = 1
	require.NoError(t, store.CompareAndSwap(ctx, 0, state))

	loaded, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), loaded.Version)
	assert.True(t, loaded.Products["crypto"])
	require.Len(t, loaded.ActiveSwitches, 1)
	assert.Equal(t, "volatility halt", loaded.ActiveSwitches[0].Reason)
}

func TestRedisStore_CompareAndSwapDetectsConflicts(t *testing.T) {
	redis := containers.NewRedisContainer(t)
	store := NewRedisStore(redis.Client)
	ctx := context.Background()

	first := NewState()
	first.Version = 1
	require.NoError(t, store.CompareAndSwap(ctx, 0, first))

	// A writer holding the old version must lose.
	stale := NewState()
	stale.Version = 1
	err := store.CompareAndSwap(ctx, 0, stale)
	assert.ErrorIs(t, err, sentinel.ErrConflict)

	second := first.Clone()
	second.Version = 2
	second.GlobalKill = true
	require.NoError(t, store.CompareAndSwap(ctx, 1, second))

	loaded, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), loaded.Version)
}
