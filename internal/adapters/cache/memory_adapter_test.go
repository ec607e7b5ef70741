package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	current time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.current
}

func (c *fakeClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}

func TestMemoryAdapter_SetAndGet(t *testing.T) {
	clock := &fakeClock{current: time.Unix(1700000000, 0)}
	adapter := NewMemoryAdapterWithClock(clock.Now)
	ctx := context.Background()

	err := adapter.Set(ctx, "k1", []byte("v1"), 60)
	require.NoError(t, err)

	value, err := adapter.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), value)

	exists, err := adapter.Exists(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMemoryAdapter_ExpiresAtTTL(t *testing.T) {
	clock := &fakeClock{current: time.Unix(1700000000, 0)}
	adapter := NewMemoryAdapterWithClock(clock.Now)
	ctx := context.Background()

	require.NoError(t, adapter.Set(ctx, "k1", []byte("v1"), 3600))

	clock.Advance(59 * time.Minute)
	_, err := adapter.Get(ctx, "k1")
	assert.NoError(t, err)

	clock.Advance(2 * time.Minute)
	_, err = adapter.Get(ctx, "k1")
	assert.Error(t, err)

	exists, err := adapter.Exists(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryAdapter_Delete(t *testing.T) {
	adapter := NewMemoryAdapter()
	ctx := context.Background()

	require.NoError(t, adapter.Set(ctx, "k1", []byte("v1"), 60))
	require.NoError(t, adapter.Delete(ctx, "k1"))

	_, err := adapter.Get(ctx, "k1")
	assert.Error(t, err)
}

func TestMemoryAdapter_SweepEvictsExpired(t *testing.T) {
	clock := &fakeClock{current: time.Unix(1700000000, 0)}
	adapter := NewMemoryAdapterWithClock(clock.Now)
	ctx := context.Background()

	require.NoError(t, adapter.Set(ctx, "short", []byte("v"), 1))
	require.NoError(t, adapter.Set(ctx, "long", []byte("v"), 86400))

	// Past the sweep interval, the next write removes dead entries.
	clock.Advance(10 * time.Minute)
	require.NoError(t, adapter.Set(ctx, "another", []byte("v"), 60))

	assert.Equal(t, 2, adapter.Len())
}
