package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisRateLimiter(t *testing.T) {
	_, c := newTestRedis(t)
	l := NewRedisRateLimiter(c, 3, time.Minute)
	now := time.Date(2024, 1, 17, 8, 0, 10, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := l.Allow(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, 2-i, d.Remaining)
	}

	d, err := l.Allow(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 50*time.Second, d.RetryAfter)

	other, err := l.Allow(ctx, "user-2")
	require.NoError(t, err)
	assert.True(t, other.Allowed)

	now = now.Add(time.Minute)
	d, err = l.Allow(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestRedisRateLimiter_RedisDownFailsOpen(t *testing.T) {
	mr, c := newTestRedis(t)
	l := NewRedisRateLimiter(c, 1, time.Minute)
	mr.Close()

	d, err := l.Allow(context.Background(), "user-1")
	assert.Error(t, err)
	assert.True(t, d.Allowed)
}

func TestMemoryRateLimiter_SlidingWindow(t *testing.T) {
	l := NewMemoryRateLimiter(2, time.Minute)
	now := time.Date(2024, 1, 17, 8, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	d, _ := l.Allow(ctx, "k")
	assert.True(t, d.Allowed)
	now = now.Add(30 * time.Second)
	d, _ = l.Allow(ctx, "k")
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)

	d, _ = l.Allow(ctx, "k")
	assert.False(t, d.Allowed)
	assert.Equal(t, 30*time.Second, d.RetryAfter)

	now = now.Add(31 * time.Second)
	d, _ = l.Allow(ctx, "k")
	assert.True(t, d.Allowed)
}

func TestMemoryRateLimiter_EvictsIdleKeys(t *testing.T) {
	l := NewMemoryRateLimiter(5, time.Minute)
	now := time.Date(2024, 1, 17, 8, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		_, err := l.Allow(ctx, fmt.Sprintf("ip:10.0.%d.%d", i/256, i%256))
		require.NoError(t, err)
	}
	assert.Len(t, l.hits, 1000)

	now = now.Add(time.Hour)
	d, err := l.Allow(ctx, "ip:198.51.100.1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Len(t, l.hits, 1, "only the key seen in the current window is kept")
}

func TestMemoryRateLimiter_SweepKeepsActiveKeys(t *testing.T) {
	l := NewMemoryRateLimiter(1, time.Minute)
	now := time.Date(2024, 1, 17, 8, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	_, _ = l.Allow(ctx, "idle")
	now = now.Add(50 * time.Second)
	_, _ = l.Allow(ctx, "busy")
	now = now.Add(20 * time.Second)

	// sweep runs here: "idle" is past the window, "busy" is not
	_, _ = l.Allow(ctx, "other")
	assert.NotContains(t, l.hits, "idle")
	require.Contains(t, l.hits, "busy")

	d, _ := l.Allow(ctx, "busy")
	assert.False(t, d.Allowed, "the sweep must not reset a live window")
}
