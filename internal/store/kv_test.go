package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	c := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = c.Close() })
	return mr, c
}

func TestRedisKV(t *testing.T) {
	mr, c := newTestRedis(t)
	kv := NewRedisKV(c)
	ctx := context.Background()

	_, err := kv.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, kv.Set(ctx, "summary", `{"ok":true}`, time.Minute))
	v, err := kv.Get(ctx, "summary")
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, v)
	assert.Equal(t, time.Minute, mr.TTL("summary"))

	mr.FastForward(2 * time.Minute)
	_, err = kv.Get(ctx, "summary")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, kv.Set(ctx, "k", "v", 0))
	require.NoError(t, kv.Delete(ctx, "k"))
	_, err = kv.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryKV_Expiry(t *testing.T) {
	kv := NewMemoryKV()
	now := time.Date(2024, 1, 17, 8, 0, 0, 0, time.UTC)
	kv.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "a", "1", time.Minute))
	require.NoError(t, kv.Set(ctx, "b", "2", 0))

	now = now.Add(2 * time.Minute)
	_, err := kv.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrMiss)

	v, err := kv.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "2", v)
}
