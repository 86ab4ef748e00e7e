package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	c, err := NewRedisCache(&Options{
		Backend:    BackendRedis,
		RedisAddr:  mr.Addr(),
		DefaultTTL: time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	return c, mr
}

func TestRedisCache_SetGet(t *testing.T) {
	c, _ := newTestRedisCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "rcsp:k", []byte("value"), 0))

	got, err := c.Get(ctx, "rcsp:k")
	require.NoError(t, err)
	assert.Equal(t, "value", string(got))

	ok, err := c.Exists(ctx, "rcsp:k")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, c.Delete(ctx, "rcsp:k"))
	_, err = c.Get(ctx, "rcsp:k")
	assert.True(t, errors.Is(err, ErrKeyNotFound))
}

func TestRedisCache_TTL(t *testing.T) {
	c, mr := newTestRedisCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Second))
	assert.Equal(t, time.Second, mr.TTL("k"))

	mr.FastForward(2 * time.Second)

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestRedisCache_KeysAndStats(t *testing.T) {
	c, _ := newTestRedisCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "rcsp:b", []byte("2"), 0))
	require.NoError(t, c.Set(ctx, "rcsp:a", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "other", []byte("3"), 0))

	keys, err := c.Keys(ctx, "rcsp:")
	require.NoError(t, err)
	assert.Equal(t, []string{"rcsp:a", "rcsp:b"}, keys)

	_, _ = c.Get(ctx, "rcsp:a")
	_, _ = c.Get(ctx, "missing")

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalKeys)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, BackendRedis, stats.Backend)

	require.NoError(t, c.Clear(ctx))
	stats, err = c.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalKeys)
}
