package rates

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keepsake/internal/domain"
)

func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCache(client, 30*time.Minute), mr
}

func TestRedisCache_MissThenHit(t *testing.T) {
	cache, _ := setupTestRedis(t)
	ctx := context.Background()

	_, err := cache.Get(ctx)
	assert.ErrorIs(t, err, ErrCacheMiss)

	at := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, cache.Set(ctx, &Snapshot{Rates: domain.Rates{"USD": 1, "EUR": 0.9}, FetchedAt: at}))

	snap, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.9, snap.Rates["EUR"])
	assert.True(t, at.Equal(snap.FetchedAt))
}

func TestRedisCache_TTLIsTheWindow(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, &Snapshot{Rates: domain.Rates{"USD": 1}}))

	assert.Equal(t, 30*time.Minute, mr.TTL(cacheKey))

	mr.FastForward(31 * time.Minute)
	_, err := cache.Get(ctx)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_InvalidPayload(t *testing.T) {
	cache, mr := setupTestRedis(t)
	require.NoError(t, mr.Set(cacheKey, `{"rates":`))

	_, err := cache.Get(context.Background())
	assert.ErrorContains(t, err, "unmarshal rates failed")
}

func TestMemoryCache_Expires(t *testing.T) {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	mc := NewMemoryCache(time.Minute)
	mc.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := mc.Get(ctx)
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, mc.Set(ctx, &Snapshot{Rates: domain.Rates{"USD": 1}, FetchedAt: now}))
	_, err = mc.Get(ctx)
	assert.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = mc.Get(ctx)
	assert.ErrorIs(t, err, ErrCacheMiss)
}
