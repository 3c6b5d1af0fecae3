package cache

import (
	"context"
	"home-compass-service/internal/domain"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReverseCache(t *testing.T, ttl time.Duration) (*RedisReverseCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisReverseCache(client, ttl), mr
}

func TestRedisReverseCacheSharesCell(t *testing.T) {
	c, _ := newTestReverseCache(t, time.Hour)
	ctx := context.Background()

	fix := domain.Coordinates{Lat: 37.334900, Lon: -122.009000}
	require.NoError(t, c.Put(ctx, fix, "1 Infinite Loop, Cupertino, CA"))

	// A few meters away lands in the same cell.
	nearby := domain.Coordinates{Lat: 37.334901, Lon: -122.009001}
	label, ok, err := c.Get(ctx, nearby)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1 Infinite Loop, Cupertino, CA", label)

	_, ok, err = c.Get(ctx, domain.Coordinates{Lat: 37.422, Lon: -122.084})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisReverseCacheExpires(t *testing.T) {
	c, mr := newTestReverseCache(t, time.Minute)
	ctx := context.Background()
	fix := domain.Coordinates{Lat: 1, Lon: 1}

	require.NoError(t, c.Put(ctx, fix, "somewhere"))
	assert.Equal(t, time.Minute, mr.TTL(ReverseKey(fix)))

	mr.FastForward(2 * time.Minute)
	_, ok, err := c.Get(ctx, fix)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisReverseCacheServerDown(t *testing.T) {
	c, mr := newTestReverseCache(t, time.Minute)
	mr.Close()

	_, _, err := c.Get(context.Background(), domain.Coordinates{})
	assert.Error(t, err)
}

func TestReverseKeyUsesGeohash(t *testing.T) {
	assert.Equal(t, "geocode:reverse:9q9hrseg", ReverseKey(domain.Coordinates{Lat: 37.3349, Lon: -122.0090}))
}
