package cache

import (
	"context"
	"errors"
	"fmt"
	"home-compass-service/internal/domain"
	"home-compass-service/internal/platform/obs"
	"time"

	"github.com/mmcloughlin/geohash"
	"github.com/redis/go-redis/v9"
)

const (
	reverseKeyPrefix = "geocode:reverse:"
	// 8 characters is a cell of roughly 38m x 19m.
	reversePrecision = 8
)

// RedisReverseCache caches reverse-geocoded labels keyed by the geohash cell of the fix,
// so nearby fixes from a stationary device share one lookup.
type RedisReverseCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisReverseCache(client *redis.Client, ttl time.Duration) *RedisReverseCache {
	return &RedisReverseCache{client: client, ttl: ttl}
}

// ReverseKey returns the Redis key for the cell containing at.
func ReverseKey(at domain.Coordinates) string {
	return reverseKeyPrefix + geohash.EncodeWithPrecision(at.Lat, at.Lon, reversePrecision)
}

func (c *RedisReverseCache) Get(ctx context.Context, at domain.Coordinates) (_ string, _ bool, err error) {
	defer obs.Time(ctx, "reverse.cache.Get")(&err)

	if c.client == nil {
		return "", false, errors.New("reverse cache: client is nil")
	}

	label, err := c.client.Get(ctx, ReverseKey(at)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get reverse cache: %w", err)
	}

	return label, true, nil
}

func (c *RedisReverseCache) Put(ctx context.Context, at domain.Coordinates, label string) error {
	if c.client == nil {
		return errors.New("reverse cache: client is nil")
	}

	if err := c.client.Set(ctx, ReverseKey(at), label, c.ttl).Err(); err != nil {
		return fmt.Errorf("put reverse cache: %w", err)
	}

	return nil
}
