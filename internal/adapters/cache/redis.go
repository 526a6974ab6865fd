package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/newsnest/nest-agent/internal/observability"
)

const redisKeyPrefix = "nest:viz:"

// RedisCache backs the visualization cache with Redis so repeated questions
// hit across process restarts and replicas. Failures degrade to cache misses;
// the cache is advisory and must never block a turn.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// NewRedisCacheFromURL builds a cache from a redis:// connection string.
func NewRedisCacheFromURL(rawURL string) (*RedisCache, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	return NewRedisCache(redis.NewClient(opts)), nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("redis cache get failed", "error", err)
		return nil, false
	}
	return val, true
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if err := c.client.Set(ctx, redisKeyPrefix+key, value, ttl).Err(); err != nil {
		observability.LoggerFromContext(ctx).Warn("redis cache set failed", "error", err)
	}
}
