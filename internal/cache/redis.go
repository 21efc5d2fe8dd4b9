package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Cache keys for the listings the admin screens render repeatedly.
const (
	KeyCoachList  = "listings:coaches"
	KeyPlayerList = "listings:players"
)

const defaultTTL = 5 * time.Minute

// Cache is a small JSON-over-redis listing cache. A nil *Cache is valid and
// disables caching, so redis-less deployments and tests need no stub.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects a listing cache. Returns nil (caching disabled) when addr is
// empty.
func New(addr string, ttl time.Duration) *Cache {
	if addr == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return &Cache{
		client: client,
		ttl:    ttl,
	}
}

// Get unmarshals the cached value for key into dest. The second return is
// false on a miss (or with caching disabled).
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if c == nil {
		return false, nil
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Set stores value under key with the configured TTL.
func (c *Cache) Set(ctx context.Context, key string, value interface{}) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// Invalidate drops the given keys. Mutating workflows call this so listings
// never serve stale rows. Failures are logged, not propagated: a stale cache
// entry expires on its own and must not fail the mutation.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		zap.S().Warnw("cache invalidation failed", "keys", keys, "error", err)
	}
}
