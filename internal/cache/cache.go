// Package cache is an optional Redis-backed cache for provider payloads.
// A nil *Cache is valid and disables caching; cache errors never fail a
// lookup path.
package cache

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/sportsettle/sportsettle/internal/metrics"
)

// DefaultTTL bounds payload staleness between identical provider calls.
const DefaultTTL = 60 * time.Second

// Cache wraps a Redis client. Construct with New or NewWithClient; the zero
// value is not usable but nil is.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New connects to addr. Returns nil (caching disabled) when addr is empty.
func New(addr string, ttl time.Duration) *Cache {
	if addr == "" {
		return nil
	}
	return NewWithClient(redis.NewClient(&redis.Options{Addr: addr}), ttl)
}

// NewWithClient wraps an existing client; used by tests with redismock.
func NewWithClient(rdb *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{rdb: rdb, ttl: ttl}
}

// Get returns the cached payload for key, if any.
func (c *Cache) Get(ctx context.Context, key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			log.Debug().Err(err).Str("key", key).Msg("cache get failed")
		}
		metrics.CacheHits.WithLabelValues("miss").Inc()
		return nil, false
	}
	var payload any
	if err := sonic.Unmarshal([]byte(raw), &payload); err != nil {
		metrics.CacheHits.WithLabelValues("miss").Inc()
		return nil, false
	}
	metrics.CacheHits.WithLabelValues("hit").Inc()
	return payload, true
}

// Set stores payload under key with the cache TTL. Failures are logged and
// dropped.
func (c *Cache) Set(ctx context.Context, key string, payload any) {
	if c == nil {
		return
	}
	raw, err := sonic.Marshal(payload)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("cache set failed")
	}
}
