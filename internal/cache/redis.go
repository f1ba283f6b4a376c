package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a TTL cache backed by a Redis instance, for deployments where
// multiple replicas should share warmed pulse snapshots. Values are stored as
// JSON and expire server-side. Unlike Memory it does not deduplicate
// concurrent computations across processes.
type Redis[V any] struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedis creates a Redis-backed cache. The prefix namespaces keys so
// multiple caches can share one instance.
func NewRedis[V any](client *redis.Client, prefix string, ttl time.Duration) *Redis[V] {
	return &Redis[V]{
		client: client,
		ttl:    ttl,
		prefix: prefix,
	}
}

// GetOrCompute returns the cached value for key, or runs compute and stores
// its result with the configured TTL. Redis errors degrade to a plain
// compute; the cache never blocks a request on an unavailable backend.
func (c *Redis[V]) GetOrCompute(ctx context.Context, key string, compute func(ctx context.Context) (V, error)) (V, error) {
	fullKey := fmt.Sprintf("%s:%s", c.prefix, key)

	data, err := c.client.Get(ctx, fullKey).Result()
	if err == nil {
		var value V
		if uerr := json.Unmarshal([]byte(data), &value); uerr == nil {
			return value, nil
		}
		// Unreadable entry; recompute and overwrite.
	} else if err != redis.Nil {
		log.Printf("cache: redis get failed for %s: %v", fullKey, err)
	}

	value, err := compute(ctx)
	if err != nil {
		return value, err
	}

	payload, err := json.Marshal(value)
	if err == nil {
		if serr := c.client.Set(ctx, fullKey, payload, c.ttl).Err(); serr != nil {
			log.Printf("cache: redis set failed for %s: %v", fullKey, serr)
		}
	}

	return value, nil
}
