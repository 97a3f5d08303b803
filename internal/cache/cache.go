package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = time.Hour

// Cache wraps a Redis client and stores JSON-encoded values with a TTL.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a Cache with a 1-hour TTL.
func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client, ttl: defaultTTL}
}

// NewCacheWithTTL constructs a Cache with a custom TTL. A non-positive ttl
// falls back to the default.
func NewCacheWithTTL(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{client: client, ttl: ttl}
}

// Get decodes the cached value for key into dst.
// Returns false, nil on a cache miss (not an error).
func (c *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("cache get for key %s: %w", key, err)
	}

	if err := json.Unmarshal(val, dst); err != nil {
		return false, fmt.Errorf("unmarshaling cached value for key %s: %w", key, err)
	}

	return true, nil
}

// Set stores value under key with the configured TTL. A nil value is a no-op.
func (c *Cache) Set(ctx context.Context, key string, value any) error {
	if value == nil {
		return nil
	}

	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshaling value for key %s: %w", key, err)
	}

	if err := c.client.Set(ctx, key, b, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set for key %s: %w", key, err)
	}

	return nil
}

// Delete removes the cached entry for key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("cache delete for key %s: %w", key, err)
	}
	return nil
}
