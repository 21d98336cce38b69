package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/neexbeast/kira-trips/internal/geo"
)

const defaultTTL = time.Hour

// Cache wraps a Redis client and stores resolved place coordinates.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a Cache with a 1-hour TTL.
func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client, ttl: defaultTTL}
}

// NewCacheWithTTL constructs a Cache with a custom TTL.
func NewCacheWithTTL(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// key returns the Redis key for the given place name.
func key(name string) string {
	return "place:" + strings.ToLower(strings.TrimSpace(name))
}

// Get retrieves a cached coordinate.
// Returns nil, nil on a cache miss (not an error).
func (c *Cache) Get(ctx context.Context, name string) (*geo.Coordinate, error) {
	val, err := c.client.Get(ctx, key(name)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get for place %s: %w", name, err)
	}

	var coord geo.Coordinate
	if err := json.Unmarshal([]byte(val), &coord); err != nil {
		return nil, fmt.Errorf("unmarshaling cached coordinate for place %s: %w", name, err)
	}

	return &coord, nil
}

// Set stores a coordinate with the configured TTL.
func (c *Cache) Set(ctx context.Context, name string, coord *geo.Coordinate) error {
	if coord == nil {
		return nil
	}

	b, err := json.Marshal(coord)
	if err != nil {
		return fmt.Errorf("marshaling coordinate for place %s: %w", name, err)
	}

	if err := c.client.Set(ctx, key(name), b, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set for place %s: %w", name, err)
	}

	return nil
}

// Delete removes the cached entry for the given place.
func (c *Cache) Delete(ctx context.Context, name string) error {
	if err := c.client.Del(ctx, key(name)).Err(); err != nil {
		return fmt.Errorf("cache delete for place %s: %w", name, err)
	}
	return nil
}
