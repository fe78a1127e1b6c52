package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// ErrMiss indicates the key was not found in the cache.
var ErrMiss = errors.New("cache: miss")

// Cache is a thin JSON codec over Redis.
type Cache struct {
	R *redis.Client
}

// GetJSON loads and decodes a cached value into dest.
func (c Cache) GetJSON(ctx context.Context, key string, dest any) error {
	if c.R == nil {
		return ErrMiss
	}
	raw, err := c.R.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

// SetJSON encodes and stores a value with the given TTL.
func (c Cache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c.R == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.R.Set(ctx, key, raw, ttl).Err()
}

// Invalidate removes one or more keys, ignoring missing entries.
func (c Cache) Invalidate(ctx context.Context, keys ...string) error {
	if c.R == nil || len(keys) == 0 {
		return nil
	}
	return c.R.Del(ctx, keys...).Err()
}
