// Package cache wraps a Redis client with the typed get/set/exists/
// refresh-TTL/invalidation-flag operations the shortener core relies on.
// Grounded on the teacher's utils/cache/redis.go, generalized to
// distinguish a bona fide cache miss from an infrastructure fault, per
// spec 4.A, rather than collapsing both into a bool/ok return.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/go-systems-lab/shortlink/internal/apperr"
	"github.com/go-systems-lab/shortlink/internal/obs"
)

// ErrMiss is returned by Get when the key does not exist. It is a sentinel,
// not an *apperr.AppError, so callers can cheaply distinguish "no value"
// from "cache is broken" with a plain errors.Is-style check.
var ErrMiss = miss{}

type miss struct{}

func (miss) Error() string { return "cache: miss" }

// Cache is a thin typed wrapper over a pooled Redis client.
type Cache struct {
	client *redis.Client
}

// Config mirrors the REDIS_* environment variables from spec §6.
type Config struct {
	Host         string
	Port         string
	Password     string
	DB           int
	ConnTimeout  time.Duration
	MaxRetries   int
	PoolSize     int
	MinIdleConns int
}

// New dials Redis with the production pool settings the teacher's
// NewRedis uses (MaxRetries, backoff bounds, PoolSize, MinIdleConns).
func New(cfg Config) *Cache {
	client := redis.NewClient(&redis.Options{
		Addr:            cfg.Host + ":" + cfg.Port,
		Password:        cfg.Password,
		DB:              cfg.DB,
		MaxRetries:      cfg.MaxRetries,
		MinRetryBackoff: 8 * time.Millisecond,
		MaxRetryBackoff: 512 * time.Millisecond,
		PoolSize:        cfg.PoolSize,
		MinIdleConns:    cfg.MinIdleConns,
		PoolTimeout:     30 * time.Second,
		DialTimeout:     cfg.ConnTimeout,
	})
	return &Cache{client: client}
}

// Get unmarshals the JSON value stored at key into out. Returns ErrMiss if
// key does not exist, or a wrapped CACHE_ERROR on any other failure.
func (c *Cache) Get(ctx context.Context, key string, out any) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		obs.RecordCacheOperation("get", nil)
		return ErrMiss
	}
	if err != nil {
		obs.RecordCacheOperation("get", err)
		return apperr.Wrap(apperr.CacheError, err).WithContext("key", key).WithContext("operation", "get")
	}
	if err := json.Unmarshal(data, out); err != nil {
		obs.RecordCacheOperation("get", err)
		return apperr.Wrap(apperr.CacheError, err).WithContext("key", key).WithContext("operation", "unmarshal")
	}
	obs.RecordCacheOperation("get", nil)
	return nil
}

// Set JSON-marshals value and stores it at key with the given TTL.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		obs.RecordCacheOperation("set", err)
		return apperr.Wrap(apperr.CacheError, err).WithContext("key", key).WithContext("operation", "marshal")
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		obs.RecordCacheOperation("set", err)
		return apperr.Wrap(apperr.CacheError, err).WithContext("key", key).WithContext("operation", "set")
	}
	obs.RecordCacheOperation("set", nil)
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		obs.RecordCacheOperation("delete", err)
		return apperr.Wrap(apperr.CacheError, err).WithContext("key", key).WithContext("operation", "delete")
	}
	obs.RecordCacheOperation("delete", nil)
	return nil
}

// Exists reports whether key is present.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, apperr.Wrap(apperr.CacheError, err).WithContext("key", key).WithContext("operation", "exists")
	}
	return n > 0, nil
}

// RefreshTTL resets the remaining TTL of key to ttl.
func (c *Cache) RefreshTTL(ctx context.Context, key string, ttl time.Duration) error {
	if err := c.client.Expire(ctx, key, ttl).Err(); err != nil {
		return apperr.Wrap(apperr.CacheError, err).WithContext("key", key).WithContext("operation", "refresh_ttl")
	}
	return nil
}

// SetInvalidationFlag stores the literal string "1" at key with ttl. Its
// mere presence, not its value, is the signal consumers check for.
func (c *Cache) SetInvalidationFlag(ctx context.Context, key string, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, "1", ttl).Err(); err != nil {
		return apperr.Wrap(apperr.CacheError, err).WithContext("key", key).WithContext("operation", "set_invalidation_flag")
	}
	return nil
}

// HealthCheck verifies connectivity, used at startup and by health routes.
func (c *Cache) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the underlying connection pool.
func (c *Cache) Close() error {
	return c.client.Close()
}
