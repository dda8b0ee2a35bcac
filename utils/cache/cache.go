// Package cache is a small JSON cache and counter store on top of Redis.
// Without REDIS_ADDR every call misses and counters report ErrNoBackend so
// callers can fall back to the database.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"shams/config"
	"shams/utils/logger"
)

var ErrNoBackend = errors.New("cache: no backend configured")

// Key prefixes.
const (
	PrefixDashboard = "dashboard:"
	PrefixActivity  = "activity:"
	PrefixRateLimit = "ratelimit:"
)

type Cache interface {
	// GetJSON decodes the cached value into dest and reports whether it was found.
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// Incr increments a counter, setting ttl when the key is created.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
	// Count reads a counter without changing it.
	Count(ctx context.Context, key string) (int64, error)
}

// Connect returns a Redis-backed cache, or a no-op one when Redis is not
// configured.
func Connect(ctx context.Context, cfg *config.Config, log *logger.Logger) (Cache, error) {
	if cfg.RedisAddr == "" {
		log.Warn("REDIS_ADDR not set, caching disabled")
		return Nop{}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
	}
	log.Info("Connected to Redis", "addr", cfg.RedisAddr)
	return NewRedis(client), nil
}

type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (c *Redis) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return true, nil
}

func (c *Redis) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	return c.client.Set(ctx, key, raw, ttl).Err()
}

func (c *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *Redis) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (c *Redis) Count(ctx context.Context, key string) (int64, error) {
	n, err := c.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

func (c *Redis) Close() error {
	return c.client.Close()
}

// Nop misses on every read and discards writes.
type Nop struct{}

func (Nop) GetJSON(context.Context, string, interface{}) (bool, error)        { return false, nil }
func (Nop) SetJSON(context.Context, string, interface{}, time.Duration) error { return nil }
func (Nop) Delete(context.Context, ...string) error                           { return nil }
func (Nop) Incr(context.Context, string, time.Duration) (int64, error)        { return 0, ErrNoBackend }
func (Nop) Count(context.Context, string) (int64, error)                      { return 0, ErrNoBackend }
