// Package cache holds the Redis-backed recipe, rating and favorites caches
// plus the distributed rate limiter.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// PoolOptions tunes the Redis connection pool. Zero fields keep the
// go-redis defaults.
type PoolOptions struct {
	Size         int
	MinIdleConns int
	Timeout      time.Duration
}

// Cache wraps a Redis client.
type Cache struct {
	client *redis.Client
}

// New connects to redisURL and verifies the connection.
func New(ctx context.Context, redisURL string, pool PoolOptions) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if pool.Size > 0 {
		opt.PoolSize = pool.Size
	}
	if pool.MinIdleConns > 0 {
		opt.MinIdleConns = pool.MinIdleConns
	}
	if pool.Timeout > 0 {
		opt.PoolTimeout = pool.Timeout
	}
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Cache{client: client}, nil
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}

// Client exposes the raw client for the recipe-event stream publisher and
// worker.
func (c *Cache) Client() *redis.Client {
	return c.client
}
