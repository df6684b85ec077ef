// Package rediscache wraps a redis client used only for atomic
// set-if-absent-with-TTL and plain get/set, the same narrow surface a
// SetNX-based distributed lock would need.
package rediscache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when the key is absent.
var ErrMiss = errors.New("rediscache: miss")

// Client is the cache capability the idempotency coordinator depends on.
// Kept as an interface so tests can substitute an in-memory fake without
// a real Redis instance.
type Client interface {
	// SetNX stores value under key only if key is currently absent. It
	// reports whether the set happened.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	// Get returns the current value, or ErrMiss if key is absent.
	Get(ctx context.Context, key string) (string, error)
	// Set unconditionally stores value under key with ttl.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Close() error
}

type redisClient struct {
	rdb *redis.Client
}

// New builds a Client from a redis connection URL (redis://host:port/db).
func New(url string) (Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &redisClient{rdb: redis.NewClient(opts)}, nil
}

func (c *redisClient) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	ok, err := c.rdb.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("setnx: %w", err)
	}
	return ok, nil
}

func (c *redisClient) Get(ctx context.Context, key string) (string, error) {
	v, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrMiss
		}
		return "", fmt.Errorf("get: %w", err)
	}
	return v, nil
}

func (c *redisClient) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	err := c.rdb.Set(ctx, key, value, ttl).Err()
	if err != nil {
		return fmt.Errorf("set: %w", err)
	}
	return nil
}

func (c *redisClient) Close() error { return c.rdb.Close() }
