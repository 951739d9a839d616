package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces every key the ledger writes to Redis.
const KeyPrefix = "ledger:"

// Redis is a cache shared between processes.
type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
	owned  bool
}

// NewRedis connects to url and verifies the server answers.
func NewRedis(ctx context.Context, url string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	c := NewRedisWithClient(client, ttl)
	c.owned = true
	return c, nil
}

// NewRedisWithClient wraps an existing client. Close leaves the client open.
func NewRedisWithClient(client redis.UniversalClient, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Redis{client: client, ttl: ttl}
}

// Client returns the underlying client.
func (c *Redis) Client() redis.UniversalClient {
	return c.client
}

func (c *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, KeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (c *Redis) Set(ctx context.Context, key string, value []byte) error {
	return c.client.Set(ctx, KeyPrefix+key, value, c.ttl).Err()
}

func (c *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = KeyPrefix + k
	}
	return c.client.Del(ctx, full...).Err()
}

func (c *Redis) Close() error {
	if !c.owned {
		return nil
	}
	return c.client.Close()
}
