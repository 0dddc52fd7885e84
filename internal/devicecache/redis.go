package devicecache

import (
	"context"
	"errors"
	"time"
)

type redisStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Lookup(ctx context.Context, key string) ([]byte, bool, error)
	Del(ctx context.Context, keys ...string) error
	CartKey(parts ...string) string
}

// RedisCache keeps the device cache in Redis for server deployments where
// the "device" is a browser session rather than a phone.
type RedisCache struct {
	client redisStore
	ttl    time.Duration
}

// NewRedis wraps a pkg/redis client. A zero ttl keeps entries forever.
func NewRedis(client redisStore, ttl time.Duration) (*RedisCache, error) {
	if client == nil {
		return nil, errors.New("redis client required")
	}
	return &RedisCache{client: client, ttl: ttl}, nil
}

func (c *RedisCache) Read(ctx context.Context, key string) ([]byte, bool, error) {
	return c.client.Lookup(ctx, c.client.CartKey(key))
}

func (c *RedisCache) Write(ctx context.Context, key string, value []byte) error {
	return c.client.Set(ctx, c.client.CartKey(key), value, c.ttl)
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.client.CartKey(key))
}
