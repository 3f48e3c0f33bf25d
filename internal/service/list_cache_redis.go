package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisListCache versions every namespace with a generation counter.
// Invalidation bumps the counter, so stale pages simply age out.
type RedisListCache struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisListCache(client redis.UniversalClient, prefix string) *RedisListCache {
	if prefix == "" {
		prefix = "site:list"
	}
	return &RedisListCache{client: client, prefix: prefix}
}

func (c *RedisListCache) Get(ctx context.Context, namespace, key string) ([]byte, bool, error) {
	gen, err := c.generation(ctx, namespace)
	if err != nil {
		return nil, false, err
	}
	value, err := c.client.Get(ctx, c.dataKey(namespace, gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (c *RedisListCache) Set(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	gen, err := c.generation(ctx, namespace)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.dataKey(namespace, gen, key), value, ttl).Err()
}

func (c *RedisListCache) InvalidateNamespace(ctx context.Context, namespace string) error {
	return c.client.Incr(ctx, c.generationKey(namespace)).Err()
}

func (c *RedisListCache) generation(ctx context.Context, namespace string) (int64, error) {
	gen, err := c.client.Get(ctx, c.generationKey(namespace)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *RedisListCache) generationKey(namespace string) string {
	return fmt.Sprintf("%s:%s:gen", c.prefix, namespace)
}

func (c *RedisListCache) dataKey(namespace string, gen int64, key string) string {
	return fmt.Sprintf("%s:%s:%d:%s", c.prefix, namespace, gen, hashKeyPart(key))
}
