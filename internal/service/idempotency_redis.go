package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// releaseIfPending deletes a claim only while it still belongs to the same
// fingerprint and has not been completed.
var releaseIfPending = redis.NewScript(`
local raw = redis.call("GET", KEYS[1])
if not raw then
  return 0
end
local rec = cjson.decode(raw)
if rec.fingerprint == ARGV[1] and not rec.completed then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisIdempotencyStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisIdempotencyStore(client redis.UniversalClient, prefix string) *RedisIdempotencyStore {
	if prefix == "" {
		prefix = "site:idem"
	}
	return &RedisIdempotencyStore{client: client, prefix: prefix}
}

func (s *RedisIdempotencyStore) key(scope, key string) string {
	return s.prefix + ":" + scope + ":" + key
}

func (s *RedisIdempotencyStore) Begin(ctx context.Context, scope, key, fingerprint string, ttl time.Duration) (IdempotencyBeginResult, error) {
	claim, err := json.Marshal(idempotencyRecord{Fingerprint: fingerprint})
	if err != nil {
		return IdempotencyBeginResult{}, err
	}
	redisKey := s.key(scope, key)
	for range 2 {
		ok, err := s.client.SetNX(ctx, redisKey, claim, ttl).Result()
		if err != nil {
			return IdempotencyBeginResult{}, fmt.Errorf("claim idempotency key: %w", err)
		}
		if ok {
			return IdempotencyBeginResult{State: IdempotencyStateNew}, nil
		}
		raw, err := s.client.Get(ctx, redisKey).Bytes()
		if errors.Is(err, redis.Nil) {
			// Expired between SETNX and GET; claim again.
			continue
		}
		if err != nil {
			return IdempotencyBeginResult{}, fmt.Errorf("read idempotency key: %w", err)
		}
		var rec idempotencyRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return IdempotencyBeginResult{}, fmt.Errorf("decode idempotency record: %w", err)
		}
		return rec.resolve(fingerprint), nil
	}
	return IdempotencyBeginResult{State: IdempotencyStateInProgress}, nil
}

func (s *RedisIdempotencyStore) Complete(ctx context.Context, scope, key, fingerprint string, response CachedHTTPResponse, ttl time.Duration) error {
	raw, err := json.Marshal(idempotencyRecord{Fingerprint: fingerprint, Completed: true, Response: &response})
	if err != nil {
		return err
	}
	return s.client.SetXX(ctx, s.key(scope, key), raw, ttl).Err()
}

func (s *RedisIdempotencyStore) Release(ctx context.Context, scope, key, fingerprint string) error {
	return releaseIfPending.Run(ctx, s.client, []string{s.key(scope, key)}, fingerprint).Err()
}
