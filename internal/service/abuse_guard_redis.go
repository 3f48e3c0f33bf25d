package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

var redisAbuseBumpScript = redis.NewScript(`
local now_ms = tonumber(ARGV[1])
local base_ms = tonumber(ARGV[2])
local multiplier = tonumber(ARGV[3])
local max_ms = tonumber(ARGV[4])
local reset_ms = tonumber(ARGV[5])
local free_attempts = tonumber(ARGV[6])

local key = KEYS[1]
local failures = tonumber(redis.call("HGET", key, "failures") or "0")
local last_ms = tonumber(redis.call("HGET", key, "last_ms") or "0")
if last_ms == 0 or (now_ms - last_ms) > reset_ms then
  failures = 0
end
failures = failures + 1

local delay = 0
if failures > free_attempts then
  delay = math.floor(base_ms * (multiplier ^ (failures - free_attempts - 1)))
end
if delay > max_ms then
  delay = max_ms
end

redis.call("HSET", key, "failures", tostring(failures), "last_ms", tostring(now_ms), "until_ms", tostring(now_ms + delay))
redis.call("PEXPIRE", key, reset_ms + delay + 60000)
return delay
`)

// RedisAbuseGuard shares abuse counters between API replicas.
type RedisAbuseGuard struct {
	client redis.UniversalClient
	prefix string
	policy BackoffPolicy
	now    func() time.Time
}

func NewRedisAbuseGuard(client redis.UniversalClient, prefix string, policy BackoffPolicy) *RedisAbuseGuard {
	if prefix == "" {
		prefix = "site:abuse"
	}
	return &RedisAbuseGuard{client: client, prefix: prefix, policy: policy.normalized(), now: time.Now}
}

func (g *RedisAbuseGuard) Check(ctx context.Context, scope AbuseScope, identity, ip string) (time.Duration, error) {
	nowMS := g.now().UnixMilli()
	var longest time.Duration
	for _, key := range abuseKeys(scope, identity, ip) {
		values, err := g.client.HMGet(ctx, g.prefix+":"+key, "last_ms", "until_ms").Result()
		if err != nil {
			return 0, err
		}
		if len(values) != 2 || values[0] == nil || values[1] == nil {
			continue
		}
		lastMS, err := parseRedisHashInt(values[0])
		if err != nil {
			return 0, err
		}
		untilMS, err := parseRedisHashInt(values[1])
		if err != nil {
			return 0, err
		}
		if nowMS-lastMS > g.policy.ResetWindow.Milliseconds() || untilMS <= nowMS {
			continue
		}
		longest = max(longest, time.Duration(untilMS-nowMS)*time.Millisecond)
	}
	return longest, nil
}

func (g *RedisAbuseGuard) RegisterFailure(ctx context.Context, scope AbuseScope, identity, ip string) (time.Duration, error) {
	nowMS := g.now().UnixMilli()
	var longest time.Duration
	for _, key := range abuseKeys(scope, identity, ip) {
		res, err := redisAbuseBumpScript.Run(ctx, g.client, []string{g.prefix + ":" + key},
			nowMS,
			g.policy.BaseDelay.Milliseconds(),
			g.policy.Multiplier,
			g.policy.MaxDelay.Milliseconds(),
			g.policy.ResetWindow.Milliseconds(),
			g.policy.FreeAttempts,
		).Result()
		if err != nil {
			return 0, err
		}
		delayMS, err := parseRedisHashInt(res)
		if err != nil {
			return 0, err
		}
		longest = max(longest, time.Duration(max(delayMS, 0))*time.Millisecond)
	}
	return longest, nil
}

func (g *RedisAbuseGuard) Reset(ctx context.Context, scope AbuseScope, identity, ip string) error {
	keys := abuseKeys(scope, identity, ip)
	return g.client.Del(ctx, g.prefix+":"+keys[0], g.prefix+":"+keys[1]).Err()
}

func parseRedisHashInt(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("redis response overflows int64")
		}
		return int64(n), nil
	case string:
		var out int64
		if _, err := fmt.Sscan(n, &out); err != nil {
			return 0, fmt.Errorf("parse redis value %q: %w", n, err)
		}
		return out, nil
	default:
		return 0, fmt.Errorf("unexpected redis response type %T", v)
	}
}
