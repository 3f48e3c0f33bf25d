package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"
)

type AbuseScope string

const (
	AbuseScopeSignIn    AbuseScope = "signin"
	AbuseScopeResetCode AbuseScope = "reset_code"
)

// BackoffPolicy grants FreeAttempts failures, then grows the cooldown
// geometrically from BaseDelay up to MaxDelay. Counters reset after
// ResetWindow without failures.
type BackoffPolicy struct {
	FreeAttempts int
	BaseDelay    time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	ResetWindow  time.Duration
}

func (p BackoffPolicy) normalized() BackoffPolicy {
	if p.FreeAttempts < 0 {
		p.FreeAttempts = 0
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = 2 * time.Second
	}
	if p.Multiplier < 1 {
		p.Multiplier = 2
	}
	if p.MaxDelay < p.BaseDelay {
		p.MaxDelay = 5 * time.Minute
	}
	if p.ResetWindow <= 0 {
		p.ResetWindow = 30 * time.Minute
	}
	return p
}

func (p BackoffPolicy) delayFor(failCount int) time.Duration {
	if failCount <= p.FreeAttempts {
		return 0
	}
	delay := time.Duration(float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(failCount-p.FreeAttempts-1)))
	if delay > p.MaxDelay || delay < 0 {
		return p.MaxDelay
	}
	return delay
}

// AbuseGuard tracks failures per identity and per client IP. Both dimensions
// are checked; the longer cooldown wins.
type AbuseGuard interface {
	Check(ctx context.Context, scope AbuseScope, identity, ip string) (time.Duration, error)
	RegisterFailure(ctx context.Context, scope AbuseScope, identity, ip string) (time.Duration, error)
	Reset(ctx context.Context, scope AbuseScope, identity, ip string) error
}

type NoopAbuseGuard struct{}

func NewNoopAbuseGuard() *NoopAbuseGuard { return &NoopAbuseGuard{} }

func (NoopAbuseGuard) Check(context.Context, AbuseScope, string, string) (time.Duration, error) {
	return 0, nil
}

func (NoopAbuseGuard) RegisterFailure(context.Context, AbuseScope, string, string) (time.Duration, error) {
	return 0, nil
}

func (NoopAbuseGuard) Reset(context.Context, AbuseScope, string, string) error { return nil }

type abuseCounter struct {
	failures      int
	lastFailure   time.Time
	cooldownUntil time.Time
}

type InMemoryAbuseGuard struct {
	mu       sync.Mutex
	policy   BackoffPolicy
	counters map[string]abuseCounter
	now      func() time.Time
}

func NewInMemoryAbuseGuard(policy BackoffPolicy) *InMemoryAbuseGuard {
	return &InMemoryAbuseGuard{
		policy:   policy.normalized(),
		counters: make(map[string]abuseCounter),
		now:      time.Now,
	}
}

func (g *InMemoryAbuseGuard) Check(_ context.Context, scope AbuseScope, identity, ip string) (time.Duration, error) {
	now := g.now()
	g.mu.Lock()
	defer g.mu.Unlock()
	var longest time.Duration
	for _, key := range abuseKeys(scope, identity, ip) {
		longest = max(longest, g.remainingLocked(now, key))
	}
	return longest, nil
}

func (g *InMemoryAbuseGuard) RegisterFailure(_ context.Context, scope AbuseScope, identity, ip string) (time.Duration, error) {
	now := g.now()
	g.mu.Lock()
	defer g.mu.Unlock()
	var longest time.Duration
	for _, key := range abuseKeys(scope, identity, ip) {
		c := g.counters[key]
		if c.lastFailure.IsZero() || now.Sub(c.lastFailure) > g.policy.ResetWindow {
			c.failures = 0
		}
		c.failures++
		c.lastFailure = now
		delay := g.policy.delayFor(c.failures)
		c.cooldownUntil = now.Add(delay)
		g.counters[key] = c
		longest = max(longest, delay)
	}
	return longest, nil
}

func (g *InMemoryAbuseGuard) Reset(_ context.Context, scope AbuseScope, identity, ip string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, key := range abuseKeys(scope, identity, ip) {
		delete(g.counters, key)
	}
	return nil
}

func (g *InMemoryAbuseGuard) remainingLocked(now time.Time, key string) time.Duration {
	c, ok := g.counters[key]
	if !ok {
		return 0
	}
	if now.Sub(c.lastFailure) > g.policy.ResetWindow {
		delete(g.counters, key)
		return 0
	}
	if !now.Before(c.cooldownUntil) {
		return 0
	}
	return c.cooldownUntil.Sub(now)
}

func abuseKeys(scope AbuseScope, identity, ip string) [2]string {
	id := strings.ToLower(strings.TrimSpace(identity))
	if id == "" {
		id = "anonymous"
	}
	addr := strings.ToLower(strings.TrimSpace(ip))
	if addr == "" {
		addr = "unknown"
	}
	return [2]string{
		fmt.Sprintf("%s:id:%s", scope, hashKeyPart(id)),
		fmt.Sprintf("%s:ip:%s", scope, hashKeyPart(addr)),
	}
}

func hashKeyPart(v string) string {
	sum := sha256.Sum256([]byte(v))
	return hex.EncodeToString(sum[:16])
}
