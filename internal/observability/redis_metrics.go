package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var redisInstrumentationOnce sync.Once

// InstrumentRedisClient installs a command hook that records latency, errors
// and read hits per keyspace (rate limiter, abuse guard, list cache). Only the
// first call per process takes effect.
func InstrumentRedisClient(client redis.UniversalClient, logger *slog.Logger) {
	if client == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	redisInstrumentationOnce.Do(func() {
		hook, err := newRedisMetricsHook(otel.Meter(meterName), client.PoolStats)
		if err != nil {
			logger.Warn("redis instrumentation disabled", "error", err)
			return
		}
		client.AddHook(hook)
		logger.Info("redis instrumentation enabled")
	})
}

type redisMetricsHook struct {
	commands metric.Int64Counter
	latency  metric.Float64Histogram
	reads    metric.Int64Counter
}

func newRedisMetricsHook(meter metric.Meter, poolStats func() *redis.PoolStats) (*redisMetricsHook, error) {
	b := &instrumentBuilder{meter: meter}
	hook := &redisMetricsHook{
		commands: b.counter("redis.commands", "Redis commands by keyspace and status"),
		latency:  b.seconds("redis.command.duration", "Redis command latency"),
		reads:    b.counter("redis.keyspace.reads", "Redis reads by keyspace and hit or miss"),
	}
	if b.err != nil {
		return nil, b.err
	}
	saturation, err := meter.Float64ObservableGauge(
		"redis.pool.saturation",
		metric.WithUnit("1"),
		metric.WithDescription("Share of pooled Redis connections in use"),
	)
	if err != nil {
		return nil, fmt.Errorf("create redis pool gauge: %w", err)
	}
	_, err = meter.RegisterCallback(func(_ context.Context, observer metric.Observer) error {
		stats := poolStats()
		if stats != nil && stats.TotalConns > 0 {
			used := stats.TotalConns - stats.IdleConns
			observer.ObserveFloat64(saturation, float64(used)/float64(stats.TotalConns))
		}
		return nil
	}, saturation)
	if err != nil {
		return nil, fmt.Errorf("register redis pool callback: %w", err)
	}
	return hook, nil
}

func (h *redisMetricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h *redisMetricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		h.observe(ctx, cmd, err, time.Since(start))
		return err
	}
}

func (h *redisMetricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		elapsed := time.Since(start)
		for _, cmd := range cmds {
			h.observe(ctx, cmd, cmd.Err(), elapsed)
		}
		return err
	}
}

func (h *redisMetricsHook) observe(ctx context.Context, cmd redis.Cmder, err error, elapsed time.Duration) {
	command := strings.ToLower(cmd.Name())
	keyspace := redisKeyspace(cmd)
	status := redisCommandStatus(err)
	attrs := metric.WithAttributes(
		attribute.String("command", command),
		attribute.String("keyspace", keyspace),
		attribute.String("status", status),
	)
	h.commands.Add(ctx, 1, attrs)
	h.latency.Record(ctx, elapsed.Seconds(), attrs)

	if outcome, ok := redisReadOutcome(cmd, err); ok {
		h.reads.Add(ctx, 1, metric.WithAttributes(
			attribute.String("keyspace", keyspace),
			attribute.String("outcome", outcome),
		))
	}
}

func redisCommandStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, redis.Nil):
		return "miss"
	case strings.Contains(strings.ToLower(err.Error()), "timeout"):
		return "timeout"
	default:
		return "error"
	}
}

// redisKeyspace maps "site:list:public.blogs:3:ab12" to "list". Keys without
// an application prefix are reported as "other".
func redisKeyspace(cmd redis.Cmder) string {
	args := cmd.Args()
	if len(args) < 2 {
		return "none"
	}
	if strings.EqualFold(cmd.Name(), "evalsha") || strings.EqualFold(cmd.Name(), "eval") {
		if len(args) < 4 {
			return "none"
		}
		args = args[2:]
	}
	key, ok := args[1].(string)
	if !ok {
		return "other"
	}
	parts := strings.SplitN(key, ":", 3)
	if len(parts) < 2 || parts[1] == "" {
		return "other"
	}
	return parts[1]
}

func redisReadOutcome(cmd redis.Cmder, err error) (string, bool) {
	switch strings.ToLower(cmd.Name()) {
	case "get", "hget", "hmget":
	default:
		return "", false
	}
	if errors.Is(err, redis.Nil) {
		return "miss", true
	}
	if err != nil {
		return "", false
	}
	if sliceCmd, ok := cmd.(*redis.SliceCmd); ok {
		for _, v := range sliceCmd.Val() {
			if v != nil {
				return "hit", true
			}
		}
		return "miss", true
	}
	return "hit", true
}
