package observability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tooffoundation/site-backend/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/exemplar"
)

const meterName = "site-backend"

type AppMetrics struct {
	passwordResetCounter         metric.Int64Counter
	passwordResetDuration        metric.Float64Histogram
	notificationCounter          metric.Int64Counter
	notificationDuration         metric.Float64Histogram
	authorizationCounter         metric.Int64Counter
	authorizationDuration        metric.Float64Histogram
	authOperationCounter         metric.Int64Counter
	authReqDuration              metric.Float64Histogram
	accessTokenValidationCounter metric.Int64Counter
	csrfValidationCounter        metric.Int64Counter
	rateLimitDecisionCounter     metric.Int64Counter
	rateLimitRetryAfter          metric.Float64Histogram
	abuseGuardCounter            metric.Int64Counter
	abuseGuardCooldown           metric.Float64Histogram
	contentOperationCounter      metric.Int64Counter
	contentOperationDuration     metric.Float64Histogram
	listCacheCounter             metric.Int64Counter
	idempotencyCounter           metric.Int64Counter
	storageOperationCounter      metric.Int64Counter
	storageOperationDuration     metric.Float64Histogram
	repositoryOpsCounter         metric.Int64Counter
	httpMiddlewareValidation     metric.Int64Counter
	healthCheckResultCounter     metric.Int64Counter
	healthCheckDuration          metric.Float64Histogram
	databaseStartupCounter       metric.Int64Counter
	databaseStartupDuration      metric.Float64Histogram
	toolCommandRuns              metric.Int64Counter
	toolCommandDuration          metric.Float64Histogram
}

var (
	metricsMu  sync.RWMutex
	appMetrics *AppMetrics
)

func InitMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sdkmetric.MeterProvider, error) {
	if !cfg.OTELMetricsEnabled {
		mp := sdkmetric.NewMeterProvider()
		otel.SetMeterProvider(mp)
		logger.Info("otel metrics disabled")
		return mp, nil
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTELExporterOTLPEndpoint)}
	if cfg.OTELExporterOTLPInsecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp metric exporter: %w", err)
	}

	res, err := serviceResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.OTELMetricsExportInterval))
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
		sdkmetric.WithExemplarFilter(exemplar.TraceBasedFilter),
		sdkmetric.WithView(sdkmetric.NewView(
			sdkmetric.Instrument{Name: "*.duration"},
			sdkmetric.Stream{
				Aggregation: sdkmetric.AggregationExplicitBucketHistogram{
					Boundaries: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
				},
			},
		)),
	)
	otel.SetMeterProvider(mp)

	m, err := newAppMetrics(mp.Meter(meterName))
	if err != nil {
		return nil, err
	}
	metricsMu.Lock()
	appMetrics = m
	metricsMu.Unlock()

	logger.Info("otel metrics initialized", "endpoint", cfg.OTELExporterOTLPEndpoint)
	return mp, nil
}

type instrumentBuilder struct {
	meter metric.Meter
	err   error
}

func (b *instrumentBuilder) counter(name, description string) metric.Int64Counter {
	if b.err != nil {
		return nil
	}
	c, err := b.meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		b.err = fmt.Errorf("create counter %s: %w", name, err)
	}
	return c
}

func (b *instrumentBuilder) seconds(name, description string) metric.Float64Histogram {
	if b.err != nil {
		return nil
	}
	h, err := b.meter.Float64Histogram(name, metric.WithUnit("s"), metric.WithDescription(description))
	if err != nil {
		b.err = fmt.Errorf("create histogram %s: %w", name, err)
	}
	return h
}

func newAppMetrics(meter metric.Meter) (*AppMetrics, error) {
	b := &instrumentBuilder{meter: meter}
	m := &AppMetrics{
		passwordResetCounter:         b.counter("password_reset.operations", "Password reset issue/verify/commit outcomes"),
		passwordResetDuration:        b.seconds("password_reset.duration", "Password reset operation latency"),
		notificationCounter:          b.counter("notification.deliveries", "Reset code deliveries by channel and outcome"),
		notificationDuration:         b.seconds("notification.duration", "Notification delivery latency"),
		authorizationCounter:         b.counter("authz.decisions", "Admin authorization decisions"),
		authorizationDuration:        b.seconds("authz.duration", "Admin authorization lookup latency"),
		authOperationCounter:         b.counter("auth.operations", "Sign-up, sign-in and sign-out outcomes"),
		authReqDuration:              b.seconds("auth.request.duration", "Auth operation latency"),
		accessTokenValidationCounter: b.counter("auth.access_token.validation.events", "Access token validation results"),
		csrfValidationCounter:        b.counter("security.csrf.validation.events", "CSRF double-submit validation results"),
		rateLimitDecisionCounter:     b.counter("http.rate_limit.decisions", "Rate limiter decisions"),
		rateLimitRetryAfter:          b.seconds("http.rate_limit.retry_after", "Retry-After values sent to limited clients"),
		abuseGuardCounter:            b.counter("auth.abuse_guard.events", "Abuse guard checks and failures"),
		abuseGuardCooldown:           b.seconds("auth.abuse_guard.cooldown", "Cooldowns imposed by the abuse guard"),
		contentOperationCounter:      b.counter("content.operations", "Blog, event, gallery and user management outcomes"),
		contentOperationDuration:     b.seconds("content.operation.duration", "Content operation latency"),
		listCacheCounter:             b.counter("list.cache.events", "Public list cache hits, misses and invalidations"),
		idempotencyCounter:           b.counter("http.idempotency.events", "Idempotency-Key outcomes by scope"),
		storageOperationCounter:      b.counter("storage.operations", "Object storage operations"),
		storageOperationDuration:     b.seconds("storage.operation.duration", "Object storage latency"),
		repositoryOpsCounter:         b.counter("repository.operations", "Repository calls by entity, operation and outcome"),
		httpMiddlewareValidation:     b.counter("http.middleware.validation.events", "CORS and body limit middleware decisions"),
		healthCheckResultCounter:     b.counter("health.check.results", "Health dependency check outcomes"),
		healthCheckDuration:          b.seconds("health.check.duration", "Duration of health dependency checks"),
		databaseStartupCounter:       b.counter("database.startup.events", "Database connect, migrate and seed outcomes"),
		databaseStartupDuration:      b.seconds("database.startup.duration", "Database startup stage latency"),
		toolCommandRuns:              b.counter("tool.command.runs", "CLI tool command runs"),
		toolCommandDuration:          b.seconds("tool.command.duration", "CLI tool command latency"),
	}
	if b.err != nil {
		return nil, b.err
	}
	return m, nil
}

func currentMetrics() *AppMetrics {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	return appMetrics
}

func RecordPasswordResetOperation(ctx context.Context, operation, outcome string, duration time.Duration) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.passwordResetCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
	m.passwordResetDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("operation", operation),
	))
}

func RecordNotificationDelivery(ctx context.Context, channel, outcome string, duration time.Duration) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.notificationCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("channel", channel),
		attribute.String("outcome", outcome),
	))
	m.notificationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("channel", channel),
	))
}

func RecordAuthorizationDecision(ctx context.Context, outcome string, duration time.Duration) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.authorizationCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	m.authorizationDuration.Record(ctx, duration.Seconds())
}

func RecordAuthOperation(ctx context.Context, operation, outcome string, duration time.Duration) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.authOperationCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
	m.authReqDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}

func RecordAccessTokenValidation(ctx context.Context, outcome, source string) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.accessTokenValidationCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("source", source),
	))
}

func RecordCSRFValidation(ctx context.Context, outcome, pathGroup string) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.csrfValidationCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("path_group", pathGroup),
	))
}

func RecordRateLimitDecision(ctx context.Context, scope, outcome, mode string) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.rateLimitDecisionCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("scope", scope),
		attribute.String("outcome", outcome),
		attribute.String("mode", mode),
	))
}

func RecordRateLimitRetryAfter(ctx context.Context, scope string, retryAfter time.Duration) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.rateLimitRetryAfter.Record(ctx, retryAfter.Seconds(), metric.WithAttributes(attribute.String("scope", scope)))
}

func RecordAbuseGuardEvent(ctx context.Context, scope, action, outcome string) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.abuseGuardCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("scope", scope),
		attribute.String("action", action),
		attribute.String("outcome", outcome),
	))
}

func RecordAbuseGuardCooldown(ctx context.Context, scope string, cooldown time.Duration) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.abuseGuardCooldown.Record(ctx, cooldown.Seconds(), metric.WithAttributes(attribute.String("scope", scope)))
}

func RecordContentOperation(ctx context.Context, entity, operation, outcome string, duration time.Duration) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.contentOperationCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity", entity),
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
	m.contentOperationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("entity", entity),
		attribute.String("operation", operation),
	))
}

func RecordListCacheEvent(ctx context.Context, namespace, outcome string) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.listCacheCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("namespace", namespace),
		attribute.String("outcome", outcome),
	))
}

func RecordIdempotencyEvent(ctx context.Context, scope, outcome string) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.idempotencyCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("scope", scope),
		attribute.String("outcome", outcome),
	))
}

func RecordStorageOperation(ctx context.Context, operation, outcome string, duration time.Duration) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.storageOperationCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
	m.storageOperationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("operation", operation),
	))
}

func RecordRepositoryOperation(ctx context.Context, entity, operation, outcome string) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.repositoryOpsCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity", entity),
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}

func RecordMiddlewareValidationEvent(ctx context.Context, check, outcome string) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.httpMiddlewareValidation.Add(ctx, 1, metric.WithAttributes(
		attribute.String("check", check),
		attribute.String("outcome", outcome),
	))
}

func RecordHealthCheckResult(ctx context.Context, check, outcome string) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.healthCheckResultCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("check", check),
		attribute.String("outcome", outcome),
	))
}

func RecordHealthCheckDuration(ctx context.Context, check string, duration time.Duration) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.healthCheckDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String("check", check)))
}

func RecordDatabaseStartupEvent(ctx context.Context, stage, outcome string) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.databaseStartupCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("outcome", outcome),
	))
}

func RecordDatabaseStartupDuration(ctx context.Context, stage string, duration time.Duration) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.databaseStartupDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String("stage", stage)))
}

func RecordToolCommandRun(ctx context.Context, tool, command, outcome string) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.toolCommandRuns.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("command", command),
		attribute.String("outcome", outcome),
	))
}

func RecordToolCommandDuration(ctx context.Context, tool, command, outcome string, duration time.Duration) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.toolCommandDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("command", command),
		attribute.String("outcome", outcome),
	))
}
