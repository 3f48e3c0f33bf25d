package di

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/tooffoundation/site-backend/internal/app"
	"github.com/tooffoundation/site-backend/internal/config"
	"github.com/tooffoundation/site-backend/internal/database"
	"github.com/tooffoundation/site-backend/internal/health"
	"github.com/tooffoundation/site-backend/internal/http/handler"
	"github.com/tooffoundation/site-backend/internal/http/middleware"
	"github.com/tooffoundation/site-backend/internal/http/router"
	"github.com/tooffoundation/site-backend/internal/observability"
	"github.com/tooffoundation/site-backend/internal/repository"
	"github.com/tooffoundation/site-backend/internal/security"
	"github.com/tooffoundation/site-backend/internal/service"
)

const (
	abuseGuardRedisPrefix = "site:abuse"
	listCacheRedisPrefix  = "site:list"
	idempotencyPrefix     = "site:idem"
)

var ConfigSet = wire.NewSet(config.Load)

var ObservabilitySet = wire.NewSet(
	provideObservabilityRuntime,
	provideAppLogger,
)

var RuntimeInfraSet = wire.NewSet(
	provideRuntimeDB,
	provideRedisClient,
	provideImageStorage,
	provideReadinessProbeRunner,
)

var RepositorySet = wire.NewSet(
	repository.NewUserRepository,
	repository.NewPasswordResetRepository,
	repository.NewBlogRepository,
	repository.NewEventRepository,
	repository.NewGalleryRepository,
)

var SecuritySet = wire.NewSet(
	provideJWTManager,
	provideCookieManager,
	providePasswordHasher,
	security.NewContentSanitizer,
)

var ServiceSet = wire.NewSet(
	provideAbuseGuard,
	provideContentCachePolicy,
	providePasswordResetNotifier,
	provideAuthService,
	providePasswordResetService,
	service.NewAuthorizationGate,
	service.NewUserService,
	service.NewBlogService,
	service.NewEventService,
	service.NewGalleryService,
	wire.Bind(new(service.AuthServiceInterface), new(*service.AuthService)),
	wire.Bind(new(service.PasswordResetServiceInterface), new(*service.PasswordResetService)),
	wire.Bind(new(service.Authorizer), new(*service.AuthorizationGate)),
	wire.Bind(new(service.UserServiceInterface), new(*service.UserService)),
	wire.Bind(new(service.BlogServiceInterface), new(*service.BlogService)),
	wire.Bind(new(service.EventServiceInterface), new(*service.EventService)),
	wire.Bind(new(service.GalleryServiceInterface), new(*service.GalleryService)),
)

var HTTPSet = wire.NewSet(
	provideAuthHandler,
	handler.NewPasswordResetHandler,
	handler.NewUserHandler,
	handler.NewBlogHandler,
	handler.NewEventHandler,
	handler.NewGalleryHandler,
	provideUploadHandler,
	provideGlobalRateLimiter,
	provideAuthRateLimiter,
	provideForgotRateLimiter,
	provideIdempotency,
	provideRouterDependencies,
	router.NewRouter,
	provideHTTPServer,
)

var AppSet = wire.NewSet(provideApp)

type MigrationRunner struct {
	cfg    *config.Config
	db     *gorm.DB
	logger *slog.Logger
}

func NewMigrationRunner(cfg *config.Config, db *gorm.DB) *MigrationRunner {
	return &MigrationRunner{cfg: cfg, db: db, logger: observability.NewBootstrapLogger(cfg)}
}

func (m *MigrationRunner) Run() error {
	defer func() {
		if sqlDB, err := m.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()
	if err := database.Migrate(m.db); err != nil {
		return err
	}
	report, err := database.EnsureAdmin(m.db, bootstrapAdminSeed(m.cfg))
	if err != nil {
		return err
	}
	m.logger.Info("migration complete", "admin_created", report.Created, "admin_promoted", report.Promoted)
	return nil
}

func bootstrapAdminSeed(cfg *config.Config) database.AdminSeed {
	return database.AdminSeed{
		Email:    cfg.BootstrapAdminEmail,
		Password: cfg.BootstrapAdminPassword,
		Name:     cfg.BootstrapAdminName,
	}
}

func provideObservabilityRuntime(cfg *config.Config) (*observability.Runtime, error) {
	bootstrapLogger := observability.NewBootstrapLogger(cfg)
	return observability.InitRuntime(context.Background(), cfg, bootstrapLogger)
}

func provideAppLogger(cfg *config.Config, runtime *observability.Runtime) *slog.Logger {
	return observability.InitLogger(cfg, runtime.LoggerProvider)
}

func provideOpenDB(cfg *config.Config) (*gorm.DB, error) {
	return database.Open(cfg)
}

func provideRuntimeDB(cfg *config.Config, logger *slog.Logger) (*gorm.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	report, err := database.EnsureAdmin(db, bootstrapAdminSeed(cfg))
	if err != nil {
		return nil, fmt.Errorf("seed bootstrap admin: %w", err)
	}
	if !report.Noop {
		logger.Info("bootstrap admin ensured", "email", report.Email, "created", report.Created, "promoted", report.Promoted)
	}
	return db, nil
}

func provideRedisClient(cfg *config.Config, logger *slog.Logger) redis.UniversalClient {
	if !cfg.RedisEnabled() {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Username:     cfg.RedisUsername,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  cfg.RedisDialTimeout,
		ReadTimeout:  cfg.RedisReadTimeout,
		WriteTimeout: cfg.RedisWriteTimeout,
		PoolSize:     cfg.RedisPoolSize,
		MaxRetries:   cfg.RedisMaxRetries,
	})
	observability.InstrumentRedisClient(client, logger)
	return client
}

func provideImageStorage(cfg *config.Config, logger *slog.Logger) (service.ImageStorage, error) {
	if !cfg.StorageEnabled {
		logger.Info("image storage disabled")
		return service.DisabledImageStorage{}, nil
	}
	return service.NewMinIOImageStorage(service.StorageSettings{
		Endpoint:      cfg.StorageEndpoint,
		AccessKey:     cfg.StorageAccessKey,
		SecretKey:     cfg.StorageSecretKey,
		Bucket:        cfg.StorageBucket,
		UseSSL:        cfg.StorageUseSSL,
		PublicBaseURL: cfg.StoragePublicBaseURL,
		MaxSize:       cfg.UploadMaxBytes,
	})
}

func provideJWTManager(cfg *config.Config) *security.JWTManager {
	return security.NewJWTManager(cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTAccessSecret)
}

func provideCookieManager(cfg *config.Config) *security.CookieManager {
	return security.NewCookieManager(cfg.CookieDomain, cfg.CookieSecure, cfg.CookieSameSite)
}

func providePasswordHasher() *security.PasswordHasher {
	return security.NewPasswordHasher(security.DefaultArgon2Params)
}

func backoffPolicy(cfg *config.Config) service.BackoffPolicy {
	return service.BackoffPolicy{
		FreeAttempts: cfg.AuthAbuseFreeAttempts,
		BaseDelay:    cfg.AuthAbuseBaseDelay,
		Multiplier:   cfg.AuthAbuseMultiplier,
		MaxDelay:     cfg.AuthAbuseMaxDelay,
		ResetWindow:  cfg.AuthAbuseResetWindow,
	}
}

func provideAbuseGuard(cfg *config.Config, redisClient redis.UniversalClient) service.AbuseGuard {
	if !cfg.AuthAbuseProtectionEnabled {
		return service.NewNoopAbuseGuard()
	}
	if redisClient != nil {
		return service.NewRedisAbuseGuard(redisClient, abuseGuardRedisPrefix, backoffPolicy(cfg))
	}
	return service.NewInMemoryAbuseGuard(backoffPolicy(cfg))
}

func provideIdempotency(cfg *config.Config, redisClient redis.UniversalClient) router.IdempotencyMiddlewareFactory {
	if !cfg.IdempotencyEnabled {
		return nil
	}
	var store service.IdempotencyStore = service.NewInMemoryIdempotencyStore()
	if redisClient != nil {
		store = service.NewRedisIdempotencyStore(redisClient, idempotencyPrefix)
	}
	return middleware.NewIdempotency(store, cfg.IdempotencyTTL).Middleware
}

func provideContentCachePolicy(cfg *config.Config, redisClient redis.UniversalClient) service.ContentCachePolicy {
	switch {
	case !cfg.ListCacheEnabled:
		return service.ContentCachePolicy{Cache: service.NewNoopListCache()}
	case redisClient != nil:
		return service.ContentCachePolicy{Cache: service.NewRedisListCache(redisClient, listCacheRedisPrefix), TTL: cfg.ListCacheTTL}
	default:
		return service.ContentCachePolicy{Cache: service.NewInMemoryListCache(), TTL: cfg.ListCacheTTL}
	}
}

func providePasswordResetNotifier(cfg *config.Config, logger *slog.Logger) (service.PasswordResetNotifier, error) {
	switch cfg.NotifierMode {
	case config.NotifierModeSMTP:
		return service.NewSMTPPasswordResetNotifier(service.SMTPSettings{
			Host:      cfg.SMTPHost,
			Port:      cfg.SMTPPort,
			Username:  cfg.SMTPUsername,
			Password:  cfg.SMTPPassword,
			TLSPolicy: cfg.SMTPTLSPolicy,
			FromName:  cfg.MailFromName,
			FromEmail: cfg.MailFromAddress,
			Timeout:   cfg.NotifierTimeout,
		})
	case config.NotifierModeBrevo:
		return service.NewBrevoPasswordResetNotifier(service.BrevoSettings{
			APIKey:    cfg.BrevoAPIKey,
			Endpoint:  cfg.BrevoAPIEndpoint,
			FromName:  cfg.MailFromName,
			FromEmail: cfg.MailFromAddress,
			Timeout:   cfg.NotifierTimeout,
		})
	default:
		return service.NewLogPasswordResetNotifier(logger), nil
	}
}

func provideAuthService(
	cfg *config.Config,
	users repository.UserRepository,
	hasher *security.PasswordHasher,
	jwt *security.JWTManager,
	guard service.AbuseGuard,
) *service.AuthService {
	return service.NewAuthService(users, hasher, jwt, guard, service.AuthPolicy{
		AccessTTL:           cfg.JWTAccessTTL,
		BootstrapAdminEmail: cfg.BootstrapAdminEmail,
	})
}

func providePasswordResetService(
	cfg *config.Config,
	users repository.UserRepository,
	resets repository.PasswordResetRepository,
	hasher *security.PasswordHasher,
	notifier service.PasswordResetNotifier,
	logger *slog.Logger,
) *service.PasswordResetService {
	return service.NewPasswordResetService(users, resets, hasher, notifier, logger, service.PasswordResetPolicy{
		CodeTTL:         cfg.PasswordResetCodeTTL,
		MaxAttempts:     cfg.PasswordResetMaxAttempts,
		DeliveryTimeout: cfg.NotifierTimeout,
	})
}

func provideAuthHandler(
	authSvc service.AuthServiceInterface,
	userSvc service.UserServiceInterface,
	cookieMgr *security.CookieManager,
	cfg *config.Config,
) *handler.AuthHandler {
	return handler.NewAuthHandler(authSvc, userSvc, cookieMgr, cfg.JWTAccessTTL)
}

func provideUploadHandler(storage service.ImageStorage, cfg *config.Config) *handler.UploadHandler {
	return handler.NewUploadHandler(storage, cfg.UploadMaxBytes)
}

// buildLimiter returns a Redis-backed limiter when shared limits are enabled
// and an in-process one otherwise.
func buildLimiter(
	cfg *config.Config,
	redisClient redis.UniversalClient,
	scope string,
	limit int,
	mode middleware.FailureMode,
	keyFunc middleware.KeyFunc,
) func(http.Handler) http.Handler {
	if cfg.RateLimitRedisEnabled && redisClient != nil {
		redisLimiter := middleware.NewRedisFixedWindowLimiter(redisClient, cfg.RateLimitRedisPrefix+":"+scope)
		return middleware.NewDistributedRateLimiterWithKey(redisLimiter, limit, time.Minute, mode, scope, keyFunc).Middleware()
	}
	return middleware.NewDistributedRateLimiterWithKey(middleware.NewLocalFixedWindowLimiter(), limit, time.Minute, middleware.FailClosed, scope, keyFunc).Middleware()
}

func provideGlobalRateLimiter(cfg *config.Config, redisClient redis.UniversalClient, jwt *security.JWTManager) router.GlobalRateLimiterFunc {
	return buildLimiter(cfg, redisClient, "api", cfg.APIRateLimitPerMin, middleware.FailOpen, middleware.SubjectOrIPKeyFunc(jwt))
}

func provideAuthRateLimiter(cfg *config.Config, redisClient redis.UniversalClient) router.AuthRateLimiterFunc {
	return buildLimiter(cfg, redisClient, "auth", cfg.AuthRateLimitPerMin, middleware.FailClosed, middleware.ClientIPKeyFunc)
}

func provideForgotRateLimiter(cfg *config.Config, redisClient redis.UniversalClient) router.ForgotRateLimiterFunc {
	return buildLimiter(cfg, redisClient, "forgot", cfg.AuthPasswordForgotRateLimitPerMin, middleware.FailClosed, middleware.ClientIPKeyFunc)
}

func provideRouterDependencies(
	authHandler *handler.AuthHandler,
	passwordResetHandler *handler.PasswordResetHandler,
	userHandler *handler.UserHandler,
	blogHandler *handler.BlogHandler,
	eventHandler *handler.EventHandler,
	galleryHandler *handler.GalleryHandler,
	uploadHandler *handler.UploadHandler,
	jwt *security.JWTManager,
	authorizer service.Authorizer,
	globalRateLimiter router.GlobalRateLimiterFunc,
	authRateLimiter router.AuthRateLimiterFunc,
	forgotRateLimiter router.ForgotRateLimiterFunc,
	idempotency router.IdempotencyMiddlewareFactory,
	readiness *health.ProbeRunner,
	cfg *config.Config,
) router.Dependencies {
	return router.Dependencies{
		AuthHandler:          authHandler,
		PasswordResetHandler: passwordResetHandler,
		UserHandler:          userHandler,
		BlogHandler:          blogHandler,
		EventHandler:         eventHandler,
		GalleryHandler:       galleryHandler,
		UploadHandler:        uploadHandler,
		JWTManager:           jwt,
		Authorizer:           authorizer,
		CORSOrigins:          cfg.CORSAllowedOrigins,
		UploadMaxBytes:       cfg.UploadMaxBytes,
		AuthRateLimitRPM:     cfg.AuthRateLimitPerMin,
		ForgotRateLimitRPM:   cfg.AuthPasswordForgotRateLimitPerMin,
		APIRateLimitRPM:      cfg.APIRateLimitPerMin,
		GlobalRateLimiter:    globalRateLimiter,
		AuthRateLimiter:      authRateLimiter,
		ForgotRateLimiter:    forgotRateLimiter,
		Readiness:            readiness,
		Idempotency:          idempotency,
		EnableOTelHTTP:       cfg.OTELMetricsEnabled || cfg.OTELTracingEnabled,
	}
}

func provideHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           h,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func readinessCheckers(cfg *config.Config, db *gorm.DB, redisClient redis.UniversalClient, storage service.ImageStorage) []health.Checker {
	checkers := []health.Checker{health.NewDBChecker(db)}
	if redisClient != nil {
		checkers = append(checkers, health.NewRedisChecker(redisClient))
	}
	if cfg.StorageEnabled {
		checkers = append(checkers, health.NewStorageChecker(storage))
	}
	return checkers
}

func provideReadinessProbeRunner(cfg *config.Config, db *gorm.DB, redisClient redis.UniversalClient, storage service.ImageStorage) *health.ProbeRunner {
	return health.NewProbeRunner(cfg.ReadinessProbeTimeout, cfg.ServerStartGracePeriod, readinessCheckers(cfg, db, redisClient, storage)...)
}

func provideBootstrapLogger(cfg *config.Config) *slog.Logger {
	return observability.NewBootstrapLogger(cfg)
}

// DependencyCheck runs the readiness checks once, without the startup grace
// period, for use from deploy scripts.
type DependencyCheck struct {
	probes *health.ProbeRunner
	db     *gorm.DB
	redis  redis.UniversalClient
	logger *slog.Logger
}

func NewDependencyCheck(cfg *config.Config, db *gorm.DB, redisClient redis.UniversalClient, storage service.ImageStorage, logger *slog.Logger) *DependencyCheck {
	return &DependencyCheck{
		probes: health.NewProbeRunner(cfg.ReadinessProbeTimeout, 0, readinessCheckers(cfg, db, redisClient, storage)...),
		db:     db,
		redis:  redisClient,
		logger: logger,
	}
}

func (d *DependencyCheck) Run(ctx context.Context) error {
	defer d.close()
	ready, results := d.probes.Ready(ctx)
	var failed []string
	for _, res := range results {
		d.logger.Info("dependency check", "name", res.Name, "healthy", res.Healthy, "duration_ms", res.DurationMS, "error", res.Error)
		if !res.Healthy {
			failed = append(failed, res.Name)
		}
	}
	if !ready {
		return fmt.Errorf("dependencies not ready: %s", strings.Join(failed, ", "))
	}
	return nil
}

func (d *DependencyCheck) close() {
	if d.redis != nil {
		_ = d.redis.Close()
	}
	if sqlDB, err := d.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func provideApp(
	cfg *config.Config,
	logger *slog.Logger,
	server *http.Server,
	runtime *observability.Runtime,
	db *gorm.DB,
	redisClient redis.UniversalClient,
	readiness *health.ProbeRunner,
) *app.App {
	return app.New(cfg, logger, server, runtime, db, redisClient, readiness)
}
