package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	NotifierModeLog   = "log"
	NotifierModeSMTP  = "smtp"
	NotifierModeBrevo = "brevo"
)

type Config struct {
	Env      string
	HTTPPort string

	DatabaseURL string

	JWTIssuer          string
	JWTAudience        string
	JWTAccessSecret    string
	JWTAccessTTL       time.Duration
	CookieDomain       string
	CookieSecure       bool
	CookieSameSite     string
	CORSAllowedOrigins []string

	BootstrapAdminEmail    string
	BootstrapAdminPassword string
	BootstrapAdminName     string

	PasswordResetCodeTTL     time.Duration
	PasswordResetMaxAttempts int

	NotifierMode     string
	NotifierTimeout  time.Duration
	MailFromName     string
	MailFromAddress  string
	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	SMTPTLSPolicy    string
	BrevoAPIKey      string
	BrevoAPIEndpoint string

	AuthRateLimitPerMin               int
	APIRateLimitPerMin                int
	AuthPasswordForgotRateLimitPerMin int
	RateLimitRedisEnabled             bool
	RateLimitRedisPrefix              string

	AuthAbuseProtectionEnabled bool
	AuthAbuseFreeAttempts      int
	AuthAbuseBaseDelay         time.Duration
	AuthAbuseMultiplier        float64
	AuthAbuseMaxDelay          time.Duration
	AuthAbuseResetWindow       time.Duration

	ListCacheEnabled bool
	ListCacheTTL     time.Duration

	IdempotencyEnabled bool
	IdempotencyTTL     time.Duration

	RedisAddr         string
	RedisUsername     string
	RedisPassword     string
	RedisDB           int
	RedisDialTimeout  time.Duration
	RedisReadTimeout  time.Duration
	RedisWriteTimeout time.Duration
	RedisPoolSize     int
	RedisMaxRetries   int

	StorageEnabled       bool
	StorageEndpoint      string
	StorageAccessKey     string
	StorageSecretKey     string
	StorageBucket        string
	StorageUseSSL        bool
	StoragePublicBaseURL string
	UploadMaxBytes       int64

	LogFormat string

	OTELServiceName           string
	OTELEnvironment           string
	OTELExporterOTLPEndpoint  string
	OTELExporterOTLPInsecure  bool
	OTELMetricsExportInterval time.Duration
	OTELTraceSamplingRatio    float64
	OTELMetricsEnabled        bool
	OTELTracingEnabled        bool
	OTELLogsEnabled           bool
	OTELLogLevel              string

	ReadinessProbeTimeout        time.Duration
	ServerStartGracePeriod       time.Duration
	ShutdownTimeout              time.Duration
	ShutdownHTTPDrainTimeout     time.Duration
	ShutdownObservabilityTimeout time.Duration
}

// RedisEnabled reports whether a Redis server is configured. The abuse guard
// and list cache move to Redis whenever it is; rate limiting also needs
// RateLimitRedisEnabled.
func (c *Config) RedisEnabled() bool {
	return strings.TrimSpace(c.RedisAddr) != ""
}

func Load() (*Config, error) {
	env := getEnv("APP_ENV", "development")
	cfg := &Config{
		Env:                               env,
		HTTPPort:                          getEnv("HTTP_PORT", "8080"),
		DatabaseURL:                       os.Getenv("DATABASE_URL"),
		JWTIssuer:                         getEnv("JWT_ISSUER", "site-backend"),
		JWTAudience:                       getEnv("JWT_AUDIENCE", "site-backend-api"),
		JWTAccessSecret:                   os.Getenv("JWT_ACCESS_SECRET"),
		CookieDomain:                      os.Getenv("COOKIE_DOMAIN"),
		CookieSecure:                      getEnvBool("COOKIE_SECURE", true),
		CookieSameSite:                    strings.ToLower(getEnv("COOKIE_SAMESITE", "lax")),
		CORSAllowedOrigins:                splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		BootstrapAdminEmail:               strings.TrimSpace(strings.ToLower(os.Getenv("BOOTSTRAP_ADMIN_EMAIL"))),
		BootstrapAdminPassword:            os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"),
		BootstrapAdminName:                getEnv("BOOTSTRAP_ADMIN_NAME", "Administrator"),
		PasswordResetMaxAttempts:          getEnvInt("PASSWORD_RESET_MAX_ATTEMPTS", 5),
		NotifierMode:                      strings.ToLower(getEnv("NOTIFIER_MODE", NotifierModeLog)),
		MailFromName:                      getEnv("MAIL_FROM_NAME", "TOOF Foundation"),
		MailFromAddress:                   getEnv("MAIL_FROM_ADDRESS", "noreply@tooffoundation.org"),
		SMTPHost:                          os.Getenv("SMTP_HOST"),
		SMTPPort:                          getEnvInt("SMTP_PORT", 587),
		SMTPUsername:                      os.Getenv("SMTP_USERNAME"),
		SMTPPassword:                      os.Getenv("SMTP_PASSWORD"),
		SMTPTLSPolicy:                     strings.ToLower(getEnv("SMTP_TLS_POLICY", "mandatory")),
		BrevoAPIKey:                       os.Getenv("BREVO_API_KEY"),
		BrevoAPIEndpoint:                  getEnv("BREVO_API_ENDPOINT", "https://api.brevo.com/v3/smtp/email"),
		AuthRateLimitPerMin:               getEnvInt("AUTH_RATE_LIMIT_PER_MIN", 30),
		APIRateLimitPerMin:                getEnvInt("API_RATE_LIMIT_PER_MIN", 120),
		AuthPasswordForgotRateLimitPerMin: getEnvInt("AUTH_PASSWORD_FORGOT_RATE_LIMIT_PER_MIN", 5),
		RateLimitRedisEnabled:             getEnvBool("RATE_LIMIT_REDIS_ENABLED", false),
		RateLimitRedisPrefix:              getEnv("RATE_LIMIT_REDIS_PREFIX", "site:rl"),
		AuthAbuseProtectionEnabled:        getEnvBool("AUTH_ABUSE_PROTECTION_ENABLED", true),
		AuthAbuseFreeAttempts:             getEnvInt("AUTH_ABUSE_FREE_ATTEMPTS", 3),
		AuthAbuseMultiplier:               getEnvFloat("AUTH_ABUSE_MULTIPLIER", 2),
		ListCacheEnabled:                  getEnvBool("LIST_CACHE_ENABLED", true),
		IdempotencyEnabled:                getEnvBool("IDEMPOTENCY_ENABLED", true),
		RedisAddr:                         os.Getenv("REDIS_ADDR"),
		RedisUsername:                     os.Getenv("REDIS_USERNAME"),
		RedisPassword:                     os.Getenv("REDIS_PASSWORD"),
		RedisDB:                           getEnvInt("REDIS_DB", 0),
		RedisPoolSize:                     getEnvInt("REDIS_POOL_SIZE", 10),
		RedisMaxRetries:                   getEnvInt("REDIS_MAX_RETRIES", 3),
		StorageEnabled:                    getEnvBool("STORAGE_ENABLED", false),
		StorageEndpoint:                   os.Getenv("STORAGE_ENDPOINT"),
		StorageAccessKey:                  os.Getenv("STORAGE_ACCESS_KEY"),
		StorageSecretKey:                  os.Getenv("STORAGE_SECRET_KEY"),
		StorageBucket:                     getEnv("STORAGE_BUCKET", "site-images"),
		StorageUseSSL:                     getEnvBool("STORAGE_USE_SSL", false),
		StoragePublicBaseURL:              strings.TrimRight(os.Getenv("STORAGE_PUBLIC_BASE_URL"), "/"),
		UploadMaxBytes:                    int64(getEnvInt("UPLOAD_MAX_BYTES", 5*1024*1024)),
		LogFormat:                         strings.ToLower(getEnv("LOG_FORMAT", "json")),

		OTELServiceName:          getEnv("OTEL_SERVICE_NAME", "site-backend"),
		OTELEnvironment:          getEnv("OTEL_ENVIRONMENT", env),
		OTELExporterOTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTELExporterOTLPInsecure: getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		OTELTraceSamplingRatio:   getEnvFloat("OTEL_TRACE_SAMPLING_RATIO", 1.0),
		OTELMetricsEnabled:       getEnvBool("OTEL_METRICS_ENABLED", true),
		OTELTracingEnabled:       getEnvBool("OTEL_TRACING_ENABLED", true),
		OTELLogsEnabled:          getEnvBool("OTEL_LOGS_ENABLED", true),
		OTELLogLevel:             strings.ToLower(getEnv("OTEL_LOG_LEVEL", "info")),
	}

	durations := []struct {
		key    string
		def    string
		target *time.Duration
	}{
		{"JWT_ACCESS_TTL", "24h", &cfg.JWTAccessTTL},
		{"PASSWORD_RESET_CODE_TTL", "10m", &cfg.PasswordResetCodeTTL},
		{"NOTIFIER_TIMEOUT", "10s", &cfg.NotifierTimeout},
		{"AUTH_ABUSE_BASE_DELAY", "2s", &cfg.AuthAbuseBaseDelay},
		{"AUTH_ABUSE_MAX_DELAY", "5m", &cfg.AuthAbuseMaxDelay},
		{"AUTH_ABUSE_RESET_WINDOW", "30m", &cfg.AuthAbuseResetWindow},
		{"LIST_CACHE_TTL", "30s", &cfg.ListCacheTTL},
		{"IDEMPOTENCY_TTL", "24h", &cfg.IdempotencyTTL},
		{"REDIS_DIAL_TIMEOUT", "5s", &cfg.RedisDialTimeout},
		{"REDIS_READ_TIMEOUT", "3s", &cfg.RedisReadTimeout},
		{"REDIS_WRITE_TIMEOUT", "3s", &cfg.RedisWriteTimeout},
		{"OTEL_METRICS_EXPORT_INTERVAL", "10s", &cfg.OTELMetricsExportInterval},
		{"READINESS_PROBE_TIMEOUT", "1s", &cfg.ReadinessProbeTimeout},
		{"SERVER_START_GRACE_PERIOD", "2s", &cfg.ServerStartGracePeriod},
		{"SHUTDOWN_TIMEOUT", "20s", &cfg.ShutdownTimeout},
		{"SHUTDOWN_HTTP_DRAIN_TIMEOUT", "10s", &cfg.ShutdownHTTPDrainTimeout},
		{"SHUTDOWN_OBSERVABILITY_TIMEOUT", "8s", &cfg.ShutdownObservabilityTimeout},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(getEnv(d.key, d.def))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.target = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string
	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if len(c.JWTAccessSecret) < 32 {
		errs = append(errs, "JWT_ACCESS_SECRET must be at least 32 chars")
	}
	if c.JWTAccessTTL <= 0 || c.JWTAccessTTL > 7*24*time.Hour {
		errs = append(errs, "JWT_ACCESS_TTL must be between 1s and 7d")
	}
	if c.PasswordResetCodeTTL <= 0 || c.PasswordResetCodeTTL > 24*time.Hour {
		errs = append(errs, "PASSWORD_RESET_CODE_TTL must be between 1s and 24h")
	}
	if c.PasswordResetMaxAttempts <= 0 {
		errs = append(errs, "PASSWORD_RESET_MAX_ATTEMPTS must be > 0")
	}
	switch c.NotifierMode {
	case NotifierModeLog:
	case NotifierModeSMTP:
		if c.SMTPHost == "" {
			errs = append(errs, "SMTP_HOST is required when NOTIFIER_MODE=smtp")
		}
		if c.SMTPPort <= 0 {
			errs = append(errs, "SMTP_PORT must be > 0")
		}
		if !isValidSMTPTLSPolicy(c.SMTPTLSPolicy) {
			errs = append(errs, "SMTP_TLS_POLICY must be one of mandatory, opportunistic, none")
		}
	case NotifierModeBrevo:
		if c.BrevoAPIKey == "" {
			errs = append(errs, "BREVO_API_KEY is required when NOTIFIER_MODE=brevo")
		}
	default:
		errs = append(errs, "NOTIFIER_MODE must be one of log, smtp, brevo")
	}
	if c.NotifierMode != NotifierModeLog && c.MailFromAddress == "" {
		errs = append(errs, "MAIL_FROM_ADDRESS is required when email delivery is enabled")
	}
	if c.AuthRateLimitPerMin <= 0 {
		errs = append(errs, "AUTH_RATE_LIMIT_PER_MIN must be > 0")
	}
	if c.APIRateLimitPerMin <= 0 {
		errs = append(errs, "API_RATE_LIMIT_PER_MIN must be > 0")
	}
	if c.AuthPasswordForgotRateLimitPerMin <= 0 {
		errs = append(errs, "AUTH_PASSWORD_FORGOT_RATE_LIMIT_PER_MIN must be > 0")
	}
	if c.RateLimitRedisEnabled && c.RedisAddr == "" {
		errs = append(errs, "REDIS_ADDR is required when RATE_LIMIT_REDIS_ENABLED=true")
	}
	if c.ListCacheEnabled && c.ListCacheTTL <= 0 {
		errs = append(errs, "LIST_CACHE_TTL must be > 0 when LIST_CACHE_ENABLED=true")
	}
	if c.IdempotencyEnabled && c.IdempotencyTTL <= 0 {
		errs = append(errs, "IDEMPOTENCY_TTL must be > 0 when IDEMPOTENCY_ENABLED=true")
	}
	if c.StorageEnabled {
		if c.StorageEndpoint == "" || c.StorageAccessKey == "" || c.StorageSecretKey == "" || c.StorageBucket == "" {
			errs = append(errs, "STORAGE_ENDPOINT, STORAGE_ACCESS_KEY, STORAGE_SECRET_KEY and STORAGE_BUCKET are required when STORAGE_ENABLED=true")
		}
		if c.StoragePublicBaseURL == "" {
			errs = append(errs, "STORAGE_PUBLIC_BASE_URL is required when STORAGE_ENABLED=true")
		}
	}
	if c.UploadMaxBytes <= 0 {
		errs = append(errs, "UPLOAD_MAX_BYTES must be > 0")
	}
	if c.CookieSameSite == "none" && !c.CookieSecure && !isLocalLikeEnv(c.Env) {
		errs = append(errs, "COOKIE_SAMESITE=none requires COOKIE_SECURE=true")
	}
	if isProductionEnv(c.Env) {
		if !c.CookieSecure {
			errs = append(errs, "COOKIE_SECURE must be true in production")
		}
		if c.NotifierMode == NotifierModeLog {
			errs = append(errs, "NOTIFIER_MODE=log is not allowed in production")
		}
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		errs = append(errs, "LOG_FORMAT must be json or text")
	}
	if (c.OTELMetricsEnabled || c.OTELTracingEnabled || c.OTELLogsEnabled) && c.OTELExporterOTLPEndpoint == "" {
		errs = append(errs, "OTEL_EXPORTER_OTLP_ENDPOINT is required when OTel is enabled")
	}
	if c.OTELTraceSamplingRatio < 0 || c.OTELTraceSamplingRatio > 1 {
		errs = append(errs, "OTEL_TRACE_SAMPLING_RATIO must be between 0 and 1")
	}
	if c.OTELMetricsExportInterval <= 0 {
		errs = append(errs, "OTEL_METRICS_EXPORT_INTERVAL must be > 0")
	}
	if !isValidLogLevel(c.OTELLogLevel) {
		errs = append(errs, "OTEL_LOG_LEVEL must be one of debug, info, warn, error")
	}
	if c.ReadinessProbeTimeout <= 0 {
		errs = append(errs, "READINESS_PROBE_TIMEOUT must be > 0")
	}
	if c.ShutdownTimeout <= 0 || c.ShutdownHTTPDrainTimeout <= 0 || c.ShutdownObservabilityTimeout <= 0 {
		errs = append(errs, "SHUTDOWN_* timeouts must be > 0")
	}
	if c.ShutdownHTTPDrainTimeout > c.ShutdownTimeout {
		errs = append(errs, "SHUTDOWN_HTTP_DRAIN_TIMEOUT must not exceed SHUTDOWN_TIMEOUT")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func isLocalLikeEnv(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "development", "dev", "local", "test":
		return true
	default:
		return false
	}
}

func isProductionEnv(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod":
		return true
	default:
		return false
	}
}

func isValidSMTPTLSPolicy(v string) bool {
	switch v {
	case "mandatory", "opportunistic", "none":
		return true
	default:
		return false
	}
}

func isValidLogLevel(v string) bool {
	switch strings.ToLower(v) {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trim := strings.TrimSpace(p)
		if trim != "" {
			out = append(out, trim)
		}
	}
	return out
}
