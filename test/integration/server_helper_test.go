package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tooffoundation/site-backend/internal/database"
	"github.com/tooffoundation/site-backend/internal/health"
	"github.com/tooffoundation/site-backend/internal/http/handler"
	"github.com/tooffoundation/site-backend/internal/http/middleware"
	"github.com/tooffoundation/site-backend/internal/http/router"
	"github.com/tooffoundation/site-backend/internal/repository"
	"github.com/tooffoundation/site-backend/internal/security"
	"github.com/tooffoundation/site-backend/internal/service"
)

const (
	testBootstrapAdmin = "root@example.org"
	testPassword       = "correct-horse"
)

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func (e apiEnvelope) code() string {
	if e.Error == nil {
		return ""
	}
	return e.Error.Code
}

type codeCaptureNotifier struct {
	mu    sync.Mutex
	codes map[string]string
}

func (n *codeCaptureNotifier) SendPasswordResetCode(_ context.Context, notification service.PasswordResetNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.codes == nil {
		n.codes = map[string]string{}
	}
	n.codes[notification.Email] = notification.Code
	return nil
}

func (n *codeCaptureNotifier) lastCode(email string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.codes[email]
}

type testServerOptions struct {
	guard           service.AbuseGuard
	storage         service.ImageStorage
	forgotRateLimit int
	maxAttempts     int
}

type testServer struct {
	baseURL  string
	client   *http.Client
	notifier *codeCaptureNotifier
}

func newTestServer(t *testing.T) *testServer {
	return newTestServerWithOptions(t, testServerOptions{})
}

func newTestServerWithOptions(t *testing.T, opts testServerOptions) *testServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := database.OpenURL(dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if opts.guard == nil {
		opts.guard = service.NewNoopAbuseGuard()
	}
	if opts.storage == nil {
		opts.storage = service.DisabledImageStorage{}
	}
	if opts.forgotRateLimit <= 0 {
		opts.forgotRateLimit = 1000
	}
	if opts.maxAttempts <= 0 {
		opts.maxAttempts = 5
	}

	users := repository.NewUserRepository(db)
	hasher := security.NewPasswordHasher(security.Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16})
	jwtMgr := security.NewJWTManager("site-backend", "site-web", "abcdefghijklmnopqrstuvwxyz123456")
	cookieMgr := security.NewCookieManager("", false, "lax")
	notifier := &codeCaptureNotifier{}
	cache := service.ContentCachePolicy{Cache: service.NewInMemoryListCache(), TTL: time.Minute}

	authSvc := service.NewAuthService(users, hasher, jwtMgr, opts.guard, service.AuthPolicy{
		AccessTTL:           15 * time.Minute,
		BootstrapAdminEmail: testBootstrapAdmin,
	})
	userSvc := service.NewUserService(users)
	resetSvc := service.NewPasswordResetService(users, repository.NewPasswordResetRepository(db), hasher, notifier, logger, service.PasswordResetPolicy{
		CodeTTL:     15 * time.Minute,
		MaxAttempts: opts.maxAttempts,
	})
	blogSvc := service.NewBlogService(repository.NewBlogRepository(db), security.NewContentSanitizer(), opts.storage, cache, logger)
	eventSvc := service.NewEventService(repository.NewEventRepository(db), opts.storage, cache, logger)
	gallerySvc := service.NewGalleryService(repository.NewGalleryRepository(db), opts.storage, cache, logger)

	h := router.NewRouter(router.Dependencies{
		AuthHandler:          handler.NewAuthHandler(authSvc, userSvc, cookieMgr, 15*time.Minute),
		PasswordResetHandler: handler.NewPasswordResetHandler(resetSvc, opts.guard),
		UserHandler:          handler.NewUserHandler(userSvc),
		BlogHandler:          handler.NewBlogHandler(blogSvc),
		EventHandler:         handler.NewEventHandler(eventSvc),
		GalleryHandler:       handler.NewGalleryHandler(gallerySvc),
		UploadHandler:        handler.NewUploadHandler(opts.storage, 1<<20),
		JWTManager:           jwtMgr,
		Authorizer:           service.NewAuthorizationGate(users),
		UploadMaxBytes:       1 << 20,
		AuthRateLimitRPM:     1000,
		ForgotRateLimitRPM:   opts.forgotRateLimit,
		APIRateLimitRPM:      1000,
		Readiness:            health.NewProbeRunner(time.Second, 0, health.NewDBChecker(db)),
		Idempotency:          middleware.NewIdempotency(service.NewInMemoryIdempotencyStore(), time.Hour).Middleware,
	})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &testServer{baseURL: srv.URL, client: srv.Client(), notifier: notifier}
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) (*http.Response, apiEnvelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.baseURL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.send(t, req)
}

func (s *testServer) send(t *testing.T, req *http.Request) (*http.Response, apiEnvelope) {
	t.Helper()
	resp, err := s.client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var env apiEnvelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("decode envelope: %v body=%s", err, raw)
		}
	}
	return resp, env
}

func (s *testServer) expect(t *testing.T, resp *http.Response, env apiEnvelope, status int, code string) {
	t.Helper()
	if resp.StatusCode != status {
		t.Fatalf("expected status %d, got %d (%s)", status, resp.StatusCode, env.code())
	}
	if env.code() != code {
		t.Fatalf("expected code %q, got %q", code, env.code())
	}
}

type sessionData struct {
	AccessToken string `json:"access_token"`
	User        struct {
		ID    uint   `json:"id"`
		Email string `json:"email"`
		Role  string `json:"role"`
	} `json:"user"`
}

func (s *testServer) signUp(t *testing.T, email string) sessionData {
	t.Helper()
	resp, env := s.do(t, http.MethodPost, "/api/v1/auth/signup", map[string]string{
		"email":    email,
		"name":     "Member " + email,
		"password": testPassword,
	}, "")
	s.expect(t, resp, env, http.StatusCreated, "")
	var out sessionData
	decodeData(t, env, &out)
	if out.AccessToken == "" {
		t.Fatal("expected access token")
	}
	return out
}

func (s *testServer) signIn(t *testing.T, email, password string) (*http.Response, apiEnvelope) {
	t.Helper()
	return s.do(t, http.MethodPost, "/api/v1/auth/signin", map[string]string{"email": email, "password": password}, "")
}

func decodeData(t *testing.T, env apiEnvelope, dst any) {
	t.Helper()
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("decode data: %v (%s)", err, env.Data)
	}
}
