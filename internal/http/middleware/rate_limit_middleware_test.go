package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/tooffoundation/site-backend/internal/security"
)

type mockLimiter struct {
	allow bool
	retry time.Duration
	err   error
}

func (m mockLimiter) Allow(context.Context, string, int, time.Duration) (Decision, error) {
	return Decision{
		Allowed:    m.allow,
		RetryAfter: m.retry,
		Remaining:  0,
		ResetAt:    time.Now().Add(m.retry),
	}, m.err
}

type recordingLimiter struct {
	lastKey string
	allow   bool
}

func (r *recordingLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (Decision, error) {
	r.lastKey = key
	return Decision{
		Allowed:   r.allow,
		Remaining: max(limit-1, 0),
		ResetAt:   time.Now().Add(window),
	}, nil
}

func serveLimited(rl *RateLimiter, req *http.Request) *httptest.ResponseRecorder {
	h := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestDistributedRateLimiterFailOpenOnBackendError(t *testing.T) {
	rl := NewDistributedRateLimiter(mockLimiter{err: errors.New("redis down")}, 10, time.Minute, FailOpen, "api")
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.RemoteAddr = "10.0.0.1:1111"
	if rr := serveLimited(rl, req); rr.Code != http.StatusOK {
		t.Fatalf("expected fail-open to allow request, got %d", rr.Code)
	}
}

func TestDistributedRateLimiterFailClosedOnBackendError(t *testing.T) {
	rl := NewDistributedRateLimiter(mockLimiter{err: errors.New("redis down")}, 10, time.Minute, FailClosed, "forgot")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/password/forgot", nil)
	req.RemoteAddr = "10.0.0.1:1111"
	if rr := serveLimited(rl, req); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected fail-closed to reject request, got %d", rr.Code)
	}
}

func TestDistributedRateLimiterDeniedSetsRetryAfter(t *testing.T) {
	rl := NewDistributedRateLimiter(mockLimiter{allow: false, retry: 5 * time.Second}, 1, time.Minute, FailClosed, "api")
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.RemoteAddr = "10.0.0.1:1111"
	rr := serveLimited(rl, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if got := rr.Header().Get("Retry-After"); got != "5" {
		t.Fatalf("expected Retry-After=5, got %q", got)
	}
	if got := rr.Header().Get("X-RateLimit-Limit"); got != "1" {
		t.Fatalf("expected X-RateLimit-Limit=1, got %q", got)
	}
	if got := rr.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Fatalf("expected X-RateLimit-Remaining=0, got %q", got)
	}
	if got := rr.Header().Get("X-RateLimit-Reset"); got == "" {
		t.Fatal("expected X-RateLimit-Reset header")
	} else if _, err := strconv.ParseInt(got, 10, 64); err != nil {
		t.Fatalf("expected numeric X-RateLimit-Reset, got %q", got)
	}
}

func TestDistributedRateLimiterAllowedSetsRateLimitHeaders(t *testing.T) {
	rl := NewDistributedRateLimiter(mockLimiter{allow: true, retry: time.Minute}, 3, time.Minute, FailClosed, "api")
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.RemoteAddr = "10.0.0.1:1111"
	rr := serveLimited(rl, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got := rr.Header().Get("X-RateLimit-Limit"); got != "3" {
		t.Fatalf("expected X-RateLimit-Limit=3, got %q", got)
	}
	if got := rr.Header().Get("Retry-After"); got != "" {
		t.Fatalf("did not expect Retry-After on allowed response, got %q", got)
	}
}

func TestLocalLimiterCountsPerClientWithinWindow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute, "forgot")
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/forgot", nil)
		req.RemoteAddr = "192.0.2.1:1000"
		if rr := serveLimited(rl, req); rr.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rr.Code)
		}
	}
	req := httptest.NewRequest(http.MethodPost, "/forgot", nil)
	req.RemoteAddr = "192.0.2.1:1001"
	if rr := serveLimited(rl, req); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected third request to be limited, got %d", rr.Code)
	}

	other := httptest.NewRequest(http.MethodPost, "/forgot", nil)
	other.RemoteAddr = "192.0.2.2:1000"
	if rr := serveLimited(rl, other); rr.Code != http.StatusOK {
		t.Fatalf("expected other client to have its own bucket, got %d", rr.Code)
	}
}

func TestLocalLimiterResetsAfterWindow(t *testing.T) {
	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	limiter := &localFixedWindowLimiter{store: map[string]*fixedWindow{}, cleanup: now.Add(time.Hour), now: func() time.Time { return now }}

	if d, _ := limiter.Allow(context.Background(), "k", 1, time.Minute); !d.Allowed {
		t.Fatal("expected first request allowed")
	}
	d, _ := limiter.Allow(context.Background(), "k", 1, time.Minute)
	if d.Allowed || d.RetryAfter != time.Minute {
		t.Fatalf("expected denial with full retry window, got %+v", d)
	}
	now = now.Add(time.Minute)
	if d, _ := limiter.Allow(context.Background(), "k", 1, time.Minute); !d.Allowed {
		t.Fatal("expected a fresh window to allow")
	}
}

func TestSubjectOrIPKeyFuncUsesSubjectWhenAccessTokenValid(t *testing.T) {
	jwtMgr := security.NewJWTManager("iss", "aud", "abcdefghijklmnopqrstuvwxyz123456")
	token, err := jwtMgr.SignAccessToken(42, "admin@example.org", "admin", 15*time.Minute)
	if err != nil {
		t.Fatalf("sign access token: %v", err)
	}

	limiter := &recordingLimiter{allow: true}
	rl := NewDistributedRateLimiterWithKey(limiter, 10, time.Minute, FailClosed, "api", SubjectOrIPKeyFunc(jwtMgr))
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.RemoteAddr = "10.0.0.1:1111"
	req.Header.Set("Authorization", "Bearer "+token)
	if rr := serveLimited(rl, req); rr.Code != http.StatusOK {
		t.Fatalf("expected request to pass, got %d", rr.Code)
	}
	if limiter.lastKey != "api:sub:42" {
		t.Fatalf("expected subject key, got %q", limiter.lastKey)
	}
}

func TestSubjectOrIPKeyFuncFallsBackToIPWhenTokenInvalid(t *testing.T) {
	jwtMgr := security.NewJWTManager("iss", "aud", "abcdefghijklmnopqrstuvwxyz123456")
	limiter := &recordingLimiter{allow: true}
	rl := NewDistributedRateLimiterWithKey(limiter, 10, time.Minute, FailClosed, "api", SubjectOrIPKeyFunc(jwtMgr))
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.RemoteAddr = "10.0.0.1:1111"
	req.Header.Set("Authorization", "Bearer not-a-token")
	if rr := serveLimited(rl, req); rr.Code != http.StatusOK {
		t.Fatalf("expected request to pass, got %d", rr.Code)
	}
	if limiter.lastKey != "api:10.0.0.1" {
		t.Fatalf("expected IP key fallback, got %q", limiter.lastKey)
	}
}
