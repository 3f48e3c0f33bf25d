package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tooffoundation/site-backend/internal/domain"
	"github.com/tooffoundation/site-backend/internal/security"
	"github.com/tooffoundation/site-backend/internal/service"
)

type stubAuthorizer struct {
	user  *domain.User
	err   error
	calls []string
}

func (s *stubAuthorizer) Authorize(_ context.Context, email string) (*domain.User, error) {
	s.calls = append(s.calls, email)
	return s.user, s.err
}

func newTestJWT(t *testing.T) (*security.JWTManager, string) {
	t.Helper()
	jwtMgr := security.NewJWTManager("iss", "aud", "abcdefghijklmnopqrstuvwxyz123456")
	token, err := jwtMgr.SignAccessToken(9, "admin@example.org", domain.RoleAdmin, 15*time.Minute)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return jwtMgr, token
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Success bool `json:"success"`
		Error   struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env.Success {
		t.Fatal("expected success=false")
	}
	return env.Error.Code
}

func TestAuthMiddlewareRejectsMissingAndInvalidTokens(t *testing.T) {
	jwtMgr, _ := newTestJWT(t)
	h := AuthMiddleware(jwtMgr)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Fatal("handler must not run")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil))
	if rr.Code != http.StatusUnauthorized || errorCode(t, rr) != "UNAUTHORIZED" {
		t.Fatalf("expected 401 UNAUTHORIZED, got %d %s", rr.Code, rr.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for invalid token, got %d", rr.Code)
	}
}

func TestAuthMiddlewareRecordsTokenSource(t *testing.T) {
	jwtMgr, token := newTestJWT(t)
	var gotSource string
	var gotEmail string
	h := AuthMiddleware(jwtMgr)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSource = tokenSourceFromContext(r.Context())
		if claims, ok := ClaimsFromContext(r.Context()); ok {
			gotEmail = claims.Email
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: security.AccessTokenCookieName, Value: token})
	req.Header.Set("Authorization", "Bearer ignored")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent || gotSource != TokenSourceCookie || gotEmail != "admin@example.org" {
		t.Fatalf("unexpected cookie auth result: code=%d source=%q email=%q", rr.Code, gotSource, gotEmail)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "bearer "+token)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent || gotSource != TokenSourceHeader {
		t.Fatalf("unexpected header auth result: code=%d source=%q", rr.Code, gotSource)
	}
}

func TestRequireAdminAllowsAdminAndStoresUser(t *testing.T) {
	jwtMgr, token := newTestJWT(t)
	gate := &stubAuthorizer{user: &domain.User{ID: 9, Email: "admin@example.org", Role: domain.RoleAdmin}}
	var admin *domain.User
	h := AuthMiddleware(jwtMgr)(RequireAdmin(gate)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		admin, _ = AdminFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/blogs", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if admin == nil || admin.ID != 9 {
		t.Fatalf("expected admin in context, got %+v", admin)
	}
	if len(gate.calls) != 1 || gate.calls[0] != "admin@example.org" {
		t.Fatalf("expected gate called with token email, got %v", gate.calls)
	}
}

func TestRequireAdminMapsGateErrors(t *testing.T) {
	jwtMgr, token := newTestJWT(t)
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "denied", err: service.ErrUnauthorized, status: http.StatusForbidden, code: "UNAUTHORIZED"},
		{name: "store failure", err: errors.New("db down"), status: http.StatusInternalServerError, code: "INTERNAL"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := AuthMiddleware(jwtMgr)(RequireAdmin(&stubAuthorizer{err: tc.err})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				t.Fatal("handler must not run")
			})))
			req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/blogs/1", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rr.Code)
			}
			if got := errorCode(t, rr); got != tc.code {
				t.Fatalf("expected code %s, got %s", tc.code, got)
			}
		})
	}
}

func TestRequireAdminWithoutClaimsIsUnauthorized(t *testing.T) {
	h := RequireAdmin(&stubAuthorizer{})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Fatal("handler must not run")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/admin/users", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}
