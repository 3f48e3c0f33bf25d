package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tooffoundation/site-backend/internal/domain"
	"github.com/tooffoundation/site-backend/internal/http/middleware"
	"github.com/tooffoundation/site-backend/internal/security"
)

const testJWTSecret = "abcdefghijklmnopqrstuvwxyz123456"

var testAdmin = &domain.User{ID: 1, Email: "admin@example.org", Name: "Site Admin", Role: domain.RoleAdmin}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

type staticAuthorizer struct {
	user *domain.User
}

func (a staticAuthorizer) Authorize(context.Context, string) (*domain.User, error) {
	return a.user, nil
}

func newTestJWTManager() *security.JWTManager {
	return security.NewJWTManager("iss", "aud", testJWTSecret)
}

func bearerForTest(t *testing.T, u *domain.User) string {
	t.Helper()
	tok, err := newTestJWTManager().SignAccessToken(u.ID, u.Email, u.Role, time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + tok
}

// adminRouter mounts routes behind the same auth and admin gate the real
// router uses, with the gate always admitting testAdmin.
func adminRouter(mount func(r chi.Router)) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.AuthMiddleware(newTestJWTManager()))
	r.Use(middleware.RequireAdmin(staticAuthorizer{user: testAdmin}))
	mount(r)
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path, body, auth string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "203.0.113.7:5050"
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr, decodeEnvelope(t, rr)
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v body=%s", err, rr.Body.String())
	}
	return env
}

func expectError(t *testing.T, rr *httptest.ResponseRecorder, env envelope, status int, code string) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("expected status %d, got %d body=%s", status, rr.Code, rr.Body.String())
	}
	if env.Success || env.Error == nil || env.Error.Code != code {
		t.Fatalf("expected error code %s, got %s", code, rr.Body.String())
	}
}

func unmarshalData(t *testing.T, env envelope, dst any) {
	t.Helper()
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}
