package integration

import (
	"net/http"
	"testing"
	"time"

	"github.com/tooffoundation/site-backend/internal/service"
)

func wrongCode(actual string) string {
	if actual == "000000" {
		return "999999"
	}
	return "000000"
}

func TestPasswordResetFullFlow(t *testing.T) {
	s := newTestServer(t)
	const email = "reset-flow@example.org"
	s.signUp(t, email)

	resp, env := s.do(t, http.MethodPost, "/api/v1/auth/password/forgot", map[string]string{"email": email}, "")
	s.expect(t, resp, env, http.StatusOK, "")
	var accepted struct {
		Message string `json:"message"`
	}
	decodeData(t, env, &accepted)
	if accepted.Message != service.PasswordResetAcceptedMessage {
		t.Fatalf("unexpected forgot message %q", accepted.Message)
	}
	code := s.notifier.lastCode(email)
	if len(code) != 6 {
		t.Fatalf("expected 6-digit code, got %q", code)
	}

	for i := 0; i < 3; i++ {
		resp, env = s.do(t, http.MethodPost, "/api/v1/auth/password/verify", map[string]string{"email": email, "code": wrongCode(code)}, "")
		s.expect(t, resp, env, http.StatusBadRequest, "CODE_MISMATCH")
	}

	resp, env = s.do(t, http.MethodPost, "/api/v1/auth/password/verify", map[string]string{"email": email, "code": code}, "")
	s.expect(t, resp, env, http.StatusOK, "")
	var verified struct {
		Valid bool   `json:"valid"`
		Email string `json:"email"`
	}
	decodeData(t, env, &verified)
	if !verified.Valid || verified.Email != email {
		t.Fatalf("unexpected verify payload %+v", verified)
	}

	resp, env = s.do(t, http.MethodPost, "/api/v1/auth/password/reset", map[string]string{"email": email, "code": code, "new_password": "brand-new-secret"}, "")
	s.expect(t, resp, env, http.StatusOK, "")

	resp, env = s.do(t, http.MethodPost, "/api/v1/auth/password/verify", map[string]string{"email": email, "code": code}, "")
	s.expect(t, resp, env, http.StatusBadRequest, "CODE_ALREADY_USED")

	resp, env = s.signIn(t, email, testPassword)
	s.expect(t, resp, env, http.StatusUnauthorized, "INVALID_CREDENTIALS")
	resp, env = s.signIn(t, email, "brand-new-secret")
	s.expect(t, resp, env, http.StatusOK, "")
}

func TestPasswordResetUnknownEmailLooksAccepted(t *testing.T) {
	s := newTestServer(t)

	resp, env := s.do(t, http.MethodPost, "/api/v1/auth/password/forgot", map[string]string{"email": "ghost@example.org"}, "")
	s.expect(t, resp, env, http.StatusOK, "")
	if code := s.notifier.lastCode("ghost@example.org"); code != "" {
		t.Fatalf("expected no code for unknown email, got %q", code)
	}

	resp, env = s.do(t, http.MethodPost, "/api/v1/auth/password/verify", map[string]string{"email": "ghost@example.org", "code": "123456"}, "")
	s.expect(t, resp, env, http.StatusBadRequest, "INVALID_CODE")
}

func TestPasswordResetAttemptsExhausted(t *testing.T) {
	s := newTestServerWithOptions(t, testServerOptions{maxAttempts: 2})
	const email = "exhausted@example.org"
	s.signUp(t, email)

	resp, env := s.do(t, http.MethodPost, "/api/v1/auth/password/forgot", map[string]string{"email": email}, "")
	s.expect(t, resp, env, http.StatusOK, "")
	code := s.notifier.lastCode(email)

	for i := 0; i < 2; i++ {
		resp, env = s.do(t, http.MethodPost, "/api/v1/auth/password/verify", map[string]string{"email": email, "code": wrongCode(code)}, "")
		s.expect(t, resp, env, http.StatusBadRequest, "CODE_MISMATCH")
	}
	resp, env = s.do(t, http.MethodPost, "/api/v1/auth/password/verify", map[string]string{"email": email, "code": code}, "")
	s.expect(t, resp, env, http.StatusTooManyRequests, "TOO_MANY_ATTEMPTS")

	resp, env = s.do(t, http.MethodPost, "/api/v1/auth/password/forgot", map[string]string{"email": email}, "")
	s.expect(t, resp, env, http.StatusOK, "")
	fresh := s.notifier.lastCode(email)
	resp, env = s.do(t, http.MethodPost, "/api/v1/auth/password/verify", map[string]string{"email": email, "code": fresh}, "")
	s.expect(t, resp, env, http.StatusOK, "")
}

func TestPasswordResetWeakPasswordKeepsCodeUsable(t *testing.T) {
	s := newTestServer(t)
	const email = "weak@example.org"
	s.signUp(t, email)

	resp, env := s.do(t, http.MethodPost, "/api/v1/auth/password/forgot", map[string]string{"email": email}, "")
	s.expect(t, resp, env, http.StatusOK, "")
	code := s.notifier.lastCode(email)

	resp, env = s.do(t, http.MethodPost, "/api/v1/auth/password/reset", map[string]string{"email": email, "code": code, "new_password": "abc"}, "")
	s.expect(t, resp, env, http.StatusBadRequest, "VALIDATION_ERROR")

	resp, env = s.do(t, http.MethodPost, "/api/v1/auth/password/verify", map[string]string{"email": email, "code": code}, "")
	s.expect(t, resp, env, http.StatusOK, "")
}

func TestPasswordResetAbuseGuardCoolsDown(t *testing.T) {
	guard := service.NewInMemoryAbuseGuard(service.BackoffPolicy{
		FreeAttempts: 2,
		BaseDelay:    time.Minute,
		Multiplier:   2,
		MaxDelay:     time.Hour,
		ResetWindow:  time.Hour,
	})
	s := newTestServerWithOptions(t, testServerOptions{guard: guard})
	const email = "guarded@example.org"
	s.signUp(t, email)

	resp, env := s.do(t, http.MethodPost, "/api/v1/auth/password/forgot", map[string]string{"email": email}, "")
	s.expect(t, resp, env, http.StatusOK, "")
	code := s.notifier.lastCode(email)

	var last *http.Response
	for i := 0; i < 4; i++ {
		last, env = s.do(t, http.MethodPost, "/api/v1/auth/password/verify", map[string]string{"email": email, "code": wrongCode(code)}, "")
		if last.StatusCode == http.StatusTooManyRequests {
			break
		}
	}
	s.expect(t, last, env, http.StatusTooManyRequests, "TOO_MANY_ATTEMPTS")
	if last.Header.Get("Retry-After") == "" {
		t.Fatal("expected Retry-After on cooldown")
	}
}
