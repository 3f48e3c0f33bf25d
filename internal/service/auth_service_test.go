package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tooffoundation/site-backend/internal/domain"
	"github.com/tooffoundation/site-backend/internal/repository"
	"github.com/tooffoundation/site-backend/internal/security"
)

type authFixture struct {
	svc    *AuthService
	users  repository.UserRepository
	hasher *security.PasswordHasher
	tokens *security.JWTManager
	guard  *InMemoryAbuseGuard
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	db := newServiceDBForTest(t)
	f := &authFixture{
		users:  repository.NewUserRepository(db),
		hasher: security.NewPasswordHasher(testArgon2Params),
		tokens: security.NewJWTManager("site-backend", "site-web", "test-secret-with-enough-length-123"),
		guard: NewInMemoryAbuseGuard(BackoffPolicy{
			FreeAttempts: 2,
			BaseDelay:    time.Second,
			Multiplier:   2,
			MaxDelay:     time.Minute,
			ResetWindow:  time.Hour,
		}),
	}
	f.svc = NewAuthService(f.users, f.hasher, f.tokens, f.guard, AuthPolicy{
		AccessTTL:           time.Hour,
		BootstrapAdminEmail: "Founder@Example.org",
	})
	return f
}

func TestAuthServiceSignUp(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	res, err := f.svc.SignUp(ctx, SignUpInput{Email: " Kemi@Example.org ", Name: "Kemi", Password: "secret1"})
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if res.User.Email != "kemi@example.org" || res.User.Role != domain.RoleUser {
		t.Fatalf("unexpected user: %+v", res.User)
	}
	claims, err := f.tokens.ParseAccessToken(res.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.Email != "kemi@example.org" || claims.Role != domain.RoleUser {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if res.CSRFToken == "" {
		t.Fatal("expected csrf token")
	}

	if _, err := f.svc.SignUp(ctx, SignUpInput{Email: "kemi@example.org", Name: "Again", Password: "secret1"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate email, got %v", err)
	}

	admin, err := f.svc.SignUp(ctx, SignUpInput{Email: "founder@example.org", Name: "Founder", Password: "secret1"})
	if err != nil {
		t.Fatalf("sign up bootstrap admin: %v", err)
	}
	if admin.User.Role != domain.RoleAdmin {
		t.Fatalf("expected bootstrap email to become admin, got %q", admin.User.Role)
	}
}

func TestAuthServiceSignUpValidation(t *testing.T) {
	f := newAuthFixture(t)
	cases := map[string]SignUpInput{
		"missing email":  {Name: "A", Password: "secret1"},
		"bad email":      {Email: "nope", Name: "A", Password: "secret1"},
		"missing name":   {Email: "a@example.org", Password: "secret1"},
		"short password": {Email: "a@example.org", Name: "A", Password: "abc"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := f.svc.SignUp(context.Background(), in); !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestAuthServiceSignInUniformFailureAndBackoff(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	createServiceUserForTest(t, f.users, f.hasher, "lola@example.org", "secret1", domain.RoleUser)

	if _, err := f.svc.SignIn(ctx, "ghost@example.org", "secret1", "10.0.0.9"); !errors.Is(err, ErrInvalidLogin) {
		t.Fatalf("expected ErrInvalidLogin for unknown email, got %v", err)
	}
	if _, err := f.svc.SignIn(ctx, "lola@example.org", "wrong-pass", "10.0.0.1"); !errors.Is(err, ErrInvalidLogin) {
		t.Fatalf("expected ErrInvalidLogin for wrong password, got %v", err)
	}
	if _, err := f.svc.SignIn(ctx, "lola@example.org", "wrong-pass", "10.0.0.1"); !errors.Is(err, ErrInvalidLogin) {
		t.Fatalf("expected ErrInvalidLogin, got %v", err)
	}
	if _, err := f.svc.SignIn(ctx, "lola@example.org", "wrong-pass", "10.0.0.1"); !errors.Is(err, ErrInvalidLogin) {
		t.Fatalf("expected ErrInvalidLogin, got %v", err)
	}

	_, err := f.svc.SignIn(ctx, "lola@example.org", "secret1", "10.0.0.1")
	var cooldown *CooldownError
	if !errors.As(err, &cooldown) || cooldown.RetryAfter <= 0 {
		t.Fatalf("expected cooldown after repeated failures, got %v", err)
	}

	if err := f.guard.Reset(ctx, AbuseScopeSignIn, "lola@example.org", "10.0.0.1"); err != nil {
		t.Fatalf("reset guard: %v", err)
	}
	res, err := f.svc.SignIn(ctx, "LOLA@example.org", "secret1", "10.0.0.1")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if res.User.Email != "lola@example.org" || res.AccessToken == "" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestAuthServiceEnsureAdmin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	user, changed, err := f.svc.EnsureAdmin(ctx, "root@example.org", "Root", "secret1")
	if err != nil || !changed || user.Role != domain.RoleAdmin {
		t.Fatalf("expected admin created, got %+v changed=%v err=%v", user, changed, err)
	}
	if _, changed, err := f.svc.EnsureAdmin(ctx, "root@example.org", "", ""); err != nil || changed {
		t.Fatalf("expected no change for existing admin, changed=%v err=%v", changed, err)
	}

	plain := createServiceUserForTest(t, f.users, f.hasher, "member@example.org", "secret1", domain.RoleUser)
	promoted, changed, err := f.svc.EnsureAdmin(ctx, "member@example.org", "", "")
	if err != nil || !changed || promoted.ID != plain.ID || promoted.Role != domain.RoleAdmin {
		t.Fatalf("expected promotion, got %+v changed=%v err=%v", promoted, changed, err)
	}
}
