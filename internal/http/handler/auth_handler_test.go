package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"

	"github.com/tooffoundation/site-backend/internal/domain"
	"github.com/tooffoundation/site-backend/internal/http/middleware"
	"github.com/tooffoundation/site-backend/internal/security"
	"github.com/tooffoundation/site-backend/internal/service"
	servicegomock "github.com/tooffoundation/site-backend/internal/service/gomock"
)

func authRouter(h *AuthHandler) http.Handler {
	r := chi.NewRouter()
	r.Post("/signup", h.SignUp)
	r.Post("/signin", h.SignIn)
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(newTestJWTManager()))
		r.Post("/signout", h.SignOut)
		r.Get("/me", h.Me)
	})
	return r
}

func newAuthHandlerForTest(t *testing.T) (*AuthHandler, *servicegomock.MockAuthServiceInterface, *servicegomock.MockUserServiceInterface) {
	t.Helper()
	ctrl := gomock.NewController(t)
	authSvc := servicegomock.NewMockAuthServiceInterface(ctrl)
	userSvc := servicegomock.NewMockUserServiceInterface(ctrl)
	h := NewAuthHandler(authSvc, userSvc, security.NewCookieManager("", false, "lax"), time.Hour)
	return h, authSvc, userSvc
}

func TestSignUpSetsSessionCookies(t *testing.T) {
	h, authSvc, _ := newAuthHandlerForTest(t)
	user := &domain.User{ID: 5, Email: "new@example.org", Name: "New", Role: domain.RoleUser}
	authSvc.EXPECT().SignUp(gomock.Any(), service.SignUpInput{Email: "new@example.org", Name: "New", Password: "secret1"}).
		Return(&service.AuthResult{User: user, AccessToken: "tok", CSRFToken: "csrf", ExpiresAt: time.Now().Add(time.Hour)}, nil)

	rr, env := doJSON(t, authRouter(h), http.MethodPost, "/signup", `{"email":"new@example.org","name":"New","password":"secret1"}`, "")
	if rr.Code != http.StatusCreated || !env.Success {
		t.Fatalf("expected 201, got %d %s", rr.Code, rr.Body.String())
	}
	cookies := map[string]string{}
	for _, c := range rr.Result().Cookies() {
		cookies[c.Name] = c.Value
	}
	if cookies[security.AccessTokenCookieName] != "tok" || cookies[security.CSRFCookieName] != "csrf" {
		t.Fatalf("expected session cookies, got %v", cookies)
	}
	var data struct {
		User        domain.User `json:"user"`
		AccessToken string      `json:"access_token"`
	}
	unmarshalData(t, env, &data)
	if data.User.Email != "new@example.org" || data.AccessToken != "tok" {
		t.Fatalf("unexpected signup body %+v", data)
	}
}

func TestSignUpErrors(t *testing.T) {
	h, authSvc, _ := newAuthHandlerForTest(t)
	router := authRouter(h)

	rr, env := doJSON(t, router, http.MethodPost, "/signup", `{"email":"bad","name":"","password":""}`, "")
	expectError(t, rr, env, http.StatusBadRequest, "VALIDATION_ERROR")

	authSvc.EXPECT().SignUp(gomock.Any(), gomock.Any()).Return(nil, service.ErrConflict)
	rr, env = doJSON(t, router, http.MethodPost, "/signup", `{"email":"dup@example.org","name":"Dup","password":"secret1"}`, "")
	expectError(t, rr, env, http.StatusConflict, "CONFLICT")
}

func TestSignInFailures(t *testing.T) {
	h, authSvc, _ := newAuthHandlerForTest(t)
	router := authRouter(h)

	authSvc.EXPECT().SignIn(gomock.Any(), "a@example.org", "wrong", "203.0.113.7").Return(nil, service.ErrInvalidLogin)
	rr, env := doJSON(t, router, http.MethodPost, "/signin", `{"email":"a@example.org","password":"wrong"}`, "")
	expectError(t, rr, env, http.StatusUnauthorized, "INVALID_CREDENTIALS")

	authSvc.EXPECT().SignIn(gomock.Any(), "a@example.org", "wrong", "203.0.113.7").Return(nil, &service.CooldownError{RetryAfter: 4 * time.Second})
	rr, env = doJSON(t, router, http.MethodPost, "/signin", `{"email":"a@example.org","password":"wrong"}`, "")
	expectError(t, rr, env, http.StatusTooManyRequests, "TOO_MANY_ATTEMPTS")
	if got := rr.Header().Get("Retry-After"); got != "4" {
		t.Fatalf("expected Retry-After=4, got %q", got)
	}
}

func TestMeAndSignOut(t *testing.T) {
	h, authSvc, userSvc := newAuthHandlerForTest(t)
	router := authRouter(h)
	member := &domain.User{ID: 12, Email: "m@example.org", Name: "Member", Role: domain.RoleUser}
	auth := bearerForTest(t, member)

	userSvc.EXPECT().GetByID(gomock.Any(), uint(12)).Return(member, nil)
	rr, env := doJSON(t, router, http.MethodGet, "/me", "", auth)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var got domain.User
	unmarshalData(t, env, &got)
	if got.ID != 12 || got.Email != "m@example.org" {
		t.Fatalf("unexpected me body %+v", got)
	}

	authSvc.EXPECT().SignOut(gomock.Any(), uint(12))
	rr, _ = doJSON(t, router, http.MethodPost, "/signout", "", auth)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	for _, c := range rr.Result().Cookies() {
		if c.MaxAge >= 0 || c.Value != "" {
			t.Fatalf("expected cleared cookie %q, got %+v", c.Name, c)
		}
	}

	rr, env = doJSON(t, router, http.MethodGet, "/me", "", "")
	expectError(t, rr, env, http.StatusUnauthorized, "UNAUTHORIZED")
}

func TestMeUnknownUserIsNotFound(t *testing.T) {
	h, _, userSvc := newAuthHandlerForTest(t)
	userSvc.EXPECT().GetByID(gomock.Any(), uint(99)).Return(nil, service.ErrNotFound)

	rr, env := doJSON(t, authRouter(h), http.MethodGet, "/me", "", bearerForTest(t, &domain.User{ID: 99, Email: "gone@example.org", Role: domain.RoleUser}))
	expectError(t, rr, env, http.StatusNotFound, "NOT_FOUND")
}
