package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tooffoundation/site-backend/internal/domain"
	"github.com/tooffoundation/site-backend/internal/http/response"
	"github.com/tooffoundation/site-backend/internal/observability"
	"github.com/tooffoundation/site-backend/internal/security"
	"github.com/tooffoundation/site-backend/internal/service"
)

type contextKey string

const (
	ClaimsContextKey      contextKey = "claims"
	TokenSourceContextKey contextKey = "token_source"
	AdminContextKey       contextKey = "admin"
)

const (
	TokenSourceCookie = "cookie"
	TokenSourceHeader = "header"
)

func AuthMiddleware(jwtMgr *security.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, source := accessTokenFromRequest(r)
			if raw == "" {
				observability.RecordAccessTokenValidation(r.Context(), "missing", "none")
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing access token", nil)
				return
			}
			claims, err := jwtMgr.ParseAccessToken(raw)
			if err != nil {
				observability.RecordAccessTokenValidation(r.Context(), "invalid", source)
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid access token", nil)
				return
			}
			observability.RecordAccessTokenValidation(r.Context(), "valid", source)
			noteCaller(r.Context(), func(c *callerInfo) {
				c.subject = claims.Subject
				c.tokenSource = source
			})
			ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
			ctx = context.WithValue(ctx, TokenSourceContextKey, source)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin runs the authorization gate against the caller's email. It
// must be mounted after AuthMiddleware.
func RequireAdmin(gate service.Authorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing access token", nil)
				return
			}
			admin, err := gate.Authorize(r.Context(), claims.Email)
			if err != nil {
				if errors.Is(err, service.ErrUnauthorized) {
					response.Error(w, r, http.StatusForbidden, "UNAUTHORIZED", "admin access required", nil)
					return
				}
				slog.ErrorContext(r.Context(), "authorization check failed", "error", err.Error())
				response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
				return
			}
			noteCaller(r.Context(), func(c *callerInfo) { c.admin = true })
			ctx := context.WithValue(r.Context(), AdminContextKey, admin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func ClaimsFromContext(ctx context.Context) (*security.Claims, bool) {
	c, ok := ctx.Value(ClaimsContextKey).(*security.Claims)
	return c, ok
}

func AdminFromContext(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(AdminContextKey).(*domain.User)
	return u, ok
}

func tokenSourceFromContext(ctx context.Context) string {
	s, _ := ctx.Value(TokenSourceContextKey).(string)
	return s
}

// accessTokenFromRequest prefers the session cookie over the Authorization
// header.
func accessTokenFromRequest(r *http.Request) (string, string) {
	if raw := security.GetCookie(r, security.AccessTokenCookieName); raw != "" {
		return raw, TokenSourceCookie
	}
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		if raw := strings.TrimSpace(auth[7:]); raw != "" {
			return raw, TokenSourceHeader
		}
	}
	return "", ""
}
