package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/tooffoundation/site-backend/internal/http/middleware"
	"github.com/tooffoundation/site-backend/internal/http/response"
	"github.com/tooffoundation/site-backend/internal/observability"
	"github.com/tooffoundation/site-backend/internal/security"
	"github.com/tooffoundation/site-backend/internal/service"
)

type signUpRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Name     string `json:"name" validate:"required,max=100"`
	Password string `json:"password" validate:"required"`
}

type signInRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required"`
}

type AuthHandler struct {
	authSvc   service.AuthServiceInterface
	userSvc   service.UserServiceInterface
	cookieMgr *security.CookieManager
	accessTTL time.Duration
}

func NewAuthHandler(authSvc service.AuthServiceInterface, userSvc service.UserServiceInterface, cookieMgr *security.CookieManager, accessTTL time.Duration) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, userSvc: userSvc, cookieMgr: cookieMgr, accessTTL: accessTTL}
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var body signUpRequest
	if !decodeAndValidate(w, r, &body) {
		return
	}
	result, err := h.authSvc.SignUp(r.Context(), service.SignUpInput{
		Email:    body.Email,
		Name:     body.Name,
		Password: body.Password,
	})
	if err != nil {
		observability.EmitAudit(r.Context(), observability.AuditInput{Event: "auth.signup", Actor: body.Email, Outcome: "failure", Details: map[string]any{"reason": auditReason(err)}})
		writeServiceError(w, r, err, "failed to sign up")
		return
	}
	observability.EmitAudit(r.Context(), observability.AuditInput{Event: "auth.signup", Actor: result.User.Email, Target: idString(result.User.ID), Outcome: "success", Details: map[string]any{"role": result.User.Role}})
	h.writeSession(w, r, http.StatusCreated, result)
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var body signInRequest
	if !decodeAndValidate(w, r, &body) {
		return
	}
	result, err := h.authSvc.SignIn(r.Context(), body.Email, body.Password, middleware.ClientIP(r))
	if err != nil {
		observability.EmitAudit(r.Context(), observability.AuditInput{Event: "auth.signin", Actor: body.Email, Outcome: "failure", Details: map[string]any{"reason": auditReason(err)}})
		writeServiceError(w, r, err, "failed to sign in")
		return
	}
	observability.EmitAudit(r.Context(), observability.AuditInput{Event: "auth.signin", Actor: result.User.Email, Target: idString(result.User.ID), Outcome: "success"})
	h.writeSession(w, r, http.StatusOK, result)
}

func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	uid, err := actorIDFromRequest(r)
	if err != nil {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid subject", nil)
		return
	}
	h.authSvc.SignOut(r.Context(), uid)
	h.cookieMgr.ClearSessionCookies(w)
	observability.EmitAudit(r.Context(), observability.AuditInput{Event: "auth.signout", Actor: idString(uid), Outcome: "success"})
	response.JSON(w, r, http.StatusOK, map[string]string{"status": "signed_out"})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	uid, err := actorIDFromRequest(r)
	if err != nil {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid subject", nil)
		return
	}
	u, err := h.userSvc.GetByID(r.Context(), uid)
	if err != nil {
		writeServiceError(w, r, err, "failed to load user")
		return
	}
	response.JSON(w, r, http.StatusOK, u)
}

func (h *AuthHandler) writeSession(w http.ResponseWriter, r *http.Request, status int, result *service.AuthResult) {
	h.cookieMgr.SetSessionCookies(w, result.AccessToken, result.CSRFToken, h.accessTTL)
	response.JSON(w, r, status, map[string]any{
		"user":         result.User,
		"access_token": result.AccessToken,
		"csrf_token":   result.CSRFToken,
		"expires_at":   result.ExpiresAt,
	})
}

func auditReason(err error) string {
	var cooldown *service.CooldownError
	switch {
	case errors.As(err, &cooldown):
		return "cooldown"
	case errors.Is(err, service.ErrInvalidLogin):
		return "invalid_credentials"
	case errors.Is(err, service.ErrValidation):
		return "validation"
	case errors.Is(err, service.ErrConflict):
		return "conflict"
	case errors.Is(err, service.ErrNotFound):
		return "not_found"
	case errors.Is(err, service.ErrInvalidCredential):
		return "invalid_code"
	case errors.Is(err, service.ErrCredentialAlreadyUsed):
		return "code_already_used"
	case errors.Is(err, service.ErrCredentialExpired):
		return "code_expired"
	case errors.Is(err, service.ErrTooManyAttempts):
		return "too_many_attempts"
	case errors.Is(err, service.ErrCredentialMismatch):
		return "code_mismatch"
	default:
		return "internal"
	}
}
