package handler

import (
	"errors"
	"net/http"

	"github.com/tooffoundation/site-backend/internal/http/middleware"
	"github.com/tooffoundation/site-backend/internal/http/response"
	"github.com/tooffoundation/site-backend/internal/observability"
	"github.com/tooffoundation/site-backend/internal/service"
)

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type verifyCodeRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
	Code  string `json:"code" validate:"required,max=16"`
}

type resetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email,max=255"`
	Code        string `json:"code" validate:"required,max=16"`
	NewPassword string `json:"new_password" validate:"required"`
}

// PasswordResetHandler serves the forgot/verify/reset endpoints. Failed code
// checks feed the abuse guard keyed by email and client address.
type PasswordResetHandler struct {
	resetSvc service.PasswordResetServiceInterface
	guard    service.AbuseGuard
}

func NewPasswordResetHandler(resetSvc service.PasswordResetServiceInterface, guard service.AbuseGuard) *PasswordResetHandler {
	if guard == nil {
		guard = service.NewNoopAbuseGuard()
	}
	return &PasswordResetHandler{resetSvc: resetSvc, guard: guard}
}

func (h *PasswordResetHandler) Forgot(w http.ResponseWriter, r *http.Request) {
	var body forgotPasswordRequest
	if !decodeAndValidate(w, r, &body) {
		return
	}
	if err := h.resetSvc.Request(r.Context(), body.Email); err != nil {
		writeServiceError(w, r, err, "failed to process reset request")
		return
	}
	observability.EmitAudit(r.Context(), observability.AuditInput{Event: "auth.password.forgot", Actor: body.Email, Outcome: "accepted"})
	response.JSON(w, r, http.StatusOK, map[string]string{"message": service.PasswordResetAcceptedMessage})
}

func (h *PasswordResetHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var body verifyCodeRequest
	if !decodeAndValidate(w, r, &body) {
		return
	}
	ip := middleware.ClientIP(r)
	if !h.checkGuard(w, r, body.Email, ip) {
		return
	}
	res, err := h.resetSvc.Verify(r.Context(), body.Email, body.Code)
	if err != nil {
		h.registerFailure(r, body.Email, ip, err)
		observability.EmitAudit(r.Context(), observability.AuditInput{Event: "auth.password.verify", Actor: body.Email, Outcome: "failure", Details: map[string]any{"reason": auditReason(err)}})
		writeServiceError(w, r, err, "failed to verify reset code")
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"valid": res.Valid, "email": res.Email})
}

func (h *PasswordResetHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var body resetPasswordRequest
	if !decodeAndValidate(w, r, &body) {
		return
	}
	ip := middleware.ClientIP(r)
	if !h.checkGuard(w, r, body.Email, ip) {
		return
	}
	res, err := h.resetSvc.Commit(r.Context(), body.Email, body.Code, body.NewPassword)
	if err != nil {
		h.registerFailure(r, body.Email, ip, err)
		observability.EmitAudit(r.Context(), observability.AuditInput{Event: "auth.password.reset", Actor: body.Email, Outcome: "failure", Details: map[string]any{"reason": auditReason(err)}})
		writeServiceError(w, r, err, "failed to reset password")
		return
	}
	if err := h.guard.Reset(r.Context(), service.AbuseScopeResetCode, body.Email, ip); err != nil {
		observability.RecordAbuseGuardEvent(r.Context(), string(service.AbuseScopeResetCode), "reset", "error")
	}
	observability.EmitAudit(r.Context(), observability.AuditInput{Event: "auth.password.reset", Actor: body.Email, Outcome: "success"})
	response.JSON(w, r, http.StatusOK, map[string]any{"success": res.Success, "message": res.Message})
}

func (h *PasswordResetHandler) checkGuard(w http.ResponseWriter, r *http.Request, email, ip string) bool {
	wait, err := h.guard.Check(r.Context(), service.AbuseScopeResetCode, email, ip)
	if err != nil {
		// Guard outages fail open.
		observability.RecordAbuseGuardEvent(r.Context(), string(service.AbuseScopeResetCode), "check", "error")
		return true
	}
	if wait > 0 {
		observability.RecordAbuseGuardEvent(r.Context(), string(service.AbuseScopeResetCode), "check", "blocked")
		observability.RecordAbuseGuardCooldown(r.Context(), string(service.AbuseScopeResetCode), wait)
		writeServiceError(w, r, &service.CooldownError{RetryAfter: wait}, "")
		return false
	}
	return true
}

func (h *PasswordResetHandler) registerFailure(r *http.Request, email, ip string, err error) {
	if !errors.Is(err, service.ErrCredentialMismatch) && !errors.Is(err, service.ErrInvalidCredential) {
		return
	}
	if _, gerr := h.guard.RegisterFailure(r.Context(), service.AbuseScopeResetCode, email, ip); gerr != nil {
		observability.RecordAbuseGuardEvent(r.Context(), string(service.AbuseScopeResetCode), "register_failure", "error")
		return
	}
	observability.RecordAbuseGuardEvent(r.Context(), string(service.AbuseScopeResetCode), "register_failure", "recorded")
}
