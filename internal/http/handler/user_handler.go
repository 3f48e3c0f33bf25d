package handler

import (
	"net/http"
	"strings"

	"github.com/tooffoundation/site-backend/internal/domain"
	"github.com/tooffoundation/site-backend/internal/http/response"
	"github.com/tooffoundation/site-backend/internal/observability"
	"github.com/tooffoundation/site-backend/internal/repository"
	"github.com/tooffoundation/site-backend/internal/service"
)

type setRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin user"`
}

var userSortFields = map[string]struct{}{
	"id":         {},
	"email":      {},
	"name":       {},
	"created_at": {},
}

// UserHandler serves the admin user management endpoints.
type UserHandler struct {
	userSvc service.UserServiceInterface
}

func NewUserHandler(userSvc service.UserServiceInterface) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	pageReq, err := parsePageRequest(r)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	sortBy, desc, err := parseSortParams(r, "created_at", userSortFields)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	role := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("role")))
	if role != "" && !domain.IsValidRole(role) {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "role must be admin or user", nil)
		return
	}
	page, err := h.userSvc.ListPaged(r.Context(), repository.UserListQuery{
		PageRequest: pageReq,
		Role:        role,
		Email:       strings.TrimSpace(r.URL.Query().Get("email")),
		SortBy:      sortBy,
		Desc:        desc,
	})
	if err != nil {
		writeServiceError(w, r, err, "failed to list users")
		return
	}
	response.JSON(w, r, http.StatusOK, paginatedData(page))
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "user")
	if !ok {
		return
	}
	u, err := h.userSvc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "failed to load user")
		return
	}
	response.JSON(w, r, http.StatusOK, u)
}

func (h *UserHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	var body setRoleRequest
	if !decodeAndValidate(w, r, &body) {
		return
	}
	h.applyRole(w, r, body.Role)
}

func (h *UserHandler) Promote(w http.ResponseWriter, r *http.Request) {
	h.applyRole(w, r, domain.RoleAdmin)
}

func (h *UserHandler) Demote(w http.ResponseWriter, r *http.Request) {
	h.applyRole(w, r, domain.RoleUser)
}

func (h *UserHandler) applyRole(w http.ResponseWriter, r *http.Request, role string) {
	id, ok := pathID(w, r, "user")
	if !ok {
		return
	}
	admin, ok := adminFromRequest(w, r)
	if !ok {
		return
	}
	updated, err := h.userSvc.SetRole(r.Context(), admin, id, role)
	if err != nil {
		observability.EmitAudit(r.Context(), observability.AuditInput{Event: "admin.user.role", Actor: admin.Email, Target: idString(id), Outcome: "failure", Details: map[string]any{"role": role, "reason": auditReason(err)}})
		writeServiceError(w, r, err, "failed to update role")
		return
	}
	observability.EmitAudit(r.Context(), observability.AuditInput{Event: "admin.user.role", Actor: admin.Email, Target: idString(id), Outcome: "success", Details: map[string]any{"role": role}})
	response.JSON(w, r, http.StatusOK, updated)
}
