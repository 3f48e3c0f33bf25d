package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tooffoundation/site-backend/internal/http/response"
	"github.com/tooffoundation/site-backend/internal/observability"
	"github.com/tooffoundation/site-backend/internal/repository"
	"github.com/tooffoundation/site-backend/internal/service"
)

type createEventRequest struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Slug        string     `json:"slug" validate:"omitempty,max=220"`
	Description string     `json:"description" validate:"required"`
	StartDate   time.Time  `json:"start_date" validate:"required"`
	EndDate     *time.Time `json:"end_date"`
	Location    string     `json:"location" validate:"required,max=255"`
	Image       string     `json:"image" validate:"omitempty,max=1024"`
	ImageKey    string     `json:"image_key" validate:"omitempty,max=512"`
	Capacity    *int       `json:"capacity" validate:"omitempty,min=1"`
	Status      string     `json:"status" validate:"omitempty,oneof=upcoming ongoing completed cancelled"`
}

// updateEventRequest is partial. end_date and capacity are removed with the
// explicit clear flags since null and absent decode the same way.
type updateEventRequest struct {
	Title         *string    `json:"title" validate:"omitempty,max=200"`
	Slug          *string    `json:"slug" validate:"omitempty,max=220"`
	Description   *string    `json:"description"`
	StartDate     *time.Time `json:"start_date"`
	EndDate       *time.Time `json:"end_date"`
	ClearEndDate  bool       `json:"clear_end_date"`
	Location      *string    `json:"location" validate:"omitempty,max=255"`
	Image         *string    `json:"image" validate:"omitempty,max=1024"`
	ImageKey      *string    `json:"image_key" validate:"omitempty,max=512"`
	Capacity      *int       `json:"capacity" validate:"omitempty,min=1"`
	ClearCapacity bool       `json:"clear_capacity"`
	Status        *string    `json:"status" validate:"omitempty,oneof=upcoming ongoing completed cancelled"`
}

type registerRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Email string `json:"email" validate:"required,email,max=255"`
	Phone string `json:"phone" validate:"omitempty,max=32"`
}

type EventHandler struct {
	svc service.EventServiceInterface
}

func NewEventHandler(svc service.EventServiceInterface) *EventHandler {
	return &EventHandler{svc: svc}
}

func (h *EventHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	pageReq, err := parsePageRequest(r)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	page, err := h.svc.ListPublic(r.Context(), pageReq, r.URL.Query().Get("status"))
	if err != nil {
		writeServiceError(w, r, err, "failed to list events")
		return
	}
	response.JSON(w, r, http.StatusOK, paginatedData(page))
}

func (h *EventHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	event, err := h.svc.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeServiceError(w, r, err, "failed to load event")
		return
	}
	response.JSON(w, r, http.StatusOK, event)
}

func (h *EventHandler) Register(w http.ResponseWriter, r *http.Request) {
	var body registerRequest
	if !decodeAndValidate(w, r, &body) {
		return
	}
	slug := chi.URLParam(r, "slug")
	reg, err := h.svc.Register(r.Context(), slug, service.RegisterInput{
		Name:  body.Name,
		Email: body.Email,
		Phone: body.Phone,
	})
	if err != nil {
		observability.EmitAudit(r.Context(), observability.AuditInput{Event: "event.register", Actor: body.Email, Target: slug, Outcome: "failure", Details: map[string]any{"reason": auditReason(err)}})
		writeServiceError(w, r, err, "failed to register")
		return
	}
	observability.EmitAudit(r.Context(), observability.AuditInput{Event: "event.register", Actor: reg.UserEmail, Target: slug, Outcome: "success"})
	response.JSON(w, r, http.StatusCreated, reg)
}

func (h *EventHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	pageReq, err := parsePageRequest(r)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	page, err := h.svc.ListAll(r.Context(), repository.EventListQuery{
		PageRequest: pageReq,
		Status:      strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status"))),
	})
	if err != nil {
		writeServiceError(w, r, err, "failed to list events")
		return
	}
	response.JSON(w, r, http.StatusOK, paginatedData(page))
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "event")
	if !ok {
		return
	}
	event, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "failed to load event")
		return
	}
	response.JSON(w, r, http.StatusOK, event)
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminFromRequest(w, r)
	if !ok {
		return
	}
	var body createEventRequest
	if !decodeAndValidate(w, r, &body) {
		return
	}
	created, err := h.svc.Create(r.Context(), admin, service.CreateEventInput{
		Title:       body.Title,
		Slug:        body.Slug,
		Description: body.Description,
		StartDate:   body.StartDate,
		EndDate:     body.EndDate,
		Location:    body.Location,
		Image:       body.Image,
		ImageKey:    body.ImageKey,
		Capacity:    body.Capacity,
		Status:      body.Status,
	})
	if err != nil {
		writeServiceError(w, r, err, "failed to create event")
		return
	}
	observability.EmitAudit(r.Context(), observability.AuditInput{Event: "admin.event.create", Actor: admin.Email, Target: idString(created.ID), Outcome: "success", Details: map[string]any{"slug": created.Slug}})
	response.JSON(w, r, http.StatusCreated, created)
}

func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "event")
	if !ok {
		return
	}
	admin, ok := adminFromRequest(w, r)
	if !ok {
		return
	}
	var body updateEventRequest
	if !decodeAndValidate(w, r, &body) {
		return
	}
	updated, err := h.svc.Update(r.Context(), id, service.UpdateEventInput{
		Title:         body.Title,
		Slug:          body.Slug,
		Description:   body.Description,
		StartDate:     body.StartDate,
		EndDate:       body.EndDate,
		ClearEndDate:  body.ClearEndDate,
		Location:      body.Location,
		Image:         body.Image,
		ImageKey:      body.ImageKey,
		Capacity:      body.Capacity,
		ClearCapacity: body.ClearCapacity,
		Status:        body.Status,
	})
	if err != nil {
		writeServiceError(w, r, err, "failed to update event")
		return
	}
	observability.EmitAudit(r.Context(), observability.AuditInput{Event: "admin.event.update", Actor: admin.Email, Target: idString(id), Outcome: "success"})
	response.JSON(w, r, http.StatusOK, updated)
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "event")
	if !ok {
		return
	}
	admin, ok := adminFromRequest(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err, "failed to delete event")
		return
	}
	observability.EmitAudit(r.Context(), observability.AuditInput{Event: "admin.event.delete", Actor: admin.Email, Target: idString(id), Outcome: "success"})
	response.JSON(w, r, http.StatusOK, map[string]any{"id": id, "deleted": true})
}

func (h *EventHandler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "event")
	if !ok {
		return
	}
	pageReq, err := parsePageRequest(r)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	page, err := h.svc.ListRegistrations(r.Context(), id, pageReq)
	if err != nil {
		writeServiceError(w, r, err, "failed to list registrations")
		return
	}
	response.JSON(w, r, http.StatusOK, paginatedData(page))
}
