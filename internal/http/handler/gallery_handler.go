package handler

import (
	"net/http"
	"strings"

	"github.com/tooffoundation/site-backend/internal/http/response"
	"github.com/tooffoundation/site-backend/internal/observability"
	"github.com/tooffoundation/site-backend/internal/repository"
	"github.com/tooffoundation/site-backend/internal/service"
)

type galleryImageRequest struct {
	URL       string `json:"url" validate:"required,max=1024"`
	ObjectKey string `json:"object_key" validate:"omitempty,max=512"`
	AltText   string `json:"alt_text" validate:"max=255"`
}

type createGalleryRequest struct {
	Title       string                `json:"title" validate:"required,max=200"`
	Description string                `json:"description" validate:"max=1000"`
	Category    string                `json:"category" validate:"required,max=64"`
	Featured    bool                  `json:"featured"`
	Images      []galleryImageRequest `json:"images" validate:"max=100,dive"`
}

type updateGalleryRequest struct {
	Title       *string                `json:"title" validate:"omitempty,max=200"`
	Description *string                `json:"description" validate:"omitempty,max=1000"`
	Category    *string                `json:"category" validate:"omitempty,max=64"`
	Featured    *bool                  `json:"featured"`
	Images      *[]galleryImageRequest `json:"images" validate:"omitempty,max=100,dive"`
}

type GalleryHandler struct {
	svc service.GalleryServiceInterface
}

func NewGalleryHandler(svc service.GalleryServiceInterface) *GalleryHandler {
	return &GalleryHandler{svc: svc}
}

func (h *GalleryHandler) List(w http.ResponseWriter, r *http.Request) {
	pageReq, err := parsePageRequest(r)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	featured, err := parseOptionalBool(r, "featured")
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	page, err := h.svc.List(r.Context(), repository.GalleryListQuery{
		PageRequest: pageReq,
		Category:    strings.TrimSpace(r.URL.Query().Get("category")),
		Featured:    featured,
	})
	if err != nil {
		writeServiceError(w, r, err, "failed to list gallery")
		return
	}
	response.JSON(w, r, http.StatusOK, paginatedData(page))
}

func (h *GalleryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "gallery")
	if !ok {
		return
	}
	collection, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "failed to load gallery")
		return
	}
	response.JSON(w, r, http.StatusOK, collection)
}

func (h *GalleryHandler) Create(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminFromRequest(w, r)
	if !ok {
		return
	}
	var body createGalleryRequest
	if !decodeAndValidate(w, r, &body) {
		return
	}
	created, err := h.svc.Create(r.Context(), admin, service.CreateGalleryInput{
		Title:       body.Title,
		Description: body.Description,
		Category:    body.Category,
		Featured:    body.Featured,
		Images:      toGalleryImageInputs(body.Images),
	})
	if err != nil {
		writeServiceError(w, r, err, "failed to create gallery")
		return
	}
	observability.EmitAudit(r.Context(), observability.AuditInput{Event: "admin.gallery.create", Actor: admin.Email, Target: idString(created.ID), Outcome: "success", Details: map[string]any{"images": len(created.Images)}})
	response.JSON(w, r, http.StatusCreated, created)
}

func (h *GalleryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "gallery")
	if !ok {
		return
	}
	admin, ok := adminFromRequest(w, r)
	if !ok {
		return
	}
	var body updateGalleryRequest
	if !decodeAndValidate(w, r, &body) {
		return
	}
	in := service.UpdateGalleryInput{
		Title:       body.Title,
		Description: body.Description,
		Category:    body.Category,
		Featured:    body.Featured,
	}
	if body.Images != nil {
		images := toGalleryImageInputs(*body.Images)
		in.Images = &images
	}
	updated, err := h.svc.Update(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, r, err, "failed to update gallery")
		return
	}
	observability.EmitAudit(r.Context(), observability.AuditInput{Event: "admin.gallery.update", Actor: admin.Email, Target: idString(id), Outcome: "success"})
	response.JSON(w, r, http.StatusOK, updated)
}

func (h *GalleryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "gallery")
	if !ok {
		return
	}
	admin, ok := adminFromRequest(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err, "failed to delete gallery")
		return
	}
	observability.EmitAudit(r.Context(), observability.AuditInput{Event: "admin.gallery.delete", Actor: admin.Email, Target: idString(id), Outcome: "success"})
	response.JSON(w, r, http.StatusOK, map[string]any{"id": id, "deleted": true})
}

func toGalleryImageInputs(in []galleryImageRequest) []service.GalleryImageInput {
	out := make([]service.GalleryImageInput, 0, len(in))
	for _, img := range in {
		out = append(out, service.GalleryImageInput{URL: img.URL, ObjectKey: img.ObjectKey, AltText: img.AltText})
	}
	return out
}
