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

type createBlogRequest struct {
	Title            string     `json:"title" validate:"required,max=200"`
	Slug             string     `json:"slug" validate:"omitempty,max=220"`
	Excerpt          string     `json:"excerpt" validate:"max=500"`
	Content          string     `json:"content" validate:"required"`
	FeaturedImage    string     `json:"featured_image" validate:"omitempty,max=1024"`
	FeaturedImageKey string     `json:"featured_image_key" validate:"omitempty,max=512"`
	Tags             []string   `json:"tags" validate:"max=20,dive,max=50"`
	Status           string     `json:"status" validate:"omitempty,oneof=draft published archived"`
	PublishedAt      *time.Time `json:"published_at"`
}

type updateBlogRequest struct {
	Title            *string    `json:"title" validate:"omitempty,max=200"`
	Slug             *string    `json:"slug" validate:"omitempty,max=220"`
	Excerpt          *string    `json:"excerpt" validate:"omitempty,max=500"`
	Content          *string    `json:"content"`
	FeaturedImage    *string    `json:"featured_image" validate:"omitempty,max=1024"`
	FeaturedImageKey *string    `json:"featured_image_key" validate:"omitempty,max=512"`
	Tags             *[]string  `json:"tags" validate:"omitempty,max=20,dive,max=50"`
	Status           *string    `json:"status" validate:"omitempty,oneof=draft published archived"`
	PublishedAt      *time.Time `json:"published_at"`
}

type BlogHandler struct {
	svc service.BlogServiceInterface
}

func NewBlogHandler(svc service.BlogServiceInterface) *BlogHandler {
	return &BlogHandler{svc: svc}
}

// ListPublished is the public blog index, newest first.
func (h *BlogHandler) ListPublished(w http.ResponseWriter, r *http.Request) {
	pageReq, err := parsePageRequest(r)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	page, err := h.svc.ListPublished(r.Context(), pageReq, r.URL.Query().Get("tag"))
	if err != nil {
		writeServiceError(w, r, err, "failed to list blogs")
		return
	}
	response.JSON(w, r, http.StatusOK, paginatedData(page))
}

func (h *BlogHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeServiceError(w, r, err, "failed to load blog")
		return
	}
	response.JSON(w, r, http.StatusOK, view)
}

func (h *BlogHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	pageReq, err := parsePageRequest(r)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	q := repository.BlogListQuery{
		PageRequest: pageReq,
		Status:      strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status"))),
		Tag:         strings.ToLower(strings.TrimSpace(r.URL.Query().Get("tag"))),
	}
	if raw := r.URL.Query().Get("author_id"); raw != "" {
		authorID, err := parsePathID(raw)
		if err != nil {
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "author_id must be a positive integer", nil)
			return
		}
		q.AuthorID = authorID
	}
	page, err := h.svc.ListAll(r.Context(), q)
	if err != nil {
		writeServiceError(w, r, err, "failed to list blogs")
		return
	}
	response.JSON(w, r, http.StatusOK, paginatedData(page))
}

func (h *BlogHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "blog")
	if !ok {
		return
	}
	blog, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "failed to load blog")
		return
	}
	response.JSON(w, r, http.StatusOK, blog)
}

func (h *BlogHandler) Create(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminFromRequest(w, r)
	if !ok {
		return
	}
	var body createBlogRequest
	if !decodeAndValidate(w, r, &body) {
		return
	}
	created, err := h.svc.Create(r.Context(), admin, service.CreateBlogInput{
		Title:            body.Title,
		Slug:             body.Slug,
		Excerpt:          body.Excerpt,
		Content:          body.Content,
		FeaturedImage:    body.FeaturedImage,
		FeaturedImageKey: body.FeaturedImageKey,
		Tags:             body.Tags,
		Status:           body.Status,
		PublishedAt:      body.PublishedAt,
	})
	if err != nil {
		writeServiceError(w, r, err, "failed to create blog")
		return
	}
	observability.EmitAudit(r.Context(), observability.AuditInput{Event: "admin.blog.create", Actor: admin.Email, Target: idString(created.ID), Outcome: "success", Details: map[string]any{"slug": created.Slug, "status": created.Status}})
	response.JSON(w, r, http.StatusCreated, created)
}

func (h *BlogHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "blog")
	if !ok {
		return
	}
	admin, ok := adminFromRequest(w, r)
	if !ok {
		return
	}
	var body updateBlogRequest
	if !decodeAndValidate(w, r, &body) {
		return
	}
	updated, err := h.svc.Update(r.Context(), id, service.UpdateBlogInput{
		Title:            body.Title,
		Slug:             body.Slug,
		Excerpt:          body.Excerpt,
		Content:          body.Content,
		FeaturedImage:    body.FeaturedImage,
		FeaturedImageKey: body.FeaturedImageKey,
		Tags:             body.Tags,
		Status:           body.Status,
		PublishedAt:      body.PublishedAt,
	})
	if err != nil {
		writeServiceError(w, r, err, "failed to update blog")
		return
	}
	observability.EmitAudit(r.Context(), observability.AuditInput{Event: "admin.blog.update", Actor: admin.Email, Target: idString(id), Outcome: "success"})
	response.JSON(w, r, http.StatusOK, updated)
}

func (h *BlogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "blog")
	if !ok {
		return
	}
	admin, ok := adminFromRequest(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err, "failed to delete blog")
		return
	}
	observability.EmitAudit(r.Context(), observability.AuditInput{Event: "admin.blog.delete", Actor: admin.Email, Target: idString(id), Outcome: "success"})
	response.JSON(w, r, http.StatusOK, map[string]any{"id": id, "deleted": true})
}
