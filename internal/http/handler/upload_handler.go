package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/tooffoundation/site-backend/internal/http/response"
	"github.com/tooffoundation/site-backend/internal/observability"
	"github.com/tooffoundation/site-backend/internal/service"
)

const multipartMemory = 1 << 20

type UploadHandler struct {
	storage  service.ImageStorage
	maxBytes int64
}

func NewUploadHandler(storage service.ImageStorage, maxBytes int64) *UploadHandler {
	if maxBytes <= 0 {
		maxBytes = service.DefaultMaxImageSize
	}
	return &UploadHandler{storage: storage, maxBytes: maxBytes}
}

// UploadImage accepts a multipart form with a "file" part and a "kind" field
// (blogs, events or gallery).
func (h *UploadHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminFromRequest(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			response.Error(w, r, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", service.ErrFileTooBig.Error(), nil)
			return
		}
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid multipart form", nil)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "file is required", map[string]string{"file": "is required"})
		return
	}
	defer file.Close()
	if header.Size > h.maxBytes {
		response.Error(w, r, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", service.ErrFileTooBig.Error(), nil)
		return
	}

	kind := strings.TrimSpace(r.FormValue("kind"))
	stored, err := h.storage.UploadImage(r.Context(), kind, file, header.Size)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFileTooBig):
			response.Error(w, r, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", err.Error(), nil)
		case errors.Is(err, service.ErrInvalidFileType), errors.Is(err, service.ErrInvalidImageKind):
			response.Error(w, r, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		case errors.Is(err, service.ErrStorageDisabled):
			response.Error(w, r, http.StatusServiceUnavailable, "STORAGE_DISABLED", err.Error(), nil)
		default:
			writeServiceError(w, r, err, "failed to upload image")
		}
		return
	}
	observability.EmitAudit(r.Context(), observability.AuditInput{Event: "admin.upload.image", Actor: admin.Email, Target: stored.Key, Outcome: "success", Details: map[string]any{"size": stored.Size, "content_type": stored.ContentType}})
	response.JSON(w, r, http.StatusCreated, stored)
}
