package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tooffoundation/site-backend/internal/domain"
	"github.com/tooffoundation/site-backend/internal/http/middleware"
	"github.com/tooffoundation/site-backend/internal/http/response"
	"github.com/tooffoundation/site-backend/internal/repository"
	"github.com/tooffoundation/site-backend/internal/service"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeAndValidate writes a 400 response and returns false when the body is
// not valid JSON or fails its validate tags.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			response.Error(w, r, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request body too large", nil)
			return false
		}
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "validation failed", validationDetails(err))
		return false
	}
	return true
}

func validationDetails(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"error": err.Error()}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			out[field] = "is required"
		case "email":
			out[field] = "must be a valid email"
		case "min":
			out[field] = "must be at least " + fe.Param() + " characters"
		case "max":
			out[field] = "must be at most " + fe.Param() + " characters"
		case "len":
			out[field] = "must be exactly " + fe.Param() + " characters"
		case "numeric":
			out[field] = "must contain digits only"
		case "oneof":
			out[field] = "must be one of: " + fe.Param()
		case "url":
			out[field] = "must be a valid url"
		default:
			out[field] = "is invalid"
		}
	}
	return out
}

// writeServiceError maps service sentinels onto the response envelope.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, internalMsg string) {
	var cooldown *service.CooldownError
	switch {
	case errors.As(err, &cooldown):
		w.Header().Set("Retry-After", strconv.Itoa(max(int(cooldown.RetryAfter.Round(time.Second).Seconds()), 1)))
		response.Error(w, r, http.StatusTooManyRequests, "TOO_MANY_ATTEMPTS", cooldown.Error(), nil)
	case errors.Is(err, service.ErrNotFound):
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "resource not found", nil)
	case errors.Is(err, service.ErrUnauthorized):
		response.Error(w, r, http.StatusForbidden, "UNAUTHORIZED", "admin access required", nil)
	case errors.Is(err, service.ErrInvalidLogin):
		response.Error(w, r, http.StatusUnauthorized, "INVALID_CREDENTIALS", err.Error(), nil)
	case errors.Is(err, service.ErrInvalidCredential):
		response.Error(w, r, http.StatusBadRequest, "INVALID_CODE", err.Error(), nil)
	case errors.Is(err, service.ErrCredentialAlreadyUsed):
		response.Error(w, r, http.StatusBadRequest, "CODE_ALREADY_USED", err.Error(), nil)
	case errors.Is(err, service.ErrCredentialExpired):
		response.Error(w, r, http.StatusBadRequest, "CODE_EXPIRED", err.Error(), nil)
	case errors.Is(err, service.ErrTooManyAttempts):
		response.Error(w, r, http.StatusTooManyRequests, "TOO_MANY_ATTEMPTS", err.Error(), nil)
	case errors.Is(err, service.ErrCredentialMismatch):
		response.Error(w, r, http.StatusBadRequest, "CODE_MISMATCH", err.Error(), nil)
	case errors.Is(err, service.ErrValidation):
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_ERROR", strings.TrimPrefix(err.Error(), service.ErrValidation.Error()+": "), nil)
	case errors.Is(err, service.ErrConflict):
		response.Error(w, r, http.StatusConflict, "CONFLICT", strings.TrimPrefix(err.Error(), service.ErrConflict.Error()+": "), nil)
	default:
		slog.ErrorContext(r.Context(), internalMsg, "error", err.Error())
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", internalMsg, nil)
	}
}

func adminFromRequest(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	admin, ok := middleware.AdminFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
		return nil, false
	}
	return admin, true
}

func actorIDFromRequest(r *http.Request) (uint, error) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return 0, errors.New("missing auth context")
	}
	return claims.UserID()
}

func pathID(w http.ResponseWriter, r *http.Request, what string) (uint, bool) {
	id, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil || id == 0 {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid "+what+" id", nil)
		return 0, false
	}
	return id, true
}

func parsePathID(input string) (uint, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(input), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(n), nil
}

func parsePageRequest(r *http.Request) (repository.PageRequest, error) {
	page := repository.DefaultPage
	pageSize := repository.DefaultPageSize
	if raw := strings.TrimSpace(r.URL.Query().Get("page")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return repository.PageRequest{}, errors.New("page must be a positive integer")
		}
		page = v
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("page_size")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return repository.PageRequest{}, errors.New("page_size must be a positive integer")
		}
		if v > repository.MaxPageSize {
			return repository.PageRequest{}, fmt.Errorf("page_size must be <= %d", repository.MaxPageSize)
		}
		pageSize = v
	}
	return repository.PageRequest{Page: page, PageSize: pageSize}, nil
}

func parseSortParams(r *http.Request, defaultField string, allowed map[string]struct{}) (string, bool, error) {
	sortBy := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("sort_by")))
	if sortBy == "" {
		sortBy = defaultField
	}
	if _, ok := allowed[sortBy]; !ok {
		return "", false, fmt.Errorf("invalid sort_by: %s", sortBy)
	}

	sortOrder := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("sort_order")))
	if sortOrder == "" {
		sortOrder = "desc"
	}
	if sortOrder != "asc" && sortOrder != "desc" {
		return "", false, errors.New("sort_order must be asc or desc")
	}
	return sortBy, sortOrder == "desc", nil
}

func parseOptionalBool(r *http.Request, name string) (*bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be true or false", name)
	}
	return &v, nil
}

func paginatedData[T any](page repository.PageResult[T]) map[string]any {
	items := page.Items
	if items == nil {
		items = []T{}
	}
	return map[string]any{
		"items": items,
		"pagination": map[string]any{
			"page":        page.Page,
			"page_size":   page.PageSize,
			"total":       page.Total,
			"total_pages": page.TotalPages,
		},
	}
}

func idString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
