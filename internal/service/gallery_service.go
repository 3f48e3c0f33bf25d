package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tooffoundation/site-backend/internal/domain"
	"github.com/tooffoundation/site-backend/internal/observability"
	"github.com/tooffoundation/site-backend/internal/repository"
)

const maxGalleryImages = 100

type GalleryImageInput struct {
	URL       string
	ObjectKey string
	AltText   string
}

type CreateGalleryInput struct {
	Title       string
	Description string
	Category    string
	Featured    bool
	Images      []GalleryImageInput
}

// UpdateGalleryInput is a partial update. A non-nil Images replaces the whole
// ordered list.
type UpdateGalleryInput struct {
	Title       *string
	Description *string
	Category    *string
	Featured    *bool
	Images      *[]GalleryImageInput
}

type GalleryService struct {
	repo   repository.GalleryRepository
	images ImageStorage
	cache  ContentCachePolicy
	logger *slog.Logger
	now    func() time.Time
}

func NewGalleryService(repo repository.GalleryRepository, images ImageStorage, cache ContentCachePolicy, logger *slog.Logger) *GalleryService {
	if images == nil {
		images = DisabledImageStorage{}
	}
	return &GalleryService{
		repo:   repo,
		images: images,
		cache:  cache,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *GalleryService) Create(ctx context.Context, creator *domain.User, in CreateGalleryInput) (*domain.GalleryCollection, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordContentOperation(ctx, "gallery", "create", outcome, time.Since(start)) }()

	title := strings.TrimSpace(in.Title)
	if err := validateTitle(title); err != nil {
		outcome = "bad_request"
		return nil, err
	}
	category, err := normalizeCategory(in.Category)
	if err != nil {
		outcome = "bad_request"
		return nil, err
	}
	images, err := buildGalleryImages(in.Images)
	if err != nil {
		outcome = "bad_request"
		return nil, err
	}
	now := s.now()
	collection := &domain.GalleryCollection{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Category:    category,
		Featured:    in.Featured,
		CreatedBy:   creator.ID,
		Images:      images,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(collection); err != nil {
		outcome = "error"
		return nil, err
	}
	invalidateList(ctx, s.cache.Cache, ListCacheNamespaceGallery)
	return collection, nil
}

func (s *GalleryService) Update(ctx context.Context, id uint, in UpdateGalleryInput) (*domain.GalleryCollection, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordContentOperation(ctx, "gallery", "update", outcome, time.Since(start)) }()

	current, err := s.repo.FindByID(id)
	if err != nil {
		outcome = galleryOutcome(err)
		return nil, mapGalleryError(err)
	}
	updates := map[string]any{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if err := validateTitle(title); err != nil {
			outcome = "bad_request"
			return nil, err
		}
		updates["title"] = title
	}
	if in.Description != nil {
		updates["description"] = strings.TrimSpace(*in.Description)
	}
	if in.Category != nil {
		category, err := normalizeCategory(*in.Category)
		if err != nil {
			outcome = "bad_request"
			return nil, err
		}
		updates["category"] = category
	}
	if in.Featured != nil {
		updates["featured"] = *in.Featured
	}
	var images []domain.GalleryImage
	var dropped []string
	if in.Images != nil {
		images, err = buildGalleryImages(*in.Images)
		if err != nil {
			outcome = "bad_request"
			return nil, err
		}
		dropped = droppedObjectKeys(current.Images, images)
	}
	if len(updates) == 0 && in.Images == nil {
		return current, nil
	}
	updates["updated_at"] = s.now()

	if err := s.repo.Update(id, updates, images, in.Images != nil); err != nil {
		outcome = galleryOutcome(err)
		return nil, mapGalleryError(err)
	}
	updated, err := s.repo.FindByID(id)
	if err != nil {
		outcome = "error"
		return nil, mapGalleryError(err)
	}
	s.removeImages(ctx, dropped...)
	invalidateList(ctx, s.cache.Cache, ListCacheNamespaceGallery)
	return updated, nil
}

func (s *GalleryService) Delete(ctx context.Context, id uint) error {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordContentOperation(ctx, "gallery", "delete", outcome, time.Since(start)) }()

	current, err := s.repo.FindByID(id)
	if err != nil {
		outcome = galleryOutcome(err)
		return mapGalleryError(err)
	}
	if err := s.repo.DeleteByID(id); err != nil {
		outcome = galleryOutcome(err)
		return mapGalleryError(err)
	}
	s.removeImages(ctx, droppedObjectKeys(current.Images, nil)...)
	invalidateList(ctx, s.cache.Cache, ListCacheNamespaceGallery)
	return nil
}

func (s *GalleryService) GetByID(ctx context.Context, id uint) (*domain.GalleryCollection, error) {
	collection, err := s.repo.FindByID(id)
	if err != nil {
		return nil, mapGalleryError(err)
	}
	return collection, nil
}

func (s *GalleryService) List(ctx context.Context, q repository.GalleryListQuery) (repository.PageResult[domain.GalleryCollection], error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordContentOperation(ctx, "gallery", "list", outcome, time.Since(start)) }()

	q.Category = strings.ToLower(strings.TrimSpace(q.Category))
	featured := "any"
	if q.Featured != nil {
		featured = fmt.Sprintf("%t", *q.Featured)
	}
	key := fmt.Sprintf("page=%d&size=%d&category=%s&featured=%s", q.Page, q.PageSize, q.Category, featured)
	res, err := cachedList(ctx, s.cache.Cache, s.cache.TTL, ListCacheNamespaceGallery, key, func() (repository.PageResult[domain.GalleryCollection], error) {
		return s.repo.ListPaged(q)
	})
	if err != nil {
		outcome = "error"
	}
	return res, err
}

func (s *GalleryService) removeImages(ctx context.Context, keys ...string) {
	if err := s.images.DeleteObjects(ctx, keys...); err != nil {
		s.logger.WarnContext(ctx, "stored image cleanup failed", "keys", keys, "error", err)
	}
}

func normalizeCategory(category string) (string, error) {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		category = "general"
	}
	if utf8.RuneCountInString(category) > 64 {
		return "", validationError("category must be at most 64 characters")
	}
	return category, nil
}

func buildGalleryImages(in []GalleryImageInput) ([]domain.GalleryImage, error) {
	if len(in) > maxGalleryImages {
		return nil, validationError("a collection holds at most %d images", maxGalleryImages)
	}
	out := make([]domain.GalleryImage, 0, len(in))
	for i, img := range in {
		url := strings.TrimSpace(img.URL)
		if url == "" {
			return nil, validationError("image %d: url is required", i+1)
		}
		alt := strings.TrimSpace(img.AltText)
		if utf8.RuneCountInString(alt) > 255 {
			return nil, validationError("image %d: alt text must be at most 255 characters", i+1)
		}
		out = append(out, domain.GalleryImage{
			URL:       url,
			ObjectKey: strings.TrimSpace(img.ObjectKey),
			AltText:   alt,
			Position:  i,
		})
	}
	return out, nil
}

// droppedObjectKeys returns stored keys present in before but not in after.
func droppedObjectKeys(before, after []domain.GalleryImage) []string {
	kept := make(map[string]struct{}, len(after))
	for _, img := range after {
		if img.ObjectKey != "" {
			kept[img.ObjectKey] = struct{}{}
		}
	}
	var out []string
	for _, img := range before {
		if img.ObjectKey == "" {
			continue
		}
		if _, ok := kept[img.ObjectKey]; !ok {
			out = append(out, img.ObjectKey)
		}
	}
	return out
}

func mapGalleryError(err error) error {
	if errors.Is(err, repository.ErrGalleryCollectionNotFound) {
		return ErrNotFound
	}
	return err
}

func galleryOutcome(err error) string {
	if errors.Is(err, repository.ErrGalleryCollectionNotFound) {
		return "not_found"
	}
	return "error"
}
