package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gosimple/slug"

	"github.com/tooffoundation/site-backend/internal/domain"
	"github.com/tooffoundation/site-backend/internal/observability"
	"github.com/tooffoundation/site-backend/internal/repository"
	"github.com/tooffoundation/site-backend/internal/security"
)

const (
	UnknownAuthorName = "Unknown Author"
	maxTitleLength    = 200
	maxExcerptLength  = 500
	maxTags           = 20
)

type CreateBlogInput struct {
	Title            string
	Slug             string
	Excerpt          string
	Content          string
	FeaturedImage    string
	FeaturedImageKey string
	Tags             []string
	Status           string
	PublishedAt      *time.Time
}

// UpdateBlogInput is a partial update; nil fields are left unchanged.
type UpdateBlogInput struct {
	Title            *string
	Slug             *string
	Excerpt          *string
	Content          *string
	FeaturedImage    *string
	FeaturedImageKey *string
	Tags             *[]string
	Status           *string
	PublishedAt      *time.Time
}

type ContentCachePolicy struct {
	Cache ListCache
	TTL   time.Duration
}

type BlogService struct {
	repo      repository.BlogRepository
	sanitizer *security.ContentSanitizer
	images    ImageStorage
	cache     ContentCachePolicy
	logger    *slog.Logger
	now       func() time.Time
}

func NewBlogService(
	repo repository.BlogRepository,
	sanitizer *security.ContentSanitizer,
	images ImageStorage,
	cache ContentCachePolicy,
	logger *slog.Logger,
) *BlogService {
	if images == nil {
		images = DisabledImageStorage{}
	}
	return &BlogService{
		repo:      repo,
		sanitizer: sanitizer,
		images:    images,
		cache:     cache,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *BlogService) Create(ctx context.Context, author *domain.User, in CreateBlogInput) (*domain.Blog, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordContentOperation(ctx, "blog", "create", outcome, time.Since(start)) }()

	title := strings.TrimSpace(in.Title)
	if err := validateTitle(title); err != nil {
		outcome = "bad_request"
		return nil, err
	}
	blogSlug, err := resolveSlug(in.Slug, title)
	if err != nil {
		outcome = "bad_request"
		return nil, err
	}
	status := strings.TrimSpace(in.Status)
	if status == "" {
		status = domain.BlogStatusDraft
	}
	if !domain.IsValidBlogStatus(status) {
		outcome = "bad_request"
		return nil, validationError("status must be one of draft, published, archived")
	}
	content := s.sanitizer.Sanitize(in.Content)
	if strings.TrimSpace(content) == "" {
		outcome = "bad_request"
		return nil, validationError("content is required")
	}
	excerpt := strings.TrimSpace(in.Excerpt)
	if utf8.RuneCountInString(excerpt) > maxExcerptLength {
		outcome = "bad_request"
		return nil, validationError("excerpt must be at most %d characters", maxExcerptLength)
	}
	tags, err := normalizeTags(in.Tags)
	if err != nil {
		outcome = "bad_request"
		return nil, err
	}
	if taken, err := s.repo.SlugExists(blogSlug, 0); err != nil {
		outcome = "error"
		return nil, err
	} else if taken {
		outcome = "conflict"
		return nil, conflictError("A blog with this slug already exists")
	}

	now := s.now()
	blog := &domain.Blog{
		Title:            title,
		Slug:             blogSlug,
		Excerpt:          excerpt,
		Content:          content,
		AuthorID:         author.ID,
		FeaturedImage:    strings.TrimSpace(in.FeaturedImage),
		FeaturedImageKey: strings.TrimSpace(in.FeaturedImageKey),
		Tags:             tags,
		Status:           status,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if status == domain.BlogStatusPublished {
		publishedAt := now
		if in.PublishedAt != nil {
			publishedAt = in.PublishedAt.UTC()
		}
		blog.PublishedAt = &publishedAt
	}
	if err := s.repo.Create(blog); err != nil {
		if errors.Is(err, repository.ErrBlogSlugTaken) {
			outcome = "conflict"
			return nil, conflictError("A blog with this slug already exists")
		}
		outcome = "error"
		return nil, err
	}
	invalidateList(ctx, s.cache.Cache, ListCacheNamespaceBlogs)
	return blog, nil
}

func (s *BlogService) Update(ctx context.Context, id uint, in UpdateBlogInput) (*domain.Blog, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordContentOperation(ctx, "blog", "update", outcome, time.Since(start)) }()

	current, err := s.repo.FindByID(id)
	if err != nil {
		outcome = blogOutcome(err)
		return nil, mapBlogError(err)
	}

	updates := map[string]any{}
	title := current.Title
	if in.Title != nil {
		title = strings.TrimSpace(*in.Title)
		if err := validateTitle(title); err != nil {
			outcome = "bad_request"
			return nil, err
		}
		updates["title"] = title
	}
	if in.Slug != nil {
		next, err := resolveSlug(*in.Slug, title)
		if err != nil {
			outcome = "bad_request"
			return nil, err
		}
		if next != current.Slug {
			if taken, err := s.repo.SlugExists(next, id); err != nil {
				outcome = "error"
				return nil, err
			} else if taken {
				outcome = "conflict"
				return nil, conflictError("A blog with this slug already exists")
			}
			updates["slug"] = next
		}
	}
	if in.Excerpt != nil {
		excerpt := strings.TrimSpace(*in.Excerpt)
		if utf8.RuneCountInString(excerpt) > maxExcerptLength {
			outcome = "bad_request"
			return nil, validationError("excerpt must be at most %d characters", maxExcerptLength)
		}
		updates["excerpt"] = excerpt
	}
	if in.Content != nil {
		content := s.sanitizer.Sanitize(*in.Content)
		if strings.TrimSpace(content) == "" {
			outcome = "bad_request"
			return nil, validationError("content is required")
		}
		updates["content"] = content
	}
	if in.FeaturedImage != nil {
		updates["featured_image"] = strings.TrimSpace(*in.FeaturedImage)
	}
	var replacedImageKey string
	if in.FeaturedImageKey != nil {
		next := strings.TrimSpace(*in.FeaturedImageKey)
		if next != current.FeaturedImageKey {
			replacedImageKey = current.FeaturedImageKey
		}
		updates["featured_image_key"] = next
	}
	if in.Tags != nil {
		tags, err := normalizeTags(*in.Tags)
		if err != nil {
			outcome = "bad_request"
			return nil, err
		}
		updates["tags"] = tags
	}
	if in.Status != nil {
		status := strings.TrimSpace(*in.Status)
		if !domain.IsValidBlogStatus(status) {
			outcome = "bad_request"
			return nil, validationError("status must be one of draft, published, archived")
		}
		updates["status"] = status
		if status == domain.BlogStatusPublished && current.PublishedAt == nil {
			publishedAt := s.now()
			if in.PublishedAt != nil {
				publishedAt = in.PublishedAt.UTC()
			}
			updates["published_at"] = publishedAt
		}
	}
	if in.PublishedAt != nil && current.PublishedAt != nil {
		updates["published_at"] = in.PublishedAt.UTC()
	}
	if len(updates) == 0 {
		return current, nil
	}
	updates["updated_at"] = s.now()

	if err := s.repo.Update(id, updates); err != nil {
		outcome = blogOutcome(err)
		return nil, mapBlogError(err)
	}
	updated, err := s.repo.FindByID(id)
	if err != nil {
		outcome = "error"
		return nil, mapBlogError(err)
	}
	s.removeImages(ctx, replacedImageKey)
	invalidateList(ctx, s.cache.Cache, ListCacheNamespaceBlogs)
	return updated, nil
}

func (s *BlogService) Delete(ctx context.Context, id uint) error {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordContentOperation(ctx, "blog", "delete", outcome, time.Since(start)) }()

	current, err := s.repo.FindByID(id)
	if err != nil {
		outcome = blogOutcome(err)
		return mapBlogError(err)
	}
	if err := s.repo.DeleteByID(id); err != nil {
		outcome = blogOutcome(err)
		return mapBlogError(err)
	}
	s.removeImages(ctx, current.FeaturedImageKey)
	invalidateList(ctx, s.cache.Cache, ListCacheNamespaceBlogs)
	return nil
}

func (s *BlogService) GetByID(ctx context.Context, id uint) (*domain.Blog, error) {
	blog, err := s.repo.FindByID(id)
	if err != nil {
		return nil, mapBlogError(err)
	}
	return blog, nil
}

// GetBySlug serves the public page; drafts and archived posts read as absent.
func (s *BlogService) GetBySlug(ctx context.Context, blogSlug string) (*domain.BlogView, error) {
	view, err := s.repo.FindViewBySlug(strings.TrimSpace(blogSlug))
	if err != nil {
		return nil, mapBlogError(err)
	}
	if view.Status != domain.BlogStatusPublished {
		return nil, ErrNotFound
	}
	withAuthorFallback(view)
	return view, nil
}

func (s *BlogService) ListPublished(ctx context.Context, page repository.PageRequest, tag string) (repository.PageResult[domain.BlogView], error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordContentOperation(ctx, "blog", "list_published", outcome, time.Since(start)) }()

	q := repository.BlogListQuery{PageRequest: page, Status: domain.BlogStatusPublished, Tag: strings.ToLower(strings.TrimSpace(tag))}
	key := fmt.Sprintf("page=%d&size=%d&tag=%s", page.Page, page.PageSize, q.Tag)
	res, err := cachedList(ctx, s.cache.Cache, s.cache.TTL, ListCacheNamespaceBlogs, key, func() (repository.PageResult[domain.BlogView], error) {
		res, err := s.repo.ListPaged(q)
		if err != nil {
			return res, err
		}
		for i := range res.Items {
			withAuthorFallback(&res.Items[i])
		}
		return res, nil
	})
	if err != nil {
		outcome = "error"
	}
	return res, err
}

func (s *BlogService) ListAll(ctx context.Context, q repository.BlogListQuery) (repository.PageResult[domain.BlogView], error) {
	if q.Status != "" && !domain.IsValidBlogStatus(q.Status) {
		return repository.PageResult[domain.BlogView]{}, validationError("status must be one of draft, published, archived")
	}
	res, err := s.repo.ListPaged(q)
	if err != nil {
		return res, err
	}
	for i := range res.Items {
		withAuthorFallback(&res.Items[i])
	}
	return res, nil
}

func (s *BlogService) removeImages(ctx context.Context, keys ...string) {
	if err := s.images.DeleteObjects(ctx, keys...); err != nil {
		s.logger.WarnContext(ctx, "stored image cleanup failed", "keys", keys, "error", err)
	}
}

func withAuthorFallback(view *domain.BlogView) {
	if strings.TrimSpace(view.AuthorName) == "" {
		view.AuthorName = UnknownAuthorName
	}
}

func mapBlogError(err error) error {
	switch {
	case errors.Is(err, repository.ErrBlogNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrBlogSlugTaken):
		return conflictError("A blog with this slug already exists")
	default:
		return err
	}
}

func blogOutcome(err error) string {
	switch {
	case errors.Is(err, repository.ErrBlogNotFound):
		return "not_found"
	case errors.Is(err, repository.ErrBlogSlugTaken):
		return "conflict"
	default:
		return "error"
	}
}

func validateTitle(title string) error {
	if n := utf8.RuneCountInString(title); n == 0 || n > maxTitleLength {
		return validationError("title must be between 1 and %d characters", maxTitleLength)
	}
	return nil
}

// resolveSlug normalizes an explicit slug, or derives one from the title
// when none was given.
func resolveSlug(explicit, title string) (string, error) {
	source := strings.TrimSpace(explicit)
	if source == "" {
		source = title
	}
	out := slug.Make(source)
	if out == "" {
		return "", validationError("slug could not be derived, provide one explicitly")
	}
	if len(out) > 200 {
		out = strings.Trim(out[:200], "-")
	}
	return out, nil
}

func normalizeTags(in []string) (domain.StringList, error) {
	out := make(domain.StringList, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, tag := range in {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		if utf8.RuneCountInString(tag) > 50 {
			return nil, validationError("tags must be at most 50 characters")
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	if len(out) > maxTags {
		return nil, validationError("at most %d tags are allowed", maxTags)
	}
	return out, nil
}
