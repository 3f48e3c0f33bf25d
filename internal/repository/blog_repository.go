package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/tooffoundation/site-backend/internal/domain"
	"github.com/tooffoundation/site-backend/internal/observability"
)

var (
	ErrBlogNotFound  = errors.New("blog not found")
	ErrBlogSlugTaken = errors.New("blog slug already exists")
)

type BlogListQuery struct {
	PageRequest
	Status   string
	AuthorID uint
	Tag      string
}

type BlogRepository interface {
	Create(blog *domain.Blog) error
	FindByID(id uint) (*domain.Blog, error)
	FindViewBySlug(slug string) (*domain.BlogView, error)
	SlugExists(slug string, excludeID uint) (bool, error)
	ListPaged(q BlogListQuery) (PageResult[domain.BlogView], error)
	Update(id uint, updates map[string]any) error
	DeleteByID(id uint) error
}

type GormBlogRepository struct{ db *gorm.DB }

func NewBlogRepository(db *gorm.DB) BlogRepository {
	return &GormBlogRepository{db: db}
}

func (r *GormBlogRepository) Create(blog *domain.Blog) error {
	if err := r.db.Create(blog).Error; err != nil {
		if isUniqueViolation(err) {
			observability.RecordRepositoryOperation(context.Background(), "blog", "create", "conflict")
			return ErrBlogSlugTaken
		}
		observability.RecordRepositoryOperation(context.Background(), "blog", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "blog", "create", "success")
	return nil
}

func (r *GormBlogRepository) FindByID(id uint) (*domain.Blog, error) {
	var blog domain.Blog
	if err := r.db.First(&blog, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "blog", "find_by_id", "not_found")
			return nil, ErrBlogNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "blog", "find_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "blog", "find_by_id", "success")
	return &blog, nil
}

func (r *GormBlogRepository) viewQuery() *gorm.DB {
	return r.db.Model(&domain.Blog{}).
		Select("blogs.*, COALESCE(users.name, '') AS author_name").
		Joins("LEFT JOIN users ON users.id = blogs.author_id")
}

func (r *GormBlogRepository) FindViewBySlug(slug string) (*domain.BlogView, error) {
	var views []domain.BlogView
	if err := r.viewQuery().Where("blogs.slug = ?", slug).Limit(1).Find(&views).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "blog", "find_by_slug", "error")
		return nil, err
	}
	if len(views) == 0 {
		observability.RecordRepositoryOperation(context.Background(), "blog", "find_by_slug", "not_found")
		return nil, ErrBlogNotFound
	}
	observability.RecordRepositoryOperation(context.Background(), "blog", "find_by_slug", "success")
	return &views[0], nil
}

func (r *GormBlogRepository) SlugExists(slug string, excludeID uint) (bool, error) {
	var count int64
	q := r.db.Model(&domain.Blog{}).Where("slug = ?", slug)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "blog", "slug_exists", "error")
		return false, err
	}
	observability.RecordRepositoryOperation(context.Background(), "blog", "slug_exists", "success")
	return count > 0, nil
}

func (r *GormBlogRepository) ListPaged(q BlogListQuery) (PageResult[domain.BlogView], error) {
	filter := func(db *gorm.DB) *gorm.DB {
		if q.Status != "" {
			db = db.Where("blogs.status = ?", q.Status)
		}
		if q.AuthorID != 0 {
			db = db.Where("blogs.author_id = ?", q.AuthorID)
		}
		if tag := strings.TrimSpace(q.Tag); tag != "" {
			db = db.Where(`blogs.tags LIKE ? ESCAPE '\'`, tagPattern(tag))
		}
		return db
	}
	order := "blogs.created_at desc, blogs.id desc"
	if q.Status == domain.BlogStatusPublished {
		order = "blogs.published_at desc, blogs.id desc"
	}
	return fetchPage[domain.BlogView]("blog", q.PageRequest,
		filter(r.db.Model(&domain.Blog{})), filter(r.viewQuery()).Order(order))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// tagPattern matches one element of the JSON-encoded tags column exactly.
func tagPattern(tag string) string {
	quoted, _ := json.Marshal(tag)
	return "%" + likeEscaper.Replace(string(quoted)) + "%"
}

func (r *GormBlogRepository) Update(id uint, updates map[string]any) error {
	res := r.db.Model(&domain.Blog{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			observability.RecordRepositoryOperation(context.Background(), "blog", "update", "conflict")
			return ErrBlogSlugTaken
		}
		observability.RecordRepositoryOperation(context.Background(), "blog", "update", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(context.Background(), "blog", "update", "not_found")
		return ErrBlogNotFound
	}
	observability.RecordRepositoryOperation(context.Background(), "blog", "update", "success")
	return nil
}

func (r *GormBlogRepository) DeleteByID(id uint) error {
	res := r.db.Delete(&domain.Blog{}, id)
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "blog", "delete_by_id", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(context.Background(), "blog", "delete_by_id", "not_found")
		return ErrBlogNotFound
	}
	observability.RecordRepositoryOperation(context.Background(), "blog", "delete_by_id", "success")
	return nil
}
