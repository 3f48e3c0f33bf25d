package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/tooffoundation/site-backend/internal/observability"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageRequest is a 1-based page window. Out of range values are clamped
// rather than rejected.
type PageRequest struct {
	Page     int
	PageSize int
}

type PageResult[T any] struct {
	Items      []T
	Page       int
	PageSize   int
	Total      int64
	TotalPages int
}

func (p PageRequest) normalized() PageRequest {
	out := p
	if out.Page < 1 {
		out.Page = DefaultPage
	}
	switch {
	case out.PageSize < 1:
		out.PageSize = DefaultPageSize
	case out.PageSize > MaxPageSize:
		out.PageSize = MaxPageSize
	}
	return out
}

func (p PageRequest) offset() int {
	return (p.Page - 1) * p.PageSize
}

func totalPages(total int64, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}

// fetchPage counts the rows matched by count and loads the requested window
// through find. Both queries must apply the same filters; find carries the
// ordering and any preloads.
func fetchPage[T any](entity string, req PageRequest, count, find *gorm.DB) (PageResult[T], error) {
	req = req.normalized()
	page := PageResult[T]{Items: []T{}, Page: req.Page, PageSize: req.PageSize}
	if err := count.Count(&page.Total).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), entity, "list_paged", "error")
		return PageResult[T]{}, err
	}
	page.TotalPages = totalPages(page.Total, req.PageSize)
	// Comparing page numbers keeps offset() from overflowing on huge pages.
	if req.Page <= page.TotalPages {
		if err := find.Offset(req.offset()).Limit(req.PageSize).Find(&page.Items).Error; err != nil {
			observability.RecordRepositoryOperation(context.Background(), entity, "list_paged", "error")
			return PageResult[T]{}, err
		}
	}
	observability.RecordRepositoryOperation(context.Background(), entity, "list_paged", "success")
	return page, nil
}
