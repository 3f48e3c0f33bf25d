package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/tooffoundation/site-backend/internal/domain"
	"github.com/tooffoundation/site-backend/internal/observability"
)

var ErrGalleryCollectionNotFound = errors.New("gallery collection not found")

type GalleryListQuery struct {
	PageRequest
	Category string
	Featured *bool
}

type GalleryRepository interface {
	Create(collection *domain.GalleryCollection) error
	FindByID(id uint) (*domain.GalleryCollection, error)
	ListPaged(q GalleryListQuery) (PageResult[domain.GalleryCollection], error)
	Update(id uint, updates map[string]any, images []domain.GalleryImage, replaceImages bool) error
	DeleteByID(id uint) error
}

type GormGalleryRepository struct{ db *gorm.DB }

func NewGalleryRepository(db *gorm.DB) GalleryRepository {
	return &GormGalleryRepository{db: db}
}

func orderedImages(db *gorm.DB) *gorm.DB {
	return db.Order("position asc, id asc")
}

func (r *GormGalleryRepository) Create(collection *domain.GalleryCollection) error {
	for i := range collection.Images {
		collection.Images[i].Position = i
	}
	if err := r.db.Create(collection).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "gallery_collection", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "gallery_collection", "create", "success")
	return nil
}

func (r *GormGalleryRepository) FindByID(id uint) (*domain.GalleryCollection, error) {
	var collection domain.GalleryCollection
	if err := r.db.Preload("Images", orderedImages).First(&collection, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "gallery_collection", "find_by_id", "not_found")
			return nil, ErrGalleryCollectionNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "gallery_collection", "find_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "gallery_collection", "find_by_id", "success")
	return &collection, nil
}

func (r *GormGalleryRepository) ListPaged(q GalleryListQuery) (PageResult[domain.GalleryCollection], error) {
	base := r.db.Model(&domain.GalleryCollection{})
	if category := strings.TrimSpace(q.Category); category != "" {
		base = base.Where("category = ?", category)
	}
	if q.Featured != nil {
		base = base.Where("featured = ?", *q.Featured)
	}
	base = base.Session(&gorm.Session{})
	return fetchPage[domain.GalleryCollection]("gallery_collection", q.PageRequest, base,
		base.Preload("Images", orderedImages).Order("created_at desc, id desc"))
}

// Update applies column updates and, when replaceImages is set, swaps the
// whole ordered image list in the same transaction.
func (r *GormGalleryRepository) Update(id uint, updates map[string]any, images []domain.GalleryImage, replaceImages bool) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.GalleryCollection{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrGalleryCollectionNotFound
		}
		if len(updates) > 0 {
			if err := tx.Model(&domain.GalleryCollection{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return err
			}
		}
		if !replaceImages {
			return nil
		}
		if err := tx.Where("collection_id = ?", id).Delete(&domain.GalleryImage{}).Error; err != nil {
			return err
		}
		if len(images) == 0 {
			return nil
		}
		for i := range images {
			images[i].ID = 0
			images[i].CollectionID = id
			images[i].Position = i
		}
		return tx.Create(&images).Error
	})
	if err != nil {
		outcome := "error"
		if errors.Is(err, ErrGalleryCollectionNotFound) {
			outcome = "not_found"
		}
		observability.RecordRepositoryOperation(context.Background(), "gallery_collection", "update", outcome)
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "gallery_collection", "update", "success")
	return nil
}

func (r *GormGalleryRepository) DeleteByID(id uint) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("collection_id = ?", id).Delete(&domain.GalleryImage{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&domain.GalleryCollection{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrGalleryCollectionNotFound
		}
		return nil
	})
	if err != nil {
		outcome := "error"
		if errors.Is(err, ErrGalleryCollectionNotFound) {
			outcome = "not_found"
		}
		observability.RecordRepositoryOperation(context.Background(), "gallery_collection", "delete_by_id", outcome)
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "gallery_collection", "delete_by_id", "success")
	return nil
}
