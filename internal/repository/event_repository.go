package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tooffoundation/site-backend/internal/domain"
	"github.com/tooffoundation/site-backend/internal/observability"
)

var (
	ErrEventNotFound          = errors.New("event not found")
	ErrEventSlugTaken         = errors.New("event slug already exists")
	ErrEventClosed            = errors.New("event is not accepting registrations")
	ErrEventFull              = errors.New("event is at capacity")
	ErrEventAlreadyRegistered = errors.New("email already registered for event")
)

type EventListQuery struct {
	PageRequest
	Status   string
	Statuses []string
}

type EventRepository interface {
	Create(event *domain.Event) error
	FindByID(id uint) (*domain.Event, error)
	FindBySlug(slug string) (*domain.Event, error)
	SlugExists(slug string, excludeID uint) (bool, error)
	ListPaged(q EventListQuery) (PageResult[domain.Event], error)
	Update(id uint, updates map[string]any) error
	DeleteByID(id uint) error
	Register(eventID uint, registration *domain.EventRegistration) error
	ListRegistrations(eventID uint, req PageRequest) (PageResult[domain.EventRegistration], error)
}

type GormEventRepository struct{ db *gorm.DB }

func NewEventRepository(db *gorm.DB) EventRepository {
	return &GormEventRepository{db: db}
}

func (r *GormEventRepository) Create(event *domain.Event) error {
	if err := r.db.Create(event).Error; err != nil {
		if isUniqueViolation(err) {
			observability.RecordRepositoryOperation(context.Background(), "event", "create", "conflict")
			return ErrEventSlugTaken
		}
		observability.RecordRepositoryOperation(context.Background(), "event", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "event", "create", "success")
	return nil
}

func (r *GormEventRepository) FindByID(id uint) (*domain.Event, error) {
	return r.findOne("find_by_id", r.db.Where("id = ?", id))
}

func (r *GormEventRepository) FindBySlug(slug string) (*domain.Event, error) {
	return r.findOne("find_by_slug", r.db.Where("slug = ?", slug))
}

func (r *GormEventRepository) findOne(op string, q *gorm.DB) (*domain.Event, error) {
	var event domain.Event
	if err := q.First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "event", op, "not_found")
			return nil, ErrEventNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "event", op, "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "event", op, "success")
	return &event, nil
}

func (r *GormEventRepository) SlugExists(slug string, excludeID uint) (bool, error) {
	var count int64
	q := r.db.Model(&domain.Event{}).Where("slug = ?", slug)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "event", "slug_exists", "error")
		return false, err
	}
	observability.RecordRepositoryOperation(context.Background(), "event", "slug_exists", "success")
	return count > 0, nil
}

func (r *GormEventRepository) ListPaged(q EventListQuery) (PageResult[domain.Event], error) {
	base := r.db.Model(&domain.Event{})
	switch {
	case q.Status != "":
		base = base.Where("status = ?", q.Status)
	case len(q.Statuses) > 0:
		base = base.Where("status IN ?", q.Statuses)
	}
	base = base.Session(&gorm.Session{})
	return fetchPage[domain.Event]("event", q.PageRequest, base, base.Order("start_date asc, id asc"))
}

func (r *GormEventRepository) Update(id uint, updates map[string]any) error {
	res := r.db.Model(&domain.Event{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			observability.RecordRepositoryOperation(context.Background(), "event", "update", "conflict")
			return ErrEventSlugTaken
		}
		observability.RecordRepositoryOperation(context.Background(), "event", "update", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(context.Background(), "event", "update", "not_found")
		return ErrEventNotFound
	}
	observability.RecordRepositoryOperation(context.Background(), "event", "update", "success")
	return nil
}

func (r *GormEventRepository) DeleteByID(id uint) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", id).Delete(&domain.EventRegistration{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&domain.Event{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrEventNotFound
		}
		return nil
	})
	if err != nil {
		outcome := "error"
		if errors.Is(err, ErrEventNotFound) {
			outcome = "not_found"
		}
		observability.RecordRepositoryOperation(context.Background(), "event", "delete_by_id", outcome)
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "event", "delete_by_id", "success")
	return nil
}

// Register claims a seat with a guarded counter update and records the
// registration in the same transaction. A duplicate email rolls the seat back.
func (r *GormEventRepository) Register(eventID uint, registration *domain.EventRegistration) error {
	registration.EventID = eventID
	registration.UserEmail = domain.NormalizeEmail(registration.UserEmail)
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Event{}).
			Where("id = ? AND status IN ? AND (capacity IS NULL OR registrations < capacity)",
				eventID, []string{domain.EventStatusUpcoming, domain.EventStatusOngoing}).
			Update("registrations", gorm.Expr("registrations + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var event domain.Event
			if err := tx.First(&event, eventID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrEventNotFound
				}
				return err
			}
			if !event.AcceptsRegistrations() {
				return ErrEventClosed
			}
			return ErrEventFull
		}
		if err := tx.Create(registration).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrEventAlreadyRegistered
			}
			return err
		}
		return nil
	})
	if err != nil {
		outcome := "error"
		switch {
		case errors.Is(err, ErrEventNotFound):
			outcome = "not_found"
		case errors.Is(err, ErrEventClosed), errors.Is(err, ErrEventFull), errors.Is(err, ErrEventAlreadyRegistered):
			outcome = "conflict"
		}
		observability.RecordRepositoryOperation(context.Background(), "event_registration", "create", outcome)
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "event_registration", "create", "success")
	return nil
}

func (r *GormEventRepository) ListRegistrations(eventID uint, req PageRequest) (PageResult[domain.EventRegistration], error) {
	base := r.db.Model(&domain.EventRegistration{}).Where("event_id = ?", eventID).Session(&gorm.Session{})
	return fetchPage[domain.EventRegistration]("event_registration", req, base, base.Order("registered_at asc, id asc"))
}
