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

type CreateEventInput struct {
	Title       string
	Slug        string
	Description string
	StartDate   time.Time
	EndDate     *time.Time
	Location    string
	Image       string
	ImageKey    string
	Capacity    *int
	Status      string
}

// UpdateEventInput is a partial update. ClearEndDate and ClearCapacity remove
// the optional values since a nil pointer means "unchanged".
type UpdateEventInput struct {
	Title         *string
	Slug          *string
	Description   *string
	StartDate     *time.Time
	EndDate       *time.Time
	ClearEndDate  bool
	Location      *string
	Image         *string
	ImageKey      *string
	Capacity      *int
	ClearCapacity bool
	Status        *string
}

type RegisterInput struct {
	Name  string
	Email string
	Phone string
}

type EventService struct {
	repo   repository.EventRepository
	images ImageStorage
	cache  ContentCachePolicy
	logger *slog.Logger
	now    func() time.Time
}

func NewEventService(repo repository.EventRepository, images ImageStorage, cache ContentCachePolicy, logger *slog.Logger) *EventService {
	if images == nil {
		images = DisabledImageStorage{}
	}
	return &EventService{
		repo:   repo,
		images: images,
		cache:  cache,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *EventService) Create(ctx context.Context, organizer *domain.User, in CreateEventInput) (*domain.Event, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordContentOperation(ctx, "event", "create", outcome, time.Since(start)) }()

	title := strings.TrimSpace(in.Title)
	if err := validateTitle(title); err != nil {
		outcome = "bad_request"
		return nil, err
	}
	eventSlug, err := resolveSlug(in.Slug, title)
	if err != nil {
		outcome = "bad_request"
		return nil, err
	}
	description := strings.TrimSpace(in.Description)
	location := strings.TrimSpace(in.Location)
	status := strings.TrimSpace(in.Status)
	if status == "" {
		status = domain.EventStatusUpcoming
	}
	if err := validateEventFields(description, location, status, in.StartDate, in.EndDate, in.Capacity); err != nil {
		outcome = "bad_request"
		return nil, err
	}
	if taken, err := s.repo.SlugExists(eventSlug, 0); err != nil {
		outcome = "error"
		return nil, err
	} else if taken {
		outcome = "conflict"
		return nil, conflictError("An event with this slug already exists")
	}

	now := s.now()
	event := &domain.Event{
		Title:       title,
		Slug:        eventSlug,
		Description: description,
		StartDate:   in.StartDate.UTC(),
		EndDate:     utcPtr(in.EndDate),
		Location:    location,
		Image:       strings.TrimSpace(in.Image),
		ImageKey:    strings.TrimSpace(in.ImageKey),
		Capacity:    in.Capacity,
		Status:      status,
		OrganizerID: organizer.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(event); err != nil {
		outcome = eventOutcome(err)
		return nil, mapEventError(err)
	}
	invalidateList(ctx, s.cache.Cache, ListCacheNamespaceEvents)
	return event, nil
}

func (s *EventService) Update(ctx context.Context, id uint, in UpdateEventInput) (*domain.Event, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordContentOperation(ctx, "event", "update", outcome, time.Since(start)) }()

	current, err := s.repo.FindByID(id)
	if err != nil {
		outcome = eventOutcome(err)
		return nil, mapEventError(err)
	}

	next := *current
	updates := map[string]any{}
	if in.Title != nil {
		next.Title = strings.TrimSpace(*in.Title)
		if err := validateTitle(next.Title); err != nil {
			outcome = "bad_request"
			return nil, err
		}
		updates["title"] = next.Title
	}
	if in.Slug != nil {
		eventSlug, err := resolveSlug(*in.Slug, next.Title)
		if err != nil {
			outcome = "bad_request"
			return nil, err
		}
		if eventSlug != current.Slug {
			if taken, err := s.repo.SlugExists(eventSlug, id); err != nil {
				outcome = "error"
				return nil, err
			} else if taken {
				outcome = "conflict"
				return nil, conflictError("An event with this slug already exists")
			}
			updates["slug"] = eventSlug
		}
	}
	if in.Description != nil {
		next.Description = strings.TrimSpace(*in.Description)
		updates["description"] = next.Description
	}
	if in.StartDate != nil {
		next.StartDate = in.StartDate.UTC()
		updates["start_date"] = next.StartDate
	}
	switch {
	case in.ClearEndDate:
		next.EndDate = nil
		updates["end_date"] = nil
	case in.EndDate != nil:
		next.EndDate = utcPtr(in.EndDate)
		updates["end_date"] = *next.EndDate
	}
	if in.Location != nil {
		next.Location = strings.TrimSpace(*in.Location)
		updates["location"] = next.Location
	}
	if in.Image != nil {
		updates["image"] = strings.TrimSpace(*in.Image)
	}
	var replacedImageKey string
	if in.ImageKey != nil {
		key := strings.TrimSpace(*in.ImageKey)
		if key != current.ImageKey {
			replacedImageKey = current.ImageKey
		}
		updates["image_key"] = key
	}
	switch {
	case in.ClearCapacity:
		next.Capacity = nil
		updates["capacity"] = nil
	case in.Capacity != nil:
		next.Capacity = in.Capacity
		updates["capacity"] = *in.Capacity
	}
	if in.Status != nil {
		next.Status = strings.TrimSpace(*in.Status)
		updates["status"] = next.Status
	}
	if err := validateEventFields(next.Description, next.Location, next.Status, next.StartDate, next.EndDate, next.Capacity); err != nil {
		outcome = "bad_request"
		return nil, err
	}
	if next.Capacity != nil && *next.Capacity < current.Registrations {
		outcome = "conflict"
		return nil, conflictError("capacity cannot be lower than the %d existing registrations", current.Registrations)
	}
	if len(updates) == 0 {
		return current, nil
	}
	updates["updated_at"] = s.now()

	if err := s.repo.Update(id, updates); err != nil {
		outcome = eventOutcome(err)
		return nil, mapEventError(err)
	}
	updated, err := s.repo.FindByID(id)
	if err != nil {
		outcome = "error"
		return nil, mapEventError(err)
	}
	s.removeImages(ctx, replacedImageKey)
	invalidateList(ctx, s.cache.Cache, ListCacheNamespaceEvents)
	return updated, nil
}

func (s *EventService) Delete(ctx context.Context, id uint) error {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordContentOperation(ctx, "event", "delete", outcome, time.Since(start)) }()

	current, err := s.repo.FindByID(id)
	if err != nil {
		outcome = eventOutcome(err)
		return mapEventError(err)
	}
	if err := s.repo.DeleteByID(id); err != nil {
		outcome = eventOutcome(err)
		return mapEventError(err)
	}
	s.removeImages(ctx, current.ImageKey)
	invalidateList(ctx, s.cache.Cache, ListCacheNamespaceEvents)
	return nil
}

func (s *EventService) GetByID(ctx context.Context, id uint) (*domain.Event, error) {
	event, err := s.repo.FindByID(id)
	if err != nil {
		return nil, mapEventError(err)
	}
	return event, nil
}

func (s *EventService) GetBySlug(ctx context.Context, eventSlug string) (*domain.Event, error) {
	event, err := s.repo.FindBySlug(strings.TrimSpace(eventSlug))
	if err != nil {
		return nil, mapEventError(err)
	}
	return event, nil
}

// ListPublic lists events by start date. Without a status filter cancelled
// events are hidden.
func (s *EventService) ListPublic(ctx context.Context, page repository.PageRequest, status string) (repository.PageResult[domain.Event], error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordContentOperation(ctx, "event", "list_public", outcome, time.Since(start)) }()

	status = strings.TrimSpace(strings.ToLower(status))
	if status != "" && !domain.IsValidEventStatus(status) {
		outcome = "bad_request"
		return repository.PageResult[domain.Event]{}, validationError("status must be one of upcoming, ongoing, completed, cancelled")
	}
	q := repository.EventListQuery{PageRequest: page, Status: status}
	if status == "" {
		q.Statuses = []string{domain.EventStatusUpcoming, domain.EventStatusOngoing, domain.EventStatusCompleted}
	}
	key := fmt.Sprintf("page=%d&size=%d&status=%s", page.Page, page.PageSize, status)
	res, err := cachedList(ctx, s.cache.Cache, s.cache.TTL, ListCacheNamespaceEvents, key, func() (repository.PageResult[domain.Event], error) {
		return s.repo.ListPaged(q)
	})
	if err != nil {
		outcome = "error"
	}
	return res, err
}

func (s *EventService) ListAll(ctx context.Context, q repository.EventListQuery) (repository.PageResult[domain.Event], error) {
	if q.Status != "" && !domain.IsValidEventStatus(q.Status) {
		return repository.PageResult[domain.Event]{}, validationError("status must be one of upcoming, ongoing, completed, cancelled")
	}
	return s.repo.ListPaged(q)
}

func (s *EventService) Register(ctx context.Context, eventSlug string, in RegisterInput) (*domain.EventRegistration, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordContentOperation(ctx, "event", "register", outcome, time.Since(start)) }()

	name := strings.TrimSpace(in.Name)
	email := domain.NormalizeEmail(in.Email)
	phone := strings.TrimSpace(in.Phone)
	if n := utf8.RuneCountInString(name); n == 0 || n > maxNameLength {
		outcome = "bad_request"
		return nil, validationError("name must be between 1 and %d characters", maxNameLength)
	}
	if err := validateEmail(email); err != nil {
		outcome = "bad_request"
		return nil, err
	}
	if len(phone) > 32 {
		outcome = "bad_request"
		return nil, validationError("phone must be at most 32 characters")
	}

	event, err := s.repo.FindBySlug(strings.TrimSpace(eventSlug))
	if err != nil {
		outcome = eventOutcome(err)
		return nil, mapEventError(err)
	}
	reg := &domain.EventRegistration{
		UserEmail:    email,
		UserName:     name,
		Phone:        phone,
		RegisteredAt: s.now(),
	}
	if err := s.repo.Register(event.ID, reg); err != nil {
		outcome = eventOutcome(err)
		return nil, mapEventError(err)
	}
	invalidateList(ctx, s.cache.Cache, ListCacheNamespaceEvents)
	return reg, nil
}

func (s *EventService) ListRegistrations(ctx context.Context, eventID uint, page repository.PageRequest) (repository.PageResult[domain.EventRegistration], error) {
	if _, err := s.repo.FindByID(eventID); err != nil {
		return repository.PageResult[domain.EventRegistration]{}, mapEventError(err)
	}
	return s.repo.ListRegistrations(eventID, page)
}

func (s *EventService) removeImages(ctx context.Context, keys ...string) {
	if err := s.images.DeleteObjects(ctx, keys...); err != nil {
		s.logger.WarnContext(ctx, "stored image cleanup failed", "keys", keys, "error", err)
	}
}

func validateEventFields(description, location, status string, startDate time.Time, endDate *time.Time, capacity *int) error {
	if description == "" {
		return validationError("description is required")
	}
	if n := utf8.RuneCountInString(location); n == 0 || n > 255 {
		return validationError("location must be between 1 and 255 characters")
	}
	if !domain.IsValidEventStatus(status) {
		return validationError("status must be one of upcoming, ongoing, completed, cancelled")
	}
	if startDate.IsZero() {
		return validationError("start date is required")
	}
	if endDate != nil && endDate.Before(startDate) {
		return validationError("end date must not be before start date")
	}
	if capacity != nil && *capacity <= 0 {
		return validationError("capacity must be greater than zero")
	}
	return nil
}

func mapEventError(err error) error {
	switch {
	case errors.Is(err, repository.ErrEventNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrEventSlugTaken):
		return conflictError("An event with this slug already exists")
	case errors.Is(err, repository.ErrEventClosed):
		return conflictError("Event is not accepting registrations")
	case errors.Is(err, repository.ErrEventFull):
		return conflictError("Event is full")
	case errors.Is(err, repository.ErrEventAlreadyRegistered):
		return conflictError("Already registered for this event")
	default:
		return err
	}
}

func eventOutcome(err error) string {
	switch {
	case errors.Is(err, repository.ErrEventNotFound):
		return "not_found"
	case errors.Is(err, repository.ErrEventSlugTaken),
		errors.Is(err, repository.ErrEventClosed),
		errors.Is(err, repository.ErrEventFull),
		errors.Is(err, repository.ErrEventAlreadyRegistered):
		return "conflict"
	default:
		return "error"
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
