package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/tooffoundation/site-backend/internal/domain"
	"github.com/tooffoundation/site-backend/internal/observability"
	"github.com/tooffoundation/site-backend/internal/repository"
)

type UserService struct {
	userRepo repository.UserRepository
	now      func() time.Time
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo, now: func() time.Time { return time.Now().UTC() }}
}

func (s *UserService) GetByID(ctx context.Context, id uint) (*domain.User, error) {
	u, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (s *UserService) ListPaged(ctx context.Context, q repository.UserListQuery) (repository.PageResult[domain.User], error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordContentOperation(ctx, "user", "list", outcome, time.Since(start)) }()

	q.Role = strings.TrimSpace(strings.ToLower(q.Role))
	if q.Role != "" && !domain.IsValidRole(q.Role) {
		outcome = "bad_request"
		return repository.PageResult[domain.User]{}, validationError("role must be admin or user")
	}
	res, err := s.userRepo.ListPaged(q)
	if err != nil {
		outcome = "error"
	}
	return res, err
}

// SetRole changes a user's role. Demoting the only remaining admin is refused
// so the site can never lock itself out of administration.
func (s *UserService) SetRole(ctx context.Context, actor *domain.User, userID uint, role string) (*domain.User, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordContentOperation(ctx, "user", "set_role", outcome, time.Since(start)) }()

	role = strings.TrimSpace(strings.ToLower(role))
	if !domain.IsValidRole(role) {
		outcome = "bad_request"
		return nil, validationError("role must be admin or user")
	}
	target, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			outcome = "not_found"
			return nil, ErrNotFound
		}
		outcome = "error"
		return nil, err
	}
	if target.Role == role {
		return target, nil
	}
	write := s.userRepo.SetRole
	if target.IsAdmin() {
		write = s.userRepo.DemoteAdmin
	}
	if err := write(target.ID, role, s.now()); err != nil {
		switch {
		case errors.Is(err, repository.ErrLastAdmin):
			outcome = "conflict"
			return nil, conflictError("at least one admin must remain")
		case errors.Is(err, repository.ErrUserNotFound):
			outcome = "not_found"
			return nil, ErrNotFound
		}
		outcome = "error"
		return nil, err
	}
	target.Role = role
	target.UpdatedAt = s.now()

	actorEmail := ""
	if actor != nil {
		actorEmail = actor.Email
	}
	observability.EmitAudit(ctx, observability.AuditInput{
		Event:   "user.role.changed",
		Actor:   actorEmail,
		Target:  target.Email,
		Outcome: "success",
		Details: map[string]any{"role": role},
	})
	return target, nil
}
