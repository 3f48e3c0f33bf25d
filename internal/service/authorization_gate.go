package service

import (
	"context"
	"errors"
	"time"

	"github.com/tooffoundation/site-backend/internal/domain"
	"github.com/tooffoundation/site-backend/internal/observability"
	"github.com/tooffoundation/site-backend/internal/repository"
)

// AuthorizationGate decides whether an identity may perform admin operations.
// The role is read from the store on every call so a demotion takes effect
// immediately.
type AuthorizationGate struct {
	users repository.UserRepository
}

func NewAuthorizationGate(users repository.UserRepository) *AuthorizationGate {
	return &AuthorizationGate{users: users}
}

func (g *AuthorizationGate) Authorize(ctx context.Context, email string) (*domain.User, error) {
	start := time.Now()
	outcome := "allowed"
	defer func() { observability.RecordAuthorizationDecision(ctx, outcome, time.Since(start)) }()

	email = domain.NormalizeEmail(email)
	if email == "" {
		outcome = "denied"
		return nil, ErrUnauthorized
	}
	user, err := g.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			outcome = "denied"
			return nil, ErrUnauthorized
		}
		outcome = "error"
		return nil, err
	}
	if !user.IsAdmin() {
		outcome = "denied"
		return nil, ErrUnauthorized
	}
	return user, nil
}
