package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tooffoundation/site-backend/internal/domain"
	"github.com/tooffoundation/site-backend/internal/observability"
	"github.com/tooffoundation/site-backend/internal/repository"
	"github.com/tooffoundation/site-backend/internal/security"
)

type AdminSeed struct {
	Email    string
	Password string
	Name     string
}

type SeedReport struct {
	Email    string `json:"email"`
	Created  bool   `json:"created"`
	Promoted bool   `json:"promoted"`
	Noop     bool   `json:"noop"`
}

// EnsureAdmin makes sure the bootstrap account exists and holds the admin
// role. An existing account keeps its password.
func EnsureAdmin(db *gorm.DB, seed AdminSeed) (*SeedReport, error) {
	ctx := context.Background()
	start := time.Now()
	defer func() {
		observability.RecordDatabaseStartupDuration(ctx, "seed", time.Since(start))
	}()

	email := domain.NormalizeEmail(seed.Email)
	if email == "" {
		return &SeedReport{Noop: true}, nil
	}
	report := &SeedReport{Email: email}
	users := repository.NewUserRepository(db)

	existing, err := users.FindByEmail(email)
	switch {
	case err == nil:
		if existing.Role != domain.RoleAdmin {
			if err := users.SetRole(existing.ID, domain.RoleAdmin, time.Now().UTC()); err != nil {
				observability.RecordDatabaseStartupEvent(ctx, "seed", "error")
				return nil, fmt.Errorf("promote bootstrap admin: %w", err)
			}
			report.Promoted = true
		}
	case errors.Is(err, repository.ErrUserNotFound):
		if seed.Password == "" {
			observability.RecordDatabaseStartupEvent(ctx, "seed", "error")
			return nil, errors.New("bootstrap admin password is required to create the account")
		}
		if err := security.CheckPasswordPolicy(seed.Password); err != nil {
			observability.RecordDatabaseStartupEvent(ctx, "seed", "error")
			return nil, fmt.Errorf("bootstrap admin password: %w", err)
		}
		hash, err := security.HashPassword(seed.Password)
		if err != nil {
			observability.RecordDatabaseStartupEvent(ctx, "seed", "error")
			return nil, err
		}
		name := seed.Name
		if name == "" {
			name = "Administrator"
		}
		if err := users.Create(&domain.User{Email: email, Name: name, PasswordHash: hash, Role: domain.RoleAdmin}); err != nil {
			observability.RecordDatabaseStartupEvent(ctx, "seed", "error")
			return nil, fmt.Errorf("create bootstrap admin: %w", err)
		}
		report.Created = true
	default:
		observability.RecordDatabaseStartupEvent(ctx, "seed", "error")
		return nil, err
	}

	report.Noop = !report.Created && !report.Promoted
	observability.RecordDatabaseStartupEvent(ctx, "seed", "success")
	return report, nil
}
