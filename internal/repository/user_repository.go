package repository

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tooffoundation/site-backend/internal/domain"
	"github.com/tooffoundation/site-backend/internal/observability"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrUserEmailTaken = errors.New("user email already exists")
	ErrLastAdmin      = errors.New("cannot demote the last admin")
)

type UserListQuery struct {
	PageRequest
	Role   string
	Email  string
	SortBy string
	Desc   bool
}

type UserRepository interface {
	FindByID(id uint) (*domain.User, error)
	FindByEmail(email string) (*domain.User, error)
	Create(user *domain.User) error
	UpdatePasswordByEmail(email, passwordHash string, now time.Time) error
	SetRole(id uint, role string, now time.Time) error
	DemoteAdmin(id uint, role string, now time.Time) error
	ListPaged(q UserListQuery) (PageResult[domain.User], error)
}

type GormUserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &GormUserRepository{db: db} }

func (r *GormUserRepository) FindByID(id uint) (*domain.User, error) {
	var u domain.User
	if err := r.db.First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "user", "find_by_id", "not_found")
			return nil, ErrUserNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "user", "find_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "find_by_id", "success")
	return &u, nil
}

func (r *GormUserRepository) FindByEmail(email string) (*domain.User, error) {
	var u domain.User
	if err := r.db.Where("email = ?", domain.NormalizeEmail(email)).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "user", "find_by_email", "not_found")
			return nil, ErrUserNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "user", "find_by_email", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "find_by_email", "success")
	return &u, nil
}

func (r *GormUserRepository) Create(user *domain.User) error {
	user.Email = domain.NormalizeEmail(user.Email)
	if err := r.db.Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			observability.RecordRepositoryOperation(context.Background(), "user", "create", "conflict")
			return ErrUserEmailTaken
		}
		observability.RecordRepositoryOperation(context.Background(), "user", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "create", "success")
	return nil
}

func (r *GormUserRepository) UpdatePasswordByEmail(email, passwordHash string, now time.Time) error {
	res := r.db.Model(&domain.User{}).
		Where("email = ?", domain.NormalizeEmail(email)).
		Updates(map[string]any{"password_hash": passwordHash, "updated_at": now})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "user", "update_password", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(context.Background(), "user", "update_password", "not_found")
		return ErrUserNotFound
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "update_password", "success")
	return nil
}

func (r *GormUserRepository) SetRole(id uint, role string, now time.Time) error {
	res := r.db.Model(&domain.User{}).Where("id = ?", id).
		Updates(map[string]any{"role": role, "updated_at": now})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "user", "set_role", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(context.Background(), "user", "set_role", "not_found")
		return ErrUserNotFound
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "set_role", "success")
	return nil
}

// DemoteAdmin moves an admin to another role unless it is the last admin.
// The admin rows are locked for the check so two concurrent demotions cannot
// both pass it. SQLite ignores the lock and serializes the writers instead.
func (r *GormUserRepository) DemoteAdmin(id uint, role string, now time.Time) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var adminIDs []uint
		if err := tx.Model(&domain.User{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("role = ?", domain.RoleAdmin).
			Order("id").
			Pluck("id", &adminIDs).Error; err != nil {
			return err
		}
		if slices.Contains(adminIDs, id) && len(adminIDs) <= 1 {
			return ErrLastAdmin
		}
		res := tx.Model(&domain.User{}).Where("id = ?", id).
			Updates(map[string]any{"role": role, "updated_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrUserNotFound
		}
		return nil
	})
	switch {
	case err == nil:
		observability.RecordRepositoryOperation(context.Background(), "user", "demote_admin", "success")
	case errors.Is(err, ErrLastAdmin):
		observability.RecordRepositoryOperation(context.Background(), "user", "demote_admin", "conflict")
	case errors.Is(err, ErrUserNotFound):
		observability.RecordRepositoryOperation(context.Background(), "user", "demote_admin", "not_found")
	default:
		observability.RecordRepositoryOperation(context.Background(), "user", "demote_admin", "error")
	}
	return err
}

var userSortColumns = map[string]string{
	"id":         "id",
	"email":      "email",
	"name":       "name",
	"created_at": "created_at",
}

func (r *GormUserRepository) ListPaged(q UserListQuery) (PageResult[domain.User], error) {
	base := r.db.Model(&domain.User{})
	if role := strings.TrimSpace(q.Role); role != "" {
		base = base.Where("role = ?", role)
	}
	if email := strings.TrimSpace(q.Email); email != "" {
		base = base.Where("email LIKE ?", "%"+strings.ToLower(email)+"%")
	}
	base = base.Session(&gorm.Session{})
	return fetchPage[domain.User]("user", q.PageRequest, base, base.Order(orderClause(userSortColumns, q.SortBy, q.Desc, "id desc")))
}
