package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tooffoundation/site-backend/internal/domain"
	"github.com/tooffoundation/site-backend/internal/observability"
)

var (
	ErrPasswordResetCodeNotFound = errors.New("password reset code not found")
	ErrPasswordResetCodeConsumed = errors.New("password reset code already consumed")
)

// PasswordResetRepository stores reset codes. Rows are only ever flipped to
// used; they are never hard-deleted.
type PasswordResetRepository interface {
	Issue(code *domain.PasswordResetCode) error
	FindActiveByEmail(email string) (*domain.PasswordResetCode, error)
	FindByEmailAndCode(email, code string) (*domain.PasswordResetCode, error)
	IncrementAttempts(id uint, now time.Time) error
	IncrementAttemptsBelow(id uint, limit int, now time.Time) (bool, error)
	IncrementLatestUnused(email string, now time.Time) (bool, error)
	MarkUsed(id uint, now time.Time) error
	WithinTransaction(fn func(resets PasswordResetRepository, users UserRepository) error) error
}

type GormPasswordResetRepository struct{ db *gorm.DB }

func NewPasswordResetRepository(db *gorm.DB) PasswordResetRepository {
	return &GormPasswordResetRepository{db: db}
}

// Issue burns every earlier code for the email and inserts the new one in a
// single transaction.
func (r *GormPasswordResetRepository) Issue(code *domain.PasswordResetCode) error {
	code.Email = domain.NormalizeEmail(code.Email)
	code.Used = false
	code.Attempts = 0
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.PasswordResetCode{}).
			Where("email = ? AND used = ?", code.Email, false).
			Updates(map[string]any{"used": true, "updated_at": code.CreatedAt}).Error; err != nil {
			return err
		}
		return tx.Create(code).Error
	})
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "password_reset_code", "issue", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "password_reset_code", "issue", "success")
	return nil
}

// FindActiveByEmail returns the unused code for the email, newest first when a
// race left more than one. With no unused code it falls back to the newest
// consumed one so callers can report it as already used.
func (r *GormPasswordResetRepository) FindActiveByEmail(email string) (*domain.PasswordResetCode, error) {
	return r.findOne("find_active", r.db.Where("email = ?", domain.NormalizeEmail(email)).Order("used asc, id desc"))
}

func (r *GormPasswordResetRepository) FindByEmailAndCode(email, code string) (*domain.PasswordResetCode, error) {
	return r.findOne("find_by_code", r.db.Where("email = ? AND code = ?", domain.NormalizeEmail(email), code).Order("used asc, id desc"))
}

func (r *GormPasswordResetRepository) findOne(op string, q *gorm.DB) (*domain.PasswordResetCode, error) {
	var code domain.PasswordResetCode
	if err := q.First(&code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "password_reset_code", op, "not_found")
			return nil, ErrPasswordResetCodeNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "password_reset_code", op, "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "password_reset_code", op, "success")
	return &code, nil
}

func (r *GormPasswordResetRepository) IncrementAttempts(id uint, now time.Time) error {
	res := r.db.Model(&domain.PasswordResetCode{}).Where("id = ?", id).
		Updates(map[string]any{"attempts": gorm.Expr("attempts + 1"), "updated_at": now})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "password_reset_code", "increment_attempts", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(context.Background(), "password_reset_code", "increment_attempts", "not_found")
		return ErrPasswordResetCodeNotFound
	}
	observability.RecordRepositoryOperation(context.Background(), "password_reset_code", "increment_attempts", "success")
	return nil
}

// IncrementAttemptsBelow counts a failed guess only while the code is under
// limit. The guard is part of the UPDATE, so concurrent guesses cannot push
// the counter past limit. It reports false when the code is already locked.
func (r *GormPasswordResetRepository) IncrementAttemptsBelow(id uint, limit int, now time.Time) (bool, error) {
	res := r.db.Model(&domain.PasswordResetCode{}).Where("id = ? AND attempts < ?", id, limit).
		Updates(map[string]any{"attempts": gorm.Expr("attempts + 1"), "updated_at": now})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "password_reset_code", "increment_attempts", "error")
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(context.Background(), "password_reset_code", "increment_attempts", "locked")
		return false, nil
	}
	observability.RecordRepositoryOperation(context.Background(), "password_reset_code", "increment_attempts", "success")
	return true, nil
}

// IncrementLatestUnused bumps the attempt counter of the newest unused code.
// It reports false when the email has no unused code.
func (r *GormPasswordResetRepository) IncrementLatestUnused(email string, now time.Time) (bool, error) {
	var code domain.PasswordResetCode
	err := r.db.Where("email = ? AND used = ?", domain.NormalizeEmail(email), false).
		Order("id desc").First(&code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "password_reset_code", "increment_attempts", "error")
		return false, err
	}
	if err := r.IncrementAttempts(code.ID, now); err != nil {
		return false, err
	}
	return true, nil
}

// MarkUsed flips the used flag only while it is still false, so a code can be
// consumed exactly once.
func (r *GormPasswordResetRepository) MarkUsed(id uint, now time.Time) error {
	res := r.db.Model(&domain.PasswordResetCode{}).
		Where("id = ? AND used = ?", id, false).
		Updates(map[string]any{"used": true, "updated_at": now})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "password_reset_code", "mark_used", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(context.Background(), "password_reset_code", "mark_used", "conflict")
		return ErrPasswordResetCodeConsumed
	}
	observability.RecordRepositoryOperation(context.Background(), "password_reset_code", "mark_used", "success")
	return nil
}

func (r *GormPasswordResetRepository) WithinTransaction(fn func(resets PasswordResetRepository, users UserRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&GormPasswordResetRepository{db: tx}, &GormUserRepository{db: tx})
	})
}
