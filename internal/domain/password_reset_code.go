package domain

import "time"

// PasswordResetCode is one issued reset code. Rows are invalidated by flipping
// Used and are never deleted.
type PasswordResetCode struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"size:255;not null;index:idx_password_reset_codes_email_used,priority:1" json:"email"`
	Code      string    `gorm:"size:16;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	Used      bool      `gorm:"not null;default:false;index:idx_password_reset_codes_email_used,priority:2" json:"used"`
	Attempts  int       `gorm:"not null;default:0" json:"attempts"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *PasswordResetCode) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
