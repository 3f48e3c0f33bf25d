package service

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrInvalidCredential     = errors.New("invalid reset code")
	ErrCredentialAlreadyUsed = errors.New("this code has already been used")
	ErrCredentialExpired     = errors.New("this code has expired")
	ErrTooManyAttempts       = errors.New("too many failed attempts, please request a new code")
	ErrCredentialMismatch    = errors.New("invalid code")
	ErrValidation            = errors.New("validation failed")
	ErrConflict              = errors.New("conflict")
	ErrInconsistentState     = errors.New("inconsistent state")
	ErrInvalidLogin          = errors.New("invalid email or password")
)

// CooldownError is returned while the abuse guard is holding back an identity.
type CooldownError struct {
	RetryAfter time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("too many failed attempts, retry in %s", e.RetryAfter.Round(time.Second))
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func conflictError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}
