package service

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/tooffoundation/site-backend/internal/domain"
	"github.com/tooffoundation/site-backend/internal/observability"
	"github.com/tooffoundation/site-backend/internal/repository"
	"github.com/tooffoundation/site-backend/internal/security"
)

const (
	PasswordResetAcceptedMessage = "If an account exists, a reset code will be sent."
	PasswordResetSuccessMessage  = "Password has been reset successfully"
)

type PasswordResetPolicy struct {
	CodeTTL         time.Duration
	MaxAttempts     int
	DeliveryTimeout time.Duration
}

type IssueResult struct {
	Accepted  bool
	Email     string
	Code      string
	ExpiresAt time.Time
}

type VerifyResult struct {
	Valid  bool
	Email  string
	Reason string
}

type CommitResult struct {
	Success bool
	Message string
}

type PasswordResetService struct {
	users    repository.UserRepository
	resets   repository.PasswordResetRepository
	hasher   *security.PasswordHasher
	notifier PasswordResetNotifier
	logger   *slog.Logger
	policy   PasswordResetPolicy
	now      func() time.Time
	newCode  func() (string, error)
}

func NewPasswordResetService(
	users repository.UserRepository,
	resets repository.PasswordResetRepository,
	hasher *security.PasswordHasher,
	notifier PasswordResetNotifier,
	logger *slog.Logger,
	policy PasswordResetPolicy,
) *PasswordResetService {
	if policy.CodeTTL <= 0 {
		policy.CodeTTL = 10 * time.Minute
	}
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 5
	}
	if policy.DeliveryTimeout <= 0 {
		policy.DeliveryTimeout = 10 * time.Second
	}
	return &PasswordResetService{
		users:    users,
		resets:   resets,
		hasher:   hasher,
		notifier: notifier,
		logger:   logger,
		policy:   policy,
		now:      func() time.Time { return time.Now().UTC() },
		newCode:  security.NewResetCode,
	}
}

// Issue creates a fresh code for a known account. Unknown or malformed
// addresses get the same accepted result with no code and no stored row.
func (s *PasswordResetService) Issue(ctx context.Context, email string) (IssueResult, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordPasswordResetOperation(ctx, "issue", outcome, time.Since(start)) }()

	email = domain.NormalizeEmail(email)
	accepted := IssueResult{Accepted: true, Email: email}
	if email == "" {
		outcome = "ignored"
		return accepted, nil
	}
	if _, err := mail.ParseAddress(email); err != nil {
		outcome = "ignored"
		return accepted, nil
	}
	if _, err := s.users.FindByEmail(email); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			outcome = "unknown_email"
			return accepted, nil
		}
		outcome = "error"
		return IssueResult{}, err
	}

	code, err := s.newCode()
	if err != nil {
		outcome = "error"
		return IssueResult{}, err
	}
	now := s.now()
	rec := &domain.PasswordResetCode{
		Email:     email,
		Code:      code,
		ExpiresAt: now.Add(s.policy.CodeTTL),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.resets.Issue(rec); err != nil {
		outcome = "error"
		return IssueResult{}, err
	}
	accepted.Code = code
	accepted.ExpiresAt = rec.ExpiresAt
	return accepted, nil
}

// Request issues a code and hands it to the notifier. Delivery failures are
// logged and never change the caller-visible result. Once a code is issued the
// send outlives the request, bounded by the delivery timeout.
func (s *PasswordResetService) Request(ctx context.Context, email string) error {
	res, err := s.Issue(ctx, email)
	if err != nil {
		return err
	}
	if res.Code == "" || s.notifier == nil {
		return nil
	}
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.policy.DeliveryTimeout)
	defer cancel()
	if err := s.notifier.SendPasswordResetCode(sendCtx, PasswordResetNotification{
		Email:     res.Email,
		Code:      res.Code,
		ExpiresAt: res.ExpiresAt,
	}); err != nil {
		s.logger.WarnContext(ctx, "password reset code delivery failed", "email", res.Email, "error", err)
	}
	return nil
}

func (s *PasswordResetService) Verify(ctx context.Context, email, code string) (VerifyResult, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordPasswordResetOperation(ctx, "verify", outcome, time.Since(start)) }()

	email = domain.NormalizeEmail(email)
	if _, err := s.check(s.resets, email, code, s.now()); err != nil {
		outcome = verifyOutcome(err)
		if isVerifyFailure(err) {
			return VerifyResult{Valid: false, Email: email, Reason: err.Error()}, err
		}
		return VerifyResult{}, err
	}
	return VerifyResult{Valid: true, Email: email}, nil
}

// IncrementAttempts bumps the newest unused code for the email. It is a no-op
// when the email has none.
func (s *PasswordResetService) IncrementAttempts(ctx context.Context, email string) error {
	start := time.Now()
	outcome := "success"
	defer func() {
		observability.RecordPasswordResetOperation(ctx, "increment_attempts", outcome, time.Since(start))
	}()

	ok, err := s.resets.IncrementLatestUnused(domain.NormalizeEmail(email), s.now())
	if err != nil {
		outcome = "error"
		return err
	}
	if !ok {
		outcome = "noop"
	}
	return nil
}

// Commit replaces the account password when the code checks out. The policy
// check runs before anything is touched; the code check, the password write
// and burning the code share one transaction. A mismatch still records the
// failed attempt.
func (s *PasswordResetService) Commit(ctx context.Context, email, code, newPassword string) (CommitResult, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordPasswordResetOperation(ctx, "commit", outcome, time.Since(start)) }()

	if err := security.CheckPasswordPolicy(newPassword); err != nil {
		outcome = "bad_request"
		return CommitResult{}, validationError("%s", err.Error())
	}
	email = domain.NormalizeEmail(email)
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		outcome = "error"
		return CommitResult{}, err
	}

	var verifyErr error
	err = s.resets.WithinTransaction(func(resets repository.PasswordResetRepository, users repository.UserRepository) error {
		now := s.now()
		rec, err := s.check(resets, email, code, now)
		if err != nil {
			if isVerifyFailure(err) {
				verifyErr = err
				return nil
			}
			return err
		}
		if err := users.UpdatePasswordByEmail(email, hash, now); err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return ErrInconsistentState
			}
			return err
		}
		if err := resets.MarkUsed(rec.ID, now); err != nil {
			if errors.Is(err, repository.ErrPasswordResetCodeConsumed) {
				return ErrCredentialAlreadyUsed
			}
			return err
		}
		return nil
	})
	if err == nil {
		err = verifyErr
	}
	if err != nil {
		outcome = verifyOutcome(err)
		if errors.Is(err, ErrInconsistentState) {
			s.logger.ErrorContext(ctx, "password reset code exists without matching account", "email", email)
		}
		return CommitResult{}, err
	}
	return CommitResult{Success: true, Message: PasswordResetSuccessMessage}, nil
}

// check runs the ordered validation. A code that matches a row for the email
// is judged on that row, so a code burned by a later issue reports as already
// used. Otherwise the active code is judged and the miss counts as an attempt.
func (s *PasswordResetService) check(resets repository.PasswordResetRepository, email, code string, now time.Time) (*domain.PasswordResetCode, error) {
	code = strings.TrimSpace(code)
	matched := true
	rec, err := resets.FindByEmailAndCode(email, code)
	if errors.Is(err, repository.ErrPasswordResetCodeNotFound) {
		matched = false
		rec, err = resets.FindActiveByEmail(email)
	}
	if err != nil {
		if errors.Is(err, repository.ErrPasswordResetCodeNotFound) {
			return nil, ErrInvalidCredential
		}
		return nil, err
	}
	switch {
	case rec.Used:
		return nil, ErrCredentialAlreadyUsed
	case rec.Expired(now):
		return nil, ErrCredentialExpired
	case rec.Attempts >= s.policy.MaxAttempts:
		return nil, ErrTooManyAttempts
	case !matched:
		counted, err := resets.IncrementAttemptsBelow(rec.ID, s.policy.MaxAttempts, now)
		if err != nil {
			return nil, err
		}
		if !counted {
			return nil, ErrTooManyAttempts
		}
		return nil, ErrCredentialMismatch
	}
	return rec, nil
}

func isVerifyFailure(err error) bool {
	return errors.Is(err, ErrInvalidCredential) ||
		errors.Is(err, ErrCredentialAlreadyUsed) ||
		errors.Is(err, ErrCredentialExpired) ||
		errors.Is(err, ErrTooManyAttempts) ||
		errors.Is(err, ErrCredentialMismatch)
}

func verifyOutcome(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCredential):
		return "invalid"
	case errors.Is(err, ErrCredentialAlreadyUsed):
		return "already_used"
	case errors.Is(err, ErrCredentialExpired):
		return "expired"
	case errors.Is(err, ErrTooManyAttempts):
		return "too_many_attempts"
	case errors.Is(err, ErrCredentialMismatch):
		return "mismatch"
	default:
		return "error"
	}
}
