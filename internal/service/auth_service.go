package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tooffoundation/site-backend/internal/domain"
	"github.com/tooffoundation/site-backend/internal/observability"
	"github.com/tooffoundation/site-backend/internal/repository"
	"github.com/tooffoundation/site-backend/internal/security"
)

const (
	maxEmailLength = 255
	maxNameLength  = 100
)

type AuthPolicy struct {
	AccessTTL           time.Duration
	BootstrapAdminEmail string
}

type SignUpInput struct {
	Email    string
	Name     string
	Password string
}

type AuthResult struct {
	User        *domain.User `json:"user"`
	AccessToken string       `json:"access_token"`
	CSRFToken   string       `json:"-"`
	ExpiresAt   time.Time    `json:"expires_at"`
}

type AuthService struct {
	users  repository.UserRepository
	hasher *security.PasswordHasher
	tokens *security.JWTManager
	guard  AbuseGuard
	policy AuthPolicy
	now    func() time.Time
}

func NewAuthService(
	users repository.UserRepository,
	hasher *security.PasswordHasher,
	tokens *security.JWTManager,
	guard AbuseGuard,
	policy AuthPolicy,
) *AuthService {
	if guard == nil {
		guard = NewNoopAbuseGuard()
	}
	if policy.AccessTTL <= 0 {
		policy.AccessTTL = 24 * time.Hour
	}
	policy.BootstrapAdminEmail = domain.NormalizeEmail(policy.BootstrapAdminEmail)
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		guard:  guard,
		policy: policy,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (*AuthResult, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordAuthOperation(ctx, "signup", outcome, time.Since(start)) }()

	email := domain.NormalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if err := validateEmail(email); err != nil {
		outcome = "bad_request"
		return nil, err
	}
	if n := utf8.RuneCountInString(name); n == 0 || n > maxNameLength {
		outcome = "bad_request"
		return nil, validationError("name must be between 1 and %d characters", maxNameLength)
	}
	if err := security.CheckPasswordPolicy(in.Password); err != nil {
		outcome = "bad_request"
		return nil, validationError("%s", err.Error())
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		outcome = "error"
		return nil, err
	}

	role := domain.RoleUser
	if s.policy.BootstrapAdminEmail != "" && email == s.policy.BootstrapAdminEmail {
		role = domain.RoleAdmin
	}
	now := s.now()
	user := &domain.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(user); err != nil {
		if errors.Is(err, repository.ErrUserEmailTaken) {
			outcome = "conflict"
			return nil, conflictError("an account with this email already exists")
		}
		outcome = "error"
		return nil, err
	}
	res, err := s.issue(user)
	if err != nil {
		outcome = "error"
		return nil, err
	}
	return res, nil
}

// SignIn checks the password for the email. Unknown accounts and wrong
// passwords produce the same error, and both count toward the abuse guard.
func (s *AuthService) SignIn(ctx context.Context, email, password, ip string) (*AuthResult, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordAuthOperation(ctx, "signin", outcome, time.Since(start)) }()

	email = domain.NormalizeEmail(email)
	if wait, err := s.guard.Check(ctx, AbuseScopeSignIn, email, ip); err != nil {
		outcome = "error"
		return nil, err
	} else if wait > 0 {
		outcome = "cooldown"
		observability.RecordAbuseGuardEvent(ctx, string(AbuseScopeSignIn), "check", "blocked")
		return nil, &CooldownError{RetryAfter: wait}
	}

	user, err := s.users.FindByEmail(email)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		outcome = "error"
		return nil, err
	}
	ok := false
	if user != nil {
		ok, err = s.hasher.Verify(user.PasswordHash, password)
		if err != nil {
			outcome = "error"
			return nil, err
		}
	}
	if !ok {
		outcome = "invalid"
		if _, err := s.guard.RegisterFailure(ctx, AbuseScopeSignIn, email, ip); err != nil {
			observability.RecordAbuseGuardEvent(ctx, string(AbuseScopeSignIn), "register_failure", "error")
		} else {
			observability.RecordAbuseGuardEvent(ctx, string(AbuseScopeSignIn), "register_failure", "recorded")
		}
		return nil, ErrInvalidLogin
	}
	if err := s.guard.Reset(ctx, AbuseScopeSignIn, email, ip); err != nil {
		observability.RecordAbuseGuardEvent(ctx, string(AbuseScopeSignIn), "reset", "error")
	}

	res, err := s.issue(user)
	if err != nil {
		outcome = "error"
		return nil, err
	}
	return res, nil
}

// SignOut only records the event; access tokens are stateless and expire on
// their own once the cookies are cleared.
func (s *AuthService) SignOut(ctx context.Context, userID uint) {
	observability.RecordAuthOperation(ctx, "signout", "success", 0)
}

// EnsureAdmin creates the account as admin, or promotes it when it already
// exists. The returned flag reports whether anything changed.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, name, password string) (*domain.User, bool, error) {
	email = domain.NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, false, err
	}
	user, err := s.users.FindByEmail(email)
	switch {
	case err == nil:
		if user.IsAdmin() {
			return user, false, nil
		}
		if err := s.users.SetRole(user.ID, domain.RoleAdmin, s.now()); err != nil {
			return nil, false, err
		}
		user.Role = domain.RoleAdmin
		return user, true, nil
	case !errors.Is(err, repository.ErrUserNotFound):
		return nil, false, err
	}

	if err := security.CheckPasswordPolicy(password); err != nil {
		return nil, false, validationError("%s", err.Error())
	}
	if strings.TrimSpace(name) == "" {
		name = "Administrator"
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, false, err
	}
	now := s.now()
	user = &domain.User{
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(user); err != nil {
		return nil, false, err
	}
	return user, true, nil
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	access, err := s.tokens.SignAccessToken(user.ID, user.Email, user.Role, s.policy.AccessTTL)
	if err != nil {
		return nil, err
	}
	csrf, err := security.NewCSRFToken()
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		User:        user,
		AccessToken: access,
		CSRFToken:   csrf,
		ExpiresAt:   s.now().Add(s.policy.AccessTTL),
	}, nil
}

func validateEmail(email string) error {
	if email == "" {
		return validationError("email is required")
	}
	if len(email) > maxEmailLength {
		return validationError("email must be at most %d characters", maxEmailLength)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return validationError("email is invalid")
	}
	return nil
}
