package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tooffoundation/site-backend/internal/domain"
	"github.com/tooffoundation/site-backend/internal/repository"
	"github.com/tooffoundation/site-backend/internal/security"
)

type passwordResetFixture struct {
	svc      *PasswordResetService
	users    repository.UserRepository
	resets   repository.PasswordResetRepository
	hasher   *security.PasswordHasher
	notifier *recordingNotifier
	clock    *fixedClock
}

func newPasswordResetFixture(t *testing.T) *passwordResetFixture {
	t.Helper()
	db := newServiceDBForTest(t)
	f := &passwordResetFixture{
		users:    repository.NewUserRepository(db),
		resets:   repository.NewPasswordResetRepository(db),
		hasher:   security.NewPasswordHasher(testArgon2Params),
		notifier: &recordingNotifier{},
		clock:    newFixedClock(),
	}
	f.svc = NewPasswordResetService(f.users, f.resets, f.hasher, f.notifier, discardLogger(), PasswordResetPolicy{})
	f.svc.now = f.clock.Now
	return f
}

func (f *passwordResetFixture) issue(t *testing.T, email string) IssueResult {
	t.Helper()
	res, err := f.svc.Issue(context.Background(), email)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if res.Code == "" {
		t.Fatalf("expected a code for %s", email)
	}
	return res
}

func wrongCode(code string) string {
	if code == "000000" {
		return "111111"
	}
	return "000000"
}

func TestPasswordResetIssueUnknownEmailLooksAccepted(t *testing.T) {
	f := newPasswordResetFixture(t)
	ctx := context.Background()

	for _, email := range []string{"ghost@example.org", "", "not-an-email"} {
		res, err := f.svc.Issue(ctx, email)
		if err != nil {
			t.Fatalf("issue %q: %v", email, err)
		}
		if !res.Accepted || res.Code != "" {
			t.Fatalf("expected accepted result without code for %q, got %+v", email, res)
		}
	}
	if _, err := f.resets.FindActiveByEmail("ghost@example.org"); !errors.Is(err, repository.ErrPasswordResetCodeNotFound) {
		t.Fatalf("expected no stored code, got %v", err)
	}
	if err := f.svc.Request(ctx, "ghost@example.org"); err != nil {
		t.Fatalf("request: %v", err)
	}
	if len(f.notifier.sent) != 0 {
		t.Fatalf("expected no notification for unknown email, got %d", len(f.notifier.sent))
	}
}

func TestPasswordResetIssueStoresSixDigitCodeWithTTL(t *testing.T) {
	f := newPasswordResetFixture(t)
	createServiceUserForTest(t, f.users, f.hasher, "amaka@example.org", "secret1", domain.RoleUser)

	res := f.issue(t, "  Amaka@Example.org ")
	if len(res.Code) != 6 || res.Code < "100000" || res.Code > "999999" {
		t.Fatalf("unexpected code %q", res.Code)
	}
	rec, err := f.resets.FindActiveByEmail("amaka@example.org")
	if err != nil {
		t.Fatalf("find code: %v", err)
	}
	if rec.Used || rec.Attempts != 0 || rec.Code != res.Code {
		t.Fatalf("unexpected stored code: %+v", rec)
	}
	if want := f.clock.Now().Add(10 * time.Minute); !rec.ExpiresAt.Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, rec.ExpiresAt)
	}
}

func TestPasswordResetRequestDeliversAndSwallowsNotifierFailure(t *testing.T) {
	f := newPasswordResetFixture(t)
	createServiceUserForTest(t, f.users, f.hasher, "bisi@example.org", "secret1", domain.RoleUser)
	f.notifier.err = errors.New("smtp down")

	if err := f.svc.Request(context.Background(), "bisi@example.org"); err != nil {
		t.Fatalf("expected notifier failure to be swallowed, got %v", err)
	}
	if len(f.notifier.sent) != 1 || f.notifier.sent[0].Email != "bisi@example.org" || len(f.notifier.sent[0].Code) != 6 {
		t.Fatalf("unexpected notifications: %+v", f.notifier.sent)
	}
}

type contextCapturingNotifier struct {
	err      error
	deadline time.Time
	bounded  bool
}

func (n *contextCapturingNotifier) SendPasswordResetCode(ctx context.Context, _ PasswordResetNotification) error {
	n.err = ctx.Err()
	n.deadline, n.bounded = ctx.Deadline()
	return nil
}

func TestPasswordResetRequestDeliveryOutlivesClientDisconnect(t *testing.T) {
	f := newPasswordResetFixture(t)
	createServiceUserForTest(t, f.users, f.hasher, "kemi@example.org", "secret1", domain.RoleUser)
	notifier := &contextCapturingNotifier{}
	svc := NewPasswordResetService(f.users, f.resets, f.hasher, notifier, discardLogger(), PasswordResetPolicy{DeliveryTimeout: 3 * time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	started := time.Now()
	if err := svc.Request(ctx, "kemi@example.org"); err != nil {
		t.Fatalf("request: %v", err)
	}
	if notifier.err != nil {
		t.Fatalf("expected delivery context to survive the caller cancel, got %v", notifier.err)
	}
	if !notifier.bounded || notifier.deadline.After(started.Add(3*time.Second+time.Second)) {
		t.Fatalf("expected delivery bounded by the timeout, got deadline=%v bounded=%v", notifier.deadline, notifier.bounded)
	}
	if _, err := f.resets.FindActiveByEmail("kemi@example.org"); err != nil {
		t.Fatalf("expected issued code: %v", err)
	}
}

func TestPasswordResetSecondIssueInvalidatesFirstCode(t *testing.T) {
	f := newPasswordResetFixture(t)
	createServiceUserForTest(t, f.users, f.hasher, "chidi@example.org", "secret1", domain.RoleUser)
	ctx := context.Background()

	first := f.issue(t, "chidi@example.org")
	second := f.issue(t, "chidi@example.org")
	for second.Code == first.Code {
		second = f.issue(t, "chidi@example.org")
	}

	if _, err := f.svc.Verify(ctx, "chidi@example.org", first.Code); !errors.Is(err, ErrCredentialAlreadyUsed) {
		t.Fatalf("expected first code to be reported as used, got %v", err)
	}
	res, err := f.svc.Verify(ctx, "chidi@example.org", second.Code)
	if err != nil || !res.Valid {
		t.Fatalf("expected second code valid, got %+v %v", res, err)
	}
}

func TestPasswordResetVerifyOrderedFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("no code", func(t *testing.T) {
		f := newPasswordResetFixture(t)
		res, err := f.svc.Verify(ctx, "nobody@example.org", "123456")
		if !errors.Is(err, ErrInvalidCredential) || res.Valid {
			t.Fatalf("expected ErrInvalidCredential, got %+v %v", res, err)
		}
	})

	t.Run("expired wins over attempts and correctness", func(t *testing.T) {
		f := newPasswordResetFixture(t)
		createServiceUserForTest(t, f.users, f.hasher, "dayo@example.org", "secret1", domain.RoleUser)
		issued := f.issue(t, "dayo@example.org")
		for i := 0; i < 5; i++ {
			_, _ = f.svc.Verify(ctx, "dayo@example.org", wrongCode(issued.Code))
		}
		f.clock.Advance(10 * time.Minute)
		if _, err := f.svc.Verify(ctx, "dayo@example.org", issued.Code); !errors.Is(err, ErrCredentialExpired) {
			t.Fatalf("expected ErrCredentialExpired, got %v", err)
		}
	})

	t.Run("five mismatches lock the code", func(t *testing.T) {
		f := newPasswordResetFixture(t)
		createServiceUserForTest(t, f.users, f.hasher, "ejike@example.org", "secret1", domain.RoleUser)
		issued := f.issue(t, "ejike@example.org")
		for i := 0; i < 5; i++ {
			res, err := f.svc.Verify(ctx, "ejike@example.org", wrongCode(issued.Code))
			if !errors.Is(err, ErrCredentialMismatch) || res.Valid || res.Reason == "" {
				t.Fatalf("attempt %d: expected mismatch, got %+v %v", i+1, res, err)
			}
		}
		if _, err := f.svc.Verify(ctx, "ejike@example.org", issued.Code); !errors.Is(err, ErrTooManyAttempts) {
			t.Fatalf("expected ErrTooManyAttempts, got %v", err)
		}
		rec, err := f.resets.FindActiveByEmail("ejike@example.org")
		if err != nil || rec.Attempts != 5 {
			t.Fatalf("expected 5 recorded attempts, got %+v %v", rec, err)
		}
	})
}

func TestPasswordResetIncrementAttempts(t *testing.T) {
	f := newPasswordResetFixture(t)
	createServiceUserForTest(t, f.users, f.hasher, "funmi@example.org", "secret1", domain.RoleUser)
	ctx := context.Background()

	if err := f.svc.IncrementAttempts(ctx, "funmi@example.org"); err != nil {
		t.Fatalf("increment without code: %v", err)
	}
	f.issue(t, "funmi@example.org")
	if err := f.svc.IncrementAttempts(ctx, "FUNMI@example.org"); err != nil {
		t.Fatalf("increment: %v", err)
	}
	rec, err := f.resets.FindActiveByEmail("funmi@example.org")
	if err != nil || rec.Attempts != 1 {
		t.Fatalf("expected one attempt, got %+v %v", rec, err)
	}
}

func TestPasswordResetCommit(t *testing.T) {
	ctx := context.Background()

	t.Run("short password is rejected before any mutation", func(t *testing.T) {
		f := newPasswordResetFixture(t)
		user := createServiceUserForTest(t, f.users, f.hasher, "gozie@example.org", "secret1", domain.RoleUser)
		issued := f.issue(t, "gozie@example.org")

		if _, err := f.svc.Commit(ctx, "gozie@example.org", issued.Code, "abc"); !errors.Is(err, ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
		rec, _ := f.resets.FindActiveByEmail("gozie@example.org")
		if rec.Used || rec.Attempts != 0 {
			t.Fatalf("expected untouched code, got %+v", rec)
		}
		stored, _ := f.users.FindByID(user.ID)
		if stored.PasswordHash != user.PasswordHash {
			t.Fatal("expected password hash unchanged")
		}
	})

	t.Run("mismatch is committed while the call fails", func(t *testing.T) {
		f := newPasswordResetFixture(t)
		createServiceUserForTest(t, f.users, f.hasher, "hauwa@example.org", "secret1", domain.RoleUser)
		issued := f.issue(t, "hauwa@example.org")

		if _, err := f.svc.Commit(ctx, "hauwa@example.org", wrongCode(issued.Code), "newpass1"); !errors.Is(err, ErrCredentialMismatch) {
			t.Fatalf("expected ErrCredentialMismatch, got %v", err)
		}
		rec, _ := f.resets.FindActiveByEmail("hauwa@example.org")
		if rec.Attempts != 1 || rec.Used {
			t.Fatalf("expected recorded attempt on unused code, got %+v", rec)
		}
	})

	t.Run("success rotates hash and burns code", func(t *testing.T) {
		f := newPasswordResetFixture(t)
		user := createServiceUserForTest(t, f.users, f.hasher, "ifeoma@example.org", "secret1", domain.RoleUser)
		issued := f.issue(t, "ifeoma@example.org")

		res, err := f.svc.Commit(ctx, "Ifeoma@example.org", issued.Code, "newpass1")
		if err != nil || !res.Success || res.Message != PasswordResetSuccessMessage {
			t.Fatalf("unexpected commit result %+v %v", res, err)
		}
		stored, _ := f.users.FindByID(user.ID)
		if stored.PasswordHash == user.PasswordHash {
			t.Fatal("expected password hash to change")
		}
		if ok, err := f.hasher.Verify(stored.PasswordHash, "newpass1"); err != nil || !ok {
			t.Fatalf("expected new password to verify, ok=%v err=%v", ok, err)
		}
		if _, err := f.svc.Verify(ctx, "ifeoma@example.org", issued.Code); !errors.Is(err, ErrCredentialAlreadyUsed) {
			t.Fatalf("expected ErrCredentialAlreadyUsed on re-verify, got %v", err)
		}
		if _, err := f.svc.Commit(ctx, "ifeoma@example.org", issued.Code, "another1"); !errors.Is(err, ErrCredentialAlreadyUsed) {
			t.Fatalf("expected ErrCredentialAlreadyUsed on second commit, got %v", err)
		}
	})
}

func TestPasswordResetEndToEndWithFailedGuesses(t *testing.T) {
	f := newPasswordResetFixture(t)
	user := createServiceUserForTest(t, f.users, f.hasher, "jide@example.org", "oldpass1", domain.RoleUser)
	ctx := context.Background()

	issued := f.issue(t, "jide@example.org")
	if issued.Code == "000000" {
		t.Fatal("issued code can never be 000000")
	}
	for i := 0; i < 3; i++ {
		if _, err := f.svc.Verify(ctx, "jide@example.org", "000000"); !errors.Is(err, ErrCredentialMismatch) {
			t.Fatalf("guess %d: expected mismatch, got %v", i+1, err)
		}
	}
	if res, err := f.svc.Verify(ctx, "jide@example.org", issued.Code); err != nil || !res.Valid {
		t.Fatalf("expected valid code after 3 failures, got %+v %v", res, err)
	}
	if _, err := f.svc.Commit(ctx, "jide@example.org", issued.Code, "newpass1"); err != nil {
		t.Fatalf("commit: %v", err)
	}
	stored, _ := f.users.FindByID(user.ID)
	if ok, _ := f.hasher.Verify(stored.PasswordHash, "newpass1"); !ok {
		t.Fatal("expected new password to be stored")
	}
	rec, _ := f.resets.FindActiveByEmail("jide@example.org")
	if !rec.Used || rec.Attempts != 3 {
		t.Fatalf("expected used code with 3 attempts, got %+v", rec)
	}
	if _, err := f.svc.Verify(ctx, "jide@example.org", issued.Code); !errors.Is(err, ErrCredentialAlreadyUsed) {
		t.Fatalf("expected ErrCredentialAlreadyUsed, got %v", err)
	}
}

// staleAttemptsResets hands out codes with the attempt counter read as zero,
// the view a guess gets when it races other guesses for the same code.
type staleAttemptsResets struct {
	repository.PasswordResetRepository
}

func (r staleAttemptsResets) FindActiveByEmail(email string) (*domain.PasswordResetCode, error) {
	rec, err := r.PasswordResetRepository.FindActiveByEmail(email)
	if rec != nil {
		rec.Attempts = 0
	}
	return rec, err
}

func TestPasswordResetMismatchCountingIsBoundedUnderStaleReads(t *testing.T) {
	f := newPasswordResetFixture(t)
	ctx := context.Background()
	createServiceUserForTest(t, f.users, f.hasher, "gbenga@example.org", "secret1", domain.RoleUser)
	issued := f.issue(t, "gbenga@example.org")

	racing := NewPasswordResetService(f.users, staleAttemptsResets{f.resets}, f.hasher, nil, discardLogger(), PasswordResetPolicy{})
	racing.now = f.clock.Now

	mismatches := 0
	for i := 0; i < 12; i++ {
		_, err := racing.Verify(ctx, "gbenga@example.org", wrongCode(issued.Code))
		switch {
		case errors.Is(err, ErrCredentialMismatch):
			mismatches++
		case errors.Is(err, ErrTooManyAttempts):
		default:
			t.Fatalf("guess %d: unexpected error %v", i+1, err)
		}
	}
	if mismatches != 5 {
		t.Fatalf("expected exactly 5 counted guesses, got %d", mismatches)
	}
	rec, err := f.resets.FindActiveByEmail("gbenga@example.org")
	if err != nil || rec.Attempts != 5 {
		t.Fatalf("expected attempts capped at 5, got %+v %v", rec, err)
	}
	if _, err := f.svc.Verify(ctx, "gbenga@example.org", issued.Code); !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts for the right code, got %v", err)
	}
}
