package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tooffoundation/site-backend/internal/domain"
	"github.com/tooffoundation/site-backend/internal/repository"
	"github.com/tooffoundation/site-backend/internal/security"
)

var testArgon2Params = security.Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

func newServiceDBForTest(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.AutoMigrate(
		&domain.User{},
		&domain.PasswordResetCode{},
		&domain.Blog{},
		&domain.Event{},
		&domain.EventRegistration{},
		&domain.GalleryCollection{},
		&domain.GalleryImage{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func createServiceUserForTest(t *testing.T, users repository.UserRepository, hasher *security.PasswordHasher, email, password, role string) *domain.User {
	t.Helper()
	hash, err := hasher.Hash(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &domain.User{Email: email, Name: "Test " + email, PasswordHash: hash, Role: role}
	if err := users.Create(u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []PasswordResetNotification
	err  error
}

func (n *recordingNotifier) SendPasswordResetCode(_ context.Context, notification PasswordResetNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification)
	return n.err
}

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFixedClock() *fixedClock {
	return &fixedClock{now: time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingImageStorage struct {
	mu      sync.Mutex
	deleted []string
}

func (s *recordingImageStorage) UploadImage(context.Context, string, io.Reader, int64) (*StoredImage, error) {
	return nil, ErrStorageDisabled
}

func (s *recordingImageStorage) DeleteObjects(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		if k != "" {
			s.deleted = append(s.deleted, k)
		}
	}
	return nil
}

func (s *recordingImageStorage) PublicURL(key string) string { return "https://cdn.test/" + key }

func (s *recordingImageStorage) Ping(context.Context) error { return nil }
