package repository

import (
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tooffoundation/site-backend/internal/domain"
)

func newRepositoryDBForTest(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
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

func createUserForTest(t *testing.T, repo UserRepository, email, role string) *domain.User {
	t.Helper()
	u := &domain.User{Email: email, Name: "User " + email, PasswordHash: "hash", Role: role}
	if err := repo.Create(u); err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}
