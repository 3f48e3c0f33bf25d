package database

import (
	"fmt"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/tooffoundation/site-backend/internal/domain"
	"github.com/tooffoundation/site-backend/internal/repository"
	"github.com/tooffoundation/site-backend/internal/security"
)

func TestParseDatabaseURL(t *testing.T) {
	tests := []struct {
		in     string
		driver string
		dsn    string
	}{
		{in: "postgres://app:secret@db:5432/site?sslmode=disable", driver: DriverPostgres, dsn: "postgres://app:secret@db:5432/site?sslmode=disable"},
		{in: "host=db user=app dbname=site", driver: DriverPostgres, dsn: "host=db user=app dbname=site"},
		{in: "sqlite://./data/site.db", driver: DriverSQLite, dsn: "./data/site.db"},
		{in: "sqlite:site.db", driver: DriverSQLite, dsn: "site.db"},
		{in: " file:site?mode=memory&cache=shared ", driver: DriverSQLite, dsn: "file:site?mode=memory&cache=shared"},
	}
	for _, tc := range tests {
		driver, dsn := ParseDatabaseURL(tc.in)
		if driver != tc.driver || dsn != tc.dsn {
			t.Fatalf("ParseDatabaseURL(%q) = %q %q, want %q %q", tc.in, driver, dsn, tc.driver, tc.dsn)
		}
	}
}

func openMigratedForTest(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := OpenURL(fmt.Sprintf("file:db_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_")))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	pending, err := PendingTables(db)
	if err != nil {
		t.Fatalf("pending tables: %v", err)
	}
	if len(pending) != len(Models()) {
		t.Fatalf("expected every table pending before migrate, got %v", pending)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	pending, err = PendingTables(db)
	if err != nil || len(pending) != 0 {
		t.Fatalf("expected no pending tables after migrate, got %v %v", pending, err)
	}
	return db
}

func TestEnsureAdminCreatesThenNoops(t *testing.T) {
	db := openMigratedForTest(t)

	report, err := EnsureAdmin(db, AdminSeed{Email: " Admin@Example.org ", Password: "correct-horse-battery"})
	if err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	if !report.Created || report.Promoted || report.Noop || report.Email != "admin@example.org" {
		t.Fatalf("unexpected first report %+v", report)
	}
	u, err := repository.NewUserRepository(db).FindByEmail("admin@example.org")
	if err != nil {
		t.Fatalf("find admin: %v", err)
	}
	if u.Role != domain.RoleAdmin || u.Name != "Administrator" {
		t.Fatalf("unexpected admin %+v", u)
	}
	if ok, err := security.VerifyPassword(u.PasswordHash, "correct-horse-battery"); err != nil || !ok {
		t.Fatalf("expected seeded password to verify: ok=%v err=%v", ok, err)
	}

	report, err = EnsureAdmin(db, AdminSeed{Email: "admin@example.org", Password: "another-password-1"})
	if err != nil {
		t.Fatalf("ensure admin again: %v", err)
	}
	if !report.Noop {
		t.Fatalf("expected noop, got %+v", report)
	}
	u, _ = repository.NewUserRepository(db).FindByEmail("admin@example.org")
	if ok, _ := security.VerifyPassword(u.PasswordHash, "correct-horse-battery"); !ok {
		t.Fatal("existing password must be kept")
	}
}

func TestEnsureAdminPromotesExistingUser(t *testing.T) {
	db := openMigratedForTest(t)
	users := repository.NewUserRepository(db)
	if err := users.Create(&domain.User{Email: "volunteer@example.org", Name: "Vol", PasswordHash: "hash", Role: domain.RoleUser}); err != nil {
		t.Fatalf("create user: %v", err)
	}

	report, err := EnsureAdmin(db, AdminSeed{Email: "volunteer@example.org"})
	if err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	if !report.Promoted || report.Created {
		t.Fatalf("unexpected report %+v", report)
	}
	u, _ := users.FindByEmail("volunteer@example.org")
	if u.Role != domain.RoleAdmin {
		t.Fatalf("expected promoted role, got %q", u.Role)
	}
}

func TestEnsureAdminValidation(t *testing.T) {
	db := openMigratedForTest(t)

	report, err := EnsureAdmin(db, AdminSeed{})
	if err != nil || !report.Noop {
		t.Fatalf("expected noop without email: %+v %v", report, err)
	}
	if _, err := EnsureAdmin(db, AdminSeed{Email: "new@example.org"}); err == nil {
		t.Fatal("expected error when creating without password")
	}
	if _, err := EnsureAdmin(db, AdminSeed{Email: "new@example.org", Password: "short"}); err == nil {
		t.Fatal("expected password policy error")
	}
}
