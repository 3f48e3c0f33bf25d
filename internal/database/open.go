package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tooffoundation/site-backend/internal/config"
	"github.com/tooffoundation/site-backend/internal/observability"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

func Open(cfg *config.Config) (*gorm.DB, error) {
	return OpenURL(cfg.DatabaseURL)
}

// OpenURL picks the driver from the URL scheme. sqlite:// and file: URLs open
// SQLite; anything else is handed to the Postgres driver as a DSN.
func OpenURL(databaseURL string) (*gorm.DB, error) {
	ctx := context.Background()
	start := time.Now()
	driver, dsn := ParseDatabaseURL(databaseURL)

	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		dialector = postgres.Open(dsn)
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	observability.RecordDatabaseStartupDuration(ctx, "connect", time.Since(start))
	if err != nil {
		observability.RecordDatabaseStartupEvent(ctx, "connect", "error")
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	if driver == DriverSQLite {
		// SQLite allows a single writer.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			observability.RecordDatabaseStartupEvent(ctx, "connect", "error")
			return nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
		}
	}
	observability.RecordDatabaseStartupEvent(ctx, "connect", "success")
	return db, nil
}

// ParseDatabaseURL returns the driver name and the DSN that driver expects.
func ParseDatabaseURL(databaseURL string) (string, string) {
	raw := strings.TrimSpace(databaseURL)
	lower := strings.ToLower(raw)
	switch {
	case strings.HasPrefix(lower, "sqlite://"):
		return DriverSQLite, raw[len("sqlite://"):]
	case strings.HasPrefix(lower, "sqlite:"):
		return DriverSQLite, raw[len("sqlite:"):]
	case strings.HasPrefix(lower, "file:"):
		return DriverSQLite, raw
	default:
		return DriverPostgres, raw
	}
}
