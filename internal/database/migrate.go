package database

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tooffoundation/site-backend/internal/domain"
	"github.com/tooffoundation/site-backend/internal/observability"
)

// Models lists every table AutoMigrate manages, in dependency order.
func Models() []any {
	return []any{
		&domain.User{},
		&domain.PasswordResetCode{},
		&domain.Blog{},
		&domain.Event{},
		&domain.EventRegistration{},
		&domain.GalleryCollection{},
		&domain.GalleryImage{},
	}
}

func Migrate(db *gorm.DB) error {
	start := time.Now()
	err := db.AutoMigrate(Models()...)
	observability.RecordDatabaseStartupDuration(context.Background(), "migrate", time.Since(start))
	if err != nil {
		observability.RecordDatabaseStartupEvent(context.Background(), "migrate", "error")
		return err
	}
	observability.RecordDatabaseStartupEvent(context.Background(), "migrate", "success")
	return nil
}

// PendingTables reports the managed tables that do not exist yet.
func PendingTables(db *gorm.DB) ([]string, error) {
	var pending []string
	for _, model := range Models() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return nil, err
		}
		if !db.Migrator().HasTable(model) {
			pending = append(pending, stmt.Schema.Table)
		}
	}
	return pending, nil
}
