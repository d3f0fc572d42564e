package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/contentstream-backend/internal/domain"
	"github.com/yungbote/contentstream-backend/internal/pkg/logger"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// Content store
		&types.ContentItem{},

		// Identifier mapper
		&types.ContentIdentity{},
		&types.ContentIDCounter{},

		// Per-user membership
		&types.UserContentMembership{},
	)
}

// EnsureContentIndexes adds the Postgres-only partial index used by candidate queries.
func EnsureContentIndexes(db *gorm.DB) error {
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_content_item_active_type_created
		ON content_item (content_type, category, created_at DESC)
		WHERE active;
	`).Error; err != nil {
		return fmt.Errorf("create idx_content_item_active_type_created: %w", err)
	}
	return nil
}

// Migrate creates the schema on any supported dialect.
func Migrate(db *gorm.DB, log *logger.Logger) error {
	if log != nil {
		log.Info("Auto migrating tables...", "dialect", db.Dialector.Name())
	}
	if err := AutoMigrateAll(db); err != nil {
		if log != nil {
			log.Error("Auto migration failed", "error", err)
		}
		return err
	}
	if err := EnsureContentIndexes(db); err != nil {
		if log != nil {
			log.Error("Content index migration failed", "error", err)
		}
		return err
	}
	return nil
}
