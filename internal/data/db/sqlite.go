package db

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yungbote/contentstream-backend/internal/pkg/logger"
)

// NewSQLite opens an embedded database. SQLite permits a single writer, so
// the pool is pinned to one connection and writers queue on it.
func NewSQLite(path string, logg *logger.Logger) (*gorm.DB, error) {
	if path == "" {
		path = "file:contentstream.db?_busy_timeout=5000&_journal_mode=WAL"
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   newGormLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if logg != nil {
		logg.Info("Opened sqlite database", "path", path)
	}
	return db, nil
}

// Open selects the backing store by driver name ("postgres" or "sqlite").
func Open(driver, sqlitePath string, logg *logger.Logger) (*gorm.DB, error) {
	switch driver {
	case "", "postgres":
		pg, err := NewPostgresService(logg)
		if err != nil {
			return nil, err
		}
		return pg.DB(), nil
	case "sqlite":
		return NewSQLite(sqlitePath, logg)
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", driver)
	}
}
