package db

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/subsets-backend/internal/platform/logger"
)

// OpenSQLite opens path, or a private in-memory database when path is empty or ":memory:".
func OpenSQLite(logg *logger.Logger, path string) (*gorm.DB, error) {
	dsn := path
	gl := newGormLogger()
	if dsn == "" || dsn == ":memory:" {
		dsn = "file::memory:"
		gl = gormLogger.Default.LogMode(gormLogger.Silent)
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gl})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %q: %w", path, err)
	}
	// One connection keeps an in-memory database alive and serializes writers.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	if logg != nil {
		logg.Info("opened sqlite", "path", dsn)
	}
	return db, nil
}
