package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/subsets-backend/internal/data/docstore"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(&docstore.DocumentRow{}); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}
