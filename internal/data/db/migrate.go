package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/luminar-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(domain.Models()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}
