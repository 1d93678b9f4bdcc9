package database

import (
	"fmt"

	"pollboard/internal/models"

	"gorm.io/gorm"
)

// AutoMigrate runs database schema migrations for all models.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Poll{},
		&models.Option{},
		&models.Vote{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
