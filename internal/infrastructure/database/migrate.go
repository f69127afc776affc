package database

import (
	"fmt"

	"veilgate/internal/infrastructure/persistence/models"
)

// AutoMigrate creates or updates the schema for every persisted model.
// Intended for development and small deployments; production schemas
// should be managed explicitly.
func AutoMigrate() error {
	database := Get()
	if database == nil {
		return fmt.Errorf("database not initialized")
	}

	if err := database.AutoMigrate(
		&models.AdminModel{},
		&models.UserModel{},
		&models.NodeModel{},
		&models.SystemStatModel{},
		&models.NodeUserUsageModel{},
		&models.NodeUsageModel{},
	); err != nil {
		return fmt.Errorf("failed to run auto migration: %w", err)
	}
	return nil
}
