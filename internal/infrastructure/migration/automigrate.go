// Package migration wires schema management for the persistence models.
package migration

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/repogate-inc/repogate/internal/infrastructure/persistence/models"
)

// AutoMigrateModels lists every model the schema is derived from.
func AutoMigrateModels() []interface{} {
	return []interface{}{
		&models.RepositoryModel{},
		&models.PurchaseModel{},
		&models.AccessLogModel{},
		&models.PricingHistoryModel{},
		&models.MerchantCredentialsModel{},
	}
}

// Run applies the schema for all registered models.
func Run(db *gorm.DB) error {
	if err := db.AutoMigrate(AutoMigrateModels()...); err != nil {
		return fmt.Errorf("failed to migrate database schema: %w", err)
	}
	return nil
}
