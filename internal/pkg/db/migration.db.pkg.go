package database

import (
	"fmt"
	"go-checkout/internal/common/models"
	"go-checkout/internal/pkg/logger"
)

func (db *Database) RunMigrations() error {
	logger.Info.Println("Starting database migrations...")

	if db.Config.Driver == POSTGRES {
		if err := db.createExtensions(); err != nil {
			return fmt.Errorf("failed to create extensions: %w", err)
		}
	}

	// Dependency order: accounts before cards/orders, items before tiers/modifiers.
	entities := []interface{}{
		&models.Account{},
		&models.PaymentCard{},
		&models.Item{},
		&models.DiscountTier{},
		&models.Modifier{},
		&models.Order{},
	}

	for _, entity := range entities {
		logger.Info.Printf("Migrating model: %T", entity)
		if err := db.AutoMigrate(entity); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", entity, err)
		}
	}

	logger.Info.Println("Database migrations completed successfully")
	return nil
}

func (db *Database) createExtensions() error {
	query := `CREATE EXTENSION IF NOT EXISTS "pgcrypto";`
	return db.Exec(query).Error
}
