// Package sqlite provides SQLite database setup and configuration
package sqlite

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	gormModels "github.com/larderapp/v1/internal/infrastructure/persistence/gorm"
)

// SetupDatabase creates and configures the SQLite database
func SetupDatabase(dbPath string, logLevel logger.LogLevel) (*gorm.DB, error) {
	// Use in-memory database if no path provided
	if dbPath == "" {
		dbPath = ":memory:"
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Run auto-migration
	err = db.AutoMigrate(
		&gormModels.ItemModel{},
		&gormModels.RecipeModel{},
		&gormModels.RecipeIngredientModel{},
		&gormModels.RecipeEquipmentModel{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// SeedDatabase populates the database with a starter pantry
func SeedDatabase(db *gorm.DB) error {
	var itemCount int64
	db.Model(&gormModels.ItemModel{}).Count(&itemCount)
	if itemCount > 0 {
		return nil // Already seeded
	}

	pantry := "Pantry"
	spices := "Spices & Seasonings"
	starterItems := []gormModels.ItemModel{
		{Name: "Olive Oil", Quantity: 500, Unit: "ml", Category: &pantry},
		{Name: "Salt", Quantity: 200, Unit: "g", Category: &spices},
		{Name: "Black Pepper", Quantity: 50, Unit: "g", Category: &spices},
		{Name: "All-Purpose Flour", Quantity: 1000, Unit: "g", Category: &pantry},
	}

	for _, item := range starterItems {
		if err := db.Create(&item).Error; err != nil {
			return fmt.Errorf("failed to create starter item: %w", err)
		}
	}

	return nil
}
