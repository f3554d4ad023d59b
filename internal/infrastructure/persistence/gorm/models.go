// Package gorm provides GORM model definitions and repository
// implementations for inventory and recipes.
package gorm

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ItemModel represents the GORM model for inventory items
type ItemModel struct {
	ID         uuid.UUID  `gorm:"type:char(36);primaryKey"`
	Version    int64      `gorm:"default:1"`
	Name       string     `gorm:"type:varchar(255);not null;index"`
	Quantity   float64    `gorm:"not null;default:0"`
	Unit       string     `gorm:"type:varchar(50);not null"`
	Category   *string    `gorm:"type:varchar(100);index"`
	ExpiryDate *time.Time `gorm:"index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName returns the table name for items
func (ItemModel) TableName() string {
	return "items"
}

// BeforeCreate ensures a UUID is set before insertion
func (m *ItemModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// RecipeModel represents the GORM model for recipes
type RecipeModel struct {
	ID           uuid.UUID `gorm:"type:char(36);primaryKey"`
	Name         string    `gorm:"type:varchar(255);not null;index"`
	Description  string    `gorm:"type:text"`
	Instructions string    `gorm:"type:text"`
	CookingTime  int       `gorm:"default:0"`
	Servings     int       `gorm:"not null"`
	Saved        bool      `gorm:"default:false;index"`
	AIGenerated  bool      `gorm:"default:false"`
	AIModel      string    `gorm:"type:varchar(100)"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Relationships
	Ingredients []RecipeIngredientModel `gorm:"foreignKey:RecipeID"`
	Equipment   []RecipeEquipmentModel  `gorm:"foreignKey:RecipeID"`
}

// TableName returns the table name for recipes
func (RecipeModel) TableName() string {
	return "recipes"
}

// BeforeCreate ensures a UUID is set before insertion
func (m *RecipeModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// RecipeIngredientModel links a recipe to an inventory item with the
// required quantity
type RecipeIngredientModel struct {
	ID       uuid.UUID `gorm:"type:char(36);primaryKey"`
	RecipeID uuid.UUID `gorm:"type:char(36);not null;index"`
	ItemID   uuid.UUID `gorm:"type:char(36);not null;index"`
	Quantity float64   `gorm:"not null;default:0"`
	Unit     string    `gorm:"type:varchar(50);not null"`

	Item *ItemModel `gorm:"foreignKey:ItemID"`
}

// TableName returns the table name for recipe ingredients
func (RecipeIngredientModel) TableName() string {
	return "recipe_ingredients"
}

// BeforeCreate ensures a UUID is set before insertion
func (m *RecipeIngredientModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// RecipeEquipmentModel links a recipe to a required equipment item
type RecipeEquipmentModel struct {
	ID       uuid.UUID `gorm:"type:char(36);primaryKey"`
	RecipeID uuid.UUID `gorm:"type:char(36);not null;index"`
	ItemID   uuid.UUID `gorm:"type:char(36);not null;index"`

	Item *ItemModel `gorm:"foreignKey:ItemID"`
}

// TableName returns the table name for recipe equipment
func (RecipeEquipmentModel) TableName() string {
	return "recipe_equipment"
}

// BeforeCreate ensures a UUID is set before insertion
func (m *RecipeEquipmentModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
