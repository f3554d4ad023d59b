// Package outbound defines the interfaces for outbound ports (secondary/driven
// adapters). These are the interfaces the application uses to reach
// persistence, storage, and the generation service.
package outbound

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/larderapp/v1/internal/domain/inventory"
	"github.com/larderapp/v1/internal/domain/recipe"
)

// ItemRepository defines the interface for item persistence.
// Implementations must report absent rows with pkg/errors not-found codes
// and version mismatches with the concurrency-conflict code so the
// application layer can propagate them unchanged.
type ItemRepository interface {
	Create(ctx context.Context, item *inventory.Item) error
	CreateBatch(ctx context.Context, items []*inventory.Item) error

	// Update persists the item guarded by its optimistic-lock version.
	Update(ctx context.Context, item *inventory.Item) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByCategory(ctx context.Context, category string) (int64, error)

	FindByID(ctx context.Context, id uuid.UUID) (*inventory.Item, error)
	FindByNameAndCategory(ctx context.Context, name string, category *string) (*inventory.Item, error)
	List(ctx context.Context, filter ItemFilter) ([]*inventory.Item, error)
}

// ItemFilter narrows item listings by category
type ItemFilter struct {
	Category        *string
	ExcludeCategory *string
}

// RecipeRepository defines the interface for recipe persistence. Create,
// Delete and Cook are transactional units: parent and child rows move
// together or not at all.
type RecipeRepository interface {
	// Create persists the recipe and its child rows atomically.
	Create(ctx context.Context, r *recipe.Recipe) error

	// Update persists mutable recipe fields (the saved flag).
	Update(ctx context.Context, r *recipe.Recipe) error

	// Delete removes ingredient rows, equipment rows, then the recipe
	// row, in that dependency order, inside one transaction.
	Delete(ctx context.Context, id uuid.UUID) error

	FindByID(ctx context.Context, id uuid.UUID) (*recipe.Recipe, error)
	List(ctx context.Context, filter RecipeFilter) ([]*recipe.Recipe, error)

	// Cook runs the cook transaction as one atomic unit: load the recipe
	// and its ingredients, lock the touched item rows, verify sufficiency,
	// apply every deduction, and cascade-delete the recipe. On any
	// shortfall it returns the insufficient-inventory error naming every
	// offending item and changes nothing.
	Cook(ctx context.Context, id uuid.UUID) error
}

// RecipeFilter narrows recipe listings
type RecipeFilter struct {
	SavedOnly bool
}

// AIService defines the interface for the external generation service.
// Responses are untrusted: possibly slow, possibly malformed. Callers
// bound every call with a context deadline and validate every payload
// before use.
type AIService interface {
	GenerateRecipe(ctx context.Context, req GenerationRequest) (*GeneratedRecipe, error)
	ExtractItems(ctx context.Context, imageURL string) ([]ExtractedItem, error)
	CategorizeItems(ctx context.Context, items []CategorizeEntry) ([]CategorizedEntry, error)
	GenerateEquipmentList(ctx context.Context, level, additionalInfo string) ([]ExtractedItem, error)
}

// GenerationRequest is the prompt context handed to the generation service
type GenerationRequest struct {
	Inventory      []InventoryEntry
	Servings       int
	PreferredNames []string
	Equipment      []string
	SpecialRequest string
}

// InventoryEntry is one inventory line exposed to the generation service
type InventoryEntry struct {
	ItemID   uuid.UUID
	Name     string
	Quantity float64
	Unit     string
}

// GeneratedRecipe is the structured recipe payload parsed from a
// generation response, before validation.
type GeneratedRecipe struct {
	Name         string
	Description  string
	Instructions string
	CookingTime  int
	Servings     int
	Ingredients  []GeneratedIngredient
	Model        string
}

// GeneratedIngredient is one ingredient line of a generated recipe
type GeneratedIngredient struct {
	ItemID   uuid.UUID
	Quantity float64
	Unit     string
}

// ExtractedItem is one item parsed from a vision or equipment response
type ExtractedItem struct {
	Name     string
	Quantity float64
	Unit     string
	Category string
}

// CategorizeEntry is one uncategorized item sent for classification
type CategorizeEntry struct {
	ItemID uuid.UUID
	Name   string
}

// CategorizedEntry is one classification result
type CategorizedEntry struct {
	ItemID   uuid.UUID
	Category string
}

// StorageService defines the interface for image storage. The returned
// URL is the only thing the core ever passes onward.
type StorageService interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	GeneratePresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}
