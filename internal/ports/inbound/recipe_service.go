package inbound

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RecipeService defines the recipe use cases
type RecipeService interface {
	CreateRecipe(ctx context.Context, cmd CreateRecipeCommand) (*RecipeDTO, error)
	ListRecipes(ctx context.Context, query RecipesQuery) ([]RecipeDTO, error)
	SaveRecipe(ctx context.Context, recipeID uuid.UUID) (*RecipeDTO, error)
	DeleteRecipe(ctx context.Context, recipeID uuid.UUID) error

	// ListAvailableRecipes computes which saved recipes the live inventory
	// can cover. Recomputed from live data on every call.
	ListAvailableRecipes(ctx context.Context) ([]RecipeSummaryDTO, error)

	// CookRecipe atomically deducts the recipe's ingredients from
	// inventory and retires the recipe. All-or-nothing.
	CookRecipe(ctx context.Context, recipeID uuid.UUID) error

	// GenerateRecipes asks the generation service for Count recipes and
	// admits only payloads that pass validation.
	GenerateRecipes(ctx context.Context, cmd GenerateRecipesCommand) ([]RecipeDTO, error)
}

// CreateRecipeCommand carries the fields for creating a recipe with its
// ingredient and equipment associations.
type CreateRecipeCommand struct {
	Name         string                    `json:"name" validate:"required,max=200"`
	Description  string                    `json:"description"`
	Instructions string                    `json:"instructions"`
	CookingTime  int                       `json:"cookingTime" validate:"gte=0"`
	Servings     int                       `json:"servings" validate:"gt=0"`
	Ingredients  []RecipeIngredientCommand `json:"ingredients" validate:"required,min=1,dive"`
	Equipment    []uuid.UUID               `json:"equipment,omitempty"`
}

// RecipeIngredientCommand is one ingredient requirement in a create command
type RecipeIngredientCommand struct {
	ItemID   uuid.UUID `json:"itemId" validate:"required"`
	Quantity float64   `json:"quantity" validate:"gte=0"`
	Unit     string    `json:"unit" validate:"required"`
}

// RecipesQuery filters recipe listings
type RecipesQuery struct {
	SavedOnly bool
}

// GenerateRecipesCommand carries the caller constraints for recipe
// generation. The validator judges each response against these; retry
// policy belongs to the caller.
type GenerateRecipesCommand struct {
	Count            int           `json:"count" validate:"gte=1,lte=10"`
	Servings         int           `json:"servings" validate:"gt=0"`
	PreferredItemIDs []uuid.UUID   `json:"preferredItemIds,omitempty"`
	EquipmentIDs     []uuid.UUID   `json:"equipmentIds,omitempty"`
	SpecialRequest   string        `json:"specialRequest,omitempty"`
	Timeout          time.Duration `json:"-"`
}

// RecipeDTO is the transport representation of a recipe with its
// associations resolved to full item data.
type RecipeDTO struct {
	ID           uuid.UUID             `json:"id"`
	Name         string                `json:"name"`
	Description  string                `json:"description"`
	Instructions string                `json:"instructions"`
	CookingTime  int                   `json:"cookingTime"`
	Servings     int                   `json:"servings"`
	Saved        bool                  `json:"saved"`
	AIGenerated  bool                  `json:"aiGenerated"`
	AIModel      string                `json:"aiModel,omitempty"`
	Ingredients  []RecipeIngredientDTO `json:"ingredients"`
	Equipment    []RecipeEquipmentDTO  `json:"equipment,omitempty"`
	CreatedAt    time.Time             `json:"createdAt"`
}

// RecipeIngredientDTO is one resolved ingredient requirement
type RecipeIngredientDTO struct {
	ItemID   uuid.UUID `json:"itemId"`
	Quantity float64   `json:"quantity"`
	Unit     string    `json:"unit"`
	Item     *ItemDTO  `json:"item,omitempty"`
}

// RecipeEquipmentDTO is one resolved equipment requirement
type RecipeEquipmentDTO struct {
	ItemID uuid.UUID `json:"itemId"`
	Item   *ItemDTO  `json:"item,omitempty"`
}

// RecipeSummaryDTO is the reduced projection for availability listings
type RecipeSummaryDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Servings    int       `json:"servings"`
	CookingTime int       `json:"cookingTime"`
}
