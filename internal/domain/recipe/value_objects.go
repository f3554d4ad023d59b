package recipe

import (
	"github.com/google/uuid"

	"github.com/larderapp/v1/internal/domain/inventory"
)

// Value Objects - Immutable objects that describe aspects of the domain

// Ingredient represents one ingredient requirement of a recipe. ItemID
// must reference an existing inventory item at creation time; Item is
// populated when the association is resolved on load.
type Ingredient struct {
	RecipeID uuid.UUID
	ItemID   uuid.UUID
	Quantity float64
	Unit     string

	// Resolved association, nil until loaded
	Item *inventory.Item
}

// Validate validates the ingredient
func (i Ingredient) Validate() error {
	if i.ItemID == uuid.Nil {
		return ErrIngredientItemRequired
	}
	if i.Quantity < 0 {
		return ErrNegativeIngredient
	}
	return nil
}

// Equipment represents one equipment requirement of a recipe. Equipment
// availability is not inventory-gated; the association only records which
// durable items the recipe calls for.
type Equipment struct {
	RecipeID uuid.UUID
	ItemID   uuid.UUID

	// Resolved association, nil until loaded
	Item *inventory.Item
}

// Summary is the reduced projection returned by the availability matcher.
type Summary struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Servings    int       `json:"servings"`
	CookingTime int       `json:"cookingTime"`
}

// Summarize reduces a recipe to its availability projection
func (r *Recipe) Summarize() Summary {
	return Summary{
		ID:          r.id,
		Name:        r.name,
		Servings:    r.servings,
		CookingTime: r.cookingTime,
	}
}

// CookableWith reports whether every ingredient requirement is satisfied
// by the supplied live quantities, keyed by item id. Equipment is not
// consulted. A missing key counts as zero quantity.
func (r *Recipe) CookableWith(quantities map[uuid.UUID]float64) bool {
	for _, ing := range r.ingredients {
		if quantities[ing.ItemID] < ing.Quantity {
			return false
		}
	}
	return true
}
