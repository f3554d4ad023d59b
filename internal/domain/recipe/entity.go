// Package recipe contains the core domain logic for recipe management.
// A recipe owns its ingredient and equipment requirements; the child
// rows never outlive the recipe itself.
package recipe

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Recipe represents a generated or authored cooking procedure with
// resolved ingredient and equipment requirements.
type Recipe struct {
	id uuid.UUID

	name         string
	description  string
	instructions string
	cookingTime  int // minutes
	servings     int
	saved        bool

	ingredients []Ingredient
	equipment   []Equipment

	// AI-generated content
	aiGenerated bool
	aiModel     string

	createdAt time.Time
	updatedAt time.Time
}

// NewRecipe creates a new Recipe with validation. Ingredients are added
// separately; Validate enforces the no-recipe-without-ingredients rule
// before the recipe may be persisted.
func NewRecipe(name, description, instructions string, cookingTime, servings int) (*Recipe, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, ErrNameRequired
	}
	if len(trimmed) > 200 {
		return nil, ErrNameTooLong
	}
	if servings <= 0 {
		return nil, ErrInvalidServings
	}
	if cookingTime < 0 {
		return nil, ErrInvalidCookingTime
	}

	now := time.Now()
	return &Recipe{
		id:           uuid.New(),
		name:         trimmed,
		description:  description,
		instructions: instructions,
		cookingTime:  cookingTime,
		servings:     servings,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// Reconstitute rebuilds a Recipe from persisted state
func Reconstitute(id uuid.UUID, name, description, instructions string, cookingTime, servings int, saved, aiGenerated bool, aiModel string, ingredients []Ingredient, equipment []Equipment, createdAt, updatedAt time.Time) *Recipe {
	return &Recipe{
		id:           id,
		name:         name,
		description:  description,
		instructions: instructions,
		cookingTime:  cookingTime,
		servings:     servings,
		saved:        saved,
		aiGenerated:  aiGenerated,
		aiModel:      aiModel,
		ingredients:  ingredients,
		equipment:    equipment,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

// ID returns the recipe's unique identifier
func (r *Recipe) ID() uuid.UUID {
	return r.id
}

// Name returns the recipe's name
func (r *Recipe) Name() string {
	return r.name
}

// Description returns the recipe's description
func (r *Recipe) Description() string {
	return r.description
}

// Instructions returns the cooking instructions text
func (r *Recipe) Instructions() string {
	return r.instructions
}

// CookingTime returns the cooking time in minutes
func (r *Recipe) CookingTime() int {
	return r.cookingTime
}

// Servings returns the number of servings
func (r *Recipe) Servings() int {
	return r.servings
}

// Saved reports whether the user committed to keeping the recipe
func (r *Recipe) Saved() bool {
	return r.saved
}

// Ingredients returns the recipe's ingredient requirements
func (r *Recipe) Ingredients() []Ingredient {
	return r.ingredients
}

// Equipment returns the recipe's equipment requirements
func (r *Recipe) Equipment() []Equipment {
	return r.equipment
}

// IsAIGenerated reports whether the recipe came from the generation service
func (r *Recipe) IsAIGenerated() bool {
	return r.aiGenerated
}

// AIModel returns the model that generated the recipe
func (r *Recipe) AIModel() string {
	return r.aiModel
}

// CreatedAt returns when the recipe was created
func (r *Recipe) CreatedAt() time.Time {
	return r.createdAt
}

// UpdatedAt returns when the recipe was last updated
func (r *Recipe) UpdatedAt() time.Time {
	return r.updatedAt
}

// SetGeneratedBy records the generation service provenance
func (r *Recipe) SetGeneratedBy(model string) {
	r.aiGenerated = true
	r.aiModel = model
}

// AddIngredient adds an ingredient requirement to the recipe
func (r *Recipe) AddIngredient(ingredient Ingredient) error {
	if err := ingredient.Validate(); err != nil {
		return err
	}
	ingredient.RecipeID = r.id
	r.ingredients = append(r.ingredients, ingredient)
	r.updatedAt = time.Now()
	return nil
}

// AddEquipment adds an equipment requirement to the recipe
func (r *Recipe) AddEquipment(equipment Equipment) error {
	if equipment.ItemID == uuid.Nil {
		return ErrIngredientItemRequired
	}
	equipment.RecipeID = r.id
	r.equipment = append(r.equipment, equipment)
	r.updatedAt = time.Now()
	return nil
}

// MarkSaved flags the recipe as kept. Idempotent.
func (r *Recipe) MarkSaved() {
	if r.saved {
		return
	}
	r.saved = true
	r.updatedAt = time.Now()
}

// Validate ensures the recipe meets persistence requirements
func (r *Recipe) Validate() error {
	if len(r.ingredients) == 0 {
		return ErrNoIngredients
	}
	return nil
}
