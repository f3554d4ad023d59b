package recipe

import "errors"

// Domain errors for recipe operations

var (
	// Entity validation errors
	ErrNameRequired       = errors.New("recipe name is required")
	ErrNameTooLong        = errors.New("recipe name must not exceed 200 characters")
	ErrInvalidServings    = errors.New("servings must be greater than 0")
	ErrInvalidCookingTime = errors.New("cooking time cannot be negative")
	ErrNoIngredients      = errors.New("recipe must have at least one ingredient")

	// Ingredient validation errors
	ErrIngredientItemRequired = errors.New("ingredient must reference an item")
	ErrNegativeIngredient     = errors.New("ingredient quantity cannot be negative")
)
