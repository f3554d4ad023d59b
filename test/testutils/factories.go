// Package testutils provides test data factories for consistent test
// data generation
package testutils

import (
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"

	"github.com/larderapp/v1/internal/domain/inventory"
	"github.com/larderapp/v1/internal/domain/recipe"
)

// ItemFactory provides methods to create test inventory items
type ItemFactory struct {
	faker *gofakeit.Faker
}

// NewItemFactory creates a new item factory with seeded faker
func NewItemFactory(seed int64) *ItemFactory {
	return &ItemFactory{
		faker: gofakeit.New(seed),
	}
}

// Item creates a valid item with random values
func (f *ItemFactory) Item() *inventory.Item {
	category := f.faker.RandomString([]string{"Produce", "Pantry", "Dairy & Eggs"})
	item, err := inventory.NewItem(
		f.faker.Fruit(),
		float64(f.faker.Number(1, 20)),
		f.faker.RandomString([]string{"g", "kg", "ml", "pieces"}),
		&category,
		nil,
	)
	if err != nil {
		panic(err)
	}
	return item
}

// ItemWithQuantity creates an item with a specific name and quantity
func (f *ItemFactory) ItemWithQuantity(name string, quantity float64) *inventory.Item {
	item, err := inventory.NewItem(name, quantity, "g", nil, nil)
	if err != nil {
		panic(err)
	}
	return item
}

// EquipmentItem creates an item in the equipment category
func (f *ItemFactory) EquipmentItem(name string) *inventory.Item {
	category := inventory.CategoryEquipment
	item, err := inventory.NewItem(name, 1, "piece", &category, nil)
	if err != nil {
		panic(err)
	}
	return item
}

// RecipeFactory provides methods to create test recipes
type RecipeFactory struct {
	faker *gofakeit.Faker
}

// NewRecipeFactory creates a new recipe factory with seeded faker
func NewRecipeFactory(seed int64) *RecipeFactory {
	return &RecipeFactory{
		faker: gofakeit.New(seed),
	}
}

// Recipe creates a valid recipe requiring the given items
func (f *RecipeFactory) Recipe(requirements map[uuid.UUID]float64) *recipe.Recipe {
	r, err := recipe.NewRecipe(
		f.faker.Dinner(),
		f.faker.Sentence(8),
		f.faker.Paragraph(1, 3, 10, " "),
		f.faker.Number(10, 90),
		f.faker.Number(1, 6),
	)
	if err != nil {
		panic(err)
	}
	for itemID, quantity := range requirements {
		if err := r.AddIngredient(recipe.Ingredient{
			ItemID:   itemID,
			Quantity: quantity,
			Unit:     "g",
		}); err != nil {
			panic(err)
		}
	}
	return r
}

// SavedRecipe creates a saved recipe requiring the given items
func (f *RecipeFactory) SavedRecipe(requirements map[uuid.UUID]float64) *recipe.Recipe {
	r := f.Recipe(requirements)
	r.MarkSaved()
	return r
}

// Seed returns a time-based seed for non-deterministic runs
func Seed() int64 {
	return time.Now().UnixNano()
}
