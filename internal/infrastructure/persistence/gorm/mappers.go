// Package gorm provides mapping between domain entities and GORM models
package gorm

import (
	"github.com/larderapp/v1/internal/domain/inventory"
	"github.com/larderapp/v1/internal/domain/recipe"
)

// ItemToModel converts a domain item to a GORM model
func ItemToModel(item *inventory.Item) *ItemModel {
	return &ItemModel{
		ID:         item.ID(),
		Version:    item.Version(),
		Name:       item.Name(),
		Quantity:   item.Quantity(),
		Unit:       item.Unit(),
		Category:   item.Category(),
		ExpiryDate: item.ExpiryDate(),
		CreatedAt:  item.CreatedAt(),
		UpdatedAt:  item.UpdatedAt(),
	}
}

// ModelToItem converts a GORM model to a domain item
func ModelToItem(m *ItemModel) *inventory.Item {
	return inventory.Reconstitute(
		m.ID,
		m.Version,
		m.Name,
		m.Quantity,
		m.Unit,
		m.Category,
		m.ExpiryDate,
		m.CreatedAt,
		m.UpdatedAt,
	)
}

// RecipeToModel converts a domain recipe to a GORM model
func RecipeToModel(r *recipe.Recipe) *RecipeModel {
	model := &RecipeModel{
		ID:           r.ID(),
		Name:         r.Name(),
		Description:  r.Description(),
		Instructions: r.Instructions(),
		CookingTime:  r.CookingTime(),
		Servings:     r.Servings(),
		Saved:        r.Saved(),
		AIGenerated:  r.IsAIGenerated(),
		AIModel:      r.AIModel(),
		CreatedAt:    r.CreatedAt(),
		UpdatedAt:    r.UpdatedAt(),
	}

	for _, ing := range r.Ingredients() {
		model.Ingredients = append(model.Ingredients, RecipeIngredientModel{
			RecipeID: r.ID(),
			ItemID:   ing.ItemID,
			Quantity: ing.Quantity,
			Unit:     ing.Unit,
		})
	}
	for _, eq := range r.Equipment() {
		model.Equipment = append(model.Equipment, RecipeEquipmentModel{
			RecipeID: r.ID(),
			ItemID:   eq.ItemID,
		})
	}

	return model
}

// ModelToRecipe converts a GORM model to a domain recipe
func ModelToRecipe(m *RecipeModel) *recipe.Recipe {
	ingredients := make([]recipe.Ingredient, len(m.Ingredients))
	for i, ing := range m.Ingredients {
		ingredients[i] = recipe.Ingredient{
			RecipeID: ing.RecipeID,
			ItemID:   ing.ItemID,
			Quantity: ing.Quantity,
			Unit:     ing.Unit,
		}
		if ing.Item != nil {
			ingredients[i].Item = ModelToItem(ing.Item)
		}
	}

	equipment := make([]recipe.Equipment, len(m.Equipment))
	for i, eq := range m.Equipment {
		equipment[i] = recipe.Equipment{
			RecipeID: eq.RecipeID,
			ItemID:   eq.ItemID,
		}
		if eq.Item != nil {
			equipment[i].Item = ModelToItem(eq.Item)
		}
	}

	return recipe.Reconstitute(
		m.ID,
		m.Name,
		m.Description,
		m.Instructions,
		m.CookingTime,
		m.Servings,
		m.Saved,
		m.AIGenerated,
		m.AIModel,
		ingredients,
		equipment,
		m.CreatedAt,
		m.UpdatedAt,
	)
}
