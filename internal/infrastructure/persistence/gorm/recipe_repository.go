package gorm

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/larderapp/v1/internal/domain/recipe"
	"github.com/larderapp/v1/internal/ports/outbound"
	apperrors "github.com/larderapp/v1/pkg/errors"
)

// RecipeRepository implements the recipe repository interface using GORM
type RecipeRepository struct {
	db *gorm.DB
}

// NewRecipeRepository creates a new recipe repository
func NewRecipeRepository(db *gorm.DB) outbound.RecipeRepository {
	return &RecipeRepository{db: db}
}

// Create persists the recipe and its child rows atomically. GORM inserts
// the ingredient and equipment associations in the same transaction as
// the parent row.
func (r *RecipeRepository) Create(ctx context.Context, rec *recipe.Recipe) error {
	model := RecipeToModel(rec)
	return r.db.WithContext(ctx).Create(model).Error
}

// Update persists the mutable recipe fields. Child rows are immutable
// after creation and are left alone.
func (r *RecipeRepository) Update(ctx context.Context, rec *recipe.Recipe) error {
	result := r.db.WithContext(ctx).
		Model(&RecipeModel{}).
		Where("id = ?", rec.ID()).
		Updates(map[string]interface{}{
			"saved":      rec.Saved(),
			"updated_at": rec.UpdatedAt(),
		})
	if result.Error != nil {
		return apperrors.NewDatabaseError("update recipe", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewRecipeNotFoundError(rec.ID().String())
	}
	return nil
}

// Delete removes ingredient rows, equipment rows, then the recipe row in
// one transaction
func (r *RecipeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteRecipeCascade(tx, id)
	})
}

// FindByID finds a recipe by ID with its associations resolved
func (r *RecipeRepository) FindByID(ctx context.Context, id uuid.UUID) (*recipe.Recipe, error) {
	var model RecipeModel

	result := r.db.WithContext(ctx).
		Preload("Ingredients.Item").
		Preload("Equipment.Item").
		First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewRecipeNotFoundError(id.String())
		}
		return nil, apperrors.NewDatabaseError("find recipe", result.Error)
	}

	return ModelToRecipe(&model), nil
}

// List lists recipes newest first, optionally restricted to saved ones
func (r *RecipeRepository) List(ctx context.Context, filter outbound.RecipeFilter) ([]*recipe.Recipe, error) {
	var models []RecipeModel

	query := r.db.WithContext(ctx).
		Preload("Ingredients.Item").
		Preload("Equipment.Item").
		Order("created_at DESC")
	if filter.SavedOnly {
		query = query.Where("saved = ?", true)
	}

	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	recipes := make([]*recipe.Recipe, len(models))
	for i := range models {
		recipes[i] = ModelToRecipe(&models[i])
	}
	return recipes, nil
}

// Cook runs the cook transaction. The touched item rows are locked with
// SELECT FOR UPDATE (a no-op on SQLite, where the single writer
// serializes the transaction anyway), every ingredient requirement is
// checked against the locked quantities, and only if all of them hold do
// the deductions and the cascade delete go through. A shortfall anywhere
// rolls back everything and reports every deficient ingredient, not just
// the first.
func (r *RecipeRepository) Cook(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model RecipeModel
		result := tx.Preload("Ingredients.Item").First(&model, "id = ?", id)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return apperrors.NewRecipeNotFoundError(id.String())
			}
			return apperrors.NewDatabaseError("find recipe", result.Error)
		}

		// Aggregate requirements per item; a recipe may list the same
		// item more than once.
		required := make(map[uuid.UUID]float64)
		names := make(map[uuid.UUID]string)
		for _, ing := range model.Ingredients {
			required[ing.ItemID] += ing.Quantity
			if ing.Item != nil {
				names[ing.ItemID] = ing.Item.Name
			}
		}

		// Lock rows in a stable order so concurrent cooks of overlapping
		// recipes cannot deadlock.
		ids := make([]uuid.UUID, 0, len(required))
		for itemID := range required {
			ids = append(ids, itemID)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

		var items []ItemModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id IN ?", ids).
			Find(&items).Error; err != nil {
			return apperrors.NewDatabaseError("lock items", err)
		}

		available := make(map[uuid.UUID]float64, len(items))
		for _, item := range items {
			available[item.ID] = item.Quantity
			names[item.ID] = item.Name
		}

		var shortfalls []apperrors.Shortfall
		for _, itemID := range ids {
			if available[itemID] < required[itemID] {
				shortfalls = append(shortfalls, apperrors.Shortfall{
					ItemID:    itemID.String(),
					ItemName:  names[itemID],
					Available: available[itemID],
					Required:  required[itemID],
				})
			}
		}
		if len(shortfalls) > 0 {
			return apperrors.NewInsufficientInventoryError(shortfalls)
		}

		for _, itemID := range ids {
			result := tx.Model(&ItemModel{}).
				Where("id = ?", itemID).
				Updates(map[string]interface{}{
					"quantity": gorm.Expr("quantity - ?", required[itemID]),
					"version":  gorm.Expr("version + 1"),
				})
			if result.Error != nil {
				return apperrors.NewDatabaseError("deduct item", result.Error)
			}
		}

		return deleteRecipeCascade(tx, id)
	})
}

// deleteRecipeCascade removes a recipe's child rows and then the recipe
// row itself, in dependency order, inside the caller's transaction.
func deleteRecipeCascade(tx *gorm.DB, id uuid.UUID) error {
	if err := tx.Delete(&RecipeIngredientModel{}, "recipe_id = ?", id).Error; err != nil {
		return apperrors.NewDatabaseError("delete recipe ingredients", err)
	}
	if err := tx.Delete(&RecipeEquipmentModel{}, "recipe_id = ?", id).Error; err != nil {
		return apperrors.NewDatabaseError("delete recipe equipment", err)
	}

	result := tx.Delete(&RecipeModel{}, "id = ?", id)
	if result.Error != nil {
		return apperrors.NewDatabaseError("delete recipe", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewRecipeNotFoundError(id.String())
	}
	return nil
}
