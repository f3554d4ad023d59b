package gorm

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/larderapp/v1/internal/domain/inventory"
	"github.com/larderapp/v1/internal/ports/outbound"
	apperrors "github.com/larderapp/v1/pkg/errors"
)

// ItemRepository implements the item repository interface using GORM
type ItemRepository struct {
	db *gorm.DB
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *gorm.DB) outbound.ItemRepository {
	return &ItemRepository{db: db}
}

// Create creates a new item
func (r *ItemRepository) Create(ctx context.Context, item *inventory.Item) error {
	model := ItemToModel(item)
	return r.db.WithContext(ctx).Create(model).Error
}

// CreateBatch inserts all items in one statement
func (r *ItemRepository) CreateBatch(ctx context.Context, items []*inventory.Item) error {
	if len(items) == 0 {
		return nil
	}
	models := make([]*ItemModel, len(items))
	for i, item := range items {
		models[i] = ItemToModel(item)
	}
	return r.db.WithContext(ctx).Create(&models).Error
}

// Update persists the item guarded by its optimistic-lock version. A
// stale version surfaces as a concurrency conflict rather than silently
// overwriting another writer.
func (r *ItemRepository) Update(ctx context.Context, item *inventory.Item) error {
	model := ItemToModel(item)

	result := r.db.WithContext(ctx).
		Model(&ItemModel{}).
		Where("id = ? AND version = ?", model.ID, model.Version).
		Updates(map[string]interface{}{
			"version":     model.Version + 1,
			"name":        model.Name,
			"quantity":    model.Quantity,
			"unit":        model.Unit,
			"category":    model.Category,
			"expiry_date": model.ExpiryDate,
		})
	if result.Error != nil {
		return apperrors.NewDatabaseError("update item", result.Error)
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&ItemModel{}).
			Where("id = ?", model.ID).Count(&count).Error; err != nil {
			return apperrors.NewDatabaseError("update item", err)
		}
		if count == 0 {
			return apperrors.NewItemNotFoundError(model.ID.String())
		}
		return apperrors.NewConcurrencyConflictError("item")
	}

	return nil
}

// Delete removes an item by ID
func (r *ItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&ItemModel{}, "id = ?", id)
	if result.Error != nil {
		return apperrors.NewDatabaseError("delete item", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewItemNotFoundError(id.String())
	}
	return nil
}

// DeleteByCategory removes every item in a category and reports how many
// rows went away
func (r *ItemRepository) DeleteByCategory(ctx context.Context, category string) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&ItemModel{}, "category = ?", category)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// FindByID finds an item by ID
func (r *ItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Item, error) {
	var model ItemModel

	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewItemNotFoundError(id.String())
		}
		return nil, apperrors.NewDatabaseError("find item", result.Error)
	}

	return ModelToItem(&model), nil
}

// FindByNameAndCategory finds an item matching the name
// case-insensitively and the category exactly
func (r *ItemRepository) FindByNameAndCategory(ctx context.Context, name string, category *string) (*inventory.Item, error) {
	var model ItemModel

	query := r.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name)
	if category != nil {
		query = query.Where("category = ?", *category)
	} else {
		query = query.Where("category IS NULL")
	}

	result := query.First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewItemNotFoundError(name)
		}
		return nil, apperrors.NewDatabaseError("find item by name", result.Error)
	}

	return ModelToItem(&model), nil
}

// List lists items ordered by name, optionally filtered by category
func (r *ItemRepository) List(ctx context.Context, filter outbound.ItemFilter) ([]*inventory.Item, error) {
	var models []ItemModel

	query := r.db.WithContext(ctx).Order("LOWER(name) ASC")
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	if filter.ExcludeCategory != nil {
		query = query.Where("category IS NULL OR category != ?", *filter.ExcludeCategory)
	}

	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	items := make([]*inventory.Item, len(models))
	for i := range models {
		items[i] = ModelToItem(&models[i])
	}
	return items, nil
}
