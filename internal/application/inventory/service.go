// Package inventory provides the application layer for inventory
// management. This implements the use cases defined in the inbound ports.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/larderapp/v1/internal/domain/inventory"
	"github.com/larderapp/v1/internal/ports/inbound"
	"github.com/larderapp/v1/internal/ports/outbound"
	apperrors "github.com/larderapp/v1/pkg/errors"
)

// Service implements the inventory use cases
type Service struct {
	items     outbound.ItemRepository
	aiService outbound.AIService
	validate  *validator.Validate
	aiTimeout time.Duration
	logger    *zap.Logger
}

// NewService creates a new inventory service
func NewService(
	items outbound.ItemRepository,
	aiService outbound.AIService,
	aiTimeout time.Duration,
	logger *zap.Logger,
) inbound.InventoryService {
	if aiTimeout <= 0 {
		aiTimeout = 30 * time.Second
	}
	return &Service{
		items:     items,
		aiService: aiService,
		validate:  validator.New(),
		aiTimeout: aiTimeout,
		logger:    logger.Named("inventory-service"),
	}
}

// ListItems lists items, optionally filtered by category
func (s *Service) ListItems(ctx context.Context, query inbound.ItemsQuery) ([]inbound.ItemDTO, error) {
	items, err := s.items.List(ctx, outbound.ItemFilter{
		Category:        query.Category,
		ExcludeCategory: query.ExcludeCategory,
	})
	if err != nil {
		return nil, apperrors.NewDatabaseError("list items", err)
	}

	dtos := make([]inbound.ItemDTO, len(items))
	for i, item := range items {
		dtos[i] = entityToDTO(item)
	}
	return dtos, nil
}

// CreateItem creates a single item
func (s *Service) CreateItem(ctx context.Context, cmd inbound.CreateItemCommand) (*inbound.ItemDTO, error) {
	if err := s.validate.Struct(cmd); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	item, err := inventory.NewItem(cmd.Name, cmd.Quantity, cmd.Unit, cmd.Category, cmd.ExpiryDate)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	if err := s.items.Create(ctx, item); err != nil {
		return nil, apperrors.NewDatabaseError("create item", err)
	}

	s.logger.Info("Item created",
		zap.String("item_id", item.ID().String()),
		zap.String("name", item.Name()),
	)

	dto := entityToDTO(item)
	return &dto, nil
}

// CreateItems creates a batch of items in one shot, as produced by an
// image-derived insert. Validation failures abort the whole batch.
func (s *Service) CreateItems(ctx context.Context, cmds []inbound.CreateItemCommand) ([]inbound.ItemDTO, error) {
	items := make([]*inventory.Item, 0, len(cmds))
	for i, cmd := range cmds {
		if err := s.validate.Struct(cmd); err != nil {
			return nil, apperrors.NewValidationError(fmt.Sprintf("item %d: %s", i, err.Error()))
		}
		item, err := inventory.NewItem(cmd.Name, cmd.Quantity, cmd.Unit, cmd.Category, cmd.ExpiryDate)
		if err != nil {
			return nil, apperrors.NewValidationError(fmt.Sprintf("item %d: %s", i, err.Error()))
		}
		items = append(items, item)
	}

	if err := s.items.CreateBatch(ctx, items); err != nil {
		return nil, apperrors.NewDatabaseError("create items", err)
	}

	dtos := make([]inbound.ItemDTO, len(items))
	for i, item := range items {
		dtos[i] = entityToDTO(item)
	}
	return dtos, nil
}

// UpsertItemByName merges the command into an existing item with the same
// name (case-insensitive) and category, adding quantities and overwriting
// the unit; otherwise it creates a new item. The merge policy keeps
// repeated scans of the same ingredient from producing duplicate rows.
func (s *Service) UpsertItemByName(ctx context.Context, cmd inbound.CreateItemCommand) (*inbound.ItemDTO, error) {
	if err := s.validate.Struct(cmd); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	existing, err := s.items.FindByNameAndCategory(ctx, cmd.Name, cmd.Category)
	if err != nil && !apperrors.Is(err, apperrors.CodeItemNotFound) {
		return nil, apperrors.NewDatabaseError("find item by name", err)
	}

	if existing != nil {
		if err := existing.Merge(cmd.Quantity, cmd.Unit); err != nil {
			return nil, apperrors.NewValidationError(err.Error())
		}
		if err := s.items.Update(ctx, existing); err != nil {
			return nil, err
		}
		dto := entityToDTO(existing)
		return &dto, nil
	}

	return s.CreateItem(ctx, cmd)
}

// UpdateItem replaces the fields present in the command
func (s *Service) UpdateItem(ctx context.Context, cmd inbound.UpdateItemCommand) (*inbound.ItemDTO, error) {
	item, err := s.items.FindByID(ctx, cmd.ItemID)
	if err != nil {
		return nil, err
	}

	if cmd.Name != nil {
		if err := item.Rename(*cmd.Name); err != nil {
			return nil, apperrors.NewValidationError(err.Error())
		}
	}
	if cmd.Quantity != nil {
		if err := item.SetQuantity(*cmd.Quantity); err != nil {
			return nil, apperrors.NewValidationError(err.Error())
		}
	}
	if cmd.Unit != nil {
		if err := item.SetUnit(*cmd.Unit); err != nil {
			return nil, apperrors.NewValidationError(err.Error())
		}
	}
	if cmd.Category != nil {
		item.SetCategory(cmd.Category)
	}
	if cmd.ExpiryDate != nil {
		item.SetExpiryDate(cmd.ExpiryDate)
	}

	if err := s.items.Update(ctx, item); err != nil {
		return nil, err
	}

	dto := entityToDTO(item)
	return &dto, nil
}

// AdjustQuantity applies a signed delta to the item quantity. The
// non-negativity invariant is enforced by the domain entity; this is the
// same primitive the cook transaction's deduction path relies on.
func (s *Service) AdjustQuantity(ctx context.Context, itemID uuid.UUID, delta float64) (*inbound.ItemDTO, error) {
	item, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if err := item.Adjust(delta); err != nil {
		if errors.Is(err, inventory.ErrQuantityBelowZero) {
			return nil, apperrors.NewInsufficientInventoryError([]apperrors.Shortfall{{
				ItemID:    item.ID().String(),
				ItemName:  item.Name(),
				Available: item.Quantity(),
				Required:  -delta,
			}})
		}
		return nil, apperrors.NewValidationError(err.Error())
	}

	if err := s.items.Update(ctx, item); err != nil {
		return nil, err
	}

	dto := entityToDTO(item)
	return &dto, nil
}

// DeleteItem removes an item. With idempotent set, a missing item is not
// an error; otherwise absence surfaces as not-found.
func (s *Service) DeleteItem(ctx context.Context, itemID uuid.UUID, idempotent bool) error {
	err := s.items.Delete(ctx, itemID)
	if err != nil && idempotent && apperrors.Is(err, apperrors.CodeItemNotFound) {
		return nil
	}
	return err
}

// ExtractItemsFromImage runs the vision extraction pipeline: the image
// reference goes to the generation service, each returned entry is
// validated for field presence, and valid entries are merged into
// inventory via the upsert-by-name policy.
func (s *Service) ExtractItemsFromImage(ctx context.Context, cmd inbound.ExtractItemsCommand) ([]inbound.ItemDTO, error) {
	if err := s.validate.Struct(cmd); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	timeout := cmd.Timeout
	if timeout <= 0 {
		timeout = s.aiTimeout
	}
	aiCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	extracted, err := s.aiService.ExtractItems(aiCtx, cmd.ImageURL)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.NewGenerationTimeoutError(timeout)
		}
		return nil, err
	}

	cmds, err := validateExtracted(extracted)
	if err != nil {
		return nil, err
	}

	dtos := make([]inbound.ItemDTO, 0, len(cmds))
	for _, c := range cmds {
		dto, err := s.UpsertItemByName(ctx, c)
		if err != nil {
			return nil, err
		}
		dtos = append(dtos, *dto)
	}

	s.logger.Info("Items extracted from image",
		zap.String("image_url", cmd.ImageURL),
		zap.Int("count", len(dtos)),
	)

	return dtos, nil
}

// CategorizeItems asks the generation service to classify every
// uncategorized item. Entries referencing unknown ids or categories
// outside the fixed set are skipped rather than failing the whole run.
func (s *Service) CategorizeItems(ctx context.Context) ([]inbound.ItemDTO, error) {
	items, err := s.items.List(ctx, outbound.ItemFilter{})
	if err != nil {
		return nil, apperrors.NewDatabaseError("list items", err)
	}

	byID := make(map[uuid.UUID]*inventory.Item, len(items))
	entries := make([]outbound.CategorizeEntry, 0, len(items))
	for _, item := range items {
		if item.Category() != nil {
			continue
		}
		byID[item.ID()] = item
		entries = append(entries, outbound.CategorizeEntry{ItemID: item.ID(), Name: item.Name()})
	}
	if len(entries) == 0 {
		return []inbound.ItemDTO{}, nil
	}

	aiCtx, cancel := context.WithTimeout(ctx, s.aiTimeout)
	defer cancel()

	categorized, err := s.aiService.CategorizeItems(aiCtx, entries)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.NewGenerationTimeoutError(s.aiTimeout)
		}
		return nil, err
	}

	updated := make([]inbound.ItemDTO, 0, len(categorized))
	for _, entry := range categorized {
		item, ok := byID[entry.ItemID]
		if !ok || !validCategory(entry.Category) {
			s.logger.Warn("Skipping categorization entry",
				zap.String("item_id", entry.ItemID.String()),
				zap.String("category", entry.Category),
			)
			continue
		}
		category := entry.Category
		item.SetCategory(&category)
		if err := s.items.Update(ctx, item); err != nil {
			return nil, err
		}
		updated = append(updated, entityToDTO(item))
	}

	return updated, nil
}

// InitializeEquipment replaces the equipment inventory with an
// AI-generated set matching the requested level.
func (s *Service) InitializeEquipment(ctx context.Context, cmd inbound.InitializeEquipmentCommand) ([]inbound.ItemDTO, error) {
	if err := s.validate.Struct(cmd); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	timeout := cmd.Timeout
	if timeout <= 0 {
		timeout = s.aiTimeout
	}
	aiCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	generated, err := s.aiService.GenerateEquipmentList(aiCtx, cmd.Level, cmd.AdditionalInfo)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.NewGenerationTimeoutError(timeout)
		}
		return nil, err
	}

	category := inventory.CategoryEquipment
	items := make([]*inventory.Item, 0, len(generated))
	for i, entry := range generated {
		quantity := entry.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		unit := entry.Unit
		if unit == "" {
			unit = "piece"
		}
		item, err := inventory.NewItem(entry.Name, quantity, unit, &category, nil)
		if err != nil {
			return nil, apperrors.NewGenerationError("item_fields",
				fmt.Sprintf("equipment entry %d: %s", i, err.Error()))
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return nil, apperrors.NewGenerationError("empty", "generation service returned no equipment")
	}

	// Replace existing equipment to avoid duplicates.
	if _, err := s.items.DeleteByCategory(ctx, inventory.CategoryEquipment); err != nil {
		return nil, apperrors.NewDatabaseError("delete equipment", err)
	}
	if err := s.items.CreateBatch(ctx, items); err != nil {
		return nil, apperrors.NewDatabaseError("create equipment", err)
	}

	s.logger.Info("Equipment initialized",
		zap.String("level", cmd.Level),
		zap.Int("count", len(items)),
	)

	dtos := make([]inbound.ItemDTO, len(items))
	for i, item := range items {
		dtos[i] = entityToDTO(item)
	}
	return dtos, nil
}

// validateExtracted checks field presence on vision output before any of
// it crosses into the store.
func validateExtracted(entries []outbound.ExtractedItem) ([]inbound.CreateItemCommand, error) {
	if len(entries) == 0 {
		return nil, apperrors.NewGenerationError("empty", "generation service returned no items")
	}

	cmds := make([]inbound.CreateItemCommand, 0, len(entries))
	for i, entry := range entries {
		if entry.Name == "" || entry.Unit == "" {
			return nil, apperrors.NewGenerationError("item_fields",
				fmt.Sprintf("entry %d is missing name or unit", i))
		}
		if entry.Quantity < 0 {
			return nil, apperrors.NewGenerationError("item_fields",
				fmt.Sprintf("entry %d has negative quantity", i))
		}
		cmd := inbound.CreateItemCommand{
			Name:     entry.Name,
			Quantity: entry.Quantity,
			Unit:     entry.Unit,
		}
		if entry.Category != "" {
			category := entry.Category
			cmd.Category = &category
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

func validCategory(category string) bool {
	for _, c := range inventory.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// entityToDTO converts a domain item to its transport representation
func entityToDTO(item *inventory.Item) inbound.ItemDTO {
	return inbound.ItemDTO{
		ID:         item.ID(),
		Name:       item.Name(),
		Quantity:   item.Quantity(),
		Unit:       item.Unit(),
		Category:   item.Category(),
		ExpiryDate: item.ExpiryDate(),
		CreatedAt:  item.CreatedAt(),
	}
}
