// Package recipe provides the application layer for recipe management,
// cooking, and AI-backed recipe generation.
package recipe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/larderapp/v1/internal/domain/inventory"
	"github.com/larderapp/v1/internal/domain/recipe"
	"github.com/larderapp/v1/internal/ports/inbound"
	"github.com/larderapp/v1/internal/ports/outbound"
	apperrors "github.com/larderapp/v1/pkg/errors"
)

// Service implements the recipe use cases
type Service struct {
	recipes   outbound.RecipeRepository
	items     outbound.ItemRepository
	aiService outbound.AIService
	validate  *validator.Validate
	aiTimeout time.Duration
	logger    *zap.Logger
}

// NewService creates a new recipe service
func NewService(
	recipes outbound.RecipeRepository,
	items outbound.ItemRepository,
	aiService outbound.AIService,
	aiTimeout time.Duration,
	logger *zap.Logger,
) inbound.RecipeService {
	if aiTimeout <= 0 {
		aiTimeout = 60 * time.Second
	}
	return &Service{
		recipes:   recipes,
		items:     items,
		aiService: aiService,
		validate:  validator.New(),
		aiTimeout: aiTimeout,
		logger:    logger.Named("recipe-service"),
	}
}

// CreateRecipe creates a recipe and its ingredient and equipment rows as
// one atomic write. Every referenced item must exist.
func (s *Service) CreateRecipe(ctx context.Context, cmd inbound.CreateRecipeCommand) (*inbound.RecipeDTO, error) {
	if err := s.validate.Struct(cmd); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	entity, err := recipe.NewRecipe(cmd.Name, cmd.Description, cmd.Instructions, cmd.CookingTime, cmd.Servings)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	for _, ing := range cmd.Ingredients {
		if _, err := s.items.FindByID(ctx, ing.ItemID); err != nil {
			// A dangling reference is the caller's input being wrong, not
			// a lookup miss on the resource they addressed.
			if apperrors.GetCode(err) == apperrors.CodeItemNotFound {
				return nil, apperrors.NewValidationError(fmt.Sprintf("ingredient references unknown item %s", ing.ItemID))
			}
			return nil, err
		}
		if err := entity.AddIngredient(recipe.Ingredient{
			ItemID:   ing.ItemID,
			Quantity: ing.Quantity,
			Unit:     ing.Unit,
		}); err != nil {
			return nil, apperrors.NewValidationError(err.Error())
		}
	}
	for _, itemID := range cmd.Equipment {
		if _, err := s.items.FindByID(ctx, itemID); err != nil {
			if apperrors.GetCode(err) == apperrors.CodeItemNotFound {
				return nil, apperrors.NewValidationError(fmt.Sprintf("equipment references unknown item %s", itemID))
			}
			return nil, err
		}
		if err := entity.AddEquipment(recipe.Equipment{ItemID: itemID}); err != nil {
			return nil, apperrors.NewValidationError(err.Error())
		}
	}

	if err := entity.Validate(); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	if err := s.recipes.Create(ctx, entity); err != nil {
		return nil, apperrors.NewDatabaseError("create recipe", err)
	}

	s.logger.Info("Recipe created",
		zap.String("recipe_id", entity.ID().String()),
		zap.String("name", entity.Name()),
	)

	dto := recipeToDTO(entity)
	return &dto, nil
}

// ListRecipes lists recipes, optionally restricted to saved ones
func (s *Service) ListRecipes(ctx context.Context, query inbound.RecipesQuery) ([]inbound.RecipeDTO, error) {
	recipes, err := s.recipes.List(ctx, outbound.RecipeFilter{SavedOnly: query.SavedOnly})
	if err != nil {
		return nil, apperrors.NewDatabaseError("list recipes", err)
	}

	dtos := make([]inbound.RecipeDTO, len(recipes))
	for i, r := range recipes {
		dtos[i] = recipeToDTO(r)
	}
	return dtos, nil
}

// SaveRecipe marks a recipe as saved. Saving an already-saved recipe is a
// no-op that still succeeds.
func (s *Service) SaveRecipe(ctx context.Context, recipeID uuid.UUID) (*inbound.RecipeDTO, error) {
	entity, err := s.recipes.FindByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	entity.MarkSaved()
	if err := s.recipes.Update(ctx, entity); err != nil {
		return nil, apperrors.NewDatabaseError("save recipe", err)
	}

	dto := recipeToDTO(entity)
	return &dto, nil
}

// DeleteRecipe removes a recipe and its child rows in one transaction
func (s *Service) DeleteRecipe(ctx context.Context, recipeID uuid.UUID) error {
	if err := s.recipes.Delete(ctx, recipeID); err != nil {
		return err
	}
	s.logger.Info("Recipe deleted", zap.String("recipe_id", recipeID.String()))
	return nil
}

// ListAvailableRecipes returns summaries of every saved recipe whose
// ingredient requirements are fully satisfiable by the current inventory.
// Availability is computed fresh from one inventory snapshot per request,
// never cached, so a cook or an inventory edit flips the answer on the
// next call. Equipment rows never count toward ingredient availability.
func (s *Service) ListAvailableRecipes(ctx context.Context) ([]inbound.RecipeSummaryDTO, error) {
	saved, err := s.recipes.List(ctx, outbound.RecipeFilter{SavedOnly: true})
	if err != nil {
		return nil, apperrors.NewDatabaseError("list recipes", err)
	}

	excludeEquipment := inventory.CategoryEquipment
	items, err := s.items.List(ctx, outbound.ItemFilter{ExcludeCategory: &excludeEquipment})
	if err != nil {
		return nil, apperrors.NewDatabaseError("list items", err)
	}

	quantities := make(map[uuid.UUID]float64, len(items))
	for _, item := range items {
		quantities[item.ID()] = item.Quantity()
	}

	summaries := make([]inbound.RecipeSummaryDTO, 0, len(saved))
	for _, r := range saved {
		if !r.CookableWith(quantities) {
			continue
		}
		summary := r.Summarize()
		summaries = append(summaries, inbound.RecipeSummaryDTO{
			ID:          summary.ID,
			Name:        summary.Name,
			Servings:    summary.Servings,
			CookingTime: summary.CookingTime,
		})
	}
	return summaries, nil
}

// CookRecipe consumes a recipe: every ingredient quantity is deducted
// from inventory and the recipe is deleted, all inside one transaction.
// If any ingredient falls short, nothing changes and the error names
// every shortfall.
func (s *Service) CookRecipe(ctx context.Context, recipeID uuid.UUID) error {
	if err := s.recipes.Cook(ctx, recipeID); err != nil {
		return err
	}
	s.logger.Info("Recipe cooked", zap.String("recipe_id", recipeID.String()))
	return nil
}

// GenerateRecipes asks the generation service for the requested number of
// recipes, validates each response against the command, and persists the
// ones that pass. Validation failure on any response aborts the run;
// recipes already persisted stay visible and deletable.
func (s *Service) GenerateRecipes(ctx context.Context, cmd inbound.GenerateRecipesCommand) ([]inbound.RecipeDTO, error) {
	if err := s.validate.Struct(cmd); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	excludeEquipment := inventory.CategoryEquipment
	items, err := s.items.List(ctx, outbound.ItemFilter{ExcludeCategory: &excludeEquipment})
	if err != nil {
		return nil, apperrors.NewDatabaseError("list items", err)
	}
	if len(items) == 0 {
		return nil, apperrors.NewValidationError("inventory is empty, nothing to generate from")
	}

	known := make(map[uuid.UUID]*inventory.Item, len(items))
	entries := make([]outbound.InventoryEntry, len(items))
	for i, item := range items {
		known[item.ID()] = item
		entries[i] = outbound.InventoryEntry{
			ItemID:   item.ID(),
			Name:     item.Name(),
			Quantity: item.Quantity(),
			Unit:     item.Unit(),
		}
	}

	preferred, err := s.resolveNames(ctx, cmd.PreferredItemIDs)
	if err != nil {
		return nil, err
	}
	equipment, err := s.resolveNames(ctx, cmd.EquipmentIDs)
	if err != nil {
		return nil, err
	}

	timeout := cmd.Timeout
	if timeout <= 0 {
		timeout = s.aiTimeout
	}

	request := outbound.GenerationRequest{
		Inventory:      entries,
		Servings:       cmd.Servings,
		PreferredNames: preferred,
		Equipment:      equipment,
		SpecialRequest: cmd.SpecialRequest,
	}

	dtos := make([]inbound.RecipeDTO, 0, cmd.Count)
	for i := 0; i < cmd.Count; i++ {
		aiCtx, cancel := context.WithTimeout(ctx, timeout)
		generated, err := s.aiService.GenerateRecipe(aiCtx, request)
		cancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return dtos, apperrors.NewGenerationTimeoutError(timeout)
			}
			return dtos, err
		}

		entity, err := s.validateGenerated(generated, cmd, known, preferred)
		if err != nil {
			return dtos, err
		}

		if err := s.recipes.Create(ctx, entity); err != nil {
			return dtos, apperrors.NewDatabaseError("create generated recipe", err)
		}

		s.logger.Info("Recipe generated",
			zap.String("recipe_id", entity.ID().String()),
			zap.String("name", entity.Name()),
			zap.String("model", entity.AIModel()),
		)

		dtos = append(dtos, recipeToDTO(entity))
	}

	return dtos, nil
}

// validateGenerated enforces the generation contract, rule by rule, in a
// fixed order: ingredient presence, exact servings, preferred-ingredient
// inclusion, then item references and quantities. The first violated rule
// names the error.
func (s *Service) validateGenerated(
	generated *outbound.GeneratedRecipe,
	cmd inbound.GenerateRecipesCommand,
	known map[uuid.UUID]*inventory.Item,
	preferred []string,
) (*recipe.Recipe, error) {
	if len(generated.Ingredients) == 0 {
		return nil, apperrors.NewGenerationError("ingredients",
			"generated recipe has no ingredients")
	}

	if generated.Servings != cmd.Servings {
		return nil, apperrors.NewGenerationError("servings",
			fmt.Sprintf("requested %d servings, got %d", cmd.Servings, generated.Servings))
	}

	if len(preferred) > 0 && !usesAnyPreferred(generated, known, preferred) {
		return nil, apperrors.NewGenerationError("preferred_ingredients",
			fmt.Sprintf("recipe uses none of the preferred ingredients: %s", strings.Join(preferred, ", ")))
	}

	entity, err := recipe.NewRecipe(
		generated.Name,
		generated.Description,
		generated.Instructions,
		generated.CookingTime,
		generated.Servings,
	)
	if err != nil {
		return nil, apperrors.NewGenerationError("recipe_fields", err.Error())
	}
	entity.SetGeneratedBy(generated.Model)

	for i, ing := range generated.Ingredients {
		if _, ok := known[ing.ItemID]; !ok {
			return nil, apperrors.NewGenerationError("item_reference",
				fmt.Sprintf("ingredient %d references unknown item %s", i, ing.ItemID))
		}
		if ing.Quantity < 0 {
			return nil, apperrors.NewGenerationError("quantity",
				fmt.Sprintf("ingredient %d has negative quantity", i))
		}
		if err := entity.AddIngredient(recipe.Ingredient{
			ItemID:   ing.ItemID,
			Quantity: ing.Quantity,
			Unit:     ing.Unit,
		}); err != nil {
			return nil, apperrors.NewGenerationError("quantity", err.Error())
		}
	}

	for _, itemID := range cmd.EquipmentIDs {
		if err := entity.AddEquipment(recipe.Equipment{ItemID: itemID}); err != nil {
			return nil, apperrors.NewGenerationError("equipment", err.Error())
		}
	}

	return entity, nil
}

func usesAnyPreferred(generated *outbound.GeneratedRecipe, known map[uuid.UUID]*inventory.Item, preferred []string) bool {
	names := make(map[string]bool, len(preferred))
	for _, name := range preferred {
		names[strings.ToLower(name)] = true
	}
	for _, ing := range generated.Ingredients {
		item, ok := known[ing.ItemID]
		if ok && names[strings.ToLower(item.Name())] {
			return true
		}
	}
	return false
}

func (s *Service) resolveNames(ctx context.Context, ids []uuid.UUID) ([]string, error) {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		item, err := s.items.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		names = append(names, item.Name())
	}
	return names, nil
}

// recipeToDTO converts a domain recipe to its transport representation
func recipeToDTO(r *recipe.Recipe) inbound.RecipeDTO {
	dto := inbound.RecipeDTO{
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
	}
	for _, ing := range r.Ingredients() {
		dto.Ingredients = append(dto.Ingredients, inbound.RecipeIngredientDTO{
			ItemID:   ing.ItemID,
			Quantity: ing.Quantity,
			Unit:     ing.Unit,
			Item:     itemToDTO(ing.Item),
		})
	}
	for _, eq := range r.Equipment() {
		dto.Equipment = append(dto.Equipment, inbound.RecipeEquipmentDTO{
			ItemID: eq.ItemID,
			Item:   itemToDTO(eq.Item),
		})
	}
	return dto
}

func itemToDTO(item *inventory.Item) *inbound.ItemDTO {
	if item == nil {
		return nil
	}
	return &inbound.ItemDTO{
		ID:         item.ID(),
		Name:       item.Name(),
		Quantity:   item.Quantity(),
		Unit:       item.Unit(),
		Category:   item.Category(),
		ExpiryDate: item.ExpiryDate(),
		CreatedAt:  item.CreatedAt(),
	}
}
