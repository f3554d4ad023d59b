package recipe

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	domaininv "github.com/larderapp/v1/internal/domain/inventory"
	domainrecipe "github.com/larderapp/v1/internal/domain/recipe"
	"github.com/larderapp/v1/internal/ports/inbound"
	"github.com/larderapp/v1/internal/ports/outbound"
	apperrors "github.com/larderapp/v1/pkg/errors"
	"github.com/larderapp/v1/test/testutils"
)

// RecipeServiceTestSuite provides a test suite for the recipe service
type RecipeServiceTestSuite struct {
	suite.Suite
	recipes *testutils.MockRecipeRepository
	items   *testutils.MockItemRepository
	ai      *testutils.MockAIService
	service inbound.RecipeService
	ctx     context.Context

	flour *domaininv.Item
	eggs  *domaininv.Item
}

func (suite *RecipeServiceTestSuite) SetupTest() {
	suite.recipes = testutils.NewMockRecipeRepository()
	suite.items = testutils.NewMockItemRepository()
	suite.ai = testutils.NewMockAIService()
	suite.service = NewService(suite.recipes, suite.items, suite.ai, 5*time.Second, zap.NewNop())
	suite.ctx = context.Background()

	suite.flour, _ = domaininv.NewItem("Flour", 500, "g", nil, nil)
	suite.eggs, _ = domaininv.NewItem("Eggs", 6, "pieces", nil, nil)
}

// expectInventory wires the equipment-excluding inventory listing every
// generation and availability path starts from.
func (suite *RecipeServiceTestSuite) expectInventory(items ...*domaininv.Item) {
	equipment := domaininv.CategoryEquipment
	suite.items.On("List", mock.Anything, outbound.ItemFilter{ExcludeCategory: &equipment}).
		Return(items, nil)
}

func (suite *RecipeServiceTestSuite) generationRule(err error) string {
	appErr, ok := err.(*apperrors.AppError)
	require.True(suite.T(), ok)
	require.Equal(suite.T(), apperrors.CodeGenerationFailed, appErr.Code)
	rule, _ := appErr.Metadata["rule"].(string)
	return rule
}

func (suite *RecipeServiceTestSuite) savedRecipe(requirements map[uuid.UUID]float64) *domainrecipe.Recipe {
	r, err := domainrecipe.NewRecipe("Pancakes", "Fluffy", "Mix and fry", 20, 2)
	require.NoError(suite.T(), err)
	for itemID, quantity := range requirements {
		require.NoError(suite.T(), r.AddIngredient(domainrecipe.Ingredient{
			ItemID:   itemID,
			Quantity: quantity,
			Unit:     "g",
		}))
	}
	r.MarkSaved()
	return r
}

func (suite *RecipeServiceTestSuite) TestCreateRecipe() {
	suite.Run("ValidCommand_ShouldPersist", func() {
		suite.SetupTest()
		suite.items.On("FindByID", mock.Anything, suite.flour.ID()).Return(suite.flour, nil)
		suite.recipes.On("Create", mock.Anything, mock.Anything).Return(nil)

		dto, err := suite.service.CreateRecipe(suite.ctx, inbound.CreateRecipeCommand{
			Name:        "Flatbread",
			CookingTime: 15,
			Servings:    2,
			Ingredients: []inbound.RecipeIngredientCommand{
				{ItemID: suite.flour.ID(), Quantity: 300, Unit: "g"},
			},
		})

		require.NoError(suite.T(), err)
		assert.Equal(suite.T(), "Flatbread", dto.Name)
		assert.False(suite.T(), dto.Saved)
		require.Len(suite.T(), dto.Ingredients, 1)
		assert.Equal(suite.T(), suite.flour.ID(), dto.Ingredients[0].ItemID)
		suite.recipes.AssertExpectations(suite.T())
	})

	suite.Run("UnknownIngredientItem_ShouldFail", func() {
		suite.SetupTest()
		missing := uuid.New()
		suite.items.On("FindByID", mock.Anything, missing).
			Return(nil, apperrors.NewItemNotFoundError(missing.String()))

		_, err := suite.service.CreateRecipe(suite.ctx, inbound.CreateRecipeCommand{
			Name:     "Flatbread",
			Servings: 2,
			Ingredients: []inbound.RecipeIngredientCommand{
				{ItemID: missing, Quantity: 300, Unit: "g"},
			},
		})

		assert.Equal(suite.T(), apperrors.CodeValidationFailed, apperrors.GetCode(err))
		suite.recipes.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
	})

	suite.Run("UnknownEquipmentItem_ShouldFailValidation", func() {
		suite.SetupTest()
		missing := uuid.New()
		suite.items.On("FindByID", mock.Anything, suite.flour.ID()).Return(suite.flour, nil)
		suite.items.On("FindByID", mock.Anything, missing).
			Return(nil, apperrors.NewItemNotFoundError(missing.String()))

		_, err := suite.service.CreateRecipe(suite.ctx, inbound.CreateRecipeCommand{
			Name:     "Flatbread",
			Servings: 2,
			Ingredients: []inbound.RecipeIngredientCommand{
				{ItemID: suite.flour.ID(), Quantity: 300, Unit: "g"},
			},
			Equipment: []uuid.UUID{missing},
		})

		assert.Equal(suite.T(), apperrors.CodeValidationFailed, apperrors.GetCode(err))
		suite.recipes.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
	})

	suite.Run("NoIngredients_ShouldFailValidation", func() {
		suite.SetupTest()

		_, err := suite.service.CreateRecipe(suite.ctx, inbound.CreateRecipeCommand{
			Name:     "Flatbread",
			Servings: 2,
		})

		assert.Equal(suite.T(), apperrors.CodeValidationFailed, apperrors.GetCode(err))
	})
}

func (suite *RecipeServiceTestSuite) TestSaveRecipe() {
	suite.Run("ShouldMarkSavedAndPersist", func() {
		suite.SetupTest()
		r, _ := domainrecipe.NewRecipe("Pancakes", "", "", 20, 2)
		_ = r.AddIngredient(domainrecipe.Ingredient{ItemID: suite.flour.ID(), Quantity: 200, Unit: "g"})
		suite.recipes.On("FindByID", mock.Anything, r.ID()).Return(r, nil)
		suite.recipes.On("Update", mock.Anything, r).Return(nil)

		dto, err := suite.service.SaveRecipe(suite.ctx, r.ID())

		require.NoError(suite.T(), err)
		assert.True(suite.T(), dto.Saved)
		suite.recipes.AssertExpectations(suite.T())
	})

	suite.Run("MissingRecipe_ShouldFail", func() {
		suite.SetupTest()
		recipeID := uuid.New()
		suite.recipes.On("FindByID", mock.Anything, recipeID).
			Return(nil, apperrors.NewRecipeNotFoundError(recipeID.String()))

		_, err := suite.service.SaveRecipe(suite.ctx, recipeID)

		assert.Equal(suite.T(), apperrors.CodeRecipeNotFound, apperrors.GetCode(err))
	})
}

func (suite *RecipeServiceTestSuite) TestListAvailableRecipes() {
	suite.Run("ShouldIncludeOnlyFullyCoveredRecipes", func() {
		suite.SetupTest()
		cookable := suite.savedRecipe(map[uuid.UUID]float64{suite.flour.ID(): 300})
		short := suite.savedRecipe(map[uuid.UUID]float64{
			suite.flour.ID(): 100,
			suite.eggs.ID():  12,
		})
		suite.recipes.On("List", mock.Anything, outbound.RecipeFilter{SavedOnly: true}).
			Return([]*domainrecipe.Recipe{cookable, short}, nil)
		suite.expectInventory(suite.flour, suite.eggs)

		summaries, err := suite.service.ListAvailableRecipes(suite.ctx)

		require.NoError(suite.T(), err)
		require.Len(suite.T(), summaries, 1)
		assert.Equal(suite.T(), cookable.ID(), summaries[0].ID)
	})

	suite.Run("IngredientAbsentFromInventory_ShouldExclude", func() {
		suite.SetupTest()
		needsEggs := suite.savedRecipe(map[uuid.UUID]float64{suite.eggs.ID(): 2})
		suite.recipes.On("List", mock.Anything, outbound.RecipeFilter{SavedOnly: true}).
			Return([]*domainrecipe.Recipe{needsEggs}, nil)
		suite.expectInventory(suite.flour)

		summaries, err := suite.service.ListAvailableRecipes(suite.ctx)

		require.NoError(suite.T(), err)
		assert.Empty(suite.T(), summaries)
	})
}

func (suite *RecipeServiceTestSuite) TestCookRecipe() {
	suite.Run("ShouldDelegateToRepository", func() {
		suite.SetupTest()
		recipeID := uuid.New()
		suite.recipes.On("Cook", mock.Anything, recipeID).Return(nil)

		err := suite.service.CookRecipe(suite.ctx, recipeID)

		assert.NoError(suite.T(), err)
		suite.recipes.AssertExpectations(suite.T())
	})

	suite.Run("Shortfall_ShouldPropagate", func() {
		suite.SetupTest()
		recipeID := uuid.New()
		suite.recipes.On("Cook", mock.Anything, recipeID).
			Return(apperrors.NewInsufficientInventoryError([]apperrors.Shortfall{
				{ItemName: "Flour", Available: 100, Required: 300},
			}))

		err := suite.service.CookRecipe(suite.ctx, recipeID)

		assert.Equal(suite.T(), apperrors.CodeInsufficientInventory, apperrors.GetCode(err))
	})
}

func (suite *RecipeServiceTestSuite) TestGenerateRecipes() {
	validPayload := func(s *RecipeServiceTestSuite) *outbound.GeneratedRecipe {
		return &outbound.GeneratedRecipe{
			Name:         "Simple Pancakes",
			Description:  "Weeknight pancakes",
			Instructions: "Whisk, rest, fry",
			CookingTime:  20,
			Servings:     2,
			Model:        "gpt-4",
			Ingredients: []outbound.GeneratedIngredient{
				{ItemID: s.flour.ID(), Quantity: 250, Unit: "g"},
			},
		}
	}

	suite.Run("ValidResponse_ShouldPersist", func() {
		suite.SetupTest()
		suite.expectInventory(suite.flour, suite.eggs)
		suite.ai.On("GenerateRecipe", mock.Anything, mock.Anything).Return(validPayload(suite), nil)
		suite.recipes.On("Create", mock.Anything, mock.Anything).Return(nil)

		dtos, err := suite.service.GenerateRecipes(suite.ctx, inbound.GenerateRecipesCommand{
			Count:    1,
			Servings: 2,
		})

		require.NoError(suite.T(), err)
		require.Len(suite.T(), dtos, 1)
		assert.True(suite.T(), dtos[0].AIGenerated)
		assert.Equal(suite.T(), "gpt-4", dtos[0].AIModel)
		assert.False(suite.T(), dtos[0].Saved)
	})

	suite.Run("EmptyInventory_ShouldFailUpFront", func() {
		suite.SetupTest()
		suite.expectInventory()

		_, err := suite.service.GenerateRecipes(suite.ctx, inbound.GenerateRecipesCommand{
			Count:    1,
			Servings: 2,
		})

		assert.Equal(suite.T(), apperrors.CodeValidationFailed, apperrors.GetCode(err))
		suite.ai.AssertNotCalled(suite.T(), "GenerateRecipe", mock.Anything, mock.Anything)
	})

	suite.Run("NoIngredients_ShouldFailIngredientsRule", func() {
		suite.SetupTest()
		suite.expectInventory(suite.flour)
		payload := validPayload(suite)
		payload.Ingredients = nil
		suite.ai.On("GenerateRecipe", mock.Anything, mock.Anything).Return(payload, nil)

		_, err := suite.service.GenerateRecipes(suite.ctx, inbound.GenerateRecipesCommand{
			Count:    1,
			Servings: 2,
		})

		assert.Equal(suite.T(), "ingredients", suite.generationRule(err))
		suite.recipes.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
	})

	suite.Run("ServingsMismatch_ShouldFailServingsRule", func() {
		suite.SetupTest()
		suite.expectInventory(suite.flour)
		payload := validPayload(suite)
		payload.Servings = 4
		suite.ai.On("GenerateRecipe", mock.Anything, mock.Anything).Return(payload, nil)

		_, err := suite.service.GenerateRecipes(suite.ctx, inbound.GenerateRecipesCommand{
			Count:    1,
			Servings: 2,
		})

		assert.Equal(suite.T(), "servings", suite.generationRule(err))
	})

	suite.Run("PreferredIngredientUnused_ShouldFailPreferredRule", func() {
		suite.SetupTest()
		suite.expectInventory(suite.flour, suite.eggs)
		suite.items.On("FindByID", mock.Anything, suite.eggs.ID()).Return(suite.eggs, nil)
		// The payload only uses flour while eggs were requested.
		suite.ai.On("GenerateRecipe", mock.Anything, mock.Anything).Return(validPayload(suite), nil)

		_, err := suite.service.GenerateRecipes(suite.ctx, inbound.GenerateRecipesCommand{
			Count:            1,
			Servings:         2,
			PreferredItemIDs: []uuid.UUID{suite.eggs.ID()},
		})

		assert.Equal(suite.T(), "preferred_ingredients", suite.generationRule(err))
	})

	suite.Run("UnknownItemReference_ShouldFailReferenceRule", func() {
		suite.SetupTest()
		suite.expectInventory(suite.flour)
		payload := validPayload(suite)
		payload.Ingredients = append(payload.Ingredients, outbound.GeneratedIngredient{
			ItemID: uuid.New(), Quantity: 1, Unit: "piece",
		})
		suite.ai.On("GenerateRecipe", mock.Anything, mock.Anything).Return(payload, nil)

		_, err := suite.service.GenerateRecipes(suite.ctx, inbound.GenerateRecipesCommand{
			Count:    1,
			Servings: 2,
		})

		assert.Equal(suite.T(), "item_reference", suite.generationRule(err))
	})

	suite.Run("NegativeQuantity_ShouldFailQuantityRule", func() {
		suite.SetupTest()
		suite.expectInventory(suite.flour)
		payload := validPayload(suite)
		payload.Ingredients[0].Quantity = -10
		suite.ai.On("GenerateRecipe", mock.Anything, mock.Anything).Return(payload, nil)

		_, err := suite.service.GenerateRecipes(suite.ctx, inbound.GenerateRecipesCommand{
			Count:    1,
			Servings: 2,
		})

		assert.Equal(suite.T(), "quantity", suite.generationRule(err))
	})

	suite.Run("FailureMidRun_ShouldKeepEarlierRecipes", func() {
		suite.SetupTest()
		suite.expectInventory(suite.flour)
		bad := validPayload(suite)
		bad.Servings = 6
		suite.ai.On("GenerateRecipe", mock.Anything, mock.Anything).Return(validPayload(suite), nil).Once()
		suite.ai.On("GenerateRecipe", mock.Anything, mock.Anything).Return(bad, nil).Once()
		suite.recipes.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

		dtos, err := suite.service.GenerateRecipes(suite.ctx, inbound.GenerateRecipesCommand{
			Count:    2,
			Servings: 2,
		})

		assert.Equal(suite.T(), "servings", suite.generationRule(err))
		// The first recipe was already persisted and stays reported.
		require.Len(suite.T(), dtos, 1)
		suite.recipes.AssertExpectations(suite.T())
	})

	suite.Run("CountOutOfRange_ShouldFailValidation", func() {
		suite.SetupTest()

		_, err := suite.service.GenerateRecipes(suite.ctx, inbound.GenerateRecipesCommand{
			Count:    11,
			Servings: 2,
		})

		assert.Equal(suite.T(), apperrors.CodeValidationFailed, apperrors.GetCode(err))
	})
}

func TestRecipeServiceTestSuite(t *testing.T) {
	suite.Run(t, new(RecipeServiceTestSuite))
}
