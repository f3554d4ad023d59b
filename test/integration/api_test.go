package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	inventoryapp "github.com/larderapp/v1/internal/application/inventory"
	recipeapp "github.com/larderapp/v1/internal/application/recipe"
	gormrepo "github.com/larderapp/v1/internal/infrastructure/persistence/gorm"
	"github.com/larderapp/v1/internal/infrastructure/http/handlers"
	"github.com/larderapp/v1/internal/ports/inbound"
	"github.com/larderapp/v1/internal/ports/outbound"
	apperrors "github.com/larderapp/v1/pkg/errors"
	"github.com/larderapp/v1/test/testutils"
)

// envelope mirrors the API response wrapper with the payload kept raw so
// each test can decode it into the expected shape
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

type errorEnvelope struct {
	Error struct {
		Code     apperrors.ErrorCode    `json:"code"`
		Message  string                 `json:"message"`
		Metadata map[string]interface{} `json:"metadata"`
	} `json:"error"`
}

// APITestSuite drives the HTTP surface end to end: real handlers, real
// application services, real repositories on an in-memory SQLite
// database, with only the generation service mocked out.
type APITestSuite struct {
	suite.Suite
	router *chi.Mux
	ai     *testutils.MockAIService
}

func (suite *APITestSuite) SetupTest() {
	db := testutils.NewTestDatabase(suite.T())
	logger := zap.NewNop()
	suite.ai = testutils.NewMockAIService()

	items := gormrepo.NewItemRepository(db)
	recipes := gormrepo.NewRecipeRepository(db)
	inventoryService := inventoryapp.NewService(items, suite.ai, 5*time.Second, logger)
	recipeService := recipeapp.NewService(recipes, items, suite.ai, 5*time.Second, logger)

	itemHandlers := handlers.NewItemHandlers(inventoryService, logger)
	recipeHandlers := handlers.NewRecipeHandlers(recipeService, logger)

	suite.router = chi.NewRouter()
	suite.router.Route("/api/v1", func(r chi.Router) {
		r.Route("/items", func(r chi.Router) {
			r.Get("/", itemHandlers.ListItems)
			r.Post("/", itemHandlers.CreateItems)
			r.Post("/upsert", itemHandlers.UpsertItem)
			r.Post("/extract", itemHandlers.ExtractItems)
			r.Post("/categorize", itemHandlers.CategorizeItems)
			r.Put("/{id}", itemHandlers.UpdateItem)
			r.Patch("/{id}/quantity", itemHandlers.AdjustQuantity)
			r.Delete("/{id}", itemHandlers.DeleteItem)
		})
		r.Route("/equipment", func(r chi.Router) {
			r.Post("/initialize", itemHandlers.InitializeEquipment)
		})
		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", recipeHandlers.ListRecipes)
			r.Post("/", recipeHandlers.CreateRecipe)
			r.Get("/available", recipeHandlers.ListAvailableRecipes)
			r.Post("/generate", recipeHandlers.GenerateRecipes)
			r.Put("/{id}/save", recipeHandlers.SaveRecipe)
			r.Post("/{id}/cook", recipeHandlers.CookRecipe)
			r.Delete("/{id}", recipeHandlers.DeleteRecipe)
		})
	})
}

func (suite *APITestSuite) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(suite.T(), json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	suite.router.ServeHTTP(rec, req.WithContext(context.Background()))
	return rec
}

func (suite *APITestSuite) decode(rec *httptest.ResponseRecorder, out interface{}) {
	var env envelope
	require.NoError(suite.T(), json.Unmarshal(rec.Body.Bytes(), &env))
	require.True(suite.T(), env.Success)
	if out != nil {
		require.NoError(suite.T(), json.Unmarshal(env.Data, out))
	}
}

func (suite *APITestSuite) errorCode(rec *httptest.ResponseRecorder) apperrors.ErrorCode {
	var env errorEnvelope
	require.NoError(suite.T(), json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Error.Code
}

func (suite *APITestSuite) createItem(name string, quantity float64, unit string) inbound.ItemDTO {
	rec := suite.do(http.MethodPost, "/api/v1/items", inbound.CreateItemCommand{
		Name:     name,
		Quantity: quantity,
		Unit:     unit,
	})
	require.Equal(suite.T(), http.StatusCreated, rec.Code)
	var item inbound.ItemDTO
	suite.decode(rec, &item)
	return item
}

func (suite *APITestSuite) createRecipe(name string, servings int, ingredients []inbound.RecipeIngredientCommand) inbound.RecipeDTO {
	rec := suite.do(http.MethodPost, "/api/v1/recipes", inbound.CreateRecipeCommand{
		Name:        name,
		CookingTime: 25,
		Servings:    servings,
		Ingredients: ingredients,
	})
	require.Equal(suite.T(), http.StatusCreated, rec.Code)
	var recipe inbound.RecipeDTO
	suite.decode(rec, &recipe)
	return recipe
}

func (suite *APITestSuite) TestItemLifecycle() {
	item := suite.createItem("Flour", 500, "g")

	// Upsert merges into the existing row instead of duplicating it.
	rec := suite.do(http.MethodPost, "/api/v1/items/upsert", inbound.CreateItemCommand{
		Name:     "flour",
		Quantity: 250,
		Unit:     "g",
	})
	require.Equal(suite.T(), http.StatusOK, rec.Code)
	var merged inbound.ItemDTO
	suite.decode(rec, &merged)
	assert.Equal(suite.T(), item.ID, merged.ID)
	assert.Equal(suite.T(), 750.0, merged.Quantity)

	rec = suite.do(http.MethodPatch, fmt.Sprintf("/api/v1/items/%s/quantity", item.ID), map[string]float64{"delta": -150})
	require.Equal(suite.T(), http.StatusOK, rec.Code)
	var adjusted inbound.ItemDTO
	suite.decode(rec, &adjusted)
	assert.Equal(suite.T(), 600.0, adjusted.Quantity)

	rec = suite.do(http.MethodPatch, fmt.Sprintf("/api/v1/items/%s/quantity", item.ID), map[string]float64{"delta": -9999})
	assert.Equal(suite.T(), http.StatusConflict, rec.Code)
	assert.Equal(suite.T(), apperrors.CodeInsufficientInventory, suite.errorCode(rec))

	rec = suite.do(http.MethodDelete, fmt.Sprintf("/api/v1/items/%s", item.ID), nil)
	require.Equal(suite.T(), http.StatusOK, rec.Code)

	rec = suite.do(http.MethodDelete, fmt.Sprintf("/api/v1/items/%s", item.ID), nil)
	assert.Equal(suite.T(), http.StatusNotFound, rec.Code)

	rec = suite.do(http.MethodDelete, fmt.Sprintf("/api/v1/items/%s?idempotent=true", item.ID), nil)
	assert.Equal(suite.T(), http.StatusOK, rec.Code)
}

func (suite *APITestSuite) TestCreateItems_ArrayBody() {
	rec := suite.do(http.MethodPost, "/api/v1/items", []inbound.CreateItemCommand{
		{Name: "Milk", Quantity: 1, Unit: "l"},
		{Name: "Butter", Quantity: 250, Unit: "g"},
	})
	require.Equal(suite.T(), http.StatusCreated, rec.Code)
	var items []inbound.ItemDTO
	suite.decode(rec, &items)
	assert.Len(suite.T(), items, 2)
}

func (suite *APITestSuite) TestCookFlow() {
	flour := suite.createItem("Flour", 500, "g")
	eggs := suite.createItem("Eggs", 6, "pieces")
	recipe := suite.createRecipe("Pancakes", 2, []inbound.RecipeIngredientCommand{
		{ItemID: flour.ID, Quantity: 300, Unit: "g"},
		{ItemID: eggs.ID, Quantity: 2, Unit: "pieces"},
	})

	rec := suite.do(http.MethodPut, fmt.Sprintf("/api/v1/recipes/%s/save", recipe.ID), nil)
	require.Equal(suite.T(), http.StatusOK, rec.Code)

	rec = suite.do(http.MethodGet, "/api/v1/recipes/available", nil)
	require.Equal(suite.T(), http.StatusOK, rec.Code)
	var available []inbound.RecipeSummaryDTO
	suite.decode(rec, &available)
	require.Len(suite.T(), available, 1)
	assert.Equal(suite.T(), recipe.ID, available[0].ID)

	rec = suite.do(http.MethodPost, fmt.Sprintf("/api/v1/recipes/%s/cook", recipe.ID), nil)
	require.Equal(suite.T(), http.StatusOK, rec.Code)

	// Ingredients were deducted and the recipe retired.
	rec = suite.do(http.MethodGet, "/api/v1/items", nil)
	var items []inbound.ItemDTO
	suite.decode(rec, &items)
	quantities := make(map[uuid.UUID]float64, len(items))
	for _, item := range items {
		quantities[item.ID] = item.Quantity
	}
	assert.Equal(suite.T(), 200.0, quantities[flour.ID])
	assert.Equal(suite.T(), 4.0, quantities[eggs.ID])

	rec = suite.do(http.MethodGet, "/api/v1/recipes/available", nil)
	suite.decode(rec, &available)
	assert.Empty(suite.T(), available)

	rec = suite.do(http.MethodPost, fmt.Sprintf("/api/v1/recipes/%s/cook", recipe.ID), nil)
	assert.Equal(suite.T(), http.StatusNotFound, rec.Code)
	assert.Equal(suite.T(), apperrors.CodeRecipeNotFound, suite.errorCode(rec))
}

func (suite *APITestSuite) TestCook_Shortfall() {
	flour := suite.createItem("Flour", 100, "g")
	recipe := suite.createRecipe("Bread", 4, []inbound.RecipeIngredientCommand{
		{ItemID: flour.ID, Quantity: 900, Unit: "g"},
	})

	rec := suite.do(http.MethodPost, fmt.Sprintf("/api/v1/recipes/%s/cook", recipe.ID), nil)

	assert.Equal(suite.T(), http.StatusConflict, rec.Code)
	assert.Equal(suite.T(), apperrors.CodeInsufficientInventory, suite.errorCode(rec))

	// Nothing was deducted and the recipe survived.
	rec = suite.do(http.MethodGet, "/api/v1/recipes", nil)
	var recipes []inbound.RecipeDTO
	suite.decode(rec, &recipes)
	assert.Len(suite.T(), recipes, 1)
}

func (suite *APITestSuite) TestGenerateRecipes() {
	flour := suite.createItem("Flour", 500, "g")
	suite.ai.On("GenerateRecipe", mock.Anything, mock.Anything).
		Return(&outbound.GeneratedRecipe{
			Name:         "Flour Tortillas",
			Description:  "Soft tortillas",
			Instructions: "Knead, rest, roll, cook",
			CookingTime:  30,
			Servings:     2,
			Model:        "gpt-4",
			Ingredients: []outbound.GeneratedIngredient{
				{ItemID: flour.ID, Quantity: 300, Unit: "g"},
			},
		}, nil)

	rec := suite.do(http.MethodPost, "/api/v1/recipes/generate", map[string]interface{}{
		"servings": 2,
	})

	require.Equal(suite.T(), http.StatusCreated, rec.Code)
	var recipes []inbound.RecipeDTO
	suite.decode(rec, &recipes)
	require.Len(suite.T(), recipes, 1)
	assert.True(suite.T(), recipes[0].AIGenerated)
	assert.False(suite.T(), recipes[0].Saved)

	// The generated recipe is listed but not yet available for cooking
	// until saved.
	rec = suite.do(http.MethodGet, "/api/v1/recipes/available", nil)
	var available []inbound.RecipeSummaryDTO
	suite.decode(rec, &available)
	assert.Empty(suite.T(), available)
}

func (suite *APITestSuite) TestGenerateRecipes_PartialFailure() {
	flour := suite.createItem("Flour", 500, "g")
	good := &outbound.GeneratedRecipe{
		Name:         "Flour Tortillas",
		Description:  "Soft tortillas",
		Instructions: "Knead, rest, roll, cook",
		CookingTime:  30,
		Servings:     2,
		Model:        "gpt-4",
		Ingredients: []outbound.GeneratedIngredient{
			{ItemID: flour.ID, Quantity: 300, Unit: "g"},
		},
	}
	bad := &outbound.GeneratedRecipe{}
	*bad = *good
	bad.Servings = 5
	suite.ai.On("GenerateRecipe", mock.Anything, mock.Anything).Return(good, nil).Once()
	suite.ai.On("GenerateRecipe", mock.Anything, mock.Anything).Return(bad, nil).Once()

	rec := suite.do(http.MethodPost, "/api/v1/recipes/generate", map[string]interface{}{
		"count":    2,
		"servings": 2,
	})

	require.Equal(suite.T(), http.StatusBadGateway, rec.Code)
	var env errorEnvelope
	require.NoError(suite.T(), json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(suite.T(), apperrors.CodeGenerationFailed, env.Error.Code)

	// The first recipe was persisted before the failure and its id rides
	// along in the error metadata.
	persisted, ok := env.Error.Metadata["persisted_recipe_ids"].([]interface{})
	require.True(suite.T(), ok)
	require.Len(suite.T(), persisted, 1)

	rec = suite.do(http.MethodGet, "/api/v1/recipes", nil)
	var recipes []inbound.RecipeDTO
	suite.decode(rec, &recipes)
	require.Len(suite.T(), recipes, 1)
	assert.Equal(suite.T(), recipes[0].ID.String(), persisted[0])
}

func (suite *APITestSuite) TestGenerateRecipes_EmptyInventory() {
	rec := suite.do(http.MethodPost, "/api/v1/recipes/generate", map[string]interface{}{
		"servings": 2,
	})

	assert.Equal(suite.T(), http.StatusBadRequest, rec.Code)
	assert.Equal(suite.T(), apperrors.CodeValidationFailed, suite.errorCode(rec))
}

func (suite *APITestSuite) TestInvalidID() {
	rec := suite.do(http.MethodPost, "/api/v1/recipes/not-a-uuid/cook", nil)

	assert.Equal(suite.T(), http.StatusBadRequest, rec.Code)
	assert.Equal(suite.T(), apperrors.CodeBadRequest, suite.errorCode(rec))
}

func TestAPITestSuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}
