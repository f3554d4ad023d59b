package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/larderapp/v1/internal/ports/inbound"
	apperrors "github.com/larderapp/v1/pkg/errors"
)

// RecipeHandlers handles recipe requests
type RecipeHandlers struct {
	service inbound.RecipeService
	logger  *zap.Logger
}

// NewRecipeHandlers creates a new recipe handlers instance
func NewRecipeHandlers(service inbound.RecipeService, logger *zap.Logger) *RecipeHandlers {
	return &RecipeHandlers{
		service: service,
		logger:  logger,
	}
}

// ListRecipes handles GET /api/v1/recipes
func (h *RecipeHandlers) ListRecipes(w http.ResponseWriter, r *http.Request) {
	query := inbound.RecipesQuery{
		SavedOnly: r.URL.Query().Get("saved") == "true",
	}

	recipes, err := h.service.ListRecipes(r.Context(), query)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: recipes})
}

// CreateRecipe handles POST /api/v1/recipes
func (h *RecipeHandlers) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	var cmd inbound.CreateRecipeCommand
	if err := decodeJSON(r, &cmd); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	recipe, err := h.service.CreateRecipe(r.Context(), cmd)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, APIResponse{Success: true, Data: recipe})
}

// SaveRecipe handles PUT /api/v1/recipes/{id}/save
func (h *RecipeHandlers) SaveRecipe(w http.ResponseWriter, r *http.Request) {
	recipeID, err := parseID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	recipe, err := h.service.SaveRecipe(r.Context(), recipeID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: recipe})
}

// DeleteRecipe handles DELETE /api/v1/recipes/{id}
func (h *RecipeHandlers) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	recipeID, err := parseID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.service.DeleteRecipe(r.Context(), recipeID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: "Recipe deleted"})
}

// ListAvailableRecipes handles GET /api/v1/recipes/available
func (h *RecipeHandlers) ListAvailableRecipes(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.service.ListAvailableRecipes(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: recipes})
}

// CookRecipe handles POST /api/v1/recipes/{id}/cook
func (h *RecipeHandlers) CookRecipe(w http.ResponseWriter, r *http.Request) {
	recipeID, err := parseID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.service.CookRecipe(r.Context(), recipeID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: "Recipe cooked"})
}

// GenerateRecipes handles POST /api/v1/recipes/generate
func (h *RecipeHandlers) GenerateRecipes(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Count            int      `json:"count"`
		Servings         int      `json:"servings"`
		PreferredItemIDs []string `json:"preferredItemIds"`
		EquipmentIDs     []string `json:"equipmentIds"`
		SpecialRequest   string   `json:"specialRequest"`
		TimeoutSeconds   int      `json:"timeoutSeconds"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	cmd := inbound.GenerateRecipesCommand{
		Count:          body.Count,
		Servings:       body.Servings,
		SpecialRequest: body.SpecialRequest,
		Timeout:        time.Duration(body.TimeoutSeconds) * time.Second,
	}
	if cmd.Count == 0 {
		cmd.Count = 1
	}

	var err error
	if cmd.PreferredItemIDs, err = parseUUIDs(body.PreferredItemIDs); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if cmd.EquipmentIDs, err = parseUUIDs(body.EquipmentIDs); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	recipes, err := h.service.GenerateRecipes(r.Context(), cmd)
	if err != nil {
		// Recipes persisted before a mid-run failure stay persisted;
		// report their ids with the error.
		if len(recipes) > 0 {
			ids := make([]string, len(recipes))
			for i, rec := range recipes {
				ids[i] = rec.ID.String()
			}
			err = apperrors.Wrap(err, "recipe generation failed").
				WithMetadata("persisted_recipe_ids", ids)
		}
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, APIResponse{Success: true, Data: recipes})
}
