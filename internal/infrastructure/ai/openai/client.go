// Package openai provides recipe generation, vision extraction, and item
// categorization through an OpenAI-compatible chat completion API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/larderapp/v1/internal/infrastructure/config"
	"github.com/larderapp/v1/internal/ports/outbound"
	apperrors "github.com/larderapp/v1/pkg/errors"
)

// Client implements the AIService interface using the OpenAI API
type Client struct {
	apiKey      string
	baseURL     string
	model       string
	visionModel string
	maxTokens   int
	temperature float64
	client      *http.Client
	logger      *zap.Logger
}

// NewClient creates a new OpenAI client. The HTTP client carries no
// timeout of its own; every call is bounded by the caller's context.
func NewClient(cfg config.AIConfig, logger *zap.Logger) outbound.AIService {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	return &Client{
		apiKey:      cfg.APIKey,
		baseURL:     baseURL,
		model:       cfg.Model,
		visionModel: cfg.VisionModel,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		client:      &http.Client{},
		logger:      logger.Named("openai"),
	}
}

// OpenAI API structures
type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type Message struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

// ContentPart is one element of a multimodal message
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

type ChatCompletionResponse struct {
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

type Choice struct {
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	FinishReason string `json:"finish_reason"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// recipePayload is the JSON contract the generation prompt demands
type recipePayload struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Instructions string `json:"instructions"`
	CookingTime  int    `json:"cookingTime"`
	Servings     int    `json:"servings"`
	Ingredients  []struct {
		ItemID   string  `json:"itemId"`
		Quantity float64 `json:"quantity"`
		Unit     string  `json:"unit"`
	} `json:"ingredients"`
}

// itemPayload is one entry of an extraction or equipment response
type itemPayload struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Category string  `json:"category,omitempty"`
}

// categoryPayload is one entry of a categorization response
type categoryPayload struct {
	ItemID   string `json:"itemId"`
	Category string `json:"category"`
}

// GenerateRecipe asks the model for one recipe built from the supplied
// inventory. The payload comes back unvalidated; the caller owns the
// contract checks.
func (c *Client) GenerateRecipe(ctx context.Context, req outbound.GenerationRequest) (*outbound.GeneratedRecipe, error) {
	systemPrompt := `You are an expert chef. Create a recipe using only the inventory items provided.

CRITICAL: Respond with ONLY a valid JSON object in this exact format. No explanatory text, no markdown.

{
  "name": "Recipe Name",
  "description": "Brief description of the dish",
  "instructions": "Step-by-step cooking instructions",
  "cookingTime": 30,
  "servings": 4,
  "ingredients": [
    {
      "itemId": "the exact id from the inventory list",
      "quantity": 1.5,
      "unit": "cups"
    }
  ]
}

Every itemId MUST be copied verbatim from the inventory list. Never invent ids. Never use more of an item than the inventory holds.`

	userPrompt := c.buildGenerationPrompt(req)

	response, err := c.callChat(ctx, c.model, []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPrompt},
	})
	if err != nil {
		return nil, err
	}

	var payload recipePayload
	if err := parseJSONObject(response, &payload); err != nil {
		c.logger.Error("Failed to parse recipe response", zap.Error(err))
		return nil, apperrors.NewGenerationError("parse", err.Error())
	}

	generated := &outbound.GeneratedRecipe{
		Name:         payload.Name,
		Description:  payload.Description,
		Instructions: payload.Instructions,
		CookingTime:  payload.CookingTime,
		Servings:     payload.Servings,
		Model:        c.model,
	}
	for _, ing := range payload.Ingredients {
		itemID, err := uuid.Parse(ing.ItemID)
		if err != nil {
			return nil, apperrors.NewGenerationError("item_reference",
				fmt.Sprintf("ingredient item id %q is not a valid id", ing.ItemID))
		}
		generated.Ingredients = append(generated.Ingredients, outbound.GeneratedIngredient{
			ItemID:   itemID,
			Quantity: ing.Quantity,
			Unit:     ing.Unit,
		})
	}

	return generated, nil
}

// ExtractItems identifies grocery items visible in an image
func (c *Client) ExtractItems(ctx context.Context, imageURL string) ([]outbound.ExtractedItem, error) {
	prompt := `Identify every grocery item visible in this image.

CRITICAL: Respond with ONLY a valid JSON array in this exact format. No explanatory text, no markdown.

[
  {
    "name": "item name",
    "quantity": 2,
    "unit": "pieces",
    "category": "Produce"
  }
]

Categories must be one of: Produce, Meat & Seafood, Dairy & Eggs, Pantry, Spices & Seasonings, Beverages, Other. Omit the category if unsure.`

	response, err := c.callChat(ctx, c.visionModel, []Message{
		{Role: "user", Content: []ContentPart{
			{Type: "text", Text: prompt},
			{Type: "image_url", ImageURL: &ImageURL{URL: imageURL}},
		}},
	})
	if err != nil {
		return nil, err
	}

	var payload []itemPayload
	if err := parseJSONArray(response, &payload); err != nil {
		c.logger.Error("Failed to parse extraction response", zap.Error(err))
		return nil, apperrors.NewGenerationError("parse", err.Error())
	}

	items := make([]outbound.ExtractedItem, len(payload))
	for i, entry := range payload {
		items[i] = outbound.ExtractedItem(entry)
	}
	return items, nil
}

// CategorizeItems assigns a category to each of the given items
func (c *Client) CategorizeItems(ctx context.Context, entries []outbound.CategorizeEntry) ([]outbound.CategorizedEntry, error) {
	var sb strings.Builder
	sb.WriteString(`Assign a category to each grocery item below.

CRITICAL: Respond with ONLY a valid JSON array in this exact format. No explanatory text, no markdown.

[
  {"itemId": "the exact id given", "category": "Produce"}
]

Categories must be one of: Produce, Meat & Seafood, Dairy & Eggs, Pantry, Spices & Seasonings, Beverages, Other.

Items:
`)
	for _, entry := range entries {
		fmt.Fprintf(&sb, "- id: %s, name: %s\n", entry.ItemID, entry.Name)
	}

	response, err := c.callChat(ctx, c.model, []Message{
		{Role: "user", Content: sb.String()},
	})
	if err != nil {
		return nil, err
	}

	var payload []categoryPayload
	if err := parseJSONArray(response, &payload); err != nil {
		c.logger.Error("Failed to parse categorization response", zap.Error(err))
		return nil, apperrors.NewGenerationError("parse", err.Error())
	}

	results := make([]outbound.CategorizedEntry, 0, len(payload))
	for _, entry := range payload {
		itemID, err := uuid.Parse(entry.ItemID)
		if err != nil {
			continue
		}
		results = append(results, outbound.CategorizedEntry{
			ItemID:   itemID,
			Category: entry.Category,
		})
	}
	return results, nil
}

// GenerateEquipmentList produces the kitchen equipment set for a given
// kitchen level (basic, average, or fancy)
func (c *Client) GenerateEquipmentList(ctx context.Context, level, additionalInfo string) ([]outbound.ExtractedItem, error) {
	prompt := fmt.Sprintf(`List the cooking equipment found in a %s home kitchen.

CRITICAL: Respond with ONLY a valid JSON array in this exact format. No explanatory text, no markdown.

[
  {"name": "Chef's Knife", "quantity": 1, "unit": "piece"}
]

A basic kitchen has only the essentials, an average kitchen has the common extras, and a fancy kitchen is fully equipped.`, level)
	if additionalInfo != "" {
		prompt += fmt.Sprintf("\n\nAdditional context about this kitchen: %s", additionalInfo)
	}

	response, err := c.callChat(ctx, c.model, []Message{
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return nil, err
	}

	var payload []itemPayload
	if err := parseJSONArray(response, &payload); err != nil {
		c.logger.Error("Failed to parse equipment response", zap.Error(err))
		return nil, apperrors.NewGenerationError("parse", err.Error())
	}

	items := make([]outbound.ExtractedItem, len(payload))
	for i, entry := range payload {
		items[i] = outbound.ExtractedItem(entry)
	}
	return items, nil
}

// buildGenerationPrompt renders the inventory and caller constraints into
// the user prompt
func (c *Client) buildGenerationPrompt(req outbound.GenerationRequest) string {
	var sb strings.Builder
	sb.WriteString("Available inventory:\n")
	for _, entry := range req.Inventory {
		fmt.Fprintf(&sb, "- id: %s, name: %s, available: %g %s\n",
			entry.ItemID, entry.Name, entry.Quantity, entry.Unit)
	}

	fmt.Fprintf(&sb, "\nThe recipe must serve exactly %d.\n", req.Servings)

	if len(req.PreferredNames) > 0 {
		fmt.Fprintf(&sb, "The recipe must use at least one of: %s.\n",
			strings.Join(req.PreferredNames, ", "))
	}
	if len(req.Equipment) > 0 {
		fmt.Fprintf(&sb, "Available equipment: %s.\n", strings.Join(req.Equipment, ", "))
	}
	if req.SpecialRequest != "" {
		fmt.Fprintf(&sb, "Special request: %s\n", req.SpecialRequest)
	}

	return sb.String()
}

// callChat makes a chat completion call and returns the raw message text
func (c *Client) callChat(ctx context.Context, model string, messages []Message) (string, error) {
	reqBody := ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", apperrors.NewExternalServiceError("openai", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", apperrors.NewExternalServiceError("openai", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", apperrors.NewExternalServiceError("openai", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperrors.NewExternalServiceError("openai", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", apperrors.NewExternalServiceError("openai",
			fmt.Errorf("API error %d: %s", resp.StatusCode, string(body)))
	}

	var chatResp ChatCompletionResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", apperrors.NewExternalServiceError("openai", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", apperrors.NewGenerationError("empty", "no response choices returned")
	}

	c.logger.Info("Chat completion succeeded",
		zap.String("model", model),
		zap.Int("prompt_tokens", chatResp.Usage.PromptTokens),
		zap.Int("completion_tokens", chatResp.Usage.CompletionTokens),
	)

	return chatResp.Choices[0].Message.Content, nil
}

// parseJSONObject pulls the first JSON object out of a model response.
// Models sometimes wrap the JSON in prose or markdown fences.
func parseJSONObject(response string, v interface{}) error {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end <= start {
		return fmt.Errorf("no JSON object found in response")
	}
	return json.Unmarshal([]byte(response[start:end+1]), v)
}

// parseJSONArray pulls the first JSON array out of a model response
func parseJSONArray(response string, v interface{}) error {
	start := strings.Index(response, "[")
	end := strings.LastIndex(response, "]")
	if start == -1 || end <= start {
		return fmt.Errorf("no JSON array found in response")
	}
	return json.Unmarshal([]byte(response[start:end+1]), v)
}
