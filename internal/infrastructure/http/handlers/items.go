package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/larderapp/v1/internal/ports/inbound"
	apperrors "github.com/larderapp/v1/pkg/errors"
)

// ItemHandlers handles inventory item requests
type ItemHandlers struct {
	service inbound.InventoryService
	logger  *zap.Logger
}

// NewItemHandlers creates a new item handlers instance
func NewItemHandlers(service inbound.InventoryService, logger *zap.Logger) *ItemHandlers {
	return &ItemHandlers{
		service: service,
		logger:  logger,
	}
}

// ListItems handles GET /api/v1/items
func (h *ItemHandlers) ListItems(w http.ResponseWriter, r *http.Request) {
	query := inbound.ItemsQuery{}
	if category := r.URL.Query().Get("category"); category != "" {
		query.Category = &category
	}
	if exclude := r.URL.Query().Get("excludeCategory"); exclude != "" {
		query.ExcludeCategory = &exclude
	}

	items, err := h.service.ListItems(r.Context(), query)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: items})
}

// CreateItems handles POST /api/v1/items. The body may be a single item
// object or an array of them.
func (h *ItemHandlers) CreateItems(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, r, h.logger, apperrors.NewBadRequestError("failed to read body"))
		return
	}

	if bytes.HasPrefix(bytes.TrimSpace(body), []byte("[")) {
		var cmds []inbound.CreateItemCommand
		if err := json.Unmarshal(body, &cmds); err != nil {
			writeError(w, r, h.logger, apperrors.NewBadRequestError("invalid JSON body: "+err.Error()))
			return
		}
		items, err := h.service.CreateItems(r.Context(), cmds)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, APIResponse{Success: true, Data: items})
		return
	}

	var cmd inbound.CreateItemCommand
	if err := json.Unmarshal(body, &cmd); err != nil {
		writeError(w, r, h.logger, apperrors.NewBadRequestError("invalid JSON body: "+err.Error()))
		return
	}
	item, err := h.service.CreateItem(r.Context(), cmd)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, APIResponse{Success: true, Data: item})
}

// UpsertItem handles POST /api/v1/items/upsert
func (h *ItemHandlers) UpsertItem(w http.ResponseWriter, r *http.Request) {
	var cmd inbound.CreateItemCommand
	if err := decodeJSON(r, &cmd); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	item, err := h.service.UpsertItemByName(r.Context(), cmd)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: item})
}

// UpdateItem handles PUT /api/v1/items/{id}
func (h *ItemHandlers) UpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := parseID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var cmd inbound.UpdateItemCommand
	if err := decodeJSON(r, &cmd); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	cmd.ItemID = itemID

	item, err := h.service.UpdateItem(r.Context(), cmd)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: item})
}

// AdjustQuantity handles PATCH /api/v1/items/{id}/quantity
func (h *ItemHandlers) AdjustQuantity(w http.ResponseWriter, r *http.Request) {
	itemID, err := parseID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var body struct {
		Delta float64 `json:"delta"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	item, err := h.service.AdjustQuantity(r.Context(), itemID, body.Delta)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: item})
}

// DeleteItem handles DELETE /api/v1/items/{id}. With ?idempotent=true a
// missing item still returns success.
func (h *ItemHandlers) DeleteItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := parseID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	idempotent := r.URL.Query().Get("idempotent") == "true"
	if err := h.service.DeleteItem(r.Context(), itemID, idempotent); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: "Item deleted"})
}

// ExtractItems handles POST /api/v1/items/extract
func (h *ItemHandlers) ExtractItems(w http.ResponseWriter, r *http.Request) {
	var cmd inbound.ExtractItemsCommand
	if err := decodeJSON(r, &cmd); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	items, err := h.service.ExtractItemsFromImage(r.Context(), cmd)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: items})
}

// CategorizeItems handles POST /api/v1/items/categorize
func (h *ItemHandlers) CategorizeItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.CategorizeItems(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: items})
}

// InitializeEquipment handles POST /api/v1/equipment/initialize
func (h *ItemHandlers) InitializeEquipment(w http.ResponseWriter, r *http.Request) {
	var cmd inbound.InitializeEquipmentCommand
	if err := decodeJSON(r, &cmd); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	items, err := h.service.InitializeEquipment(r.Context(), cmd)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, APIResponse{Success: true, Data: items})
}

// parseID extracts the {id} URL parameter as a UUID
func parseID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, apperrors.NewBadRequestError("invalid id")
	}
	return id, nil
}

// parseUUIDs parses a list of id strings from a request body
func parseUUIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, apperrors.NewBadRequestError("invalid id: " + s)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
