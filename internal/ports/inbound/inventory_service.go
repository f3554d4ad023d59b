// Package inbound defines the interfaces for inbound ports (primary/driving
// adapters). HTTP handlers and any future CLI drive the application through
// these use-case contracts.
package inbound

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// InventoryService defines the inventory use cases
type InventoryService interface {
	// Listing
	ListItems(ctx context.Context, query ItemsQuery) ([]ItemDTO, error)

	// Mutation
	CreateItem(ctx context.Context, cmd CreateItemCommand) (*ItemDTO, error)
	CreateItems(ctx context.Context, cmds []CreateItemCommand) ([]ItemDTO, error)
	UpsertItemByName(ctx context.Context, cmd CreateItemCommand) (*ItemDTO, error)
	UpdateItem(ctx context.Context, cmd UpdateItemCommand) (*ItemDTO, error)
	AdjustQuantity(ctx context.Context, itemID uuid.UUID, delta float64) (*ItemDTO, error)
	DeleteItem(ctx context.Context, itemID uuid.UUID, idempotent bool) error

	// AI-assisted pipelines
	ExtractItemsFromImage(ctx context.Context, cmd ExtractItemsCommand) ([]ItemDTO, error)
	CategorizeItems(ctx context.Context) ([]ItemDTO, error)
	InitializeEquipment(ctx context.Context, cmd InitializeEquipmentCommand) ([]ItemDTO, error)
}

// ItemsQuery filters item listings. Category and ExcludeCategory are
// mutually exclusive; both nil lists everything.
type ItemsQuery struct {
	Category        *string
	ExcludeCategory *string
}

// CreateItemCommand carries the fields for creating an item
type CreateItemCommand struct {
	Name       string     `json:"name" validate:"required,max=200"`
	Quantity   float64    `json:"quantity" validate:"gte=0"`
	Unit       string     `json:"unit" validate:"required"`
	Category   *string    `json:"category,omitempty"`
	ExpiryDate *time.Time `json:"expiryDate,omitempty"`
}

// UpdateItemCommand carries a partial item update; nil fields are left
// untouched.
type UpdateItemCommand struct {
	ItemID     uuid.UUID  `json:"-"`
	Name       *string    `json:"name,omitempty"`
	Quantity   *float64   `json:"quantity,omitempty"`
	Unit       *string    `json:"unit,omitempty"`
	Category   *string    `json:"category,omitempty"`
	ExpiryDate *time.Time `json:"expiryDate,omitempty"`
}

// ExtractItemsCommand requests vision extraction of items from an
// uploaded image. The core only ever receives the stable URL, never the
// raw bytes.
type ExtractItemsCommand struct {
	ImageURL string        `json:"imageUrl" validate:"required,url"`
	Timeout  time.Duration `json:"-"`
}

// InitializeEquipmentCommand requests an AI-generated equipment set
type InitializeEquipmentCommand struct {
	Level          string        `json:"level" validate:"required,oneof=basic average fancy"`
	AdditionalInfo string        `json:"additionalInfo,omitempty"`
	Timeout        time.Duration `json:"-"`
}

// ItemDTO is the transport representation of an inventory item
type ItemDTO struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	Quantity   float64    `json:"quantity"`
	Unit       string     `json:"unit"`
	Category   *string    `json:"category,omitempty"`
	ExpiryDate *time.Time `json:"expiryDate,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}
