// Package inventory contains the core domain logic for tracked kitchen
// items. An item is either a consumable ingredient or a piece of durable
// equipment; both share the same aggregate and store.
package inventory

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// CategoryEquipment is the reserved sentinel category marking an item as
// durable kitchen equipment rather than a consumable ingredient.
const CategoryEquipment = "Cooking Equipment"

// Categories lists the categories the categorization service may assign.
var Categories = []string{
	"Produce",
	"Meat & Seafood",
	"Dairy & Eggs",
	"Pantry",
	"Spices & Seasonings",
	"Beverages",
	CategoryEquipment,
	"Other",
}

// Item represents a tracked inventory record. The quantity field is the
// single hot shared mutable resource of the system; every mutation path
// funnels through Adjust or SetQuantity to preserve the non-negativity
// invariant uniformly.
type Item struct {
	id      uuid.UUID
	version int64 // Optimistic locking

	name       string
	quantity   float64
	unit       string
	category   *string
	expiryDate *time.Time

	createdAt time.Time
	updatedAt time.Time
}

// NewItem creates a new Item with validation
func NewItem(name string, quantity float64, unit string, category *string, expiryDate *time.Time) (*Item, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if strings.TrimSpace(unit) == "" {
		return nil, ErrUnitRequired
	}
	if quantity < 0 {
		return nil, ErrNegativeQuantity
	}

	now := time.Now()
	return &Item{
		id:         uuid.New(),
		version:    1,
		name:       strings.TrimSpace(name),
		quantity:   quantity,
		unit:       unit,
		category:   category,
		expiryDate: expiryDate,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

// Reconstitute rebuilds an Item from persisted state. It bypasses creation
// validation; the store is trusted to hold only invariant-respecting rows.
func Reconstitute(id uuid.UUID, version int64, name string, quantity float64, unit string, category *string, expiryDate *time.Time, createdAt, updatedAt time.Time) *Item {
	return &Item{
		id:         id,
		version:    version,
		name:       name,
		quantity:   quantity,
		unit:       unit,
		category:   category,
		expiryDate: expiryDate,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}

// ID returns the item's unique identifier
func (i *Item) ID() uuid.UUID {
	return i.id
}

// Version returns the item's optimistic-lock version
func (i *Item) Version() int64 {
	return i.version
}

// Name returns the item's name
func (i *Item) Name() string {
	return i.name
}

// Quantity returns the current quantity
func (i *Item) Quantity() float64 {
	return i.quantity
}

// Unit returns the measurement unit
func (i *Item) Unit() string {
	return i.unit
}

// Category returns the item's category, nil when uncategorized
func (i *Item) Category() *string {
	return i.category
}

// ExpiryDate returns the item's expiry date, nil when not perishable
func (i *Item) ExpiryDate() *time.Time {
	return i.expiryDate
}

// CreatedAt returns when the item was created
func (i *Item) CreatedAt() time.Time {
	return i.createdAt
}

// UpdatedAt returns when the item was last updated
func (i *Item) UpdatedAt() time.Time {
	return i.updatedAt
}

// IsEquipment reports whether the item carries the equipment sentinel
// category.
func (i *Item) IsEquipment() bool {
	return i.category != nil && *i.category == CategoryEquipment
}

// Adjust applies a signed quantity delta. The invariant quantity >= 0 is
// enforced here; a delta that would drive the quantity negative is
// rejected without mutating the item.
func (i *Item) Adjust(delta float64) error {
	if i.quantity+delta < 0 {
		return ErrQuantityBelowZero
	}
	i.quantity += delta
	i.updatedAt = time.Now()
	return nil
}

// SetQuantity replaces the quantity with an absolute value
func (i *Item) SetQuantity(quantity float64) error {
	if quantity < 0 {
		return ErrNegativeQuantity
	}
	i.quantity = quantity
	i.updatedAt = time.Now()
	return nil
}

// Merge folds a repeated scan or upload of the same ingredient into this
// item: the incoming quantity is added and the unit overwritten with the
// most recent observation.
func (i *Item) Merge(quantity float64, unit string) error {
	if quantity < 0 {
		return ErrNegativeQuantity
	}
	if strings.TrimSpace(unit) == "" {
		return ErrUnitRequired
	}
	i.quantity += quantity
	i.unit = unit
	i.updatedAt = time.Now()
	return nil
}

// Rename updates the item name with validation
func (i *Item) Rename(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	i.name = strings.TrimSpace(name)
	i.updatedAt = time.Now()
	return nil
}

// SetUnit updates the measurement unit
func (i *Item) SetUnit(unit string) error {
	if strings.TrimSpace(unit) == "" {
		return ErrUnitRequired
	}
	i.unit = unit
	i.updatedAt = time.Now()
	return nil
}

// SetCategory assigns or clears the item category
func (i *Item) SetCategory(category *string) {
	i.category = category
	i.updatedAt = time.Now()
}

// SetExpiryDate assigns or clears the expiry date
func (i *Item) SetExpiryDate(expiryDate *time.Time) {
	i.expiryDate = expiryDate
	i.updatedAt = time.Now()
}

// SameIngredient reports whether name and category identify the same
// logical ingredient for merge-on-name purposes. Names compare
// case-insensitively; categories must match exactly (both nil counts as
// a match).
func (i *Item) SameIngredient(name string, category *string) bool {
	if !strings.EqualFold(i.name, strings.TrimSpace(name)) {
		return false
	}
	if i.category == nil || category == nil {
		return i.category == nil && category == nil
	}
	return *i.category == *category
}

func validateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ErrNameRequired
	}
	if len(trimmed) > 200 {
		return ErrNameTooLong
	}
	return nil
}
