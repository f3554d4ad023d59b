package inventory

import "errors"

// Domain errors for inventory operations

var (
	// Entity validation errors
	ErrNameRequired     = errors.New("item name is required")
	ErrUnitRequired     = errors.New("item unit is required")
	ErrNegativeQuantity = errors.New("item quantity cannot be negative")
	ErrNameTooLong      = errors.New("item name must not exceed 200 characters")

	// Invariant violations
	ErrQuantityBelowZero = errors.New("adjustment would drive quantity below zero")
)
