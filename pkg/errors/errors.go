// Package errors provides structured error handling for the application.
// Every operation failure carries a distinguishable code so callers can
// react to the kind of failure, not just its message.
package errors

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrorCode represents an error code
type ErrorCode string

// Common error codes following RESTful API conventions
const (
	// Client errors (4xx)
	CodeBadRequest       ErrorCode = "BAD_REQUEST"
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeConflict         ErrorCode = "CONFLICT"
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// Server errors (5xx)
	CodeInternal             ErrorCode = "INTERNAL_ERROR"
	CodeDatabaseError        ErrorCode = "DATABASE_ERROR"
	CodeExternalServiceError ErrorCode = "EXTERNAL_SERVICE_ERROR"

	// Business logic errors
	CodeItemNotFound          ErrorCode = "ITEM_NOT_FOUND"
	CodeRecipeNotFound        ErrorCode = "RECIPE_NOT_FOUND"
	CodeInsufficientInventory ErrorCode = "INSUFFICIENT_INVENTORY"
	CodeGenerationFailed      ErrorCode = "GENERATION_FAILED"
	CodeGenerationTimeout     ErrorCode = "GENERATION_TIMEOUT"
	CodeConcurrencyConflict   ErrorCode = "CONCURRENCY_CONFLICT"
)

// AppError represents an application error with structured information
type AppError struct {
	Code     ErrorCode              `json:"code"`
	Message  string                 `json:"message"`
	Details  string                 `json:"details,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	Cause    error                  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// StatusCode returns the appropriate HTTP status code
func (e *AppError) StatusCode() int {
	switch e.Code {
	case CodeBadRequest, CodeValidationFailed:
		return http.StatusBadRequest
	case CodeNotFound, CodeItemNotFound, CodeRecipeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeInsufficientInventory, CodeConcurrencyConflict:
		return http.StatusConflict
	case CodeGenerationFailed:
		return http.StatusBadGateway
	case CodeGenerationTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// WithMetadata adds metadata to the error
func (e *AppError) WithMetadata(key string, value interface{}) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// WithCause adds a cause error
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message, details string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// Predefined error constructors for common scenarios

// NewBadRequestError creates a bad request error
func NewBadRequestError(message string) *AppError {
	return NewAppError(CodeBadRequest, message, "")
}

// NewValidationError creates a validation error
func NewValidationError(details string) *AppError {
	return NewAppError(CodeValidationFailed, "Validation failed", details)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	message := "Resource not found"
	if resource != "" {
		message = fmt.Sprintf("%s not found", strings.Title(resource))
	}
	return NewAppError(CodeNotFound, message, "")
}

// NewConflictError creates a conflict error
func NewConflictError(message string) *AppError {
	return NewAppError(CodeConflict, message, "")
}

// NewInternalError creates an internal server error
func NewInternalError(message string) *AppError {
	if message == "" {
		message = "An unexpected error occurred"
	}
	return NewAppError(CodeInternal, message, "")
}

// NewDatabaseError creates a database error
func NewDatabaseError(operation string, cause error) *AppError {
	return NewAppError(
		CodeDatabaseError,
		"Database operation failed",
		fmt.Sprintf("Failed to %s", operation),
	).WithCause(cause)
}

// NewExternalServiceError creates an external service error
func NewExternalServiceError(service string, cause error) *AppError {
	return NewAppError(
		CodeExternalServiceError,
		"External service error",
		fmt.Sprintf("Failed to communicate with %s", service),
	).WithCause(cause)
}

// Business domain specific errors

// NewItemNotFoundError creates an item not found error
func NewItemNotFoundError(itemID string) *AppError {
	return NewAppError(
		CodeItemNotFound,
		"Item not found",
		fmt.Sprintf("Item with ID %s does not exist", itemID),
	).WithMetadata("item_id", itemID)
}

// NewRecipeNotFoundError creates a recipe not found error
func NewRecipeNotFoundError(recipeID string) *AppError {
	return NewAppError(
		CodeRecipeNotFound,
		"Recipe not found",
		fmt.Sprintf("Recipe with ID %s does not exist", recipeID),
	).WithMetadata("recipe_id", recipeID)
}

// Shortfall describes one ingredient the inventory cannot cover.
type Shortfall struct {
	ItemID    string  `json:"item_id"`
	ItemName  string  `json:"item_name"`
	Available float64 `json:"available"`
	Required  float64 `json:"required"`
}

// NewInsufficientInventoryError creates an insufficient inventory error.
// Every shortfall is reported so the caller sees the full gap, not just
// the first offending ingredient.
func NewInsufficientInventoryError(shortfalls []Shortfall) *AppError {
	parts := make([]string, len(shortfalls))
	for i, s := range shortfalls {
		parts[i] = fmt.Sprintf("%s (have %g, need %g)", s.ItemName, s.Available, s.Required)
	}
	return NewAppError(
		CodeInsufficientInventory,
		"Insufficient inventory",
		strings.Join(parts, "; "),
	).WithMetadata("shortfalls", shortfalls)
}

// NewGenerationError creates a generation error naming the failed rule
func NewGenerationError(rule, details string) *AppError {
	return NewAppError(
		CodeGenerationFailed,
		"Recipe generation failed",
		details,
	).WithMetadata("rule", rule)
}

// NewGenerationTimeoutError creates a generation timeout error
func NewGenerationTimeoutError(timeout time.Duration) *AppError {
	return NewAppError(
		CodeGenerationTimeout,
		"Recipe generation timed out",
		fmt.Sprintf("Generation service did not respond within %s", timeout),
	)
}

// NewConcurrencyConflictError creates a concurrency conflict error
func NewConcurrencyConflictError(resource string) *AppError {
	return NewAppError(
		CodeConcurrencyConflict,
		"Concurrent modification detected",
		fmt.Sprintf("The %s was modified by another operation; retry the whole operation", resource),
	).WithMetadata("resource", resource)
}

// Utility functions

// Wrap wraps an error as an internal error if it's not already an AppError
func Wrap(err error, message string) *AppError {
	if err == nil {
		return nil
	}

	if appErr, ok := err.(*AppError); ok {
		return appErr
	}

	return NewInternalError(message).WithCause(err)
}

// Is checks if an error is of a specific error code
func Is(err error, code ErrorCode) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == code
	}
	return false
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return CodeInternal
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error ErrorDetails `json:"error"`
}

// ErrorDetails represents the error details in API responses
type ErrorDetails struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	Timestamp string                 `json:"timestamp"`
}

// ToErrorResponse converts an AppError to an API error response
func ToErrorResponse(err *AppError, requestID string) ErrorResponse {
	return ErrorResponse{
		Error: ErrorDetails{
			Code:      err.Code,
			Message:   err.Message,
			Details:   err.Details,
			Metadata:  err.Metadata,
			RequestID: requestID,
			Timestamp: fmt.Sprintf("%d", time.Now().Unix()),
		},
	}
}
