// Package apperror provides structured error handling for the stock ledger.
// All business errors must use AppError so the transport layer can map them consistently.
package apperror

import (
	"errors"
	"fmt"
)

// Kind is the closed set of error categories surfaced to callers.
// Transport layers map every Kind exhaustively (see http/v1/middleware.StatusForKind).
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindValidation
	KindForbidden
	KindUnauthorized
	KindInsufficientStock
	KindConcurrentModification
)

// String returns the kind name used in logs.
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindForbidden:
		return "forbidden"
	case KindUnauthorized:
		return "unauthorized"
	case KindInsufficientStock:
		return "insufficient_stock"
	case KindConcurrentModification:
		return "concurrent_modification"
	default:
		return "internal"
	}
}

// Error codes (stable, machine-readable)
const (
	CodeInternal = "INTERNAL_ERROR"

	// Validation errors
	CodeValidation         = "VALIDATION_ERROR"
	CodeEntityInactive     = "ENTITY_INACTIVE"
	CodeTransferSameBranch = "TRANSFER_SAME_BRANCH"
	CodeInvalidQuantity    = "INVALID_QUANTITY"
	CodeInvalidPairing     = "INVALID_MOVEMENT_PAIRING"

	// Business rule violations
	CodeInsufficientStock      = "INSUFFICIENT_STOCK"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"

	// Authorization errors
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"

	// Not found
	CodeNotFound = "NOT_FOUND"
)

// AppError is the standard error type for the ledger.
type AppError struct {
	// Kind is the error category
	Kind Kind `json:"-"`

	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (entity ids, quantities, etc.)
	Details map[string]any `json:"details,omitempty"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions ---

// NewValidation creates a generic domain validation error.
func NewValidation(message string) *AppError {
	return NewValidationCode(CodeValidation, message)
}

// NewValidationCode creates a domain validation error with a specific code.
func NewValidationCode(code, message string) *AppError {
	return &AppError{
		Kind:    KindValidation,
		Code:    code,
		Message: message,
	}
}

// NewInactive reports an entity that exists but is switched off.
func NewInactive(entity string, id any) *AppError {
	return &AppError{
		Kind:    KindValidation,
		Code:    CodeEntityInactive,
		Message: fmt.Sprintf("%s is inactive", entity),
		Details: map[string]any{"entity": entity, "id": id},
	}
}

// NewNotFound creates a not found error
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Kind:    KindNotFound,
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", entity),
		Details: map[string]any{"entity": entity, "id": id},
	}
}

// NewInsufficientStock creates a stock shortage error carrying both quantities.
func NewInsufficientStock(requested, available int64) *AppError {
	return &AppError{
		Kind:    KindInsufficientStock,
		Code:    CodeInsufficientStock,
		Message: "Insufficient stock",
		Details: map[string]any{
			"requested": requested,
			"available": available,
		},
	}
}

// NewConcurrentModification creates an optimistic locking error
func NewConcurrentModification(entity string, id any) *AppError {
	return &AppError{
		Kind:    KindConcurrentModification,
		Code:    CodeConcurrentModification,
		Message: "Record was modified concurrently. Please resubmit the request.",
		Details: map[string]any{"entity": entity, "id": id},
	}
}

// NewInternal creates an internal error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Kind:    KindInternal,
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// NewUnauthorized creates an authentication error
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Kind:    KindUnauthorized,
		Code:    CodeUnauthorized,
		Message: message,
	}
}

// NewForbidden creates an authorization error
func NewForbidden(message string) *AppError {
	return &AppError{
		Kind:    KindForbidden,
		Code:    CodeForbidden,
		Message: message,
	}
}

// --- Helper functions ---

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns the kind of any error; non-AppErrors are internal.
func KindOf(err error) Kind {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Kind
	}
	return KindInternal
}

// IsNotFound checks if error is of kind NotFound
func IsNotFound(err error) bool {
	return err != nil && KindOf(err) == KindNotFound
}

// IsConcurrentModification checks if error is a CAS conflict
func IsConcurrentModification(err error) bool {
	return err != nil && KindOf(err) == KindConcurrentModification
}

// IsInsufficientStock checks if error is a stock shortage
func IsInsufficientStock(err error) bool {
	return err != nil && KindOf(err) == KindInsufficientStock
}
