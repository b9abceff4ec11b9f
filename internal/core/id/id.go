// Package id provides UUIDv7 generation for ledger entities.
// UUIDv7 is time-ordered, so movement ids sort in insertion order and
// serve as the tie-breaker when two movements share a createdAt.
package id

import (
	"github.com/google/uuid"
)

// ID is a type alias for UUID, used for tenants, branches, products and movements.
type ID = uuid.UUID

// New generates a new UUIDv7.
func New() ID {
	v, err := uuid.NewV7()
	if err != nil {
		// Fallback to V4 if the clock source fails
		return uuid.New()
	}
	return v
}

// Parse converts string to ID with validation.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// MustParse converts string to ID, panics on error.
// Use only for constants and tests.
func MustParse(s string) ID {
	return uuid.MustParse(s)
}

// IsNil checks if ID is zero-value.
func IsNil(v ID) bool {
	return v == uuid.Nil
}
