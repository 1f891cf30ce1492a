// Package id wraps UUIDv7 generation used for every primary key.
// v7 ids are time-ordered, so ORDER BY id matches insertion order.
package id

import (
	"github.com/google/uuid"

	"revengepos/internal/core/apperror"
)

// ID is the primary key type of all entities.
type ID = uuid.UUID

// New generates a new UUIDv7.
func New() ID {
	v, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return v
}

// Parse converts a string to an ID, reporting malformed input as a validation error.
func Parse(s string) (ID, error) {
	v, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, apperror.NewValidation("invalid id").
			WithDetail("value", s).
			WithCause(err)
	}
	return v, nil
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
