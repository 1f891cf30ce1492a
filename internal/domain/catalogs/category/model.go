// Package category provides product categories.
package category

import (
	"context"
	"strings"

	"revengepos/internal/core/apperror"
	"revengepos/internal/core/entity"
)

// Category groups products. The list is flat.
type Category struct {
	entity.BaseCatalog

	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`
}

// NewCategory creates an active category.
func NewCategory(name, description string) *Category {
	return &Category{
		BaseCatalog: entity.NewBaseCatalog(),
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
	}
}

// Validate implements entity.Validatable.
func (c *Category) Validate(_ context.Context) error {
	if c.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if len(c.Name) > 120 {
		return apperror.NewValidation("name is too long").WithDetail("field", "name").WithDetail("max", 120)
	}
	return nil
}
