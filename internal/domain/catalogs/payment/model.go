// Package payment provides the payment methods a sale can be settled with.
package payment

import (
	"context"
	"strings"

	"revengepos/internal/core/apperror"
	"revengepos/internal/core/entity"
)

// Method is a payment method (cash, card, transfer).
type Method struct {
	entity.BaseCatalog

	Name string `db:"name" json:"name"`
}

// NewMethod creates an active payment method.
func NewMethod(name string) *Method {
	return &Method{BaseCatalog: entity.NewBaseCatalog(), Name: strings.TrimSpace(name)}
}

// Validate implements entity.Validatable.
func (m *Method) Validate(_ context.Context) error {
	if m.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	return nil
}
