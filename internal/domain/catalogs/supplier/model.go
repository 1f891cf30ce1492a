// Package supplier provides the suppliers purchases are recorded against.
package supplier

import (
	"context"
	"net/mail"
	"strings"

	"revengepos/internal/core/apperror"
	"revengepos/internal/core/entity"
)

// Supplier is a vendor of stock.
type Supplier struct {
	entity.BaseCatalog

	Name    string `db:"name" json:"name"`
	TaxID   string `db:"tax_id" json:"taxId"`
	Phone   string `db:"phone" json:"phone"`
	Email   string `db:"email" json:"email"`
	Address string `db:"address" json:"address"`
}

// NewSupplier creates an active supplier.
func NewSupplier(name string) *Supplier {
	return &Supplier{
		BaseCatalog: entity.NewBaseCatalog(),
		Name:        strings.TrimSpace(name),
	}
}

// Validate implements entity.Validatable.
func (s *Supplier) Validate(_ context.Context) error {
	if s.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if s.Email != "" {
		if _, err := mail.ParseAddress(s.Email); err != nil {
			return apperror.NewValidation("invalid email").WithDetail("field", "email")
		}
	}
	return nil
}
