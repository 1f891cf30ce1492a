package supplier

import (
	"context"

	"revengepos/internal/core/id"
	"revengepos/internal/domain"
)

// Repository defines the interface for Supplier persistence.
type Repository interface {
	domain.CatalogRepository[*Supplier]
}

// PurchaseCounter counts purchases recorded against a supplier.
type PurchaseCounter interface {
	CountBySupplier(ctx context.Context, supplierID id.ID) (int64, error)
}
