package product

import (
	"context"

	"revengepos/internal/core/id"
	"revengepos/internal/core/types"
	"revengepos/internal/domain"
)

// Repository defines the interface for Product persistence.
// Update never writes the stock column.
type Repository interface {
	domain.CatalogRepository[*Product]

	// GetByCode returns deleted rows too, like GetByID.
	GetByCode(ctx context.Context, code string) (*Product, error)

	// ListLowStock returns active products with stock <= stock_minimum, lowest first.
	ListLowStock(ctx context.Context, limit int) ([]*Product, error)

	Valuation(ctx context.Context) (Valuation, error)

	// RaiseCostPrice sets cost_price to unitCost when it is higher than the
	// stored value and reports whether the row changed.
	RaiseCostPrice(ctx context.Context, productID id.ID, unitCost types.Money) (bool, error)

	// CountByCategory counts non-deleted products in a category.
	CountByCategory(ctx context.Context, categoryID id.ID) (int64, error)
}

// Cache holds product snapshots by id and by code.
type Cache interface {
	GetProduct(ctx context.Context, productID id.ID) (*Product, bool)
	GetProductByCode(ctx context.Context, code string) (*Product, bool)
	// ProductGeneration is read before a product is loaded from storage.
	ProductGeneration(ctx context.Context) types.Generation
	// PutProduct stores p unless a product was invalidated after gen was read.
	PutProduct(ctx context.Context, p *Product, gen types.Generation)
	// InvalidateProduct drops the id entry and its code index.
	InvalidateProduct(ctx context.Context, productID id.ID)
}
