package category

import (
	"context"

	"revengepos/internal/core/id"
	"revengepos/internal/domain"
)

// Repository defines the interface for Category persistence.
type Repository interface {
	domain.CatalogRepository[*Category]
}

// ProductCounter counts products that still reference a category.
type ProductCounter interface {
	CountByCategory(ctx context.Context, categoryID id.ID) (int64, error)
}
