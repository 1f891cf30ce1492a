package purchase

import (
	"context"
	"time"

	"revengepos/internal/core/id"
	"revengepos/internal/domain"
)

// Repository persists purchases. Inserts join the transaction carried by ctx.
type Repository interface {
	Insert(ctx context.Context, p *Purchase) error
	InsertLines(ctx context.Context, lines []Line) error

	GetByID(ctx context.Context, purchaseID id.ID) (*Purchase, error)
	GetLines(ctx context.Context, purchaseID id.ID) ([]Line, error)

	// List returns headers newest first.
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Purchase], error)

	Summary(ctx context.Context, from, to time.Time) (MonthSummary, error)

	// CountBySupplier backs the supplier delete guard.
	CountBySupplier(ctx context.Context, supplierID id.ID) (int64, error)
}

// ListFilter narrows purchase listings. From is inclusive, To exclusive.
type ListFilter struct {
	SupplierID *id.ID
	From       *time.Time
	To         *time.Time

	Limit  int
	Offset int
}
