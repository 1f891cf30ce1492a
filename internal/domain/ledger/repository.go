package ledger

import (
	"context"

	"revengepos/internal/core/id"
)

// Repository persists stock and movements.
// Missing and deleted products are reported as NotFound.
type Repository interface {
	// LockStock reads the stock row with a row lock held until the
	// enclosing transaction ends (SELECT ... FOR UPDATE).
	LockStock(ctx context.Context, productID id.ID) (StockRow, error)

	// ReadStock reads without locking.
	ReadStock(ctx context.Context, productID id.ID) (StockRow, error)

	SetStock(ctx context.Context, productID id.ID, stock int64) error

	InsertMovement(ctx context.Context, m *Movement) error

	// ListMovements returns movements oldest first. limit <= 0 means all.
	ListMovements(ctx context.Context, productID id.ID, limit int) ([]Movement, error)
}

// StockCache is a read-through view of cached product snapshots.
type StockCache interface {
	CachedStock(ctx context.Context, productID id.ID) (stock int64, ok bool)
}
