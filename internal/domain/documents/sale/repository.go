package sale

import (
	"context"
	"time"

	"revengepos/internal/core/id"
	"revengepos/internal/domain"
)

// Repository persists sales. Inserts join the transaction carried by ctx.
type Repository interface {
	Insert(ctx context.Context, s *Sale) error
	InsertLines(ctx context.Context, lines []Line) error

	GetByID(ctx context.Context, saleID id.ID) (*Sale, error)
	GetByTicket(ctx context.Context, ticketNumber string) (*Sale, error)
	GetLines(ctx context.Context, saleID id.ID) ([]Line, error)

	// List returns headers newest first.
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Sale], error)

	DaySummary(ctx context.Context, from, to time.Time) (DaySummary, error)
	TopSellers(ctx context.Context, from, to *time.Time, limit int) ([]TopSeller, error)
	CashierTotals(ctx context.Context, cashierID id.ID, from, to *time.Time) (CashierTotals, error)
}

// ListFilter narrows sale listings. From is inclusive, To exclusive.
type ListFilter struct {
	CashierID *id.ID
	From      *time.Time
	To        *time.Time

	Limit  int
	Offset int
}
