package reports

import (
	"context"
	"time"
)

// Repository defines report data access. Shares and per-group averages are
// derived by the service.
type Repository interface {
	// Sales returns the raw sales report for [from, to).
	Sales(ctx context.Context, from, to time.Time, top int) (*SalesReport, error)
	// Purchases returns the raw purchases report for [from, to).
	Purchases(ctx context.Context, from, to time.Time, top int) (*PurchasesReport, error)
	// Inventory returns the current stock snapshot of visible products.
	Inventory(ctx context.Context) (*InventoryReport, error)
	// Turnover returns the per-product movement sheet.
	Turnover(ctx context.Context, filter TurnoverFilter) ([]TurnoverItem, error)
}
