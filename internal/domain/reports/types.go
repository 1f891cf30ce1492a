// Package reports aggregates sales, purchases and inventory data for the
// back office. Renderers in infrastructure/render turn the results into PDF
// and Excel documents.
package reports

import (
	"time"

	"revengepos/internal/core/id"
	"revengepos/internal/core/types"
)

// Period is a closed range of calendar days, [From, To] in UTC.
type Period struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// end is the exclusive upper bound used in queries.
func (p Period) end() time.Time {
	return p.To.AddDate(0, 0, 1)
}

// Bounds returns the half-open timestamp range covered by the period.
func (p Period) Bounds() (from, to time.Time) {
	return p.From, p.end()
}

// --- Sales ---

// SalesSummary is the headline of the sales report.
type SalesSummary struct {
	SalesCount int64       `db:"sales_count" json:"salesCount"`
	Revenue    types.Money `db:"revenue" json:"revenue"`
	Average    types.Money `db:"average" json:"average"`
	Minimum    types.Money `db:"minimum" json:"minimum"`
	Maximum    types.Money `db:"maximum" json:"maximum"`
}

// DayTotal is the document count and amount of one day.
type DayTotal struct {
	Day   time.Time   `db:"day" json:"day"`
	Count int64       `db:"count" json:"count"`
	Total types.Money `db:"total" json:"total"`
}

// ProductTotal is one row of a top-products table.
type ProductTotal struct {
	ProductID    id.ID       `db:"product_id" json:"productId"`
	ProductCode  string      `db:"product_code" json:"productCode"`
	ProductName  string      `db:"product_name" json:"productName"`
	CategoryName string      `db:"category_name" json:"categoryName"`
	Quantity     int64       `db:"quantity" json:"quantity"`
	Total        types.Money `db:"total" json:"total"`
	Share        types.Money `db:"-" json:"share"`
}

// GroupTotal is an amount grouped by a named dimension (payment method,
// cashier, supplier).
type GroupTotal struct {
	ID      id.ID       `db:"id" json:"id"`
	Name    string      `db:"name" json:"name"`
	Count   int64       `db:"count" json:"count"`
	Total   types.Money `db:"total" json:"total"`
	Average types.Money `db:"-" json:"average"`
	Share   types.Money `db:"-" json:"share"`
}

// SalesReport covers one period of sales.
type SalesReport struct {
	Period      Period         `json:"period"`
	Summary     SalesSummary   `json:"summary"`
	ByDay       []DayTotal     `json:"byDay"`
	TopProducts []ProductTotal `json:"topProducts"`
	ByPayment   []GroupTotal   `json:"byPaymentMethod"`
	ByCashier   []GroupTotal   `json:"byCashier"`
}

// --- Purchases ---

// PurchasesSummary is the headline of the purchases report.
type PurchasesSummary struct {
	PurchasesCount int64       `db:"purchases_count" json:"purchasesCount"`
	Spent          types.Money `db:"spent" json:"spent"`
	Average        types.Money `db:"average" json:"average"`
}

// PurchasesReport covers one period of purchases.
type PurchasesReport struct {
	Period      Period           `json:"period"`
	Summary     PurchasesSummary `json:"summary"`
	BySupplier  []GroupTotal     `json:"bySupplier"`
	TopProducts []ProductTotal   `json:"topProducts"`
	ByDay       []DayTotal       `json:"byDay"`
}

// --- Inventory ---

// InventorySummary values the current stock.
type InventorySummary struct {
	Products   int64       `db:"products" json:"products"`
	CostValue  types.Money `db:"cost_value" json:"costValue"`
	SaleValue  types.Money `db:"sale_value" json:"saleValue"`
	LowStock   int64       `db:"low_stock" json:"lowStock"`
	OutOfStock int64       `db:"out_of_stock" json:"outOfStock"`
}

// CategoryStock aggregates stock per category.
type CategoryStock struct {
	CategoryID   *id.ID      `db:"category_id" json:"categoryId,omitempty"`
	CategoryName string      `db:"category_name" json:"categoryName"`
	Products     int64       `db:"products" json:"products"`
	Units        int64       `db:"units" json:"units"`
	CostValue    types.Money `db:"cost_value" json:"costValue"`
}

// StockItem is one product in a stock list.
type StockItem struct {
	ProductID    id.ID  `db:"product_id" json:"productId"`
	Code         string `db:"code" json:"code"`
	Name         string `db:"name" json:"name"`
	CategoryName string `db:"category_name" json:"categoryName"`
	Stock        int64  `db:"stock" json:"stock"`
	StockMinimum int64  `db:"stock_minimum" json:"stockMinimum"`
}

// InventoryReport is a snapshot of the catalog stock.
type InventoryReport struct {
	GeneratedAt time.Time        `json:"generatedAt"`
	Summary     InventorySummary `json:"summary"`
	ByCategory  []CategoryStock  `json:"byCategory"`
	LowStock    []StockItem      `json:"lowStock"`
	OutOfStock  []StockItem      `json:"outOfStock"`
}

// --- Stock turnover ---

// TurnoverItem reconciles the ledger of one product over a period.
// Closing == Opening + Receipt - Expense.
type TurnoverItem struct {
	ProductID   id.ID  `db:"product_id" json:"productId"`
	ProductCode string `db:"product_code" json:"productCode"`
	ProductName string `db:"product_name" json:"productName"`
	Opening     int64  `db:"opening" json:"opening"`
	Receipt     int64  `db:"receipt" json:"receipt"`
	Expense     int64  `db:"expense" json:"expense"`
	Closing     int64  `db:"closing" json:"closing"`
}

// TurnoverFilter narrows the turnover report.
type TurnoverFilter struct {
	Period      Period
	ProductIDs  []id.ID
	IncludeZero bool
	Limit       int
	Offset      int
}

// TurnoverReport is the movement sheet for a period.
type TurnoverReport struct {
	Period       Period         `json:"period"`
	Items        []TurnoverItem `json:"items"`
	TotalOpening int64          `json:"totalOpening"`
	TotalReceipt int64          `json:"totalReceipt"`
	TotalExpense int64          `json:"totalExpense"`
	TotalClosing int64          `json:"totalClosing"`
}
