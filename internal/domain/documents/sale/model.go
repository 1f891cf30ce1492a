// Package sale records point-of-sale tickets. Creating a sale validates the
// cart, prices it and removes the sold units from stock in one transaction.
package sale

import (
	"context"
	"time"

	"revengepos/internal/core/apperror"
	"revengepos/internal/core/entity"
	"revengepos/internal/core/id"
	"revengepos/internal/core/types"
)

// Sale is a ticket header. Total == Subtotal - Discount + Tax.
type Sale struct {
	entity.BaseEntity

	TicketNumber    string      `db:"ticket_number" json:"ticketNumber"`
	CashierID       id.ID       `db:"cashier_id" json:"cashierId"`
	Subtotal        types.Money `db:"subtotal" json:"subtotal"`
	Discount        types.Money `db:"discount" json:"discount"`
	Tax             types.Money `db:"tax" json:"tax"`
	Total           types.Money `db:"total" json:"total"`
	PaymentMethodID id.ID       `db:"payment_method_id" json:"paymentMethodId"`
	Notes           string      `db:"notes" json:"notes"`

	Lines []Line `db:"-" json:"lines,omitempty"`
}

// Line is one ticket row. Code and name are copied from the product at sale
// time so that later catalog edits do not rewrite history.
type Line struct {
	ID           id.ID       `db:"id" json:"id"`
	SaleID       id.ID       `db:"sale_id" json:"saleId"`
	LineNo       int         `db:"line_no" json:"lineNo"`
	ProductID    id.ID       `db:"product_id" json:"productId"`
	ProductCode  string      `db:"product_code" json:"productCode"`
	ProductName  string      `db:"product_name" json:"productName"`
	Quantity     int64       `db:"quantity" json:"quantity"`
	UnitPrice    types.Money `db:"unit_price" json:"unitPrice"`
	UnitDiscount types.Money `db:"unit_discount" json:"unitDiscount"`
	LineTotal    types.Money `db:"line_total" json:"lineTotal"`
}

// CartItem is one requested line. A nil UnitPrice means the current sale price.
type CartItem struct {
	ProductID    id.ID
	Quantity     int64
	UnitPrice    *types.Money
	UnitDiscount types.Money
}

// Request is a sale to register.
type Request struct {
	CashierID       id.ID
	Items           []CartItem
	PaymentMethodID id.ID

	// Discount applies to the whole ticket, before tax.
	Discount types.Money

	// Tax, when set, is stored verbatim.
	Tax *types.Money

	Notes string
}

// Receipt is returned once the sale is committed.
type Receipt struct {
	SaleID       id.ID       `json:"saleId"`
	TicketNumber string      `json:"ticketNumber"`
	Total        types.Money `json:"total"`
	LineCount    int         `json:"lineCount"`
}

// validateShape checks the request without touching storage.
func (r Request) validateShape(_ context.Context) error {
	if id.IsNil(r.CashierID) {
		return apperror.NewValidation("cashier is required").WithDetail("field", "cashier_id")
	}
	if len(r.Items) == 0 {
		return apperror.NewValidation("sale must contain at least one item").WithDetail("field", "items")
	}
	if id.IsNil(r.PaymentMethodID) {
		return apperror.NewValidation("payment method is required").WithDetail("field", "payment_method_id")
	}
	if r.Discount.IsNegative() {
		return apperror.NewValidation("discount cannot be negative").WithDetail("field", "discount")
	}
	if r.Tax != nil && r.Tax.IsNegative() {
		return apperror.NewValidation("tax cannot be negative").WithDetail("field", "tax")
	}
	for i, item := range r.Items {
		lineNo := i + 1
		if id.IsNil(item.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("field", "items").
				WithDetail("lineNo", lineNo)
		}
		if item.Quantity <= 0 {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "items").
				WithDetail("lineNo", lineNo)
		}
		if item.UnitDiscount.IsNegative() {
			return apperror.NewValidation("unit discount cannot be negative").
				WithDetail("field", "items").
				WithDetail("lineNo", lineNo)
		}
		if item.UnitPrice != nil && item.UnitPrice.IsNegative() {
			return apperror.NewValidation("unit price cannot be negative").
				WithDetail("field", "items").
				WithDetail("lineNo", lineNo)
		}
	}
	return nil
}

// DaySummary aggregates the sales of one calendar day.
type DaySummary struct {
	Date          time.Time   `db:"-" json:"date"`
	SalesCount    int64       `db:"sales_count" json:"salesCount"`
	Revenue       types.Money `db:"revenue" json:"revenue"`
	Discounts     types.Money `db:"discounts" json:"discounts"`
	Tax           types.Money `db:"tax" json:"tax"`
	AverageTicket types.Money `db:"average_ticket" json:"averageTicket"`
}

// TopSeller is one row of the best sellers ranking.
type TopSeller struct {
	ProductID   id.ID       `db:"product_id" json:"productId"`
	ProductCode string      `db:"product_code" json:"productCode"`
	ProductName string      `db:"product_name" json:"productName"`
	Quantity    int64       `db:"quantity" json:"quantity"`
	Revenue     types.Money `db:"revenue" json:"revenue"`
}

// Commission is what a cashier earned over a period.
type Commission struct {
	CashierID   id.ID       `json:"cashierId"`
	SalesCount  int64       `json:"salesCount"`
	Amount      types.Money `json:"amount"`
	RatePercent types.Money `json:"ratePercent"`
	Commission  types.Money `json:"commission"`
}

// CashierTotals is the raw aggregate commissions are computed from.
type CashierTotals struct {
	SalesCount int64       `db:"sales_count"`
	Amount     types.Money `db:"amount"`
}
