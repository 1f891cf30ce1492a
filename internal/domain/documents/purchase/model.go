// Package purchase records supplier invoices. Creating a purchase adds the
// received units to stock and raises product cost prices.
package purchase

import (
	"strings"

	"revengepos/internal/core/apperror"
	"revengepos/internal/core/entity"
	"revengepos/internal/core/id"
	"revengepos/internal/core/types"
)

// Purchase is an invoice header. Total == Subtotal + Tax.
type Purchase struct {
	entity.BaseEntity

	InvoiceNumber string      `db:"invoice_number" json:"invoiceNumber"`
	SupplierID    id.ID       `db:"supplier_id" json:"supplierId"`
	ActorID       id.ID       `db:"actor_id" json:"actorId"`
	Subtotal      types.Money `db:"subtotal" json:"subtotal"`
	Tax           types.Money `db:"tax" json:"tax"`
	Total         types.Money `db:"total" json:"total"`
	Notes         string      `db:"notes" json:"notes"`

	Lines []Line `db:"-" json:"lines,omitempty"`
}

// Line is one invoice row with a product snapshot.
type Line struct {
	ID          id.ID       `db:"id" json:"id"`
	PurchaseID  id.ID       `db:"purchase_id" json:"purchaseId"`
	LineNo      int         `db:"line_no" json:"lineNo"`
	ProductID   id.ID       `db:"product_id" json:"productId"`
	ProductCode string      `db:"product_code" json:"productCode"`
	ProductName string      `db:"product_name" json:"productName"`
	Quantity    int64       `db:"quantity" json:"quantity"`
	UnitCost    types.Money `db:"unit_cost" json:"unitCost"`
	LineTotal   types.Money `db:"line_total" json:"lineTotal"`
}

// Item is one requested invoice line.
type Item struct {
	ProductID id.ID
	Quantity  int64
	UnitCost  types.Money
}

// Request is a purchase to register. A nil Tax means zero.
type Request struct {
	InvoiceNumber string
	SupplierID    id.ID
	ActorID       id.ID
	Items         []Item
	Tax           *types.Money
	Notes         string
}

// Receipt is returned once the purchase is committed.
type Receipt struct {
	PurchaseID    id.ID       `json:"purchaseId"`
	InvoiceNumber string      `json:"invoiceNumber"`
	Total         types.Money `json:"total"`
	LineCount     int         `json:"lineCount"`
}

func (r *Request) validateShape() error {
	r.InvoiceNumber = strings.TrimSpace(r.InvoiceNumber)
	if r.InvoiceNumber == "" {
		return apperror.NewValidation("invoice number is required").WithDetail("field", "invoice_number")
	}
	if len(r.Items) == 0 {
		return apperror.NewValidation("purchase must contain at least one item").WithDetail("field", "items")
	}
	if r.Tax != nil && r.Tax.IsNegative() {
		return apperror.NewValidation("tax cannot be negative").WithDetail("field", "tax")
	}
	for i, item := range r.Items {
		if id.IsNil(item.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if item.Quantity <= 0 {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if item.UnitCost.IsNegative() {
			return apperror.NewValidation("unit cost cannot be negative").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
	}
	return nil
}

// MonthSummary aggregates the purchases of one calendar month.
type MonthSummary struct {
	Year           int         `db:"-" json:"year"`
	Month          int         `db:"-" json:"month"`
	PurchasesCount int64       `db:"purchases_count" json:"purchasesCount"`
	Spent          types.Money `db:"spent" json:"spent"`
	Average        types.Money `db:"average" json:"average"`
}
