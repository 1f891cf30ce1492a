package dto

import (
	"time"

	"revengepos/internal/core/apperror"
	"revengepos/internal/core/id"
	"revengepos/internal/core/types"
	"revengepos/internal/domain/documents/purchase"
	"revengepos/internal/domain/documents/sale"
)

// --- Sales ---

// CreateSaleRequest registers a ticket. The cashier is the token subject.
type CreateSaleRequest struct {
	Items           []SaleItemRequest `json:"items" binding:"required,min=1,dive"`
	PaymentMethodID string            `json:"paymentMethodId" binding:"required"`
	Discount        types.Money       `json:"discount" binding:"money"`
	Tax             *types.Money      `json:"tax" binding:"omitempty,money"`
	Notes           string            `json:"notes" binding:"max=1000"`
}

// SaleItemRequest is one cart line. Without unitPrice the current sale price applies.
type SaleItemRequest struct {
	ProductID    string       `json:"productId" binding:"required"`
	Quantity     int64        `json:"quantity" binding:"required,gt=0"`
	UnitPrice    *types.Money `json:"unitPrice" binding:"omitempty,money"`
	UnitDiscount types.Money  `json:"unitDiscount" binding:"money"`
}

// ToDomain converts the request for cashierID.
func (r *CreateSaleRequest) ToDomain(cashierID id.ID) (sale.Request, error) {
	paymentID, err := ParseID("paymentMethodId", r.PaymentMethodID)
	if err != nil {
		return sale.Request{}, err
	}

	items := make([]sale.CartItem, len(r.Items))
	for i, item := range r.Items {
		productID, err := id.Parse(item.ProductID)
		if err != nil {
			return sale.Request{}, apperror.NewValidation("invalid id format").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		items[i] = sale.CartItem{
			ProductID:    productID,
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPrice,
			UnitDiscount: item.UnitDiscount,
		}
	}

	return sale.Request{
		CashierID:       cashierID,
		Items:           items,
		PaymentMethodID: paymentID,
		Discount:        r.Discount,
		Tax:             r.Tax,
		Notes:           r.Notes,
	}, nil
}

// ListSalesQuery filters sale listings. Dates are YYYY-MM-DD, "to" inclusive.
type ListSalesQuery struct {
	CashierID string `form:"cashierId"`
	From      string `form:"from"`
	To        string `form:"to"`
	Limit     int    `form:"limit" binding:"min=0,max=1000"`
	Offset    int    `form:"offset" binding:"min=0"`
}

// ToFilter converts the query.
func (q *ListSalesQuery) ToFilter() (sale.ListFilter, error) {
	from, to, err := ParseDateRange(q.From, q.To)
	if err != nil {
		return sale.ListFilter{}, err
	}
	var cashierID *id.ID
	if q.CashierID != "" {
		if cashierID, err = ParseOptionalID("cashierId", &q.CashierID); err != nil {
			return sale.ListFilter{}, err
		}
	}
	return sale.ListFilter{
		CashierID: cashierID,
		From:      from,
		To:        to,
		Limit:     q.Limit,
		Offset:    q.Offset,
	}, nil
}

// CommissionQuery selects the period and rate of a commission calculation.
// rate is a fraction, e.g. 0.02; empty means the default rate.
type CommissionQuery struct {
	From string `form:"from"`
	To   string `form:"to"`
	Rate string `form:"rate"`
}

// ParseRate returns the requested rate or zero.
func (q *CommissionQuery) ParseRate() (types.Money, error) {
	if q.Rate == "" {
		return types.Zero(), nil
	}
	rate, err := types.NewMoneyFromString(q.Rate)
	if err != nil || rate.IsNegative() {
		return types.Zero(), apperror.NewValidation("invalid commission rate").
			WithDetail("field", "rate").
			WithDetail("value", q.Rate)
	}
	return rate, nil
}

// --- Purchases ---

// CreatePurchaseRequest registers a supplier invoice. The actor is the token subject.
type CreatePurchaseRequest struct {
	InvoiceNumber string                `json:"invoiceNumber" binding:"required,max=64"`
	SupplierID    string                `json:"supplierId" binding:"required"`
	Items         []PurchaseItemRequest `json:"items" binding:"required,min=1,dive"`
	Tax           *types.Money          `json:"tax" binding:"omitempty,money"`
	Notes         string                `json:"notes" binding:"max=1000"`
}

// PurchaseItemRequest is one invoice line.
type PurchaseItemRequest struct {
	ProductID string      `json:"productId" binding:"required"`
	Quantity  int64       `json:"quantity" binding:"required,gt=0"`
	UnitCost  types.Money `json:"unitCost" binding:"money"`
}

// ToDomain converts the request for actorID.
func (r *CreatePurchaseRequest) ToDomain(actorID id.ID) (purchase.Request, error) {
	supplierID, err := ParseID("supplierId", r.SupplierID)
	if err != nil {
		return purchase.Request{}, err
	}

	items := make([]purchase.Item, len(r.Items))
	for i, item := range r.Items {
		productID, err := id.Parse(item.ProductID)
		if err != nil {
			return purchase.Request{}, apperror.NewValidation("invalid id format").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		items[i] = purchase.Item{
			ProductID: productID,
			Quantity:  item.Quantity,
			UnitCost:  item.UnitCost,
		}
	}

	return purchase.Request{
		InvoiceNumber: r.InvoiceNumber,
		SupplierID:    supplierID,
		ActorID:       actorID,
		Items:         items,
		Tax:           r.Tax,
		Notes:         r.Notes,
	}, nil
}

// ListPurchasesQuery filters purchase listings.
type ListPurchasesQuery struct {
	SupplierID string `form:"supplierId"`
	From       string `form:"from"`
	To         string `form:"to"`
	Limit      int    `form:"limit" binding:"min=0,max=1000"`
	Offset     int    `form:"offset" binding:"min=0"`
}

// ToFilter converts the query.
func (q *ListPurchasesQuery) ToFilter() (purchase.ListFilter, error) {
	from, to, err := ParseDateRange(q.From, q.To)
	if err != nil {
		return purchase.ListFilter{}, err
	}
	var supplierID *id.ID
	if q.SupplierID != "" {
		if supplierID, err = ParseOptionalID("supplierId", &q.SupplierID); err != nil {
			return purchase.ListFilter{}, err
		}
	}
	return purchase.ListFilter{
		SupplierID: supplierID,
		From:       from,
		To:         to,
		Limit:      q.Limit,
		Offset:     q.Offset,
	}, nil
}

// --- Dates ---

// DateLayout is the calendar date format accepted in query strings.
const DateLayout = "2006-01-02"

// ParseDate parses an optional YYYY-MM-DD value as UTC midnight.
func ParseDate(field, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(DateLayout, raw, time.UTC)
	if err != nil {
		return nil, apperror.NewValidation("invalid date, expected YYYY-MM-DD").
			WithDetail("field", field).
			WithDetail("value", raw)
	}
	return &t, nil
}

// ParseDateRange parses a closed day range into the half-open [from, to+1d)
// timestamps used by the repositories.
func ParseDateRange(fromRaw, toRaw string) (from, to *time.Time, err error) {
	if from, err = ParseDate("from", fromRaw); err != nil {
		return nil, nil, err
	}
	if to, err = ParseDate("to", toRaw); err != nil {
		return nil, nil, err
	}
	if from != nil && to != nil && from.After(*to) {
		return nil, nil, apperror.NewValidation("from must not be after to")
	}
	if to != nil {
		next := to.AddDate(0, 0, 1)
		to = &next
	}
	return from, to, nil
}
