// Package product provides the product catalog: prices, category and the
// stock figure owned by the inventory ledger.
package product

import (
	"context"
	"strings"

	"revengepos/internal/core/apperror"
	"revengepos/internal/core/entity"
	"revengepos/internal/core/id"
	"revengepos/internal/core/types"
)

// Product is a sellable item. Stock is written only by the ledger.
type Product struct {
	entity.BaseCatalog

	// Code is the business key, usually the barcode.
	Code        string `db:"code" json:"code"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`

	CategoryID *id.ID `db:"category_id" json:"categoryId,omitempty"`

	CostPrice types.Money `db:"cost_price" json:"costPrice"`
	SalePrice types.Money `db:"sale_price" json:"salePrice"`

	Stock        int64 `db:"stock" json:"stock"`
	StockMinimum int64 `db:"stock_minimum" json:"stockMinimum"`
}

// NewProduct creates an active product with zero stock.
func NewProduct(code, name string, costPrice, salePrice types.Money) *Product {
	return &Product{
		BaseCatalog: entity.NewBaseCatalog(),
		Code:        strings.TrimSpace(code),
		Name:        strings.TrimSpace(name),
		CostPrice:   costPrice,
		SalePrice:   salePrice,
	}
}

// Validate implements entity.Validatable.
func (p *Product) Validate(_ context.Context) error {
	if p.Code == "" {
		return apperror.NewValidation("code is required").WithDetail("field", "code")
	}
	if len(p.Code) > 64 {
		return apperror.NewValidation("code is too long").WithDetail("field", "code").WithDetail("max", 64)
	}
	if p.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if p.CostPrice.IsNegative() {
		return apperror.NewValidation("cost price cannot be negative").WithDetail("field", "cost_price")
	}
	if p.SalePrice.IsNegative() {
		return apperror.NewValidation("sale price cannot be negative").WithDetail("field", "sale_price")
	}
	if p.SalePrice.LessThan(p.CostPrice) {
		return apperror.NewValidation("sale price must not be lower than cost price").
			WithDetail("field", "sale_price").
			WithDetail("cost_price", p.CostPrice.StringFixed(types.MoneyPlaces)).
			WithDetail("sale_price", p.SalePrice.StringFixed(types.MoneyPlaces))
	}
	if p.Stock < 0 {
		return apperror.NewValidation("stock cannot be negative").WithDetail("field", "stock")
	}
	if p.StockMinimum < 0 {
		return apperror.NewValidation("stock minimum cannot be negative").WithDetail("field", "stock_minimum")
	}
	return nil
}

// IsLowStock reports whether stock has reached the reorder threshold.
func (p *Product) IsLowStock() bool {
	return p.Stock <= p.StockMinimum
}

// Clone returns a copy safe to hand out of a cache.
func (p *Product) Clone() *Product {
	c := *p
	if p.CategoryID != nil {
		cid := *p.CategoryID
		c.CategoryID = &cid
	}
	return &c
}

// AuditSnapshot is the field set recorded in the audit log.
func (p *Product) AuditSnapshot() map[string]any {
	snap := map[string]any{
		"code":          p.Code,
		"name":          p.Name,
		"description":   p.Description,
		"cost_price":    p.CostPrice.StringFixed(types.MoneyPlaces),
		"sale_price":    p.SalePrice.StringFixed(types.MoneyPlaces),
		"stock_minimum": p.StockMinimum,
		"lifecycle":     string(p.Lifecycle),
	}
	if p.CategoryID != nil {
		snap["category_id"] = p.CategoryID.String()
	}
	return snap
}

// Valuation summarizes inventory value over visible products.
type Valuation struct {
	Products  int64       `db:"products" json:"products"`
	Units     int64       `db:"units" json:"units"`
	CostValue types.Money `db:"cost_value" json:"costValue"`
	SaleValue types.Money `db:"sale_value" json:"saleValue"`
}
