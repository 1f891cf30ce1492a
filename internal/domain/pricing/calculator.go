// Package pricing computes document totals. It has no side effects.
package pricing

import (
	"revengepos/internal/core/apperror"
	"revengepos/internal/core/types"
)

// DefaultTaxRate is applied when the caller does not supply a tax amount.
var DefaultTaxRate = types.MustMoney("0.18")

// Line is a validated line item.
type Line struct {
	Quantity     int64
	UnitPrice    types.Money
	UnitDiscount types.Money
}

// Subtotal returns quantity * (unit_price - unit_discount) without rounding.
func (l Line) Subtotal() types.Money {
	return types.MoneyFromInt(l.Quantity).Mul(l.UnitPrice.Sub(l.UnitDiscount))
}

// Input is everything the calculator needs for one document.
type Input struct {
	Lines    []Line
	Discount types.Money

	// Tax, when set, is used verbatim instead of rate * taxable base.
	Tax *types.Money
}

// Totals is the calculated header amounts.
// Total == Subtotal - Discount + Tax.
type Totals struct {
	Subtotal types.Money
	Discount types.Money
	Tax      types.Money
	Total    types.Money
}

// Calculator computes totals with a fixed tax rate.
type Calculator struct {
	rate types.Money
}

// NewCalculator creates a calculator with the given rate. Zero is a valid
// rate and yields no tax.
func NewCalculator(rate types.Money) *Calculator {
	return &Calculator{rate: rate}
}

// NewDefaultCalculator creates a calculator with DefaultTaxRate.
func NewDefaultCalculator() *Calculator {
	return NewCalculator(DefaultTaxRate)
}

// Rate returns the configured tax rate.
func (c *Calculator) Rate() types.Money {
	return c.rate
}

// Calculate returns the totals or INVALID_TOTAL when the total is not positive.
// Line arithmetic keeps full precision; only the computed tax is rounded.
func (c *Calculator) Calculate(in Input) (Totals, error) {
	subtotal := types.Zero()
	for _, l := range in.Lines {
		subtotal = subtotal.Add(l.Subtotal())
	}

	discount := in.Discount
	taxable := subtotal.Sub(discount)

	var tax types.Money
	if in.Tax != nil {
		tax = *in.Tax
	} else {
		tax = types.RoundMoney(taxable.Mul(c.rate))
	}

	totals := Totals{
		Subtotal: subtotal,
		Discount: discount,
		Tax:      tax,
		Total:    subtotal.Sub(discount).Add(tax),
	}
	if !totals.Total.IsPositive() {
		return totals, apperror.NewInvalidTotal(totals.Total.StringFixed(types.MoneyPlaces))
	}
	return totals, nil
}

// CalculatePurchase applies the purchase rule: no discount and a caller
// supplied tax that defaults to zero.
func (c *Calculator) CalculatePurchase(lines []Line, tax *types.Money) (Totals, error) {
	t := types.Zero()
	if tax != nil {
		t = *tax
	}
	return c.Calculate(Input{Lines: lines, Discount: types.Zero(), Tax: &t})
}
