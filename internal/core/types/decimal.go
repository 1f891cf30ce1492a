// Package types provides common type aliases and utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of fractional digits kept for persisted amounts.
const MoneyPlaces int32 = 2

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// NewMoneyFromString creates a Money value from a string.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// RoundMoney rounds half away from zero to MoneyPlaces.
func RoundMoney(m Money) Money {
	return m.Round(MoneyPlaces)
}

// MoneyFromInt converts a whole quantity to Money for arithmetic with prices.
func MoneyFromInt(v int64) Money {
	return decimal.NewFromInt(v)
}
