// Package filter describes column conditions that list endpoints accept
// on top of the fixed filters (e.g. ?filter=stock:lte:5).
package filter

import (
	"fmt"
	"strings"
)

// ComparisonType is a comparison operator.
type ComparisonType string

const (
	Equal          ComparisonType = "eq"
	NotEqual       ComparisonType = "neq"
	Less           ComparisonType = "lt"
	LessOrEqual    ComparisonType = "lte"
	Greater        ComparisonType = "gt"
	GreaterOrEqual ComparisonType = "gte"
	Contains       ComparisonType = "contains"
	IsNull         ComparisonType = "null"
	IsNotNull      ComparisonType = "not_null"
)

// Item is one condition.
type Item struct {
	Field    string         `json:"field"`
	Operator ComparisonType `json:"operator"`
	Value    any            `json:"value"`
}

// Parse reads "field:op:value" (value optional for null checks).
func Parse(raw string) (Item, error) {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) < 2 {
		return Item{}, fmt.Errorf("filter %q: want field:op[:value]", raw)
	}
	item := Item{Field: parts[0], Operator: ComparisonType(parts[1])}
	switch item.Operator {
	case IsNull, IsNotNull:
		return item, nil
	case Equal, NotEqual, Less, LessOrEqual, Greater, GreaterOrEqual, Contains:
		if len(parts) != 3 {
			return Item{}, fmt.Errorf("filter %q: missing value", raw)
		}
		item.Value = parts[2]
		return item, nil
	}
	return Item{}, fmt.Errorf("filter %q: unknown operator %q", raw, parts[1])
}
