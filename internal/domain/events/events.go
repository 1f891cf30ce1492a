// Package events lists the domain events written to the transactional outbox.
package events

import (
	"context"

	"revengepos/internal/core/id"
)

// Event types.
const (
	SaleCreated     = "sale.created"
	PurchaseCreated = "purchase.created"
	StockLow        = "stock.low"
)

// Event is written in the same transaction as the change it describes.
type Event struct {
	AggregateType string
	AggregateID   id.ID
	EventType     string
	Payload       any
}

// Publisher appends events to the outbox of the current transaction.
type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
}

// Nop drops events.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, ...Event) error { return nil }

// DocumentCreatedPayload is the payload of sale.created and purchase.created.
type DocumentCreatedPayload struct {
	ID        id.ID  `json:"id"`
	Number    string `json:"number"`
	ActorID   id.ID  `json:"actorId"`
	Total     string `json:"total"`
	LineCount int    `json:"lineCount"`
}

// StockLowPayload is the payload of stock.low.
type StockLowPayload struct {
	ProductID    id.ID  `json:"productId"`
	Code         string `json:"code"`
	Name         string `json:"name"`
	Stock        int64  `json:"stock"`
	StockMinimum int64  `json:"stockMinimum"`
}

// NewStockLow builds a stock.low event when stock fell to or below the minimum.
// A product without a minimum (0) only alerts when it runs out.
func NewStockLow(p StockLowPayload) (Event, bool) {
	if p.Stock > p.StockMinimum {
		return Event{}, false
	}
	return Event{
		AggregateType: "product",
		AggregateID:   p.ProductID,
		EventType:     StockLow,
		Payload:       p,
	}, true
}
