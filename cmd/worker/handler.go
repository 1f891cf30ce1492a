package main

import (
	"context"
	"encoding/json"
	"fmt"

	"revengepos/internal/domain/events"
	"revengepos/internal/infrastructure/storage/postgres"
	"revengepos/pkg/logger"
)

// EventHandler delivers outbox messages. Delivery is a structured log line;
// low-stock alerts go out at warn level.
type EventHandler struct {
	lowStockAlerts bool
}

// NewEventHandler creates the handler. With lowStockAlerts off, stock.low
// messages are acknowledged silently.
func NewEventHandler(lowStockAlerts bool) *EventHandler {
	return &EventHandler{lowStockAlerts: lowStockAlerts}
}

var _ postgres.OutboxHandler = (*EventHandler)(nil)

// Handle implements postgres.OutboxHandler. A malformed payload is returned
// as an error so the message is retried and eventually parked in the DLQ.
func (h *EventHandler) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	switch msg.EventType {
	case events.StockLow:
		var p events.StockLowPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("decode %s payload: %w", msg.EventType, err)
		}
		if !h.lowStockAlerts {
			return nil
		}
		logger.Warn(ctx, "low stock alert",
			"product_id", p.ProductID,
			"code", p.Code,
			"name", p.Name,
			"stock", p.Stock,
			"stock_minimum", p.StockMinimum,
		)

	case events.SaleCreated, events.PurchaseCreated:
		var p events.DocumentCreatedPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("decode %s payload: %w", msg.EventType, err)
		}
		logger.Info(ctx, "document recorded",
			"event_type", msg.EventType,
			"id", p.ID,
			"number", p.Number,
			"actor_id", p.ActorID,
			"total", p.Total,
			"lines", p.LineCount,
		)

	default:
		logger.Warn(ctx, "unknown outbox event acknowledged", "event_type", msg.EventType, "id", msg.ID)
	}
	return nil
}
