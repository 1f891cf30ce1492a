// Package audit defines how services record attribute changes of catalog rows.
package audit

import (
	"context"

	"revengepos/internal/core/id"
)

// Action is the kind of change recorded.
type Action string

const (
	ActionCreate    Action = "create"
	ActionUpdate    Action = "update"
	ActionDelete    Action = "delete"
	ActionLifecycle Action = "lifecycle"
	ActionCostRaise Action = "cost_raise"
)

// Recorder stores the difference between two snapshots of an entity.
// It joins the transaction carried by ctx.
type Recorder interface {
	LogChange(ctx context.Context, entityType string, entityID id.ID, action Action, before, after map[string]any) error
}

// Nop discards every change.
type Nop struct{}

// LogChange implements Recorder.
func (Nop) LogChange(context.Context, string, id.ID, Action, map[string]any, map[string]any) error {
	return nil
}
