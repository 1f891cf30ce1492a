package domain

import (
	"context"

	appctx "revengepos/internal/core/context"
	"revengepos/internal/core/id"
)

// ActorID returns the authenticated user of ctx, or nil for system work
// (seeding, worker jobs) and malformed ids.
func ActorID(ctx context.Context) *id.ID {
	raw := appctx.OperatorID(ctx)
	if raw == "" {
		return nil
	}
	v, err := id.Parse(raw)
	if err != nil {
		return nil
	}
	return &v
}
