package domaintest

import (
	"context"
	"slices"
	"sync"

	"revengepos/internal/core/id"
	"revengepos/internal/domain/audit"
	"revengepos/internal/domain/events"
)

// Outbox collects published events. It implements txtest.Participant so
// events of rolled back transactions disappear.
type Outbox struct {
	mu     sync.Mutex
	events []events.Event
}

func (o *Outbox) Publish(_ context.Context, batch ...events.Event) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, batch...)
	return nil
}

func (o *Outbox) Snapshot() func() {
	o.mu.Lock()
	defer o.mu.Unlock()
	saved := slices.Clone(o.events)
	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		o.events = saved
	}
}

// OfType returns the events with the given type.
func (o *Outbox) OfType(eventType string) []events.Event {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []events.Event
	for _, e := range o.events {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

// AuditEntry is one recorded change.
type AuditEntry struct {
	EntityType string
	EntityID   id.ID
	Action     audit.Action
	Before     map[string]any
	After      map[string]any
}

// AuditLog records changes in memory.
type AuditLog struct {
	mu      sync.Mutex
	Entries []AuditEntry
}

func (a *AuditLog) LogChange(_ context.Context, entityType string, entityID id.ID, action audit.Action, before, after map[string]any) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Entries = append(a.Entries, AuditEntry{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Before:     before,
		After:      after,
	})
	return nil
}

// Actions returns the recorded actions in order.
func (a *AuditLog) Actions() []audit.Action {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]audit.Action, len(a.Entries))
	for i, e := range a.Entries {
		out[i] = e.Action
	}
	return out
}

func (a *AuditLog) Snapshot() func() {
	a.mu.Lock()
	defer a.mu.Unlock()
	saved := slices.Clone(a.Entries)
	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		a.Entries = saved
	}
}
