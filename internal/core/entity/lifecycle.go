package entity

import (
	"fmt"
)

// Lifecycle is the single state of a catalog row. It replaces the pair of a
// nullable deleted_at timestamp and a separate status code.
type Lifecycle string

const (
	LifecycleActive   Lifecycle = "active"
	LifecycleInactive Lifecycle = "inactive"
	LifecycleDeleted  Lifecycle = "deleted"
)

// ParseLifecycle validates a lifecycle string.
func ParseLifecycle(s string) (Lifecycle, error) {
	switch l := Lifecycle(s); l {
	case LifecycleActive, LifecycleInactive, LifecycleDeleted:
		return l, nil
	default:
		return "", fmt.Errorf("unknown lifecycle %q", s)
	}
}

// CanTransitionTo reports whether moving from l to next is allowed.
// Deleted is terminal.
func (l Lifecycle) CanTransitionTo(next Lifecycle) bool {
	if l == LifecycleDeleted {
		return false
	}
	return next != l
}

// Visible reports whether the row shows up in default queries.
func (l Lifecycle) Visible() bool {
	return l != LifecycleDeleted
}
