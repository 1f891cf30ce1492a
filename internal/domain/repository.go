// Package domain provides the interfaces and generic services shared by the
// catalog packages (products, categories, suppliers, payment methods).
package domain

import (
	"context"

	"revengepos/internal/core/entity"
	"revengepos/internal/core/id"
	"revengepos/internal/domain/filter"
)

// --- Filter & Pagination ---

// ListFilter contains common filtering options for list operations.
type ListFilter struct {
	// Search matches name or code (ILIKE)
	Search string

	IDs []id.ID

	// Lifecycle restricts to one state; when nil deleted rows are hidden
	// unless IncludeDeleted is set.
	Lifecycle      *entity.Lifecycle
	IncludeDeleted bool

	// CategoryID filters products by category
	CategoryID *id.ID

	AdvancedFilters []filter.Item

	// OrderBy is a column name, "-" prefix for descending
	OrderBy string

	Limit  int
	Offset int
}

// DefaultListFilter returns sensible defaults.
func DefaultListFilter() ListFilter {
	return ListFilter{
		Limit:   50,
		OrderBy: "name",
	}
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// CatalogEntity is implemented by every editable reference row.
type CatalogEntity interface {
	entity.Validatable
	GetID() id.ID
	GetLifecycle() entity.Lifecycle
	SetLifecycle(l entity.Lifecycle)
	Touch()
}

// --- Repository Interfaces ---

// CatalogRepository defines persistence for catalog entities.
// Rows are never hard-deleted; Delete is SetLifecycle(deleted).
type CatalogRepository[T CatalogEntity] interface {
	Create(ctx context.Context, entity T) error

	// GetByID returns deleted rows too; callers decide visibility.
	GetByID(ctx context.Context, id id.ID) (T, error)

	Update(ctx context.Context, entity T) error

	SetLifecycle(ctx context.Context, id id.ID, lifecycle entity.Lifecycle) error

	List(ctx context.Context, filter ListFilter) (ListResult[T], error)

	// Exists reports whether a non-deleted row exists.
	Exists(ctx context.Context, id id.ID) (bool, error)
}

// --- Hooks ---

// HookEvent represents lifecycle event type.
type HookEvent string

const (
	BeforeCreate HookEvent = "before_create"
	AfterCreate  HookEvent = "after_create"
	BeforeUpdate HookEvent = "before_update"
	AfterUpdate  HookEvent = "after_update"
	BeforeDelete HookEvent = "before_delete"
	AfterDelete  HookEvent = "after_delete"
)

// Hook is a function that runs at specific lifecycle points.
type Hook[T any] func(ctx context.Context, entity T) error

// HookRegistry stores lifecycle hooks for an entity type.
type HookRegistry[T any] struct {
	hooks map[HookEvent][]Hook[T]
}

// NewHookRegistry creates an empty hook registry.
func NewHookRegistry[T any]() *HookRegistry[T] {
	return &HookRegistry[T]{
		hooks: make(map[HookEvent][]Hook[T]),
	}
}

// On registers a hook for the specified event.
func (r *HookRegistry[T]) On(event HookEvent, hook Hook[T]) {
	r.hooks[event] = append(r.hooks[event], hook)
}

// Run executes hooks for event in registration order, stopping at the first error.
func (r *HookRegistry[T]) Run(ctx context.Context, event HookEvent, entity T) error {
	for _, hook := range r.hooks[event] {
		if err := hook(ctx, entity); err != nil {
			return err
		}
	}
	return nil
}

// OnBeforeCreate registers a hook to run before create.
func (r *HookRegistry[T]) OnBeforeCreate(hook Hook[T]) { r.On(BeforeCreate, hook) }

// OnAfterCreate registers a hook to run after create.
func (r *HookRegistry[T]) OnAfterCreate(hook Hook[T]) { r.On(AfterCreate, hook) }

// OnBeforeUpdate registers a hook to run before update.
func (r *HookRegistry[T]) OnBeforeUpdate(hook Hook[T]) { r.On(BeforeUpdate, hook) }

// OnAfterUpdate registers a hook to run after update.
func (r *HookRegistry[T]) OnAfterUpdate(hook Hook[T]) { r.On(AfterUpdate, hook) }

// OnBeforeDelete registers a hook to run before delete. Delete guards live here.
func (r *HookRegistry[T]) OnBeforeDelete(hook Hook[T]) { r.On(BeforeDelete, hook) }

// OnAfterDelete registers a hook to run after delete.
func (r *HookRegistry[T]) OnAfterDelete(hook Hook[T]) { r.On(AfterDelete, hook) }

// LookupFunc adapts a function to the Exists lookups the orchestrators use.
type LookupFunc func(ctx context.Context, id id.ID) (bool, error)

// Exists calls f.
func (f LookupFunc) Exists(ctx context.Context, id id.ID) (bool, error) {
	return f(ctx, id)
}
