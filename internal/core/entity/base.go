package entity

import (
	"context"
	"time"

	"revengepos/internal/core/id"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants (without database access).
type Validatable interface {
	// Validate checks entity invariants.
	// Returns nil if valid, AppError with details otherwise.
	Validate(ctx context.Context) error
}

// BaseEntity contains the fields shared by every persisted row.
type BaseEntity struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewBaseEntity creates a new BaseEntity with generated ID.
func NewBaseEntity() BaseEntity {
	return BaseEntity{
		ID:        id.New(),
		CreatedAt: time.Now().UTC(),
	}
}

// GetID returns the entity id.
func (b *BaseEntity) GetID() id.ID {
	return b.ID
}

// BaseCatalog is the base for editable reference data (products, categories,
// suppliers, payment methods, users). Rows are never hard-deleted.
type BaseCatalog struct {
	BaseEntity

	Lifecycle Lifecycle `db:"lifecycle" json:"lifecycle"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewBaseCatalog creates an active catalog row.
func NewBaseCatalog() BaseCatalog {
	base := NewBaseEntity()
	return BaseCatalog{
		BaseEntity: base,
		Lifecycle:  LifecycleActive,
		UpdatedAt:  base.CreatedAt,
	}
}

// Touch bumps UpdatedAt.
func (c *BaseCatalog) Touch() {
	c.UpdatedAt = time.Now().UTC()
}

// MarkDeleted moves the row to the terminal deleted state.
func (c *BaseCatalog) MarkDeleted() {
	c.Lifecycle = LifecycleDeleted
	c.Touch()
}

// IsUsable reports whether the row may be referenced by new transactions.
func (c *BaseCatalog) IsUsable() bool {
	return c.Lifecycle == LifecycleActive
}

// GetLifecycle returns the current lifecycle state.
func (c *BaseCatalog) GetLifecycle() Lifecycle {
	return c.Lifecycle
}

// SetLifecycle changes the state and bumps UpdatedAt.
func (c *BaseCatalog) SetLifecycle(l Lifecycle) {
	c.Lifecycle = l
	c.Touch()
}
