package auth

import (
	"context"

	"revengepos/internal/core/id"
	"revengepos/internal/core/types"
	"revengepos/internal/domain"
)

// UserRepository persists users.
type UserRepository interface {
	domain.CatalogRepository[*User]

	GetByUsername(ctx context.Context, username string) (*User, error)

	// ListByRole returns non-deleted users holding role.
	ListByRole(ctx context.Context, role Role) ([]*User, error)
}

// UserCache holds user snapshots keyed by id.
type UserCache interface {
	GetUser(ctx context.Context, userID id.ID) (*User, bool)
	UserGeneration(ctx context.Context) types.Generation
	// PutUser stores u unless a user was invalidated after gen was read.
	PutUser(ctx context.Context, u *User, gen types.Generation)
	InvalidateUser(ctx context.Context, userID id.ID)
}
