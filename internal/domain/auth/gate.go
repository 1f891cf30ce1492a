package auth

import (
	"context"

	"revengepos/internal/core/apperror"
	"revengepos/internal/core/entity"
	"revengepos/internal/core/id"
	"revengepos/internal/core/types"
)

// Gate resolves actors and checks their permissions. Lookups go through the
// user cache when one is configured.
type Gate struct {
	users UserRepository
	cache UserCache
}

// NewGate creates a gate. cache may be nil.
func NewGate(users UserRepository, cache UserCache) *Gate {
	return &Gate{users: users, cache: cache}
}

// GetUser returns a non-deleted user or NOT_FOUND.
func (g *Gate) GetUser(ctx context.Context, userID id.ID) (*User, error) {
	var gen types.Generation
	if g.cache != nil {
		if u, ok := g.cache.GetUser(ctx, userID); ok {
			return u, nil
		}
		gen = g.cache.UserGeneration(ctx)
	}

	u, err := g.users.GetByID(ctx, userID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("user", userID.String())
		}
		return nil, err
	}
	if u.Lifecycle == entity.LifecycleDeleted {
		return nil, apperror.NewNotFound("user", userID.String())
	}

	if g.cache != nil {
		g.cache.PutUser(ctx, u, gen)
	}
	return u, nil
}

// GetRole returns the role of a user.
func (g *Gate) GetRole(ctx context.Context, userID id.ID) (Role, error) {
	u, err := g.GetUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	return u.RoleID, nil
}

// RequireActive returns the user when it exists and is active.
func (g *Gate) RequireActive(ctx context.Context, userID id.ID) (*User, error) {
	u, err := g.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Lifecycle != entity.LifecycleActive {
		return nil, apperror.NewForbidden("user is not active").WithDetail("user_id", userID.String())
	}
	return u, nil
}

// Authorize returns the user when it is active and its role holds perm.
func (g *Gate) Authorize(ctx context.Context, userID id.ID, perm Permission) (*User, error) {
	u, err := g.RequireActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !u.Can(perm) {
		return nil, apperror.NewForbidden("role is not allowed to perform this action").
			WithDetail("user_id", userID.String()).
			WithDetail("role", u.RoleID.String()).
			WithDetail("permission", string(perm))
	}
	return u, nil
}
