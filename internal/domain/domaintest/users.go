package domaintest

import (
	"context"
	"sync"

	"revengepos/internal/core/apperror"
	"revengepos/internal/core/entity"
	"revengepos/internal/core/id"
	"revengepos/internal/domain"
	"revengepos/internal/domain/auth"
)

var _ auth.UserRepository = (*Users)(nil)

// Users is an in-memory auth.UserRepository.
type Users struct {
	mu    sync.Mutex
	users map[id.ID]auth.User
}

// NewUsers creates an empty user store.
func NewUsers() *Users {
	return &Users{users: map[id.ID]auth.User{}}
}

// Add seeds an active user.
func (r *Users) Add(username string, role auth.Role) *auth.User {
	u := auth.NewUser(username, username, role)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = *u
	return u
}

func (r *Users) Create(_ context.Context, u *auth.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = *u
	return nil
}

func (r *Users) GetByID(_ context.Context, userID id.ID) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, apperror.NewNotFound("users", userID.String())
	}
	return &u, nil
}

func (r *Users) Update(ctx context.Context, u *auth.User) error {
	return r.Create(ctx, u)
}

func (r *Users) SetLifecycle(_ context.Context, userID id.ID, l entity.Lifecycle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return apperror.NewNotFound("users", userID.String())
	}
	u.SetLifecycle(l)
	r.users[userID] = u
	return nil
}

func (r *Users) List(context.Context, domain.ListFilter) (domain.ListResult[*auth.User], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []*auth.User
	for _, u := range r.users {
		if u.Lifecycle.Visible() {
			items = append(items, &u)
		}
	}
	return domain.ListResult[*auth.User]{Items: items, TotalCount: int64(len(items))}, nil
}

func (r *Users) Exists(_ context.Context, userID id.ID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	return ok && u.Lifecycle.Visible(), nil
}

func (r *Users) GetByUsername(_ context.Context, username string) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, apperror.NewNotFound("users", username)
}

func (r *Users) ListByRole(_ context.Context, role auth.Role) ([]*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*auth.User
	for _, u := range r.users {
		if u.RoleID == role && u.Lifecycle.Visible() {
			out = append(out, &u)
		}
	}
	return out, nil
}

// Lookup is an in-memory existence check for payment methods and suppliers.
type Lookup map[id.ID]bool

// Add registers an existing id.
func (l Lookup) Add() id.ID {
	v := id.New()
	l[v] = true
	return v
}

// Exists reports whether the id was added.
func (l Lookup) Exists(_ context.Context, v id.ID) (bool, error) {
	return l[v], nil
}
