package auth

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revengepos/internal/core/apperror"
	"revengepos/internal/core/entity"
	"revengepos/internal/core/id"
	"revengepos/internal/core/tx/txtest"
	"revengepos/internal/core/types"
	"revengepos/internal/domain"
)

type fakeUsers struct {
	mu    sync.Mutex
	users map[id.ID]User
	reads int

	// afterRead runs once, after the next GetByID has read its row.
	afterRead func()
}

func newFakeUsers(users ...*User) *fakeUsers {
	r := &fakeUsers{users: map[id.ID]User{}}
	for _, u := range users {
		r.users[u.ID] = *u
	}
	return r
}

func (r *fakeUsers) Create(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = *u
	return nil
}

func (r *fakeUsers) GetByID(_ context.Context, userID id.ID) (*User, error) {
	r.mu.Lock()
	r.reads++
	u, ok := r.users[userID]
	hook := r.afterRead
	r.afterRead = nil
	r.mu.Unlock()

	if !ok {
		return nil, apperror.NewNotFound("users", userID.String())
	}
	if hook != nil {
		hook()
	}
	return &u, nil
}

func (r *fakeUsers) Update(_ context.Context, u *User) error {
	return r.Create(context.Background(), u)
}

func (r *fakeUsers) SetLifecycle(_ context.Context, userID id.ID, l entity.Lifecycle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.users[userID]
	u.Lifecycle = l
	r.users[userID] = u
	return nil
}

func (r *fakeUsers) List(context.Context, domain.ListFilter) (domain.ListResult[*User], error) {
	return domain.ListResult[*User]{}, nil
}

func (r *fakeUsers) Exists(_ context.Context, userID id.ID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	return ok && u.Lifecycle.Visible(), nil
}

func (r *fakeUsers) GetByUsername(_ context.Context, username string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, apperror.NewNotFound("users", username)
}

func (r *fakeUsers) ListByRole(_ context.Context, role Role) ([]*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*User
	for _, u := range r.users {
		if u.RoleID == role && u.Lifecycle.Visible() {
			out = append(out, &u)
		}
	}
	return out, nil
}

type mapCache struct {
	users       map[id.ID]*User
	invalidated []id.ID
	gen         uint64
}

func newMapCache() *mapCache { return &mapCache{users: map[id.ID]*User{}} }

func (c *mapCache) GetUser(_ context.Context, userID id.ID) (*User, bool) {
	u, ok := c.users[userID]
	return u, ok
}

func (c *mapCache) UserGeneration(context.Context) types.Generation {
	return types.Generation{Local: c.gen}
}

func (c *mapCache) PutUser(_ context.Context, u *User, gen types.Generation) {
	if gen.Local == c.gen {
		c.users[u.ID] = u
	}
}

func (c *mapCache) InvalidateUser(_ context.Context, userID id.ID) {
	c.gen++
	delete(c.users, userID)
	c.invalidated = append(c.invalidated, userID)
}

func TestCan(t *testing.T) {
	assert.True(t, Can(RoleAdmin, PermSaleCreate))
	assert.True(t, Can(RoleAdmin, PermPurchaseCreate))
	assert.True(t, Can(RoleCashier, PermSaleCreate))
	assert.False(t, Can(RoleCashier, PermPurchaseCreate))
	assert.False(t, Can(RoleStockWorker, PermSaleCreate))
	assert.True(t, Can(RoleStockWorker, PermPurchaseCreate))
	assert.False(t, Can(Role(9), PermProductRead))
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole("stock_worker")
	require.True(t, ok)
	assert.Equal(t, RoleStockWorker, r)

	_, ok = ParseRole("owner")
	assert.False(t, ok)
}

func TestGate_Authorize(t *testing.T) {
	cashier := NewUser("ana", "Ana Cajera", RoleCashier)
	worker := NewUser("luis", "Luis Almacen", RoleStockWorker)
	inactive := NewUser("old", "Old Cashier", RoleCashier)
	inactive.Lifecycle = entity.LifecycleInactive
	deleted := NewUser("gone", "Gone", RoleAdmin)
	deleted.Lifecycle = entity.LifecycleDeleted

	gate := NewGate(newFakeUsers(cashier, worker, inactive, deleted), nil)
	ctx := context.Background()

	u, err := gate.Authorize(ctx, cashier.ID, PermSaleCreate)
	require.NoError(t, err)
	assert.Equal(t, "ana", u.Username)

	_, err = gate.Authorize(ctx, worker.ID, PermSaleCreate)
	assert.True(t, apperror.HasCode(err, apperror.CodeForbidden))

	_, err = gate.Authorize(ctx, inactive.ID, PermSaleCreate)
	assert.True(t, apperror.HasCode(err, apperror.CodeForbidden))

	_, err = gate.Authorize(ctx, deleted.ID, PermSaleCreate)
	assert.True(t, apperror.IsNotFound(err))

	_, err = gate.GetRole(ctx, id.New())
	assert.True(t, apperror.IsNotFound(err))

	role, err := gate.GetRole(ctx, worker.ID)
	require.NoError(t, err)
	assert.Equal(t, RoleStockWorker, role)
}

func TestGate_ReadThroughCache(t *testing.T) {
	cashier := NewUser("ana", "Ana Cajera", RoleCashier)
	repo := newFakeUsers(cashier)
	cache := newMapCache()
	gate := NewGate(repo, cache)

	for range 3 {
		_, err := gate.GetUser(context.Background(), cashier.ID)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, repo.reads)
	assert.Contains(t, cache.users, cashier.ID)
}

func TestService_LifecycleEvictsCache(t *testing.T) {
	cashier := NewUser("ana", "Ana Cajera", RoleCashier)
	repo := newFakeUsers(cashier)
	cache := newMapCache()
	svc := NewService(repo, txtest.NewManager(), cache)
	gate := NewGate(repo, cache)
	ctx := context.Background()

	_, err := gate.GetUser(ctx, cashier.ID)
	require.NoError(t, err)

	require.NoError(t, svc.SetLifecycle(ctx, cashier.ID, entity.LifecycleInactive))
	assert.Equal(t, []id.ID{cashier.ID}, cache.invalidated)

	_, err = gate.Authorize(ctx, cashier.ID, PermSaleCreate)
	assert.True(t, apperror.HasCode(err, apperror.CodeForbidden))
}

func TestGate_DeactivationDuringLookupIsNotCached(t *testing.T) {
	cashier := NewUser("ana", "Ana Cajera", RoleCashier)
	repo := newFakeUsers(cashier)
	cache := newMapCache()
	svc := NewService(repo, txtest.NewManager(), cache)
	gate := NewGate(repo, cache)
	ctx := context.Background()

	repo.afterRead = func() {
		require.NoError(t, svc.SetLifecycle(ctx, cashier.ID, entity.LifecycleInactive))
	}

	// the lookup itself returns the row it read
	u, err := gate.GetUser(ctx, cashier.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.LifecycleActive, u.Lifecycle)
	assert.NotContains(t, cache.users, cashier.ID)

	_, err = gate.Authorize(ctx, cashier.ID, PermSaleCreate)
	assert.True(t, apperror.HasCode(err, apperror.CodeForbidden))
}

func TestService_CreateRejectsDuplicateUsername(t *testing.T) {
	repo := newFakeUsers(NewUser("ana", "Ana", RoleCashier))
	svc := NewService(repo, txtest.NewManager(), nil)

	err := svc.Create(context.Background(), NewUser("ANA", "Another Ana", RoleCashier))
	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicate))

	err = svc.Create(context.Background(), NewUser("x", "Too Short", RoleCashier))
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	require.NoError(t, svc.Create(context.Background(), NewUser("beto", "Beto", RoleStockWorker)))
}
