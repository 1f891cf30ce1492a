package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revengepos/internal/core/types"
	"revengepos/internal/domain/auth"
	"revengepos/internal/domain/catalogs/product"
)

func newProduct(code string, stock int64) *product.Product {
	p := product.NewProduct(code, "Item "+code, types.MustMoney("1.00"), types.MustMoney("1.50"))
	p.Stock = stock
	return p
}

func TestMemory_ProductRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	p := newProduct("775001", 8)

	_, ok := m.GetProduct(ctx, p.ID)
	assert.False(t, ok)

	m.PutProduct(ctx, p, m.ProductGeneration(ctx))

	got, ok := m.GetProduct(ctx, p.ID)
	require.True(t, ok)
	assert.Equal(t, "775001", got.Code)

	byCode, ok := m.GetProductByCode(ctx, "775001")
	require.True(t, ok)
	assert.Equal(t, p.ID, byCode.ID)

	stock, ok := m.CachedStock(ctx, p.ID)
	require.True(t, ok)
	assert.Equal(t, int64(8), stock)

	s := m.Stats()
	assert.Equal(t, int64(2), s.Hits)
	assert.Equal(t, int64(1), s.Misses)
	assert.Equal(t, 1, s.Products)
	assert.Equal(t, 1, s.Codes)
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	p := newProduct("A", 3)
	m.PutProduct(ctx, p, m.ProductGeneration(ctx))

	p.Stock = 100
	got, _ := m.GetProduct(ctx, p.ID)
	assert.Equal(t, int64(3), got.Stock)

	got.Stock = 50
	again, _ := m.GetProduct(ctx, p.ID)
	assert.Equal(t, int64(3), again.Stock)
}

func TestMemory_InvalidateDropsCodeIndex(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	p := newProduct("A", 3)
	m.PutProduct(ctx, p, m.ProductGeneration(ctx))

	m.InvalidateProduct(ctx, p.ID)

	_, ok := m.GetProduct(ctx, p.ID)
	assert.False(t, ok)
	_, ok = m.GetProductByCode(ctx, "A")
	assert.False(t, ok)
	_, ok = m.CachedStock(ctx, p.ID)
	assert.False(t, ok)
	assert.Zero(t, m.Stats().Codes)
}

func TestMemory_CodeChangeReindexes(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	p := newProduct("OLD", 1)
	m.PutProduct(ctx, p, m.ProductGeneration(ctx))

	renamed := p.Clone()
	renamed.Code = "NEW"
	m.PutProduct(ctx, renamed, m.ProductGeneration(ctx))

	_, ok := m.GetProductByCode(ctx, "OLD")
	assert.False(t, ok)
	got, ok := m.GetProductByCode(ctx, "NEW")
	require.True(t, ok)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, 1, m.Stats().Codes)
}

func TestMemory_InvalidateUnknownIsNoop(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	a := newProduct("A", 1)
	m.PutProduct(ctx, a, m.ProductGeneration(ctx))

	m.InvalidateProduct(ctx, newProduct("B", 1).ID)
	_, ok := m.GetProduct(ctx, a.ID)
	assert.True(t, ok)
}

func TestMemory_Users(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	u := auth.NewUser("cajero1", "Cajero Uno", auth.RoleCashier)

	m.PutUser(ctx, u, m.UserGeneration(ctx))
	got, ok := m.GetUser(ctx, u.ID)
	require.True(t, ok)
	assert.Equal(t, auth.RoleCashier, got.RoleID)

	m.InvalidateUser(ctx, u.ID)
	_, ok = m.GetUser(ctx, u.ID)
	assert.False(t, ok)
}

func TestMemory_Clear(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.PutProduct(ctx, newProduct("A", 1), m.ProductGeneration(ctx))
	m.PutUser(ctx, auth.NewUser("admin", "Admin", auth.RoleAdmin), m.UserGeneration(ctx))

	m.Clear()
	s := m.Stats()
	assert.Zero(t, s.Products)
	assert.Zero(t, s.Codes)
	assert.Zero(t, s.Users)
}

func TestStats_HitRate(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	assert.Zero(t, m.Stats().HitRate())

	p := newProduct("A", 1)
	m.PutProduct(ctx, p, m.ProductGeneration(ctx))
	m.GetProduct(ctx, p.ID)
	m.GetProductByCode(ctx, "missing")
	assert.InDelta(t, 0.5, m.Stats().HitRate(), 0.0001)
}

func TestMemory_FillRacingInvalidationIsDropped(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	p := newProduct("A", 10)

	// A reader misses and loads stock=10 from storage...
	gen := m.ProductGeneration(ctx)
	loaded := p.Clone()

	// ...while a sale commits stock=7 and invalidates.
	m.InvalidateProduct(ctx, p.ID)

	m.PutProduct(ctx, loaded, gen)
	_, ok := m.GetProduct(ctx, p.ID)
	assert.False(t, ok)
	_, ok = m.CachedStock(ctx, p.ID)
	assert.False(t, ok)

	// the next fill starts after the commit and is kept
	fresh := p.Clone()
	fresh.Stock = 7
	m.PutProduct(ctx, fresh, m.ProductGeneration(ctx))
	stock, ok := m.CachedStock(ctx, p.ID)
	require.True(t, ok)
	assert.Equal(t, int64(7), stock)
}

func TestMemory_UserFillRacingInvalidationIsDropped(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	u := auth.NewUser("cajero1", "Cajero Uno", auth.RoleCashier)

	gen := m.UserGeneration(ctx)
	m.InvalidateUser(ctx, u.ID)
	m.PutUser(ctx, u, gen)

	_, ok := m.GetUser(ctx, u.ID)
	assert.False(t, ok)
}

func TestMemory_ClearDropsPendingFills(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	gen := m.ProductGeneration(ctx)
	m.Clear()

	m.PutProduct(ctx, newProduct("A", 1), gen)
	assert.Zero(t, m.Stats().Products)
}
