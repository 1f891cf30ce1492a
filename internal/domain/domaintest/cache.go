package domaintest

import (
	"context"
	"sync"

	"revengepos/internal/core/id"
	"revengepos/internal/core/tx/txtest"
	"revengepos/internal/core/types"
	"revengepos/internal/domain/catalogs/product"
)

// Cache is a map-backed product cache that records invalidations and
// whether any of them happened while a fake transaction was open.
type Cache struct {
	mu       sync.Mutex
	products map[id.ID]*product.Product
	gen      uint64

	Invalidated     []id.ID
	InvalidatedInTx int
	Puts            int
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{products: map[id.ID]*product.Product{}}
}

func (c *Cache) GetProduct(_ context.Context, productID id.ID) (*product.Product, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[productID]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

func (c *Cache) GetProductByCode(_ context.Context, code string) (*product.Product, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.products {
		if p.Code == code {
			return p.Clone(), true
		}
	}
	return nil, false
}

func (c *Cache) ProductGeneration(context.Context) types.Generation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return types.Generation{Local: c.gen}
}

// PutProduct drops p when an invalidation happened after gen was read.
func (c *Cache) PutProduct(_ context.Context, p *product.Product, gen types.Generation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen.Local != c.gen {
		return
	}
	c.Puts++
	c.products[p.ID] = p.Clone()
}

func (c *Cache) InvalidateProduct(ctx context.Context, productID id.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if txtest.InTx(ctx) {
		c.InvalidatedInTx++
	}
	c.gen++
	c.Invalidated = append(c.Invalidated, productID)
	delete(c.products, productID)
}

// CachedStock implements ledger.StockCache.
func (c *Cache) CachedStock(ctx context.Context, productID id.ID) (int64, bool) {
	p, ok := c.GetProduct(ctx, productID)
	if !ok {
		return 0, false
	}
	return p.Stock, true
}

// Has reports whether a snapshot is cached.
func (c *Cache) Has(productID id.ID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.products[productID]
	return ok
}
