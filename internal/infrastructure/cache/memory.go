// Package cache implements the read cache: an unbounded in-process L1 and an
// optional redis L2 that also broadcasts invalidations to peer processes.
package cache

import (
	"context"
	"sync"
	"sync/atomic"

	"revengepos/internal/core/id"
	"revengepos/internal/core/types"
	"revengepos/internal/domain/auth"
	"revengepos/internal/domain/catalogs/product"
	"revengepos/internal/domain/readcache"
)

var _ readcache.Cache = (*Memory)(nil)

// Memory is the L1 cache. It has no TTL and no eviction; entries leave only
// through invalidation. Stored values are copies, so callers may mutate what
// they get back.
//
// Every invalidation bumps a generation counter under the same lock that
// guards puts, so a fill that read storage before a commit can never store
// its snapshot after that commit's invalidation.
type Memory struct {
	mu       sync.RWMutex
	products map[id.ID]*product.Product
	codes    map[string]id.ID
	users    map[id.ID]*auth.User

	productGen uint64
	userGen    uint64

	hits   atomic.Int64
	misses atomic.Int64
}

// NewMemory creates an empty L1 cache.
func NewMemory() *Memory {
	return &Memory{
		products: make(map[id.ID]*product.Product),
		codes:    make(map[string]id.ID),
		users:    make(map[id.ID]*auth.User),
	}
}

// GetProduct implements product.Cache.
func (m *Memory) GetProduct(_ context.Context, productID id.ID) (*product.Product, bool) {
	m.mu.RLock()
	p, ok := m.products[productID]
	m.mu.RUnlock()
	return m.record(p, ok)
}

// GetProductByCode implements product.Cache.
func (m *Memory) GetProductByCode(_ context.Context, code string) (*product.Product, bool) {
	m.mu.RLock()
	var p *product.Product
	pid, ok := m.codes[code]
	if ok {
		p, ok = m.products[pid]
	}
	m.mu.RUnlock()
	return m.record(p, ok)
}

func (m *Memory) record(p *product.Product, ok bool) (*product.Product, bool) {
	if !ok {
		m.misses.Add(1)
		return nil, false
	}
	m.hits.Add(1)
	return p.Clone(), true
}

// ProductGeneration implements product.Cache.
func (m *Memory) ProductGeneration(context.Context) types.Generation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return types.Generation{Local: m.productGen}
}

// PutProduct implements product.Cache. A previous code of the same product
// is dropped from the code index.
func (m *Memory) PutProduct(_ context.Context, p *product.Product, gen types.Generation) {
	if p == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen.Local != m.productGen {
		return
	}
	if old, ok := m.products[p.ID]; ok && old.Code != p.Code {
		delete(m.codes, old.Code)
	}
	m.products[p.ID] = p.Clone()
	m.codes[p.Code] = p.ID
}

// InvalidateProduct implements product.Cache.
func (m *Memory) InvalidateProduct(_ context.Context, productID id.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.productGen++
	if old, ok := m.products[productID]; ok {
		if m.codes[old.Code] == productID {
			delete(m.codes, old.Code)
		}
		delete(m.products, productID)
	}
}

// CachedStock implements ledger.StockCache. It does not count towards stats.
func (m *Memory) CachedStock(_ context.Context, productID id.ID) (int64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[productID]
	if !ok {
		return 0, false
	}
	return p.Stock, true
}

// GetUser implements auth.UserCache.
func (m *Memory) GetUser(_ context.Context, userID id.ID) (*auth.User, bool) {
	m.mu.RLock()
	u, ok := m.users[userID]
	m.mu.RUnlock()
	if !ok {
		m.misses.Add(1)
		return nil, false
	}
	m.hits.Add(1)
	c := *u
	return &c, true
}

// UserGeneration implements auth.UserCache.
func (m *Memory) UserGeneration(context.Context) types.Generation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return types.Generation{Local: m.userGen}
}

// PutUser implements auth.UserCache.
func (m *Memory) PutUser(_ context.Context, u *auth.User, gen types.Generation) {
	if u == nil {
		return
	}
	c := *u
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen.Local != m.userGen {
		return
	}
	m.users[u.ID] = &c
}

// InvalidateUser implements auth.UserCache.
func (m *Memory) InvalidateUser(_ context.Context, userID id.ID) {
	m.mu.Lock()
	m.userGen++
	delete(m.users, userID)
	m.mu.Unlock()
}

// Clear drops every entry. Counters are kept.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.productGen++
	m.userGen++
	clear(m.products)
	clear(m.codes)
	clear(m.users)
}

// Stats implements readcache.Cache.
func (m *Memory) Stats() readcache.Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return readcache.Stats{
		Hits:     m.hits.Load(),
		Misses:   m.misses.Load(),
		Products: len(m.products),
		Codes:    len(m.codes),
		Users:    len(m.users),
	}
}
