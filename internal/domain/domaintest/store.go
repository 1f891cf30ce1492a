// Package domaintest provides in-memory repositories for service tests.
// Store backs both the product catalog and the inventory ledger over the
// same rows, the way both tables live in one database.
package domaintest

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"strings"
	"sync"

	"revengepos/internal/core/apperror"
	"revengepos/internal/core/entity"
	"revengepos/internal/core/id"
	"revengepos/internal/core/types"
	"revengepos/internal/domain"
	"revengepos/internal/domain/catalogs/product"
	"revengepos/internal/domain/ledger"
)

var (
	_ product.Repository = (*Store)(nil)
	_ ledger.Repository  = (*Store)(nil)
)

// Store is an in-memory products and movements store.
// It implements txtest.Participant.
type Store struct {
	mu sync.Mutex

	products  map[id.ID]product.Product
	movements []ledger.Movement

	// LockErrs, when non-empty, is consumed one error per LockStock call.
	LockErrs []error

	Locks int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{products: map[id.ID]product.Product{}}
}

// Snapshot implements txtest.Participant.
func (s *Store) Snapshot() func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	products := maps.Clone(s.products)
	movements := slices.Clone(s.movements)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.products = products
		s.movements = movements
	}
}

// AddProduct seeds an active product with the given stock and no movements.
func (s *Store) AddProduct(code, name string, cost, sale string, stock int64) *product.Product {
	p := product.NewProduct(code, name, types.MustMoney(cost), types.MustMoney(sale))
	p.Stock = stock
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = *p
	return p.Clone()
}

// Product returns the stored row.
func (s *Store) Product(productID id.ID) product.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[productID]
}

// StoredMovements returns every movement in insertion order.
func (s *Store) StoredMovements() []ledger.Movement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.movements)
}

// --- product.Repository ---

func (s *Store) Create(_ context.Context, p *product.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.products {
		if other.Code == p.Code {
			return apperror.NewDuplicate("product", "code", p.Code)
		}
	}
	s.products[p.ID] = *p.Clone()
	return nil
}

func (s *Store) GetByID(_ context.Context, productID id.ID) (*product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return nil, apperror.NewNotFound("products", productID.String())
	}
	return p.Clone(), nil
}

func (s *Store) Update(_ context.Context, p *product.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.products[p.ID]
	if !ok {
		return apperror.NewNotFound("products", p.ID.String())
	}
	updated := *p.Clone()
	updated.Stock = stored.Stock
	s.products[p.ID] = updated
	return nil
}

func (s *Store) SetLifecycle(_ context.Context, productID id.ID, l entity.Lifecycle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return apperror.NewNotFound("products", productID.String())
	}
	p.SetLifecycle(l)
	s.products[productID] = p
	return nil
}

func (s *Store) List(_ context.Context, f domain.ListFilter) (domain.ListResult[*product.Product], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var items []*product.Product
	term := strings.ToLower(f.Search)
	for _, p := range s.products {
		if !p.Lifecycle.Visible() && !f.IncludeDeleted {
			continue
		}
		if f.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *f.CategoryID) {
			continue
		}
		if term != "" && !strings.Contains(strings.ToLower(p.Name), term) && !strings.Contains(strings.ToLower(p.Code), term) {
			continue
		}
		items = append(items, p.Clone())
	}
	slices.SortFunc(items, func(a, b *product.Product) int { return cmp.Compare(a.Name, b.Name) })
	total := int64(len(items))
	if f.Offset > 0 {
		items = items[min(f.Offset, len(items)):]
	}
	if f.Limit > 0 && len(items) > f.Limit {
		items = items[:f.Limit]
	}
	return domain.ListResult[*product.Product]{Items: items, TotalCount: total, Limit: f.Limit, Offset: f.Offset}, nil
}

func (s *Store) Exists(_ context.Context, productID id.ID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	return ok && p.Lifecycle.Visible(), nil
}

func (s *Store) GetByCode(_ context.Context, code string) (*product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.Code == code {
			return p.Clone(), nil
		}
	}
	return nil, apperror.NewNotFound("products", code)
}

func (s *Store) ListLowStock(_ context.Context, limit int) ([]*product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*product.Product
	for _, p := range s.products {
		if p.Lifecycle == entity.LifecycleActive && p.IsLowStock() {
			out = append(out, p.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *product.Product) int { return cmp.Compare(a.Stock, b.Stock) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) Valuation(context.Context) (product.Valuation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := product.Valuation{CostValue: types.Zero(), SaleValue: types.Zero()}
	for _, p := range s.products {
		if !p.Lifecycle.Visible() {
			continue
		}
		v.Products++
		v.Units += p.Stock
		v.CostValue = v.CostValue.Add(p.CostPrice.Mul(types.MoneyFromInt(p.Stock)))
		v.SaleValue = v.SaleValue.Add(p.SalePrice.Mul(types.MoneyFromInt(p.Stock)))
	}
	return v, nil
}

func (s *Store) RaiseCostPrice(_ context.Context, productID id.ID, unitCost types.Money) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok || !p.Lifecycle.Visible() {
		return false, apperror.NewNotFound("products", productID.String())
	}
	if !unitCost.GreaterThan(p.CostPrice) {
		return false, nil
	}
	p.CostPrice = unitCost
	s.products[productID] = p
	return true, nil
}

func (s *Store) CountByCategory(_ context.Context, categoryID id.ID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, p := range s.products {
		if p.Lifecycle.Visible() && p.CategoryID != nil && *p.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

// --- ledger.Repository ---

func (s *Store) LockStock(ctx context.Context, productID id.ID) (ledger.StockRow, error) {
	s.mu.Lock()
	s.Locks++
	if len(s.LockErrs) > 0 {
		err := s.LockErrs[0]
		s.LockErrs = s.LockErrs[1:]
		s.mu.Unlock()
		return ledger.StockRow{}, err
	}
	s.mu.Unlock()
	return s.ReadStock(ctx, productID)
}

func (s *Store) ReadStock(_ context.Context, productID id.ID) (ledger.StockRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok || !p.Lifecycle.Visible() {
		return ledger.StockRow{}, apperror.NewNotFound("product", productID.String())
	}
	return ledger.StockRow{ProductID: p.ID, Code: p.Code, Stock: p.Stock}, nil
}

func (s *Store) SetStock(_ context.Context, productID id.ID, stock int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.products[productID]
	p.Stock = stock
	s.products[productID] = p
	return nil
}

func (s *Store) InsertMovement(_ context.Context, m *ledger.Movement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.movements = append(s.movements, *m)
	return nil
}

func (s *Store) ListMovements(_ context.Context, productID id.ID, limit int) ([]ledger.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ledger.Movement
	for _, m := range s.movements {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}
