package purchase_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revengepos/internal/core/apperror"
	"revengepos/internal/core/id"
	"revengepos/internal/core/tx/txtest"
	"revengepos/internal/core/types"
	"revengepos/internal/domain"
	"revengepos/internal/domain/audit"
	"revengepos/internal/domain/auth"
	"revengepos/internal/domain/catalogs/product"
	"revengepos/internal/domain/documents/purchase"
	"revengepos/internal/domain/domaintest"
	"revengepos/internal/domain/events"
	"revengepos/internal/domain/ledger"
)

type fakePurchases struct {
	mu        sync.Mutex
	purchases []purchase.Purchase
	lines     []purchase.Line
	failLines error
}

func (r *fakePurchases) Snapshot() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	ps, lines := slices.Clone(r.purchases), slices.Clone(r.lines)
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.purchases, r.lines = ps, lines
	}
}

func (r *fakePurchases) Insert(_ context.Context, p *purchase.Purchase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	h := *p
	h.Lines = nil
	r.purchases = append(r.purchases, h)
	return nil
}

func (r *fakePurchases) InsertLines(_ context.Context, lines []purchase.Line) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failLines != nil {
		return r.failLines
	}
	r.lines = append(r.lines, lines...)
	return nil
}

func (r *fakePurchases) GetByID(_ context.Context, purchaseID id.ID) (*purchase.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.purchases {
		if p.ID == purchaseID {
			return &p, nil
		}
	}
	return nil, apperror.NewNotFound("purchase", purchaseID.String())
}

func (r *fakePurchases) GetLines(_ context.Context, purchaseID id.ID) ([]purchase.Line, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []purchase.Line
	for _, l := range r.lines {
		if l.PurchaseID == purchaseID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *fakePurchases) List(_ context.Context, f purchase.ListFilter) (domain.ListResult[*purchase.Purchase], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []*purchase.Purchase
	for _, p := range r.purchases {
		if f.SupplierID != nil && p.SupplierID != *f.SupplierID {
			continue
		}
		items = append(items, &p)
	}
	return domain.ListResult[*purchase.Purchase]{Items: items, TotalCount: int64(len(items)), Limit: f.Limit}, nil
}

func (r *fakePurchases) Summary(_ context.Context, from, to time.Time) (purchase.MonthSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := purchase.MonthSummary{Spent: types.Zero(), Average: types.Zero()}
	for _, p := range r.purchases {
		if p.CreatedAt.Before(from) || !p.CreatedAt.Before(to) {
			continue
		}
		sum.PurchasesCount++
		sum.Spent = sum.Spent.Add(p.Total)
	}
	if sum.PurchasesCount > 0 {
		sum.Average = types.RoundMoney(sum.Spent.Div(types.MoneyFromInt(sum.PurchasesCount)))
	}
	return sum, nil
}

func (r *fakePurchases) CountBySupplier(_ context.Context, supplierID id.ID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, p := range r.purchases {
		if p.SupplierID == supplierID {
			n++
		}
	}
	return n, nil
}

type fixture struct {
	store     *domaintest.Store
	users     *domaintest.Users
	cache     *domaintest.Cache
	outbox    *domaintest.Outbox
	audit     *domaintest.AuditLog
	purchases *fakePurchases
	suppliers domaintest.Lookup
	txm       *txtest.Manager
	svc       *purchase.Service

	actor    *auth.User
	supplier id.ID
}

func newFixture() *fixture {
	f := &fixture{
		store:     domaintest.NewStore(),
		users:     domaintest.NewUsers(),
		cache:     domaintest.NewCache(),
		outbox:    &domaintest.Outbox{},
		audit:     &domaintest.AuditLog{},
		purchases: &fakePurchases{},
		suppliers: domaintest.Lookup{},
	}
	f.txm = txtest.NewManager(f.store, f.purchases, f.outbox, f.audit)
	l := ledger.NewLedger(f.store, f.txm, f.cache)
	products := product.NewService(product.Config{
		Repo:      f.store,
		TxManager: f.txm,
		Ledger:    l,
		Cache:     f.cache,
	})
	f.svc = purchase.NewService(purchase.Config{
		Repo:       f.purchases,
		TxManager:  f.txm,
		Products:   products,
		CostPrices: f.store,
		Ledger:     l,
		Actors:     auth.NewGate(f.users, nil),
		Suppliers:  f.suppliers,
		Audit:      f.audit,
		Events:     f.outbox,
	})
	f.actor = f.users.Add("bodega", auth.RoleCashier)
	f.supplier = f.suppliers.Add()
	return f
}

func (f *fixture) request(items ...purchase.Item) purchase.Request {
	return purchase.Request{InvoiceNumber: "F-100", SupplierID: f.supplier, ActorID: f.actor.ID, Items: items}
}

func TestCreate_AddsStockAndRaisesCost(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.store.AddProduct("P", "Producto", "3.00", "5.00", 10)

	receipt, err := f.svc.Create(ctx, f.request(purchase.Item{ProductID: p.ID, Quantity: 20, UnitCost: types.MustMoney("4.00")}))
	require.NoError(t, err)

	assert.Equal(t, "F-100", receipt.InvoiceNumber)
	assert.Equal(t, "80.00", receipt.Total.StringFixed(2))
	assert.Equal(t, 1, receipt.LineCount)

	stored := f.store.Product(p.ID)
	assert.Equal(t, int64(30), stored.Stock)
	assert.Equal(t, "4.00", stored.CostPrice.StringFixed(2))

	movements := f.store.StoredMovements()
	require.Len(t, movements, 1)
	assert.Equal(t, ledger.KindEntrada, movements[0].Kind)
	assert.Equal(t, int64(20), movements[0].Delta)
	assert.Equal(t, int64(10), movements[0].StockBefore)
	assert.Equal(t, int64(30), movements[0].StockAfter)
	assert.Equal(t, ledger.RefCompra, *movements[0].ReferenceKind)
	assert.Equal(t, receipt.PurchaseID, *movements[0].ReferenceID)

	assert.Equal(t, []audit.Action{audit.ActionCostRaise}, f.audit.Actions())
	require.Len(t, f.outbox.OfType(events.PurchaseCreated), 1)
	assert.Contains(t, f.cache.Invalidated, p.ID)
	assert.Zero(t, f.cache.InvalidatedInTx)

	got, err := f.svc.Get(ctx, receipt.PurchaseID)
	require.NoError(t, err)
	assert.Equal(t, f.actor.ID, got.ActorID)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, "P", got.Lines[0].ProductCode)
	assert.Equal(t, "80.00", got.Lines[0].LineTotal.StringFixed(2))
}

func TestCreate_DoesNotLowerCost(t *testing.T) {
	f := newFixture()
	p := f.store.AddProduct("P", "Producto", "3.00", "5.00", 0)

	_, err := f.svc.Create(context.Background(), f.request(purchase.Item{ProductID: p.ID, Quantity: 5, UnitCost: types.MustMoney("2.50")}))
	require.NoError(t, err)

	stored := f.store.Product(p.ID)
	assert.Equal(t, int64(5), stored.Stock)
	assert.Equal(t, "3.00", stored.CostPrice.StringFixed(2))
	assert.Empty(t, f.audit.Actions())
}

func TestCreate_TaxIsAddedToTotal(t *testing.T) {
	f := newFixture()
	p := f.store.AddProduct("P", "Producto", "3.00", "5.00", 0)
	tax := types.MustMoney("1.50")

	req := f.request(purchase.Item{ProductID: p.ID, Quantity: 2, UnitCost: types.MustMoney("3.00")})
	req.Tax = &tax
	receipt, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "7.50", receipt.Total.StringFixed(2))
}

func TestCreate_RepeatedProductMovesOncePerLine(t *testing.T) {
	f := newFixture()
	p := f.store.AddProduct("P", "Producto", "3.00", "5.00", 1)

	_, err := f.svc.Create(context.Background(), f.request(
		purchase.Item{ProductID: p.ID, Quantity: 2, UnitCost: types.MustMoney("3.00")},
		purchase.Item{ProductID: p.ID, Quantity: 3, UnitCost: types.MustMoney("3.50")},
	))
	require.NoError(t, err)

	assert.Equal(t, int64(6), f.store.Product(p.ID).Stock)
	assert.Equal(t, "3.50", f.store.Product(p.ID).CostPrice.StringFixed(2))
	assert.Len(t, f.store.StoredMovements(), 2)
}

func TestCreate_RepeatedRaisesAuditEachStep(t *testing.T) {
	f := newFixture()
	p := f.store.AddProduct("P", "Producto", "3.00", "5.00", 0)

	_, err := f.svc.Create(context.Background(), f.request(
		purchase.Item{ProductID: p.ID, Quantity: 1, UnitCost: types.MustMoney("4.00")},
		purchase.Item{ProductID: p.ID, Quantity: 1, UnitCost: types.MustMoney("5.00")},
	))
	require.NoError(t, err)

	require.Len(t, f.audit.Entries, 2)
	assert.Equal(t, "3.00", f.audit.Entries[0].Before["cost_price"])
	assert.Equal(t, "4.00", f.audit.Entries[0].After["cost_price"])
	assert.Equal(t, "4.00", f.audit.Entries[1].Before["cost_price"])
	assert.Equal(t, "5.00", f.audit.Entries[1].After["cost_price"])
	assert.Equal(t, "5.00", f.store.Product(p.ID).CostPrice.StringFixed(2))
}

func TestCreate_Rejections(t *testing.T) {
	f := newFixture()
	p := f.store.AddProduct("P", "Producto", "3.00", "5.00", 10)
	item := purchase.Item{ProductID: p.ID, Quantity: 1, UnitCost: types.MustMoney("3.00")}

	tests := []struct {
		name   string
		mutate func(r *purchase.Request)
		code   string
	}{
		{"unknown actor", func(r *purchase.Request) { r.ActorID = id.New() }, apperror.CodeNotFound},
		{"unknown supplier", func(r *purchase.Request) { r.SupplierID = id.New() }, apperror.CodeNotFound},
		{"missing invoice", func(r *purchase.Request) { r.InvoiceNumber = "  " }, apperror.CodeValidation},
		{"no items", func(r *purchase.Request) { r.Items = nil }, apperror.CodeValidation},
		{"zero quantity", func(r *purchase.Request) { r.Items[0].Quantity = 0 }, apperror.CodeValidation},
		{"negative cost", func(r *purchase.Request) { r.Items[0].UnitCost = types.MustMoney("-1") }, apperror.CodeValidation},
		{"unknown product", func(r *purchase.Request) { r.Items[0].ProductID = id.New() }, apperror.CodeNotFound},
		{"zero total", func(r *purchase.Request) { r.Items[0].UnitCost = types.Zero() }, apperror.CodeInvalidTotal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := f.request(item)
			tt.mutate(&req)
			_, err := f.svc.Create(context.Background(), req)
			require.Error(t, err)
			assert.True(t, apperror.HasCode(err, tt.code), "got %v", err)
		})
	}

	assert.Equal(t, int64(10), f.store.Product(p.ID).Stock)
	assert.Empty(t, f.store.StoredMovements())
}

func TestCreate_FailureRollsBackStockAndCost(t *testing.T) {
	f := newFixture()
	p := f.store.AddProduct("P", "Producto", "3.00", "5.00", 10)
	f.purchases.failLines = errors.New("disk full")

	_, err := f.svc.Create(context.Background(), f.request(purchase.Item{ProductID: p.ID, Quantity: 5, UnitCost: types.MustMoney("9.00")}))
	require.Error(t, err)

	stored := f.store.Product(p.ID)
	assert.Equal(t, int64(10), stored.Stock)
	assert.Equal(t, "3.00", stored.CostPrice.StringFixed(2))
	assert.Empty(t, f.outbox.OfType(events.PurchaseCreated))
	n, err := f.svc.CountBySupplier(context.Background(), f.supplier)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestQueries(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.store.AddProduct("P", "Producto", "3.00", "5.00", 0)

	for _, cost := range []string{"3.00", "5.00"} {
		_, err := f.svc.Create(ctx, f.request(purchase.Item{ProductID: p.ID, Quantity: 2, UnitCost: types.MustMoney(cost)}))
		require.NoError(t, err)
	}

	list, err := f.svc.BySupplier(ctx, f.supplier)
	require.NoError(t, err)
	assert.Len(t, list.Items, 2)

	now := time.Now().UTC()
	sum, err := f.svc.MonthSummary(ctx, now.Year(), now.Month())
	require.NoError(t, err)
	assert.Equal(t, int64(2), sum.PurchasesCount)
	assert.Equal(t, "16.00", sum.Spent.StringFixed(2))
	assert.Equal(t, "8.00", sum.Average.StringFixed(2))
	assert.Equal(t, int(now.Month()), sum.Month)

	_, err = f.svc.MonthSummary(ctx, 2024, 13)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}
