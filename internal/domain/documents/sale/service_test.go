package sale_test

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revengepos/internal/core/apperror"
	"revengepos/internal/core/entity"
	"revengepos/internal/core/id"
	"revengepos/internal/core/numerator"
	"revengepos/internal/core/tx/txtest"
	"revengepos/internal/core/types"
	"revengepos/internal/domain"
	"revengepos/internal/domain/auth"
	"revengepos/internal/domain/catalogs/product"
	"revengepos/internal/domain/documents/sale"
	"revengepos/internal/domain/domaintest"
	"revengepos/internal/domain/events"
	"revengepos/internal/domain/ledger"
	"revengepos/internal/domain/pricing"
)

type fakeSales struct {
	mu    sync.Mutex
	sales []sale.Sale
	lines []sale.Line
}

func (r *fakeSales) Snapshot() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	sales, lines := slices.Clone(r.sales), slices.Clone(r.lines)
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.sales, r.lines = sales, lines
	}
}

func (r *fakeSales) Insert(_ context.Context, s *sale.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, other := range r.sales {
		if other.TicketNumber == s.TicketNumber {
			return apperror.NewConcurrentModification("sale", s.TicketNumber)
		}
	}
	h := *s
	h.Lines = nil
	r.sales = append(r.sales, h)
	return nil
}

func (r *fakeSales) InsertLines(_ context.Context, lines []sale.Line) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, lines...)
	return nil
}

func (r *fakeSales) GetByID(_ context.Context, saleID id.ID) (*sale.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sales {
		if s.ID == saleID {
			return &s, nil
		}
	}
	return nil, apperror.NewNotFound("sale", saleID.String())
}

func (r *fakeSales) GetByTicket(_ context.Context, number string) (*sale.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sales {
		if s.TicketNumber == number {
			return &s, nil
		}
	}
	return nil, apperror.NewNotFound("sale", number)
}

func (r *fakeSales) GetLines(_ context.Context, saleID id.ID) ([]sale.Line, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sale.Line
	for _, l := range r.lines {
		if l.SaleID == saleID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *fakeSales) List(_ context.Context, f sale.ListFilter) (domain.ListResult[*sale.Sale], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []*sale.Sale
	for _, s := range r.sales {
		if f.CashierID != nil && s.CashierID != *f.CashierID {
			continue
		}
		items = append(items, &s)
	}
	return domain.ListResult[*sale.Sale]{Items: items, TotalCount: int64(len(items)), Limit: f.Limit}, nil
}

func (r *fakeSales) DaySummary(_ context.Context, from, to time.Time) (sale.DaySummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := sale.DaySummary{Revenue: types.Zero(), Discounts: types.Zero(), Tax: types.Zero(), AverageTicket: types.Zero()}
	for _, s := range r.sales {
		if s.CreatedAt.Before(from) || !s.CreatedAt.Before(to) {
			continue
		}
		sum.SalesCount++
		sum.Revenue = sum.Revenue.Add(s.Total)
		sum.Discounts = sum.Discounts.Add(s.Discount)
		sum.Tax = sum.Tax.Add(s.Tax)
	}
	if sum.SalesCount > 0 {
		sum.AverageTicket = types.RoundMoney(sum.Revenue.Div(types.MoneyFromInt(sum.SalesCount)))
	}
	return sum, nil
}

func (r *fakeSales) TopSellers(context.Context, *time.Time, *time.Time, int) ([]sale.TopSeller, error) {
	return nil, nil
}

func (r *fakeSales) CashierTotals(_ context.Context, cashierID id.ID, _, _ *time.Time) (sale.CashierTotals, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := sale.CashierTotals{Amount: types.Zero()}
	for _, s := range r.sales {
		if s.CashierID == cashierID {
			t.SalesCount++
			t.Amount = t.Amount.Add(s.Total)
		}
	}
	return t, nil
}

func (r *fakeSales) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sales)
}

type fixture struct {
	store    *domaintest.Store
	users    *domaintest.Users
	cache    *domaintest.Cache
	outbox   *domaintest.Outbox
	sales    *fakeSales
	numbers  *numerator.MockGenerator
	txm      *txtest.Manager
	payments domaintest.Lookup
	products *product.Service
	svc      *sale.Service

	cashier *auth.User
	cash    id.ID
}

func newFixture() *fixture {
	f := &fixture{
		store:    domaintest.NewStore(),
		users:    domaintest.NewUsers(),
		cache:    domaintest.NewCache(),
		outbox:   &domaintest.Outbox{},
		sales:    &fakeSales{},
		numbers:  &numerator.MockGenerator{},
		payments: domaintest.Lookup{},
	}
	f.txm = txtest.NewManager(f.store, f.sales, f.outbox, f.numbers)
	l := ledger.NewLedger(f.store, f.txm, f.cache)
	f.products = product.NewService(product.Config{
		Repo:      f.store,
		TxManager: f.txm,
		Ledger:    l,
		Cache:     f.cache,
	})
	f.svc = sale.NewService(sale.Config{
		Repo:           f.sales,
		TxManager:      f.txm,
		Products:       f.products,
		Ledger:         l,
		Gate:           auth.NewGate(f.users, nil),
		PaymentMethods: f.payments,
		Numerator:      f.numbers,
		Calculator:     pricing.NewDefaultCalculator(),
		Events:         f.outbox,
	})
	f.cashier = f.users.Add("cajero1", auth.RoleCashier)
	f.cash = f.payments.Add()
	return f
}

func (f *fixture) request(items ...sale.CartItem) sale.Request {
	return sale.Request{CashierID: f.cashier.ID, Items: items, PaymentMethodID: f.cash}
}

func money(s string) *types.Money {
	m := types.MustMoney(s)
	return &m
}

func TestCreate_SimpleSale(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.store.AddProduct("P", "Producto", "3.00", "5.00", 10)

	receipt, err := f.svc.Create(ctx, f.request(sale.CartItem{ProductID: p.ID, Quantity: 3}))
	require.NoError(t, err)

	assert.Equal(t, "B-00001", receipt.TicketNumber)
	assert.Equal(t, 1, receipt.LineCount)
	assert.Equal(t, "17.70", receipt.Total.StringFixed(2))

	stored, err := f.svc.Get(ctx, receipt.SaleID)
	require.NoError(t, err)
	assert.Equal(t, "15.00", stored.Subtotal.StringFixed(2))
	assert.Equal(t, "2.70", stored.Tax.StringFixed(2))
	assert.True(t, stored.Total.Equal(stored.Subtotal.Sub(stored.Discount).Add(stored.Tax)))
	require.Len(t, stored.Lines, 1)
	assert.Equal(t, "P", stored.Lines[0].ProductCode)
	assert.Equal(t, "5.00", stored.Lines[0].UnitPrice.StringFixed(2))

	assert.Equal(t, int64(7), f.store.Product(p.ID).Stock)
	movements := f.store.StoredMovements()
	require.Len(t, movements, 1)
	m := movements[0]
	assert.Equal(t, ledger.KindSalida, m.Kind)
	assert.Equal(t, int64(-3), m.Delta)
	assert.Equal(t, int64(10), m.StockBefore)
	assert.Equal(t, int64(7), m.StockAfter)
	require.NotNil(t, m.ReferenceID)
	assert.Equal(t, receipt.SaleID, *m.ReferenceID)
	assert.Equal(t, ledger.RefVenta, *m.ReferenceKind)

	stock, err := ledger.NewLedger(f.store, f.txm, f.cache).GetStock(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), stock)

	require.Len(t, f.outbox.OfType(events.SaleCreated), 1)
}

func TestCreate_InsufficientStockWritesNothing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.store.AddProduct("P", "Producto", "3.00", "5.00", 10)

	_, err := f.svc.Create(ctx, f.request(sale.CartItem{ProductID: p.ID, Quantity: 15}))
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, int64(15), appErr.Details["requested"])
	assert.Equal(t, int64(10), appErr.Details["available"])
	assert.Equal(t, int64(5), appErr.Details["deficit"])

	assert.Equal(t, int64(10), f.store.Product(p.ID).Stock)
	assert.Empty(t, f.store.StoredMovements())
	assert.Zero(t, f.sales.count())
	assert.Empty(t, f.cache.Invalidated)
}

func TestCreate_StockCheckIgnoresCachedSnapshot(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.store.AddProduct("P", "Producto", "3.00", "5.00", 0)

	// the cached snapshot still says 0 after stock arrives
	_, err := f.products.Get(ctx, p.ID)
	require.NoError(t, err)
	require.True(t, f.cache.Has(p.ID))
	require.NoError(t, f.store.SetStock(ctx, p.ID, 10))

	_, err = f.svc.Create(ctx, f.request(sale.CartItem{ProductID: p.ID, Quantity: 4}))
	require.NoError(t, err)
	assert.Equal(t, int64(6), f.store.Product(p.ID).Stock)

	// and the other way round: a snapshot claiming more than storage holds
	_, err = f.products.Get(ctx, p.ID)
	require.NoError(t, err)
	require.NoError(t, f.store.SetStock(ctx, p.ID, 2))

	_, err = f.svc.Create(ctx, f.request(sale.CartItem{ProductID: p.ID, Quantity: 5}))
	require.Error(t, err)
	require.True(t, apperror.IsInsufficientStock(err))
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, int64(2), appErr.Details["available"])
	assert.Equal(t, "P", appErr.Details["product_code"])
}

func TestCreate_AggregatesQuantityPerProduct(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.store.AddProduct("P", "Producto", "3.00", "5.00", 10)

	_, err := f.svc.Create(ctx, f.request(
		sale.CartItem{ProductID: p.ID, Quantity: 6},
		sale.CartItem{ProductID: p.ID, Quantity: 5},
	))
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))
	assert.Equal(t, int64(10), f.store.Product(p.ID).Stock)
}

func TestCreate_ConcurrentSalesSerialize(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.store.AddProduct("P", "Producto", "3.00", "5.00", 10)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Create(ctx, f.request(sale.CartItem{ProductID: p.ID, Quantity: 6}))
		}(i)
	}
	wg.Wait()

	var ok, short int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case apperror.IsInsufficientStock(err):
			short++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, short)
	assert.Equal(t, int64(4), f.store.Product(p.ID).Stock)
	assert.Len(t, f.store.StoredMovements(), 1)
	assert.Equal(t, 1, f.sales.count())
}

func TestCreate_ConcurrentTicketsAreDistinct(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.store.AddProduct("P", "Producto", "3.00", "5.00", 100)

	const n = 20
	tickets := make([]string, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := f.svc.Create(ctx, f.request(sale.CartItem{ProductID: p.ID, Quantity: 1}))
			if assert.NoError(t, err) {
				tickets[i] = r.TicketNumber
			}
		}(i)
	}
	wg.Wait()

	slices.Sort(tickets)
	assert.Len(t, slices.Compact(slices.Clone(tickets)), n)
	assert.Equal(t, "B-00001", tickets[0])
	assert.Equal(t, "B-00020", tickets[n-1])
	assert.Equal(t, int64(80), f.store.Product(p.ID).Stock)
	require.NoError(t, ledger.NewLedger(f.store, f.txm, nil).ReconcileChain(ctx, p.ID))
}

func TestCreate_PermissionAndActor(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.store.AddProduct("P", "Producto", "3.00", "5.00", 10)
	worker := f.users.Add("almacen", auth.RoleStockWorker)
	admin := f.users.Add("admin", auth.RoleAdmin)

	req := f.request(sale.CartItem{ProductID: p.ID, Quantity: 1})
	req.CashierID = worker.ID
	_, err := f.svc.Create(ctx, req)
	assert.True(t, apperror.HasCode(err, apperror.CodeForbidden))

	req.CashierID = id.New()
	_, err = f.svc.Create(ctx, req)
	assert.True(t, apperror.IsNotFound(err))

	req.CashierID = admin.ID
	_, err = f.svc.Create(ctx, req)
	assert.NoError(t, err)
}

func TestCreate_InputErrors(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.store.AddProduct("P", "Producto", "3.00", "5.00", 10)
	inactive := f.store.AddProduct("I", "Inactivo", "1.00", "2.00", 10)
	require.NoError(t, f.store.SetLifecycle(ctx, inactive.ID, entity.LifecycleInactive))

	_, err := f.svc.Create(ctx, f.request())
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation), "empty cart")

	_, err = f.svc.Create(ctx, f.request(sale.CartItem{ProductID: id.New(), Quantity: 1}))
	assert.True(t, apperror.IsNotFound(err), "unknown product")

	_, err = f.svc.Create(ctx, f.request(sale.CartItem{ProductID: inactive.ID, Quantity: 1}))
	assert.True(t, apperror.IsNotFound(err), "inactive product")

	_, err = f.svc.Create(ctx, f.request(sale.CartItem{ProductID: p.ID, Quantity: 1, UnitDiscount: types.MustMoney("6.00")}))
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation), "discount above price")

	req := f.request(sale.CartItem{ProductID: p.ID, Quantity: 1})
	req.PaymentMethodID = id.New()
	_, err = f.svc.Create(ctx, req)
	assert.True(t, apperror.IsNotFound(err), "unknown payment method")

	_, err = f.svc.Create(ctx, f.request(sale.CartItem{ProductID: p.ID, Quantity: 1, UnitPrice: money("0")}))
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTotal), "zero total")

	assert.Equal(t, int64(10), f.store.Product(p.ID).Stock)
	assert.Zero(t, f.sales.count())
}

func TestCreate_ExplicitPriceDiscountAndTax(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.store.AddProduct("P", "Producto", "3.00", "5.00", 10)

	req := f.request(sale.CartItem{ProductID: p.ID, Quantity: 2, UnitPrice: money("4.50"), UnitDiscount: types.MustMoney("0.50")})
	req.Discount = types.MustMoney("1.00")
	req.Tax = money("0.99")

	r, err := f.svc.Create(ctx, req)
	require.NoError(t, err)
	// 2 * (4.50 - 0.50) = 8.00; 8.00 - 1.00 + 0.99
	assert.Equal(t, "7.99", r.Total.StringFixed(2))
}

func TestCreate_InvalidatesCacheAfterCommit(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.store.AddProduct("P", "Producto", "3.00", "5.00", 10)

	_, err := f.products.Get(ctx, p.ID)
	require.NoError(t, err)
	require.True(t, f.cache.Has(p.ID))

	var cachedAtCommit bool
	f.txm.OnCommit = func() { cachedAtCommit = f.cache.Has(p.ID) }

	_, err = f.svc.Create(ctx, f.request(sale.CartItem{ProductID: p.ID, Quantity: 3}))
	require.NoError(t, err)

	assert.True(t, cachedAtCommit, "entry must survive until commit")
	assert.False(t, f.cache.Has(p.ID))
	assert.Zero(t, f.cache.InvalidatedInTx)
	assert.Equal(t, []id.ID{p.ID}, f.cache.Invalidated)

	fresh, err := f.products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), fresh.Stock)
}

func TestCreate_RetriesOnceOnConflict(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.store.AddProduct("P", "Producto", "3.00", "5.00", 10)

	f.store.LockErrs = []error{apperror.NewConcurrentModification("product", p.ID.String())}
	r, err := f.svc.Create(ctx, f.request(sale.CartItem{ProductID: p.ID, Quantity: 2}))
	require.NoError(t, err)
	assert.Equal(t, "B-00001", r.TicketNumber)
	commits, rollbacks := f.txm.Stats()
	assert.Equal(t, 1, commits)
	assert.Equal(t, 1, rollbacks)
	assert.Equal(t, int64(8), f.store.Product(p.ID).Stock)

	f.store.LockErrs = []error{
		apperror.NewConcurrentModification("product", p.ID.String()),
		apperror.NewConcurrentModification("product", p.ID.String()),
	}
	_, err = f.svc.Create(ctx, f.request(sale.CartItem{ProductID: p.ID, Quantity: 2}))
	require.Error(t, err)
	assert.True(t, apperror.IsConcurrentModification(err))
	assert.Equal(t, int64(8), f.store.Product(p.ID).Stock)
	assert.Equal(t, 1, f.sales.count())
}

func TestCreate_PublishesStockLow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.store.AddProduct("P", "Producto", "3.00", "5.00", 10)
	stored := f.store.Product(p.ID)
	stored.StockMinimum = 8
	require.NoError(t, f.store.Update(ctx, &stored))

	_, err := f.svc.Create(ctx, f.request(sale.CartItem{ProductID: p.ID, Quantity: 3}))
	require.NoError(t, err)

	low := f.outbox.OfType(events.StockLow)
	require.Len(t, low, 1)
	assert.Equal(t, int64(7), low[0].Payload.(events.StockLowPayload).Stock)
}

func TestQueries(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.store.AddProduct("P", "Producto", "3.00", "5.00", 10)

	r1, err := f.svc.Create(ctx, f.request(sale.CartItem{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.request(sale.CartItem{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)

	byTicket, err := f.svc.GetByTicket(ctx, r1.TicketNumber)
	require.NoError(t, err)
	assert.Equal(t, r1.SaleID, byTicket.ID)
	assert.Len(t, byTicket.Lines, 1)

	mine, err := f.svc.ByCashier(ctx, f.cashier.ID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), mine.TotalCount)

	sum, err := f.svc.DaySummary(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(2), sum.SalesCount)
	assert.Equal(t, "11.80", sum.Revenue.StringFixed(2))
	assert.Equal(t, "5.90", sum.AverageTicket.StringFixed(2))

	c, err := f.svc.Commission(ctx, f.cashier.ID, nil, nil, types.Zero())
	require.NoError(t, err)
	assert.Equal(t, int64(2), c.SalesCount)
	assert.Equal(t, "0.24", c.Commission.StringFixed(2))
	assert.Equal(t, "2", c.RatePercent.String())
}
