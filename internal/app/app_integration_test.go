//go:build integration

package app_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"revengepos/db"
	"revengepos/internal/app"
	"revengepos/internal/core/apperror"
	"revengepos/internal/core/id"
	"revengepos/internal/core/types"
	"revengepos/internal/domain/auth"
	"revengepos/internal/domain/catalogs/product"
	"revengepos/internal/domain/catalogs/supplier"
	"revengepos/internal/domain/documents/purchase"
	"revengepos/internal/domain/documents/sale"
	"revengepos/internal/domain/ledger"
	"revengepos/internal/infrastructure/storage/postgres"
)

// cash is seeded by the reference migration.
var cash = id.MustParse("01900000-0000-7000-8000-000000000001")

var taxRate = types.MustMoney("0.18")

type testEnv struct {
	pool     *postgres.Pool
	services *app.Services
	cashier  *auth.User
	clerk    *auth.User
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		tcPostgres.WithDatabase("revengepos_test"),
		tcPostgres.WithUsername("revengepos"),
		tcPostgres.WithPassword("revengepos"),
		testcontainers.WithWaitStrategy(
			tcPostgres.BasicWaitStrategies()...,
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	dsn, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	cfg := postgres.DefaultPoolConfig(dsn)
	cfg.MaxConns = 20
	pool, err := postgres.NewPool(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	migrator := postgres.NewMigrator(pool, postgres.MigrationSource{FS: db.Migrations, Dir: db.MigrationsDir})
	require.NoError(t, migrator.Up(ctx))

	services, err := app.NewServices(app.Deps{
		TxManager: postgres.NewTxManager(pool),
		TaxRate:   &taxRate,
	})
	require.NoError(t, err)

	cashier := auth.NewUser("cajero1", "Cajero Uno", auth.RoleCashier)
	require.NoError(t, services.Users.Create(ctx, cashier))
	clerk := auth.NewUser("almacen1", "Almacenero Uno", auth.RoleStockWorker)
	require.NoError(t, services.Users.Create(ctx, clerk))

	return &testEnv{pool: pool, services: services, cashier: cashier, clerk: clerk}
}

func (e *testEnv) product(t *testing.T, code string, stock int64) *product.Product {
	t.Helper()
	p := product.NewProduct(code, "Producto "+code, types.MustMoney("3.00"), types.MustMoney("5.00"))
	p.Stock = stock
	require.NoError(t, e.services.Products.Create(context.Background(), p))
	return p
}

func (e *testEnv) sell(ctx context.Context, productID id.ID, qty int64) (*sale.Receipt, error) {
	return e.services.Sales.Create(ctx, sale.Request{
		CashierID:       e.cashier.ID,
		Items:           []sale.CartItem{{ProductID: productID, Quantity: qty}},
		PaymentMethodID: cash,
	})
}

func (e *testEnv) stored(t *testing.T, productID id.ID) *product.Product {
	t.Helper()
	p, err := e.services.Products.GetByID(context.Background(), productID)
	require.NoError(t, err)
	return p
}

func (e *testEnv) count(t *testing.T, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.pool.QueryRow(context.Background(), "SELECT count(*) FROM "+table).Scan(&n))
	return n
}

func TestSale_DecrementsStockAndAppliesTax(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	p := env.product(t, "775100", 10)

	receipt, err := env.sell(ctx, p.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, "17.7", receipt.Total.String())
	assert.Regexp(t, `^B-\d{5,}$`, receipt.TicketNumber)

	s, err := env.services.Sales.Get(ctx, receipt.SaleID)
	require.NoError(t, err)
	assert.Equal(t, "15", s.Subtotal.String())
	assert.Equal(t, "2.7", s.Tax.String())
	require.Len(t, s.Lines, 1)
	assert.Equal(t, "775100", s.Lines[0].ProductCode)

	assert.Equal(t, int64(7), env.stored(t, p.ID).Stock)

	movements, err := env.services.Ledger.Movements(ctx, p.ID, 0)
	require.NoError(t, err)
	require.Len(t, movements, 2)
	last := movements[1]
	assert.Equal(t, ledger.KindSalida, last.Kind)
	assert.Equal(t, int64(-3), last.Delta)
	assert.Equal(t, int64(10), last.StockBefore)
	assert.Equal(t, int64(7), last.StockAfter)
	require.NotNil(t, last.ReferenceID)
	assert.Equal(t, receipt.SaleID, *last.ReferenceID)

	require.NoError(t, env.services.Ledger.ReconcileChain(ctx, p.ID))
}

func TestSale_InsufficientStockLeavesNoTrace(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	p := env.product(t, "775101", 10)
	movementsBefore := env.count(t, "inventory_movements")

	_, err := env.sell(ctx, p.ID, 15)
	require.Error(t, err)
	require.True(t, apperror.IsInsufficientStock(err))
	appErr, _ := apperror.AsAppError(err)
	assert.EqualValues(t, 5, appErr.Details["deficit"])

	assert.Equal(t, int64(10), env.stored(t, p.ID).Stock)
	assert.Equal(t, movementsBefore, env.count(t, "inventory_movements"))
	assert.Zero(t, env.count(t, "sales"))
	assert.Zero(t, env.count(t, "sale_lines"))
}

func TestPurchase_IncrementsStockAndUpdatesCost(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	p := env.product(t, "775102", 10)

	s := supplier.NewSupplier("Distribuidora Norte")
	require.NoError(t, env.services.Suppliers.Create(ctx, s))

	receipt, err := env.services.Purchases.Create(ctx, purchase.Request{
		InvoiceNumber: "F001-000077",
		SupplierID:    s.ID,
		ActorID:       env.clerk.ID,
		Items:         []purchase.Item{{ProductID: p.ID, Quantity: 20, UnitCost: types.MustMoney("4.00")}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, receipt.LineCount)

	stored := env.stored(t, p.ID)
	assert.Equal(t, int64(30), stored.Stock)
	assert.Equal(t, "4", stored.CostPrice.String())

	movements, err := env.services.Ledger.Movements(ctx, p.ID, 1)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, ledger.KindEntrada, movements[0].Kind)
	assert.Equal(t, int64(20), movements[0].Delta)
	assert.Equal(t, int64(30), movements[0].StockAfter)
}

func TestSale_ConcurrentSalesNeverOversell(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	p := env.product(t, "775103", 10)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.sell(ctx, p.ID, 6)
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
	assert.Equal(t, int64(4), env.stored(t, p.ID).Stock)
	assert.Equal(t, int64(1), env.count(t, "sales"))
	require.NoError(t, env.services.Ledger.ReconcileChain(ctx, p.ID))
}

func TestSale_ConcurrentTicketsAreDistinct(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	const n = 12
	products := make([]*product.Product, n)
	for i := range products {
		// separate products so that only the ticket counter is contended
		products[i] = env.product(t, "7752"+string(rune('A'+i)), 5)
	}

	var wg sync.WaitGroup
	tickets := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := env.sell(ctx, products[i].ID, 1)
			if err == nil {
				tickets[i] = r.TicketNumber
			}
			errs[i] = err
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for i, ticket := range tickets {
		require.NoError(t, errs[i])
		assert.False(t, seen[ticket], "duplicate ticket %s", ticket)
		seen[ticket] = true
	}
	assert.Len(t, seen, n)
}

func TestReports_InventoryReflectsLedger(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	p := env.product(t, "775104", 8)
	_, err := env.sell(ctx, p.ID, 2)
	require.NoError(t, err)

	valuation, err := env.services.Products.Valuation(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6), valuation.Units)
}
