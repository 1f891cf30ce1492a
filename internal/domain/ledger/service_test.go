package ledger

import (
	"context"
	"maps"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revengepos/internal/core/apperror"
	"revengepos/internal/core/id"
	"revengepos/internal/core/tx/txtest"
)

type fakeRepo struct {
	mu        sync.Mutex
	rows      map[id.ID]StockRow
	movements []Movement
	locked    int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: map[id.ID]StockRow{}}
}

func (r *fakeRepo) add(code string, stock int64) id.ID {
	pid := id.New()
	r.rows[pid] = StockRow{ProductID: pid, Code: code, Stock: stock}
	return pid
}

func (r *fakeRepo) Snapshot() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := maps.Clone(r.rows)
	movements := slices.Clone(r.movements)
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.rows = rows
		r.movements = movements
	}
}

func (r *fakeRepo) LockStock(ctx context.Context, productID id.ID) (StockRow, error) {
	r.mu.Lock()
	r.locked++
	r.mu.Unlock()
	return r.ReadStock(ctx, productID)
}

func (r *fakeRepo) ReadStock(_ context.Context, productID id.ID) (StockRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[productID]
	if !ok {
		return StockRow{}, apperror.NewNotFound("product", productID.String())
	}
	return row, nil
}

func (r *fakeRepo) SetStock(_ context.Context, productID id.ID, stock int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row := r.rows[productID]
	row.Stock = stock
	r.rows[productID] = row
	return nil
}

func (r *fakeRepo) InsertMovement(_ context.Context, m *Movement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.movements = append(r.movements, *m)
	return nil
}

func (r *fakeRepo) ListMovements(_ context.Context, productID id.ID, limit int) ([]Movement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Movement
	for _, m := range r.movements {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

type fakeCache map[id.ID]int64

func (c fakeCache) CachedStock(_ context.Context, productID id.ID) (int64, bool) {
	v, ok := c[productID]
	return v, ok
}

func newLedger(repo *fakeRepo) (*Ledger, *txtest.Manager) {
	txm := txtest.NewManager(repo)
	return NewLedger(repo, txm, nil), txm
}

func TestApplyMovement_Salida(t *testing.T) {
	repo := newFakeRepo()
	pid := repo.add("P-1", 10)
	l, _ := newLedger(repo)
	saleID := id.New()

	m, err := l.ApplyMovement(context.Background(), MovementRequest{
		ProductID: pid,
		Kind:      KindSalida,
		Delta:     -3,
		Reference: &Reference{ID: saleID, Kind: RefVenta},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(10), m.StockBefore)
	assert.Equal(t, int64(7), m.StockAfter)
	assert.Equal(t, int64(-3), m.Delta)
	require.NotNil(t, m.ReferenceID)
	assert.Equal(t, saleID, *m.ReferenceID)
	assert.Equal(t, RefVenta, *m.ReferenceKind)
	assert.Equal(t, 1, repo.locked)

	stock, err := l.GetStock(context.Background(), pid)
	require.NoError(t, err)
	assert.Equal(t, int64(7), stock)
}

func TestApplyMovement_InsufficientStock(t *testing.T) {
	repo := newFakeRepo()
	pid := repo.add("P-1", 10)
	l, txm := newLedger(repo)

	_, err := l.ApplyMovement(context.Background(), MovementRequest{ProductID: pid, Kind: KindSalida, Delta: -15})

	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.Equal(t, int64(15), appErr.Details["requested"])
	assert.Equal(t, int64(10), appErr.Details["available"])
	assert.Equal(t, int64(5), appErr.Details["deficit"])
	assert.Equal(t, "P-1", appErr.Details["product_code"])

	assert.Equal(t, int64(10), repo.rows[pid].Stock)
	assert.Empty(t, repo.movements)
	assert.Equal(t, 1, txm.Rollbacks)
}

func TestApplyMovement_NegativeAdjustBelowZero(t *testing.T) {
	repo := newFakeRepo()
	pid := repo.add("P-1", 2)
	l, _ := newLedger(repo)

	_, err := l.ApplyMovement(context.Background(), MovementRequest{ProductID: pid, Kind: KindAjuste, Delta: -5})
	assert.True(t, apperror.IsInsufficientStock(err))
	assert.Equal(t, int64(2), repo.rows[pid].Stock)
}

func TestApplyMovement_Validation(t *testing.T) {
	repo := newFakeRepo()
	pid := repo.add("P-1", 5)
	l, _ := newLedger(repo)

	cases := []MovementRequest{
		{ProductID: pid, Kind: KindSalida, Delta: 0},
		{ProductID: pid, Kind: KindSalida, Delta: 2},
		{ProductID: pid, Kind: KindEntrada, Delta: -2},
		{ProductID: pid, Kind: "robo", Delta: -1},
		{Kind: KindEntrada, Delta: 1},
	}
	for _, req := range cases {
		_, err := l.ApplyMovement(context.Background(), req)
		assert.True(t, apperror.HasCode(err, apperror.CodeValidation), "%+v", req)
	}
	assert.Empty(t, repo.movements)
}

func TestApplyMovement_UnknownProduct(t *testing.T) {
	l, _ := newLedger(newFakeRepo())
	_, err := l.ApplyMovement(context.Background(), MovementRequest{ProductID: id.New(), Kind: KindEntrada, Delta: 1})
	assert.True(t, apperror.IsNotFound(err))
}

func TestApplyAll_LocksInIDOrderAndRollsBackTogether(t *testing.T) {
	repo := newFakeRepo()
	a := repo.add("A", 5)
	b := repo.add("B", 1)
	l, _ := newLedger(repo)

	_, err := l.ApplyAll(context.Background(), []MovementRequest{
		{ProductID: a, Kind: KindSalida, Delta: -2},
		{ProductID: b, Kind: KindSalida, Delta: -3},
	})
	require.True(t, apperror.IsInsufficientStock(err))
	assert.Equal(t, int64(5), repo.rows[a].Stock)
	assert.Equal(t, int64(1), repo.rows[b].Stock)
	assert.Empty(t, repo.movements)

	moved, err := l.ApplyAll(context.Background(), []MovementRequest{
		{ProductID: b, Kind: KindSalida, Delta: -1},
		{ProductID: a, Kind: KindSalida, Delta: -2},
	})
	require.NoError(t, err)
	require.Len(t, moved, 2)
	assert.True(t, slices.IsSortedFunc(moved, func(x, y *Movement) int {
		return slices.Compare(x.ProductID[:], y.ProductID[:])
	}))
}

func TestAdjustAbsolute(t *testing.T) {
	repo := newFakeRepo()
	pid := repo.add("P-1", 10)
	l, _ := newLedger(repo)
	ctx := context.Background()

	m, err := l.AdjustAbsolute(ctx, pid, 4, KindAjuste, "conteo fisico", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(-6), m.Delta)
	assert.Equal(t, int64(4), m.StockAfter)
	assert.Equal(t, "conteo fisico", m.Reason)

	m, err = l.AdjustAbsolute(ctx, pid, 4, KindAjuste, "again", nil)
	require.NoError(t, err)
	assert.Nil(t, m)
	assert.Len(t, repo.movements, 1)

	_, err = l.AdjustAbsolute(ctx, pid, -1, KindAjuste, "", nil)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = l.AdjustAbsolute(ctx, pid, 9, KindSalida, "", nil)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestReconcileChain(t *testing.T) {
	repo := newFakeRepo()
	pid := repo.add("P-1", 0)
	l, _ := newLedger(repo)
	ctx := context.Background()

	_, err := l.ApplyMovement(ctx, MovementRequest{ProductID: pid, Kind: KindInicial, Delta: 10})
	require.NoError(t, err)
	_, err = l.ApplyMovement(ctx, MovementRequest{ProductID: pid, Kind: KindSalida, Delta: -3})
	require.NoError(t, err)
	_, err = l.ApplyMovement(ctx, MovementRequest{ProductID: pid, Kind: KindEntrada, Delta: 20})
	require.NoError(t, err)

	require.NoError(t, l.ReconcileChain(ctx, pid))

	history, err := l.Movements(ctx, pid, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, int64(27), history[1].StockAfter)

	// Tamper with the stored stock: the last movement no longer matches.
	require.NoError(t, repo.SetStock(ctx, pid, 99))
	assert.True(t, apperror.HasCode(l.ReconcileChain(ctx, pid), apperror.CodeBusinessRule))
}

func TestGetStock_PrefersCache(t *testing.T) {
	repo := newFakeRepo()
	pid := repo.add("P-1", 10)
	l := NewLedger(repo, txtest.NewManager(repo), fakeCache{pid: 8})

	stock, err := l.GetStock(context.Background(), pid)
	require.NoError(t, err)
	assert.Equal(t, int64(8), stock)

	stored, err := l.StoredStock(context.Background(), pid)
	require.NoError(t, err)
	assert.Equal(t, int64(10), stored)
}

func TestApplyMovement_ConcurrentSalesNeverOversell(t *testing.T) {
	repo := newFakeRepo()
	pid := repo.add("P-1", 10)
	l, _ := newLedger(repo)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = l.ApplyMovement(context.Background(), MovementRequest{ProductID: pid, Kind: KindSalida, Delta: -6})
		}(i)
	}
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			assert.True(t, apperror.IsInsufficientStock(err))
			failures++
		}
	}
	assert.Equal(t, 1, failures)
	assert.Equal(t, int64(4), repo.rows[pid].Stock)
	require.NoError(t, l.ReconcileChain(context.Background(), pid))
}
