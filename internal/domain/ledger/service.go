package ledger

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"time"

	"revengepos/internal/core/apperror"
	"revengepos/internal/core/id"
	"revengepos/internal/core/tx"
	"revengepos/pkg/logger"
)

// Ledger is the single source of truth for stock quantities.
// Every mutation locks the product row, writes the new stock and appends a
// movement in one transaction, joining the caller's transaction when ctx has one.
type Ledger struct {
	repo      Repository
	txManager tx.Manager
	cache     StockCache
	now       func() time.Time
}

// NewLedger creates a ledger. cache may be nil.
func NewLedger(repo Repository, txManager tx.Manager, cache StockCache) *Ledger {
	return &Ledger{
		repo:      repo,
		txManager: txManager,
		cache:     cache,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// GetStock returns the current quantity, from the cache when it holds a snapshot.
func (l *Ledger) GetStock(ctx context.Context, productID id.ID) (int64, error) {
	if l.cache != nil {
		if stock, ok := l.cache.CachedStock(ctx, productID); ok {
			return stock, nil
		}
	}
	row, err := l.repo.ReadStock(ctx, productID)
	if err != nil {
		return 0, err
	}
	return row.Stock, nil
}

// StoredStock reads the quantity from storage, skipping the cache.
func (l *Ledger) StoredStock(ctx context.Context, productID id.ID) (int64, error) {
	row, err := l.repo.ReadStock(ctx, productID)
	if err != nil {
		return 0, err
	}
	return row.Stock, nil
}

// ApplyMovement changes stock by req.Delta and records the movement.
// A result below zero fails with INSUFFICIENT_STOCK and nothing is written.
func (l *Ledger) ApplyMovement(ctx context.Context, req MovementRequest) (*Movement, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var moved *Movement
	err := l.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		row, err := l.repo.LockStock(ctx, req.ProductID)
		if err != nil {
			return err
		}

		after := row.Stock + req.Delta
		if after < 0 {
			return apperror.NewInsufficientStock(row.ProductID.String(), row.Code, -req.Delta, row.Stock).
				WithDetail("kind", string(req.Kind))
		}

		moved, err = l.write(ctx, row, req, after)
		return err
	})
	if err != nil {
		return nil, err
	}
	return moved, nil
}

// ApplyAll applies requests ordered by product id so that concurrent callers
// lock rows in the same order. Requests for the same product keep their
// relative order. Returned movements follow that lock order.
func (l *Ledger) ApplyAll(ctx context.Context, reqs []MovementRequest) ([]*Movement, error) {
	ordered := slices.Clone(reqs)
	slices.SortStableFunc(ordered, func(a, b MovementRequest) int {
		return bytes.Compare(a.ProductID[:], b.ProductID[:])
	})

	out := make([]*Movement, 0, len(ordered))
	err := l.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, req := range ordered {
			m, err := l.ApplyMovement(ctx, req)
			if err != nil {
				return err
			}
			out = append(out, m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AdjustAbsolute sets stock to newQuantity. A zero difference writes nothing
// and returns (nil, nil).
func (l *Ledger) AdjustAbsolute(ctx context.Context, productID id.ID, newQuantity int64, kind Kind, reason string, actorID *id.ID) (*Movement, error) {
	if newQuantity < 0 {
		return nil, apperror.NewValidation("quantity cannot be negative").
			WithDetail("field", "quantity").
			WithDetail("value", newQuantity)
	}
	if kind == "" {
		kind = KindAjuste
	}
	if !kind.Valid() {
		return nil, apperror.NewValidation("unknown movement kind").WithDetail("kind", string(kind))
	}

	var moved *Movement
	err := l.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		row, err := l.repo.LockStock(ctx, productID)
		if err != nil {
			return err
		}
		delta := newQuantity - row.Stock
		if delta == 0 {
			return nil
		}
		req := MovementRequest{
			ProductID: productID,
			Kind:      kind,
			Delta:     delta,
			Reason:    reason,
			ActorID:   actorID,
		}
		if !kind.acceptsDelta(delta) {
			return apperror.NewValidation("movement kind does not match the direction of the change").
				WithDetail("kind", string(kind)).
				WithDetail("delta", delta)
		}
		moved, err = l.write(ctx, row, req, newQuantity)
		return err
	})
	if err != nil {
		return nil, err
	}
	return moved, nil
}

func (l *Ledger) write(ctx context.Context, row StockRow, req MovementRequest, after int64) (*Movement, error) {
	if err := l.repo.SetStock(ctx, row.ProductID, after); err != nil {
		return nil, fmt.Errorf("set stock: %w", err)
	}

	m := &Movement{
		ID:          id.New(),
		ProductID:   row.ProductID,
		Kind:        req.Kind,
		Delta:       req.Delta,
		StockBefore: row.Stock,
		StockAfter:  after,
		Reason:      req.Reason,
		ActorID:     req.ActorID,
		CreatedAt:   l.now(),
	}
	if req.Reference != nil {
		refID, refKind := req.Reference.ID, req.Reference.Kind
		m.ReferenceID = &refID
		m.ReferenceKind = &refKind
	}

	if err := l.repo.InsertMovement(ctx, m); err != nil {
		return nil, fmt.Errorf("insert movement: %w", err)
	}

	logger.Debug(ctx, "stock movement",
		"product_id", row.ProductID,
		"kind", string(m.Kind),
		"delta", m.Delta,
		"before", m.StockBefore,
		"after", m.StockAfter,
	)
	return m, nil
}

// Movements returns the movement history of a product, oldest first.
func (l *Ledger) Movements(ctx context.Context, productID id.ID, limit int) ([]Movement, error) {
	if _, err := l.repo.ReadStock(ctx, productID); err != nil {
		return nil, err
	}
	return l.repo.ListMovements(ctx, productID, limit)
}

// ReconcileChain verifies that every movement is arithmetically consistent,
// that each one starts where the previous ended and that the last one ends at
// the current stock.
func (l *Ledger) ReconcileChain(ctx context.Context, productID id.ID) error {
	row, err := l.repo.ReadStock(ctx, productID)
	if err != nil {
		return err
	}
	movements, err := l.repo.ListMovements(ctx, productID, 0)
	if err != nil {
		return err
	}
	return checkChain(row, movements)
}

func checkChain(row StockRow, movements []Movement) error {
	broken := func(i int, reason string) error {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "movement chain is broken").
			WithDetail("product_id", row.ProductID.String()).
			WithDetail("index", i).
			WithDetail("reason", reason)
	}

	for i, m := range movements {
		if m.StockAfter != m.StockBefore+m.Delta {
			return broken(i, "stock_after != stock_before + delta")
		}
		if i > 0 && movements[i-1].StockAfter != m.StockBefore {
			return broken(i, "stock_before differs from previous stock_after")
		}
	}
	if n := len(movements); n > 0 && movements[n-1].StockAfter != row.Stock {
		return broken(n-1, "last stock_after differs from current stock")
	}
	return nil
}

func validateRequest(req MovementRequest) error {
	if req.Delta == 0 {
		return apperror.NewValidation("delta must not be zero").WithDetail("field", "delta")
	}
	if !req.Kind.Valid() {
		return apperror.NewValidation("unknown movement kind").WithDetail("kind", string(req.Kind))
	}
	if !req.Kind.acceptsDelta(req.Delta) {
		return apperror.NewValidation("movement kind does not match the direction of the change").
			WithDetail("kind", string(req.Kind)).
			WithDetail("delta", req.Delta)
	}
	if id.IsNil(req.ProductID) {
		return apperror.NewValidation("product id is required").WithDetail("field", "product_id")
	}
	return nil
}
