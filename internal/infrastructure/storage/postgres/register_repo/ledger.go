// Package register_repo provides the PostgreSQL inventory ledger repository.
package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"revengepos/internal/core/apperror"
	"revengepos/internal/core/entity"
	"revengepos/internal/core/id"
	"revengepos/internal/domain/ledger"
	"revengepos/internal/infrastructure/storage/postgres"
)

const (
	movementsTable = "inventory_movements"
	productsTable  = "products"
)

var movementColumns = postgres.ExtractDBColumns[ledger.Movement]()

// LedgerRepo implements ledger.Repository over products.stock and
// inventory_movements.
type LedgerRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ ledger.Repository = (*LedgerRepo)(nil)

// NewLedgerRepo creates a new ledger repository.
func NewLedgerRepo(txManager *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *LedgerRepo) stockSelect() squirrel.SelectBuilder {
	return r.builder.Select("id", "code", "stock").
		From(productsTable).
		Limit(1)
}

// LockStock reads the stock row with FOR UPDATE. Concurrent writers on the
// same product queue here until the holder commits or rolls back.
func (r *LedgerRepo) LockStock(ctx context.Context, productID id.ID) (ledger.StockRow, error) {
	if r.txManager.GetTx(ctx) == nil {
		return ledger.StockRow{}, fmt.Errorf("LockStock requires transaction context")
	}
	return r.readStock(ctx, r.stockSelect().
		Where(squirrel.Eq{"id": productID}).
		Where(squirrel.NotEq{"lifecycle": entity.LifecycleDeleted}).
		Suffix("FOR UPDATE"), productID)
}

// ReadStock reads the stock row without locking.
func (r *LedgerRepo) ReadStock(ctx context.Context, productID id.ID) (ledger.StockRow, error) {
	return r.readStock(ctx, r.stockSelect().
		Where(squirrel.Eq{"id": productID}).
		Where(squirrel.NotEq{"lifecycle": entity.LifecycleDeleted}), productID)
}

func (r *LedgerRepo) readStock(ctx context.Context, q squirrel.SelectBuilder, productID id.ID) (ledger.StockRow, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return ledger.StockRow{}, fmt.Errorf("build query: %w", err)
	}

	var row ledger.StockRow
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return ledger.StockRow{}, apperror.NewNotFound("product", productID.String())
		}
		return ledger.StockRow{}, postgres.MapError(fmt.Errorf("read stock: %w", err), "product", productID)
	}
	return row, nil
}

// SetStock writes the new stock value.
func (r *LedgerRepo) SetStock(ctx context.Context, productID id.ID, stock int64) error {
	sql, args, err := r.builder.Update(productsTable).
		Set("stock", stock).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": productID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(fmt.Errorf("set stock: %w", err), "product", productID)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("product", productID.String())
	}
	return nil
}

// InsertMovement appends one movement.
func (r *LedgerRepo) InsertMovement(ctx context.Context, m *ledger.Movement) error {
	data := postgres.StructToMap(m)
	values := make([]any, len(movementColumns))
	for i, col := range movementColumns {
		values[i] = data[col]
	}

	sql, args, err := r.builder.Insert(movementsTable).
		Columns(movementColumns...).
		Values(values...).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(fmt.Errorf("insert movement: %w", err), "inventory_movement", m.ID)
	}
	return nil
}

// ListMovements returns movements oldest first. UUIDv7 ids sort by creation.
func (r *LedgerRepo) ListMovements(ctx context.Context, productID id.ID, limit int) ([]ledger.Movement, error) {
	base := r.builder.Select(movementColumns...).
		From(movementsTable).
		Where(squirrel.Eq{"product_id": productID})

	q := base.OrderBy("id ASC")
	if limit > 0 {
		// newest `limit` rows, returned oldest first
		q = r.builder.Select(movementColumns...).
			FromSelect(base.OrderBy("id DESC").Limit(uint64(limit)), "recent").
			OrderBy("id ASC")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []ledger.Movement
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, postgres.MapError(fmt.Errorf("select movements: %w", err), "inventory_movement", productID)
	}
	return movements, nil
}
