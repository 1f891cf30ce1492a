package document_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"revengepos/internal/core/id"
	"revengepos/internal/domain"
	"revengepos/internal/domain/documents/purchase"
	"revengepos/internal/infrastructure/storage/postgres"
)

// PurchaseRepo implements purchase.Repository.
type PurchaseRepo struct {
	*BaseDocumentRepo[*purchase.Purchase, purchase.Line]
}

var _ purchase.Repository = (*PurchaseRepo)(nil)

// NewPurchaseRepo creates a new purchase repository.
func NewPurchaseRepo(txManager *postgres.TxManager) *PurchaseRepo {
	return &PurchaseRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[*purchase.Purchase, purchase.Line](
			txManager, "purchase", "purchases", "purchase_lines", "purchase_id",
			func() *purchase.Purchase { return &purchase.Purchase{} },
		),
	}
}

func (r *PurchaseRepo) Insert(ctx context.Context, p *purchase.Purchase) error {
	return r.insertHeader(ctx, p, p.InvoiceNumber)
}

func (r *PurchaseRepo) InsertLines(ctx context.Context, lines []purchase.Line) error {
	return r.insertLines(ctx, lines)
}

func (r *PurchaseRepo) GetByID(ctx context.Context, purchaseID id.ID) (*purchase.Purchase, error) {
	return r.getByID(ctx, purchaseID)
}

func (r *PurchaseRepo) GetLines(ctx context.Context, purchaseID id.ID) ([]purchase.Line, error) {
	return r.getLines(ctx, purchaseID)
}

// List returns purchase headers newest first.
func (r *PurchaseRepo) List(ctx context.Context, filter purchase.ListFilter) (domain.ListResult[*purchase.Purchase], error) {
	q := dateRange(r.baseSelect(), filter.From, filter.To)
	if filter.SupplierID != nil {
		q = q.Where(squirrel.Eq{"supplier_id": *filter.SupplierID})
	}
	return r.list(ctx, q, filter.Limit, filter.Offset)
}

// Summary aggregates purchases with created_at in [from, to).
func (r *PurchaseRepo) Summary(ctx context.Context, from, to time.Time) (purchase.MonthSummary, error) {
	q := dateRange(r.Builder().
		Select(
			"COUNT(*) AS purchases_count",
			"COALESCE(SUM(total), 0) AS spent",
			"COALESCE(ROUND(AVG(total), 2), 0) AS average",
		).
		From(r.tableName), &from, &to)

	sql, args, err := q.ToSql()
	if err != nil {
		return purchase.MonthSummary{}, fmt.Errorf("build summary: %w", err)
	}

	var sum purchase.MonthSummary
	if err := pgxscan.Get(ctx, r.querier(ctx), &sum, sql, args...); err != nil {
		return purchase.MonthSummary{}, postgres.MapError(fmt.Errorf("purchase summary: %w", err), r.entityName, nil)
	}
	return sum, nil
}

// CountBySupplier counts every purchase of a supplier.
func (r *PurchaseRepo) CountBySupplier(ctx context.Context, supplierID id.ID) (int64, error) {
	sql, args, err := r.Builder().
		Select("COUNT(*)").
		From(r.tableName).
		Where(squirrel.Eq{"supplier_id": supplierID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}

	var n int64
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, postgres.MapError(fmt.Errorf("count by supplier: %w", err), r.entityName, supplierID)
	}
	return n, nil
}
