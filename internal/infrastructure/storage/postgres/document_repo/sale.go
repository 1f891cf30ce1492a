package document_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"revengepos/internal/core/id"
	"revengepos/internal/domain"
	"revengepos/internal/domain/documents/sale"
	"revengepos/internal/infrastructure/storage/postgres"
)

// SaleRepo implements sale.Repository.
type SaleRepo struct {
	*BaseDocumentRepo[*sale.Sale, sale.Line]
}

var _ sale.Repository = (*SaleRepo)(nil)

// NewSaleRepo creates a new sale repository.
func NewSaleRepo(txManager *postgres.TxManager) *SaleRepo {
	return &SaleRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[*sale.Sale, sale.Line](
			txManager, "sale", "sales", "sale_lines", "sale_id",
			func() *sale.Sale { return &sale.Sale{} },
		),
	}
}

// Insert writes the header. A duplicate ticket number surfaces as
// CONCURRENT_MODIFICATION so the caller can retry with a fresh number.
func (r *SaleRepo) Insert(ctx context.Context, s *sale.Sale) error {
	return r.insertHeader(ctx, s, s.TicketNumber)
}

// InsertLines writes the ticket rows.
func (r *SaleRepo) InsertLines(ctx context.Context, lines []sale.Line) error {
	return r.insertLines(ctx, lines)
}

// GetByID retrieves a sale header.
func (r *SaleRepo) GetByID(ctx context.Context, saleID id.ID) (*sale.Sale, error) {
	return r.getByID(ctx, saleID)
}

// GetByTicket retrieves a sale header by ticket number.
func (r *SaleRepo) GetByTicket(ctx context.Context, ticketNumber string) (*sale.Sale, error) {
	return r.findOne(ctx, r.baseSelect().Where(squirrel.Eq{"ticket_number": ticketNumber}), ticketNumber)
}

// GetLines returns the ticket rows ordered by line number.
func (r *SaleRepo) GetLines(ctx context.Context, saleID id.ID) ([]sale.Line, error) {
	return r.getLines(ctx, saleID)
}

// List returns sale headers newest first.
func (r *SaleRepo) List(ctx context.Context, filter sale.ListFilter) (domain.ListResult[*sale.Sale], error) {
	q := dateRange(r.baseSelect(), filter.From, filter.To)
	if filter.CashierID != nil {
		q = q.Where(squirrel.Eq{"cashier_id": *filter.CashierID})
	}
	return r.list(ctx, q, filter.Limit, filter.Offset)
}

// DaySummary aggregates sales with created_at in [from, to).
func (r *SaleRepo) DaySummary(ctx context.Context, from, to time.Time) (sale.DaySummary, error) {
	q := dateRange(r.Builder().
		Select(
			"COUNT(*) AS sales_count",
			"COALESCE(SUM(total), 0) AS revenue",
			"COALESCE(SUM(discount), 0) AS discounts",
			"COALESCE(SUM(tax), 0) AS tax",
			"COALESCE(ROUND(AVG(total), 2), 0) AS average_ticket",
		).
		From(r.tableName), &from, &to)

	sql, args, err := q.ToSql()
	if err != nil {
		return sale.DaySummary{}, fmt.Errorf("build summary: %w", err)
	}

	var sum sale.DaySummary
	if err := pgxscan.Get(ctx, r.querier(ctx), &sum, sql, args...); err != nil {
		return sale.DaySummary{}, postgres.MapError(fmt.Errorf("day summary: %w", err), r.entityName, nil)
	}
	return sum, nil
}

// TopSellers ranks products by units sold. Code and name come from the
// current catalog row.
func (r *SaleRepo) TopSellers(ctx context.Context, from, to *time.Time, limit int) ([]sale.TopSeller, error) {
	q := r.Builder().
		Select(
			"l.product_id",
			"p.code AS product_code",
			"p.name AS product_name",
			"SUM(l.quantity)::bigint AS quantity",
			"SUM(l.line_total) AS revenue",
		).
		From("sale_lines l").
		Join("sales s ON s.id = l.sale_id").
		Join("products p ON p.id = l.product_id").
		GroupBy("l.product_id", "p.code", "p.name").
		OrderBy("quantity DESC", "revenue DESC", "p.name ASC")
	if from != nil {
		q = q.Where(squirrel.GtOrEq{"s.created_at": *from})
	}
	if to != nil {
		q = q.Where(squirrel.Lt{"s.created_at": *to})
	}
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build top sellers: %w", err)
	}

	top := []sale.TopSeller{}
	if err := pgxscan.Select(ctx, r.querier(ctx), &top, sql, args...); err != nil {
		return nil, postgres.MapError(fmt.Errorf("top sellers: %w", err), r.entityName, nil)
	}
	return top, nil
}

// CashierTotals sums one cashier's tickets.
func (r *SaleRepo) CashierTotals(ctx context.Context, cashierID id.ID, from, to *time.Time) (sale.CashierTotals, error) {
	q := dateRange(r.Builder().
		Select("COUNT(*) AS sales_count", "COALESCE(SUM(total), 0) AS amount").
		From(r.tableName).
		Where(squirrel.Eq{"cashier_id": cashierID}), from, to)

	sql, args, err := q.ToSql()
	if err != nil {
		return sale.CashierTotals{}, fmt.Errorf("build cashier totals: %w", err)
	}

	var totals sale.CashierTotals
	if err := pgxscan.Get(ctx, r.querier(ctx), &totals, sql, args...); err != nil {
		return sale.CashierTotals{}, postgres.MapError(fmt.Errorf("cashier totals: %w", err), r.entityName, cashierID)
	}
	return totals, nil
}
