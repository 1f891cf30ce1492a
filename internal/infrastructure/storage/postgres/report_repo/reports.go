// Package report_repo provides the PostgreSQL implementation of the report queries.
package report_repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"revengepos/internal/domain/reports"
	"revengepos/internal/infrastructure/storage/postgres"
)

// ReportRepo implements reports.Repository.
type ReportRepo struct {
	txManager *postgres.TxManager
}

var _ reports.Repository = (*ReportRepo)(nil)

// NewReportRepo creates a new report repository.
func NewReportRepo(txManager *postgres.TxManager) *ReportRepo {
	return &ReportRepo{txManager: txManager}
}

func (r *ReportRepo) selectAll(ctx context.Context, dst any, name, query string, args ...any) error {
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), dst, query, args...); err != nil {
		return postgres.MapError(fmt.Errorf("%s: %w", name, err), "report", name)
	}
	return nil
}

func (r *ReportRepo) getOne(ctx context.Context, dst any, name, query string, args ...any) error {
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), dst, query, args...); err != nil {
		return postgres.MapError(fmt.Errorf("%s: %w", name, err), "report", name)
	}
	return nil
}

// --- Sales ---

const salesSummarySQL = `
	SELECT
		COUNT(*) AS sales_count,
		COALESCE(SUM(total), 0) AS revenue,
		COALESCE(ROUND(AVG(total), 2), 0) AS average,
		COALESCE(MIN(total), 0) AS minimum,
		COALESCE(MAX(total), 0) AS maximum
	FROM sales
	WHERE created_at >= $1 AND created_at < $2`

const salesByDaySQL = `
	SELECT
		(created_at AT TIME ZONE 'UTC')::date AS day,
		COUNT(*) AS count,
		SUM(total) AS total
	FROM sales
	WHERE created_at >= $1 AND created_at < $2
	GROUP BY day
	ORDER BY day`

const salesTopProductsSQL = `
	SELECT
		l.product_id,
		p.code AS product_code,
		p.name AS product_name,
		COALESCE(c.name, '') AS category_name,
		SUM(l.quantity)::bigint AS quantity,
		SUM(l.line_total) AS total
	FROM sale_lines l
	JOIN sales s ON s.id = l.sale_id
	JOIN products p ON p.id = l.product_id
	LEFT JOIN categories c ON c.id = p.category_id
	WHERE s.created_at >= $1 AND s.created_at < $2
	GROUP BY l.product_id, p.code, p.name, c.name
	ORDER BY total DESC, quantity DESC, p.name
	LIMIT $3`

const salesByPaymentSQL = `
	SELECT
		pm.id,
		pm.name,
		COUNT(*) AS count,
		SUM(s.total) AS total
	FROM sales s
	JOIN payment_methods pm ON pm.id = s.payment_method_id
	WHERE s.created_at >= $1 AND s.created_at < $2
	GROUP BY pm.id, pm.name
	ORDER BY total DESC`

const salesByCashierSQL = `
	SELECT
		u.id,
		u.full_name AS name,
		COUNT(*) AS count,
		SUM(s.total) AS total
	FROM sales s
	JOIN users u ON u.id = s.cashier_id
	WHERE s.created_at >= $1 AND s.created_at < $2
	GROUP BY u.id, u.full_name
	ORDER BY total DESC`

// Sales collects the sales report for [from, to).
func (r *ReportRepo) Sales(ctx context.Context, from, to time.Time, top int) (*reports.SalesReport, error) {
	report := &reports.SalesReport{
		ByDay:       []reports.DayTotal{},
		TopProducts: []reports.ProductTotal{},
		ByPayment:   []reports.GroupTotal{},
		ByCashier:   []reports.GroupTotal{},
	}

	if err := r.getOne(ctx, &report.Summary, "sales summary", salesSummarySQL, from, to); err != nil {
		return nil, err
	}
	if err := r.selectAll(ctx, &report.ByDay, "sales by day", salesByDaySQL, from, to); err != nil {
		return nil, err
	}
	if err := r.selectAll(ctx, &report.TopProducts, "sales top products", salesTopProductsSQL, from, to, top); err != nil {
		return nil, err
	}
	if err := r.selectAll(ctx, &report.ByPayment, "sales by payment", salesByPaymentSQL, from, to); err != nil {
		return nil, err
	}
	if err := r.selectAll(ctx, &report.ByCashier, "sales by cashier", salesByCashierSQL, from, to); err != nil {
		return nil, err
	}
	return report, nil
}

// --- Purchases ---

const purchasesSummarySQL = `
	SELECT
		COUNT(*) AS purchases_count,
		COALESCE(SUM(total), 0) AS spent,
		COALESCE(ROUND(AVG(total), 2), 0) AS average
	FROM purchases
	WHERE created_at >= $1 AND created_at < $2`

const purchasesBySupplierSQL = `
	SELECT
		sp.id,
		sp.name,
		COUNT(*) AS count,
		SUM(pu.total) AS total
	FROM purchases pu
	JOIN suppliers sp ON sp.id = pu.supplier_id
	WHERE pu.created_at >= $1 AND pu.created_at < $2
	GROUP BY sp.id, sp.name
	ORDER BY total DESC`

const purchasesTopProductsSQL = `
	SELECT
		l.product_id,
		p.code AS product_code,
		p.name AS product_name,
		COALESCE(c.name, '') AS category_name,
		SUM(l.quantity)::bigint AS quantity,
		SUM(l.line_total) AS total
	FROM purchase_lines l
	JOIN purchases pu ON pu.id = l.purchase_id
	JOIN products p ON p.id = l.product_id
	LEFT JOIN categories c ON c.id = p.category_id
	WHERE pu.created_at >= $1 AND pu.created_at < $2
	GROUP BY l.product_id, p.code, p.name, c.name
	ORDER BY total DESC, quantity DESC, p.name
	LIMIT $3`

const purchasesByDaySQL = `
	SELECT
		(created_at AT TIME ZONE 'UTC')::date AS day,
		COUNT(*) AS count,
		SUM(total) AS total
	FROM purchases
	WHERE created_at >= $1 AND created_at < $2
	GROUP BY day
	ORDER BY day`

// Purchases collects the purchases report for [from, to).
func (r *ReportRepo) Purchases(ctx context.Context, from, to time.Time, top int) (*reports.PurchasesReport, error) {
	report := &reports.PurchasesReport{
		BySupplier:  []reports.GroupTotal{},
		TopProducts: []reports.ProductTotal{},
		ByDay:       []reports.DayTotal{},
	}

	if err := r.getOne(ctx, &report.Summary, "purchases summary", purchasesSummarySQL, from, to); err != nil {
		return nil, err
	}
	if err := r.selectAll(ctx, &report.BySupplier, "purchases by supplier", purchasesBySupplierSQL, from, to); err != nil {
		return nil, err
	}
	if err := r.selectAll(ctx, &report.TopProducts, "purchases top products", purchasesTopProductsSQL, from, to, top); err != nil {
		return nil, err
	}
	if err := r.selectAll(ctx, &report.ByDay, "purchases by day", purchasesByDaySQL, from, to); err != nil {
		return nil, err
	}
	return report, nil
}

// --- Inventory ---

// Low stock is counted over products that still have units; empty shelves
// are reported separately as out of stock.
const inventorySummarySQL = `
	SELECT
		COUNT(*) AS products,
		COALESCE(SUM(stock * cost_price), 0) AS cost_value,
		COALESCE(SUM(stock * sale_price), 0) AS sale_value,
		COUNT(*) FILTER (WHERE stock > 0 AND stock <= stock_minimum) AS low_stock,
		COUNT(*) FILTER (WHERE stock = 0) AS out_of_stock
	FROM products
	WHERE lifecycle <> 'deleted'`

const inventoryByCategorySQL = `
	SELECT
		c.id AS category_id,
		COALESCE(c.name, 'Sin categoría') AS category_name,
		COUNT(*) AS products,
		COALESCE(SUM(p.stock), 0)::bigint AS units,
		COALESCE(SUM(p.stock * p.cost_price), 0) AS cost_value
	FROM products p
	LEFT JOIN categories c ON c.id = p.category_id
	WHERE p.lifecycle <> 'deleted'
	GROUP BY c.id, c.name
	ORDER BY cost_value DESC, category_name`

const inventoryStockListSQL = `
	SELECT
		p.id AS product_id,
		p.code,
		p.name,
		COALESCE(c.name, '') AS category_name,
		p.stock,
		p.stock_minimum
	FROM products p
	LEFT JOIN categories c ON c.id = p.category_id
	WHERE p.lifecycle <> 'deleted' AND %s
	ORDER BY p.stock - p.stock_minimum, p.name`

// Inventory snapshots stock over non-deleted products.
func (r *ReportRepo) Inventory(ctx context.Context) (*reports.InventoryReport, error) {
	report := &reports.InventoryReport{
		ByCategory: []reports.CategoryStock{},
		LowStock:   []reports.StockItem{},
		OutOfStock: []reports.StockItem{},
	}

	if err := r.getOne(ctx, &report.Summary, "inventory summary", inventorySummarySQL); err != nil {
		return nil, err
	}
	if err := r.selectAll(ctx, &report.ByCategory, "inventory by category", inventoryByCategorySQL); err != nil {
		return nil, err
	}
	lowSQL := fmt.Sprintf(inventoryStockListSQL, "p.stock > 0 AND p.stock <= p.stock_minimum")
	if err := r.selectAll(ctx, &report.LowStock, "inventory low stock", lowSQL); err != nil {
		return nil, err
	}
	outSQL := fmt.Sprintf(inventoryStockListSQL, "p.stock = 0")
	if err := r.selectAll(ctx, &report.OutOfStock, "inventory out of stock", outSQL); err != nil {
		return nil, err
	}
	return report, nil
}

// --- Turnover ---

// Turnover reconciles inventory_movements per product: the opening balance
// is every delta before the period, receipts and expenses are the positive
// and negative deltas inside it.
func (r *ReportRepo) Turnover(ctx context.Context, filter reports.TurnoverFilter) ([]reports.TurnoverItem, error) {
	from, to := filter.Period.Bounds()
	args := []any{from, to}

	var where []string
	where = append(where, "p.lifecycle <> 'deleted'")
	if len(filter.ProductIDs) > 0 {
		args = append(args, filter.ProductIDs)
		where = append(where, fmt.Sprintf("p.id = ANY($%d)", len(args)))
	}

	having := ""
	if !filter.IncludeZero {
		having = "WHERE t.opening <> 0 OR t.receipt <> 0 OR t.expense <> 0"
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`
		WITH totals AS (
			SELECT
				p.id AS product_id,
				p.code AS product_code,
				p.name AS product_name,
				COALESCE(SUM(m.delta) FILTER (WHERE m.created_at < $1), 0)::bigint AS opening,
				COALESCE(SUM(m.delta) FILTER (WHERE m.created_at >= $1 AND m.created_at < $2 AND m.delta > 0), 0)::bigint AS receipt,
				COALESCE(-SUM(m.delta) FILTER (WHERE m.created_at >= $1 AND m.created_at < $2 AND m.delta < 0), 0)::bigint AS expense
			FROM products p
			LEFT JOIN inventory_movements m ON m.product_id = p.id AND m.created_at < $2
			WHERE %s
			GROUP BY p.id, p.code, p.name
		)
		SELECT
			t.product_id,
			t.product_code,
			t.product_name,
			t.opening,
			t.receipt,
			t.expense,
			t.opening + t.receipt - t.expense AS closing
		FROM totals t
		%s
		ORDER BY t.product_name, t.product_code
		LIMIT $%d OFFSET $%d`,
		strings.Join(where, " AND "), having, len(args)-1, len(args))

	items := []reports.TurnoverItem{}
	if err := r.selectAll(ctx, &items, "stock turnover", query, args...); err != nil {
		return nil, err
	}
	return items, nil
}
