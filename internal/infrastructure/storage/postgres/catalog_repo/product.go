package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"revengepos/internal/core/apperror"
	"revengepos/internal/core/entity"
	"revengepos/internal/core/id"
	"revengepos/internal/core/types"
	"revengepos/internal/domain/catalogs/product"
	"revengepos/internal/infrastructure/storage/postgres"
)

const productTable = "products"

// ProductRepo implements product.Repository.
// The stock column is owned by the ledger and never written here after insert.
type ProductRepo struct {
	*BaseCatalogRepo[*product.Product]
}

var _ product.Repository = (*ProductRepo)(nil)

// NewProductRepo creates a new product repository.
func NewProductRepo(txManager *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			productTable,
			postgres.ExtractDBColumns[product.Product](),
			func() *product.Product { return &product.Product{} },
			"stock", "lifecycle",
		),
	}
}

// GetByCode retrieves a product by its code, deleted rows included.
func (r *ProductRepo) GetByCode(ctx context.Context, code string) (*product.Product, error) {
	return r.FindOne(ctx, r.baseSelect().Where(squirrel.Eq{"code": code}).Limit(1), code)
}

// ListLowStock returns active products at or below their minimum.
func (r *ProductRepo) ListLowStock(ctx context.Context, limit int) ([]*product.Product, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"lifecycle": entity.LifecycleActive}).
		Where("stock <= stock_minimum").
		OrderBy("stock - stock_minimum ASC", "name ASC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	return r.FindMany(ctx, q)
}

// Valuation sums stock value over non-deleted products.
func (r *ProductRepo) Valuation(ctx context.Context) (product.Valuation, error) {
	sql, args, err := r.Builder().
		Select(
			"COUNT(*) AS products",
			"COALESCE(SUM(stock), 0)::bigint AS units",
			"COALESCE(SUM(stock * cost_price), 0) AS cost_value",
			"COALESCE(SUM(stock * sale_price), 0) AS sale_value",
		).
		From(productTable).
		Where(squirrel.NotEq{"lifecycle": entity.LifecycleDeleted}).
		ToSql()
	if err != nil {
		return product.Valuation{}, fmt.Errorf("build valuation: %w", err)
	}

	var v product.Valuation
	if err := pgxscan.Get(ctx, r.querier(ctx), &v, sql, args...); err != nil {
		return product.Valuation{}, postgres.MapError(fmt.Errorf("valuation: %w", err), productTable, nil)
	}
	return v, nil
}

// RaiseCostPrice only ever moves cost_price up.
func (r *ProductRepo) RaiseCostPrice(ctx context.Context, productID id.ID, unitCost types.Money) (bool, error) {
	sql, args, err := r.Builder().
		Update(productTable).
		Set("cost_price", unitCost).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": productID}).
		Where(squirrel.NotEq{"lifecycle": entity.LifecycleDeleted}).
		Where(squirrel.Lt{"cost_price": unitCost}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build raise cost: %w", err)
	}

	tag, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return false, postgres.MapError(fmt.Errorf("raise cost price: %w", err), productTable, productID)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	ok, err := r.Exists(ctx, productID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, apperror.NewNotFound("product", productID.String())
	}
	return false, nil
}

// CountByCategory implements category.ProductCounter.
func (r *ProductRepo) CountByCategory(ctx context.Context, categoryID id.ID) (int64, error) {
	sql, args, err := r.Builder().
		Select("COUNT(*)").
		From(productTable).
		Where(squirrel.Eq{"category_id": categoryID}).
		Where(squirrel.NotEq{"lifecycle": entity.LifecycleDeleted}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}

	var n int64
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, postgres.MapError(fmt.Errorf("count by category: %w", err), productTable, categoryID)
	}
	return n, nil
}
