// Package catalog_repo provides PostgreSQL implementations for catalog repositories.
package catalog_repo

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"revengepos/internal/core/apperror"
	"revengepos/internal/core/entity"
	"revengepos/internal/core/id"
	"revengepos/internal/domain"
	"revengepos/internal/domain/filter"
	"revengepos/internal/infrastructure/storage/postgres"
)

// BaseCatalogRepo provides common CRUD operations for catalog entities.
// Embed this in specific catalog repositories.
//
// Rows are never physically removed: delete is a lifecycle change, and
// Exists/List hide deleted rows unless asked otherwise.
type BaseCatalogRepo[T any] struct {
	txManager  *postgres.TxManager
	tableName  string
	selectCols []string
	// readOnly columns are never written by Update.
	readOnly map[string]bool
	newFn    func() T
}

// NewBaseCatalogRepo creates a new base catalog repository. readOnly lists
// columns besides id and created_at that Update must leave alone.
func NewBaseCatalogRepo[T any](
	txManager *postgres.TxManager,
	tableName string,
	selectCols []string,
	newFn func() T,
	readOnly ...string,
) *BaseCatalogRepo[T] {
	ro := map[string]bool{"id": true, "created_at": true}
	for _, col := range readOnly {
		ro[col] = true
	}
	return &BaseCatalogRepo[T]{
		txManager:  txManager,
		tableName:  tableName,
		selectCols: selectCols,
		readOnly:   ro,
		newFn:      newFn,
	}
}

func (r *BaseCatalogRepo[T]) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *BaseCatalogRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Create inserts a new entity using its "db" tags.
func (r *BaseCatalogRepo[T]) Create(ctx context.Context, entity T) error {
	data := postgres.StructToMap(entity)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in entity")
	}

	// Filter to only include columns that exist in DB
	filteredData := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if val, ok := data[col]; ok {
			filteredData[col] = val
		}
	}

	sql, args, err := r.Builder().Insert(r.tableName).SetMap(filteredData).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(fmt.Errorf("insert %s: %w", r.tableName, err), r.tableName, data["id"])
	}
	return nil
}

// Update writes every mutable column of a non-deleted row.
func (r *BaseCatalogRepo[T]) Update(ctx context.Context, ent T) error {
	data := postgres.StructToMap(ent)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in entity")
	}

	entityID, ok := data["id"]
	if !ok {
		return fmt.Errorf("entity has no 'id' field with db tag")
	}

	filteredData := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if r.readOnly[col] {
			continue
		}
		if val, ok := data[col]; ok {
			filteredData[col] = val
		}
	}

	sql, args, err := r.Builder().
		Update(r.tableName).
		SetMap(filteredData).
		Where(squirrel.Eq{"id": entityID}).
		Where(squirrel.NotEq{"lifecycle": entity.LifecycleDeleted}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(fmt.Errorf("update %s: %w", r.tableName, err), r.tableName, entityID)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.tableName, fmt.Sprint(entityID))
	}
	return nil
}

// baseSelect creates a SELECT builder.
func (r *BaseCatalogRepo[T]) baseSelect() squirrel.SelectBuilder {
	return r.Builder().
		Select(r.selectCols...).
		From(r.tableName)
}

// GetByID retrieves entity by ID, deleted rows included.
func (r *BaseCatalogRepo[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	return r.FindOne(ctx, r.baseSelect().Where(squirrel.Eq{"id": entityID}).Limit(1), entityID.String())
}

// SetLifecycle moves a row to another lifecycle state.
func (r *BaseCatalogRepo[T]) SetLifecycle(ctx context.Context, entityID id.ID, l entity.Lifecycle) error {
	sql, args, err := r.Builder().
		Update(r.tableName).
		Set("lifecycle", l).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": entityID}).
		Where(squirrel.NotEq{"lifecycle": entity.LifecycleDeleted}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set lifecycle: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(fmt.Errorf("set lifecycle %s: %w", r.tableName, err), r.tableName, entityID)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.tableName, entityID.String())
	}
	return nil
}

// applyListFilter adds the fixed filters of domain.ListFilter.
func (r *BaseCatalogRepo[T]) applyListFilter(q squirrel.SelectBuilder, f domain.ListFilter) (squirrel.SelectBuilder, error) {
	switch {
	case f.Lifecycle != nil:
		q = q.Where(squirrel.Eq{"lifecycle": *f.Lifecycle})
	case !f.IncludeDeleted:
		q = q.Where(squirrel.NotEq{"lifecycle": entity.LifecycleDeleted})
	}

	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		search := squirrel.Or{squirrel.ILike{"name": pattern}}
		if r.hasColumn("code") {
			search = append(search, squirrel.ILike{"code": pattern})
		}
		q = q.Where(search)
	}

	if len(f.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": f.IDs})
	}

	if f.CategoryID != nil {
		if !r.hasColumn("category_id") {
			return q, apperror.NewValidation("category filter is not supported").WithDetail("entity", r.tableName)
		}
		q = q.Where(squirrel.Eq{"category_id": *f.CategoryID})
	}

	return r.applyAdvancedFilters(q, f.AdvancedFilters)
}

// List retrieves entities with filtering and pagination.
func (r *BaseCatalogRepo[T]) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[T], error) {
	result := domain.ListResult[T]{
		Limit:  f.Limit,
		Offset: f.Offset,
	}

	q, err := r.applyListFilter(r.baseSelect(), f)
	if err != nil {
		return result, err
	}

	// Count total (before pagination)
	countSQL, countArgs, err := r.Builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}

	querier := r.querier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, postgres.MapError(fmt.Errorf("count: %w", err), r.tableName, nil)
	}

	orderBy, err := r.parseOrderBy(f.OrderBy)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy, "id ASC")

	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, postgres.MapError(fmt.Errorf("list: %w", err), r.tableName, nil)
	}
	return result, nil
}

// applyAdvancedFilters applies column conditions. Only selected columns may
// be referenced.
func (r *BaseCatalogRepo[T]) applyAdvancedFilters(q squirrel.SelectBuilder, filters []filter.Item) (squirrel.SelectBuilder, error) {
	for _, item := range filters {
		if !r.hasColumn(item.Field) {
			return q, apperror.NewValidation("invalid filter column").WithDetail("field", item.Field)
		}

		switch item.Operator {
		case filter.Equal:
			q = q.Where(squirrel.Eq{item.Field: item.Value})
		case filter.NotEqual:
			q = q.Where(squirrel.NotEq{item.Field: item.Value})
		case filter.LessOrEqual:
			q = q.Where(squirrel.LtOrEq{item.Field: item.Value})
		case filter.GreaterOrEqual:
			q = q.Where(squirrel.GtOrEq{item.Field: item.Value})
		case filter.Less:
			q = q.Where(squirrel.Lt{item.Field: item.Value})
		case filter.Greater:
			q = q.Where(squirrel.Gt{item.Field: item.Value})
		case filter.IsNull:
			q = q.Where(squirrel.Eq{item.Field: nil})
		case filter.IsNotNull:
			q = q.Where(squirrel.NotEq{item.Field: nil})
		case filter.Contains:
			q = q.Where(squirrel.ILike{item.Field: fmt.Sprintf("%%%v%%", item.Value)})
		default:
			return q, apperror.NewValidation("invalid filter operator").WithDetail("operator", string(item.Operator))
		}
	}
	return q, nil
}

// Exists reports whether a non-deleted row exists.
func (r *BaseCatalogRepo[T]) Exists(ctx context.Context, entityID id.ID) (bool, error) {
	return r.exists(ctx, squirrel.Eq{"id": entityID})
}

// ExistsActive reports whether an active row exists.
func (r *BaseCatalogRepo[T]) ExistsActive(ctx context.Context, entityID id.ID) (bool, error) {
	return r.exists(ctx, squirrel.Eq{"id": entityID, "lifecycle": entity.LifecycleActive})
}

func (r *BaseCatalogRepo[T]) exists(ctx context.Context, cond squirrel.Sqlizer) (bool, error) {
	sql, args, err := r.Builder().
		Select("1").
		From(r.tableName).
		Where(cond).
		Where(squirrel.NotEq{"lifecycle": entity.LifecycleDeleted}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	err = r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, postgres.MapError(fmt.Errorf("exists: %w", err), r.tableName, nil)
	}
	return true, nil
}

// FindOne executes a SELECT query and returns a single entity.
func (r *BaseCatalogRepo[T]) FindOne(ctx context.Context, q squirrel.SelectBuilder, key string) (T, error) {
	entity := r.newFn()

	sql, args, err := q.ToSql()
	if err != nil {
		return entity, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.querier(ctx), entity, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return entity, apperror.NewNotFound(r.tableName, key)
		}
		return entity, postgres.MapError(fmt.Errorf("find one: %w", err), r.tableName, key)
	}
	return entity, nil
}

// FindMany executes a SELECT query and scans every row.
func (r *BaseCatalogRepo[T]) FindMany(ctx context.Context, q squirrel.SelectBuilder) ([]T, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var items []T
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, postgres.MapError(fmt.Errorf("find many: %w", err), r.tableName, nil)
	}
	return items, nil
}

func (r *BaseCatalogRepo[T]) hasColumn(col string) bool {
	return slices.Contains(r.selectCols, col)
}

func (r *BaseCatalogRepo[T]) parseOrderBy(orderBy string) (string, error) {
	if orderBy == "" {
		return "name ASC", nil
	}

	// Support "-field" for DESC.
	direction := "ASC"
	field := orderBy
	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		field = strings.TrimPrefix(orderBy, "-")
	} else if strings.HasPrefix(orderBy, "+") {
		field = strings.TrimPrefix(orderBy, "+")
	}

	field = strings.TrimSpace(field)
	if field == "" || !r.hasColumn(field) {
		return "", apperror.NewValidation("invalid orderBy").WithDetail("orderBy", orderBy)
	}
	return field + " " + direction, nil
}
