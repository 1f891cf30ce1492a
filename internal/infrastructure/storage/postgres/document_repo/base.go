// Package document_repo provides PostgreSQL implementations for document repositories.
// Documents are immutable once committed: a header row plus numbered lines.
package document_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"revengepos/internal/core/apperror"
	"revengepos/internal/core/id"
	"revengepos/internal/domain"
	"revengepos/internal/infrastructure/storage/postgres"
)

const defaultListLimit = 100

// BaseDocumentRepo provides header/line persistence shared by sales and purchases.
type BaseDocumentRepo[H any, L any] struct {
	txManager *postgres.TxManager
	batch     *postgres.BatchInserter

	tableName  string
	entityName string
	selectCols []string
	lineTable  string
	lineCols   []string
	lineFK     string
	newFn      func() H
}

// NewBaseDocumentRepo creates a new base document repository.
func NewBaseDocumentRepo[H any, L any](
	txManager *postgres.TxManager,
	entityName, tableName, lineTable, lineFK string,
	newFn func() H,
) *BaseDocumentRepo[H, L] {
	return &BaseDocumentRepo[H, L]{
		txManager:  txManager,
		batch:      postgres.NewBatchInserter(txManager),
		tableName:  tableName,
		entityName: entityName,
		selectCols: postgres.ExtractDBColumns[H](),
		lineTable:  lineTable,
		lineCols:   postgres.ExtractDBColumns[L](),
		lineFK:     lineFK,
		newFn:      newFn,
	}
}

// Builder returns a new squirrel builder.
func (r *BaseDocumentRepo[H, L]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *BaseDocumentRepo[H, L]) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// insertHeader writes the document header.
func (r *BaseDocumentRepo[H, L]) insertHeader(ctx context.Context, header H, key any) error {
	data := postgres.StructToMap(header)
	values := make([]any, len(r.selectCols))
	for i, col := range r.selectCols {
		values[i] = data[col]
	}

	sql, args, err := r.Builder().
		Insert(r.tableName).
		Columns(r.selectCols...).
		Values(values...).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(fmt.Errorf("insert %s: %w", r.tableName, err), r.entityName, key)
	}
	return nil
}

// insertLines copies lines in with the COPY protocol.
func (r *BaseDocumentRepo[H, L]) insertLines(ctx context.Context, lines []L) error {
	if len(lines) == 0 {
		return nil
	}
	rows := make([][]any, len(lines))
	for i := range lines {
		data := postgres.StructToMap(&lines[i])
		row := make([]any, len(r.lineCols))
		for j, col := range r.lineCols {
			row[j] = data[col]
		}
		rows[i] = row
	}

	if _, err := r.batch.CopyFromSlice(ctx, r.lineTable, r.lineCols, rows); err != nil {
		return postgres.MapError(fmt.Errorf("copy %s: %w", r.lineTable, err), r.entityName, nil)
	}
	return nil
}

func (r *BaseDocumentRepo[H, L]) baseSelect() squirrel.SelectBuilder {
	return r.Builder().
		Select(r.selectCols...).
		From(r.tableName)
}

// findOne runs q and scans a single header.
func (r *BaseDocumentRepo[H, L]) findOne(ctx context.Context, q squirrel.SelectBuilder, key string) (H, error) {
	header := r.newFn()
	sql, args, err := q.ToSql()
	if err != nil {
		return header, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.querier(ctx), header, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return header, apperror.NewNotFound(r.entityName, key)
		}
		return header, postgres.MapError(fmt.Errorf("get %s: %w", r.tableName, err), r.entityName, key)
	}
	return header, nil
}

// getByID retrieves a header by id.
func (r *BaseDocumentRepo[H, L]) getByID(ctx context.Context, docID id.ID) (H, error) {
	return r.findOne(ctx, r.baseSelect().Where(squirrel.Eq{"id": docID}), docID.String())
}

// getLines returns the lines of one document ordered by line number.
func (r *BaseDocumentRepo[H, L]) getLines(ctx context.Context, docID id.ID) ([]L, error) {
	sql, args, err := r.Builder().
		Select(r.lineCols...).
		From(r.lineTable).
		Where(squirrel.Eq{r.lineFK: docID}).
		OrderBy("line_no ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []L
	if err := pgxscan.Select(ctx, r.querier(ctx), &lines, sql, args...); err != nil {
		return nil, postgres.MapError(fmt.Errorf("select %s: %w", r.lineTable, err), r.entityName, docID)
	}
	return lines, nil
}

// dateRange restricts created_at to [from, to).
func dateRange(q squirrel.SelectBuilder, from, to *time.Time) squirrel.SelectBuilder {
	if from != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *from})
	}
	if to != nil {
		q = q.Where(squirrel.Lt{"created_at": *to})
	}
	return q
}

// list counts and pages q, newest first.
func (r *BaseDocumentRepo[H, L]) list(ctx context.Context, q squirrel.SelectBuilder, limit, offset int) (domain.ListResult[H], error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	result := domain.ListResult[H]{Limit: limit, Offset: offset}

	countSQL, countArgs, err := r.Builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	if err := r.querier(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, postgres.MapError(fmt.Errorf("count %s: %w", r.tableName, err), r.entityName, nil)
	}

	q = q.OrderBy("created_at DESC", "id DESC").Limit(uint64(limit))
	if offset > 0 {
		q = q.Offset(uint64(offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, r.querier(ctx), &result.Items, sql, args...); err != nil {
		return result, postgres.MapError(fmt.Errorf("list %s: %w", r.tableName, err), r.entityName, nil)
	}
	if result.Items == nil {
		result.Items = []H{}
	}
	return result, nil
}
