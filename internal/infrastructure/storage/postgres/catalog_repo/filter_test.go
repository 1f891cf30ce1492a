package catalog_repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revengepos/internal/core/apperror"
	"revengepos/internal/core/entity"
	"revengepos/internal/core/id"
	"revengepos/internal/domain"
	"revengepos/internal/domain/filter"
)

func testRepo() *BaseCatalogRepo[any] {
	return NewBaseCatalogRepo[any](nil, "products", []string{"id", "code", "name", "stock", "lifecycle", "category_id"}, func() any { return nil })
}

func TestApplyAdvancedFilters_Operators(t *testing.T) {
	repo := testRepo()

	tests := []struct {
		name     string
		item     filter.Item
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "Greater",
			item:     filter.Item{Field: "stock", Operator: filter.Greater, Value: 10},
			wantSQL:  "SELECT id, code, name, stock, lifecycle, category_id FROM products WHERE stock > $1",
			wantArgs: []any{10},
		},
		{
			name:     "LessOrEqual",
			item:     filter.Item{Field: "stock", Operator: filter.LessOrEqual, Value: 5},
			wantSQL:  "SELECT id, code, name, stock, lifecycle, category_id FROM products WHERE stock <= $1",
			wantArgs: []any{5},
		},
		{
			name:     "Contains",
			item:     filter.Item{Field: "name", Operator: filter.Contains, Value: "caf"},
			wantSQL:  "SELECT id, code, name, stock, lifecycle, category_id FROM products WHERE name ILIKE $1",
			wantArgs: []any{"%caf%"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := repo.applyAdvancedFilters(repo.baseSelect(), []filter.Item{tt.item})
			require.NoError(t, err)

			sql, args, err := q.ToSql()
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestApplyAdvancedFilters_RejectsUnknownColumn(t *testing.T) {
	repo := testRepo()
	_, err := repo.applyAdvancedFilters(repo.baseSelect(), []filter.Item{{Field: "password", Operator: filter.Equal, Value: "x"}})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestApplyListFilter(t *testing.T) {
	repo := testRepo()
	cat := id.New()

	q, err := repo.applyListFilter(repo.baseSelect(), domain.ListFilter{Search: "cafe", CategoryID: &cat})
	require.NoError(t, err)
	sql, args, err := q.ToSql()
	require.NoError(t, err)

	assert.Equal(t, "SELECT id, code, name, stock, lifecycle, category_id FROM products "+
		"WHERE lifecycle <> $1 AND (name ILIKE $2 OR code ILIKE $3) AND category_id = $4", sql)
	assert.Equal(t, []any{entity.LifecycleDeleted, "%cafe%", "%cafe%", cat}, args)

	inactive := entity.LifecycleInactive
	q, err = repo.applyListFilter(repo.baseSelect(), domain.ListFilter{Lifecycle: &inactive})
	require.NoError(t, err)
	sql, _, err = q.ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "WHERE lifecycle = $1")
}

func TestParseOrderBy(t *testing.T) {
	repo := testRepo()

	got, err := repo.parseOrderBy("-stock")
	require.NoError(t, err)
	assert.Equal(t, "stock DESC", got)

	got, err = repo.parseOrderBy("")
	require.NoError(t, err)
	assert.Equal(t, "name ASC", got)

	_, err = repo.parseOrderBy("stock; DROP TABLE products")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}
