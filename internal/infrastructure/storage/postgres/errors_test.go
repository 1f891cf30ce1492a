package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revengepos/internal/core/apperror"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"no rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), apperror.CodeNotFound},
		{"serialization", &pgconn.PgError{Code: "40001"}, apperror.CodeConcurrentModification},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, apperror.CodeConcurrentModification},
		{"ticket race", &pgconn.PgError{Code: "23505", ConstraintName: "sales_ticket_number_key"}, apperror.CodeConcurrentModification},
		{"duplicate code", &pgconn.PgError{Code: "23505", ConstraintName: "products_code_key"}, apperror.CodeDuplicate},
		{"check", &pgconn.PgError{Code: "23514", ConstraintName: "products_stock_check"}, apperror.CodeBusinessRule},
		{"fk", &pgconn.PgError{Code: "23503"}, apperror.CodeValidation},
		{"other pg", &pgconn.PgError{Code: "08006"}, apperror.CodeDatabase},
		{"plain", errors.New("connection reset"), apperror.CodeDatabase},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapped := MapError(tt.err, "product", "p1")
			appErr, ok := apperror.AsAppError(mapped)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, appErr.Code)
		})
	}
}

func TestMapError_PassThrough(t *testing.T) {
	assert.NoError(t, MapError(nil, "product", "p1"))

	orig := apperror.NewForbidden("nope")
	assert.Same(t, orig, MapError(orig, "product", "p1"))
}
