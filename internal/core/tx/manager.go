// Package tx provides transaction management abstractions.
// Domain services depend on these interfaces; the pgx implementation lives in
// infrastructure/storage/postgres.
package tx

import (
	"context"

	"revengepos/internal/core/apperror"
)

// Manager defines the contract for transaction management.
type Manager interface {
	// RunInTransaction executes fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	// Nested calls reuse the existing transaction from context.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager extends Manager with read-only transaction support.
type ReadOnlyManager interface {
	Manager

	// ReadOnly executes fn in a read-only transaction.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

// RunWithRetry runs fn in a transaction. When the attempt fails with a
// concurrent modification it is repeated exactly once; a second failure is returned.
// onRetry, if not nil, is called before the second attempt.
func RunWithRetry(ctx context.Context, m Manager, onRetry func(err error), fn func(ctx context.Context) error) error {
	err := m.RunInTransaction(ctx, fn)
	if err == nil || !apperror.IsConcurrentModification(err) {
		return err
	}
	if onRetry != nil {
		onRetry(err)
	}
	return m.RunInTransaction(ctx, fn)
}
