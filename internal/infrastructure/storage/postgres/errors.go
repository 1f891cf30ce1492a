package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"revengepos/internal/core/apperror"
)

// SQLSTATE codes the repositories care about.
const (
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgCheckViolation       = "23514"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
	pgQueryCanceled        = "57014"
)

// conflictConstraints are unique constraints whose violation means two writers
// raced for the same business number rather than a user mistake.
var conflictConstraints = map[string]bool{
	"sales_ticket_number_key": true,
}

// MapError translates a pgx error into an AppError.
//
//   - no rows                          -> NOT_FOUND for entity/key
//   - serialization, deadlock, lock    -> CONCURRENT_MODIFICATION
//   - unique on a business counter     -> CONCURRENT_MODIFICATION
//   - other unique violations          -> DUPLICATE_ENTRY
//   - everything else                  -> DATABASE_ERROR
//
// AppErrors pass through unchanged.
func MapError(err error, entity string, key any) error {
	if err == nil {
		return nil
	}
	if _, ok := apperror.AsAppError(err); ok {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.NewNotFound(entity, key)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperror.NewStorage(err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return apperror.NewStorage(err)
	}

	switch pgErr.Code {
	case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
		return apperror.NewConcurrentModification(entity, key).
			WithDetail("sqlstate", pgErr.Code).
			WithCause(err)
	case pgUniqueViolation:
		if conflictConstraints[pgErr.ConstraintName] {
			return apperror.NewConcurrentModification(entity, key).
				WithDetail("constraint", pgErr.ConstraintName).
				WithCause(err)
		}
		return apperror.NewDuplicate(entity, pgErr.ConstraintName, fmtKey(key)).WithCause(err)
	case pgForeignKeyViolation:
		return apperror.NewValidation("referenced row does not exist").
			WithDetail("entity", entity).
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	case pgCheckViolation:
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "check constraint violated").
			WithDetail("entity", entity).
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	case pgQueryCanceled:
		return apperror.NewStorage(err).WithDetail("reason", "statement timeout")
	}

	return apperror.NewStorage(err).WithDetail("sqlstate", pgErr.Code)
}

func fmtKey(key any) string {
	if s, ok := key.(string); ok {
		return s
	}
	if st, ok := key.(interface{ String() string }); ok {
		return st.String()
	}
	return ""
}
