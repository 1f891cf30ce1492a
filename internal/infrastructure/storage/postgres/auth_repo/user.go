// Package auth_repo provides the PostgreSQL user repository.
package auth_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"revengepos/internal/core/apperror"
	"revengepos/internal/core/entity"
	"revengepos/internal/core/id"
	"revengepos/internal/domain"
	"revengepos/internal/domain/auth"
	"revengepos/internal/infrastructure/storage/postgres"
)

const userColumns = `id, username, full_name, role_id, lifecycle, created_at, updated_at`

// UserRepo implements auth.UserRepository.
type UserRepo struct {
	txManager *postgres.TxManager
}

var _ auth.UserRepository = (*UserRepo)(nil)

// NewUserRepo creates a new user repository.
func NewUserRepo(txManager *postgres.TxManager) *UserRepo {
	return &UserRepo{txManager: txManager}
}

func scanUser(row pgx.Row) (*auth.User, error) {
	var u auth.User
	err := row.Scan(&u.ID, &u.Username, &u.FullName, &u.RoleID, &u.Lifecycle, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create creates a new user.
func (r *UserRepo) Create(ctx context.Context, user *auth.User) error {
	q := r.txManager.GetQuerier(ctx)

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := q.Exec(ctx, query,
		user.ID, user.Username, user.FullName, user.RoleID,
		user.Lifecycle, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return postgres.MapError(fmt.Errorf("insert user: %w", err), "user", user.Username)
	}
	return nil
}

// GetByID retrieves user by ID, deleted rows included.
func (r *UserRepo) GetByID(ctx context.Context, userID id.ID) (*auth.User, error) {
	q := r.txManager.GetQuerier(ctx)

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(q.QueryRow(ctx, query, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFound("user", userID.String())
	}
	if err != nil {
		return nil, postgres.MapError(fmt.Errorf("query user: %w", err), "user", userID)
	}
	return user, nil
}

// GetByUsername retrieves a non-deleted user by username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	q := r.txManager.GetQuerier(ctx)

	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1 AND lifecycle <> 'deleted'`

	user, err := scanUser(q.QueryRow(ctx, query, username))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFound("user", username)
	}
	if err != nil {
		return nil, postgres.MapError(fmt.Errorf("query user: %w", err), "user", username)
	}
	return user, nil
}

// Update updates user data. Lifecycle changes go through SetLifecycle.
func (r *UserRepo) Update(ctx context.Context, user *auth.User) error {
	q := r.txManager.GetQuerier(ctx)

	query := `
		UPDATE users
		SET username = $2, full_name = $3, role_id = $4, updated_at = $5
		WHERE id = $1 AND lifecycle <> 'deleted'
	`

	tag, err := q.Exec(ctx, query, user.ID, user.Username, user.FullName, user.RoleID, user.UpdatedAt)
	if err != nil {
		return postgres.MapError(fmt.Errorf("update user: %w", err), "user", user.ID)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("user", user.ID.String())
	}
	return nil
}

// SetLifecycle changes the user state. Deleted users cannot come back.
func (r *UserRepo) SetLifecycle(ctx context.Context, userID id.ID, l entity.Lifecycle) error {
	q := r.txManager.GetQuerier(ctx)

	query := `
		UPDATE users SET lifecycle = $2, updated_at = NOW()
		WHERE id = $1 AND lifecycle <> 'deleted'
	`

	tag, err := q.Exec(ctx, query, userID, l)
	if err != nil {
		return postgres.MapError(fmt.Errorf("set user lifecycle: %w", err), "user", userID)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("user", userID.String())
	}
	return nil
}

// List returns users ordered by username.
func (r *UserRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*auth.User], error) {
	result := domain.ListResult[*auth.User]{Limit: filter.Limit, Offset: filter.Offset}
	q := r.txManager.GetQuerier(ctx)

	where := `lifecycle <> 'deleted'`
	args := []any{}
	if filter.Lifecycle != nil {
		where = `lifecycle = $1`
		args = append(args, *filter.Lifecycle)
	} else if filter.IncludeDeleted {
		where = `TRUE`
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += fmt.Sprintf(` AND (username ILIKE $%d OR full_name ILIKE $%d)`, len(args), len(args))
	}

	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE `+where, args...).Scan(&result.TotalCount); err != nil {
		return result, postgres.MapError(fmt.Errorf("count users: %w", err), "user", nil)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s ORDER BY username LIMIT $%d OFFSET $%d`,
		userColumns, where, len(args)-1, len(args))

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return result, postgres.MapError(fmt.Errorf("list users: %w", err), "user", nil)
	}
	defer rows.Close()

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return result, fmt.Errorf("scan user: %w", err)
		}
		result.Items = append(result.Items, u)
	}
	return result, rows.Err()
}

// ListByRole returns non-deleted users holding role.
func (r *UserRepo) ListByRole(ctx context.Context, role auth.Role) ([]*auth.User, error) {
	q := r.txManager.GetQuerier(ctx)

	rows, err := q.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE role_id = $1 AND lifecycle <> 'deleted' ORDER BY username`,
		role,
	)
	if err != nil {
		return nil, postgres.MapError(fmt.Errorf("list users by role: %w", err), "user", nil)
	}
	defer rows.Close()

	var users []*auth.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Exists reports whether a non-deleted user exists.
func (r *UserRepo) Exists(ctx context.Context, userID id.ID) (bool, error) {
	var exists bool
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1 AND lifecycle <> 'deleted')`, userID,
	).Scan(&exists)
	if err != nil {
		return false, postgres.MapError(fmt.Errorf("user exists: %w", err), "user", userID)
	}
	return exists, nil
}
