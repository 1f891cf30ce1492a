package postgres

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"revengepos/pkg/logger"
)

// MigrationSource is the filesystem holding goose SQL files.
type MigrationSource struct {
	FS  fs.FS
	Dir string
}

// Migrator applies embedded goose migrations through the pgx pool.
type Migrator struct {
	pool   *Pool
	source MigrationSource
}

// NewMigrator creates a migrator for the given pool and source.
func NewMigrator(pool *Pool, source MigrationSource) *Migrator {
	return &Migrator{pool: pool, source: source}
}

func (m *Migrator) provider() (*goose.Provider, func() error, error) {
	sqlDB := stdlib.OpenDBFromPool(m.pool.Pool)

	sub, err := fs.Sub(m.source.FS, m.source.Dir)
	if err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("open migrations dir: %w", err)
	}

	p, err := goose.NewProvider(goose.DialectPostgres, sqlDB, sub)
	if err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("create goose provider: %w", err)
	}
	return p, sqlDB.Close, nil
}

// Up applies all pending migrations.
func (m *Migrator) Up(ctx context.Context) error {
	p, closeFn, err := m.provider()
	if err != nil {
		return err
	}
	defer closeFn()

	results, err := p.Up(ctx)
	for _, r := range results {
		logger.Info(ctx, "migration applied", "version", r.Source.Version, "duration", r.Duration)
	}
	if err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// Down rolls back the latest migration.
func (m *Migrator) Down(ctx context.Context) error {
	p, closeFn, err := m.provider()
	if err != nil {
		return err
	}
	defer closeFn()

	r, err := p.Down(ctx)
	if err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}
	if r != nil {
		logger.Info(ctx, "migration rolled back", "version", r.Source.Version)
	}
	return nil
}

// Status logs the state of every known migration.
func (m *Migrator) Status(ctx context.Context) error {
	p, closeFn, err := m.provider()
	if err != nil {
		return err
	}
	defer closeFn()

	statuses, err := p.Status(ctx)
	if err != nil {
		return fmt.Errorf("migrate status: %w", err)
	}
	for _, s := range statuses {
		logger.Info(ctx, "migration", "version", s.Source.Version, "path", s.Source.Path, "state", string(s.State))
	}
	return nil
}

// Version returns the current schema version.
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	p, closeFn, err := m.provider()
	if err != nil {
		return 0, err
	}
	defer closeFn()
	return p.GetDBVersion(ctx)
}
