// Package numerator provides the PostgreSQL implementation of business number generation.
// It implements core/numerator.Generator.
package numerator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	corenumerator "revengepos/internal/core/numerator"
)

// Querier interface for database operations.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// QuerierFunc resolves the querier for ctx (the active transaction or the pool).
type QuerierFunc func(ctx context.Context) Querier

// Service issues gapless numbers from the sys_sequences counter table.
//
// The upsert takes a row lock on the counter, so callers running inside a
// transaction are serialized on the same key until commit, and a rollback
// returns the number to the pool.
type Service struct {
	querier QuerierFunc
}

// Ensure compile-time interface compliance.
var _ corenumerator.Generator = (*Service)(nil)

// New creates a numerator bound to a static querier (tests, tooling).
func New(q Querier) *Service {
	return &Service{querier: func(context.Context) Querier { return q }}
}

// NewWithResolver creates a numerator that resolves the querier per call,
// typically postgres.TxManager.GetQuerier.
func NewWithResolver(fn QuerierFunc) *Service {
	return &Service{querier: fn}
}

// Next generates the next number.
// Pattern: PREFIX-XXXXX or PREFIX-YEAR-XXXXX.
func (s *Service) Next(ctx context.Context, cfg corenumerator.Config, period time.Time) (string, error) {
	if s == nil || s.querier == nil {
		return "", fmt.Errorf("numerator service is not initialized")
	}

	key := buildKey(cfg, period)

	var num int64
	err := s.querier(ctx).QueryRow(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, 1)
		ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + 1
		RETURNING current_val
	`, key).Scan(&num)
	if err != nil {
		return "", fmt.Errorf("next %s: %w", key, err)
	}

	return formatNumber(cfg, period, num), nil
}

// SetCurrent sets the counter (data migration from a legacy ticket book).
func (s *Service) SetCurrent(ctx context.Context, cfg corenumerator.Config, period time.Time, value int64) error {
	key := buildKey(cfg, period)

	var result int64
	err := s.querier(ctx).QueryRow(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET current_val = $2
		RETURNING current_val
	`, key, value).Scan(&result)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// buildKey creates the sequence key based on config and period.
func buildKey(cfg corenumerator.Config, period time.Time) string {
	switch cfg.ResetPeriod {
	case "month":
		return fmt.Sprintf("%s_%s", cfg.Prefix, period.Format("2006_01"))
	case "year":
		return fmt.Sprintf("%s_%s", cfg.Prefix, period.Format("2006"))
	default:
		return cfg.Prefix
	}
}

// formatNumber creates the final number string.
func formatNumber(cfg corenumerator.Config, period time.Time, num int64) string {
	padWidth := cfg.PadWidth
	if padWidth == 0 {
		padWidth = 5
	}

	if cfg.IncludeYear {
		return fmt.Sprintf("%s-%s-%0*d", cfg.Prefix, period.Format("2006"), padWidth, num)
	}
	return fmt.Sprintf("%s-%0*d", cfg.Prefix, padWidth, num)
}

// ParseNumber extracts the counter from a formatted number.
// Returns -1 when the input is missing or malformed.
func ParseNumber(formatted string) int64 {
	parts := strings.Split(formatted, "-")
	if len(parts) < 2 {
		return -1
	}
	var num int64
	if _, err := fmt.Sscanf(parts[len(parts)-1], "%d", &num); err != nil || num < 0 {
		return -1
	}
	return num
}
