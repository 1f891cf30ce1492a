package numerator

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"
)

// MockGenerator is an in-memory Generator for unit tests.
type MockGenerator struct {
	mu       sync.Mutex
	counters map[string]int64

	// NextFunc overrides the default counter behaviour when set.
	NextFunc func(ctx context.Context, cfg Config, period time.Time) (string, error)
}

// Next implements Generator.
func (m *MockGenerator) Next(ctx context.Context, cfg Config, period time.Time) (string, error) {
	if m.NextFunc != nil {
		return m.NextFunc(ctx, cfg, period)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counters == nil {
		m.counters = make(map[string]int64)
	}
	m.counters[cfg.Prefix]++
	return fmt.Sprintf("%s-%0*d", cfg.Prefix, cfg.PadWidth, m.counters[cfg.Prefix]), nil
}

// SetCurrent implements Generator.
func (m *MockGenerator) SetCurrent(ctx context.Context, cfg Config, period time.Time, value int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counters == nil {
		m.counters = make(map[string]int64)
	}
	m.counters[cfg.Prefix] = value
	return nil
}

// Snapshot captures the counters and returns a function restoring them, so a
// rolled back fake transaction gives its number back.
func (m *MockGenerator) Snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := maps.Clone(m.counters)
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.counters = saved
	}
}

// Ensure compile-time interface compliance.
var _ Generator = (*MockGenerator)(nil)
