package numerator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	corenumerator "revengepos/internal/core/numerator"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

// mockQuerier simulates the sys_sequences upsert per key.
type mockQuerier struct {
	mu       sync.Mutex
	counters map[string]int64
	lastKey  string
	err      error
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return &mockRow{err: m.err}
	}
	if m.counters == nil {
		m.counters = make(map[string]int64)
	}
	key := args[0].(string)
	m.lastKey = key
	if len(args) == 2 {
		m.counters[key] = args[1].(int64)
	} else {
		m.counters[key]++
	}
	return &mockRow{val: m.counters[key]}
}

func TestNext_TicketFormat(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()

	num, err := svc.Next(ctx, corenumerator.TicketConfig(), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "B-00001" {
		t.Errorf("expected B-00001, got %s", num)
	}

	num, _ = svc.Next(ctx, corenumerator.TicketConfig(), time.Now())
	if num != "B-00002" {
		t.Errorf("expected B-00002, got %s", num)
	}
	if q.lastKey != "B" {
		t.Errorf("ticket counter must not reset, key = %s", q.lastKey)
	}
}

func TestNext_YearlyKey(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	period := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	num, err := svc.Next(context.Background(), corenumerator.DefaultConfig("C"), period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "C-2025-00001" {
		t.Errorf("expected C-2025-00001, got %s", num)
	}
	if q.lastKey != "C_2025" {
		t.Errorf("expected key C_2025, got %s", q.lastKey)
	}
}

func TestNext_WidensPastPadding(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.TicketConfig()

	if err := svc.SetCurrent(ctx, cfg, time.Now(), 99999); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	num, _ := svc.Next(ctx, cfg, time.Now())
	if num != "B-100000" {
		t.Errorf("expected B-100000, got %s", num)
	}
}

func TestNext_PropagatesError(t *testing.T) {
	svc := New(&mockQuerier{err: errors.New("boom")})
	if _, err := svc.Next(context.Background(), corenumerator.TicketConfig(), time.Now()); err == nil {
		t.Fatal("expected error")
	}
}

func TestNext_ConcurrentDistinct(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()

	const workers = 20
	var wg sync.WaitGroup
	results := make(chan string, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := svc.Next(ctx, corenumerator.TicketConfig(), time.Now())
			if err != nil {
				t.Error(err)
				return
			}
			results <- n
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[string]bool)
	for n := range results {
		if seen[n] {
			t.Errorf("duplicate number %s", n)
		}
		seen[n] = true
	}
	if len(seen) != workers {
		t.Errorf("expected %d numbers, got %d", workers, len(seen))
	}
}

func TestParseNumber(t *testing.T) {
	tests := map[string]int64{
		"B-00042":      42,
		"C-2025-00007": 7,
		"":             -1,
		"B-":           -1,
		"garbage":      -1,
	}
	for in, want := range tests {
		if got := ParseNumber(in); got != want {
			t.Errorf("ParseNumber(%q) = %d, want %d", in, got, want)
		}
	}
}
