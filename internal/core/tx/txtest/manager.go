// Package txtest provides an in-memory tx.Manager for service tests.
package txtest

import (
	"context"
	"sync"
)

// Participant is an in-memory store that can roll back.
// Snapshot captures its state and returns a function restoring it.
type Participant interface {
	Snapshot() (restore func())
}

type inTxKey struct{}

// Manager runs one transaction at a time, which is how row locks on the same
// product behave in the database. Nested calls join the outer transaction.
type Manager struct {
	mu sync.Mutex

	participants []Participant

	// FailCommit, when non-empty, is consumed one error per transaction and
	// returned instead of committing (the transaction is rolled back).
	FailCommit []error

	// OnCommit runs after each successful commit while still serialized.
	OnCommit func()

	Commits   int
	Rollbacks int
}

// NewManager creates a manager that snapshots the given participants.
func NewManager(participants ...Participant) *Manager {
	return &Manager{participants: participants}
}

// InTx reports whether ctx carries a fake transaction.
func InTx(ctx context.Context) bool {
	v, _ := ctx.Value(inTxKey{}).(bool)
	return v
}

// RunInTransaction implements tx.Manager.
func (m *Manager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if InTx(ctx) {
		return fn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	restores := make([]func(), 0, len(m.participants))
	for _, p := range m.participants {
		restores = append(restores, p.Snapshot())
	}

	err := fn(context.WithValue(ctx, inTxKey{}, true))
	if err == nil && len(m.FailCommit) > 0 {
		err = m.FailCommit[0]
		m.FailCommit = m.FailCommit[1:]
	}
	if err != nil {
		for i := len(restores) - 1; i >= 0; i-- {
			restores[i]()
		}
		m.Rollbacks++
		return err
	}

	m.Commits++
	if m.OnCommit != nil {
		m.OnCommit()
	}
	return nil
}

// ReadOnly implements tx.ReadOnlyManager.
func (m *Manager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.RunInTransaction(ctx, fn)
}

// Stats returns commit and rollback counters.
func (m *Manager) Stats() (commits, rollbacks int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Commits, m.Rollbacks
}
