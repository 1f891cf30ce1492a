package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLifecycle(t *testing.T) {
	l, err := ParseLifecycle("inactive")
	require.NoError(t, err)
	assert.Equal(t, LifecycleInactive, l)

	_, err = ParseLifecycle("archived")
	assert.Error(t, err)
}

func TestLifecycle_CanTransitionTo(t *testing.T) {
	assert.True(t, LifecycleActive.CanTransitionTo(LifecycleInactive))
	assert.True(t, LifecycleInactive.CanTransitionTo(LifecycleActive))
	assert.True(t, LifecycleActive.CanTransitionTo(LifecycleDeleted))
	assert.False(t, LifecycleActive.CanTransitionTo(LifecycleActive))
	assert.False(t, LifecycleDeleted.CanTransitionTo(LifecycleActive))
}

func TestBaseCatalog_MarkDeleted(t *testing.T) {
	c := NewBaseCatalog()
	assert.True(t, c.IsUsable())

	c.MarkDeleted()
	assert.Equal(t, LifecycleDeleted, c.Lifecycle)
	assert.False(t, c.IsUsable())
	assert.False(t, c.Lifecycle.Visible())
}
