package postgres

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revengepos/internal/core/types"
)

func TestDiff(t *testing.T) {
	before := map[string]any{
		"name":       "Cola 500ml",
		"cost_price": types.MustMoney("3.00"),
		"stock_min":  5,
	}
	after := map[string]any{
		"name":       "Cola 500ml",
		"cost_price": types.MustMoney("4.00"),
		"category":   "drinks",
	}

	changes := Diff(before, after)

	assert.Len(t, changes, 3)
	assert.Equal(t, map[string]any{"old": types.MustMoney("3.00"), "new": types.MustMoney("4.00")}, changes["cost_price"])
	assert.Equal(t, map[string]any{"old": 5, "new": nil}, changes["stock_min"])
	assert.Equal(t, map[string]any{"old": nil, "new": "drinks"}, changes["category"])
	assert.NotContains(t, changes, "name")
}

func TestAuditService_CompressRoundTrip(t *testing.T) {
	svc, err := NewAuditService(nil)
	require.NoError(t, err)

	big := map[string]string{"blob": string(bytes.Repeat([]byte("x"), 8*1024))}
	raw, err := json.Marshal(big)
	require.NoError(t, err)

	stored := svc.compress(AuditEntry{Changes: raw})
	assert.Equal(t, CompressionZstd, stored.CompressionAlgo)
	assert.Nil(t, stored.Changes)
	assert.Less(t, len(stored.ChangesCompressed), len(raw))

	restored, err := svc.decompress(stored)
	require.NoError(t, err)
	assert.JSONEq(t, string(raw), string(restored.Changes))

	small := svc.compress(AuditEntry{Changes: []byte(`{"a":1}`)})
	assert.Equal(t, CompressionNone, small.CompressionAlgo)
}
