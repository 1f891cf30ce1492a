package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	appctx "revengepos/internal/core/context"
)

func TestNew_FallsBackToInfoOnBadLevel(t *testing.T) {
	l, err := New(Config{Level: "loud", OutputPaths: []string{"stderr"}})
	require.NoError(t, err)
	assert.True(t, l.Desugar().Core().Enabled(0))
	assert.False(t, l.Desugar().Core().Enabled(-1))
}

func TestFromContext_PrefersAttachedLogger(t *testing.T) {
	nop := NewNop()
	ctx := WithLogger(context.Background(), nop)
	ctx = appctx.WithOperator(ctx, &appctx.Operator{UserID: "u1", Role: "cashier"})

	got := FromContext(ctx)
	require.NotNil(t, got)
	assert.NotPanics(t, func() { Info(ctx, "hello", "k", "v") })
}

func TestFromContext_DefaultWhenMissing(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))
}

func observed() (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return &Logger{zap.New(core).Sugar()}, logs
}

func TestWithContext_TagsTraceAndOperator(t *testing.T) {
	l, logs := observed()
	ctx := WithLogger(context.Background(), l)
	trace := &appctx.Trace{TraceID: "t-1", RequestID: "r-1", IdempotencyKey: "k-1"}
	ctx = appctx.WithTrace(ctx, trace)
	ctx = appctx.WithOperator(ctx, &appctx.Operator{UserID: "u1", Role: "cashier"})

	Info(ctx, "sale created", "ticket", "B-00001")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "r-1", fields["request_id"])
	assert.Equal(t, "k-1", fields["idempotency_key"])
	assert.Equal(t, "u1", fields["operator_id"])
	assert.Equal(t, "cashier", fields["operator_role"])
	assert.Equal(t, "B-00001", fields["ticket"])
	assert.NotContains(t, fields, "operator")
}

func TestWithContext_SystemWorkOutsideRequests(t *testing.T) {
	l, logs := observed()
	Warn(WithLogger(context.Background(), l), "outbox batch failed")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "system", logs.All()[0].ContextMap()["operator"])
}
