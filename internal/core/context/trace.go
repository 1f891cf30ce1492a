package context

import (
	"context"

	"revengepos/internal/core/id"
)

// Trace ties log lines, responses and audit rows of one request together.
// IdempotencyKey is set when a terminal retries a document write.
type Trace struct {
	TraceID        string
	RequestID      string
	IdempotencyKey string
}

// NewTrace keeps an incoming request id and mints time-ordered ids otherwise.
func NewTrace(requestID string) *Trace {
	if requestID == "" {
		requestID = id.New().String()
	}
	return &Trace{
		TraceID:   id.New().String(),
		RequestID: requestID,
	}
}

// LogFields identifies the request in log entries.
func (t *Trace) LogFields() []any {
	kv := []any{"trace_id", t.TraceID, "request_id", t.RequestID}
	if t.IdempotencyKey != "" {
		kv = append(kv, "idempotency_key", t.IdempotencyKey)
	}
	return kv
}

type traceKey struct{}

func WithTrace(ctx context.Context, t *Trace) context.Context {
	return context.WithValue(ctx, traceKey{}, t)
}

func GetTrace(ctx context.Context) *Trace {
	if v, ok := ctx.Value(traceKey{}).(*Trace); ok {
		return v
	}
	return nil
}

// GetRequestID returns the request id of ctx or "".
func GetRequestID(ctx context.Context) string {
	if t := GetTrace(ctx); t != nil {
		return t.RequestID
	}
	return ""
}
