package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"revengepos/pkg/logger"
)

type fakeRelay struct {
	size    int
	batches []int
	err     error
	calls   int
}

func (r *fakeRelay) BatchSize() int { return r.size }

func (r *fakeRelay) ProcessBatch(context.Context) (int, error) {
	r.calls++
	if r.err != nil {
		return 0, r.err
	}
	if len(r.batches) == 0 {
		return 0, nil
	}
	n := r.batches[0]
	r.batches = r.batches[1:]
	return n, nil
}

func (r *fakeRelay) MoveToDLQ(context.Context) (int64, error) { return 0, nil }

func (r *fakeRelay) PurgePublished(context.Context, time.Duration) (int64, error) { return 0, nil }

func TestProcessOutbox_DrainsFullBatches(t *testing.T) {
	relay := &fakeRelay{size: 10, batches: []int{10, 10, 4, 10}}
	w := &Worker{relay: relay, log: logger.NewNop()}

	w.processOutbox(context.Background())
	assert.Equal(t, 3, relay.calls)
	assert.Equal(t, []int{10}, relay.batches)
}

func TestProcessOutbox_StopsOnShortBatch(t *testing.T) {
	// failing messages are rescheduled, so a batch can come back with a few
	// successes forever; those must not keep the loop spinning
	relay := &fakeRelay{size: 10, batches: []int{1, 1, 1}}
	w := &Worker{relay: relay, log: logger.NewNop()}

	w.processOutbox(context.Background())
	assert.Equal(t, 1, relay.calls)
}

func TestProcessOutbox_StopsOnError(t *testing.T) {
	relay := &fakeRelay{size: 10, err: errors.New("connection reset")}
	w := &Worker{relay: relay, log: logger.NewNop()}

	w.processOutbox(context.Background())
	assert.Equal(t, 1, relay.calls)
}

func TestProcessOutbox_StopsWhenCancelled(t *testing.T) {
	relay := &fakeRelay{size: 10, batches: []int{10, 10, 10}}
	w := &Worker{relay: relay, log: logger.NewNop()}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w.processOutbox(ctx)
	assert.Equal(t, 1, relay.calls)
}
