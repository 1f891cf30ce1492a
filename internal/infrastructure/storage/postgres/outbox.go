package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"revengepos/internal/core/id"
	"revengepos/internal/domain/events"
	"revengepos/pkg/logger"
)

// OutboxStatus represents the state of an outbox message.
type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusPublished OutboxStatus = "published"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// maxOutboxRetries is the attempt count after which a message is parked in the DLQ.
const maxOutboxRetries = 5

// OutboxMessage is one row of sys_outbox.
type OutboxMessage struct {
	ID            id.ID        `db:"id"`
	AggregateType string       `db:"aggregate_type"`
	AggregateID   id.ID        `db:"aggregate_id"`
	EventType     string       `db:"event_type"`
	Payload       []byte       `db:"payload"`
	Status        OutboxStatus `db:"status"`
	RetryCount    int          `db:"retry_count"`
	LastError     *string      `db:"last_error"`
	NextRetryAt   *time.Time   `db:"next_retry_at"`
	CreatedAt     time.Time    `db:"created_at"`
	PublishedAt   *time.Time   `db:"published_at"`
}

// DomainEvent is an event written to the outbox in the producing transaction.
type DomainEvent = events.Event

// OutboxPublisher writes events to sys_outbox.
type OutboxPublisher struct {
	txManager *TxManager
}

var _ events.Publisher = (*OutboxPublisher)(nil)

// NewOutboxPublisher creates a new outbox publisher.
func NewOutboxPublisher(txManager *TxManager) *OutboxPublisher {
	return &OutboxPublisher{txManager: txManager}
}

const insertOutboxSQL = `
	INSERT INTO sys_outbox (id, aggregate_type, aggregate_id, event_type, payload, status, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

// Publish writes events within the current transaction.
// Must be called inside a transaction so events commit or vanish with the document.
func (p *OutboxPublisher) Publish(ctx context.Context, batch ...DomainEvent) error {
	if p.txManager.GetTx(ctx) == nil {
		return fmt.Errorf("outbox publish requires transaction context")
	}
	if len(batch) == 0 {
		return nil
	}

	now := time.Now().UTC()
	queries := make([]BatchQuery, 0, len(batch))
	for _, event := range batch {
		payload, err := json.Marshal(event.Payload)
		if err != nil {
			return fmt.Errorf("marshal event payload: %w", err)
		}
		queries = append(queries, BatchQuery{
			SQL:  insertOutboxSQL,
			Args: []any{id.New(), event.AggregateType, event.AggregateID, event.EventType, payload, OutboxStatusPending, now},
		})
	}

	if err := NewBatchInserter(p.txManager).ExecuteBatch(ctx, queries); err != nil {
		return MapError(fmt.Errorf("insert outbox messages: %w", err), "outbox", nil)
	}
	return nil
}

// OutboxHandler processes outbox messages.
type OutboxHandler interface {
	Handle(ctx context.Context, msg *OutboxMessage) error
}

// OutboxHandlerFunc adapts a function to OutboxHandler.
type OutboxHandlerFunc func(ctx context.Context, msg *OutboxMessage) error

// Handle calls f.
func (f OutboxHandlerFunc) Handle(ctx context.Context, msg *OutboxMessage) error {
	return f(ctx, msg)
}

// OutboxRelay drains pending messages for the background worker.
type OutboxRelay struct {
	txManager *TxManager
	batchSize int
	handler   OutboxHandler
}

// NewOutboxRelay creates a new outbox relay.
func NewOutboxRelay(txManager *TxManager, batchSize int, handler OutboxHandler) *OutboxRelay {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &OutboxRelay{txManager: txManager, batchSize: batchSize, handler: handler}
}

// BatchSize is the most messages one ProcessBatch call claims.
func (r *OutboxRelay) BatchSize() int {
	return r.batchSize
}

// ProcessBatch claims a batch with SKIP LOCKED, handles every message and records
// the outcome, all in one transaction so two workers never share a message.
// Returns the number of messages handled successfully.
func (r *OutboxRelay) ProcessBatch(ctx context.Context) (int, error) {
	processed := 0
	err := r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		q := r.txManager.GetQuerier(ctx)

		var messages []*OutboxMessage
		if err := pgxscan.Select(ctx, q, &messages, `
			SELECT id, aggregate_type, aggregate_id, event_type, payload, status,
			       retry_count, last_error, next_retry_at, created_at, published_at
			FROM sys_outbox
			WHERE status = $1
			  AND (next_retry_at IS NULL OR next_retry_at <= NOW())
			ORDER BY created_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED`, OutboxStatusPending, r.batchSize); err != nil {
			return fmt.Errorf("fetch outbox messages: %w", err)
		}

		for _, msg := range messages {
			if err := r.processMessage(ctx, q, msg); err != nil {
				logger.Warn(ctx, "outbox message failed",
					"id", msg.ID, "event_type", msg.EventType, "retry", msg.RetryCount+1, "error", err)
				continue
			}
			processed++
		}
		return nil
	})
	return processed, err
}

func (r *OutboxRelay) processMessage(ctx context.Context, q Querier, msg *OutboxMessage) error {
	handleErr := r.handler.Handle(ctx, msg)
	if handleErr == nil {
		_, err := q.Exec(ctx,
			`UPDATE sys_outbox SET status = $1, published_at = $2 WHERE id = $3`,
			OutboxStatusPublished, time.Now().UTC(), msg.ID)
		return err
	}

	// Linear backoff, one minute per attempt.
	nextRetry := time.Now().UTC().Add(time.Duration(msg.RetryCount+1) * time.Minute)
	if _, err := q.Exec(ctx, `
		UPDATE sys_outbox
		SET retry_count = retry_count + 1,
		    last_error = $1,
		    next_retry_at = $2,
		    status = CASE WHEN retry_count + 1 >= $3 THEN $4 ELSE status END
		WHERE id = $5`,
		handleErr.Error(), nextRetry, maxOutboxRetries, OutboxStatusFailed, msg.ID); err != nil {
		return fmt.Errorf("update failed message: %w", err)
	}
	return handleErr
}

// MoveToDLQ moves exhausted messages to sys_outbox_dlq.
func (r *OutboxRelay) MoveToDLQ(ctx context.Context) (int64, error) {
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		WITH moved AS (
			DELETE FROM sys_outbox
			WHERE status = $1
			RETURNING id, aggregate_type, aggregate_id, event_type, payload, retry_count, last_error, created_at
		)
		INSERT INTO sys_outbox_dlq (id, aggregate_type, aggregate_id, event_type, payload, retry_count, failure_reason, created_at, failed_at)
		SELECT id, aggregate_type, aggregate_id, event_type, payload, retry_count, last_error, created_at, NOW()
		FROM moved`, OutboxStatusFailed)
	if err != nil {
		return 0, MapError(fmt.Errorf("move to DLQ: %w", err), "outbox", nil)
	}
	return tag.RowsAffected(), nil
}

// PurgePublished deletes published messages older than the given age.
func (r *OutboxRelay) PurgePublished(ctx context.Context, olderThan time.Duration) (int64, error) {
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx,
		`DELETE FROM sys_outbox WHERE status = $1 AND published_at < $2`,
		OutboxStatusPublished, time.Now().UTC().Add(-olderThan))
	if err != nil {
		return 0, MapError(err, "outbox", nil)
	}
	return tag.RowsAffected(), nil
}
