// Package main is the entry point for the background worker. It drains the
// transactional outbox and prunes expired idempotency keys.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"revengepos/internal/config"
	"revengepos/internal/infrastructure/storage/postgres"
	"revengepos/pkg/logger"
)

// publishedRetention is how long delivered outbox rows are kept.
const publishedRetention = 7 * 24 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.App.Development(),
		Service:     "worker",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting revengepos worker")

	poolCfg := postgres.DefaultPoolConfig(cfg.Database.URL)
	poolCfg.AppName = "revengepos-worker"
	poolCfg.MaxConns = 4
	poolCfg.MinConns = 1
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)
	worker := &Worker{
		relay:        postgres.NewOutboxRelay(txManager, cfg.Worker.BatchSize, NewEventHandler(cfg.Worker.LowStockAlerts)),
		idempotency:  postgres.NewIdempotencyStore(txManager, cfg.Idempotency.TTL),
		pollInterval: cfg.Worker.PollInterval,
		log:          log.WithComponent("worker"),
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// outboxRelay is the part of postgres.OutboxRelay the worker drives.
type outboxRelay interface {
	BatchSize() int
	ProcessBatch(ctx context.Context) (int, error)
	MoveToDLQ(ctx context.Context) (int64, error)
	PurgePublished(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Worker runs the periodic jobs.
type Worker struct {
	relay        outboxRelay
	idempotency  *postgres.IdempotencyStore
	pollInterval time.Duration
	log          *logger.Logger
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ctx = logger.WithLogger(ctx, w.log)

	pollInterval := w.pollInterval
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	cleanupTicker := time.NewTicker(1 * time.Hour)
	defer cleanupTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processOutbox(ctx)
		case <-cleanupTicker.C:
			w.cleanup(ctx)
		}
	}
}

func (w *Worker) processOutbox(ctx context.Context) {
	// A short batch means the backlog is drained until the next tick.
	for {
		n, err := w.relay.ProcessBatch(ctx)
		if err != nil {
			w.log.Errorw("outbox batch failed", "error", err)
			return
		}
		if n > 0 {
			w.log.Debugw("processed outbox batch", "count", n)
		}
		if n < w.relay.BatchSize() || ctx.Err() != nil {
			return
		}
	}
}

func (w *Worker) cleanup(ctx context.Context) {
	if n, err := w.relay.MoveToDLQ(ctx); err != nil {
		w.log.Errorw("failed to move outbox messages to DLQ", "error", err)
	} else if n > 0 {
		w.log.Warnw("moved outbox messages to DLQ", "count", n)
	}

	if n, err := w.relay.PurgePublished(ctx, publishedRetention); err != nil {
		w.log.Errorw("failed to purge published outbox messages", "error", err)
	} else if n > 0 {
		w.log.Infow("purged published outbox messages", "count", n)
	}

	if n, err := w.idempotency.CleanupExpired(ctx); err != nil {
		w.log.Errorw("failed to clean up idempotency keys", "error", err)
	} else if n > 0 {
		w.log.Infow("cleaned up idempotency keys", "count", n)
	}
}
