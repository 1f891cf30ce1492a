// Package main is the entry point for the POS API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"revengepos/db"
	"revengepos/internal/app"
	"revengepos/internal/config"
	"revengepos/internal/domain/auth"
	"revengepos/internal/domain/readcache"
	v1 "revengepos/internal/infrastructure/http/v1"
	"revengepos/internal/infrastructure/cache"
	"revengepos/internal/infrastructure/storage/postgres"
	"revengepos/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.App.Development(),
		Service:     "server",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx := context.Background()
	log.Infow("starting revengepos server", "env", cfg.App.Env)

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.Database.URL)
	poolCfg.MaxConns = cfg.Database.MaxConns
	poolCfg.MinConns = cfg.Database.MinConns
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	migrator := postgres.NewMigrator(pool, postgres.MigrationSource{FS: db.Migrations, Dir: "migrations"})
	if err := migrator.Up(ctx); err != nil {
		log.Fatalw("failed to apply migrations", "error", err)
	}

	txManager := postgres.NewTxManager(pool)

	// --- Read cache ---
	var readCache readcache.Cache = cache.NewMemory()
	if cfg.Redis.URL != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			log.Fatalw("failed to connect to redis", "error", err)
		}
		defer rdb.Close()

		layered := cache.NewLayered(cache.NewMemory(), rdb, cfg.Redis.CacheTTL)
		if err := layered.Start(ctx); err != nil {
			log.Fatalw("failed to subscribe to cache invalidations", "error", err)
		}
		defer layered.Stop()
		readCache = layered
		log.Infow("redis L2 cache enabled", "ttl", cfg.Redis.CacheTTL)
	}

	// --- Services ---
	services, err := app.NewServices(app.Deps{
		TxManager: txManager,
		Cache:     readCache,
		TaxRate:   &cfg.Pricing.TaxRate,
	})
	if err != nil {
		log.Fatalw("failed to build services", "error", err)
	}

	// --- Router ---
	router, err := v1.NewRouter(v1.RouterConfig{
		Pool:               pool,
		Logger:             log,
		JWTValidator:       auth.NewTokenValidator(auth.JWTConfig{Secret: cfg.JWT.Secret}),
		Services:           services,
		Idempotency:        postgres.NewIdempotencyStore(txManager, cfg.Idempotency.TTL),
		IdempotencyEnabled: cfg.Idempotency.Enabled,
		Development:        cfg.App.Development(),
	})
	if err != nil {
		log.Fatalw("failed to build router", "error", err)
	}

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.App.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	pool.LogStats(shutdownCtx)
	log.Info("server stopped")
}
