// Package main provides the schema migration CLI.
// Usage: migrate up | down | status | version
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"revengepos/db"
	"revengepos/internal/infrastructure/storage/postgres"
	"revengepos/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	_ = godotenv.Load()

	log, err := logger.New(logger.Config{Level: "info", Development: true, Service: "migrate"})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx := context.Background()

	switch os.Args[1] {
	case "up":
		run(ctx, func(m *postgres.Migrator) error { return m.Up(ctx) })
	case "down":
		run(ctx, func(m *postgres.Migrator) error { return m.Down(ctx) })
	case "status":
		run(ctx, func(m *postgres.Migrator) error { return m.Status(ctx) })
	case "version":
		run(ctx, func(m *postgres.Migrator) error {
			v, err := m.Version(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("schema version: %d\n", v)
			return nil
		})
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Schema migration CLI

Usage:
  migrate <command>

Commands:
  up        Apply all pending migrations
  down      Roll back the last migration
  status    List migrations and their state
  version   Print the current schema version
  help      Show this help

Environment Variables:
  DATABASE_URL   Connection string (required, .env is honoured)`)
}

func run(ctx context.Context, fn func(m *postgres.Migrator) error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		fmt.Println("Error: DATABASE_URL environment variable is required")
		os.Exit(1)
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dsn))
	if err != nil {
		fmt.Printf("Error connecting to database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	migrator := postgres.NewMigrator(pool, postgres.MigrationSource{FS: db.Migrations, Dir: "migrations"})
	if err := fn(migrator); err != nil {
		fmt.Printf("Error: %v\n", err)
		pool.Close()
		os.Exit(1)
	}
}
