// Package main implements the entry point for the inkmill server, the AI
// content augmentation engine: it generates summaries, tags, categories,
// and SEO metadata for content bodies, synchronously over HTTP or deferred
// through a durable task queue.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/darvell/inkmill/internal/config"
	"github.com/darvell/inkmill/internal/platform/logger"
)

func main() {
	migrateCmd := flag.String("migrate", "", "run a migration command (up, down, status) and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.Setup(cfg.Server.LogLevel)
	if err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}

	db, err := setupAppDatabase(cfg, appLogger)
	if err != nil {
		appLogger.Error("Failed to connect to database", "error", err)
		return
	}

	if *migrateCmd != "" {
		if err := runMigrations(db, *migrateCmd, appLogger); err != nil {
			appLogger.Error("Migration failed", "command", *migrateCmd, "error", err)
		}
		if err := db.Close(); err != nil {
			appLogger.Error("Error closing database connection", "error", err)
		}
		return
	}

	// The schema is applied on every start; goose makes this a no-op when
	// the database is current.
	if err := runMigrations(db, "up", appLogger); err != nil {
		appLogger.Error("Failed to apply migrations", "error", err)
		return
	}

	ctx := context.Background()
	app, err := newApplication(ctx, cfg, appLogger, db)
	if err != nil {
		appLogger.Error("Failed to initialize application", "error", err)
		return
	}

	if err := app.Run(ctx); err != nil {
		appLogger.Error("Server exited with error", "error", fmt.Sprintf("%v", err))
	}
}
