// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"codeberg.org/oliverandrich/accountd/internal/config"
	"codeberg.org/oliverandrich/accountd/internal/database"
	"github.com/urfave/cli/v3"
)

// MigrateDown rolls back the most recent schema migration of the configured
// database.
func MigrateDown(_ context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	slog.SetDefault(slog.New(newLogHandler(os.Stdout, cfg.Log)))

	return rollback(cfg.Database)
}

func rollback(cfg config.DatabaseConfig) error {
	if cfg.Driver == "memory" {
		return errors.New("the memory driver has no schema to roll back")
	}

	db, err := database.Connect(cfg.Driver, cfg.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	if err := database.MigrateDown(db.DB, database.Dialect(cfg.Driver)); err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}

	slog.Info("migration_rolled_back", "driver", cfg.Driver)
	return nil
}
