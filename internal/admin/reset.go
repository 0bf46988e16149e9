// Package admin provides administrative operations for database management.
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/datakyt/inventory/internal/config"
	"github.com/datakyt/inventory/internal/database"
	"github.com/datakyt/inventory/internal/logging"
	"github.com/datakyt/inventory/internal/schema"
	"github.com/jmoiron/sqlx"
)

// ResetTimeout is the maximum duration for database reset operations.
const ResetTimeout = 30 * time.Second

type resetFn func(ctx context.Context, tx schema.Execer) error

// Reset drops every inventory table and creates the schema again, inside
// one transaction. All data is lost.
func Reset(ctx context.Context, db *sqlx.DB, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, ResetTimeout)
	defer cancel()

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("reset: begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := runResets(ctx, tx, []resetFn{schema.Drop, schema.Apply}); err != nil {
		return fmt.Errorf("reset: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("reset: commit: %w", err)
	}

	orDiscard(logger).Info("database reset", "tables", len(schema.Tables))
	return nil
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return logging.Discard()
	}
	return logger
}

func runResets(ctx context.Context, tx schema.Execer, resets []resetFn) error {
	for _, reset := range resets {
		if err := reset(ctx, tx); err != nil {
			return err
		}
	}
	return nil
}

// Recreate returns a connection to an empty database with the schema
// applied. For SQLite the database file is deleted first; for PostgreSQL the
// tables are dropped and recreated with Reset.
func Recreate(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*sqlx.DB, error) {
	if cfg.Driver == config.DriverSQLite || cfg.Driver == "" {
		if err := database.Remove(nil, database.FilePath(cfg.URL)); err != nil {
			return nil, fmt.Errorf("recreate: %w", err)
		}

		db, err := database.Open(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("recreate: %w", err)
		}
		if err := schema.Apply(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("recreate: %w", err)
		}
		orDiscard(logger).Info("database recreated", "path", database.FilePath(cfg.URL))
		return db, nil
	}

	db, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("recreate: %w", err)
	}
	if err := Reset(ctx, db, logger); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
