package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/datakyt/inventory/internal/config"
	"github.com/datakyt/inventory/internal/core"
	"github.com/datakyt/inventory/internal/database"
	"github.com/datakyt/inventory/internal/logging"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// app is what a command needs once configuration is loaded.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	db      *sqlx.DB
	service *core.Service
}

// loadConfig reads the env file named by --env-file, then the environment,
// then applies the --db override.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	if envFile != "" {
		// Overload: values in the file win over the inherited environment.
		if err := godotenv.Overload(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if dbURL, _ := cmd.Flags().GetString("db"); dbURL != "" {
		cfg.Database.URL = dbURL
	}
	return cfg, nil
}

// openApp loads configuration, builds the logger and connects.
// The caller must call close.
func openApp(cmd *cobra.Command, stderr io.Writer) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format, stderr)
	logger.Debug("configuration loaded", "config", cfg.String())

	db, err := database.Open(cmd.Context(), cfg.Database)
	if err != nil {
		return nil, err
	}
	logger.Debug("connected to database", "driver", cfg.Database.Driver)

	return &app{
		cfg:     cfg,
		logger:  logger,
		db:      db,
		service: core.NewService(db, cfg.Import, logger),
	}, nil
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		a.logger.Warn("close database", "error", err)
	}
}

// withApp runs fn with an open app and closes it afterwards.
func withApp(cmd *cobra.Command, stderr io.Writer, fn func(ctx context.Context, a *app) error) error {
	a, err := openApp(cmd, stderr)
	if err != nil {
		return err
	}
	defer a.close()

	return fn(cmd.Context(), a)
}
