package core

import (
	"context"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/datakyt/inventory/internal/config"
	"github.com/datakyt/inventory/internal/logging"
	"github.com/jmoiron/sqlx"
)

// Service provides the import operations over an open database connection.
// The connection belongs to the caller: the service never closes it.
type Service struct {
	db      *sqlx.DB
	cfg     config.ImportConfig
	logger  *slog.Logger
	sb      sq.StatementBuilderType
	limiter *ImportLimiter
}

// NewService creates a Service writing through db.
// A nil logger discards log output.
func NewService(db *sqlx.DB, cfg config.ImportConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.Discard()
	}

	return &Service{
		db:      db,
		cfg:     cfg,
		logger:  logger,
		sb:      StatementBuilder(db.DriverName()),
		limiter: NewImportLimiter(cfg.MaxConcurrent, cfg.MaxWaitTime),
	}
}

// StatementBuilder returns a squirrel builder using the bind variable style
// of the named database/sql driver ($1 for pgx, ? for sqlite).
func StatementBuilder(driverName string) sq.StatementBuilderType {
	if sqlx.BindType(driverName) == sqlx.DOLLAR {
		return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}

// ListTables returns information about all tables that accept imports.
func (s *Service) ListTables() []TableInfo {
	defs := All()
	infos := make([]TableInfo, len(defs))
	for i, def := range defs {
		infos[i] = def.Info
	}
	return infos
}

// Ping checks the database connection.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// Limiter exposes the import limiter for shutdown draining.
func (s *Service) Limiter() *ImportLimiter {
	return s.limiter
}
