// Package database opens and disposes of the connections the importer
// writes through. SQLite (modernc.org/sqlite) is the default driver and keeps
// the database in a single file; PostgreSQL is reached through pgx's
// database/sql adapter.
package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/datakyt/inventory/internal/config"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // registers "sqlite"
)

// DefaultBusyTimeout is used by OpenFile.
const DefaultBusyTimeout = 5 * time.Second

// Open connects using cfg, applies pool limits and verifies the connection.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	var dsn string
	switch cfg.Driver {
	case config.DriverSQLite, "":
		cfg.Driver = config.DriverSQLite
		dsn = SQLiteDSN(cfg.URL, cfg.BusyTimeout)
	case config.DriverPostgres:
		dsn = cfg.URL
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := sqlx.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}

	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		db.SetMaxIdleConns(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		db.SetConnMaxLifetime(cfg.MaxConnLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s database: %w", cfg.Driver, err)
	}

	return db, nil
}

// OpenFile opens (creating if needed) the SQLite database at path.
func OpenFile(ctx context.Context, path string) (*sqlx.DB, error) {
	return Open(ctx, config.DatabaseConfig{
		Driver:      config.DriverSQLite,
		URL:         path,
		MaxConns:    1,
		BusyTimeout: DefaultBusyTimeout,
	})
}

// SQLiteDSN turns a file path or "file:" URL into a modernc.org/sqlite DSN
// with foreign key enforcement on. Without it SQLite ignores ON DELETE
// CASCADE. Query parameters already on the URL are kept; a busy_timeout
// pragma there wins over busyTimeout, a foreign_keys pragma is replaced.
func SQLiteDSN(rawURL string, busyTimeout time.Duration) string {
	if busyTimeout <= 0 {
		busyTimeout = DefaultBusyTimeout
	}

	q := url.Values{}
	if _, query, ok := strings.Cut(rawURL, "?"); ok {
		if parsed, err := url.ParseQuery(query); err == nil {
			q = parsed
		}
	}

	pragmas := []string{"foreign_keys(1)"}
	hasBusy := false
	for _, p := range q["_pragma"] {
		switch {
		case strings.HasPrefix(p, "foreign_keys"):
		case strings.HasPrefix(p, "busy_timeout"):
			hasBusy = true
			pragmas = append(pragmas, p)
		default:
			pragmas = append(pragmas, p)
		}
	}
	if !hasBusy {
		pragmas = append(pragmas, fmt.Sprintf("busy_timeout(%d)", busyTimeout.Milliseconds()))
	}
	q["_pragma"] = pragmas

	return "file:" + uriPathEscaper.Replace(FilePath(rawURL)) + "?" + q.Encode()
}

// uriPathEscaper escapes the characters SQLite's URI parser would read as
// an escape or a fragment.
var uriPathEscaper = strings.NewReplacer("%", "%25", "#", "%23")

// FilePath returns the on-disk path of a SQLite URL, stripping any
// "file:" prefix and query string.
func FilePath(rawURL string) string {
	p := strings.TrimPrefix(rawURL, "file:")
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	return p
}

// Remove closes db and deletes the database file at path.
// A file that is already gone is not an error.
func Remove(db io.Closer, path string) error {
	var errs []error
	if db != nil {
		if err := db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}

	for _, p := range []string{path, path + "-wal", path + "-shm", path + "-journal"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove %s: %w", p, err))
		}
	}

	return errors.Join(errs...)
}
