package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrUnknownTable is returned for a table key nothing registered.
	ErrUnknownTable = errors.New("unknown table")

	// ErrInvalidRow marks a CSV row that could not be converted.
	ErrInvalidRow = errors.New("invalid row")

	// ErrConstraintViolation marks a row the database rejected on a
	// constraint: duplicate key, foreign key, CHECK or NOT NULL.
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrFileTooLarge is returned when the input exceeds the configured limit.
	ErrFileTooLarge = errors.New("file too large")
)

// RowError ties an import failure to the CSV line it came from.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// isConstraintError reports whether err is a constraint failure from either
// supported driver: SQLSTATE class 23 on PostgreSQL, the SQLITE_CONSTRAINT
// family on SQLite.
func isConstraintError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "23")
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}

	return false
}

// classifyInsertError wraps a failed insert so callers can test it with
// errors.Is against ErrConstraintViolation while keeping the driver error.
func classifyInsertError(line int, err error) error {
	if isConstraintError(err) {
		return &RowError{Line: line, Err: fmt.Errorf("%w: %w", ErrConstraintViolation, err)}
	}
	return &RowError{Line: line, Err: fmt.Errorf("insert: %w", err)}
}
