package core

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// DBTX is the part of a transaction the insert functions need.
// Satisfied by *sql.Tx, *sqlx.Tx, *sql.DB and *sqlx.DB.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// FieldType represents the expected data type for a CSV field.
type FieldType int

const (
	FieldText FieldType = iota
	FieldInteger
)

// FieldSpec defines the rules for a single CSV column.
type FieldSpec struct {
	Name     string    // Column header and database column name, matched case-insensitively
	Type     FieldType // Expected data type
	Required bool      // Column must be present in every row
	Key      bool      // Part of the primary key
}

// KeySpec returns the field spec marked as the primary key, if any.
func KeySpec(specs []FieldSpec) (FieldSpec, bool) {
	for _, spec := range specs {
		if spec.Key {
			return spec, true
		}
	}
	return FieldSpec{}, false
}

// TableInfo contains display information about a table.
type TableInfo struct {
	Key     string   // Unique identifier and target table name: "project"
	Label   string   // Display name: "Projects"
	Columns []string // Header column names, in positional order
}

// HeaderIndex maps column names (lowercase) to their position in the CSV row.
type HeaderIndex map[string]int

// Width returns the number of columns a row may carry: one past the last
// indexed position.
func (h HeaderIndex) Width() int {
	width := 0
	for _, pos := range h {
		width = max(width, pos+1)
	}
	return width
}

// BuildParamsFunc converts a validated CSV row into the row value that is
// inserted and returned to the caller.
type BuildParamsFunc func(row []string, headerIdx HeaderIndex) (any, error)

// InsertFunc inserts a single row built by BuildParamsFunc.
type InsertFunc func(ctx context.Context, db DBTX, sb sq.StatementBuilderType, params any) error

// TableDefinition contains everything needed to import into a table.
type TableDefinition struct {
	Info        TableInfo
	FieldSpecs  []FieldSpec
	BuildParams BuildParamsFunc
	Insert      InsertFunc
}

// ImportResult describes a committed import.
type ImportResult struct {
	ImportID  string        `json:"import_id"`
	TableKey  string        `json:"table"`
	FileName  string        `json:"file"`
	HasHeader bool          `json:"has_header"`
	Rows      []any         `json:"rows"`
	Skipped   int           `json:"skipped"` // blank rows ignored
	Duration  time.Duration `json:"-"`
}

// Inserted returns the number of rows written.
func (r *ImportResult) Inserted() int {
	return len(r.Rows)
}
