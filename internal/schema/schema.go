// Package schema holds the inventory database schema as an ordered list of
// table definitions and applies it to a connection.
//
// Tables are listed parents first, so applying them in order satisfies every
// foreign key reference, and dropping them in reverse order never leaves a
// dangling reference behind.
package schema

import (
	"context"
	"database/sql"
	"fmt"
)

// Execer is satisfied by *sql.DB, *sql.Tx, *sqlx.DB and *sqlx.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Table is a single CREATE TABLE definition.
type Table struct {
	Name string
	DDL  string
}

// Apply creates every table in Tables, in order.
// The first failing statement aborts the run.
func Apply(ctx context.Context, db Execer) error {
	for _, t := range Tables {
		if _, err := db.ExecContext(ctx, t.DDL); err != nil {
			return fmt.Errorf("create table %s: %w", t.Name, err)
		}
	}
	return nil
}

// Drop removes every table in Tables, children first.
// Tables that do not exist are skipped.
func Drop(ctx context.Context, db Execer) error {
	for i := len(Tables) - 1; i >= 0; i-- {
		name := Tables[i].Name
		if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+name); err != nil {
			return fmt.Errorf("drop table %s: %w", name, err)
		}
	}
	return nil
}

// Lookup returns the definition of the named table.
func Lookup(name string) (Table, bool) {
	for _, t := range Tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// Names returns table names in creation order.
func Names() []string {
	names := make([]string, len(Tables))
	for i, t := range Tables {
		names[i] = t.Name
	}
	return names
}
