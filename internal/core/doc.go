// Package core provides the business logic for CSV import operations.
//
// This package holds the import logic independent of any transport. The CLI,
// the HTTP server and the tests all drive the same [Service].
//
// # Table Registry
//
// Tables that accept imports are registered at init time using [Register].
// The key must name a table of the inventory schema. Each [TableDefinition] carries the column specs, the row conversion and
// the insert statement for one table:
//
//	core.Register(TableDefinition{
//	    Info: TableInfo{Key: "project", Label: "Projects"},
//	    FieldSpecs: []FieldSpec{
//	        {Name: "id", Type: FieldInteger, Required: true, Key: true},
//	        {Name: "name", Type: FieldText, Required: true},
//	    },
//	    BuildParams: buildProjectParams,
//	    Insert:      insertProject,
//	})
//
// # Import
//
// [Service.ImportFile] and [Service.ImportReader] parse the whole CSV,
// detect an optional header row, reject rows with cells beyond the file's
// columns, and insert every row in one transaction
// that is committed once at the end. [Service.ImportProjects] is the typed
// entry point for the project table and returns the inserted rows in file
// order; [Service.Projects] reads them back with a full scan.
//
// [Service.Preview] runs the same parsing and validation without writing and
// reports rows whose key already exists or repeats within the file.
//
// Imports hold a slot in the service's [ImportLimiter] while they run. Once
// the limiter is drained at shutdown, new imports fail with [ErrImportsClosed].
//
// # Error Handling
//
// Failures wrap sentinel errors ([ErrConstraintViolation], [ErrInvalidRow],
// [ErrUnknownTable], [ErrFileTooLarge]) and row failures carry the CSV line
// in a [RowError]. [MapError] turns any of them into a coded [UserMessage].
package core
