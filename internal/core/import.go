package core

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ContextCheckInterval is how often (in rows) to check for context cancellation.
var ContextCheckInterval = 100

// record is one parsed CSV record and the line it started on.
type record struct {
	line   int
	fields []string
}

// ImportFile imports the CSV file at path into the table registered as tableKey.
func (s *Service) ImportFile(ctx context.Context, tableKey, path string) (*ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	if s.cfg.MaxFileSize > 0 {
		if info, err := f.Stat(); err == nil && info.Size() > s.cfg.MaxFileSize {
			return nil, fmt.Errorf("%w: %s is %d bytes, limit is %d", ErrFileTooLarge, path, info.Size(), s.cfg.MaxFileSize)
		}
	}

	return s.ImportReader(ctx, tableKey, filepath.Base(path), f)
}

// ImportReader imports CSV data read from r into the table registered as
// tableKey. name is used for logging and the result only.
//
// A first row naming the table's columns is treated as a header; otherwise
// columns are taken positionally. Blank rows are skipped. All rows are
// inserted in one transaction that is committed once, at the end; any
// failure rolls the transaction back.
func (s *Service) ImportReader(ctx context.Context, tableKey, name string, r io.Reader) (*ImportResult, error) {
	def, ok := Get(tableKey)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, tableKey)
	}

	release, err := s.limiter.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	result := &ImportResult{
		ImportID: uuid.NewString(),
		TableKey: tableKey,
		FileName: name,
		Rows:     []any{},
	}
	logger := s.logger.With("import_id", result.ImportID, "table", tableKey, "file", name)
	logger.Debug("import started")

	records, err := s.readRecords(r)
	if err != nil {
		logger.Error("import failed", "phase", "read", "error", err)
		return nil, err
	}

	if err := s.insertRecords(ctx, def, records, result); err != nil {
		logger.Error("import failed", "phase", "insert", "error", err)
		return nil, err
	}

	result.Duration = time.Since(start)
	logger.Info("import committed",
		"rows", result.Inserted(),
		"skipped", result.Skipped,
		"has_header", result.HasHeader,
		"duration_ms", result.Duration.Milliseconds(),
	)

	return result, nil
}

// readRecords reads the whole input and parses it into records.
func (s *Service) readRecords(r io.Reader) ([]record, error) {
	if s.cfg.MaxFileSize > 0 {
		r = io.LimitReader(r, s.cfg.MaxFileSize+1)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if s.cfg.MaxFileSize > 0 && int64(len(data)) > s.cfg.MaxFileSize {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, s.cfg.MaxFileSize)
	}

	data = sanitizeUTF8(stripBOM(data))

	return parseCSV(data, s.cfg.Comma())
}

func parseCSV(data []byte, comma rune) ([]record, error) {
	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = comma
	cr.FieldsPerRecord = -1

	var records []record
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}

		line, _ := cr.FieldPos(0)
		records = append(records, record{line: line, fields: fields})
	}
}

// insertRecords writes records inside a single transaction and appends the
// inserted rows to result in input order.
func (s *Service) insertRecords(ctx context.Context, def TableDefinition, records []record, result *ImportResult) error {
	first := firstDataRecord(records)
	if first < 0 {
		result.Skipped = len(records)
		return nil
	}

	result.Skipped = first

	headerIdx, hasHeader, err := detectHeader(records[first], def.FieldSpecs)
	if err != nil {
		return err
	}
	if hasHeader {
		result.HasHeader = true
		first++
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	// No-op once committed
	defer func() { _ = tx.Rollback() }()

	for i, rec := range records[first:] {
		if i%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("import cancelled at line %d: %w", rec.line, err)
			}
		}

		if isEmptyRow(rec.fields) {
			result.Skipped++
			continue
		}

		if err := ValidateRow(rec.fields, headerIdx, def.FieldSpecs); err != nil {
			return &RowError{Line: rec.line, Err: fmt.Errorf("%w: %w", ErrInvalidRow, err)}
		}

		params, err := def.BuildParams(rec.fields, headerIdx)
		if err != nil {
			return &RowError{Line: rec.line, Err: fmt.Errorf("%w: %w", ErrInvalidRow, err)}
		}

		if err := def.Insert(ctx, tx, s.sb, params); err != nil {
			return classifyInsertError(rec.line, err)
		}

		result.Rows = append(result.Rows, params)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

// firstDataRecord returns the index of the first non-blank record, or -1.
func firstDataRecord(records []record) int {
	for i, rec := range records {
		if !isEmptyRow(rec.fields) {
			return i
		}
	}
	return -1
}

// detectHeader returns the column positions for a file whose first data
// record is rec. A record naming every required column is a header and must
// name nothing else; otherwise columns are positional.
func detectHeader(rec record, specs []FieldSpec) (HeaderIndex, bool, error) {
	if !isHeaderRow(rec.fields, specs) {
		return PositionalIndex(specs), false, nil
	}
	if err := ValidateHeaderColumns(rec.fields, specs); err != nil {
		return nil, true, &RowError{Line: rec.line, Err: fmt.Errorf("%w: %w", ErrInvalidRow, err)}
	}
	return MakeHeaderIndex(rec.fields), true, nil
}
