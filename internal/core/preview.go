package core

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// PreviewSummary contains the summary counts for an import preview.
type PreviewSummary struct {
	TotalRows       int `json:"totalRows"`
	NewRows         int `json:"newRows"`
	ConflictRows    int `json:"conflictRows"`
	ErrorRows       int `json:"errorRows"`
	DuplicateInFile int `json:"duplicateInFile"`
}

// RowPreview represents a single row for preview display.
type RowPreview struct {
	LineNumber int               `json:"lineNumber"`
	RowKey     string            `json:"rowKey"`
	Values     map[string]string `json:"values"`
}

// ErrorPreview represents a row with validation errors.
type ErrorPreview struct {
	LineNumber int               `json:"lineNumber"`
	Values     map[string]string `json:"values"`
	Errors     []string          `json:"errors"`
}

// DuplicatePreview represents keys that appear multiple times in the file.
type DuplicatePreview struct {
	RowKey      string `json:"rowKey"`
	LineNumbers []int  `json:"lineNumbers"`
}

// PreviewResponse is what an import of the same file would do, computed
// without writing anything.
type PreviewResponse struct {
	TableKey         string             `json:"table"`
	HasHeader        bool               `json:"hasHeader"`
	Summary          PreviewSummary     `json:"summary"`
	NewRowSamples    []RowPreview       `json:"newRowSamples"`
	ConflictSamples  []RowPreview       `json:"conflictSamples"`
	ErrorSamples     []ErrorPreview     `json:"errorSamples"`
	DuplicateSamples []DuplicatePreview `json:"duplicateSamples"`
	ProcessingTimeMs int64              `json:"processingTimeMs"`
}

// WillSucceed reports whether importing the previewed file would commit.
func (p *PreviewResponse) WillSucceed() bool {
	return p.Summary.ErrorRows == 0 && p.Summary.ConflictRows == 0 && p.Summary.DuplicateInFile == 0
}

// Sample limits
const (
	maxNewRowSamples    = 10
	maxConflictSamples  = 10
	maxErrorSamples     = 20
	maxDuplicateSamples = 10
	keyBatchSize        = 500
)

type analyzedRow struct {
	lineNumber int
	rowKey     string
	values     map[string]string
	errors     []string
}

// Preview performs read-only analysis of a CSV import.
// It validates every row, finds keys repeated within the file and keys
// already present in the table, and reports what an import would do.
func (s *Service) Preview(ctx context.Context, tableKey string, r io.Reader) (*PreviewResponse, error) {
	startTime := time.Now()

	def, ok := Get(tableKey)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, tableKey)
	}

	records, err := s.readRecords(r)
	if err != nil {
		return nil, err
	}

	resp := &PreviewResponse{TableKey: tableKey}

	first := firstDataRecord(records)
	if first < 0 {
		resp.ProcessingTimeMs = time.Since(startTime).Milliseconds()
		return resp, nil
	}

	headerIdx, hasHeader, err := detectHeader(records[first], def.FieldSpecs)
	if err != nil {
		return nil, err
	}
	if hasHeader {
		resp.HasHeader = true
		first++
	}

	keySpec, hasKey := KeySpec(def.FieldSpecs)
	seenKeys := make(map[string][]int) // rowKey -> line numbers
	var keyOrder []string
	var rows []analyzedRow

	for _, rec := range records[first:] {
		if isEmptyRow(rec.fields) {
			continue
		}
		resp.Summary.TotalRows++

		ar := analyzedRow{
			lineNumber: rec.line,
			values:     extractRowValues(rec.fields, headerIdx, def.FieldSpecs),
			errors:     validateRowComplete(rec.fields, headerIdx, def.FieldSpecs),
		}

		if len(ar.errors) > 0 {
			resp.Summary.ErrorRows++
			if len(resp.ErrorSamples) < maxErrorSamples {
				resp.ErrorSamples = append(resp.ErrorSamples, ErrorPreview{
					LineNumber: ar.lineNumber,
					Values:     ar.values,
					Errors:     ar.errors,
				})
			}
			continue
		}

		if hasKey {
			ar.rowKey = normalizeKey(keySpec, ar.values[keySpec.Name])
			if _, seen := seenKeys[ar.rowKey]; !seen {
				keyOrder = append(keyOrder, ar.rowKey)
			}
			seenKeys[ar.rowKey] = append(seenKeys[ar.rowKey], ar.lineNumber)
		}
		rows = append(rows, ar)
	}

	// Track file duplicates
	for _, key := range keyOrder {
		lines := seenKeys[key]
		if len(lines) > 1 {
			resp.Summary.DuplicateInFile += len(lines) - 1 // Count extra occurrences
			if len(resp.DuplicateSamples) < maxDuplicateSamples {
				resp.DuplicateSamples = append(resp.DuplicateSamples, DuplicatePreview{
					RowKey:      key,
					LineNumbers: lines,
				})
			}
		}
	}

	existingKeys := make(map[string]bool)
	if hasKey && len(keyOrder) > 0 {
		existing, err := s.existingKeys(ctx, def, keySpec, keyOrder)
		if err != nil {
			return nil, err
		}
		for _, k := range existing {
			existingKeys[k] = true
		}
	}

	// Classify rows as new or conflicting
	counted := make(map[string]bool)
	for _, ar := range rows {
		preview := RowPreview{LineNumber: ar.lineNumber, RowKey: ar.rowKey, Values: ar.values}

		switch {
		case ar.rowKey != "" && existingKeys[ar.rowKey]:
			resp.Summary.ConflictRows++
			if len(resp.ConflictSamples) < maxConflictSamples {
				resp.ConflictSamples = append(resp.ConflictSamples, preview)
			}
		case ar.rowKey != "" && counted[ar.rowKey]:
			// Repeat of a key earlier in the file; reported as a duplicate.
		default:
			counted[ar.rowKey] = true
			resp.Summary.NewRows++
			if len(resp.NewRowSamples) < maxNewRowSamples {
				resp.NewRowSamples = append(resp.NewRowSamples, preview)
			}
		}
	}

	resp.ProcessingTimeMs = time.Since(startTime).Milliseconds()
	return resp, nil
}

// PreviewFile previews an import of the CSV file at path.
func (s *Service) PreviewFile(ctx context.Context, tableKey, path string) (*PreviewResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	return s.Preview(ctx, tableKey, f)
}

// existingKeys returns which of keys are already present in the table,
// querying in batches of keyBatchSize.
func (s *Service) existingKeys(ctx context.Context, def TableDefinition, keySpec FieldSpec, keys []string) ([]string, error) {
	var found []string

	for start := 0; start < len(keys); start += keyBatchSize {
		end := min(start+keyBatchSize, len(keys))

		args := make([]any, 0, end-start)
		for _, k := range keys[start:end] {
			args = append(args, keyArg(keySpec, k))
		}

		query, qargs, err := s.sb.Select(keySpec.Name).
			From(def.Info.Key).
			Where(sq.Eq{keySpec.Name: args}).
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("build key lookup: %w", err)
		}

		var batch []string
		if err := s.db.SelectContext(ctx, &batch, query, qargs...); err != nil {
			return nil, fmt.Errorf("look up existing keys: %w", err)
		}
		found = append(found, batch...)
	}

	return found, nil
}

// validateRowComplete validates a row and returns ALL errors (not just the first).
func validateRowComplete(row []string, headerIdx HeaderIndex, specs []FieldSpec) []string {
	var errs []string
	if err := validateWidth(row, headerIdx); err != nil {
		errs = append(errs, err.Error())
	}
	for _, spec := range specs {
		if err := validateField(row, headerIdx, spec); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

// extractRowValues extracts column values as a string map.
func extractRowValues(row []string, headerIdx HeaderIndex, specs []FieldSpec) map[string]string {
	values := make(map[string]string, len(specs))

	for _, spec := range specs {
		pos, ok := headerIdx[strings.ToLower(spec.Name)]
		if ok && pos < len(row) {
			values[spec.Name] = CleanCell(row[pos])
		}
	}

	return values
}

// normalizeKey renders a validated key cell the way the database returns it,
// so "007" in the file matches 7 in the table.
func normalizeKey(spec FieldSpec, raw string) string {
	if spec.Type == FieldInteger {
		if n, err := ParseInteger(raw); err == nil {
			return strconv.FormatInt(n, 10)
		}
	}
	return raw
}

func keyArg(spec FieldSpec, key string) any {
	if spec.Type == FieldInteger {
		if n, err := strconv.ParseInt(key, 10, 64); err == nil {
			return n
		}
	}
	return key
}
