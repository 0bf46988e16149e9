package core

// validation.go checks CSV rows against a table's field specs before they
// are converted. Anything beyond shape and type (uniqueness, references,
// value ranges) is left to the database constraints.

import (
	"fmt"
	"strings"
)

// ValidationError represents a single validation error for a field.
type ValidationError struct {
	Field   string // Field/column name
	Value   string // The invalid value
	Message string // Human-readable error message
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidateCell validates a single cell value against its FieldSpec.
// Returns nil if valid, or an error describing the problem.
func ValidateCell(value string, spec FieldSpec) error {
	switch spec.Type {
	case FieldInteger:
		if _, err := ParseInteger(value); err != nil {
			return err
		}
	}
	return nil
}

// ValidateRow checks that row has no cells beyond the columns of headerIdx,
// that every field spec has a cell and that each cell matches its type. The
// first problem is returned.
func ValidateRow(row []string, headerIdx HeaderIndex, specs []FieldSpec) error {
	if err := validateWidth(row, headerIdx); err != nil {
		return err
	}
	for _, spec := range specs {
		if err := validateField(row, headerIdx, spec); err != nil {
			return err
		}
	}
	return nil
}

// validateWidth rejects cells past the last indexed column. A stray cell
// usually means the file was split on the wrong delimiter.
func validateWidth(row []string, headerIdx HeaderIndex) error {
	width := headerIdx.Width()
	if len(row) <= width {
		return nil
	}
	return ValidationError{
		Value:   strings.Join(row[width:], ","),
		Message: fmt.Sprintf("row has %d columns, expected %d", len(row), width),
	}
}

func validateField(row []string, headerIdx HeaderIndex, spec FieldSpec) error {
	pos, ok := headerIdx[strings.ToLower(spec.Name)]
	if !ok || pos >= len(row) {
		if spec.Required {
			return ValidationError{Field: spec.Name, Message: fmt.Sprintf("missing required column (row has %d columns)", len(row))}
		}
		return nil
	}

	if err := ValidateCell(row[pos], spec); err != nil {
		return ValidationError{Field: spec.Name, Value: row[pos], Message: err.Error()}
	}
	return nil
}

// ValidateHeaders validates that all required columns exist in the CSV headers.
// Returns a mapping from column name to index, or an error listing missing columns.
func ValidateHeaders(headers []string, specs []FieldSpec) (HeaderIndex, error) {
	idx := MakeHeaderIndex(headers)
	var missing []string

	for _, spec := range specs {
		if spec.Required {
			key := strings.ToLower(spec.Name)
			if _, ok := idx[key]; !ok {
				missing = append(missing, spec.Name)
			}
		}
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	return idx, nil
}

// ValidateHeaderColumns rejects a header cell that is blank, repeated or
// names no column of specs, so every column of a headed file is imported.
func ValidateHeaderColumns(headers []string, specs []FieldSpec) error {
	known := make(map[string]bool, len(specs))
	for _, spec := range specs {
		known[strings.ToLower(spec.Name)] = true
	}

	seen := make(map[string]bool, len(headers))
	for _, h := range headers {
		name := CleanCell(h)
		key := strings.ToLower(name)
		switch {
		case !known[key]:
			return ValidationError{Value: h, Message: fmt.Sprintf("unknown column %q", name)}
		case seen[key]:
			return ValidationError{Field: name, Value: h, Message: "column named more than once"}
		}
		seen[key] = true
	}
	return nil
}

// isHeaderRow reports whether record names every required column of specs.
func isHeaderRow(record []string, specs []FieldSpec) bool {
	_, err := ValidateHeaders(record, specs)
	return err == nil
}
