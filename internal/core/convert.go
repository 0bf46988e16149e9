package core

// convert.go turns raw CSV cells into typed column values.
//
// CSV exports from spreadsheets carry artifacts that are not part of the
// value: surrounding whitespace, Excel formula prefixes (="42"), stray quotes,
// a UTF-8 BOM and the occasional invalid byte. These helpers strip them
// before a cell reaches the database.

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// utf8BOM is the byte order mark some Windows tools prepend to CSV files.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseInteger parses a cleaned cell as a base-10 integer.
// Thousands separators are not accepted: ids are identifiers, not amounts.
func ParseInteger(s string) (int64, error) {
	s = CleanCell(s)
	if s == "" {
		return 0, fmt.Errorf("empty integer")
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	return n, nil
}

// MakeHeaderIndex creates a HeaderIndex from a CSV header row.
// Keys are lowercased for case-insensitive matching.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		key := strings.ToLower(CleanCell(h))
		if _, dup := idx[key]; dup {
			continue // first occurrence wins
		}
		idx[key] = i
	}
	return idx
}

// PositionalIndex builds a HeaderIndex for files without a header row:
// the n-th field spec is the n-th column.
func PositionalIndex(specs []FieldSpec) HeaderIndex {
	idx := make(HeaderIndex, len(specs))
	for i, spec := range specs {
		idx[strings.ToLower(spec.Name)] = i
	}
	return idx
}

// CleanCell removes common CSV artifacts from a cell value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	// Remove leading '='
	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	// Remove any surrounding quotes
	s = strings.Trim(s, `"'`)

	return strings.TrimSpace(s)
}

// isEmptyRow reports whether every cell in row is blank.
func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// stripBOM drops a leading UTF-8 byte order mark.
func stripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, utf8BOM)
}

// sanitizeUTF8 replaces invalid UTF-8 sequences with U+FFFD.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('\uFFFD')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}

	return buf.Bytes()
}
