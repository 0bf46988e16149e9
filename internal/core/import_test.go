package core_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/datakyt/inventory/internal/config"
	"github.com/datakyt/inventory/internal/core"
	"github.com/datakyt/inventory/internal/database"
	"github.com/datakyt/inventory/internal/schema"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Test harness
// ============================================================================

type harness struct {
	path string
	db   *sqlx.DB
	svc  *core.Service
}

// newHarness creates the schema in a fresh database file that is removed
// when the test ends, pass or fail.
func newHarness(t *testing.T, cfg config.ImportConfig) *harness {
	t.Helper()

	h := &harness{path: filepath.Join(t.TempDir(), "inventory.db")}
	h.open(t, cfg)
	t.Cleanup(func() { _ = database.Remove(h.db, h.path) })
	return h
}

func (h *harness) open(t *testing.T, cfg config.ImportConfig) {
	t.Helper()

	db, err := database.OpenFile(context.Background(), h.path)
	require.NoError(t, err)
	require.NoError(t, schema.Apply(context.Background(), db))

	h.db = db
	h.svc = core.NewService(db, cfg, nil)
}

// recreate drops the database file and builds the schema again.
func (h *harness) recreate(t *testing.T, cfg config.ImportConfig) {
	t.Helper()

	require.NoError(t, database.Remove(h.db, h.path))
	h.open(t, cfg)
}

func (h *harness) projects(t *testing.T) []core.Project {
	t.Helper()

	got, err := h.svc.Projects(context.Background())
	require.NoError(t, err)
	return got
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "input.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// ============================================================================
// ImportProjects
// ============================================================================

func TestImportProjects_RoundTrip(t *testing.T) {
	h := newHarness(t, config.ImportConfig{})

	got, err := h.svc.ImportProjects(context.Background(), "testdata/projects.csv")
	require.NoError(t, err)

	want := []core.Project{{ID: 1, Name: "Alpha"}, {ID: 2, Name: "Beta"}}
	assert.Equal(t, want, got)
	assert.Equal(t, got, h.projects(t))
}

func TestImportProjects_Headerless(t *testing.T) {
	h := newHarness(t, config.ImportConfig{})

	got, err := h.svc.ImportProjects(context.Background(), "testdata/projects_noheader.csv")
	require.NoError(t, err)

	assert.Equal(t, []core.Project{{ID: 1, Name: "Alpha"}, {ID: 2, Name: "Beta"}}, got)
	assert.Equal(t, got, h.projects(t))
}

func TestImportProjects_PreservesInputOrder(t *testing.T) {
	h := newHarness(t, config.ImportConfig{})

	path := writeCSV(t, "id,name\n30,Gamma\n4,Delta\n17,Epsilon\n1,Zeta\n")
	got, err := h.svc.ImportProjects(context.Background(), path)
	require.NoError(t, err)

	ids := make([]int64, len(got))
	for i, p := range got {
		ids[i] = p.ID
	}
	assert.Equal(t, []int64{30, 4, 17, 1}, ids)
	assert.Equal(t, got, h.projects(t))
}

func TestImportProjects_NamesStoredVerbatim(t *testing.T) {
	h := newHarness(t, config.ImportConfig{})

	path := writeCSV(t, "1,\"Alpha, Ltd\"\n2, Beta \n3,\"multi\nline\"\n4,\n")
	got, err := h.svc.ImportProjects(context.Background(), path)
	require.NoError(t, err)

	want := []core.Project{
		{ID: 1, Name: "Alpha, Ltd"},
		{ID: 2, Name: " Beta "},
		{ID: 3, Name: "multi\nline"},
		{ID: 4, Name: ""},
	}
	assert.Equal(t, want, got)
	assert.Equal(t, want, h.projects(t))
}

func TestImportProjects_EmptyInputs(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"zero bytes", "testdata/empty.csv"},
		{"header only", "testdata/header_only.csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, config.ImportConfig{})

			got, err := h.svc.ImportProjects(context.Background(), tt.path)
			require.NoError(t, err)

			assert.NotNil(t, got)
			assert.Empty(t, got)
			assert.Empty(t, h.projects(t))
		})
	}
}

func TestImportProjects_DuplicateKeepsOriginal(t *testing.T) {
	h := newHarness(t, config.ImportConfig{})

	_, err := h.svc.ImportProjects(context.Background(), "testdata/projects.csv")
	require.NoError(t, err)

	path := writeCSV(t, "3,Gamma\n1,Impostor\n")
	got, err := h.svc.ImportProjects(context.Background(), path)

	require.Error(t, err)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, core.ErrConstraintViolation)

	var rowErr *core.RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, 2, rowErr.Line)
	assert.Equal(t, "DB001", core.MapError(err).Code)

	// The failed file is rolled back as a whole, Gamma included.
	assert.Equal(t, []core.Project{{ID: 1, Name: "Alpha"}, {ID: 2, Name: "Beta"}}, h.projects(t))
}

func TestImportProjects_DuplicateWithinFile(t *testing.T) {
	h := newHarness(t, config.ImportConfig{})

	_, err := h.svc.ImportProjects(context.Background(), "testdata/duplicate_id.csv")

	require.ErrorIs(t, err, core.ErrConstraintViolation)
	assert.Contains(t, err.Error(), "line 4")
	assert.Empty(t, h.projects(t))
}

func TestImportProjects_InvalidID(t *testing.T) {
	h := newHarness(t, config.ImportConfig{})

	_, err := h.svc.ImportProjects(context.Background(), "testdata/bad_id.csv")

	require.ErrorIs(t, err, core.ErrInvalidRow)
	var rowErr *core.RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, 3, rowErr.Line)
	assert.Contains(t, err.Error(), `"two"`)
	assert.Empty(t, h.projects(t))
}

func TestImportProjects_MissingColumn(t *testing.T) {
	h := newHarness(t, config.ImportConfig{})

	path := writeCSV(t, "1,Alpha\n2\n")
	_, err := h.svc.ImportProjects(context.Background(), path)

	require.ErrorIs(t, err, core.ErrInvalidRow)
	assert.Contains(t, err.Error(), "line 2")
}

func TestImportProjects_ExtraColumnsRejected(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantLine int
		wantMsg  string
	}{
		{
			name:     "headerless",
			content:  "1,Alpha,EXTRA\n2,Beta,more,cols\n",
			wantLine: 1,
			wantMsg:  "row has 3 columns, expected 2",
		},
		{
			name:     "trailing delimiter",
			content:  "1,Alpha\n2,Beta,\n",
			wantLine: 2,
			wantMsg:  "row has 3 columns, expected 2",
		},
		{
			name:     "wider than header",
			content:  "id,name\n1,Alpha\n2,Beta,EXTRA\n",
			wantLine: 3,
			wantMsg:  "row has 3 columns, expected 2",
		},
		{
			name:     "unknown header column",
			content:  "id,name,notes\n1,Alpha,first\n",
			wantLine: 1,
			wantMsg:  `unknown column "notes"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, config.ImportConfig{})

			got, err := h.svc.ImportProjects(context.Background(), writeCSV(t, tt.content))

			assert.Nil(t, got)
			require.ErrorIs(t, err, core.ErrInvalidRow)
			var rowErr *core.RowError
			require.ErrorAs(t, err, &rowErr)
			assert.Equal(t, tt.wantLine, rowErr.Line)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Equal(t, "VAL001", core.MapError(err).Code)
			assert.Empty(t, h.projects(t))
		})
	}
}

func TestImportProjects_MalformedQuoting(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bare quote in field", "1,Al\"pha\n"},
		{"text after closing quote", "1,\"Alpha\"x\n"},
		{"unterminated quote", "1,Alpha\n2,\"Beta\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, config.ImportConfig{})

			_, err := h.svc.ImportProjects(context.Background(), writeCSV(t, tt.content))

			var parseErr *csv.ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, "FILE002", core.MapError(err).Code)
			assert.Empty(t, h.projects(t))
		})
	}
}

// TestImportProjects_GeneratedRoundTrip writes files of unique ids and
// arbitrary names and checks that the table reads back exactly what the
// import returned.
func TestImportProjects_GeneratedRoundTrip(t *testing.T) {
	alphabet := []rune("abcXYZ 019,;\"'\n\t\u00e9\u4e16\U0001F600=-")
	rng := rand.New(rand.NewPCG(1, 2))

	for run := range 5 {
		t.Run(fmt.Sprintf("run %d", run), func(t *testing.T) {
			h := newHarness(t, config.ImportConfig{})

			n := 1 + rng.IntN(200)
			want := make([]core.Project, n)
			for i, id := range rng.Perm(n) {
				name := make([]rune, rng.IntN(12))
				for j := range name {
					name[j] = alphabet[rng.IntN(len(alphabet))]
				}
				want[i] = core.Project{ID: int64(id) + 1, Name: string(name)}
			}

			got, err := h.svc.ImportProjects(context.Background(), writeProjectsCSV(t, run%2 == 0, want))
			require.NoError(t, err)

			assert.Equal(t, want, got)
			assert.Equal(t, got, h.projects(t))
		})
	}
}

func FuzzImportProjectsRoundTrip(f *testing.F) {
	f.Add(int64(1), "Alpha", int64(2), "Beta")
	f.Add(int64(0), "", int64(-5), " padded ")
	f.Add(int64(7), "name", int64(8), "id")
	f.Add(int64(3), "Alpha, Ltd", int64(4), "multi\nline \"quoted\"")
	f.Add(int64(9), "=\"12\"", int64(10), "\u00e9t\u00e9")

	f.Fuzz(func(t *testing.T, id1 int64, name1 string, id2 int64, name2 string) {
		if id1 == id2 {
			t.Skip("ids must be unique")
		}
		for _, name := range []string{name1, name2} {
			// Invalid UTF-8 is replaced on read and CR before LF is folded
			// by the CSV reader, so neither reads back byte for byte.
			if !utf8.ValidString(name) || strings.ContainsAny(name, "\r\x00") {
				t.Skip("name does not survive a CSV round trip unchanged")
			}
		}

		h := newHarness(t, config.ImportConfig{})
		want := []core.Project{{ID: id1, Name: name1}, {ID: id2, Name: name2}}

		got, err := h.svc.ImportProjects(context.Background(), writeProjectsCSV(t, false, want))
		require.NoError(t, err)

		assert.Equal(t, want, got)
		assert.Equal(t, got, h.projects(t))
	})
}

// writeProjectsCSV encodes projects with encoding/csv so every name is
// quoted as needed.
func writeProjectsCSV(t *testing.T, header bool, projects []core.Project) string {
	t.Helper()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if header {
		require.NoError(t, w.Write([]string{"id", "name"}))
	}
	for _, p := range projects {
		require.NoError(t, w.Write([]string{strconv.FormatInt(p.ID, 10), p.Name}))
	}
	w.Flush()
	require.NoError(t, w.Error())

	return writeCSV(t, buf.String())
}

func TestImportProjects_MissingFile(t *testing.T) {
	h := newHarness(t, config.ImportConfig{})

	_, err := h.svc.ImportProjects(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))

	require.ErrorIs(t, err, fs.ErrNotExist)
	var pathErr *fs.PathError
	assert.ErrorAs(t, err, &pathErr)
}

func TestImportProjects_LeavesConnectionOpen(t *testing.T) {
	h := newHarness(t, config.ImportConfig{})

	_, err := h.svc.ImportProjects(context.Background(), "testdata/projects.csv")
	require.NoError(t, err)

	assert.NoError(t, h.svc.Ping(context.Background()))
	assert.NoError(t, h.db.PingContext(context.Background()))
}

func TestImportProjects_RecreatedDatabaseIsIdempotent(t *testing.T) {
	cfg := config.ImportConfig{}
	h := newHarness(t, cfg)

	first, err := h.svc.ImportProjects(context.Background(), "testdata/projects.csv")
	require.NoError(t, err)
	firstScan := h.projects(t)

	h.recreate(t, cfg)

	second, err := h.svc.ImportProjects(context.Background(), "testdata/projects.csv")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, firstScan, h.projects(t))
}

func TestImportProjects_SemicolonDelimiter(t *testing.T) {
	cfg := config.ImportConfig{Delimiter: ";"}
	h := newHarness(t, cfg)

	path := writeCSV(t, "ID;Name\n1;Alpha, Inc\n")
	got, err := h.svc.ImportProjects(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, []core.Project{{ID: 1, Name: "Alpha, Inc"}}, got)
}

func TestImportProjects_FileTooLarge(t *testing.T) {
	h := newHarness(t, config.ImportConfig{MaxFileSize: 10})

	_, err := h.svc.ImportProjects(context.Background(), "testdata/projects.csv")

	require.ErrorIs(t, err, core.ErrFileTooLarge)
	assert.Empty(t, h.projects(t))
}

// ============================================================================
// ImportReader
// ============================================================================

func TestImportReader_Result(t *testing.T) {
	h := newHarness(t, config.ImportConfig{})

	input := "\xef\xbb\xbf\n\nid,name\n1,Alpha\n\n2,Beta\n"
	res, err := h.svc.ImportReader(context.Background(), core.ProjectTable, "upload.csv", strings.NewReader(input))
	require.NoError(t, err)

	assert.NotEmpty(t, res.ImportID)
	assert.Equal(t, core.ProjectTable, res.TableKey)
	assert.Equal(t, "upload.csv", res.FileName)
	assert.True(t, res.HasHeader)
	assert.Equal(t, 2, res.Inserted())
	assert.Equal(t, []any{core.Project{ID: 1, Name: "Alpha"}, core.Project{ID: 2, Name: "Beta"}}, res.Rows)
}

func TestImportReader_InvalidUTF8Replaced(t *testing.T) {
	h := newHarness(t, config.ImportConfig{})

	_, err := h.svc.ImportReader(context.Background(), core.ProjectTable, "latin1.csv", strings.NewReader("1,caf\xe9\n"))
	require.NoError(t, err)

	assert.Equal(t, []core.Project{{ID: 1, Name: "caf\uFFFD"}}, h.projects(t))
}

func TestImportReader_UnknownTable(t *testing.T) {
	h := newHarness(t, config.ImportConfig{})

	_, err := h.svc.ImportReader(context.Background(), "widgets", "w.csv", strings.NewReader("1,a\n"))

	assert.ErrorIs(t, err, core.ErrUnknownTable)
}

func TestImportReader_Cancelled(t *testing.T) {
	h := newHarness(t, config.ImportConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.svc.ImportReader(ctx, core.ProjectTable, "p.csv", strings.NewReader("1,Alpha\n"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, h.projects(t))
}

func TestListTables(t *testing.T) {
	h := newHarness(t, config.ImportConfig{})

	tables := h.svc.ListTables()
	require.NotEmpty(t, tables)
	assert.Equal(t, core.ProjectTable, tables[0].Key)
}

func TestRegisteredColumnsExistInSchema(t *testing.T) {
	h := newHarness(t, config.ImportConfig{})

	for _, def := range core.All() {
		var columns []string
		require.NoError(t, h.db.Select(&columns, "SELECT name FROM pragma_table_info(?)", def.Info.Key))
		for _, spec := range def.FieldSpecs {
			assert.Contains(t, columns, spec.Name, "%s.%s", def.Info.Key, spec.Name)
		}
	}
}
