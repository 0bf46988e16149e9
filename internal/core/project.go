package core

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// ProjectTable is the table key of the project importer.
const ProjectTable = "project"

// Project is one row of the project table.
type Project struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

var projectFields = []FieldSpec{
	{Name: "id", Type: FieldInteger, Required: true, Key: true},
	{Name: "name", Type: FieldText, Required: true},
}

func init() {
	Register(TableDefinition{
		Info:        TableInfo{Key: ProjectTable, Label: "Projects"},
		FieldSpecs:  projectFields,
		BuildParams: buildProjectParams,
		Insert:      insertProject,
	})
}

func buildProjectParams(row []string, headerIdx HeaderIndex) (any, error) {
	id, err := ParseInteger(row[headerIdx["id"]])
	if err != nil {
		return nil, err
	}
	// Names are stored as written; only the id is cleaned.
	return Project{ID: id, Name: row[headerIdx["name"]]}, nil
}

func insertProject(ctx context.Context, db DBTX, sb sq.StatementBuilderType, params any) error {
	p, ok := params.(Project)
	if !ok {
		return fmt.Errorf("insert project: unexpected params %T", params)
	}

	query, args, err := sb.Insert(ProjectTable).
		Columns("id", "name").
		Values(p.ID, p.Name).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	_, err = db.ExecContext(ctx, query, args...)
	return err
}

// ImportProjects loads the (id, name) rows of the CSV at csvPath into the
// project table and returns them in file order. On success the table holds
// exactly what a full scan via Projects returns.
//
// The whole file is one transaction: a row that fails conversion or
// violates a constraint rolls back every row of the file, and the returned
// error names the offending line.
func (s *Service) ImportProjects(ctx context.Context, csvPath string) ([]Project, error) {
	res, err := s.ImportFile(ctx, ProjectTable, csvPath)
	if err != nil {
		return nil, err
	}

	projects := make([]Project, 0, len(res.Rows))
	for _, row := range res.Rows {
		projects = append(projects, row.(Project))
	}
	return projects, nil
}

// Projects returns every row of the project table in storage order.
func (s *Service) Projects(ctx context.Context) ([]Project, error) {
	query, args, err := s.sb.Select("id", "name").From(ProjectTable).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	projects := []Project{}
	if err := s.db.SelectContext(ctx, &projects, query, args...); err != nil {
		return nil, fmt.Errorf("select projects: %w", err)
	}
	return projects, nil
}

// FormatProjects renders projects as aligned id/name lines for terminals.
func FormatProjects(projects []Project) string {
	var b strings.Builder
	for _, p := range projects {
		fmt.Fprintf(&b, "%6d  %s\n", p.ID, p.Name)
	}
	return b.String()
}
