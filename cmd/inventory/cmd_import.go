package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/datakyt/inventory/internal/core"
	"github.com/spf13/cobra"
)

func newImportCmd(stdout, stderr io.Writer) *cobra.Command {
	var (
		asJSON bool
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "import <table> <file.csv>",
		Short: "Import a CSV file into a table",
		Long: `Import a CSV file into a table.

The file is imported in a single transaction: if any row fails, nothing
is written. A first row naming the table's columns is treated as a header.`,
		Args: cobra.ExactArgs(2),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveDefault
			}
			var keys []string
			for _, def := range core.All() {
				keys = append(keys, def.Info.Key)
			}
			return keys, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			tableKey, path := args[0], args[1]
			return withApp(cmd, stderr, func(ctx context.Context, a *app) error {
				if dryRun {
					return runPreview(ctx, a, stdout, tableKey, path, asJSON)
				}
				return runImport(ctx, a, stdout, tableKey, path, asJSON)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the import result as JSON")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what the import would do without writing")
	return cmd
}

func runImport(ctx context.Context, a *app, stdout io.Writer, tableKey, path string, asJSON bool) error {
	if tableKey == core.ProjectTable && !asJSON {
		projects, err := a.service.ImportProjects(ctx, path)
		if err != nil {
			return err
		}
		fmt.Fprint(stdout, core.FormatProjects(projects))
		fmt.Fprintf(stdout, "imported %d rows into %s\n", len(projects), tableKey)
		return nil
	}

	result, err := a.service.ImportFile(ctx, tableKey, path)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprintf(stdout, "imported %d rows into %s\n", result.Inserted(), tableKey)
	return nil
}

func runPreview(ctx context.Context, a *app, stdout io.Writer, tableKey, path string, asJSON bool) error {
	preview, err := a.service.PreviewFile(ctx, tableKey, path)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(preview); err != nil {
			return err
		}
	} else {
		sum := preview.Summary
		fmt.Fprintf(stdout, "rows: %d  new: %d  existing: %d  duplicate: %d  invalid: %d\n",
			sum.TotalRows, sum.NewRows, sum.ConflictRows, sum.DuplicateInFile, sum.ErrorRows)
		for _, c := range preview.ConflictSamples {
			fmt.Fprintf(stdout, "line %d: %s %s already exists\n", c.LineNumber, tableKey, c.RowKey)
		}
		for _, d := range preview.DuplicateSamples {
			fmt.Fprintf(stdout, "key %s repeated on lines %v\n", d.RowKey, d.LineNumbers)
		}
		for _, e := range preview.ErrorSamples {
			fmt.Fprintf(stdout, "line %d: %s\n", e.LineNumber, strings.Join(e.Errors, "; "))
		}
	}

	if !preview.WillSucceed() {
		return errExit
	}
	return nil
}

func newProjectsCmd(stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "Print every row of the project table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, stderr, func(ctx context.Context, a *app) error {
				projects, err := a.service.Projects(ctx)
				if err != nil {
					return err
				}
				fmt.Fprint(stdout, core.FormatProjects(projects))
				return nil
			})
		},
	}
}
