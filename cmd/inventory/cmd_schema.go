package main

import (
	"context"
	"fmt"
	"io"

	"github.com/datakyt/inventory/internal/schema"
	"github.com/spf13/cobra"
)

func newSchemaCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Create or inspect the inventory schema",
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "apply",
			Short: "Create every inventory table",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withApp(cmd, stderr, func(ctx context.Context, a *app) error {
					if err := schema.Apply(ctx, a.db); err != nil {
						return err
					}
					a.logger.Info("schema applied", "tables", len(schema.Tables))
					fmt.Fprintf(stdout, "created %d tables\n", len(schema.Tables))
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List the tables in creation order",
			Args:  cobra.NoArgs,
			RunE: func(_ *cobra.Command, _ []string) error {
				for i, name := range schema.Names() {
					fmt.Fprintf(stdout, "%2d  %s\n", i+1, name)
				}
				return nil
			},
		},
	)
	return cmd
}
