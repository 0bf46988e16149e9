package main

import (
	"context"
	"fmt"
	"io"

	"github.com/datakyt/inventory/internal/admin"
	"github.com/spf13/cobra"
)

func newDBCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database maintenance",
		Args:  cobra.NoArgs,
	}
	cmd.AddCommand(newDBResetCmd(stdout, stderr))
	return cmd
}

func newDBResetCmd(stdout, stderr io.Writer) *cobra.Command {
	var (
		yes      bool
		recreate bool
	)

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop and recreate every inventory table",
		Long: `Drop and recreate every inventory table. All data is lost.

With --recreate a SQLite database file is deleted and created again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				fmt.Fprintln(stderr, "inventory: db reset deletes all data; pass --yes to confirm") //nolint:errcheck // best-effort stderr
				return errExit
			}

			if recreate {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				db, err := admin.Recreate(cmd.Context(), cfg.Database, nil)
				if err != nil {
					return err
				}
				fmt.Fprintln(stdout, "database recreated")
				return db.Close()
			}

			return withApp(cmd, stderr, func(ctx context.Context, a *app) error {
				if err := admin.Reset(ctx, a.db, a.logger); err != nil {
					return err
				}
				fmt.Fprintln(stdout, "database reset")
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm that all data may be deleted")
	cmd.Flags().BoolVar(&recreate, "recreate", false, "Delete the SQLite file instead of dropping tables")
	return cmd
}
