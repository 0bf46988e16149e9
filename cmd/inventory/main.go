// inventory creates the inventory schema and imports CSV files into it.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/datakyt/inventory/internal/core"
	"github.com/spf13/cobra"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// errExit signals a non-zero exit after the command already reported.
var errExit = errors.New("exit")

// run executes the inventory CLI with the given args.
func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.Execute(); err != nil {
		if !errors.Is(err, errExit) {
			fmt.Fprintf(stderr, "inventory: %s\n", describeError(err))
		}
		return 1
	}
	return 0
}

// describeError prefixes known import failures with their support code.
func describeError(err error) string {
	if core.MapError(err).Code == "ERR000" {
		return err.Error()
	}
	return core.FormatError(err)
}

// newRootCmd creates the root cobra command with all subcommands.
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "inventory",
		Short:         "Inventory schema and CSV import tool",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			fmt.Fprintf(stderr, "inventory: unknown command %q\n", args[0]) //nolint:errcheck // best-effort stderr
			return errExit
		},
	}
	root.PersistentFlags().String("env-file", ".env", "Environment file to load before reading configuration")
	root.PersistentFlags().String("db", "", "Database URL or SQLite path (overrides DATABASE_URL)")

	root.AddCommand(
		newSchemaCmd(stdout, stderr),
		newImportCmd(stdout, stderr),
		newProjectsCmd(stdout, stderr),
		newDBCmd(stdout, stderr),
		newServeCmd(stdout, stderr),
	)
	return root
}
