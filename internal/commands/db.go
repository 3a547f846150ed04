package commands

import (
	"github.com/spf13/cobra"

	"github.com/dotcommander/playbook/internal/app"
	"github.com/dotcommander/playbook/internal/output"
	"github.com/dotcommander/playbook/internal/store"
)

// NewDBCmd creates the db command group.
func NewDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database utilities",
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(newDBPathCmd())
	cmd.AddCommand(newDBVersionCmd())
	namespaceIndex(cmd)
	return cmd
}

func newDBPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the resolved database path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, source, err := app.ResolveDBPathDetailed()
			if err != nil {
				return cmdErr(err)
			}

			type resp struct {
				Path   string `json:"path"`
				Source string `json:"source"`
			}
			return output.PrintSuccess(resp{Path: path, Source: source})
		},
	}
}

func newDBVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the applied and latest schema versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			type resp struct {
				Current int64 `json:"current"`
				Latest  int64 `json:"latest"`
			}
			var out resp
			if err := withDB(func(db *DB) error {
				cur, latest, err := store.SchemaVersion(db)
				if err != nil {
					return err
				}
				out = resp{Current: cur, Latest: latest}
				return nil
			}); err != nil {
				return err
			}
			return output.PrintSuccess(out)
		},
	}
}
