package commands

import (
	"github.com/spf13/cobra"

	"github.com/dotcommander/playbook/internal/app"
	"github.com/dotcommander/playbook/internal/output"
	"github.com/dotcommander/playbook/internal/store"
)

// NewDoctorCmd creates the doctor command.
func NewDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check database connectivity and cross-entity consistency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, dbSource, err := app.ResolveDBPathDetailed()
			if err != nil {
				return cmdErr(err)
			}

			type resp struct {
				DBPath      string              `json:"db_path"`
				DBSource    string              `json:"db_source"`
				DBOK        bool                `json:"db_ok"`
				DBErr       string              `json:"db_error,omitempty"`
				Healthy     bool                `json:"healthy"`
				Counts      *store.StatusCounts `json:"counts,omitempty"`
				Diagnostics []store.Diagnostic  `json:"diagnostics"`
				Hint        string              `json:"hint,omitempty"`
			}
			result := resp{DBPath: dbPath, DBSource: dbSource, Diagnostics: []store.Diagnostic{}}

			db, err := store.InitDBWithPath(dbPath)
			if err != nil {
				result.DBErr = err.Error()
				result.Hint = "If this is running in a sandboxed environment, set db_path to a writable location or use --db-path."
				return output.PrintSuccess(result)
			}
			defer func() { _ = db.Close() }()
			result.DBOK = true

			ctx := cmdContext(cmd)
			if result.Counts, err = store.GetStatusCounts(ctx, db); err != nil {
				return cmdErr(err)
			}
			diags, err := store.RunDiagnostics(ctx, db)
			if err != nil {
				return cmdErr(err)
			}
			if diags != nil {
				result.Diagnostics = diags
			}
			result.Healthy = len(diags) == 0
			return output.PrintSuccess(result)
		},
	}
}
