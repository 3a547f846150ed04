package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/dotcommander/playbook/internal/app"
	"github.com/dotcommander/playbook/internal/engine"
	"github.com/dotcommander/playbook/internal/models"
	"github.com/dotcommander/playbook/internal/output"
	"github.com/dotcommander/playbook/internal/session"
	"github.com/dotcommander/playbook/internal/store"
)

type statusCounts struct {
	Tasks     int `json:"tasks"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
	Backlog   int `json:"backlog"`
	Rewards   int `json:"rewards"`
	Redeemed  int `json:"redeemed"`
}

func countState(e *engine.Engine) statusCounts {
	var c statusCounts
	for _, t := range e.Tasks() {
		c.Tasks++
		if t.IsCompleted() {
			c.Completed++
		} else {
			c.Pending++
		}
	}
	c.Backlog = len(e.Backlog())
	for _, r := range e.Rewards() {
		c.Rewards++
		if r.IsRedeemed {
			c.Redeemed++
		}
	}
	return c
}

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show energy, counts, the active sprint and installation details",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd)
		},
	}
}

func runStatus(cmd *cobra.Command) error {
	dbPath, dbSource, err := app.ResolveDBPathDetailed()
	if err != nil {
		return cmdErr(err)
	}

	type dbInfo struct {
		Path      string `json:"path"`
		Source    string `json:"source"`
		OK        bool   `json:"ok"`
		SizeBytes *int64 `json:"size_bytes,omitempty"`
		Error     string `json:"error,omitempty"`
	}
	type resp struct {
		DB        dbInfo              `json:"db"`
		Runtime   app.RuntimeSettings `json:"runtime"`
		SignedIn  bool                `json:"signed_in"`
		UserID    string              `json:"user_id,omitempty"`
		Score     int                 `json:"score"`
		Counts    *statusCounts       `json:"counts,omitempty"`
		Sprint    *models.Sprint      `json:"sprint,omitempty"`
		LoadError string              `json:"load_error,omitempty"`
		Hint      string              `json:"hint,omitempty"`
	}

	result := resp{
		DB:      dbInfo{Path: dbPath, Source: dbSource},
		Runtime: app.EffectiveRuntimeSettings(),
	}

	db, err := store.InitDBWithPath(dbPath)
	if err != nil {
		result.DB.Error = err.Error()
		result.Hint = "set db_path to a writable location or use --db-path"
		return output.PrintSuccess(result)
	}
	defer func() { _ = db.Close() }()
	result.DB.OK = true
	if stat, err := os.Stat(dbPath); err == nil {
		size := stat.Size()
		result.DB.SizeBytes = &size
	}

	mgr, err := newSessionManager()
	if err != nil {
		return cmdErr(err)
	}
	eng := engine.New(store.NewRemote(db), engine.WithRemoteTimeout(result.Runtime.RemoteTimeout))
	unbind := session.Bind(cmdContext(cmd), mgr, eng)
	defer unbind()
	if _, err := mgr.Restore(); err != nil {
		return cmdErr(err)
	}

	result.UserID, result.SignedIn = mgr.UserID()
	if !result.SignedIn {
		result.Hint = "playbook auth signin --token <access-token>"
		return output.PrintSuccess(result)
	}
	if err := eng.Err(); err != nil {
		result.LoadError = err.Error()
		return output.PrintSuccess(result)
	}
	counts := countState(eng)
	result.Counts = &counts
	result.Score = eng.Score()
	result.Sprint = eng.CurrentSprint()
	return output.PrintSuccess(result)
}
