package commands

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dotcommander/playbook/internal/engine"
	"github.com/dotcommander/playbook/internal/models"
	"github.com/dotcommander/playbook/internal/output"
)

// NewSprintCmd creates the sprint command group.
func NewSprintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sprint",
		Short: "Run a focused sprint of up to three tasks",
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(newSprintCreateCmd())
	cmd.AddCommand(newSprintCompleteCmd())
	cmd.AddCommand(newSprintShowCmd())
	namespaceIndex(cmd)
	return cmd
}

type sprintView struct {
	Sprint *models.Sprint `json:"sprint"`
	Tasks  []models.Task  `json:"tasks"`
	Reward *models.Reward `json:"reward,omitempty"`
	Score  int            `json:"score"`
}

// viewSprint resolves the sprint's task ids and reward goal. Deleted tasks
// are omitted.
func viewSprint(e *engine.Engine) sprintView {
	v := sprintView{Sprint: e.CurrentSprint(), Tasks: []models.Task{}, Score: e.Score()}
	if v.Sprint == nil {
		return v
	}
	for _, id := range v.Sprint.TaskIDs {
		if t, ok := e.Task(id); ok {
			v.Tasks = append(v.Tasks, t)
		}
	}
	if v.Sprint.RewardID != "" {
		for _, r := range e.Rewards() {
			if r.ID == v.Sprint.RewardID {
				r := r
				v.Reward = &r
				break
			}
		}
	}
	return v
}

func splitIDs(raw []string) []string {
	var out []string
	for _, part := range raw {
		for _, id := range strings.Split(part, ",") {
			if id = strings.TrimSpace(id); id != "" {
				out = append(out, id)
			}
		}
	}
	return out
}

func newSprintCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Start a sprint over 1-3 pending tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, _ := cmd.Flags().GetStringSlice("task")
			rewardID, _ := cmd.Flags().GetString("reward")
			ids := splitIDs(raw)
			if len(ids) == 0 {
				return cmdErr(errors.New("--task is required (repeat or comma-separate up to 3 ids)"))
			}
			if len(ids) > models.MaxSprintTasks {
				return cmdErr(errors.New("a sprint holds at most 3 tasks"))
			}

			var view sprintView
			if err := withEngine(cmdContext(cmd), func(e *engine.Engine) error {
				if _, err := e.CreateSprint(cmdContext(cmd), ids, rewardID); err != nil {
					return err
				}
				view = viewSprint(e)
				return nil
			}); err != nil {
				return err
			}
			return output.PrintSuccess(view)
		},
	}
	cmd.Flags().StringSlice("task", nil, "Task ID to include (required, repeatable)")
	cmd.Flags().String("reward", "", "Reward ID to work towards")
	cmd.Annotations = map[string]string{"mutates": "true"}
	return cmd
}

func newSprintCompleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "complete",
		Short: "Close the active sprint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var view sprintView
			if err := withEngine(cmdContext(cmd), func(e *engine.Engine) error {
				if err := e.CompleteSprint(cmdContext(cmd)); err != nil {
					return err
				}
				view = viewSprint(e)
				return nil
			}); err != nil {
				return err
			}
			return output.PrintSuccess(view)
		},
	}
	cmd.Annotations = map[string]string{"mutates": "true"}
	return cmd
}

func newSprintShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the active sprint with its tasks and reward goal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var view sprintView
			if err := withEngine(cmdContext(cmd), func(e *engine.Engine) error {
				view = viewSprint(e)
				return nil
			}); err != nil {
				return err
			}
			return output.PrintSuccess(view)
		},
	}
}
