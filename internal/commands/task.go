package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dotcommander/playbook/internal/engine"
	"github.com/dotcommander/playbook/internal/models"
	"github.com/dotcommander/playbook/internal/output"
)

// NewTaskCmd creates the task command group
func NewTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
		Long:  "Create, edit, complete and reroll tasks. Complexity is 1-3; context tags: Morning, Day, Evening, Any",
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(newTaskAddCmd())
	cmd.AddCommand(newTaskListCmd())
	cmd.AddCommand(newTaskUpdateCmd())
	cmd.AddCommand(newTaskToggleCmd())
	cmd.AddCommand(newTaskDeleteCmd())
	cmd.AddCommand(newTaskRerollCmd())

	namespaceIndex(cmd)
	return cmd
}

func parseTag(raw string) (models.ContextTag, error) {
	return models.ParseContextTag(raw)
}

func newTaskAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a new pending task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			title, _ := cmd.Flags().GetString("title")
			complexity, _ := cmd.Flags().GetInt("complexity")
			rawTag, _ := cmd.Flags().GetString("tag")
			desc, _ := cmd.Flags().GetString("desc")

			if title == "" {
				return cmdErr(errors.New("--title is required"))
			}
			if !models.Complexity(complexity).Valid() {
				return cmdErr(fmt.Errorf("invalid --complexity %d (valid: 1, 2, 3)", complexity))
			}
			tag, err := parseTag(rawTag)
			if err != nil {
				return cmdErr(err)
			}

			var task models.Task
			if err := withEngine(cmdContext(cmd), func(e *engine.Engine) error {
				t, err := e.AddTask(cmdContext(cmd), title, models.Complexity(complexity), tag)
				if err != nil {
					return err
				}
				if desc != "" {
					if err := e.UpdateTask(cmdContext(cmd), t.ID, models.DescribeTask{Description: desc}); err != nil {
						return err
					}
					t, _ = e.Task(t.ID)
				}
				task = t
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Task models.Task `json:"task"`
			}
			return output.PrintSuccess(resp{Task: task})
		},
	}

	cmd.Flags().String("title", "", "Task title (required)")
	cmd.Flags().Int("complexity", 1, "Energy the task awards when completed (1, 2, 3)")
	cmd.Flags().String("tag", "Any", "Context tag (Morning, Day, Evening, Any)")
	cmd.Flags().String("desc", "", "Task description")

	cmd.Annotations = map[string]string{"mutates": "true"}
	return cmd
}

func newTaskListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, _ := cmd.Flags().GetString("status")
			backlog, _ := cmd.Flags().GetBool("backlog")

			switch status {
			case "", "all", string(models.TaskStatusPending), string(models.TaskStatusCompleted):
			default:
				return cmdErr(fmt.Errorf("invalid --status %q (valid: all, pending, completed)", status))
			}

			var tasks []models.Task
			if err := withEngine(cmdContext(cmd), func(e *engine.Engine) error {
				if backlog {
					tasks = e.Backlog()
					return nil
				}
				for _, t := range e.Tasks() {
					if status == "" || status == "all" || string(t.Status) == status {
						tasks = append(tasks, t)
					}
				}
				return nil
			}); err != nil {
				return err
			}
			if tasks == nil {
				tasks = []models.Task{}
			}

			type resp struct {
				Count int           `json:"count"`
				Tasks []models.Task `json:"tasks"`
			}
			return output.PrintSuccess(resp{Count: len(tasks), Tasks: tasks})
		},
	}

	cmd.Flags().String("status", "all", "Filter by status: all|pending|completed")
	cmd.Flags().Bool("backlog", false, "Only pending tasks outside the active sprint")
	return cmd
}

func newTaskUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Edit a task's title, complexity, tag or description",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, _ := cmd.Flags().GetString("id")
			if taskID == "" {
				return cmdErr(errors.New("--id is required"))
			}

			var updates []models.TaskUpdate
			flags := cmd.Flags()
			if flags.Changed("title") {
				v, _ := flags.GetString("title")
				updates = append(updates, models.RenameTask{Title: v})
			}
			if flags.Changed("complexity") {
				v, _ := flags.GetInt("complexity")
				updates = append(updates, models.SetComplexity{Complexity: models.Complexity(v)})
			}
			if flags.Changed("tag") {
				v, _ := flags.GetString("tag")
				tag, err := parseTag(v)
				if err != nil {
					return cmdErr(err)
				}
				updates = append(updates, models.RetagTask{Tag: tag})
			}
			if flags.Changed("desc") {
				v, _ := flags.GetString("desc")
				updates = append(updates, models.DescribeTask{Description: v})
			}
			if len(updates) == 0 {
				return cmdErr(errors.New("nothing to update: pass --title, --complexity, --tag or --desc"))
			}
			for _, u := range updates {
				if err := u.Validate(); err != nil {
					return cmdErr(err)
				}
			}

			var task models.Task
			if err := withEngine(cmdContext(cmd), func(e *engine.Engine) error {
				if err := e.UpdateTask(cmdContext(cmd), taskID, updates...); err != nil {
					return err
				}
				task, _ = e.Task(taskID)
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Task models.Task `json:"task"`
			}
			return output.PrintSuccess(resp{Task: task})
		},
	}

	cmd.Flags().String("id", "", "Task ID (required)")
	cmd.Flags().String("title", "", "New title")
	cmd.Flags().Int("complexity", 0, "New complexity (1, 2, 3)")
	cmd.Flags().String("tag", "", "New context tag (Morning, Day, Evening, Any)")
	cmd.Flags().String("desc", "", "New description; empty clears it")

	cmd.Annotations = map[string]string{"mutates": "true"}
	return cmd
}

// taskByIDCmd builds a command that applies op to the task named by --id.
func taskByIDCmd(use, short string, op func(cmd *cobra.Command, e *engine.Engine, id string) (any, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, _ := cmd.Flags().GetString("id")
			if taskID == "" {
				return cmdErr(errors.New("--id is required"))
			}

			var result any
			if err := withEngine(cmdContext(cmd), func(e *engine.Engine) error {
				r, err := op(cmd, e, taskID)
				result = r
				return err
			}); err != nil {
				return err
			}
			return output.PrintSuccess(result)
		},
	}
	cmd.Flags().String("id", "", "Task ID (required)")
	cmd.Annotations = map[string]string{"mutates": "true"}
	return cmd
}

func newTaskToggleCmd() *cobra.Command {
	return taskByIDCmd("toggle", "Flip a task between pending and completed",
		func(cmd *cobra.Command, e *engine.Engine, id string) (any, error) {
			if err := e.ToggleTaskStatus(cmdContext(cmd), id); err != nil {
				return nil, err
			}
			task, _ := e.Task(id)
			type resp struct {
				Task  models.Task `json:"task"`
				Score int         `json:"score"`
			}
			return resp{Task: task, Score: e.Score()}, nil
		})
}

func newTaskDeleteCmd() *cobra.Command {
	return taskByIDCmd("delete", "Delete a task",
		func(cmd *cobra.Command, e *engine.Engine, id string) (any, error) {
			if err := e.DeleteTask(cmdContext(cmd), id); err != nil {
				return nil, err
			}
			type resp struct {
				Deleted string `json:"deleted"`
				Score   int    `json:"score"`
			}
			return resp{Deleted: id, Score: e.Score()}, nil
		})
}

func newTaskRerollCmd() *cobra.Command {
	return taskByIDCmd("reroll", "Swap a sprint task for the next backlog task",
		func(cmd *cobra.Command, e *engine.Engine, id string) (any, error) {
			replacement, err := e.RerollTask(cmdContext(cmd), id)
			if err != nil {
				return nil, err
			}
			type resp struct {
				Removed     string         `json:"removed"`
				Replacement models.Task    `json:"replacement"`
				Sprint      *models.Sprint `json:"sprint"`
			}
			return resp{Removed: id, Replacement: replacement, Sprint: e.CurrentSprint()}, nil
		})
}
