package commands

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestNewTaskCmd_HasExpectedSubcommands(t *testing.T) {
	cmd := NewTaskCmd()
	require.Equal(t, "task", cmd.Use)
	require.Equal(t, "Manage tasks", cmd.Short)

	for _, name := range []string{"add", "list", "update", "toggle", "delete", "reroll"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		require.NotNil(t, sub)
		require.Equal(t, name, sub.Name())
	}
}

func runValidation(t *testing.T, cmd *cobra.Command, flags map[string]string) {
	t.Helper()
	t.Setenv("PLAYBOOK_PRETTY_JSON", "")
	for k, v := range flags {
		require.NoError(t, cmd.Flags().Set(k, v))
	}
	captureStdout(t, func() {
		err := cmd.RunE(cmd, nil)
		require.Error(t, err)
		require.IsType(t, printedError{}, err)
	})
}

func TestTaskAddCmd_ValidationErrorsBeforeDB(t *testing.T) {
	t.Run("missing title", func(t *testing.T) {
		runValidation(t, newTaskAddCmd(), nil)
	})
	t.Run("bad complexity", func(t *testing.T) {
		runValidation(t, newTaskAddCmd(), map[string]string{"title": "x", "complexity": "5"})
	})
	t.Run("bad tag", func(t *testing.T) {
		runValidation(t, newTaskAddCmd(), map[string]string{"title": "x", "tag": "Noon"})
	})
}

func TestTaskListCmd_RejectsUnknownStatus(t *testing.T) {
	runValidation(t, newTaskListCmd(), map[string]string{"status": "blocked"})
}

func TestTaskUpdateCmd_Validation(t *testing.T) {
	t.Run("missing id", func(t *testing.T) {
		runValidation(t, newTaskUpdateCmd(), map[string]string{"title": "x"})
	})
	t.Run("nothing to update", func(t *testing.T) {
		runValidation(t, newTaskUpdateCmd(), map[string]string{"id": "task_1"})
	})
	t.Run("invalid complexity", func(t *testing.T) {
		runValidation(t, newTaskUpdateCmd(), map[string]string{"id": "task_1", "complexity": "0"})
	})
	t.Run("blank title", func(t *testing.T) {
		runValidation(t, newTaskUpdateCmd(), map[string]string{"id": "task_1", "title": "  "})
	})
}

func TestTaskByIDCmds_RequireID(t *testing.T) {
	for _, mk := range []func() *cobra.Command{newTaskToggleCmd, newTaskDeleteCmd, newTaskRerollCmd} {
		cmd := mk()
		t.Run(cmd.Name(), func(t *testing.T) {
			runValidation(t, cmd, nil)
		})
	}
}

func TestSprintAndRewardCmds_ValidationErrorsBeforeDB(t *testing.T) {
	t.Run("sprint without tasks", func(t *testing.T) {
		runValidation(t, newSprintCreateCmd(), nil)
	})
	t.Run("sprint with four tasks", func(t *testing.T) {
		runValidation(t, newSprintCreateCmd(), map[string]string{"task": "a,b,c,d"})
	})
	t.Run("reward without cost", func(t *testing.T) {
		runValidation(t, newRewardAddCmd(), map[string]string{"title": "x"})
	})
	t.Run("reward bad tier", func(t *testing.T) {
		runValidation(t, newRewardAddCmd(), map[string]string{"title": "x", "cost": "2", "tier": "platinum"})
	})
	t.Run("redeem without id", func(t *testing.T) {
		runValidation(t, newRewardRedeemCmd(), nil)
	})
}

func TestSplitIDs(t *testing.T) {
	require.Equal(t, []string{"a", "b", "c"}, splitIDs([]string{"a, b", "", " c "}))
	require.Nil(t, splitIDs(nil))
}
