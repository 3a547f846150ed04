package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/dotcommander/playbook/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var taskIDPattern = regexp.MustCompile(`^task_[0-9a-f]{32}$`)

func TestCreateTask(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	task, err := CreateTask(ctx, db, "user-1", models.NewTask{Title: "Write report", Complexity: 2, ContextTag: models.ContextMorning})
	require.NoError(t, err)
	require.NotNil(t, task)

	assert.Regexp(t, taskIDPattern, task.ID)
	assert.Equal(t, "Write report", task.Title)
	assert.Equal(t, models.Complexity(2), task.Complexity)
	assert.Equal(t, models.TaskStatusPending, task.Status)
	assert.Equal(t, models.ContextMorning, task.ContextTag)
	assert.False(t, task.CreatedAt.IsZero())
	assert.Nil(t, task.CompletedAt)
	assert.Empty(t, task.SprintID)
}

func TestCreateTask_DefaultsContextTag(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	task, err := CreateTask(context.Background(), db, "user-1", models.NewTask{Title: "Stretch", Complexity: 1})
	require.NoError(t, err)
	assert.Equal(t, models.ContextAny, task.ContextTag)
}

func TestCreateTask_RequiresUser(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := CreateTask(context.Background(), db, "", models.NewTask{Title: "x", Complexity: 1})
	require.Error(t, err)
}

func TestListTasks_ScopedToUserNewestFirst(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	first, err := CreateTask(ctx, db, "user-1", models.NewTask{Title: "first", Complexity: 1})
	require.NoError(t, err)
	second, err := CreateTask(ctx, db, "user-1", models.NewTask{Title: "second", Complexity: 2})
	require.NoError(t, err)
	_, err = CreateTask(ctx, db, "user-2", models.NewTask{Title: "other", Complexity: 3})
	require.NoError(t, err)

	tasks, err := ListTasks(ctx, db, "user-1")
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, second.ID, tasks[0].ID)
	assert.Equal(t, first.ID, tasks[1].ID)

	none, err := ListTasks(ctx, db, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUpdateTask_OnlySuppliedFields(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	task, err := CreateTask(ctx, db, "user-1", models.NewTask{Title: "Old", Complexity: 1, ContextTag: models.ContextDay})
	require.NoError(t, err)

	patch := models.PatchFor(models.RenameTask{Title: "New"})
	require.NoError(t, UpdateTask(ctx, db, "user-1", task.ID, patch))

	got, err := GetTask(ctx, db, "user-1", task.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)
	assert.Equal(t, models.Complexity(1), got.Complexity)
	assert.Equal(t, models.ContextDay, got.ContextTag)
}

func TestUpdateTask_StatusAndCompletedAt(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	task, err := CreateTask(ctx, db, "user-1", models.NewTask{Title: "Run", Complexity: 3})
	require.NoError(t, err)

	now := time.Now().UTC()
	require.NoError(t, UpdateTask(ctx, db, "user-1", task.ID, models.StatusPatch(models.TaskStatusCompleted, &now)))

	got, err := GetTask(ctx, db, "user-1", task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.WithinDuration(t, now, *got.CompletedAt, time.Second)

	require.NoError(t, UpdateTask(ctx, db, "user-1", task.ID, models.StatusPatch(models.TaskStatusPending, nil)))
	got, err = GetTask(ctx, db, "user-1", task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusPending, got.Status)
	assert.Nil(t, got.CompletedAt)
}

func TestUpdateTask_NotFoundAcrossUsers(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	task, err := CreateTask(ctx, db, "user-1", models.NewTask{Title: "Mine", Complexity: 1})
	require.NoError(t, err)

	err = UpdateTask(ctx, db, "user-2", task.ID, models.PatchFor(models.RenameTask{Title: "Stolen"}))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteTask(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	task, err := CreateTask(ctx, db, "user-1", models.NewTask{Title: "Gone", Complexity: 1})
	require.NoError(t, err)

	require.NoError(t, DeleteTask(ctx, db, "user-1", task.ID))

	_, err = GetTask(ctx, db, "user-1", task.ID)
	require.ErrorIs(t, err, ErrNotFound)

	err = DeleteTask(ctx, db, "user-1", task.ID)
	require.ErrorIs(t, err, ErrNotFound)
}
