package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dotcommander/playbook/internal/models"
)

// CreateTask inserts a pending task owned by userID and returns the stored row.
// Task ID is generated using pattern: task_<32 hex chars>.
func CreateTask(ctx context.Context, db *sql.DB, userID string, in models.NewTask) (*models.Task, error) {
	var task *models.Task

	err := Transact(ctx, db, func(tx *sql.Tx) error {
		created, err := CreateTaskTx(ctx, tx, userID, in)
		if err != nil {
			return err
		}
		task = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	return task, nil
}

// CreateTaskTx inserts and returns a task inside an existing transaction.
func CreateTaskTx(ctx context.Context, tx *sql.Tx, userID string, in models.NewTask) (*models.Task, error) {
	if userID == "" {
		return nil, errors.New("user id is required")
	}
	tag := in.ContextTag
	if tag == "" {
		tag = models.ContextAny
	}
	tags, err := encodeStrings([]string{string(tag)})
	if err != nil {
		return nil, fmt.Errorf("failed to encode tags: %w", err)
	}

	taskID := generatePrefixedID("task")
	_, err = tx.ExecContext(ctx, `
		INSERT INTO tasks (id, user_id, title, description, complexity, tags, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, taskID, userID, in.Title, in.Description, int(in.Complexity), tags, string(models.TaskStatusPending), time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to insert task: %w", err)
	}

	task, err := getTask(ctx, tx, userID, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch created task: %w", err)
	}
	return task, nil
}

// GetTask retrieves a task by ID.
func GetTask(ctx context.Context, db *sql.DB, userID, taskID string) (*models.Task, error) {
	return getTask(ctx, db, userID, taskID)
}

func getTask(ctx context.Context, q Querier, userID, taskID string) (*models.Task, error) {
	row := q.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ? AND user_id = ?`, taskID, userID)

	task, err := scanTaskRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Entity: "task", ID: taskID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query task: %w", err)
	}
	return task, nil
}

// ListTasks returns every task owned by userID, newest first.
func ListTasks(ctx context.Context, db *sql.DB, userID string) ([]models.Task, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	tasks := []models.Task{}
	for rows.Next() {
		task, scanErr := scanTaskRow(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", scanErr)
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}
	return tasks, nil
}

// UpdateTask applies a partial update touching only the columns set in patch.
func UpdateTask(ctx context.Context, db *sql.DB, userID, taskID string, patch models.TaskPatch) error {
	return Transact(ctx, db, func(tx *sql.Tx) error {
		return UpdateTaskTx(ctx, tx, userID, taskID, patch)
	})
}

// UpdateTaskTx is UpdateTask inside an existing transaction.
func UpdateTaskTx(ctx context.Context, tx *sql.Tx, userID, taskID string, patch models.TaskPatch) error {
	if patch.IsEmpty() {
		return nil
	}

	var (
		sets []string
		args []any
	)
	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.Complexity != nil {
		sets = append(sets, "complexity = ?")
		args = append(args, int(*patch.Complexity))
	}
	if patch.ContextTag != nil {
		tags, err := encodeStrings([]string{string(*patch.ContextTag)})
		if err != nil {
			return fmt.Errorf("failed to encode tags: %w", err)
		}
		sets = append(sets, "tags = ?")
		args = append(args, tags)
	}
	if patch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*patch.Status))
	}
	if patch.SetCompletedAt {
		sets = append(sets, "completed_at = ?")
		args = append(args, nullableTime(patch.CompletedAt))
	}
	if patch.SetSprintID {
		sets = append(sets, "sprint_id = ?")
		args = append(args, nullableString(patch.SprintID))
	}
	args = append(args, taskID, userID)

	// sets holds only the fixed column fragments above.
	//nolint:gosec // G202: column list is built from literals, values are bound
	query := `UPDATE tasks SET ` + strings.Join(sets, ", ") + ` WHERE id = ? AND user_id = ?`
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return requireAffected(result, "task", taskID)
}

// DeleteTask removes a task by ID. Returns NotFoundError if nothing was deleted.
func DeleteTask(ctx context.Context, db *sql.DB, userID, taskID string) error {
	if taskID == "" {
		return errors.New("task ID is required")
	}
	return RetryWithBackoff(func() error {
		result, err := db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND user_id = ?`, taskID, userID)
		if err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}
		return requireAffected(result, "task", taskID)
	})
}

// LinkTasksToSprintTx sets sprint_id on every listed task in one statement.
// An empty sprintID clears the link.
func LinkTasksToSprintTx(ctx context.Context, tx *sql.Tx, userID string, taskIDs []string, sprintID string) error {
	if len(taskIDs) == 0 {
		return nil
	}

	placeholders := make([]byte, 0, len(taskIDs)*2)
	for i := range taskIDs {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}

	args := make([]any, 0, len(taskIDs)+2)
	args = append(args, nullableString(sprintID), userID)
	for _, id := range taskIDs {
		args = append(args, id)
	}

	//nolint:gosec // G202: placeholders is built from '?' and ',' only
	query := `UPDATE tasks SET sprint_id = ? WHERE user_id = ? AND id IN (` + string(placeholders) + `)`
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to link tasks to sprint: %w", err)
	}
	ra, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if int(ra) != len(taskIDs) {
		return fmt.Errorf("linked %d of %d tasks to sprint %s", ra, len(taskIDs), sprintID)
	}
	return nil
}

func requireAffected(result sql.Result, entity, id string) error {
	ra, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if ra == 0 {
		return &NotFoundError{Entity: entity, ID: id}
	}
	return nil
}
