package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dotcommander/playbook/internal/models"
)

// CreateSprint inserts an active sprint and links its tasks in one transaction.
func CreateSprint(ctx context.Context, db *sql.DB, userID string, in models.NewSprint) (*models.Sprint, error) {
	if userID == "" {
		return nil, errors.New("user id is required")
	}
	taskIDs, err := encodeStrings(in.TaskIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode task ids: %w", err)
	}

	sprintID := generatePrefixedID("sprint")
	var sprint *models.Sprint
	err = Transact(ctx, db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sprints (id, user_id, state, task_ids, reward_id, start_time)
			VALUES (?, ?, ?, ?, ?, ?)
		`, sprintID, userID, string(models.SprintStateActive), taskIDs, nullableString(in.RewardID), time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to insert sprint: %w", err)
		}

		if err := LinkTasksToSprintTx(ctx, tx, userID, in.TaskIDs, sprintID); err != nil {
			return err
		}

		created, err := getSprint(ctx, tx, userID, sprintID)
		if err != nil {
			return fmt.Errorf("failed to fetch created sprint: %w", err)
		}
		sprint = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sprint, nil
}

func getSprint(ctx context.Context, q Querier, userID, sprintID string) (*models.Sprint, error) {
	row := q.QueryRowContext(ctx, `SELECT `+sprintColumns+` FROM sprints WHERE id = ? AND user_id = ?`, sprintID, userID)
	sp, err := scanSprintRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Entity: "sprint", ID: sprintID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query sprint: %w", err)
	}
	return sp, nil
}

// ActiveSprint returns the user's active sprint, or nil when there is none.
// Should several rows be active, the most recently started one wins.
func ActiveSprint(ctx context.Context, db *sql.DB, userID string) (*models.Sprint, error) {
	row := db.QueryRowContext(ctx, `
		SELECT `+sprintColumns+`
		FROM sprints
		WHERE user_id = ? AND state = ?
		ORDER BY start_time DESC, rowid DESC
		LIMIT 1
	`, userID, string(models.SprintStateActive))

	sp, err := scanSprintRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query active sprint: %w", err)
	}
	return sp, nil
}

// SetSprintState updates state and end_time. Callers only move a sprint from
// active to completed; the reverse is never written.
func SetSprintState(ctx context.Context, db *sql.DB, userID, sprintID string, state models.SprintState, endTime *time.Time) error {
	return RetryWithBackoff(func() error {
		result, err := db.ExecContext(ctx, `
			UPDATE sprints SET state = ?, end_time = ? WHERE id = ? AND user_id = ?
		`, string(state), nullableTime(endTime), sprintID, userID)
		if err != nil {
			return fmt.Errorf("failed to update sprint: %w", err)
		}
		return requireAffected(result, "sprint", sprintID)
	})
}

// SwapSprintTask replaces the sprint's task list and moves the sprint link from
// oldTaskID to newTaskID. The three writes commit or fail together.
// newTaskID must exist; oldTaskID may already be gone.
func SwapSprintTask(ctx context.Context, db *sql.DB, userID, sprintID string, taskIDs []string, oldTaskID, newTaskID string) error {
	encoded, err := encodeStrings(taskIDs)
	if err != nil {
		return fmt.Errorf("failed to encode task ids: %w", err)
	}

	return Transact(ctx, db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `UPDATE sprints SET task_ids = ? WHERE id = ? AND user_id = ?`, encoded, sprintID, userID)
		if err != nil {
			return fmt.Errorf("failed to update sprint tasks: %w", err)
		}
		if err := requireAffected(result, "sprint", sprintID); err != nil {
			return err
		}
		// The outgoing task may already be deleted; unlinking nothing is fine.
		if _, err := tx.ExecContext(ctx, `UPDATE tasks SET sprint_id = NULL WHERE id = ? AND user_id = ?`, oldTaskID, userID); err != nil {
			return fmt.Errorf("unlink %s: %w", oldTaskID, err)
		}
		if err := UpdateTaskTx(ctx, tx, userID, newTaskID, models.SprintLinkPatch(sprintID)); err != nil {
			return fmt.Errorf("link %s: %w", newTaskID, err)
		}
		return nil
	})
}
