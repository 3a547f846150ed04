package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Diagnostic represents a single consistency check finding.
type Diagnostic struct {
	Level           string `json:"level"` // "warning" or "error"
	Code            string `json:"code"`
	UserID          string `json:"user_id,omitempty"`
	Message         string `json:"message"`
	SuggestedAction string `json:"suggested_action,omitempty"`
}

type diagnosticCheck struct {
	name string
	run  func(ctx context.Context, db *sql.DB) ([]Diagnostic, error)
}

var diagnosticChecks = []diagnosticCheck{
	{"completion timestamps", findCompletionMismatch},
	{"active sprints", findMultipleActiveSprints},
	{"sprint links", findDanglingSprintLinks},
	{"sprint members", findMissingSprintMembers},
}

// RunDiagnostics performs consistency checks across every user's rows and
// returns findings. An empty result means the store is consistent.
func RunDiagnostics(ctx context.Context, db *sql.DB) ([]Diagnostic, error) {
	var diags []Diagnostic
	for _, check := range diagnosticChecks {
		found, err := check.run(ctx, db)
		if err != nil {
			return nil, fmt.Errorf("%s check: %w", check.name, err)
		}
		diags = append(diags, found...)
	}
	return diags, nil
}

// findCompletionMismatch finds tasks whose status disagrees with completed_at.
func findCompletionMismatch(ctx context.Context, db *sql.DB) ([]Diagnostic, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, user_id, status
		FROM tasks
		WHERE (status = 'completed' AND completed_at IS NULL)
		   OR (status = 'pending' AND completed_at IS NOT NULL)
		ORDER BY user_id, id
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var diags []Diagnostic
	for rows.Next() {
		var id, userID, status string
		if err := rows.Scan(&id, &userID, &status); err != nil {
			return nil, err
		}
		diags = append(diags, Diagnostic{
			Level:           "error",
			Code:            "COMPLETION_MISMATCH",
			UserID:          userID,
			Message:         fmt.Sprintf("task %s is %s but its completion timestamp disagrees", id, status),
			SuggestedAction: fmt.Sprintf("playbook task toggle %s", id),
		})
	}
	return diags, rows.Err()
}

// findMultipleActiveSprints finds users with more than one active sprint.
func findMultipleActiveSprints(ctx context.Context, db *sql.DB) ([]Diagnostic, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT user_id, COUNT(*)
		FROM sprints
		WHERE state = 'active'
		GROUP BY user_id
		HAVING COUNT(*) > 1
		ORDER BY user_id
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var diags []Diagnostic
	for rows.Next() {
		var userID string
		var n int
		if err := rows.Scan(&userID, &n); err != nil {
			return nil, err
		}
		diags = append(diags, Diagnostic{
			Level:           "warning",
			Code:            "MULTIPLE_ACTIVE_SPRINTS",
			UserID:          userID,
			Message:         fmt.Sprintf("user %s has %d active sprints; only the newest is loaded", userID, n),
			SuggestedAction: "playbook sprint complete (repeat until one remains)",
		})
	}
	return diags, rows.Err()
}

// findDanglingSprintLinks finds tasks pointing at a sprint that does not exist.
func findDanglingSprintLinks(ctx context.Context, db *sql.DB) ([]Diagnostic, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT t.id, t.user_id, t.sprint_id
		FROM tasks t
		LEFT JOIN sprints s ON s.id = t.sprint_id AND s.user_id = t.user_id
		WHERE t.sprint_id IS NOT NULL AND t.sprint_id != '' AND s.id IS NULL
		ORDER BY t.user_id, t.id
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var diags []Diagnostic
	for rows.Next() {
		var id, userID, sprintID string
		if err := rows.Scan(&id, &userID, &sprintID); err != nil {
			return nil, err
		}
		diags = append(diags, Diagnostic{
			Level:   "warning",
			Code:    "DANGLING_SPRINT_LINK",
			UserID:  userID,
			Message: fmt.Sprintf("task %s references missing sprint %s", id, sprintID),
		})
	}
	return diags, rows.Err()
}

// findMissingSprintMembers finds active sprints listing task ids that no
// longer exist.
func findMissingSprintMembers(ctx context.Context, db *sql.DB) ([]Diagnostic, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT s.id, s.user_id, j.value
		FROM sprints s, json_each(s.task_ids) j
		LEFT JOIN tasks t ON t.id = j.value AND t.user_id = s.user_id
		WHERE s.state = 'active' AND t.id IS NULL
		ORDER BY s.user_id, s.id
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var diags []Diagnostic
	for rows.Next() {
		var sprintID, userID, taskID string
		if err := rows.Scan(&sprintID, &userID, &taskID); err != nil {
			return nil, err
		}
		diags = append(diags, Diagnostic{
			Level:           "warning",
			Code:            "MISSING_SPRINT_TASK",
			UserID:          userID,
			Message:         fmt.Sprintf("active sprint %s lists deleted task %s", sprintID, taskID),
			SuggestedAction: "playbook sprint complete",
		})
	}
	return diags, rows.Err()
}
