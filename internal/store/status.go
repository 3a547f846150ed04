package store

import (
	"context"
	"database/sql"
	"fmt"
)

// StatusCounts holds store-wide row counts, used by status and doctor to
// report what the database holds independent of the signed-in user.
type StatusCounts struct {
	Users   int                `json:"users"`
	Tasks   TaskStatusCounts   `json:"tasks"`
	Rewards RewardStatusCounts `json:"rewards"`
	Sprints SprintStatusCounts `json:"sprints"`
}

// TaskStatusCounts breaks down task counts by status.
type TaskStatusCounts struct {
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
	InSprint  int `json:"in_sprint"`
}

// RewardStatusCounts breaks down reward counts by redemption.
type RewardStatusCounts struct {
	Available int `json:"available"`
	Redeemed  int `json:"redeemed"`
}

// SprintStatusCounts breaks down sprint counts by state.
type SprintStatusCounts struct {
	Active    int `json:"active"`
	Completed int `json:"completed"`
}

// GetStatusCounts retrieves all status counts in a single query with retry.
func GetStatusCounts(ctx context.Context, db *sql.DB) (*StatusCounts, error) {
	counts := &StatusCounts{}
	err := RetryWithBackoff(func() error {
		return db.QueryRowContext(ctx, `
			SELECT
				(SELECT COUNT(*) FROM (
					SELECT user_id FROM tasks
					UNION SELECT user_id FROM rewards
					UNION SELECT user_id FROM sprints
				)),
				(SELECT COUNT(*) FROM tasks WHERE status = 'pending'),
				(SELECT COUNT(*) FROM tasks WHERE status = 'completed'),
				(SELECT COUNT(*) FROM tasks WHERE sprint_id IS NOT NULL AND sprint_id != ''),
				(SELECT COUNT(*) FROM rewards WHERE is_redeemed = 0),
				(SELECT COUNT(*) FROM rewards WHERE is_redeemed != 0),
				(SELECT COUNT(*) FROM sprints WHERE state = 'active'),
				(SELECT COUNT(*) FROM sprints WHERE state = 'completed')
		`).Scan(
			&counts.Users,
			&counts.Tasks.Pending,
			&counts.Tasks.Completed,
			&counts.Tasks.InSprint,
			&counts.Rewards.Available,
			&counts.Rewards.Redeemed,
			&counts.Sprints.Active,
			&counts.Sprints.Completed,
		)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get status counts: %w", err)
	}
	return counts, nil
}
