package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dotcommander/playbook/internal/models"
)

// CreateReward inserts an unredeemed, locked reward. A caller-supplied ID is
// kept; otherwise one is generated (reward_<32 hex chars>).
func CreateReward(ctx context.Context, db *sql.DB, userID string, in models.NewReward) (*models.Reward, error) {
	if userID == "" {
		return nil, errors.New("user id is required")
	}
	rewardID := in.ID
	if rewardID == "" {
		rewardID = generatePrefixedID("reward")
	}
	tier := in.Tier
	if tier == "" {
		tier = models.TierBronze
	}

	var reward *models.Reward
	err := Transact(ctx, db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO rewards (id, user_id, title, cost, tier, is_redeemed, is_locked, created_at)
			VALUES (?, ?, ?, ?, ?, 0, 1, ?)
		`, rewardID, userID, in.Title, in.Cost, string(tier), time.Now().UTC())
		if err != nil {
			if IsUniqueConstraintErr(err) {
				return &DuplicateIDError{Entity: "reward", ID: rewardID}
			}
			return fmt.Errorf("failed to insert reward: %w", err)
		}

		row := tx.QueryRowContext(ctx, `SELECT `+rewardColumns+` FROM rewards WHERE id = ?`, rewardID)
		created, err := scanRewardRow(row)
		if err != nil {
			return fmt.Errorf("failed to fetch created reward: %w", err)
		}
		reward = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reward, nil
}

// ListRewards returns every reward owned by userID, newest first.
func ListRewards(ctx context.Context, db *sql.DB, userID string) ([]models.Reward, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+rewardColumns+`
		FROM rewards
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rewards: %w", err)
	}
	defer func() { _ = rows.Close() }()

	rewards := []models.Reward{}
	for rows.Next() {
		r, scanErr := scanRewardRow(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan reward row: %w", scanErr)
		}
		rewards = append(rewards, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reward rows: %w", err)
	}
	return rewards, nil
}

// SetRewardRedeemed flips is_redeemed. Passing false is only used to
// compensate a failed optimistic redeem that never reached the store.
func SetRewardRedeemed(ctx context.Context, db *sql.DB, userID, rewardID string, redeemed bool) error {
	return RetryWithBackoff(func() error {
		result, err := db.ExecContext(ctx, `UPDATE rewards SET is_redeemed = ? WHERE id = ? AND user_id = ?`, redeemed, rewardID, userID)
		if err != nil {
			return fmt.Errorf("failed to update reward: %w", err)
		}
		return requireAffected(result, "reward", rewardID)
	})
}
