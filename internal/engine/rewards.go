package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dotcommander/playbook/internal/models"
)

// AddReward inserts a reward remotely and appends the stored row. A
// caller-supplied id is kept.
func (e *Engine) AddReward(ctx context.Context, in models.NewReward) (models.Reward, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Tier == "" {
		in.Tier = models.TierBronze
	}
	if in.Title == "" {
		return models.Reward{}, errors.New("reward title is required")
	}
	if in.Cost <= 0 {
		return models.Reward{}, fmt.Errorf("reward cost must be positive, got %d", in.Cost)
	}
	if !in.Tier.Valid() {
		return models.Reward{}, fmt.Errorf("invalid reward tier %q (valid: bronze, silver, gold)", in.Tier)
	}

	e.mu.Lock()
	if err := e.requireUserLocked(); err != nil {
		e.mu.Unlock()
		return models.Reward{}, err
	}
	userID, gen := e.userID, e.gen
	e.mu.Unlock()

	cctx, cancel := e.remoteContext(ctx)
	created, err := e.gw.CreateReward(cctx, userID, in)
	cancel()
	if err != nil {
		return models.Reward{}, e.remoteFailed("add_reward", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen == gen {
		e.rewards = append(e.rewards, *created)
		e.recomputeLocked()
	}
	return *created, nil
}

// RedeemReward spends energy on a reward. Redemption is one-way.
func (e *Engine) RedeemReward(ctx context.Context, rewardID string) error {
	e.mu.Lock()
	if err := e.requireUserLocked(); err != nil {
		e.mu.Unlock()
		return err
	}
	i := e.rewardIndexLocked(rewardID)
	if i < 0 {
		e.mu.Unlock()
		return &RewardNotFoundError{RewardID: rewardID}
	}
	r := &e.rewards[i]
	if r.IsRedeemed {
		e.mu.Unlock()
		return ErrAlreadyRedeemed
	}
	if e.score < r.Cost {
		err := &InsufficientEnergyError{RewardID: rewardID, Cost: r.Cost, Score: e.score}
		e.mu.Unlock()
		return err
	}
	r.IsRedeemed = true
	e.recomputeLocked()
	userID, gen := e.userID, e.gen
	e.mu.Unlock()

	return e.persist(ctx, gen, "redeem_reward",
		func(ctx context.Context) error { return e.gw.RedeemReward(ctx, userID, rewardID) },
		func() {
			if j := e.rewardIndexLocked(rewardID); j >= 0 {
				e.rewards[j].IsRedeemed = false
			}
		})
}
