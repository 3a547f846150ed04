package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dotcommander/playbook/internal/engine"
	"github.com/dotcommander/playbook/internal/models"
	"github.com/dotcommander/playbook/internal/output"
)

// NewRewardCmd creates the reward command group.
func NewRewardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reward",
		Short: "Manage rewards and spend energy",
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(newRewardAddCmd())
	cmd.AddCommand(newRewardListCmd())
	cmd.AddCommand(newRewardRedeemCmd())
	namespaceIndex(cmd)
	return cmd
}

func newRewardAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a reward",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			title, _ := cmd.Flags().GetString("title")
			cost, _ := cmd.Flags().GetInt("cost")
			tier, _ := cmd.Flags().GetString("tier")

			if title == "" {
				return cmdErr(errors.New("--title is required"))
			}
			if cost <= 0 {
				return cmdErr(fmt.Errorf("--cost must be positive, got %d", cost))
			}
			if !models.RewardTier(tier).Valid() {
				return cmdErr(fmt.Errorf("invalid --tier %q (valid: bronze, silver, gold)", tier))
			}

			var reward models.Reward
			if err := withEngine(cmdContext(cmd), func(e *engine.Engine) error {
				r, err := e.AddReward(cmdContext(cmd), models.NewReward{
					Title: title,
					Cost:  cost,
					Tier:  models.RewardTier(tier),
				})
				reward = r
				return err
			}); err != nil {
				return err
			}

			type resp struct {
				Reward models.Reward `json:"reward"`
			}
			return output.PrintSuccess(resp{Reward: reward})
		},
	}
	cmd.Flags().String("title", "", "Reward title (required)")
	cmd.Flags().Int("cost", 0, "Energy needed to redeem (required)")
	cmd.Flags().String("tier", string(models.TierBronze), "Tier: bronze|silver|gold")
	cmd.Annotations = map[string]string{"mutates": "true"}
	return cmd
}

func newRewardListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List rewards with the current energy balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			type resp struct {
				Score   int             `json:"score"`
				Count   int             `json:"count"`
				Rewards []models.Reward `json:"rewards"`
			}
			var out resp
			if err := withEngine(cmdContext(cmd), func(e *engine.Engine) error {
				rewards := e.Rewards()
				out = resp{Score: e.Score(), Count: len(rewards), Rewards: rewards}
				return nil
			}); err != nil {
				return err
			}
			return output.PrintSuccess(out)
		},
	}
}

func newRewardRedeemCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "redeem",
		Short: "Spend energy on a reward",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rewardID, _ := cmd.Flags().GetString("id")
			if rewardID == "" {
				return cmdErr(errors.New("--id is required"))
			}

			type resp struct {
				Redeemed string `json:"redeemed"`
				Score    int    `json:"score"`
			}
			var out resp
			if err := withEngine(cmdContext(cmd), func(e *engine.Engine) error {
				if err := e.RedeemReward(cmdContext(cmd), rewardID); err != nil {
					return err
				}
				out = resp{Redeemed: rewardID, Score: e.Score()}
				return nil
			}); err != nil {
				return err
			}
			return output.PrintSuccess(out)
		},
	}
	cmd.Flags().String("id", "", "Reward ID (required)")
	cmd.Annotations = map[string]string{"mutates": "true"}
	return cmd
}
