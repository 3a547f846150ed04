package engine

import "github.com/dotcommander/playbook/internal/models"

// ComputeScore returns the energy balance: completed task complexity minus
// redeemed reward cost, floored at zero.
func ComputeScore(tasks []models.Task, rewards []models.Reward) int {
	earned := 0
	for i := range tasks {
		if tasks[i].IsCompleted() {
			earned += int(tasks[i].Complexity)
		}
	}
	spent := 0
	for i := range rewards {
		if rewards[i].IsRedeemed {
			spent += rewards[i].Cost
		}
	}
	return max(earned-spent, 0)
}
