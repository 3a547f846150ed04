package engine

import (
	"context"
	"time"

	"github.com/dotcommander/playbook/internal/models"
)

// Gateway is the remote row store the engine mirrors. Every call is scoped
// by the owning user id. store.Remote is the production implementation.
type Gateway interface {
	ListTasks(ctx context.Context, userID string) ([]models.Task, error)
	ListRewards(ctx context.Context, userID string) ([]models.Reward, error)
	ActiveSprint(ctx context.Context, userID string) (*models.Sprint, error)

	CreateTask(ctx context.Context, userID string, in models.NewTask) (*models.Task, error)
	UpdateTask(ctx context.Context, userID, taskID string, patch models.TaskPatch) error
	DeleteTask(ctx context.Context, userID, taskID string) error

	CreateReward(ctx context.Context, userID string, in models.NewReward) (*models.Reward, error)
	RedeemReward(ctx context.Context, userID, rewardID string) error

	CreateSprint(ctx context.Context, userID string, in models.NewSprint) (*models.Sprint, error)
	CompleteSprint(ctx context.Context, userID, sprintID string, endTime time.Time) error
	SwapSprintTask(ctx context.Context, userID, sprintID string, taskIDs []string, oldTaskID, newTaskID string) error
}
