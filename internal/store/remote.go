package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/dotcommander/playbook/internal/models"
)

// Remote exposes the three user-scoped collections (tasks, rewards, sprints)
// behind the method set the engine persists through.
type Remote struct {
	db *sql.DB
}

// NewRemote wraps an initialized database.
func NewRemote(db *sql.DB) *Remote {
	return &Remote{db: db}
}

// DB returns the underlying handle.
func (r *Remote) DB() *sql.DB { return r.db }

func (r *Remote) ListTasks(ctx context.Context, userID string) ([]models.Task, error) {
	return ListTasks(ctx, r.db, userID)
}

func (r *Remote) ListRewards(ctx context.Context, userID string) ([]models.Reward, error) {
	return ListRewards(ctx, r.db, userID)
}

func (r *Remote) ActiveSprint(ctx context.Context, userID string) (*models.Sprint, error) {
	return ActiveSprint(ctx, r.db, userID)
}

func (r *Remote) CreateTask(ctx context.Context, userID string, in models.NewTask) (*models.Task, error) {
	return CreateTask(ctx, r.db, userID, in)
}

func (r *Remote) UpdateTask(ctx context.Context, userID, taskID string, patch models.TaskPatch) error {
	return UpdateTask(ctx, r.db, userID, taskID, patch)
}

func (r *Remote) DeleteTask(ctx context.Context, userID, taskID string) error {
	return DeleteTask(ctx, r.db, userID, taskID)
}

func (r *Remote) CreateReward(ctx context.Context, userID string, in models.NewReward) (*models.Reward, error) {
	return CreateReward(ctx, r.db, userID, in)
}

func (r *Remote) RedeemReward(ctx context.Context, userID, rewardID string) error {
	return SetRewardRedeemed(ctx, r.db, userID, rewardID, true)
}

func (r *Remote) CreateSprint(ctx context.Context, userID string, in models.NewSprint) (*models.Sprint, error) {
	return CreateSprint(ctx, r.db, userID, in)
}

func (r *Remote) CompleteSprint(ctx context.Context, userID, sprintID string, endTime time.Time) error {
	return SetSprintState(ctx, r.db, userID, sprintID, models.SprintStateCompleted, &endTime)
}

func (r *Remote) SwapSprintTask(ctx context.Context, userID, sprintID string, taskIDs []string, oldTaskID, newTaskID string) error {
	return SwapSprintTask(ctx, r.db, userID, sprintID, taskIDs, oldTaskID, newTaskID)
}
