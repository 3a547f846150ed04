package engine

import (
	"context"
	"fmt"

	"github.com/dotcommander/playbook/internal/models"
)

// CreateSprint starts a sprint over 1..3 pending tasks with an optional
// reward goal. Only one sprint may be active at a time.
func (e *Engine) CreateSprint(ctx context.Context, taskIDs []string, rewardID string) (*models.Sprint, error) {
	e.mu.Lock()
	if err := e.requireUserLocked(); err != nil {
		e.mu.Unlock()
		return nil, err
	}
	if e.sprint != nil && e.sprint.IsActive() {
		id := e.sprint.ID
		e.mu.Unlock()
		return nil, &ActiveSprintError{SprintID: id}
	}
	if e.creatingSprint {
		e.mu.Unlock()
		return nil, &ActiveSprintError{}
	}
	if err := e.validateSprintLocked(taskIDs, rewardID); err != nil {
		e.mu.Unlock()
		return nil, err
	}
	e.creatingSprint = true
	userID, gen := e.userID, e.gen
	e.mu.Unlock()

	in := models.NewSprint{TaskIDs: append([]string(nil), taskIDs...), RewardID: rewardID}
	cctx, cancel := e.remoteContext(ctx)
	created, err := e.gw.CreateSprint(cctx, userID, in)
	cancel()

	e.mu.Lock()
	e.creatingSprint = false
	if err != nil {
		e.mu.Unlock()
		return nil, e.remoteFailed("create_sprint", err)
	}
	defer e.mu.Unlock()
	if e.gen == gen {
		e.sprint = created.Clone()
		for _, id := range created.TaskIDs {
			if i := e.taskIndexLocked(id); i >= 0 {
				e.tasks[i].SprintID = created.ID
			}
		}
	}
	return created.Clone(), nil
}

func (e *Engine) validateSprintLocked(taskIDs []string, rewardID string) error {
	if len(taskIDs) == 0 || len(taskIDs) > models.MaxSprintTasks {
		return fmt.Errorf("a sprint needs 1 to %d tasks, got %d", models.MaxSprintTasks, len(taskIDs))
	}
	seen := make(map[string]struct{}, len(taskIDs))
	for _, id := range taskIDs {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("task %s listed twice", id)
		}
		seen[id] = struct{}{}
		i := e.taskIndexLocked(id)
		if i < 0 {
			return &TaskNotFoundError{TaskID: id}
		}
		if !e.tasks[i].Status.IsPending() {
			return fmt.Errorf("task %s is already completed", id)
		}
	}
	if rewardID != "" && e.rewardIndexLocked(rewardID) < 0 {
		return &RewardNotFoundError{RewardID: rewardID}
	}
	return nil
}

// CompleteSprint closes the current sprint. Completing an already completed
// sprint is a no-op.
func (e *Engine) CompleteSprint(ctx context.Context) error {
	e.mu.Lock()
	if err := e.requireUserLocked(); err != nil {
		e.mu.Unlock()
		return err
	}
	if e.sprint == nil {
		e.mu.Unlock()
		return ErrNoActiveSprint
	}
	if !e.sprint.IsActive() {
		e.mu.Unlock()
		return nil
	}
	prev := e.sprint.Clone()
	end := e.now().UTC()
	e.sprint.State = models.SprintStateCompleted
	e.sprint.EndTime = &end
	userID, gen, sprintID := e.userID, e.gen, e.sprint.ID
	e.mu.Unlock()

	return e.persist(ctx, gen, "complete_sprint",
		func(ctx context.Context) error { return e.gw.CompleteSprint(ctx, userID, sprintID, end) },
		func() {
			if e.sprint != nil && e.sprint.ID == prev.ID {
				e.sprint = prev
			}
		})
}

// RerollTask swaps a sprint task for the first pending task outside the
// sprint, keeping its position. Returns the replacement.
func (e *Engine) RerollTask(ctx context.Context, oldTaskID string) (models.Task, error) {
	e.mu.Lock()
	if err := e.requireUserLocked(); err != nil {
		e.mu.Unlock()
		return models.Task{}, err
	}
	if e.sprint == nil || !e.sprint.IsActive() {
		e.mu.Unlock()
		return models.Task{}, ErrNoActiveSprint
	}
	slot := e.sprint.IndexOf(oldTaskID)
	if slot < 0 {
		e.mu.Unlock()
		return models.Task{}, fmt.Errorf("%w: %s", ErrNotInSprint, oldTaskID)
	}
	sprintID := e.sprint.ID
	ci := -1
	for i := range e.tasks {
		t := &e.tasks[i]
		if t.Status.IsPending() && t.SprintID != sprintID && t.ID != oldTaskID {
			ci = i
			break
		}
	}
	if ci < 0 {
		e.mu.Unlock()
		return models.Task{}, ErrNoRerollCandidate
	}

	prevSprint := e.sprint.Clone()
	prevNew := e.tasks[ci].Clone()
	var prevOld *models.Task
	if oi := e.taskIndexLocked(oldTaskID); oi >= 0 {
		t := e.tasks[oi].Clone()
		prevOld = &t
		e.tasks[oi].SprintID = ""
	}
	e.sprint.TaskIDs[slot] = prevNew.ID
	e.tasks[ci].SprintID = sprintID
	replacement := e.tasks[ci].Clone()
	taskIDs := append([]string(nil), e.sprint.TaskIDs...)
	userID, gen := e.userID, e.gen
	e.mu.Unlock()

	err := e.persist(ctx, gen, "reroll_task",
		func(ctx context.Context) error {
			return e.gw.SwapSprintTask(ctx, userID, sprintID, taskIDs, oldTaskID, prevNew.ID)
		},
		func() {
			if e.sprint != nil && e.sprint.ID == prevSprint.ID {
				e.sprint = prevSprint
			}
			e.restoreTaskLocked(prevNew)
			if prevOld != nil {
				e.restoreTaskLocked(*prevOld)
			}
		})
	if err != nil {
		return models.Task{}, err
	}
	return replacement, nil
}
