package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dotcommander/playbook/internal/models"
)

// AddTask inserts a pending task remotely and prepends the stored row.
// An empty tag means Any.
func (e *Engine) AddTask(ctx context.Context, title string, complexity models.Complexity, tag models.ContextTag) (models.Task, error) {
	in := models.NewTask{Title: strings.TrimSpace(title), Complexity: complexity, ContextTag: tag}
	if in.ContextTag == "" {
		in.ContextTag = models.ContextAny
	}
	if err := validateNewTask(in); err != nil {
		return models.Task{}, err
	}

	e.mu.Lock()
	if err := e.requireUserLocked(); err != nil {
		e.mu.Unlock()
		return models.Task{}, err
	}
	userID, gen := e.userID, e.gen
	e.mu.Unlock()

	cctx, cancel := e.remoteContext(ctx)
	created, err := e.gw.CreateTask(cctx, userID, in)
	cancel()
	if err != nil {
		return models.Task{}, e.remoteFailed("add_task", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen == gen {
		e.tasks = slices.Insert(e.tasks, 0, created.Clone())
		e.recomputeLocked()
	}
	return created.Clone(), nil
}

// UpdateTask applies edits to a task. Only the supplied fields reach the
// remote patch.
func (e *Engine) UpdateTask(ctx context.Context, taskID string, updates ...models.TaskUpdate) error {
	if len(updates) == 0 {
		return errors.New("no task updates supplied")
	}
	for _, u := range updates {
		if err := u.Validate(); err != nil {
			return err
		}
	}

	e.mu.Lock()
	if err := e.requireUserLocked(); err != nil {
		e.mu.Unlock()
		return err
	}
	i := e.taskIndexLocked(taskID)
	if i < 0 {
		e.mu.Unlock()
		return &TaskNotFoundError{TaskID: taskID}
	}
	prev := e.tasks[i].Clone()
	for _, u := range updates {
		u.Apply(&e.tasks[i])
	}
	e.recomputeLocked()
	userID, gen := e.userID, e.gen
	e.mu.Unlock()

	patch := models.PatchFor(updates...)
	return e.persist(ctx, gen, "update_task",
		func(ctx context.Context) error { return e.gw.UpdateTask(ctx, userID, taskID, patch) },
		func() { e.restoreTaskLocked(prev) })
}

// ToggleTaskStatus flips a task between pending and completed.
func (e *Engine) ToggleTaskStatus(ctx context.Context, taskID string) error {
	e.mu.Lock()
	if err := e.requireUserLocked(); err != nil {
		e.mu.Unlock()
		return err
	}
	i := e.taskIndexLocked(taskID)
	if i < 0 {
		e.mu.Unlock()
		return &TaskNotFoundError{TaskID: taskID}
	}
	prev := e.tasks[i].Clone()
	t := &e.tasks[i]
	t.Status = t.Status.Toggled()
	if t.Status.IsTerminal() {
		at := e.now().UTC()
		t.CompletedAt = &at
	} else {
		t.CompletedAt = nil
	}
	patch := models.StatusPatch(t.Status, t.Clone().CompletedAt)
	e.recomputeLocked()
	userID, gen := e.userID, e.gen
	e.mu.Unlock()

	return e.persist(ctx, gen, "toggle_task",
		func(ctx context.Context) error { return e.gw.UpdateTask(ctx, userID, taskID, patch) },
		func() { e.restoreTaskLocked(prev) })
}

// DeleteTask removes a task. The current sprint keeps referencing the id.
func (e *Engine) DeleteTask(ctx context.Context, taskID string) error {
	e.mu.Lock()
	if err := e.requireUserLocked(); err != nil {
		e.mu.Unlock()
		return err
	}
	i := e.taskIndexLocked(taskID)
	if i < 0 {
		e.mu.Unlock()
		return &TaskNotFoundError{TaskID: taskID}
	}
	removed := e.tasks[i].Clone()
	e.tasks = slices.Delete(e.tasks, i, i+1)
	e.recomputeLocked()
	userID, gen := e.userID, e.gen
	e.mu.Unlock()

	return e.persist(ctx, gen, "delete_task",
		func(ctx context.Context) error { return e.gw.DeleteTask(ctx, userID, taskID) },
		func() {
			if e.taskIndexLocked(removed.ID) >= 0 {
				return
			}
			at := min(i, len(e.tasks))
			e.tasks = slices.Insert(e.tasks, at, removed)
		})
}

func validateNewTask(in models.NewTask) error {
	if in.Title == "" {
		return errors.New("task title is required")
	}
	if !in.Complexity.Valid() {
		return fmt.Errorf("invalid complexity %d (valid: 1, 2, 3)", in.Complexity)
	}
	if !in.ContextTag.Valid() {
		return fmt.Errorf("invalid context tag %q (valid: Morning, Day, Evening, Any)", in.ContextTag)
	}
	return nil
}
