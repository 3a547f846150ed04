package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// TaskUpdate is one permitted edit of a task. The set of implementations is
// closed: RenameTask, SetComplexity, RetagTask and DescribeTask.
type TaskUpdate interface {
	Validate() error
	Apply(t *Task)
	contribute(p *TaskPatch)
}

// RenameTask replaces the task title.
type RenameTask struct{ Title string }

// SetComplexity changes the task complexity.
type SetComplexity struct{ Complexity Complexity }

// RetagTask changes the task context tag.
type RetagTask struct{ Tag ContextTag }

// DescribeTask replaces the task description. Empty clears it.
type DescribeTask struct{ Description string }

func (u RenameTask) Validate() error {
	if strings.TrimSpace(u.Title) == "" {
		return errors.New("task title is required")
	}
	return nil
}

func (u RenameTask) Apply(t *Task)            { t.Title = strings.TrimSpace(u.Title) }
func (u RenameTask) contribute(p *TaskPatch) { title := strings.TrimSpace(u.Title); p.Title = &title }

func (u SetComplexity) Validate() error {
	if !u.Complexity.Valid() {
		return fmt.Errorf("invalid complexity %d (valid: 1, 2, 3)", u.Complexity)
	}
	return nil
}

func (u SetComplexity) Apply(t *Task)            { t.Complexity = u.Complexity }
func (u SetComplexity) contribute(p *TaskPatch) { c := u.Complexity; p.Complexity = &c }

func (u RetagTask) Validate() error {
	if !u.Tag.Valid() {
		return fmt.Errorf("invalid context tag %q", u.Tag)
	}
	return nil
}

func (u RetagTask) Apply(t *Task)            { t.ContextTag = u.Tag }
func (u RetagTask) contribute(p *TaskPatch) { tag := u.Tag; p.ContextTag = &tag }

func (u DescribeTask) Validate() error { return nil }

func (u DescribeTask) Apply(t *Task)            { t.Description = u.Description }
func (u DescribeTask) contribute(p *TaskPatch) { d := u.Description; p.Description = &d }

// TaskPatch is the set of columns a single remote task update touches.
// Nil pointers are left unchanged. The Set* flags distinguish "clear"
// from "leave alone" for nullable columns.
type TaskPatch struct {
	Title       *string
	Description *string
	Complexity  *Complexity
	ContextTag  *ContextTag
	Status      *TaskStatus

	SetCompletedAt bool
	CompletedAt    *time.Time

	SetSprintID bool
	SprintID    string
}

// IsEmpty returns true if the patch touches no column.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Complexity == nil &&
		p.ContextTag == nil && p.Status == nil && !p.SetCompletedAt && !p.SetSprintID
}

// PatchFor folds updates into a single patch carrying only the supplied fields.
func PatchFor(updates ...TaskUpdate) TaskPatch {
	var p TaskPatch
	for _, u := range updates {
		u.contribute(&p)
	}
	return p
}

// StatusPatch returns the patch for a status transition.
func StatusPatch(status TaskStatus, completedAt *time.Time) TaskPatch {
	s := status
	return TaskPatch{Status: &s, SetCompletedAt: true, CompletedAt: completedAt}
}

// SprintLinkPatch returns the patch that links (or, with "", unlinks) a task.
func SprintLinkPatch(sprintID string) TaskPatch {
	return TaskPatch{SetSprintID: true, SprintID: sprintID}
}
