package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ID Strategy:
// - Tasks, Rewards and Sprints use opaque string ids assigned by the store
//   (e.g. "task_6f1c..."); rewards may carry a client-generated id.
// - ActionLog ids are generated locally and never persisted.

// TaskStatus represents the current state of a task.
type TaskStatus string

// Task status constants.
const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
)

// IsTerminal returns true if the task is in a completed state.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted
}

// IsPending returns true if the task is still open.
func (s TaskStatus) IsPending() bool {
	return s == TaskStatusPending
}

// Toggled returns the opposite status.
func (s TaskStatus) Toggled() TaskStatus {
	if s == TaskStatusCompleted {
		return TaskStatusPending
	}
	return TaskStatusCompleted
}

// Complexity is the ordinal difficulty of a task and the energy it awards.
type Complexity int

// Complexity levels.
const (
	ComplexityLow    Complexity = 1
	ComplexityMedium Complexity = 2
	ComplexityHigh   Complexity = 3
)

// Valid reports whether c is one of 1, 2 or 3.
func (c Complexity) Valid() bool {
	return c >= ComplexityLow && c <= ComplexityHigh
}

// ContextTag is a coarse time-of-day affinity label.
type ContextTag string

// Context tags.
const (
	ContextMorning ContextTag = "Morning"
	ContextDay     ContextTag = "Day"
	ContextEvening ContextTag = "Evening"
	ContextAny     ContextTag = "Any"
)

// Valid reports whether t is a known context tag.
func (t ContextTag) Valid() bool {
	switch t {
	case ContextMorning, ContextDay, ContextEvening, ContextAny:
		return true
	}
	return false
}

// ParseContextTag maps a free-form tag to a ContextTag. Empty input yields Any.
func ParseContextTag(s string) (ContextTag, error) {
	if s == "" {
		return ContextAny, nil
	}
	t := ContextTag(s)
	if !t.Valid() {
		return "", fmt.Errorf("invalid context tag %q (valid: Morning, Day, Evening, Any)", s)
	}
	return t, nil
}

// RewardTier is presentation/priority only.
type RewardTier string

// Reward tiers.
const (
	TierBronze RewardTier = "bronze"
	TierSilver RewardTier = "silver"
	TierGold   RewardTier = "gold"
)

// Valid reports whether t is a known tier.
func (t RewardTier) Valid() bool {
	switch t {
	case TierBronze, TierSilver, TierGold:
		return true
	}
	return false
}

// SprintState represents the lifecycle state of a sprint.
type SprintState string

// Sprint states. active -> completed is one-way.
const (
	SprintStateActive    SprintState = "active"
	SprintStateCompleted SprintState = "completed"
)

// MaxSprintTasks caps the number of tasks a sprint may hold.
const MaxSprintTasks = 3

// Task represents a unit of work the user commits to.
// CompletedAt is set if and only if Status is completed.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Complexity  Complexity `json:"complexity"`
	Status      TaskStatus `json:"status"`
	ContextTag  ContextTag `json:"context_tag"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	SprintID    string     `json:"sprint_id,omitempty"`
}

// IsCompleted returns true if the task status is completed.
func (t *Task) IsCompleted() bool {
	return t.Status == TaskStatusCompleted
}

// InSprint returns true if the task is linked to the given sprint.
func (t *Task) InSprint(sprintID string) bool {
	return sprintID != "" && t.SprintID == sprintID
}

// Clone returns a copy that shares no pointers with t.
func (t Task) Clone() Task {
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		t.CompletedAt = &at
	}
	return t
}

// NewTask is the input for creating a task.
type NewTask struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Complexity  Complexity `json:"complexity"`
	ContextTag  ContextTag `json:"context_tag"`
}

// Reward is something the user can redeem with energy.
// IsRedeemed only ever moves from false to true.
type Reward struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Cost       int        `json:"cost"`
	Tier       RewardTier `json:"tier"`
	IsRedeemed bool       `json:"is_redeemed"`
	IsLocked   bool       `json:"is_locked"`
	CreatedAt  time.Time  `json:"created_at"`
}

// NewReward is the input for creating a reward. ID is optional; when set
// the store keeps it instead of generating one.
type NewReward struct {
	ID    string     `json:"id,omitempty"`
	Title string     `json:"title"`
	Cost  int        `json:"cost"`
	Tier  RewardTier `json:"tier"`
}

// Sprint is a small ordered set of tasks, optionally tied to a reward goal.
type Sprint struct {
	ID        string      `json:"id"`
	State     SprintState `json:"state"`
	TaskIDs   []string    `json:"task_ids"`
	RewardID  string      `json:"reward_id,omitempty"`
	StartTime time.Time   `json:"start_time"`
	EndTime   *time.Time  `json:"end_time,omitempty"`
}

// IsActive returns true if the sprint has not been completed.
func (s *Sprint) IsActive() bool {
	return s.State == SprintStateActive
}

// IndexOf returns the position of taskID within the sprint or -1.
func (s *Sprint) IndexOf(taskID string) int {
	for i, id := range s.TaskIDs {
		if id == taskID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the sprint.
func (s *Sprint) Clone() *Sprint {
	if s == nil {
		return nil
	}
	c := *s
	c.TaskIDs = append([]string(nil), s.TaskIDs...)
	if s.EndTime != nil {
		at := *s.EndTime
		c.EndTime = &at
	}
	return &c
}

// NewSprint is the input for creating a sprint.
type NewSprint struct {
	TaskIDs  []string `json:"task_ids"`
	RewardID string   `json:"reward_id,omitempty"`
}

// ActionLog is one structured event of the assistant conversation.
// Entries are transcript only; their side effects live on tasks and rewards.
type ActionLog struct {
	ID        string          `json:"id"`
	Type      ActionType      `json:"type"`
	Content   string          `json:"content"`
	Metadata  *ActionMetadata `json:"metadata,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// ActionMetadata carries optional references and an untyped widget payload.
type ActionMetadata struct {
	TaskID     string          `json:"taskId,omitempty"`
	RewardID   string          `json:"rewardId,omitempty"`
	WidgetData json.RawMessage `json:"widgetData,omitempty"`
}
