package engine

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/dotcommander/playbook/internal/models"
)

// RecoverableError is an alias for models.RecoverableError.
type RecoverableError = models.RecoverableError

// ErrAuthMissing is returned by every operation when no user is signed in.
var ErrAuthMissing error = authMissingError{}

type authMissingError struct{}

func (authMissingError) Error() string              { return "not signed in" }
func (authMissingError) ErrorCode() string          { return "AUTH_MISSING" }
func (authMissingError) Context() map[string]string { return nil }
func (authMissingError) SuggestedAction() string {
	return "playbook auth signin --token <access-token>"
}

var (
	ErrRemote             = errors.New("remote store call failed")
	ErrTaskNotFound       = errors.New("task not found")
	ErrRewardNotFound     = errors.New("reward not found")
	ErrSprintActive       = errors.New("a sprint is already active")
	ErrNoActiveSprint     = errors.New("no active sprint")
	ErrNotInSprint        = errors.New("task is not part of the active sprint")
	ErrNoRerollCandidate  = errors.New("no replacement task available")
	ErrAlreadyRedeemed    = errors.New("reward already redeemed")
	ErrInsufficientEnergy = errors.New("not enough energy")
)

// RemoteError wraps a failed gateway call. The optimistic change that
// preceded the call has already been rolled back when this is returned.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string     { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *RemoteError) Unwrap() error     { return e.Err }
func (e *RemoteError) ErrorCode() string { return "REMOTE_FAILURE" }
func (e *RemoteError) Context() map[string]string {
	return map[string]string{"op": e.Op}
}
func (e *RemoteError) SuggestedAction() string {
	return "local state was restored; retry the operation"
}
func (e *RemoteError) Is(target error) bool { return target == ErrRemote }

// TaskNotFoundError reports a task id missing from the in-memory collection.
type TaskNotFoundError struct {
	TaskID string
}

func (e *TaskNotFoundError) Error() string     { return "task not found: " + e.TaskID }
func (e *TaskNotFoundError) ErrorCode() string { return "TASK_NOT_FOUND" }
func (e *TaskNotFoundError) Context() map[string]string {
	return map[string]string{"task_id": e.TaskID}
}
func (e *TaskNotFoundError) SuggestedAction() string { return "playbook task list" }
func (e *TaskNotFoundError) Is(target error) bool    { return target == ErrTaskNotFound }

// RewardNotFoundError reports a reward id missing from the in-memory collection.
type RewardNotFoundError struct {
	RewardID string
}

func (e *RewardNotFoundError) Error() string     { return "reward not found: " + e.RewardID }
func (e *RewardNotFoundError) ErrorCode() string { return "REWARD_NOT_FOUND" }
func (e *RewardNotFoundError) Context() map[string]string {
	return map[string]string{"reward_id": e.RewardID}
}
func (e *RewardNotFoundError) SuggestedAction() string { return "playbook reward list" }
func (e *RewardNotFoundError) Is(target error) bool    { return target == ErrRewardNotFound }

// ActiveSprintError is returned when a sprint is created while another is
// active. SprintID is empty when the other sprint is still being created.
type ActiveSprintError struct {
	SprintID string
}

func (e *ActiveSprintError) Error() string {
	if e.SprintID == "" {
		return "a sprint is already being created"
	}
	return "a sprint is already active: " + e.SprintID
}
func (e *ActiveSprintError) ErrorCode() string { return "ACTIVE_SPRINT_EXISTS" }
func (e *ActiveSprintError) Context() map[string]string {
	return map[string]string{"sprint_id": e.SprintID}
}
func (e *ActiveSprintError) SuggestedAction() string { return "playbook sprint complete" }
func (e *ActiveSprintError) Is(target error) bool    { return target == ErrSprintActive }

// InsufficientEnergyError is returned when a reward costs more than the score.
type InsufficientEnergyError struct {
	RewardID string
	Cost     int
	Score    int
}

func (e *InsufficientEnergyError) Error() string {
	return fmt.Sprintf("not enough energy: reward costs %d, balance is %d", e.Cost, e.Score)
}
func (e *InsufficientEnergyError) ErrorCode() string { return "INSUFFICIENT_ENERGY" }
func (e *InsufficientEnergyError) Context() map[string]string {
	return map[string]string{
		"reward_id": e.RewardID,
		"cost":      strconv.Itoa(e.Cost),
		"score":     strconv.Itoa(e.Score),
	}
}
func (e *InsufficientEnergyError) SuggestedAction() string {
	return "complete more tasks, then redeem again"
}
func (e *InsufficientEnergyError) Is(target error) bool { return target == ErrInsufficientEnergy }
