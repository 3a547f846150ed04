package models

// ActionType is the kind of an ActionLog entry.
type ActionType string

// Action types produced by the assistant or the client itself.
const (
	ActionTaskCreated    ActionType = "TASK_CREATED"
	ActionTaskUpdated    ActionType = "TASK_UPDATED"
	ActionTaskCompleted  ActionType = "TASK_COMPLETED"
	ActionTaskDeleted    ActionType = "TASK_DELETED"
	ActionRewardCreated  ActionType = "REWARD_CREATED"
	ActionRewardEarned   ActionType = "REWARD_EARNED"
	ActionSprintDeployed ActionType = "SPRINT_DEPLOYED"
	ActionSystemMessage  ActionType = "SYSTEM_MESSAGE"
	ActionUserNote       ActionType = "USER_NOTE"
)

// Valid reports whether t is a known action type.
func (t ActionType) Valid() bool {
	switch t {
	case ActionTaskCreated, ActionTaskUpdated, ActionTaskCompleted, ActionTaskDeleted,
		ActionRewardCreated, ActionRewardEarned, ActionSprintDeployed,
		ActionSystemMessage, ActionUserNote:
		return true
	}
	return false
}
