package actions

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/playbook/internal/engine"
	"github.com/dotcommander/playbook/internal/models"
)

type addTaskCall struct {
	Title      string
	Complexity models.Complexity
	Tag        models.ContextTag
}

type recordingMutator struct {
	tasks     []addTaskCall
	rewards   []models.NewReward
	failTasks bool
}

func (m *recordingMutator) AddTask(_ context.Context, title string, complexity models.Complexity, tag models.ContextTag) (models.Task, error) {
	if m.failTasks {
		return models.Task{}, errors.New("store down")
	}
	m.tasks = append(m.tasks, addTaskCall{title, complexity, tag})
	return models.Task{ID: "task_x", Title: title, Complexity: complexity, ContextTag: tag, Status: models.TaskStatusPending}, nil
}

func (m *recordingMutator) AddReward(_ context.Context, in models.NewReward) (models.Reward, error) {
	m.rewards = append(m.rewards, in)
	return models.Reward{ID: in.ID, Title: in.Title, Cost: in.Cost, Tier: in.Tier, IsLocked: true}, nil
}

func event(typ models.ActionType, widget string) models.ActionLog {
	log := models.ActionLog{ID: "evt", Type: typ, Content: string(typ)}
	if widget != "" {
		log.Metadata = &models.ActionMetadata{WidgetData: json.RawMessage(widget)}
	}
	return log
}

func TestApply_TaskCreated(t *testing.T) {
	m := &recordingMutator{}
	rep := NewInterpreter(m).Apply(context.Background(), []models.ActionLog{
		event(models.ActionTaskCreated, `{"title":"X","complexity":3}`),
	})

	require.NoError(t, rep.Err())
	assert.Equal(t, 1, rep.Applied)
	require.Len(t, m.tasks, 1)
	assert.Equal(t, addTaskCall{"X", 3, models.ContextAny}, m.tasks[0])
	require.Len(t, rep.Tasks, 1)
}

func TestApply_TaskTagsAndNumberShapes(t *testing.T) {
	m := &recordingMutator{}
	rep := NewInterpreter(m).Apply(context.Background(), []models.ActionLog{
		event(models.ActionTaskCreated, `{"title":"a","complexity":2.0,"tags":["Evening","Morning"]}`),
		event(models.ActionTaskCreated, `{"title":"b","complexity":"1","tags":"Morning"}`),
		event(models.ActionTaskCreated, `{"title":"c","complexity":1,"tags":["deep work"]}`),
		event(models.ActionTaskCreated, `{"title":"d","complexity":1,"tags":[]}`),
	})

	require.NoError(t, rep.Err())
	assert.Equal(t, 4, rep.Applied)
	assert.Equal(t, []addTaskCall{
		{"a", 2, models.ContextEvening},
		{"b", 1, models.ContextMorning},
		{"c", 1, models.ContextAny},
		{"d", 1, models.ContextAny},
	}, m.tasks)
}

func TestApply_RewardEarned(t *testing.T) {
	m := &recordingMutator{}
	in := NewInterpreter(m, WithIDGenerator(func() string { return "local-id" }))
	rep := in.Apply(context.Background(), []models.ActionLog{
		event(models.ActionRewardEarned, `{"title":"Coffee","cost":2}`),
		event(models.ActionRewardEarned, `{"title":"Trip","cost":9,"tier":"gold"}`),
	})

	require.NoError(t, rep.Err())
	assert.Equal(t, 2, rep.Applied)
	require.Len(t, m.rewards, 2)
	assert.Equal(t, models.NewReward{ID: "local-id", Title: "Coffee", Cost: 2, Tier: models.TierBronze}, m.rewards[0])
	assert.Equal(t, models.TierGold, m.rewards[1].Tier)
}

func TestApply_DefaultRewardIDIsUUID(t *testing.T) {
	m := &recordingMutator{}
	NewInterpreter(m).Apply(context.Background(), []models.ActionLog{
		event(models.ActionRewardEarned, `{"title":"Coffee","cost":2}`),
	})
	require.Len(t, m.rewards, 1)
	assert.Len(t, m.rewards[0].ID, 36)
}

func TestApply_SkipsTranscriptAndIncompleteEvents(t *testing.T) {
	m := &recordingMutator{}
	rep := NewInterpreter(m).Apply(context.Background(), []models.ActionLog{
		event(models.ActionSystemMessage, ""),
		event(models.ActionUserNote, ""),
		event(models.ActionTaskCreated, ""),
		event(models.ActionTaskCreated, `{"title":"no complexity"}`),
		event(models.ActionRewardEarned, `{"cost":3}`),
		event(models.ActionTaskCompleted, `{"title":"done","complexity":1}`),
	})

	require.NoError(t, rep.Err())
	assert.Zero(t, rep.Applied)
	assert.Equal(t, 6, rep.Skipped)
	assert.Empty(t, m.tasks)
	assert.Empty(t, m.rewards)
}

func TestApply_EventsAreIndependent(t *testing.T) {
	m := &recordingMutator{failTasks: true}
	rep := NewInterpreter(m).Apply(context.Background(), []models.ActionLog{
		event(models.ActionTaskCreated, `{"title":"a","complexity":1}`),
		event(models.ActionTaskCreated, `{"title":"b","complexity":1.5}`),
		event(models.ActionRewardEarned, `{"title":"r","cost":1}`),
	})

	assert.Equal(t, 1, rep.Applied)
	require.Len(t, rep.Errors, 2)
	assert.Equal(t, 0, rep.Errors[0].Index)
	assert.Equal(t, 1, rep.Errors[1].Index)
	assert.Error(t, rep.Err())
	assert.Len(t, m.rewards, 1)

	b, err := json.Marshal(rep.Errors[0])
	require.NoError(t, err)
	assert.Contains(t, string(b), "store down")
}

func TestApply_AgainstSignedOutEngine(t *testing.T) {
	e := engine.New(nil)
	rep := NewInterpreter(e).Apply(context.Background(), []models.ActionLog{
		event(models.ActionTaskCreated, `{"title":"X","complexity":3}`),
	})
	require.Len(t, rep.Errors, 1)
	assert.ErrorIs(t, rep.Errors[0], engine.ErrAuthMissing)
}
