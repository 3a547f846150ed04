package engine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/playbook/internal/models"
	"github.com/dotcommander/playbook/internal/store"
)

func TestEngineAgainstSQLiteStore(t *testing.T) {
	db, err := store.InitDBWithPath(filepath.Join(t.TempDir(), "playbook.db"))
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	remote := store.NewRemote(db)
	e := New(remote, WithLogger(quietLogger()))
	require.NoError(t, e.Load(ctx, "alice"))

	var ids []string
	for _, c := range []models.Complexity{1, 2, 1, 3} {
		task, err := e.AddTask(ctx, "job", c, models.ContextDay)
		require.NoError(t, err)
		ids = append(ids, task.ID)
	}
	reward, err := e.AddReward(ctx, models.NewReward{Title: "cake", Cost: 3, Tier: models.TierSilver})
	require.NoError(t, err)

	sprint, err := e.CreateSprint(ctx, ids[:3], reward.ID)
	require.NoError(t, err)
	replacement, err := e.RerollTask(ctx, ids[1])
	require.NoError(t, err)
	assert.Equal(t, ids[3], replacement.ID)

	for _, id := range e.CurrentSprint().TaskIDs {
		require.NoError(t, e.ToggleTaskStatus(ctx, id))
	}
	require.NoError(t, e.RedeemReward(ctx, reward.ID))
	require.NoError(t, e.UpdateTask(ctx, ids[1], models.RenameTask{Title: "later"}))
	require.NoError(t, e.CompleteSprint(ctx))
	want := e.Snapshot()
	assert.Equal(t, 1+1+3-3, want.Score)

	// A fresh engine over the same store sees the same collections; the
	// completed sprint is no longer current.
	fresh := New(remote, WithLogger(quietLogger()))
	require.NoError(t, fresh.Load(ctx, "alice"))
	got := fresh.Snapshot()
	assert.Equal(t, want.Score, got.Score)
	assert.Nil(t, got.Sprint)
	require.Len(t, got.Tasks, len(want.Tasks))
	for i := range want.Tasks {
		assert.Equal(t, want.Tasks[i].ID, got.Tasks[i].ID)
		assert.Equal(t, want.Tasks[i].Title, got.Tasks[i].Title)
		assert.Equal(t, want.Tasks[i].Status, got.Tasks[i].Status)
		assert.Equal(t, want.Tasks[i].SprintID, got.Tasks[i].SprintID)
		assert.Equal(t, want.Tasks[i].CompletedAt != nil, got.Tasks[i].CompletedAt != nil)
	}
	require.Len(t, got.Rewards, 1)
	assert.True(t, got.Rewards[0].IsRedeemed)
	assert.NotEqual(t, "", sprint.ID)

	// Other users see nothing.
	other := New(remote, WithLogger(quietLogger()))
	require.NoError(t, other.Load(ctx, "bob"))
	assert.Empty(t, other.Tasks())
	assert.Empty(t, other.Rewards())
}
