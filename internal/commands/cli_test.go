package commands

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Error     string          `json:"error"`
	ErrorCode string          `json:"error_code"`
}

// setupCLI points the database and session at a temp dir.
func setupCLI(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("PLAYBOOK_DB_PATH", filepath.Join(dir, "playbook.db"))
	t.Setenv("PLAYBOOK_SESSION_PATH", filepath.Join(dir, "session.json"))
	t.Setenv("PLAYBOOK_JWT_SECRET", "")
	t.Setenv("PLAYBOOK_PRETTY_JSON", "")
}

func runCLI(t *testing.T, args ...string) envelope {
	t.Helper()
	out := captureStdout(t, func() {
		root := NewRootCmd("test")
		root.SetArgs(args)
		_ = root.Execute()
	})
	lines := strings.Split(strings.TrimSpace(out), "\n")
	var env envelope
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &env), out)
	return env
}

func userToken(t *testing.T, sub string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   sub,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("provider-key"))
	require.NoError(t, err)
	return tok
}

func TestCLI_RequiresSignIn(t *testing.T) {
	setupCLI(t)

	env := runCLI(t, "task", "list")
	assert.False(t, env.Success)
	assert.Equal(t, "AUTH_MISSING", env.ErrorCode)
}

func TestCLI_SprintFlow(t *testing.T) {
	setupCLI(t)

	env := runCLI(t, "auth", "signin", "--token", userToken(t, "alice"))
	require.True(t, env.Success, env.Error)

	var ids []string
	for _, c := range []string{"1", "2", "1", "3"} {
		env = runCLI(t, "task", "add", "--title", "job "+c, "--complexity", c, "--tag", "Morning")
		require.True(t, env.Success, env.Error)
		var added struct {
			Task struct {
				ID string `json:"id"`
			} `json:"task"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &added))
		ids = append(ids, added.Task.ID)
	}

	env = runCLI(t, "reward", "add", "--title", "cake", "--cost", "3")
	require.True(t, env.Success, env.Error)
	var reward struct {
		Reward struct {
			ID string `json:"id"`
		} `json:"reward"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &reward))

	env = runCLI(t, "sprint", "create", "--task", strings.Join(ids[:3], ","), "--reward", reward.Reward.ID)
	require.True(t, env.Success, env.Error)

	env = runCLI(t, "sprint", "create", "--task", ids[3])
	assert.False(t, env.Success)
	assert.Equal(t, "ACTIVE_SPRINT_EXISTS", env.ErrorCode)

	env = runCLI(t, "reward", "redeem", "--id", reward.Reward.ID)
	assert.False(t, env.Success)
	assert.Equal(t, "INSUFFICIENT_ENERGY", env.ErrorCode)

	for _, id := range ids[:3] {
		env = runCLI(t, "task", "toggle", "--id", id)
		require.True(t, env.Success, env.Error)
	}

	env = runCLI(t, "reward", "redeem", "--id", reward.Reward.ID)
	require.True(t, env.Success, env.Error)
	var redeemed struct {
		Score int `json:"score"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &redeemed))
	assert.Equal(t, 1, redeemed.Score)

	env = runCLI(t, "sprint", "complete")
	require.True(t, env.Success, env.Error)

	env = runCLI(t, "status")
	require.True(t, env.Success, env.Error)
	var status struct {
		SignedIn bool   `json:"signed_in"`
		UserID   string `json:"user_id"`
		Score    int    `json:"score"`
		Counts   struct {
			Tasks     int `json:"tasks"`
			Completed int `json:"completed"`
			Backlog   int `json:"backlog"`
		} `json:"counts"`
		Sprint json.RawMessage `json:"sprint"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.True(t, status.SignedIn)
	assert.Equal(t, "alice", status.UserID)
	assert.Equal(t, 1, status.Score)
	assert.Equal(t, 4, status.Counts.Tasks)
	assert.Equal(t, 3, status.Counts.Completed)
	assert.Equal(t, 1, status.Counts.Backlog)
	assert.Empty(t, status.Sprint)

	env = runCLI(t, "auth", "signout")
	require.True(t, env.Success)
	env = runCLI(t, "reward", "list")
	assert.Equal(t, "AUTH_MISSING", env.ErrorCode)
}

func TestCLI_TaskNotFound(t *testing.T) {
	setupCLI(t)
	require.True(t, runCLI(t, "auth", "signin", "--token", userToken(t, "bob")).Success)

	env := runCLI(t, "task", "toggle", "--id", "task_missing")
	assert.False(t, env.Success)
	assert.Equal(t, "TASK_NOT_FOUND", env.ErrorCode)
}

func TestCLI_SchemaListsCommands(t *testing.T) {
	setupCLI(t)
	env := runCLI(t, "schema")
	require.True(t, env.Success)

	var resp struct {
		Commands []commandArgSchema `json:"commands"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	names := map[string]bool{}
	for _, c := range resp.Commands {
		names[c.Command] = c.Mutates
	}
	assert.Contains(t, names, "playbook task add")
	assert.True(t, names["playbook task add"])
	assert.False(t, names["playbook task list"])
	assert.Contains(t, names, "playbook chat")
}

func TestCLI_ChatAppliesAssistantActions(t *testing.T) {
	setupCLI(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"actions":[
			{"type":"SYSTEM_MESSAGE","content":"Planning..."},
			{"type":"TASK_CREATED","content":"Added","metadata":{"widgetData":{"title":"X","complexity":3,"tags":["Evening"]}}},
			{"type":"REWARD_EARNED","content":"Treat","metadata":{"widgetData":{"title":"Tea","cost":2}}}
		]}`))
	}))
	defer srv.Close()
	t.Setenv("PLAYBOOK_ASSISTANT_URL", srv.URL)
	require.True(t, runCLI(t, "auth", "signin", "--token", userToken(t, "carol")).Success)

	env := runCLI(t, "chat", "plan", "my", "evening")
	require.True(t, env.Success, env.Error)
	var resp struct {
		Transcript []struct {
			Type    string `json:"type"`
			Content string `json:"content"`
		} `json:"transcript"`
		Report struct {
			Applied int `json:"applied"`
			Skipped int `json:"skipped"`
		} `json:"report"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	require.Len(t, resp.Transcript, 4)
	assert.Equal(t, "USER_NOTE", resp.Transcript[0].Type)
	assert.Equal(t, "plan my evening", resp.Transcript[0].Content)
	assert.Equal(t, 2, resp.Report.Applied)
	assert.Equal(t, 1, resp.Report.Skipped)

	env = runCLI(t, "task", "list")
	require.True(t, env.Success)
	var list struct {
		Count int `json:"count"`
		Tasks []struct {
			Title      string `json:"title"`
			Complexity int    `json:"complexity"`
			ContextTag string `json:"context_tag"`
			Status     string `json:"status"`
		} `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "X", list.Tasks[0].Title)
	assert.Equal(t, 3, list.Tasks[0].Complexity)
	assert.Equal(t, "Evening", list.Tasks[0].ContextTag)
	assert.Equal(t, "pending", list.Tasks[0].Status)
}

func TestCLI_DoctorReportsHealthyStore(t *testing.T) {
	setupCLI(t)
	require.True(t, runCLI(t, "auth", "signin", "--token", userToken(t, "dave")).Success)
	require.True(t, runCLI(t, "task", "add", "--title", "walk", "--complexity", "1").Success)

	env := runCLI(t, "doctor")
	require.True(t, env.Success, env.Error)
	var resp struct {
		DBOK        bool              `json:"db_ok"`
		Healthy     bool              `json:"healthy"`
		Diagnostics []json.RawMessage `json:"diagnostics"`
		Counts      struct {
			Users int `json:"users"`
			Tasks struct {
				Pending int `json:"pending"`
			} `json:"tasks"`
		} `json:"counts"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.True(t, resp.DBOK)
	assert.True(t, resp.Healthy)
	assert.Empty(t, resp.Diagnostics)
	assert.Equal(t, 1, resp.Counts.Users)
	assert.Equal(t, 1, resp.Counts.Tasks.Pending)
}
