package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/dotcommander/playbook/internal/models"
)

const (
	taskColumns   = `id, title, description, complexity, tags, status, created_at, completed_at, sprint_id`
	rewardColumns = `id, title, cost, tier, is_redeemed, is_locked, created_at`
	sprintColumns = `id, state, task_ids, reward_id, start_time, end_time`
)

type rowScanner interface {
	Scan(dest ...any) error
}

// scanNullString converts sql.NullString to string (empty if NULL)
func scanNullString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// scanNullTime converts sql.NullTime to *time.Time (nil if NULL)
func scanNullTime(nt sql.NullTime) *time.Time {
	if nt.Valid {
		t := nt.Time
		return &t
	}
	return nil
}

// nullableString maps "" to NULL.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// nullableTime maps nil to NULL.
func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

// encodeStrings stores a string list as a JSON array column.
func encodeStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeStrings(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

// taskRowScanner encapsulates the common task row scanning logic.
type taskRowScanner struct {
	task        models.Task
	tags        string
	completedAt sql.NullTime
	sprintID    sql.NullString
}

func (s *taskRowScanner) scan(row rowScanner) error {
	return row.Scan(
		&s.task.ID,
		&s.task.Title,
		&s.task.Description,
		&s.task.Complexity,
		&s.tags,
		&s.task.Status,
		&s.task.CreatedAt,
		&s.completedAt,
		&s.sprintID,
	)
}

// hydrate maps columns onto the domain type. The first tag is the context tag.
func (s *taskRowScanner) hydrate() error {
	tags, err := decodeStrings(s.tags)
	if err != nil {
		return err
	}
	s.task.ContextTag = models.ContextAny
	if len(tags) > 0 {
		if tag := models.ContextTag(tags[0]); tag.Valid() {
			s.task.ContextTag = tag
		}
	}
	s.task.CompletedAt = scanNullTime(s.completedAt)
	s.task.SprintID = scanNullString(s.sprintID)
	return nil
}

func scanTaskRow(row rowScanner) (*models.Task, error) {
	scanner := &taskRowScanner{}
	if err := scanner.scan(row); err != nil {
		return nil, err
	}
	if err := scanner.hydrate(); err != nil {
		return nil, err
	}
	return &scanner.task, nil
}

func scanRewardRow(row rowScanner) (*models.Reward, error) {
	var r models.Reward
	if err := row.Scan(&r.ID, &r.Title, &r.Cost, &r.Tier, &r.IsRedeemed, &r.IsLocked, &r.CreatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

func scanSprintRow(row rowScanner) (*models.Sprint, error) {
	var (
		sp       models.Sprint
		taskIDs  string
		rewardID sql.NullString
		endTime  sql.NullTime
	)
	if err := row.Scan(&sp.ID, &sp.State, &taskIDs, &rewardID, &sp.StartTime, &endTime); err != nil {
		return nil, err
	}
	ids, err := decodeStrings(taskIDs)
	if err != nil {
		return nil, err
	}
	sp.TaskIDs = ids
	sp.RewardID = scanNullString(rewardID)
	sp.EndTime = scanNullTime(endTime)
	return &sp, nil
}
