package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dotcommander/playbook/internal/models"
)

var errInjected = errors.New("injected failure")

// fakeGateway is an in-memory Gateway with per-method failure injection.
type fakeGateway struct {
	mu      sync.Mutex
	seq     int
	tasks   []models.Task
	rewards []models.Reward
	sprint  *models.Sprint

	fail  map[string]error
	calls map[string]int
	// hold, when set for a method, blocks that call until the channel closes.
	hold map[string]chan struct{}
	// entered receives the method name once a held call has started.
	entered chan string

	lastPatch models.TaskPatch
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		fail:    map[string]error{},
		calls:   map[string]int{},
		hold:    map[string]chan struct{}{},
		entered: make(chan string, 8),
	}
}

func (f *fakeGateway) failOn(method string) { f.fail[method] = errInjected }

func (f *fakeGateway) enter(method string) error {
	f.mu.Lock()
	f.calls[method]++
	h := f.hold[method]
	err := f.fail[method]
	f.mu.Unlock()
	if h != nil {
		f.entered <- method
		<-h
	}
	return err
}

func (f *fakeGateway) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s_%d", prefix, f.seq)
}

func (f *fakeGateway) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeGateway) ListTasks(ctx context.Context, userID string) ([]models.Task, error) {
	if err := f.enter("ListTasks"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneTasks(f.tasks), nil
}

func (f *fakeGateway) ListRewards(ctx context.Context, userID string) ([]models.Reward, error) {
	if err := f.enter("ListRewards"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Reward(nil), f.rewards...), nil
}

func (f *fakeGateway) ActiveSprint(ctx context.Context, userID string) (*models.Sprint, error) {
	if err := f.enter("ActiveSprint"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sprint != nil && f.sprint.IsActive() {
		return f.sprint.Clone(), nil
	}
	return nil, nil
}

func (f *fakeGateway) CreateTask(ctx context.Context, userID string, in models.NewTask) (*models.Task, error) {
	if err := f.enter("CreateTask"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t := models.Task{
		ID:          f.nextID("task"),
		Title:       in.Title,
		Description: in.Description,
		Complexity:  in.Complexity,
		Status:      models.TaskStatusPending,
		ContextTag:  in.ContextTag,
		CreatedAt:   time.Now().UTC(),
	}
	f.tasks = append([]models.Task{t}, f.tasks...)
	return &t, nil
}

func (f *fakeGateway) UpdateTask(ctx context.Context, userID, taskID string, patch models.TaskPatch) error {
	if err := f.enter("UpdateTask"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastPatch = patch
	return nil
}

func (f *fakeGateway) DeleteTask(ctx context.Context, userID, taskID string) error {
	return f.enter("DeleteTask")
}

func (f *fakeGateway) CreateReward(ctx context.Context, userID string, in models.NewReward) (*models.Reward, error) {
	if err := f.enter("CreateReward"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id := in.ID
	if id == "" {
		id = f.nextID("reward")
	}
	r := models.Reward{ID: id, Title: in.Title, Cost: in.Cost, Tier: in.Tier, IsLocked: true, CreatedAt: time.Now().UTC()}
	f.rewards = append(f.rewards, r)
	return &r, nil
}

func (f *fakeGateway) RedeemReward(ctx context.Context, userID, rewardID string) error {
	return f.enter("RedeemReward")
}

func (f *fakeGateway) CreateSprint(ctx context.Context, userID string, in models.NewSprint) (*models.Sprint, error) {
	if err := f.enter("CreateSprint"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s := &models.Sprint{
		ID:        f.nextID("sprint"),
		State:     models.SprintStateActive,
		TaskIDs:   append([]string(nil), in.TaskIDs...),
		RewardID:  in.RewardID,
		StartTime: time.Now().UTC(),
	}
	f.sprint = s.Clone()
	return s, nil
}

func (f *fakeGateway) CompleteSprint(ctx context.Context, userID, sprintID string, endTime time.Time) error {
	return f.enter("CompleteSprint")
}

func (f *fakeGateway) SwapSprintTask(ctx context.Context, userID, sprintID string, taskIDs []string, oldTaskID, newTaskID string) error {
	return f.enter("SwapSprintTask")
}
