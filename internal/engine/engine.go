package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dotcommander/playbook/internal/models"
)

// DefaultRemoteTimeout bounds a single gateway call.
const DefaultRemoteTimeout = 10 * time.Second

// State is a point-in-time copy of everything the engine holds.
type State struct {
	UserID  string          `json:"user_id,omitempty"`
	Tasks   []models.Task   `json:"tasks"`
	Rewards []models.Reward `json:"rewards"`
	Sprint  *models.Sprint  `json:"current_sprint,omitempty"`
	Score   int             `json:"score"`
	Loading bool            `json:"loading"`
	Err     error           `json:"-"`
}

// Engine is the single source of truth for one signed-in user's tasks,
// rewards and sprint. Mutations apply to memory first, then persist through
// the Gateway; a failed remote call restores the touched entities.
type Engine struct {
	gw            Gateway
	logger        *slog.Logger
	now           func() time.Time
	remoteTimeout time.Duration

	mu      sync.Mutex
	userID  string
	tasks   []models.Task
	rewards []models.Reward
	sprint  *models.Sprint
	score   int
	loading bool
	err     error

	// gen changes whenever the collections are replaced wholesale (load or
	// reset). Rollbacks captured under an older gen are dropped.
	gen uint64
	// loadSeq orders concurrent Load/Reset calls; only the latest applies.
	loadSeq uint64
	// creatingSprint is set while a CreateSprint call is in flight.
	creatingSprint bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for remote failures.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock replaces time.Now for CompletedAt/EndTime stamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithRemoteTimeout bounds each gateway call. Zero disables the bound.
func WithRemoteTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d >= 0 {
			e.remoteTimeout = d
		}
	}
}

// New creates an empty, signed-out engine.
func New(gw Gateway, opts ...Option) *Engine {
	e := &Engine{
		gw:            gw,
		logger:        slog.Default(),
		now:           time.Now,
		remoteTimeout: DefaultRemoteTimeout,
		tasks:         []models.Task{},
		rewards:       []models.Reward{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load fetches the user's tasks, rewards and active sprint and replaces the
// in-memory collections. A failed reload of the same user keeps the previous
// state; a failed load of a different user leaves the engine signed out.
func (e *Engine) Load(ctx context.Context, userID string) error {
	e.mu.Lock()
	if userID == "" {
		e.err = ErrAuthMissing
		e.mu.Unlock()
		return ErrAuthMissing
	}
	e.loadSeq++
	seq := e.loadSeq
	if userID != e.userID {
		// A user switch starts from nothing, so a failed fetch leaves the
		// engine signed out rather than holding the previous user's rows.
		e.clearLocked()
	}
	e.loading = true
	e.mu.Unlock()

	var (
		tasks   []models.Task
		rewards []models.Reward
		sprint  *models.Sprint
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		cctx, cancel := e.remoteContext(gctx)
		defer cancel()
		tasks, err = e.gw.ListTasks(cctx, userID)
		return err
	})
	g.Go(func() (err error) {
		cctx, cancel := e.remoteContext(gctx)
		defer cancel()
		rewards, err = e.gw.ListRewards(cctx, userID)
		return err
	})
	g.Go(func() (err error) {
		cctx, cancel := e.remoteContext(gctx)
		defer cancel()
		sprint, err = e.gw.ActiveSprint(cctx, userID)
		return err
	})
	fetchErr := g.Wait()

	e.mu.Lock()
	defer e.mu.Unlock()
	if seq != e.loadSeq {
		// Superseded by a later Load or Reset.
		return nil
	}
	e.loading = false
	if fetchErr != nil {
		rerr := &RemoteError{Op: "load", Err: fetchErr}
		e.logger.Error("load failed", "user_id", userID, "error", fetchErr)
		e.err = rerr
		return rerr
	}

	if tasks == nil {
		tasks = []models.Task{}
	}
	if rewards == nil {
		rewards = []models.Reward{}
	}
	e.gen++
	e.userID = userID
	e.tasks = tasks
	e.rewards = rewards
	e.sprint = sprint
	e.err = nil
	e.recomputeLocked()
	e.logger.Debug("state loaded", "user_id", userID, "tasks", len(tasks), "rewards", len(rewards), "sprint", sprint != nil)
	return nil
}

// Reset drops all state, as on sign-out.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loadSeq++
	e.clearLocked()
	e.loading = false
}

func (e *Engine) clearLocked() {
	e.gen++
	e.userID = ""
	e.tasks = []models.Task{}
	e.rewards = []models.Reward{}
	e.sprint = nil
	e.score = 0
	e.err = nil
}

// Snapshot returns a deep copy of the current state.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return State{
		UserID:  e.userID,
		Tasks:   cloneTasks(e.tasks),
		Rewards: append([]models.Reward{}, e.rewards...),
		Sprint:  e.sprint.Clone(),
		Score:   e.score,
		Loading: e.loading,
		Err:     e.err,
	}
}

// Tasks returns a copy of the task list, newest first.
func (e *Engine) Tasks() []models.Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneTasks(e.tasks)
}

// Task returns the task with the given id.
func (e *Engine) Task(id string) (models.Task, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i := e.taskIndexLocked(id); i >= 0 {
		return e.tasks[i].Clone(), true
	}
	return models.Task{}, false
}

// Rewards returns a copy of the reward list.
func (e *Engine) Rewards() []models.Reward {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]models.Reward{}, e.rewards...)
}

// CurrentSprint returns a copy of the current sprint, or nil.
func (e *Engine) CurrentSprint() *models.Sprint {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sprint.Clone()
}

// Score returns the current energy balance.
func (e *Engine) Score() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.score
}

// Backlog returns pending tasks that are not part of the active sprint.
func (e *Engine) Backlog() []models.Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	active := ""
	if e.sprint != nil && e.sprint.IsActive() {
		active = e.sprint.ID
	}
	out := []models.Task{}
	for i := range e.tasks {
		t := &e.tasks[i]
		if t.Status.IsPending() && !t.InSprint(active) {
			out = append(out, t.Clone())
		}
	}
	return out
}

// Err returns the most recent recorded failure.
func (e *Engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// Loading reports whether a Load is in flight.
func (e *Engine) Loading() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loading
}

// UserID returns the signed-in user, or "".
func (e *Engine) UserID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.userID
}

// persist runs a remote call outside the lock. On failure the rollback runs
// under the lock, unless the collections were replaced in the meantime.
func (e *Engine) persist(ctx context.Context, gen uint64, op string, call func(context.Context) error, rollback func()) error {
	cctx, cancel := e.remoteContext(ctx)
	defer cancel()
	err := call(cctx)
	if err == nil {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	rerr := &RemoteError{Op: op, Err: err}
	if e.gen != gen {
		e.logger.Warn("remote call failed after state was replaced", "op", op, "error", err)
		return rerr
	}
	e.logger.Error("remote call failed, rolled back", "op", op, "user_id", e.userID, "error", err)
	rollback()
	e.recomputeLocked()
	e.err = rerr
	return rerr
}

// remoteFailed records a failure for a non-optimistic call.
func (e *Engine) remoteFailed(op string, err error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	rerr := &RemoteError{Op: op, Err: err}
	e.logger.Error("remote call failed", "op", op, "user_id", e.userID, "error", err)
	e.err = rerr
	return rerr
}

func (e *Engine) remoteContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.remoteTimeout > 0 {
		return context.WithTimeout(ctx, e.remoteTimeout)
	}
	return context.WithCancel(ctx)
}

// requireUserLocked returns ErrAuthMissing, recording it, when signed out.
func (e *Engine) requireUserLocked() error {
	if e.userID == "" {
		e.err = ErrAuthMissing
		return ErrAuthMissing
	}
	return nil
}

func (e *Engine) recomputeLocked() {
	e.score = ComputeScore(e.tasks, e.rewards)
}

func (e *Engine) taskIndexLocked(id string) int {
	for i := range e.tasks {
		if e.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) rewardIndexLocked(id string) int {
	for i := range e.rewards {
		if e.rewards[i].ID == id {
			return i
		}
	}
	return -1
}

// restoreTaskLocked puts prev back in place if the task is still present.
func (e *Engine) restoreTaskLocked(prev models.Task) {
	if i := e.taskIndexLocked(prev.ID); i >= 0 {
		e.tasks[i] = prev
	}
}

func cloneTasks(in []models.Task) []models.Task {
	out := make([]models.Task, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}
