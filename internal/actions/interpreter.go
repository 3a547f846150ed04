package actions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dotcommander/playbook/internal/models"
)

// Mutator is the subset of the engine the interpreter drives.
type Mutator interface {
	AddTask(ctx context.Context, title string, complexity models.Complexity, tag models.ContextTag) (models.Task, error)
	AddReward(ctx context.Context, in models.NewReward) (models.Reward, error)
}

// EventError ties a failure to the position of the event that caused it.
type EventError struct {
	Index int               `json:"index"`
	ID    string            `json:"id,omitempty"`
	Type  models.ActionType `json:"type"`
	Err   error             `json:"-"`
}

func (e *EventError) Error() string {
	return fmt.Sprintf("event %d (%s): %v", e.Index, e.Type, e.Err)
}

func (e *EventError) Unwrap() error { return e.Err }

// MarshalJSON includes the error message.
func (e *EventError) MarshalJSON() ([]byte, error) {
	type alias EventError
	return json.Marshal(struct {
		*alias
		Message string `json:"message"`
	}{alias: (*alias)(e), Message: e.Err.Error()})
}

// Report summarises one Apply call.
type Report struct {
	Tasks   []models.Task   `json:"tasks_created"`
	Rewards []models.Reward `json:"rewards_created"`
	Applied int             `json:"applied"`
	Skipped int             `json:"skipped"`
	Errors  []*EventError   `json:"errors,omitempty"`
}

// Err joins all per-event failures, or returns nil.
func (r Report) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// Interpreter turns assistant events into engine mutations.
type Interpreter struct {
	m      Mutator
	logger *slog.Logger
	newID  func() string
}

// InterpreterOption configures an Interpreter.
type InterpreterOption func(*Interpreter)

// WithLogger sets the logger used for rejected events.
func WithLogger(l *slog.Logger) InterpreterOption {
	return func(i *Interpreter) {
		if l != nil {
			i.logger = l
		}
	}
}

// WithIDGenerator replaces the local reward id generator.
func WithIDGenerator(fn func() string) InterpreterOption {
	return func(i *Interpreter) {
		if fn != nil {
			i.newID = fn
		}
	}
}

// NewInterpreter creates an interpreter over m.
func NewInterpreter(m Mutator, opts ...InterpreterOption) *Interpreter {
	i := &Interpreter{
		m:      m,
		logger: slog.Default(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Apply processes logs in order. TASK_CREATED and REWARD_EARNED events with a
// usable widget payload become AddTask/AddReward calls; everything else is
// transcript only. Events are independent: one failure does not stop the rest.
func (i *Interpreter) Apply(ctx context.Context, logs []models.ActionLog) Report {
	rep := Report{Tasks: []models.Task{}, Rewards: []models.Reward{}}
	for idx, log := range logs {
		if err := ctx.Err(); err != nil {
			rep.Errors = append(rep.Errors, &EventError{Index: idx, ID: log.ID, Type: log.Type, Err: err})
			continue
		}

		var err error
		switch log.Type {
		case models.ActionTaskCreated:
			err = i.applyTask(ctx, log, &rep)
		case models.ActionRewardEarned:
			err = i.applyReward(ctx, log, &rep)
		default:
			rep.Skipped++
			continue
		}
		if err != nil {
			i.logger.Warn("assistant event not applied", "index", idx, "type", log.Type, "error", err)
			rep.Errors = append(rep.Errors, &EventError{Index: idx, ID: log.ID, Type: log.Type, Err: err})
		}
	}
	return rep
}

func (i *Interpreter) applyTask(ctx context.Context, log models.ActionLog, rep *Report) error {
	w, ok, err := decodeWidget(log)
	if err != nil {
		return err
	}
	if !ok || w.Title == "" || w.Complexity == 0 {
		rep.Skipped++
		return nil
	}
	tag, err := models.ParseContextTag(w.Tags.first())
	if err != nil {
		i.logger.Debug("unknown context tag, using Any", "tag", w.Tags.first())
		tag = models.ContextAny
	}
	task, err := i.m.AddTask(ctx, w.Title, models.Complexity(w.Complexity), tag)
	if err != nil {
		return err
	}
	rep.Tasks = append(rep.Tasks, task)
	rep.Applied++
	return nil
}

func (i *Interpreter) applyReward(ctx context.Context, log models.ActionLog, rep *Report) error {
	w, ok, err := decodeWidget(log)
	if err != nil {
		return err
	}
	if !ok || w.Title == "" || w.Cost == 0 {
		rep.Skipped++
		return nil
	}
	tier := models.RewardTier(w.Tier)
	if tier == "" {
		tier = models.TierBronze
	}
	reward, err := i.m.AddReward(ctx, models.NewReward{
		ID:    i.newID(),
		Title: w.Title,
		Cost:  int(w.Cost),
		Tier:  tier,
	})
	if err != nil {
		return err
	}
	rep.Rewards = append(rep.Rewards, reward)
	rep.Applied++
	return nil
}
