// Package board serializes every change to the task list through one owner
// goroutine. User commands and the one-second tick are applied as discrete
// steps, and each step is broadcast to the mounted views.
package board

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"pomodoro-todo/pkg/activity"
	"pomodoro-todo/pkg/task"
)

// TickInterval is how often running countdowns advance.
const TickInterval = time.Second

// Notification messages shown to the user.
const (
	MsgAdded   = "Task added!"
	MsgEmpty   = "Task can't be empty."
	MsgRemoved = "Task removed."
	MsgToggled = "Task completion toggled."
	MsgStarted = "Timer started."
	MsgPaused  = "Timer paused."
	MsgExpired = "Pomodoro finished."
)

// ErrStopped is returned by commands issued after Run has returned.
var ErrStopped = errors.New("board stopped")

// Snapshot is the state sent to views.
type Snapshot struct {
	Tasks    []task.Task   `json:"tasks"`
	Progress task.Progress `json:"progress"`
}

// Ticker is the periodic time source driving Tick.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTicker wraps time.NewTicker.
func NewTicker(d time.Duration) Ticker {
	return timeTicker{time.NewTicker(d)}
}

// Option configures a Board.
type Option func(*Board)

// WithStore persists every changed task.
func WithStore(s task.Store) Option {
	return func(b *Board) { b.store = s }
}

// WithActivity records notifications and state changes.
func WithActivity(s activity.Store) Option {
	return func(b *Board) { b.events = s }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(b *Board) { b.logger = l }
}

// WithTicker replaces the ticker factory.
func WithTicker(newTicker func(time.Duration) Ticker) Option {
	return func(b *Board) { b.newTicker = newTicker }
}

// WithList starts the board from an existing list instead of an empty one.
func WithList(l *task.List) Option {
	return func(b *Board) { b.list = l }
}

// Board owns a task.List. All access goes through Run's goroutine.
type Board struct {
	list      *task.List
	store     task.Store
	events    activity.Store
	logger    *log.Logger
	newTicker func(time.Duration) Ticker

	cmds    chan command
	stopped chan struct{}
	once    sync.Once

	// owned by Run
	views  map[*View]struct{}
	ticker Ticker
	ticks  int
}

type command struct {
	fn   func(ctx context.Context)
	done chan struct{}
}

// New creates a Board. Call Run to start it.
func New(opts ...Option) *Board {
	b := &Board{
		newTicker: NewTicker,
		cmds:      make(chan command),
		stopped:   make(chan struct{}),
		views:     make(map[*View]struct{}),
	}
	for _, o := range opts {
		o(b)
	}
	if b.list == nil {
		b.list = task.NewList()
	}
	if b.logger == nil {
		b.logger = log.New(io.Discard)
	}
	return b
}

// Run loads persisted tasks and processes commands and ticks until ctx is
// cancelled. It must be called exactly once.
func (b *Board) Run(ctx context.Context) error {
	defer b.shutdown()

	if err := b.load(ctx); err != nil {
		return err
	}
	b.logger.Info("board running", "tasks", b.list.Len())

	for {
		var tick <-chan time.Time
		if b.ticker != nil {
			tick = b.ticker.C()
		}
		select {
		case <-ctx.Done():
			b.logger.Info("board stopping", "views", len(b.views))
			return nil
		case c := <-b.cmds:
			c.fn(ctx)
			close(c.done)
		case <-tick:
			b.tick(ctx)
		}
	}
}

func (b *Board) load(ctx context.Context) error {
	if b.store == nil {
		return nil
	}
	tasks, err := b.store.List(ctx)
	if err != nil {
		return err
	}
	b.list.Restore(tasks)
	for _, t := range b.list.Tasks() {
		b.persist(ctx, t)
	}
	return nil
}

func (b *Board) shutdown() {
	b.once.Do(func() {
		if b.ticker != nil {
			b.ticker.Stop()
			b.ticker = nil
		}
		for v := range b.views {
			close(v.ch)
			delete(b.views, v)
		}
		close(b.stopped)
	})
}

// do runs fn on the owner goroutine and waits for it to finish.
func (b *Board) do(ctx context.Context, fn func(ctx context.Context)) error {
	c := command{fn: fn, done: make(chan struct{})}
	select {
	case b.cmds <- c:
	case <-ctx.Done():
		return ctx.Err()
	case <-b.stopped:
		return ErrStopped
	}
	<-c.done
	return nil
}

func (b *Board) tick(ctx context.Context) {
	b.ticks++
	r := b.list.Tick()
	if len(r.Advanced) == 0 && len(r.Expired) == 0 {
		return
	}
	changed := make(map[string]bool, len(r.Advanced)+len(r.Expired))
	for _, id := range r.Advanced {
		changed[id] = true
	}
	for _, id := range r.Expired {
		changed[id] = true
		b.logger.Info("pomodoro finished", "task", id)
		b.record(ctx, activity.TimerExpired, activity.LevelSilent, MsgExpired, id)
	}
	for id := range changed {
		if t, ok := b.list.Get(b.list.Index(id)); ok {
			b.persist(ctx, t)
		}
	}
	b.broadcast()
}

func (b *Board) persist(ctx context.Context, t task.Task) {
	if b.store == nil {
		return
	}
	if err := b.store.Upsert(ctx, &t); err != nil {
		b.logger.Error("persist task", "task", t.ID, "err", err)
	}
}

func (b *Board) record(ctx context.Context, eventType string, level activity.Level, message, taskID string) {
	if b.events == nil {
		return
	}
	if _, err := b.events.Append(ctx, eventType, level, message, taskID); err != nil {
		b.logger.Error("record activity", "type", eventType, "err", err)
	}
}

func (b *Board) snapshot() Snapshot {
	return Snapshot{Tasks: b.list.Tasks(), Progress: b.list.Progress()}
}
