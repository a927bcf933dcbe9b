package board

import (
	"context"
	"errors"

	"pomodoro-todo/pkg/activity"
	"pomodoro-todo/pkg/task"
)

// call runs fn on the owner goroutine and returns its result.
func call[T any](ctx context.Context, b *Board, fn func(ctx context.Context) (T, error)) (T, error) {
	var (
		out T
		err error
	)
	if derr := b.do(ctx, func(ctx context.Context) { out, err = fn(ctx) }); derr != nil {
		var zero T
		return zero, derr
	}
	return out, err
}

// Add appends a task. Blank text is rejected with task.ErrEmptyText and
// recorded as a warning.
func (b *Board) Add(ctx context.Context, text string) (task.Task, error) {
	return call(ctx, b, func(ctx context.Context) (task.Task, error) {
		t, err := b.list.Add(text)
		if errors.Is(err, task.ErrEmptyText) {
			b.record(ctx, activity.TaskRejected, activity.LevelWarning, MsgEmpty, "")
			return t, err
		}
		if err != nil {
			return t, err
		}
		b.persist(ctx, t)
		b.record(ctx, activity.TaskAdded, activity.LevelSuccess, MsgAdded, t.ID)
		b.broadcast()
		return t, nil
	})
}

// Remove deletes the task with id.
func (b *Board) Remove(ctx context.Context, id string) (task.Task, error) {
	return call(ctx, b, func(ctx context.Context) (task.Task, error) {
		idx := b.list.Index(id)
		if idx < 0 {
			return task.Task{}, task.ErrNotFound
		}
		t, _ := b.removeAt(ctx, idx)
		return t, nil
	})
}

// RemoveAt deletes the task at index. An out-of-range index is a no-op and
// reports false.
func (b *Board) RemoveAt(ctx context.Context, index int) (task.Task, bool, error) {
	type result struct {
		t  task.Task
		ok bool
	}
	r, err := call(ctx, b, func(ctx context.Context) (result, error) {
		t, ok := b.removeAt(ctx, index)
		return result{t, ok}, nil
	})
	return r.t, r.ok, err
}

func (b *Board) removeAt(ctx context.Context, index int) (task.Task, bool) {
	t, ok := b.list.Remove(index)
	if !ok {
		return t, false
	}
	if b.store != nil {
		if err := b.store.Delete(ctx, t.ID); err != nil {
			b.logger.Error("delete task", "task", t.ID, "err", err)
		}
	}
	b.record(ctx, activity.TaskRemoved, activity.LevelInfo, MsgRemoved, t.ID)
	b.broadcast()
	return t, true
}

// ToggleCompletion flips completion of the task with id and stops its timer.
func (b *Board) ToggleCompletion(ctx context.Context, id string) (task.Task, error) {
	return call(ctx, b, func(ctx context.Context) (task.Task, error) {
		idx := b.list.Index(id)
		if idx < 0 {
			return task.Task{}, task.ErrNotFound
		}
		t, _ := b.list.ToggleCompletion(idx)
		b.persist(ctx, t)
		b.record(ctx, activity.TaskCompletionToggle, activity.LevelNeutral, MsgToggled, t.ID)
		b.broadcast()
		return t, nil
	})
}

// ToggleTimer starts or pauses the countdown of the task with id. Starting
// pauses whichever task was running. Completed tasks return task.ErrCompleted.
func (b *Board) ToggleTimer(ctx context.Context, id string) (task.Task, error) {
	return call(ctx, b, func(ctx context.Context) (task.Task, error) {
		idx := b.list.Index(id)
		if idx < 0 {
			return task.Task{}, task.ErrNotFound
		}
		prev, wasRunning := b.list.Running()
		t, err := b.list.ToggleTimer(idx)
		if err != nil {
			return t, err
		}
		if !t.IsRunning {
			b.persist(ctx, t)
			b.record(ctx, activity.TimerPaused, activity.LevelSilent, MsgPaused, t.ID)
			b.broadcast()
			return t, nil
		}
		if wasRunning && prev.ID != t.ID {
			if p, ok := b.list.Get(b.list.Index(prev.ID)); ok {
				b.persist(ctx, p)
			}
			b.record(ctx, activity.TimerPaused, activity.LevelSilent, MsgPaused, prev.ID)
		}
		b.persist(ctx, t)
		b.record(ctx, activity.TimerStarted, activity.LevelSilent, MsgStarted, t.ID)
		b.broadcast()
		return t, nil
	})
}

// Snapshot returns the current tasks and progress.
func (b *Board) Snapshot(ctx context.Context) (Snapshot, error) {
	return call(ctx, b, func(ctx context.Context) (Snapshot, error) {
		return b.snapshot(), nil
	})
}

// Stats describes the board's scheduling state.
type Stats struct {
	Views   int  `json:"views"`
	Ticking bool `json:"ticking"`
	Ticks   int  `json:"ticks"`
}

// Stats returns the number of mounted views and whether the ticker runs.
func (b *Board) Stats(ctx context.Context) (Stats, error) {
	return call(ctx, b, func(ctx context.Context) (Stats, error) {
		return Stats{Views: len(b.views), Ticking: b.ticker != nil, Ticks: b.ticks}, nil
	})
}
