package task

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// List is the ordered task collection plus the draft text being typed.
// It is not safe for concurrent use; a single owner serializes access.
type List struct {
	tasks []Task
	draft string

	now   func() time.Time
	newID func() string
}

// TickReport lists what one Tick changed.
type TickReport struct {
	Advanced []string // ids whose countdown moved by one second
	Expired  []string // ids stopped because their countdown hit zero
}

// NewList creates an empty list.
func NewList() *List {
	return &List{
		now: func() time.Time { return time.Now().Truncate(time.Microsecond) },
		newID: func() string {
			return uuid.Must(uuid.NewV7()).String()
		},
	}
}

// SetDraft stores the text currently being entered.
func (l *List) SetDraft(text string) {
	l.draft = text
}

// Draft returns the text currently being entered.
func (l *List) Draft() string {
	return l.draft
}

// Add appends a fresh task and clears the draft.
func (l *List) Add(text string) (Task, error) {
	if strings.TrimSpace(text) == "" {
		return Task{}, ErrEmptyText
	}
	now := l.now()
	t := Task{
		ID:        l.newID(),
		Text:      text,
		Timer:     PomodoroDuration,
		CreatedAt: now,
		UpdatedAt: now,
	}
	l.tasks = append(l.tasks, t)
	l.draft = ""
	return t, nil
}

// Remove deletes the task at index. Out-of-range indexes are ignored.
func (l *List) Remove(index int) (Task, bool) {
	if !l.inRange(index) {
		return Task{}, false
	}
	t := l.tasks[index]
	l.tasks = append(l.tasks[:index], l.tasks[index+1:]...)
	return t, true
}

// ToggleCompletion flips completed on the task at index and always stops its timer.
func (l *List) ToggleCompletion(index int) (Task, bool) {
	if !l.inRange(index) {
		return Task{}, false
	}
	t := &l.tasks[index]
	now := l.now()
	t.Completed = !t.Completed
	t.IsRunning = false
	t.UpdatedAt = now
	if t.Completed {
		t.CompletedAt = &now
	} else {
		t.CompletedAt = nil
	}
	return *t, true
}

// ToggleTimer pauses the task at index if it is running. Otherwise it starts it
// and stops every other task. Completed tasks cannot be started.
func (l *List) ToggleTimer(index int) (Task, error) {
	if !l.inRange(index) {
		return Task{}, nil
	}
	t := &l.tasks[index]
	if t.IsRunning {
		t.IsRunning = false
		t.UpdatedAt = l.now()
		return *t, nil
	}
	if t.Completed {
		return *t, ErrCompleted
	}
	for i := range l.tasks {
		l.tasks[i].IsRunning = false
	}
	t.IsRunning = true
	t.UpdatedAt = l.now()
	return *t, nil
}

// Tick advances every running task by one second. A task whose countdown
// reaches zero stops in the same tick; a running task already at zero stops too.
func (l *List) Tick() TickReport {
	var r TickReport
	for i := range l.tasks {
		t := &l.tasks[i]
		if !t.IsRunning {
			continue
		}
		if t.Timer > 0 {
			t.Timer--
			t.TimeSpent++
			r.Advanced = append(r.Advanced, t.ID)
		}
		if t.Timer == 0 {
			t.IsRunning = false
			r.Expired = append(r.Expired, t.ID)
		}
	}
	return r
}

// Restore replaces the list with previously persisted tasks, re-establishing
// the invariants: completed tasks are stopped, at most one task runs, and the
// countdown stays within [0, PomodoroDuration].
func (l *List) Restore(tasks []Task) {
	l.tasks = make([]Task, len(tasks))
	copy(l.tasks, tasks)
	running := false
	for i := range l.tasks {
		t := &l.tasks[i]
		t.Timer = min(max(t.Timer, 0), PomodoroDuration)
		t.TimeSpent = max(t.TimeSpent, 0)
		if t.Completed || running {
			t.IsRunning = false
		}
		if t.IsRunning {
			running = true
		}
	}
}

// Len returns the number of tasks.
func (l *List) Len() int {
	return len(l.tasks)
}

// Get returns the task at index.
func (l *List) Get(index int) (Task, bool) {
	if !l.inRange(index) {
		return Task{}, false
	}
	return l.tasks[index], true
}

// Index returns the current position of the task with id, or -1.
func (l *List) Index(id string) int {
	for i := range l.tasks {
		if l.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// Tasks returns a copy of the tasks in insertion order.
func (l *List) Tasks() []Task {
	out := make([]Task, len(l.tasks))
	copy(out, l.tasks)
	return out
}

// Running returns the task whose timer is running, if any.
func (l *List) Running() (Task, bool) {
	for _, t := range l.tasks {
		if t.IsRunning {
			return t, true
		}
	}
	return Task{}, false
}

// Progress returns the completion ratio. An empty list is 0%.
func (l *List) Progress() Progress {
	p := Progress{Total: len(l.tasks)}
	for _, t := range l.tasks {
		if t.Completed {
			p.Completed++
		}
	}
	if p.Total > 0 {
		p.Percent = float64(p.Completed) / float64(p.Total) * 100
	}
	return p
}

func (l *List) inRange(index int) bool {
	return index >= 0 && index < len(l.tasks)
}
