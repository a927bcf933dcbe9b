package client

import (
	"sync"

	"pomodoro-todo/pkg/activity"
	"pomodoro-todo/pkg/board"
	"pomodoro-todo/pkg/task"
)

// Mirror is a local copy of the board kept current by Stream messages.
// It is safe for concurrent use.
type Mirror struct {
	mu       sync.Mutex
	snapshot board.Snapshot
	notice   *activity.Event
	online   bool
}

// Apply records one stream message and marks the mirror online.
func (m *Mirror) Apply(msg Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.online = true
	if msg.Snapshot != nil {
		m.snapshot = *msg.Snapshot
	}
	if msg.Notification != nil {
		m.notice = msg.Notification
	}
}

// SetOffline marks the stream as lost. The last snapshot is kept.
func (m *Mirror) SetOffline() {
	m.mu.Lock()
	m.online = false
	m.mu.Unlock()
}

// State returns the latest snapshot, the latest notification and whether the
// stream is connected.
func (m *Mirror) State() (board.Snapshot, *activity.Event, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot, m.notice, m.online
}

// Startable reports whether the timer control of task id should be enabled.
// Completed and unknown tasks cannot be started.
func (m *Mirror) Startable(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.snapshot.Tasks {
		if t.ID == id {
			return !t.Completed
		}
	}
	return false
}

// Retain deletes the entries of rows whose task is not in tasks.
func Retain[V any](rows map[string]V, tasks []task.Task) {
	keep := make(map[string]struct{}, len(tasks))
	for _, t := range tasks {
		keep[t.ID] = struct{}{}
	}
	for id := range rows {
		if _, ok := keep[id]; !ok {
			delete(rows, id)
		}
	}
}
