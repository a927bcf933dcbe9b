package task

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// PomodoroDuration is the countdown every new task starts with, in seconds.
const PomodoroDuration = 25 * 60

var (
	// ErrEmptyText is returned by Add when the text is blank after trimming.
	ErrEmptyText = errors.New("task can't be empty")
	// ErrCompleted is returned when starting the timer of a completed task.
	ErrCompleted = errors.New("task is completed")
	// ErrNotFound is returned by id-based lookups for an unknown id.
	ErrNotFound = errors.New("task not found")
)

// Task is a single to-do item with its own countdown.
type Task struct {
	ID          string     `json:"id"`
	Text        string     `json:"text"`
	Completed   bool       `json:"completed"`
	TimeSpent   int        `json:"time_spent"` // seconds accumulated while running
	IsRunning   bool       `json:"is_running"`
	Timer       int        `json:"timer"` // seconds remaining
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Progress is the derived completion ratio of a list.
type Progress struct {
	Total     int     `json:"total"`
	Completed int     `json:"completed"`
	Percent   float64 `json:"percent"`
}

// Store is the contract for task persistence.
type Store interface {
	Upsert(ctx context.Context, t *Task) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Task, error)
	Count(ctx context.Context) (int, error)
	EnsureTable(ctx context.Context) error
}

// FormatClock renders seconds as HH:MM:SS.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, seconds/60%60, seconds%60)
}
