package activity

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"
)

// Level is the visual severity of a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
	LevelNeutral Level = "neutral"
	// LevelSilent events are recorded but never shown as a notification.
	LevelSilent Level = "silent"
)

// Event types emitted by the board.
const (
	TaskAdded            = "task.added"
	TaskRejected         = "task.rejected"
	TaskRemoved          = "task.removed"
	TaskCompletionToggle = "task.completion_toggled"
	TimerStarted         = "timer.started"
	TimerPaused          = "timer.paused"
	TimerExpired         = "timer.expired"
)

// Event is one entry of the hash-chained, append-only activity log.
type Event struct {
	ID        string    `json:"id"`   // UUID v7 (time-ordered)
	Type      string    `json:"type"` // e.g. "task.added", "timer.expired"
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	TaskID    string    `json:"task_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Hash      string    `json:"hash"`      // SHA-256 of canonical form
	PrevHash  string    `json:"prev_hash"` // hash chain link
}

// Notify reports whether the event should surface as a notification.
func (e Event) Notify() bool {
	return e.Level != LevelSilent && e.Message != ""
}

// Store is the contract for activity persistence.
type Store interface {
	Append(ctx context.Context, eventType string, level Level, message, taskID string) (*Event, error)
	Recent(ctx context.Context, limit int) ([]Event, error)
	ByTask(ctx context.Context, taskID string, limit int) ([]Event, error)
	Since(ctx context.Context, afterID string, limit int) ([]Event, error)
	Count(ctx context.Context) (int, error)
	VerifyChain(ctx context.Context) error
	EnsureTable(ctx context.Context) error
}

// computeHash computes a SHA-256 hash for chain integrity.
func computeHash(prevHash, id, eventType string, level Level, message, taskID string, timestamp time.Time) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%s|%s|%d", prevHash, id, eventType, level, taskID, message, timestamp.UnixNano())
	h := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", h)
}

// verify walks events in chronological order and checks every link,
// starting from the given head hash.
func verify(prevHash string, events []Event) error {
	for i, e := range events {
		if e.PrevHash != prevHash {
			return fmt.Errorf("event %d (%s): prev_hash mismatch: got %s, want %s", i, e.ID, e.PrevHash, prevHash)
		}
		expected := computeHash(prevHash, e.ID, e.Type, e.Level, e.Message, e.TaskID, e.Timestamp)
		if e.Hash != expected {
			return fmt.Errorf("event %d (%s): hash mismatch: got %s, want %s", i, e.ID, e.Hash, expected)
		}
		prevHash = e.Hash
	}
	return nil
}
