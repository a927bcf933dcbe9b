package activity

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultCapacity bounds a MemStore created with a non-positive capacity.
const DefaultCapacity = 1000

// MemStore is an in-memory Store used when no database is configured.
// Once full it drops the oldest events; the chain then starts at the
// first retained event.
type MemStore struct {
	mu       sync.RWMutex
	events   []Event
	capacity int
	dropped  bool
}

// NewMemStore creates a MemStore holding at most capacity events.
func NewMemStore(capacity int) *MemStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemStore{capacity: capacity}
}

// EnsureTable is a no-op.
func (s *MemStore) EnsureTable(ctx context.Context) error { return nil }

// Append records a new event, linking it to the previous one.
func (s *MemStore) Append(ctx context.Context, eventType string, level Level, message, taskID string) (*Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var prevHash string
	if n := len(s.events); n > 0 {
		prevHash = s.events[n-1].Hash
	}
	e := Event{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Type:      eventType,
		Level:     level,
		Message:   message,
		TaskID:    taskID,
		Timestamp: time.Now().Truncate(time.Microsecond),
		PrevHash:  prevHash,
	}
	e.Hash = computeHash(e.PrevHash, e.ID, e.Type, e.Level, e.Message, e.TaskID, e.Timestamp)

	s.events = append(s.events, e)
	if len(s.events) > s.capacity {
		s.events = append([]Event(nil), s.events[len(s.events)-s.capacity:]...)
		s.dropped = true
	}
	return &e, nil
}

// Recent returns the most recent events, newest first.
func (s *MemStore) Recent(ctx context.Context, limit int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for i := len(s.events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.events[i])
	}
	return out, nil
}

// ByTask returns the most recent events about one task, newest first.
func (s *MemStore) ByTask(ctx context.Context, taskID string, limit int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for i := len(s.events) - 1; i >= 0 && len(out) < limit; i-- {
		if s.events[i].TaskID == taskID {
			out = append(out, s.events[i])
		}
	}
	return out, nil
}

// Since returns events recorded after afterID in chronological order.
// An unknown afterID yields nothing.
func (s *MemStore) Since(ctx context.Context, afterID string, limit int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.events {
		if s.events[i].ID != afterID {
			continue
		}
		rest := s.events[i+1:]
		if len(rest) > limit {
			rest = rest[:limit]
		}
		return append([]Event(nil), rest...), nil
	}
	return nil, nil
}

// Count returns the number of retained events.
func (s *MemStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events), nil
}

// VerifyChain checks hash integrity of the retained events.
func (s *MemStore) VerifyChain(ctx context.Context) error {
	s.mu.RLock()
	events := append([]Event(nil), s.events...)
	dropped := s.dropped
	s.mu.RUnlock()

	head := ""
	if dropped && len(events) > 0 {
		// the first retained event links to an evicted one
		head = events[0].PrevHash
	}
	return verify(head, events)
}
