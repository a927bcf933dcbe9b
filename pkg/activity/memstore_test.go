package activity

import (
	"context"
	"testing"
)

func TestMemStoreChain(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore(0)

	a, err := s.Append(ctx, TaskAdded, LevelSuccess, "Task added!", "t1")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := s.Append(ctx, TimerStarted, LevelSilent, "", "t1")
	c, _ := s.Append(ctx, TaskAdded, LevelSuccess, "Task added!", "t2")

	if a.PrevHash != "" || b.PrevHash != a.Hash || c.PrevHash != b.Hash {
		t.Fatal("events are not linked")
	}
	if err := s.VerifyChain(ctx); err != nil {
		t.Fatalf("VerifyChain: %v", err)
	}
	if n, _ := s.Count(ctx); n != 3 {
		t.Fatalf("Count = %d, want 3", n)
	}

	recent, _ := s.Recent(ctx, 2)
	if len(recent) != 2 || recent[0].ID != c.ID || recent[1].ID != b.ID {
		t.Errorf("Recent = %+v", recent)
	}

	since, _ := s.Since(ctx, a.ID, 10)
	if len(since) != 2 || since[0].ID != b.ID {
		t.Errorf("Since = %+v", since)
	}
	if none, _ := s.Since(ctx, "unknown", 10); len(none) != 0 {
		t.Errorf("Since(unknown) = %+v", none)
	}

	byTask, _ := s.ByTask(ctx, "t1", 10)
	if len(byTask) != 2 || byTask[0].ID != b.ID {
		t.Errorf("ByTask = %+v", byTask)
	}
}

func TestMemStoreEvictsOldest(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore(3)
	var last *Event
	for i := 0; i < 5; i++ {
		last, _ = s.Append(ctx, TaskAdded, LevelSuccess, "Task added!", "")
	}
	if n, _ := s.Count(ctx); n != 3 {
		t.Fatalf("Count = %d, want 3", n)
	}
	recent, _ := s.Recent(ctx, 1)
	if recent[0].ID != last.ID {
		t.Errorf("newest event evicted")
	}
	if err := s.VerifyChain(ctx); err != nil {
		t.Fatalf("VerifyChain after eviction: %v", err)
	}
}
