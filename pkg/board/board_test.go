package board

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pomodoro-todo/pkg/activity"
	"pomodoro-todo/pkg/task"
)

type fakeTicker struct {
	c       chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (f *fakeTicker) C() <-chan time.Time { return f.c }

func (f *fakeTicker) Stop() {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
}

func (f *fakeTicker) isStopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

type tickers struct {
	mu  sync.Mutex
	all []*fakeTicker
}

func (ts *tickers) new(d time.Duration) Ticker {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	t := &fakeTicker{c: make(chan time.Time)}
	ts.all = append(ts.all, t)
	return t
}

func (ts *tickers) created() []*fakeTicker {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return append([]*fakeTicker(nil), ts.all...)
}

type mockStore struct {
	mu      sync.Mutex
	tasks   map[string]task.Task
	order   []string
	deleted []string
	upserts int
}

func newMockStore(seed ...task.Task) *mockStore {
	s := &mockStore{tasks: make(map[string]task.Task)}
	for _, t := range seed {
		s.tasks[t.ID] = t
		s.order = append(s.order, t.ID)
	}
	return s
}

func (m *mockStore) Upsert(ctx context.Context, t *task.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[t.ID]; !ok {
		m.order = append(m.order, t.ID)
	}
	m.tasks[t.ID] = *t
	m.upserts++
	return nil
}

func (m *mockStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tasks, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockStore) List(ctx context.Context) ([]task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []task.Task
	for _, id := range m.order {
		if t, ok := m.tasks[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockStore) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks), nil
}

func (m *mockStore) EnsureTable(ctx context.Context) error { return nil }

func (m *mockStore) get(id string) (task.Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	return t, ok
}

func startBoard(t *testing.T, opts ...Option) (*Board, *tickers) {
	t.Helper()
	ts := &tickers{}
	b := New(append([]Option{WithTicker(ts.new)}, opts...)...)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Run: %v", err)
		}
	})
	return b, ts
}

func TestMountStartsOneTicker(t *testing.T) {
	ctx := context.Background()
	b, ts := startBoard(t)

	if st, _ := b.Stats(ctx); st.Ticking {
		t.Fatal("ticker running with no views")
	}
	v1, err := b.Mount(ctx)
	if err != nil {
		t.Fatal(err)
	}
	v2, _ := b.Mount(ctx)
	if n := len(ts.created()); n != 1 {
		t.Fatalf("%d tickers created, want 1", n)
	}

	v1.Close()
	if ts.created()[0].isStopped() {
		t.Fatal("ticker stopped while a view is still mounted")
	}
	v2.Close()
	v2.Close()
	if !ts.created()[0].isStopped() {
		t.Fatal("ticker not stopped after last unmount")
	}
	if st, _ := b.Stats(ctx); st.Views != 0 || st.Ticking {
		t.Errorf("stats after unmount = %+v", st)
	}

	v3, _ := b.Mount(ctx)
	defer v3.Close()
	if n := len(ts.created()); n != 2 {
		t.Fatalf("remount created %d tickers total, want 2", n)
	}
}

func TestMountDeliversSnapshot(t *testing.T) {
	ctx := context.Background()
	b, _ := startBoard(t)
	if _, err := b.Add(ctx, "Write report"); err != nil {
		t.Fatal(err)
	}
	v, err := b.Mount(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer v.Close()
	s := <-v.C
	if len(s.Tasks) != 1 || s.Tasks[0].Text != "Write report" {
		t.Fatalf("snapshot = %+v", s)
	}
}

func TestTickAdvancesRunningTask(t *testing.T) {
	ctx := context.Background()
	b, ts := startBoard(t)
	tk, _ := b.Add(ctx, "focus")
	if _, err := b.ToggleTimer(ctx, tk.ID); err != nil {
		t.Fatal(err)
	}
	v, _ := b.Mount(ctx)
	defer v.Close()

	ft := ts.created()[0]
	for i := 0; i < 3; i++ {
		ft.c <- time.Now()
	}
	s, _ := b.Snapshot(ctx)
	if s.Tasks[0].Timer != 1497 || s.Tasks[0].TimeSpent != 3 {
		t.Fatalf("after 3 ticks: %+v", s.Tasks[0])
	}

	select {
	case got := <-v.C:
		if got.Tasks[0].TimeSpent != 3 {
			t.Errorf("view holds stale snapshot: spent=%d", got.Tasks[0].TimeSpent)
		}
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered")
	}
}

func TestTickExpiresAndRecords(t *testing.T) {
	ctx := context.Background()
	events := activity.NewMemStore(10)
	seed := task.Task{ID: "x", Text: "almost", Timer: 1, TimeSpent: 1499, IsRunning: true}
	b, ts := startBoard(t, WithStore(newMockStore(seed)), WithActivity(events))

	v, _ := b.Mount(ctx)
	defer v.Close()
	ts.created()[0].c <- time.Now()

	s, _ := b.Snapshot(ctx)
	if got := s.Tasks[0]; got.Timer != 0 || got.TimeSpent != 1500 || got.IsRunning {
		t.Fatalf("after expiry: %+v", got)
	}
	recent, _ := events.Recent(ctx, 1)
	if len(recent) != 1 || recent[0].Type != activity.TimerExpired || recent[0].Notify() {
		t.Errorf("expiry event = %+v", recent)
	}
}

func TestAddRejectsBlank(t *testing.T) {
	ctx := context.Background()
	events := activity.NewMemStore(10)
	b, _ := startBoard(t, WithActivity(events))

	_, err := b.Add(ctx, "   ")
	if !errors.Is(err, task.ErrEmptyText) {
		t.Fatalf("error = %v, want ErrEmptyText", err)
	}
	s, _ := b.Snapshot(ctx)
	if len(s.Tasks) != 0 {
		t.Errorf("blank add changed list: %+v", s.Tasks)
	}
	recent, _ := events.Recent(ctx, 1)
	if len(recent) != 1 || recent[0].Level != activity.LevelWarning || recent[0].Message != MsgEmpty {
		t.Errorf("warning not recorded: %+v", recent)
	}
}

func TestCommandsPersistAndRecord(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	events := activity.NewMemStore(50)
	b, _ := startBoard(t, WithStore(store), WithActivity(events))

	a, _ := b.Add(ctx, "A")
	c, _ := b.Add(ctx, "B")
	if _, ok := store.get(a.ID); !ok {
		t.Fatal("added task not persisted")
	}

	b.ToggleTimer(ctx, a.ID)
	b.ToggleTimer(ctx, c.ID)
	if got, _ := store.get(a.ID); got.IsRunning {
		t.Error("paused task persisted as running")
	}
	if got, _ := store.get(c.ID); !got.IsRunning {
		t.Error("started task not persisted as running")
	}

	done, err := b.ToggleCompletion(ctx, c.ID)
	if err != nil || !done.Completed || done.IsRunning {
		t.Fatalf("ToggleCompletion = %+v, %v", done, err)
	}
	if _, err := b.ToggleTimer(ctx, c.ID); !errors.Is(err, task.ErrCompleted) {
		t.Errorf("starting completed task: %v", err)
	}

	if _, err := b.Remove(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != a.ID {
		t.Errorf("deleted = %v", store.deleted)
	}

	var levels []activity.Level
	recent, _ := events.Recent(ctx, 50)
	for i := len(recent) - 1; i >= 0; i-- {
		if recent[i].Notify() {
			levels = append(levels, recent[i].Level)
		}
	}
	want := []activity.Level{activity.LevelSuccess, activity.LevelSuccess, activity.LevelNeutral, activity.LevelInfo}
	if len(levels) != len(want) {
		t.Fatalf("notification levels = %v, want %v", levels, want)
	}
	for i := range want {
		if levels[i] != want[i] {
			t.Errorf("notification %d level = %s, want %s", i, levels[i], want[i])
		}
	}
	if err := events.VerifyChain(ctx); err != nil {
		t.Errorf("VerifyChain: %v", err)
	}
}

func TestUnknownIDs(t *testing.T) {
	ctx := context.Background()
	b, _ := startBoard(t)
	if _, err := b.Remove(ctx, "nope"); !errors.Is(err, task.ErrNotFound) {
		t.Errorf("Remove: %v", err)
	}
	if _, err := b.ToggleCompletion(ctx, "nope"); !errors.Is(err, task.ErrNotFound) {
		t.Errorf("ToggleCompletion: %v", err)
	}
	if _, err := b.ToggleTimer(ctx, "nope"); !errors.Is(err, task.ErrNotFound) {
		t.Errorf("ToggleTimer: %v", err)
	}
}

func TestRemoveAt(t *testing.T) {
	ctx := context.Background()
	b, _ := startBoard(t)
	for _, s := range []string{"A", "B", "C"} {
		b.Add(ctx, s)
	}
	removed, ok, err := b.RemoveAt(ctx, 1)
	if err != nil || !ok || removed.Text != "B" {
		t.Fatalf("RemoveAt(1) = %+v, %v, %v", removed, ok, err)
	}
	if _, ok, _ := b.RemoveAt(ctx, 5); ok {
		t.Error("out-of-range RemoveAt reported success")
	}
	s, _ := b.Snapshot(ctx)
	if len(s.Tasks) != 2 || s.Tasks[0].Text != "A" || s.Tasks[1].Text != "C" {
		t.Errorf("tasks = %+v", s.Tasks)
	}
}

func TestRunRestoresPersistedTasks(t *testing.T) {
	ctx := context.Background()
	store := newMockStore(
		task.Task{ID: "a", Text: "a", Completed: true, IsRunning: true, Timer: 100},
		task.Task{ID: "b", Text: "b", IsRunning: true, Timer: 200},
	)
	b, _ := startBoard(t, WithStore(store))
	s, err := b.Snapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Tasks) != 2 || s.Tasks[0].IsRunning || !s.Tasks[1].IsRunning {
		t.Fatalf("restored = %+v", s.Tasks)
	}
	if got, _ := store.get("a"); got.IsRunning {
		t.Error("normalized task not written back")
	}
}

func TestStoppedBoard(t *testing.T) {
	b := New(WithTicker((&tickers{}).new))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	v, err := b.Mount(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	<-v.C
	cancel()
	<-done

	if _, ok := <-v.C; ok {
		t.Error("view channel not closed on shutdown")
	}
	v.Close()
	if _, err := b.Add(context.Background(), "late"); !errors.Is(err, ErrStopped) {
		t.Errorf("Add after stop = %v, want ErrStopped", err)
	}
}

func TestCommandHonorsContext(t *testing.T) {
	b := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := b.Snapshot(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Snapshot on cancelled ctx = %v", err)
	}
}
