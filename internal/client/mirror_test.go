package client

import (
	"context"
	"testing"

	"pomodoro-todo/pkg/activity"
	"pomodoro-todo/pkg/board"
	"pomodoro-todo/pkg/task"
)

func TestRelativeBase(t *testing.T) {
	c := New("/")
	req, err := c.newRequest(context.Background(), "GET", "api/tasks", nil)
	if err != nil {
		t.Fatal(err)
	}
	if req.URL.String() != "/api/tasks" || req.URL.Host != "" {
		t.Errorf("url = %q, want same-origin /api/tasks", req.URL.String())
	}

	req, err = New("http://example.com:9090").newRequest(context.Background(), "POST", "api/tasks", map[string]string{"text": "a"})
	if err != nil {
		t.Fatal(err)
	}
	if req.URL.String() != "http://example.com:9090/api/tasks" {
		t.Errorf("url = %q", req.URL.String())
	}
	if req.Header.Get("Content-Type") != "application/json" {
		t.Error("body request without content type")
	}
}

func TestMirrorApply(t *testing.T) {
	var m Mirror
	if _, _, online := m.State(); online {
		t.Fatal("new mirror reports online")
	}

	snap := board.Snapshot{Tasks: []task.Task{{ID: "a", Text: "a"}}}
	m.Apply(Message{Snapshot: &snap})
	m.Apply(Message{Notification: &activity.Event{Message: board.MsgAdded, Level: activity.LevelSuccess}})

	got, notice, online := m.State()
	if !online || len(got.Tasks) != 1 {
		t.Errorf("state = %+v, online=%v", got, online)
	}
	if notice == nil || notice.Message != board.MsgAdded {
		t.Errorf("notice = %+v", notice)
	}

	m.SetOffline()
	if got, _, online := m.State(); online || len(got.Tasks) != 1 {
		t.Errorf("offline state = %+v, online=%v", got, online)
	}
}

func TestMirrorStartable(t *testing.T) {
	var m Mirror
	m.Apply(Message{Snapshot: &board.Snapshot{Tasks: []task.Task{
		{ID: "open", Text: "open"},
		{ID: "done", Text: "done", Completed: true},
	}}})

	tests := []struct {
		id   string
		want bool
	}{
		{"open", true},
		{"done", false},
		{"missing", false},
	}
	for _, tt := range tests {
		if got := m.Startable(tt.id); got != tt.want {
			t.Errorf("Startable(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestRetain(t *testing.T) {
	rows := map[string]int{"a": 1, "b": 2, "c": 3}
	Retain(rows, []task.Task{{ID: "a"}, {ID: "c"}, {ID: "d"}})
	if len(rows) != 2 || rows["a"] != 1 || rows["c"] != 3 {
		t.Errorf("rows = %v, want a and c", rows)
	}
	Retain(rows, nil)
	if len(rows) != 0 {
		t.Errorf("rows = %v, want empty", rows)
	}
}
