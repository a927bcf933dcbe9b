package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"pomodoro-todo/internal/client"
	"pomodoro-todo/pkg/activity"
	"pomodoro-todo/pkg/board"
	"pomodoro-todo/pkg/task"
)

// Formatter renders command results.
type Formatter interface {
	FormatSnapshot(s board.Snapshot) string
	FormatTask(position int, t task.Task) string
	FormatProgress(p task.Progress) string
	FormatEvents(events []activity.Event) string
	FormatStatus(s client.Status) string
	FormatMessage(msg string) string
	FormatError(err error) string
}

// HumanFormatter formats output for terminal display.
type HumanFormatter struct{}

func (f HumanFormatter) FormatSnapshot(s board.Snapshot) string {
	if len(s.Tasks) == 0 {
		return "No tasks yet.\n"
	}
	var sb strings.Builder
	for i, t := range s.Tasks {
		sb.WriteString(f.FormatTask(i+1, t))
	}
	sb.WriteString(f.FormatProgress(s.Progress))
	return sb.String()
}

func (f HumanFormatter) FormatTask(position int, t task.Task) string {
	mark := " "
	switch {
	case t.Completed:
		mark = "x"
	case t.IsRunning:
		mark = ">"
	}
	return fmt.Sprintf("%3d. [%s] %-40s %s  spent %s\n",
		position, mark, t.Text, task.FormatClock(t.Timer), task.FormatClock(t.TimeSpent))
}

func (f HumanFormatter) FormatProgress(p task.Progress) string {
	const width = 20
	filled := int(p.Percent / 100 * width)
	return fmt.Sprintf("[%s%s] %.0f%% (%d/%d)\n",
		strings.Repeat("#", filled), strings.Repeat("-", width-filled), p.Percent, p.Completed, p.Total)
}

func (f HumanFormatter) FormatEvents(events []activity.Event) string {
	if len(events) == 0 {
		return "No activity.\n"
	}
	var sb strings.Builder
	for _, e := range events {
		fmt.Fprintf(&sb, "%s  %-8s %-24s %s\n", e.Timestamp.Format("15:04:05"), e.Level, e.Type, e.Message)
	}
	return sb.String()
}

func (f HumanFormatter) FormatStatus(s client.Status) string {
	running := s.Running
	if running == "" {
		running = "none"
	}
	return fmt.Sprintf("Tasks:     %d\nCompleted: %d\nRunning:   %s\nEvents:    %d\nViews:     %d (ticking: %v)\n",
		s.Tasks, s.Completed, running, s.Events, s.Views, s.Ticking)
}

func (f HumanFormatter) FormatMessage(msg string) string {
	return msg + "\n"
}

func (f HumanFormatter) FormatError(err error) string {
	return "Error: " + err.Error() + "\n"
}

// JSONFormatter formats output as JSON.
type JSONFormatter struct{}

// marshalJSON marshals a value to indented JSON with a trailing newline.
func marshalJSON(v any) string {
	data, _ := json.MarshalIndent(v, "", "  ")
	return string(data) + "\n"
}

func compactJSON(v any) string {
	data, _ := json.Marshal(v)
	return string(data) + "\n"
}

func (f JSONFormatter) FormatSnapshot(s board.Snapshot) string { return marshalJSON(s) }

func (f JSONFormatter) FormatTask(position int, t task.Task) string {
	return marshalJSON(struct {
		Position int `json:"position"`
		task.Task
	}{position, t})
}

func (f JSONFormatter) FormatProgress(p task.Progress) string         { return marshalJSON(p) }
func (f JSONFormatter) FormatEvents(events []activity.Event) string { return marshalJSON(events) }
func (f JSONFormatter) FormatStatus(s client.Status) string          { return marshalJSON(s) }

func (f JSONFormatter) FormatMessage(msg string) string {
	return marshalJSON(map[string]string{"message": msg})
}

func (f JSONFormatter) FormatError(err error) string {
	return marshalJSON(map[string]string{"error": err.Error()})
}
