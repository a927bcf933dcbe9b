// Package client talks to the pomodoro HTTP API.
package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"pomodoro-todo/pkg/activity"
	"pomodoro-todo/pkg/board"
	"pomodoro-todo/pkg/task"
)

// DefaultBase is the server address used when none is given.
const DefaultBase = "http://localhost:8080/"

// Client is an HTTP client for one server.
type Client struct {
	base string
	http *http.Client
}

// New creates a client for base, e.g. "http://localhost:8080/" or "/" for
// the origin the page was served from.
func New(base string) *Client {
	if base == "" {
		base = DefaultBase
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return &Client{base: base, http: &http.Client{}}
}

// APIError is a non-2xx response. It unwraps to the matching task error.
type APIError struct {
	Status  int
	Message string
	Level   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return task.ErrNotFound
	case http.StatusConflict:
		return task.ErrCompleted
	case http.StatusBadRequest:
		if e.Level == string(activity.LevelWarning) {
			return task.ErrEmptyText
		}
	}
	return nil
}

// Status is the server summary.
type Status struct {
	Tasks     int    `json:"tasks"`
	Completed int    `json:"completed"`
	Running   string `json:"running"`
	Events    int    `json:"events"`
	Views     int    `json:"views"`
	Ticking   bool   `json:"ticking"`
}

// Snapshot returns all tasks and progress.
func (c *Client) Snapshot(ctx context.Context) (board.Snapshot, error) {
	var s board.Snapshot
	err := c.do(ctx, "GET", "api/tasks", nil, &s)
	return s, err
}

// Add creates a task.
func (c *Client) Add(ctx context.Context, text string) (task.Task, error) {
	var t task.Task
	err := c.do(ctx, "POST", "api/tasks", map[string]string{"text": text}, &t)
	return t, err
}

// Remove deletes a task.
func (c *Client) Remove(ctx context.Context, id string) error {
	return c.do(ctx, "DELETE", "api/tasks/"+url.PathEscape(id), nil, nil)
}

// ToggleCompletion flips completion of a task.
func (c *Client) ToggleCompletion(ctx context.Context, id string) (task.Task, error) {
	var t task.Task
	err := c.do(ctx, "POST", "api/tasks/"+url.PathEscape(id)+"/complete", nil, &t)
	return t, err
}

// ToggleTimer starts or pauses a task's countdown.
func (c *Client) ToggleTimer(ctx context.Context, id string) (task.Task, error) {
	var t task.Task
	err := c.do(ctx, "POST", "api/tasks/"+url.PathEscape(id)+"/timer", nil, &t)
	return t, err
}

// Progress returns the completion ratio.
func (c *Client) Progress(ctx context.Context) (task.Progress, error) {
	var p task.Progress
	err := c.do(ctx, "GET", "api/progress", nil, &p)
	return p, err
}

// Events returns the most recent activity, newest first.
func (c *Client) Events(ctx context.Context, limit int) ([]activity.Event, error) {
	var events []activity.Event
	err := c.do(ctx, "GET", "api/events?limit="+strconv.Itoa(limit), nil, &events)
	return events, err
}

// Status returns the server summary.
func (c *Client) Status(ctx context.Context) (Status, error) {
	var s Status
	err := c.do(ctx, "GET", "api/status", nil, &s)
	return s, err
}

// Report downloads the task report in format.
func (c *Client) Report(ctx context.Context, format string) ([]byte, error) {
	resp, err := c.send(ctx, "GET", "api/report?format="+url.QueryEscape(format), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// Message is one item received from the stream.
type Message struct {
	Snapshot     *board.Snapshot
	Notification *activity.Event
}

// Stream mounts a view on the server and calls fn for every message until
// ctx is cancelled or the connection ends.
func (c *Client) Stream(ctx context.Context, fn func(Message)) error {
	resp, err := c.send(ctx, "GET", "api/stream", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	var event string
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data := []byte(strings.TrimPrefix(line, "data: "))
			msg, err := decodeMessage(event, data)
			if err != nil {
				return err
			}
			if msg != nil {
				fn(*msg)
			}
		case line == "":
			event = ""
		}
	}
	if err := sc.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return ctx.Err()
}

func decodeMessage(event string, data []byte) (*Message, error) {
	switch event {
	case "snapshot":
		var s board.Snapshot
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("decode snapshot: %w", err)
		}
		return &Message{Snapshot: &s}, nil
	case "notification":
		var e activity.Event
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("decode notification: %w", err)
		}
		return &Message{Notification: &e}, nil
	}
	return nil, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// newRequest builds a request for path relative to the base. A base of "/"
// yields same-origin paths, which is what the browser build uses.
func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		apiErr := &APIError{Status: resp.StatusCode, Message: resp.Status}
		var payload struct {
			Error string `json:"error"`
			Level string `json:"level"`
		}
		if json.NewDecoder(resp.Body).Decode(&payload) == nil && payload.Error != "" {
			apiErr.Message = payload.Error
			apiErr.Level = payload.Level
		}
		return nil, apiErr
	}
	return resp, nil
}

// Resolve maps a 1-based position to a task id using a fresh snapshot.
func (c *Client) Resolve(ctx context.Context, position int) (task.Task, error) {
	s, err := c.Snapshot(ctx)
	if err != nil {
		return task.Task{}, err
	}
	if position < 1 || position > len(s.Tasks) {
		return task.Task{}, fmt.Errorf("no task at position %d (have %d): %w", position, len(s.Tasks), task.ErrNotFound)
	}
	return s.Tasks[position-1], nil
}
