package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"pomodoro-todo/pkg/activity"
)

const keepAliveInterval = 15 * time.Second

func (s *Server) handleEventList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := min(max(queryInt(r, "limit", 50), 1), 500)

	if id := r.URL.Query().Get("task"); id != "" {
		events, err := s.events.ByTask(ctx, id, limit)
		if err != nil {
			writeError(w, 500, err.Error())
			return
		}
		writeJSON(w, 200, nonNil(events))
		return
	}
	if after := r.URL.Query().Get("after"); after != "" {
		events, err := s.events.Since(ctx, after, limit)
		if err != nil {
			writeError(w, 500, err.Error())
			return
		}
		writeJSON(w, 200, nonNil(events))
		return
	}

	events, err := s.events.Recent(ctx, limit)
	if err != nil {
		writeError(w, 500, err.Error())
		return
	}
	writeJSON(w, 200, nonNil(events))
}

// handleStream mounts a view for the lifetime of the request. Each board
// step is sent as a snapshot event; notifications are sent as they happen.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, 500, "streaming not supported")
		return
	}
	ctx := r.Context()

	view, err := s.board.Mount(ctx)
	if err != nil {
		writeBoardError(w, err)
		return
	}
	defer view.Close()

	notes := s.events.Notifications()
	defer s.events.Unsubscribe(notes)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	flusher.Flush()

	s.logger.Debug("stream opened", "remote", r.RemoteAddr)
	defer s.logger.Debug("stream closed", "remote", r.RemoteAddr)

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-view.C:
			if !ok {
				return
			}
			if err := writeSSE(w, "snapshot", snap); err != nil {
				return
			}
		case e := <-notes:
			if err := writeSSE(w, "notification", e); err != nil {
				return
			}
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
		}
		flusher.Flush()
	}
}

func writeSSE(w http.ResponseWriter, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}

func queryInt(r *http.Request, key string, defaultVal int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return n
}

func nonNil(events []activity.Event) []activity.Event {
	if events == nil {
		return []activity.Event{}
	}
	return events
}
