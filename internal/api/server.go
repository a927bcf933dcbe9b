package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"

	"github.com/charmbracelet/log"

	"pomodoro-todo/pkg/activity"
	"pomodoro-todo/pkg/board"
	"pomodoro-todo/pkg/task"
)

// Server is the HTTP API server.
type Server struct {
	board   *board.Board
	events  *activity.Bus
	logger  *log.Logger
	wasmDir string
	mux     *http.ServeMux
}

// New creates a new Server. An empty wasmDir serves ./web.
func New(b *board.Board, events *activity.Bus, logger *log.Logger, wasmDir string) *Server {
	if wasmDir == "" {
		wasmDir = filepath.Join(".", "web")
	}
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		board:   b,
		events:  events,
		logger:  logger,
		wasmDir: wasmDir,
		mux:     http.NewServeMux(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	// Tasks
	s.mux.HandleFunc("GET /api/tasks", s.handleTaskList)
	s.mux.HandleFunc("POST /api/tasks", s.handleTaskCreate)
	s.mux.HandleFunc("DELETE /api/tasks/{id}", s.handleTaskDelete)
	s.mux.HandleFunc("POST /api/tasks/{id}/complete", s.handleTaskComplete)
	s.mux.HandleFunc("POST /api/tasks/{id}/timer", s.handleTaskTimer)
	s.mux.HandleFunc("GET /api/progress", s.handleProgress)

	// Activity
	s.mux.HandleFunc("GET /api/events", s.handleEventList)
	s.mux.HandleFunc("GET /api/stream", s.handleStream)

	// System
	s.mux.HandleFunc("GET /api/report", s.handleReport)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)

	// Static files (Gio WASM UI)
	s.mux.Handle("GET /", http.FileServer(http.Dir(s.wasmDir)))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("write json", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeBoardError maps board and task errors to status codes.
func writeBoardError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, task.ErrEmptyText):
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": board.MsgEmpty,
			"level": string(activity.LevelWarning),
		})
	case errors.Is(err, task.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, task.ErrCompleted):
		writeError(w, http.StatusConflict, "completed tasks can't be started")
	case errors.Is(err, board.ErrStopped):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
