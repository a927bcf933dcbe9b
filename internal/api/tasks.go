package api

import (
	"encoding/json"
	"net/http"

	"pomodoro-todo/pkg/activity"
	"pomodoro-todo/pkg/board"
)

func (s *Server) handleTaskList(w http.ResponseWriter, r *http.Request) {
	snap, err := s.board.Snapshot(r.Context())
	if err != nil {
		writeBoardError(w, err)
		return
	}
	writeJSON(w, 200, snap)
}

func (s *Server) handleTaskCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, 400, "invalid JSON: "+err.Error())
		return
	}
	t, err := s.board.Add(r.Context(), req.Text)
	if err != nil {
		writeBoardError(w, err)
		return
	}
	writeJSON(w, 201, t)
}

func (s *Server) handleTaskDelete(w http.ResponseWriter, r *http.Request) {
	t, err := s.board.Remove(r.Context(), r.PathValue("id"))
	if err != nil {
		writeBoardError(w, err)
		return
	}
	writeJSON(w, 200, map[string]any{
		"message": board.MsgRemoved,
		"level":   activity.LevelInfo,
		"task":    t,
	})
}

func (s *Server) handleTaskComplete(w http.ResponseWriter, r *http.Request) {
	t, err := s.board.ToggleCompletion(r.Context(), r.PathValue("id"))
	if err != nil {
		writeBoardError(w, err)
		return
	}
	writeJSON(w, 200, t)
}

func (s *Server) handleTaskTimer(w http.ResponseWriter, r *http.Request) {
	t, err := s.board.ToggleTimer(r.Context(), r.PathValue("id"))
	if err != nil {
		writeBoardError(w, err)
		return
	}
	writeJSON(w, 200, t)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	snap, err := s.board.Snapshot(r.Context())
	if err != nil {
		writeBoardError(w, err)
		return
	}
	writeJSON(w, 200, snap.Progress)
}
