package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pomodoro-todo/pkg/report"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snap, err := s.board.Snapshot(ctx)
	if err != nil {
		writeBoardError(w, err)
		return
	}
	stats, err := s.board.Stats(ctx)
	if err != nil {
		writeBoardError(w, err)
		return
	}
	eventCount, err := s.events.Count(ctx)
	if err != nil {
		s.logger.Error("count events", "err", err)
		writeError(w, 500, err.Error())
		return
	}

	running := ""
	for _, t := range snap.Tasks {
		if t.IsRunning {
			running = t.ID
		}
	}
	writeJSON(w, 200, map[string]any{
		"tasks":     snap.Progress.Total,
		"completed": snap.Progress.Completed,
		"running":   running,
		"events":    eventCount,
		"views":     stats.Views,
		"ticking":   stats.Ticking,
	})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "json"
	}
	snap, err := s.board.Snapshot(r.Context())
	if err != nil {
		writeBoardError(w, err)
		return
	}
	out, err := report.Export(report.New(snap.Tasks, time.Now()), format)
	if errors.Is(err, report.ErrUnknownFormat) {
		writeError(w, 400, fmt.Sprintf("format must be one of %s", strings.Join(report.Formats, ", ")))
		return
	}
	if err != nil {
		s.logger.Error("export report", "format", format, "err", err)
		writeError(w, 500, err.Error())
		return
	}
	w.Header().Set("Content-Type", report.ContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="pomodoro-report.%s"`, format))
	w.WriteHeader(200)
	w.Write(out)
}
