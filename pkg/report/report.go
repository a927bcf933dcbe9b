// Package report exports the task list as json, csv or pdf.
package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"pomodoro-todo/pkg/task"
)

// ErrUnknownFormat is returned for formats other than json, csv and pdf.
var ErrUnknownFormat = errors.New("unknown report format")

// Formats lists the supported export formats.
var Formats = []string{"json", "csv", "pdf"}

// Report is the exported document.
type Report struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Progress    task.Progress `json:"progress"`
	TimeSpent   int           `json:"time_spent"` // seconds, summed over all tasks
	Tasks       []task.Task   `json:"tasks"`
}

// New builds a report over tasks.
func New(tasks []task.Task, now time.Time) Report {
	r := Report{GeneratedAt: now, Tasks: tasks, Progress: task.Progress{Total: len(tasks)}}
	for _, t := range tasks {
		if t.Completed {
			r.Progress.Completed++
		}
		r.TimeSpent += t.TimeSpent
	}
	if r.Progress.Total > 0 {
		r.Progress.Percent = float64(r.Progress.Completed) / float64(r.Progress.Total) * 100
	}
	return r
}

// ContentType returns the MIME type for format.
func ContentType(format string) string {
	switch strings.ToLower(format) {
	case "csv":
		return "text/csv"
	case "pdf":
		return "application/pdf"
	default:
		return "application/json"
	}
}

// Export renders r in format.
func Export(r Report, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "json":
		return json.MarshalIndent(r, "", "  ")
	case "csv":
		return exportCSV(r)
	case "pdf":
		return exportPDF(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}

func exportCSV(r Report) ([]byte, error) {
	var b bytes.Buffer
	w := csv.NewWriter(&b)
	_ = w.Write([]string{"id", "text", "completed", "time_spent", "timer", "is_running", "created_at", "completed_at"})
	for _, t := range r.Tasks {
		completedAt := ""
		if t.CompletedAt != nil {
			completedAt = t.CompletedAt.UTC().Format(time.RFC3339)
		}
		_ = w.Write([]string{
			t.ID,
			t.Text,
			strconv.FormatBool(t.Completed),
			strconv.Itoa(t.TimeSpent),
			strconv.Itoa(t.Timer),
			strconv.FormatBool(t.IsRunning),
			t.CreatedAt.UTC().Format(time.RFC3339),
			completedAt,
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func exportPDF(r Report) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(40, 10, "Pomodoro Report")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated %s", r.GeneratedAt.Format(time.DateTime)))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Completed %d of %d (%.0f%%), focused %s",
		r.Progress.Completed, r.Progress.Total, r.Progress.Percent, task.FormatClock(r.TimeSpent)))
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(110, 7, "Task", "B", 0, "L", false, 0, "")
	pdf.CellFormat(30, 7, "Status", "B", 0, "L", false, 0, "")
	pdf.CellFormat(30, 7, "Time spent", "B", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for _, t := range r.Tasks {
		status := "open"
		switch {
		case t.Completed:
			status = "done"
		case t.IsRunning:
			status = "running"
		}
		pdf.CellFormat(110, 6, truncate(tr(t.Text), 60), "", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, status, "", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, task.FormatClock(t.TimeSpent), "", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
