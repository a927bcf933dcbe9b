package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"pomodoro-todo/internal/client"
	"pomodoro-todo/internal/tui"
	"pomodoro-todo/pkg/task"
)

// watchCmd implements 'pomo watch'. It mounts a view on the server, which
// keeps the countdowns ticking while it runs.
func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow the running timer and notifications",
		Run: func(_ *cobra.Command, _ []string) {
			ctx, cancel := signalContext()
			defer cancel()

			err := getClient().Stream(ctx, func(m client.Message) {
				if jsonOutput {
					printOutput(marshalJSONLine(m))
					return
				}
				switch {
				case m.Notification != nil:
					fmt.Printf("\r\033[K%s %s\n", levelMark(string(m.Notification.Level)), m.Notification.Message)
				case m.Snapshot != nil:
					fmt.Printf("\r\033[K%s", watchLine(m.Snapshot.Tasks, m.Snapshot.Progress))
				}
			})
			fmt.Println()
			if err != nil && !errors.Is(err, context.Canceled) {
				printError(err)
			}
		},
	}
}

func watchLine(tasks []task.Task, p task.Progress) string {
	for _, t := range tasks {
		if t.IsRunning {
			return fmt.Sprintf("> %s  %s  | %.0f%% done", t.Text, task.FormatClock(t.Timer), p.Percent)
		}
	}
	return fmt.Sprintf("no timer running  | %.0f%% done", p.Percent)
}

func levelMark(level string) string {
	switch level {
	case "success":
		return "[ok]"
	case "warning":
		return "[!!]"
	case "info":
		return "[i]"
	default:
		return "[-]"
	}
}

func marshalJSONLine(m client.Message) string {
	if m.Notification != nil {
		return compactJSON(map[string]any{"notification": m.Notification})
	}
	return compactJSON(map[string]any{"snapshot": m.Snapshot})
}

// tuiCmd implements 'pomo tui'. The terminal view keeps its own list.
func tuiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the interactive terminal view",
		Run: func(_ *cobra.Command, _ []string) {
			ctx, cancel := signalContext()
			defer cancel()
			if err := tui.Run(ctx, task.NewList()); err != nil {
				printError(err)
			}
		},
	}
}
