// Command pomo drives a pomodoro server from the terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"github.com/spf13/cobra"

	"pomodoro-todo/internal/client"
)

//nolint:gochecknoglobals // CLI flags and formatter are package-level
var (
	serverURL  string
	jsonOutput bool
	formatter  Formatter
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pomo",
		Short: "A to-do list with a pomodoro timer per task",
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if jsonOutput {
				formatter = JSONFormatter{}
			} else {
				formatter = HumanFormatter{}
			}
		},
	}

	defaultServer := os.Getenv("POMO_SERVER")
	if defaultServer == "" {
		defaultServer = client.DefaultBase
	}
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultServer, "Server base URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	rootCmd.AddCommand(
		listCmd(),
		addCmd(),
		rmCmd(),
		doneCmd(),
		timerCmd(),
		progressCmd(),
		eventsCmd(),
		statusCmd(),
		reportCmd(),
		watchCmd(),
		tuiCmd(),
		dbCmd(),
		configCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func getClient() *client.Client {
	return client.New(serverURL)
}

func printOutput(s string) {
	os.Stdout.WriteString(s)
}

func printError(err error) {
	os.Stdout.WriteString(formatter.FormatError(err))
	os.Exit(1)
}

// signalContext is cancelled on interrupt.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func parsePosition(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("position must be a positive number, got %q", arg)
	}
	return n, nil
}

// listCmd implements 'pomo list'.
func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tasks with their timers",
		Run: func(cmd *cobra.Command, _ []string) {
			s, err := getClient().Snapshot(cmd.Context())
			if err != nil {
				printError(err)
			}
			printOutput(formatter.FormatSnapshot(s))
		},
	}
}

// addCmd implements 'pomo add'.
func addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <text>",
		Short: "Add a task",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			c := getClient()
			t, err := c.Add(cmd.Context(), args[0])
			if err != nil {
				printError(err)
			}
			s, err := c.Snapshot(cmd.Context())
			if err != nil {
				printError(err)
			}
			printOutput(formatter.FormatTask(len(s.Tasks), t))
		},
	}
}

// positional builds a command acting on the task at a 1-based position.
func positional(use, short string, act func(ctx context.Context, c *client.Client, id string) (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <n>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			n, err := parsePosition(args[0])
			if err != nil {
				printError(err)
			}
			c := getClient()
			t, err := c.Resolve(cmd.Context(), n)
			if err != nil {
				printError(err)
			}
			out, err := act(cmd.Context(), c, t.ID)
			if err != nil {
				printError(err)
			}
			if out == "" {
				updated, err := c.Resolve(cmd.Context(), n)
				if err != nil {
					printError(err)
				}
				out = formatter.FormatTask(n, updated)
			}
			printOutput(out)
		},
	}
}

// rmCmd implements 'pomo rm'.
func rmCmd() *cobra.Command {
	return positional("rm", "Remove a task", func(ctx context.Context, c *client.Client, id string) (string, error) {
		if err := c.Remove(ctx, id); err != nil {
			return "", err
		}
		return formatter.FormatMessage("Task removed."), nil
	})
}

// doneCmd implements 'pomo done'.
func doneCmd() *cobra.Command {
	return positional("done", "Toggle completion of a task", func(ctx context.Context, c *client.Client, id string) (string, error) {
		_, err := c.ToggleCompletion(ctx, id)
		return "", err
	})
}

// timerCmd implements 'pomo timer'.
func timerCmd() *cobra.Command {
	return positional("timer", "Start or pause a task's countdown", func(ctx context.Context, c *client.Client, id string) (string, error) {
		_, err := c.ToggleTimer(ctx, id)
		return "", err
	})
}

// progressCmd implements 'pomo progress'.
func progressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "progress",
		Short: "Show completion progress",
		Run: func(cmd *cobra.Command, _ []string) {
			p, err := getClient().Progress(cmd.Context())
			if err != nil {
				printError(err)
			}
			printOutput(formatter.FormatProgress(p))
		},
	}
}

// eventsCmd implements 'pomo events'.
func eventsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show recent activity",
		Run: func(cmd *cobra.Command, _ []string) {
			events, err := getClient().Events(cmd.Context(), limit)
			if err != nil {
				printError(err)
			}
			printOutput(formatter.FormatEvents(events))
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of events")
	return cmd
}

// statusCmd implements 'pomo status'.
func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show server summary",
		Run: func(cmd *cobra.Command, _ []string) {
			s, err := getClient().Status(cmd.Context())
			if err != nil {
				printError(err)
			}
			printOutput(formatter.FormatStatus(s))
		},
	}
}

// reportCmd implements 'pomo report'.
func reportCmd() *cobra.Command {
	var format, out string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Export tasks as json, csv or pdf",
		Run: func(cmd *cobra.Command, _ []string) {
			data, err := getClient().Report(cmd.Context(), format)
			if err != nil {
				printError(err)
			}
			if out == "" || out == "-" {
				os.Stdout.Write(data)
				return
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				printError(err)
			}
			printOutput(formatter.FormatMessage(fmt.Sprintf("Wrote %s report to %s", format, out)))
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Report format (json, csv, pdf)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")
	return cmd
}
