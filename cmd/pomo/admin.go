package main

import (
	"os"

	"github.com/spf13/cobra"

	"pomodoro-todo/internal/config"
	"pomodoro-todo/internal/db"
	"pomodoro-todo/pkg/activity"
	"pomodoro-todo/pkg/task"
)

// dbCmd implements 'pomo db'. It talks to PostgreSQL directly.
func dbCmd() *cobra.Command {
	var url string
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database maintenance",
	}
	cmd.PersistentFlags().StringVar(&url, "database", os.Getenv("DATABASE_URL"), "PostgreSQL URL")

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create tables",
		Run: func(cmd *cobra.Command, _ []string) {
			ctx := cmd.Context()
			pool, err := db.Connect(ctx, url)
			if err != nil {
				printError(err)
			}
			defer pool.Close()
			if err := task.NewPgStore(pool).EnsureTable(ctx); err != nil {
				printError(err)
			}
			if err := activity.NewPgStore(pool).EnsureTable(ctx); err != nil {
				printError(err)
			}
			printOutput(formatter.FormatMessage("All tables initialized."))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "verify",
		Short: "Verify the activity hash chain",
		Run: func(cmd *cobra.Command, _ []string) {
			ctx := cmd.Context()
			pool, err := db.Connect(ctx, url)
			if err != nil {
				printError(err)
			}
			defer pool.Close()
			if err := activity.NewPgStore(pool).VerifyChain(ctx); err != nil {
				printError(err)
			}
			printOutput(formatter.FormatMessage("Activity chain intact."))
		},
	})
	return cmd
}

// configCmd implements 'pomo config'.
func configCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective server configuration as YAML",
		Run: func(_ *cobra.Command, _ []string) {
			cfg, err := config.Load(file)
			if err != nil {
				printError(err)
			}
			data, err := cfg.Marshal()
			if err != nil {
				printError(err)
			}
			printOutput(string(data))
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", os.Getenv("POMO_CONFIG"), "Config file")
	return cmd
}
