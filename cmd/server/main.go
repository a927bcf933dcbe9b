package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"

	"pomodoro-todo/internal/api"
	"pomodoro-todo/internal/config"
	"pomodoro-todo/internal/db"
	"pomodoro-todo/internal/logging"
	"pomodoro-todo/pkg/activity"
	"pomodoro-todo/pkg/board"
	"pomodoro-todo/pkg/task"
)

func main() {
	cfg, err := config.Load(os.Getenv("POMO_CONFIG"))
	if err != nil {
		log.Fatal("load config", "err", err)
	}
	logger := logging.New(os.Stderr, cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []board.Option{board.WithLogger(logger.WithPrefix("board"))}
	var events activity.Store = activity.NewMemStore(cfg.Activity.Capacity)

	if cfg.Database.URL != "" {
		pool, err := db.Connect(ctx, cfg.Database.URL)
		if err != nil {
			logger.Fatal("connect", "err", err)
		}
		defer pool.Close()

		tasks := task.NewPgStore(pool)
		pgEvents := activity.NewPgStore(pool)
		if err := tasks.EnsureTable(ctx); err != nil {
			logger.Fatal("ensure tasks table", "err", err)
		}
		if err := pgEvents.EnsureTable(ctx); err != nil {
			logger.Fatal("ensure activity table", "err", err)
		}
		events = pgEvents
		opts = append(opts, board.WithStore(tasks))
		logger.Info("using postgres")
	} else {
		logger.Info("no database configured, state is kept in memory")
	}

	bus := activity.NewBus(events)
	b := board.New(append(opts, board.WithActivity(bus))...)

	boardDone := make(chan error, 1)
	go func() { boardDone <- b.Run(ctx) }()

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: api.New(b, bus, logger.WithPrefix("api"), cfg.Server.WASMDir),
	}
	go func() {
		logger.Info("listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen", "err", err)
			stop()
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-boardDone:
		logger.Error("board stopped", "err", err)
		stop()
		boardDone <- nil
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "err", err)
	}
	<-boardDone
}
