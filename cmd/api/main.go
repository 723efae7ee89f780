package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GoSim-25-26J-441/project-auth/config"
	"github.com/GoSim-25-26J-441/project-auth/internal/bootstrap"
	"github.com/GoSim-25-26J-441/project-auth/internal/logging"
	"github.com/GoSim-25-26J-441/project-auth/internal/sweeper"
)

const limiterCleanupSpec = "@every 5m"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.New(cfg.App.LogLevel, cfg.App.Environment)
	slog.SetDefault(logger)
	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer app.Close()

	sched := sweeper.NewScheduler(logger)
	if err := sched.Add("limiter-cleanup", limiterCleanupSpec, func(context.Context) error {
		if n := app.Limiter.Cleanup(); n > 0 {
			logger.Debug("idle rate limit entries dropped", slog.Int("count", n))
		}
		return nil
	}); err != nil {
		logger.Error("schedule limiter cleanup", slog.Any("error", err))
		os.Exit(1)
	}
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			slog.String("addr", srv.Addr),
			slog.String("env", cfg.App.Environment),
			slog.String("version", cfg.App.Version))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
	}
}
