package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/GoSim-25-26J-441/project-auth/config"
	"github.com/GoSim-25-26J-441/project-auth/internal/auth/repository"
	"github.com/GoSim-25-26J-441/project-auth/internal/bootstrap"
	"github.com/GoSim-25-26J-441/project-auth/internal/logging"
	"github.com/GoSim-25-26J-441/project-auth/internal/storage/postgres"
	"github.com/GoSim-25-26J-441/project-auth/internal/sweeper"
)

// The worker deletes expired sessions and verification tokens. Run with
// "once" to sweep a single time and exit.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger := logging.New(cfg.App.LogLevel, cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{
		DSN:      postgres.URL(&cfg.Database),
		MaxConns: 2,
	})
	if err != nil {
		logger.Error("open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	sw := sweeper.New(
		repository.NewSessionRepository(pool),
		repository.NewVerificationTokenRepository(pool),
		logger,
	)

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "once":
			res, err := sw.SweepExpired(ctx)
			if err != nil {
				logger.Error("sweep failed", slog.Any("error", err))
				os.Exit(1)
			}
			logger.Info("sweep done",
				slog.Int64("sessions", res.Sessions),
				slog.Int64("verification_tokens", res.VerificationTokens))
			return
		default:
			logger.Error("unknown command", slog.String("command", os.Args[1]))
			os.Exit(2)
		}
	}

	sched := sweeper.NewScheduler(logger)
	if err := sched.AddSweep(cfg.App.SweepSchedule, sw); err != nil {
		logger.Error("schedule sweep", slog.Any("error", err))
		os.Exit(1)
	}
	sched.Start()
	logger.Info("sweeper started", slog.String("schedule", cfg.App.SweepSchedule))

	<-ctx.Done()
	logger.Info("stopping sweeper")
	<-sched.Stop().Done()
}
