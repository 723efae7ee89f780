// Package sweeper removes expired sessions and verification tokens on a
// cron schedule.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Expirer deletes rows that expired at or before now.
type Expirer interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type Result struct {
	Sessions           int64
	VerificationTokens int64
}

type Sweeper struct {
	sessions Expirer
	tokens   Expirer
	now      func() time.Time
	logger   *slog.Logger
}

func New(sessions, tokens Expirer, logger *slog.Logger) *Sweeper {
	return &Sweeper{sessions: sessions, tokens: tokens, now: time.Now, logger: logger}
}

// WithClock swaps the time source, for tests.
func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	s.now = now
	return s
}

// SweepExpired runs both deletes with the same cutoff. A failing table does
// not stop the other one.
func (s *Sweeper) SweepExpired(ctx context.Context) (Result, error) {
	now := s.now()
	var res Result
	var errs []error

	n, err := s.sessions.DeleteExpired(ctx, now)
	if err != nil {
		errs = append(errs, fmt.Errorf("sweep sessions: %w", err))
	}
	res.Sessions = n

	n, err = s.tokens.DeleteExpired(ctx, now)
	if err != nil {
		errs = append(errs, fmt.Errorf("sweep verification tokens: %w", err))
	}
	res.VerificationTokens = n

	return res, errors.Join(errs...)
}

// Scheduler runs named jobs on seconds-resolution cron specs.
type Scheduler struct {
	cron    *cron.Cron
	logger  *slog.Logger
	timeout time.Duration
}

func NewScheduler(logger *slog.Logger) *Scheduler {
	cl := cronLogger{logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			// Recover sits inside the skip guard so a panicking run still
			// hands back its slot.
			cron.WithChain(cron.SkipIfStillRunning(cl), cron.Recover(cl)),
		),
		logger:  logger,
		timeout: time.Minute,
	}
}

// Add registers job under spec. Each run gets its own context bounded by the
// scheduler timeout.
func (s *Scheduler) Add(name, spec string, job func(ctx context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		start := time.Now()
		if err := job(ctx); err != nil {
			s.logger.Error("cron job failed", slog.String("job", name), slog.Any("error", err))
			return
		}
		s.logger.Debug("cron job done", slog.String("job", name), slog.Duration("took", time.Since(start)))
	})
	if err != nil {
		return fmt.Errorf("schedule %s %q: %w", name, spec, err)
	}
	return nil
}

// AddSweep schedules sw on spec and logs what each run removed.
func (s *Scheduler) AddSweep(spec string, sw *Sweeper) error {
	return s.Add("sweep-expired", spec, func(ctx context.Context) error {
		res, err := sw.SweepExpired(ctx)
		if res.Sessions > 0 || res.VerificationTokens > 0 {
			s.logger.Info("expired rows removed",
				slog.Int64("sessions", res.Sessions),
				slog.Int64("verification_tokens", res.VerificationTokens))
		}
		return err
	})
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the schedule and returns a context that is done once running
// jobs have finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(msg, append(keysAndValues, "error", err)...)
}
