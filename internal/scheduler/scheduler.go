// Package scheduler triggers FullSync on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/amishk599/jobatlas/internal/model"
)

// Syncer runs one full sync.
type Syncer interface {
	FullSync(ctx context.Context) model.SyncReport
}

// Scheduler wraps robfig/cron and fires the sync on every tick. A tick that
// arrives while the previous run is still going is skipped.
type Scheduler struct {
	cron       *cron.Cron
	syncer     Syncer
	spec       string // cron spec, e.g. "0 */6 * * *" or "@every 6h"
	runOnStart bool
	logger     *slog.Logger
}

// NewScheduler creates a scheduler for spec. The spec is validated here so a
// bad config fails at startup.
func NewScheduler(syncer Syncer, spec string, runOnStart bool, logger *slog.Logger) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("parsing sync schedule %q: %w", spec, err)
	}
	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron:       cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		syncer:     syncer,
		spec:       spec,
		runOnStart: runOnStart,
		logger:     logger,
	}, nil
}

// Run starts the cron loop, optionally running one sync immediately, and
// blocks until ctx is cancelled. It waits for an in-flight sync to finish
// before returning.
func (s *Scheduler) Run(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.runSync(ctx, "schedule") }); err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.logger.Info("starting scheduler", "schedule", s.spec, "run_on_start", s.runOnStart)
	s.cron.Start()

	if s.runOnStart {
		s.runSync(ctx, "startup")
	}

	<-ctx.Done()
	s.logger.Info("shutting down scheduler")
	<-s.cron.Stop().Done()
	return nil
}

func (s *Scheduler) runSync(ctx context.Context, trigger string) {
	if ctx.Err() != nil {
		return
	}
	report := s.syncer.FullSync(ctx)
	if !report.Success {
		s.logger.Warn("scheduled sync did not complete", "trigger", trigger, "run_id", report.RunID, "error", report.Error)
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
