// Package syncer reloads the posting cache from the source store and
// refreshes the precomputed analytics.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/amishk599/jobatlas/internal/classifier"
	"github.com/amishk599/jobatlas/internal/lock"
	"github.com/amishk599/jobatlas/internal/model"
	"github.com/amishk599/jobatlas/internal/store"
)

// Store is the part of the cache a sync writes to.
type Store interface {
	MarkSyncing(ctx context.Context, runID string, at time.Time) error
	MarkCompleted(ctx context.Context, totalJobs int, duration time.Duration, at time.Time) error
	MarkFailed(ctx context.Context, message string, duration time.Duration) error
	ReplacePostings(ctx context.Context, rows []model.ClassifiedPosting, batchSize int) error
}

// Precomputer refreshes the analytics cache after the postings are written.
type Precomputer interface {
	Run(ctx context.Context) error
}

// Options tunes a Syncer.
type Options struct {
	BatchSize   int
	HQCountries []string
}

// Syncer runs FullSync. One Syncer is shared by the scheduler, the HTTP
// trigger and the CLI; the locker keeps their runs from overlapping.
type Syncer struct {
	source      model.PostingSource
	store       Store
	classifier  *classifier.Classifier
	precomputer Precomputer
	locker      lock.Locker
	notifier    model.SyncNotifier
	batchSize   int
	location    locationClassifier
	logger      *slog.Logger

	now      func() time.Time
	newRunID func() string
}

// New wires a Syncer. precomputer and notifier may be nil.
func New(
	src model.PostingSource,
	st Store,
	cls *classifier.Classifier,
	precomputer Precomputer,
	locker lock.Locker,
	notifier model.SyncNotifier,
	opts Options,
	logger *slog.Logger,
) *Syncer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = store.DefaultBatchSize
	}
	if opts.HQCountries == nil {
		opts.HQCountries = DefaultHQCountries
	}
	if locker == nil {
		locker = lock.NewLocal()
	}
	return &Syncer{
		source:      src,
		store:       st,
		classifier:  cls,
		precomputer: precomputer,
		locker:      locker,
		notifier:    notifier,
		batchSize:   opts.BatchSize,
		location:    newLocationClassifier(opts.HQCountries),
		logger:      logger,
		now:         time.Now,
		newRunID:    uuid.NewString,
	}
}

// Preview is the processed snapshot a sync would write.
type Preview struct {
	Rows        []model.ClassifiedPosting
	TotalSource int
	Duplicates  int
}

// Preview fetches and processes the source without touching the cache.
func (s *Syncer) Preview(ctx context.Context) (Preview, error) {
	postings, err := s.source.FetchPostings(ctx)
	if err != nil {
		return Preview{}, fmt.Errorf("fetching source postings: %w", err)
	}
	unique := dedupe(postings)
	return Preview{
		Rows:        s.process(unique, s.now()),
		TotalSource: len(postings),
		Duplicates:  len(postings) - len(unique),
	}, nil
}

// FullSync replaces the cached snapshot with the current source contents.
// It never panics and never returns an error; the outcome is in the report.
// When another sync holds the lock the report carries ErrSyncInProgress and
// metadata is left untouched.
func (s *Syncer) FullSync(ctx context.Context) model.SyncReport {
	start := s.now()
	report := model.SyncReport{RunID: s.newRunID()}
	logger := s.logger.With("run_id", report.RunID)

	release, ok, err := s.locker.TryLock(ctx)
	if err != nil {
		report.Error = fmt.Sprintf("acquiring sync lock: %v", err)
		logger.Error("sync not started", "error", err)
		return report
	}
	if !ok {
		report.Error = model.ErrSyncInProgress.Error()
		logger.Info("sync skipped, another run holds the lock")
		return report
	}
	defer release()

	logger.Info("sync started")
	runErr := s.run(ctx, report.RunID, start, &report)

	// Metadata must be recorded even if the caller's context was cancelled.
	finishCtx := context.WithoutCancel(ctx)
	duration := s.now().Sub(start)
	report.DurationMs = duration.Milliseconds()

	if runErr != nil {
		report.Error = runErr.Error()
		if err := s.store.MarkFailed(finishCtx, report.Error, duration); err != nil {
			logger.Error("failed to record sync failure", "error", err)
		}
		logger.Error("sync failed", "error", runErr, "duration_ms", report.DurationMs)
	} else {
		if err := s.store.MarkCompleted(finishCtx, report.TotalProcessed, duration, s.now()); err != nil {
			report.Error = err.Error()
			logger.Error("failed to record sync completion", "error", err)
		} else {
			report.Success = true
		}
		logger.Info("sync completed",
			"total_source", report.TotalSource,
			"total", report.TotalProcessed,
			"duplicates", report.Duplicates,
			"duration_ms", report.DurationMs,
		)
	}

	if s.notifier != nil {
		if err := s.notifier.NotifySync(finishCtx, report); err != nil {
			logger.Warn("failed to send sync notification", "error", err)
		}
	}
	return report
}

// run performs the sync steps after the lock is held. Panics are turned
// into errors.
func (s *Syncer) run(ctx context.Context, runID string, start time.Time, report *model.SyncReport) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sync panicked: %v", r)
		}
	}()

	if err := s.store.MarkSyncing(ctx, runID, start); err != nil {
		return err
	}

	postings, err := s.source.FetchPostings(ctx)
	if err != nil {
		return fmt.Errorf("fetching source postings: %w", err)
	}
	unique := dedupe(postings)
	report.TotalSource = len(postings)
	report.Duplicates = len(postings) - len(unique)

	rows := s.process(unique, s.now())

	if err := s.store.ReplacePostings(ctx, rows, s.batchSize); err != nil {
		return fmt.Errorf("writing postings: %w", err)
	}
	report.TotalProcessed = len(rows)

	if s.precomputer != nil {
		if err := s.precomputer.Run(ctx); err != nil {
			s.logger.Warn("analytics precompute incomplete", "run_id", runID, "error", err)
		}
	}
	return nil
}

// process derives every cached field for postings, which must be ordered
// by id.
func (s *Syncer) process(postings []model.Posting, now time.Time) []model.ClassifiedPosting {
	rows := make([]model.ClassifiedPosting, 0, len(postings))
	for _, p := range postings {
		res := s.classifier.Classify(p)
		l := deriveLifecycle(p, now)
		rows = append(rows, model.ClassifiedPosting{
			Posting:               p,
			PrimaryCategory:       res.Primary,
			SecondaryCategories:   res.Secondary,
			Confidence:            res.Confidence,
			Reasoning:             res.Reasoning,
			Flags:                 res.Flags,
			SeniorityLevel:        classifier.Seniority(p.Grade),
			LocationType:          s.location.classify(p.DutyStation, p.DutyCountry),
			Status:                l.status,
			IsActive:              l.isActive,
			IsExpired:             l.isExpired,
			DaysRemaining:         l.daysRemaining,
			Urgency:               l.urgency,
			ApplicationWindowDays: l.windowDays,
			ProcessedAt:           now,
		})
	}
	return rows
}

func sortByID(postings []model.Posting) {
	slices.SortFunc(postings, func(a, b model.Posting) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
}
