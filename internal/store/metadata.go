package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/amishk599/jobatlas/internal/model"
)

// GetSyncMetadata returns the singleton sync-metadata row.
func (s *SQLiteStore) GetSyncMetadata(ctx context.Context) (model.SyncMetadata, error) {
	var (
		m                     model.SyncMetadata
		startedAt, lastSyncAt sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT status, run_id, started_at, last_sync_at, total_jobs, duration_ms, last_error
		 FROM sync_metadata WHERE id = 1`,
	).Scan(&m.Status, &m.RunID, &startedAt, &lastSyncAt, &m.TotalJobs, &m.DurationMs, &m.LastError)
	if err != nil {
		return m, fmt.Errorf("reading sync metadata: %w", err)
	}
	m.StartedAt = parseTime(startedAt)
	m.LastSyncAt = parseTime(lastSyncAt)
	return m, nil
}

// MarkSyncing records the start of a sync run.
func (s *SQLiteStore) MarkSyncing(ctx context.Context, runID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sync_metadata SET status = ?, run_id = ?, started_at = ?, last_error = '' WHERE id = 1`,
		model.SyncSyncing, runID, at.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("marking sync %s as syncing: %w", runID, err)
	}
	return nil
}

// MarkCompleted records a successful sync.
func (s *SQLiteStore) MarkCompleted(ctx context.Context, totalJobs int, duration time.Duration, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sync_metadata SET status = ?, last_sync_at = ?, total_jobs = ?, duration_ms = ?, last_error = '' WHERE id = 1`,
		model.SyncCompleted, at.UTC().Format(time.RFC3339Nano), totalJobs, duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("marking sync completed: %w", err)
	}
	return nil
}

// MarkFailed records a failed sync. total_jobs and last_sync_at keep the
// values of the last successful run, which still describe the live table.
func (s *SQLiteStore) MarkFailed(ctx context.Context, message string, duration time.Duration) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sync_metadata SET status = ?, duration_ms = ?, last_error = ? WHERE id = 1`,
		model.SyncFailed, duration.Milliseconds(), message,
	)
	if err != nil {
		return fmt.Errorf("marking sync failed: %w", err)
	}
	return nil
}
