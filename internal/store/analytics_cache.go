package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/amishk599/jobatlas/internal/model"
)

// PutAnalytics upserts the entry for key, expiring ttl after createdAt.
func (s *SQLiteStore) PutAnalytics(ctx context.Context, key string, data []byte, createdAt time.Time, ttl time.Duration) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO analytics_cache (cache_key, data, created_at, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET
		   data = excluded.data, created_at = excluded.created_at, expires_at = excluded.expires_at`,
		key, string(data), createdAt.UnixMilli(), createdAt.Add(ttl).UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("writing analytics %s: %w", key, err)
	}
	return nil
}

// GetAnalytics returns the stored entry for key, expired or not. It returns
// model.ErrCacheMiss when no entry exists.
func (s *SQLiteStore) GetAnalytics(ctx context.Context, key string) (model.AnalyticsEntry, error) {
	var (
		e                    model.AnalyticsEntry
		data                 string
		createdAt, expiresAt int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT cache_key, data, created_at, expires_at FROM analytics_cache WHERE cache_key = ?", key,
	).Scan(&e.Key, &data, &createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return e, model.ErrCacheMiss
	}
	if err != nil {
		return e, fmt.Errorf("reading analytics %s: %w", key, err)
	}
	e.Data = []byte(data)
	e.CreatedAt = time.UnixMilli(createdAt).UTC()
	e.ExpiresAt = time.UnixMilli(expiresAt).UTC()
	return e, nil
}

// PurgeExpiredAnalytics deletes entries that expired before now.
func (s *SQLiteStore) PurgeExpiredAnalytics(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM analytics_cache WHERE expires_at <= ?", now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("purging expired analytics: %w", err)
	}
	return res.RowsAffected()
}
