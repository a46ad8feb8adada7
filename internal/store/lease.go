package store

import (
	"context"
	"fmt"
	"time"
)

// AcquireLease takes the sync lease for holder until now+ttl. It succeeds when
// the lease is free, expired, or already held by holder.
func (s *SQLiteStore) AcquireLease(ctx context.Context, holder string, now time.Time, ttl time.Duration) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sync_lease SET holder = ?, expires_at = ?
		 WHERE id = 1 AND (holder = '' OR holder = ? OR expires_at <= ?)`,
		holder, now.Add(ttl).UnixMilli(), holder, now.UnixMilli(),
	)
	if err != nil {
		return false, fmt.Errorf("acquiring sync lease: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("acquiring sync lease: %w", err)
	}
	return n == 1, nil
}

// ReleaseLease frees the lease if holder still owns it.
func (s *SQLiteStore) ReleaseLease(ctx context.Context, holder string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE sync_lease SET holder = '', expires_at = 0 WHERE id = 1 AND holder = ?", holder,
	)
	if err != nil {
		return fmt.Errorf("releasing sync lease: %w", err)
	}
	return nil
}
