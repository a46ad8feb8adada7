package lock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// LeaseStore persists a single expiring lease.
type LeaseStore interface {
	AcquireLease(ctx context.Context, holder string, now time.Time, ttl time.Duration) (bool, error)
	ReleaseLease(ctx context.Context, holder string) error
}

// Lease is a cross-process lock backed by the cache database. While held it
// is extended every ttl/3; a holder that dies without releasing loses the
// lease once ttl elapses.
type Lease struct {
	store      LeaseStore
	holder     string
	ttl        time.Duration
	renewEvery time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

// NewLease returns a Lease with a random holder id.
func NewLease(store LeaseStore, ttl time.Duration, logger *slog.Logger) *Lease {
	return &Lease{
		store:      store,
		holder:     uuid.NewString(),
		ttl:        ttl,
		renewEvery: renewInterval(ttl),
		now:        time.Now,
		logger:     logger,
	}
}

func (l *Lease) TryLock(ctx context.Context) (func(), bool, error) {
	ok, err := l.store.AcquireLease(ctx, l.holder, l.now(), l.ttl)
	if err != nil {
		return nil, false, fmt.Errorf("acquiring lease: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	// Re-acquiring as the same holder extends the expiry.
	stopRenewal := startRenewal(l.renewEvery, func(ctx context.Context) (bool, error) {
		return l.store.AcquireLease(ctx, l.holder, l.now(), l.ttl)
	}, l.logger, "holder", l.holder)

	release := func() {
		stopRenewal()
		// The sync context may already be cancelled; release on a fresh one.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := l.store.ReleaseLease(ctx, l.holder); err != nil {
			l.logger.Warn("failed to release sync lease", "holder", l.holder, "error", err)
		}
	}
	return release, true, nil
}
