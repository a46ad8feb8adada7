// Package analytics builds the dashboard aggregates from the posting cache
// and serves them through the analytics key/value cache.
package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amishk599/jobatlas/internal/model"
)

// DefaultTTL is how long a precomputed aggregate stays fresh.
const DefaultTTL = 24 * time.Hour

// Cache is the analytics key/value table.
type Cache interface {
	PutAnalytics(ctx context.Context, key string, data []byte, createdAt time.Time, ttl time.Duration) error
	GetAnalytics(ctx context.Context, key string) (model.AnalyticsEntry, error)
	PurgeExpiredAnalytics(ctx context.Context, now time.Time) (int64, error)
}

// Precomputer writes every aggregate into the cache after a sync.
type Precomputer struct {
	computer *Computer
	cache    Cache
	ttl      time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// NewPrecomputer returns a Precomputer. A zero ttl means DefaultTTL.
func NewPrecomputer(computer *Computer, cache Cache, ttl time.Duration, logger *slog.Logger) *Precomputer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Precomputer{
		computer: computer,
		cache:    cache,
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
	}
}

// Run computes and stores each aggregate independently. A failing aggregate
// is logged and skipped; the joined errors are returned.
func (p *Precomputer) Run(ctx context.Context) error {
	start := p.now()
	var errs []error

	if n, err := p.cache.PurgeExpiredAnalytics(ctx, start); err != nil {
		p.logger.Warn("failed to purge expired analytics", "error", err)
	} else if n > 0 {
		p.logger.Debug("purged expired analytics", "count", n)
	}

	written := 0
	for _, key := range Keys() {
		if err := p.refresh(ctx, key, start); err != nil {
			p.logger.Error("analytics aggregate failed", "key", key, "error", err)
			errs = append(errs, err)
			continue
		}
		written++
	}

	p.logger.Info("analytics precomputed",
		"written", written,
		"failed", len(errs),
		"duration_ms", p.now().Sub(start).Milliseconds(),
	)
	return errors.Join(errs...)
}

func (p *Precomputer) refresh(ctx context.Context, key string, at time.Time) error {
	v, err := p.computer.Compute(ctx, key)
	if err != nil {
		return fmt.Errorf("computing %s: %w", key, err)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return p.cache.PutAnalytics(ctx, key, data, at, p.ttl)
}
