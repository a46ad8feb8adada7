package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/amishk599/jobatlas/internal/model"
)

// Cached is a stored aggregate together with its freshness.
type Cached struct {
	Key       string          `json:"key"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"createdAt"`
	ExpiresAt time.Time       `json:"expiresAt"`
	IsFresh   bool            `json:"isFresh"`
	Live      bool            `json:"live,omitempty"` // computed on request, not read from the cache
}

// Reader serves aggregates, preferring the cache over live computation.
type Reader struct {
	computer *Computer
	cache    Cache
	now      func() time.Time
}

func NewReader(computer *Computer, cache Cache) *Reader {
	return &Reader{computer: computer, cache: cache, now: time.Now}
}

// GetCached returns the stored entry for key, fresh or not, or
// model.ErrCacheMiss.
func (r *Reader) GetCached(ctx context.Context, key string) (Cached, error) {
	if !IsKey(key) {
		return Cached{}, fmt.Errorf("%w: %q", model.ErrUnknownAnalyticsKey, key)
	}
	e, err := r.cache.GetAnalytics(ctx, key)
	if err != nil {
		return Cached{}, err
	}
	return Cached{
		Key:       e.Key,
		Data:      json.RawMessage(e.Data),
		CreatedAt: e.CreatedAt,
		ExpiresAt: e.ExpiresAt,
		IsFresh:   e.IsFresh(r.now()),
	}, nil
}

// Get returns the cached entry when fresh. Otherwise the aggregate is
// computed from the posting cache and returned without being stored; the
// next sync refreshes the cache.
func (r *Reader) Get(ctx context.Context, key string) (Cached, error) {
	c, err := r.GetCached(ctx, key)
	switch {
	case err == nil && c.IsFresh:
		return c, nil
	case err != nil && !errors.Is(err, model.ErrCacheMiss):
		return Cached{}, err
	}

	v, err := r.computer.Compute(ctx, key)
	if err != nil {
		return Cached{}, fmt.Errorf("computing %s: %w", key, err)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return Cached{}, fmt.Errorf("encoding %s: %w", key, err)
	}
	now := r.now()
	return Cached{Key: key, Data: data, CreatedAt: now, ExpiresAt: now, Live: true}, nil
}
