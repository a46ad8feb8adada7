// Package lock provides mutual exclusion for sync runs: an in-process mutex,
// a lease row in the cache database, and an optional Redis lock.
package lock

import (
	"context"
	"sync"
)

// Locker grants exclusive access without blocking. ok is false when another
// holder owns the lock. release must be called exactly once when ok is true.
type Locker interface {
	TryLock(ctx context.Context) (release func(), ok bool, err error)
}

// Local excludes concurrent holders within one process.
type Local struct {
	mu sync.Mutex
}

// NewLocal returns an unlocked Local.
func NewLocal() *Local {
	return &Local{}
}

func (l *Local) TryLock(_ context.Context) (func(), bool, error) {
	if !l.mu.TryLock() {
		return nil, false, nil
	}
	return l.mu.Unlock, true, nil
}

// Chain acquires every locker in order and releases them in reverse.
// If any locker is busy or fails, the ones already taken are released.
type Chain []Locker

func (c Chain) TryLock(ctx context.Context) (func(), bool, error) {
	releases := make([]func(), 0, len(c))
	releaseAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}

	for _, l := range c {
		release, ok, err := l.TryLock(ctx)
		if err != nil || !ok {
			releaseAll()
			return nil, false, err
		}
		releases = append(releases, release)
	}
	return releaseAll, true, nil
}
