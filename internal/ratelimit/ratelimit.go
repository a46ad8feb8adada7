// Package ratelimit throttles manually triggered syncs.
package ratelimit

import (
	"sync"
	"time"
)

// Cooldown enforces a minimum delay between accepted triggers from the same
// caller. Scheduled runs are not throttled; only manual triggers go through
// a Cooldown.
type Cooldown struct {
	mu       sync.Mutex
	lastCall map[string]time.Time // key: trigger origin ("api", "cli")
	minDelay time.Duration
	now      func() time.Time
}

// NewCooldown creates a limiter that accepts one trigger per origin every
// minDelay. A zero minDelay accepts everything.
func NewCooldown(minDelay time.Duration) *Cooldown {
	return &Cooldown{
		lastCall: make(map[string]time.Time),
		minDelay: minDelay,
		now:      time.Now,
	}
}

// Allow records a trigger from origin and reports whether it may proceed.
// When it may not, retryAfter is the time left until the next accepted call.
func (c *Cooldown) Allow(origin string) (ok bool, retryAfter time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if last, seen := c.lastCall[origin]; seen {
		if elapsed := now.Sub(last); elapsed < c.minDelay {
			return false, c.minDelay - elapsed
		}
	}
	c.lastCall[origin] = now
	return true, 0
}

// Reset forgets origin, so its next trigger is accepted. Used when an
// accepted trigger did not actually start a sync.
func (c *Cooldown) Reset(origin string) {
	c.mu.Lock()
	delete(c.lastCall, origin)
	c.mu.Unlock()
}
