package lock

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const renewTimeout = 5 * time.Second

// renewInterval is how often a held lock with expiry ttl is extended.
func renewInterval(ttl time.Duration) time.Duration {
	return ttl / 3
}

// startRenewal calls renew every interval until the returned stop function
// is called or renew reports the lock is no longer ours. stop waits for an
// in-flight renewal and is safe to call more than once.
func startRenewal(every time.Duration, renew func(ctx context.Context) (bool, error), logger *slog.Logger, attrs ...any) (stop func()) {
	if every <= 0 {
		return func() {}
	}
	quit := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-quit:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), renewTimeout)
				ok, err := renew(ctx)
				cancel()
				if err != nil {
					logger.Warn("failed to renew sync lock", append(attrs, "error", err)...)
					continue
				}
				if !ok {
					logger.Error("sync lock lost while held", attrs...)
					return
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(quit)
			<-done
		})
	}
}
