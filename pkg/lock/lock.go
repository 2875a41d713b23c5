package lock

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

var ErrNotAcquired = errors.New("lock is held by another process")

type Options struct {
	// TTL is how long the lock is held unless extended
	TTL time.Duration
	// Wait is how long to keep retrying, zero means a single attempt
	Wait time.Duration
}

type Lock interface {
	Extend(ctx context.Context) error
	Unlock(ctx context.Context) error
}

// Locker hands out named mutual exclusion locks
type Locker interface {
	Acquire(ctx context.Context, name string, opts Options) (Lock, error)
}

// KeepAlive extends l every interval until the returned stop function is called
func KeepAlive(ctx context.Context, l Lock, interval time.Duration) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := l.Extend(ctx); err != nil && ctx.Err() == nil {
					zap.S().Named("lock").Warnf("failed to extend lock: %v", err)
				}
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}
