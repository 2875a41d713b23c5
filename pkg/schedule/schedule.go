// Package schedule runs a function periodically in the background until its context ends
package schedule

import (
	"context"
	"time"
)

// Every calls fn immediately and then once per interval
func Every(ctx context.Context, interval time.Duration, fn func()) {
	After(ctx, 0, interval, fn)
}

// After calls fn once delay has elapsed and then once per interval.
// A non-positive interval calls fn a single time.
func After(ctx context.Context, delay time.Duration, interval time.Duration, fn func()) {
	go func() {
		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
		if ctx.Err() != nil {
			return
		}
		fn()
		if interval <= 0 {
			return
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
}
