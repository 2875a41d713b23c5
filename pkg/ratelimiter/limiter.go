package ratelimiter

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Result of a single Allow call
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	Reset      time.Duration
	RetryAfter time.Duration
}

// WriteHeaders sets the X-RateLimit-* headers, and Retry-After when the request was rejected
func (r Result) WriteHeaders(h http.Header) {
	h.Set("X-RateLimit-Limit", strconv.Itoa(r.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(r.Remaining))
	if !r.Allowed {
		h.Set("Retry-After", strconv.Itoa(int((r.RetryAfter + time.Second - 1) / time.Second)))
	}
}

// RateLimiter admits at most quota requests per key within duration
type RateLimiter interface {
	Allow(ctx context.Context, key string, quota int, duration time.Duration) (Result, error)
}

// MemoryLimiter is a fixed-window limiter local to the process
type MemoryLimiter struct {
	mux     sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

// sweepThreshold is the number of tracked keys above which expired windows are dropped
const sweepThreshold = 10000

func (l *MemoryLimiter) sweep(now time.Time, duration time.Duration) {
	for key, w := range l.windows {
		if now.Sub(w.start) >= duration {
			delete(l.windows, key)
		}
	}
}

type window struct {
	start time.Time
	count int
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string, quota int, duration time.Duration) (Result, error) {
	l.mux.Lock()
	defer l.mux.Unlock()

	now := l.now()
	if len(l.windows) >= sweepThreshold {
		l.sweep(now, duration)
	}
	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= duration {
		w = &window{start: now}
		l.windows[key] = w
	}

	res := Result{Limit: quota, Reset: w.start.Add(duration).Sub(now)}
	if w.count >= quota {
		res.RetryAfter = res.Reset
		return res, nil
	}
	w.count++
	res.Allowed = true
	res.Remaining = quota - w.count
	return res, nil
}
