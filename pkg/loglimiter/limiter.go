package loglimiter

import (
	"sync"
	"time"
)

type entry struct {
	last       time.Time
	suppressed int
}

// Limiter lets at most one log line per key through each window
type Limiter struct {
	mux    sync.Mutex
	window time.Duration
	now    func() time.Time
	logs   map[string]*entry
}

func NewLimiter(window time.Duration) *Limiter {
	return &Limiter{
		window: window,
		now:    time.Now,
		logs:   make(map[string]*entry),
	}
}

// Allow reports whether a line for key may be logged, and how many lines
// were suppressed since the last allowed one
func (l *Limiter) Allow(key string) (bool, int) {
	l.mux.Lock()
	defer l.mux.Unlock()

	now := l.now()
	e, ok := l.logs[key]
	if !ok {
		l.logs[key] = &entry{last: now}
		return true, 0
	}
	if now.Sub(e.last) >= l.window {
		suppressed := e.suppressed
		e.last = now
		e.suppressed = 0
		return true, suppressed
	}
	e.suppressed++
	return false, 0
}

// Reset forgets key, the next line is logged immediately
func (l *Limiter) Reset(key string) {
	l.mux.Lock()
	defer l.mux.Unlock()
	delete(l.logs, key)
}
