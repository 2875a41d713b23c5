package lock

import (
	"context"
	"sync"
	"time"
)

// MemoryLocker is a process local Locker
type MemoryLocker struct {
	mux   sync.Mutex
	locks map[string]*memoryLock
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		locks: make(map[string]*memoryLock),
	}
}

func (m *MemoryLocker) tryAcquire(name string, ttl time.Duration) *memoryLock {
	m.mux.Lock()
	defer m.mux.Unlock()

	now := time.Now()
	if l, ok := m.locks[name]; ok && now.Before(l.expireAt) {
		return nil
	}
	l := &memoryLock{locker: m, name: name, ttl: ttl, expireAt: now.Add(ttl)}
	m.locks[name] = l
	return l
}

func (m *MemoryLocker) Acquire(ctx context.Context, name string, opts Options) (Lock, error) {
	deadline := time.Now().Add(opts.Wait)
	for {
		if l := m.tryAcquire(name, opts.TTL); l != nil {
			return l, nil
		}
		if !time.Now().Before(deadline) {
			return nil, ErrNotAcquired
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
}

type memoryLock struct {
	locker   *MemoryLocker
	name     string
	ttl      time.Duration
	expireAt time.Time
}

func (l *memoryLock) Extend(ctx context.Context) error {
	l.locker.mux.Lock()
	defer l.locker.mux.Unlock()

	if l.locker.locks[l.name] != l || time.Now().After(l.expireAt) {
		return ErrNotAcquired
	}
	l.expireAt = time.Now().Add(l.ttl)
	return nil
}

func (l *memoryLock) Unlock(ctx context.Context) error {
	l.locker.mux.Lock()
	defer l.locker.mux.Unlock()

	if l.locker.locks[l.name] == l {
		delete(l.locker.locks, l.name)
	}
	return nil
}
