package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/eventatlas/eventatlas/constants"
	"github.com/redis/go-redis/v9"
)

// Degraded records a full rebuild that failed after a destructive step
type Degraded struct {
	Stage  string    `json:"stage"`
	Reason string    `json:"reason"`
	Since  time.Time `json:"since"`
}

// StateStore persists the degraded flag across processes
type StateStore interface {
	SetDegraded(ctx context.Context, d *Degraded) error
	ClearDegraded(ctx context.Context) error
	// GetDegraded returns nil when the index is healthy
	GetDegraded(ctx context.Context) (*Degraded, error)
}

type RedisStateStore struct {
	c   *redis.Client
	key string
}

func NewRedisStateStore(c *redis.Client) *RedisStateStore {
	return &RedisStateStore{c: c, key: constants.IndexDegradedKey}
}

func (s *RedisStateStore) SetDegraded(ctx context.Context, d *Degraded) error {
	b, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return s.c.Set(ctx, s.key, b, 0).Err()
}

func (s *RedisStateStore) ClearDegraded(ctx context.Context) error {
	return s.c.Del(ctx, s.key).Err()
}

func (s *RedisStateStore) GetDegraded(ctx context.Context) (*Degraded, error) {
	b, err := s.c.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	d := &Degraded{}
	if err := json.Unmarshal(b, d); err != nil {
		return nil, err
	}
	return d, nil
}

type MemoryStateStore struct {
	mux      sync.Mutex
	degraded *Degraded
}

func (s *MemoryStateStore) SetDegraded(ctx context.Context, d *Degraded) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.degraded = d
	return nil
}

func (s *MemoryStateStore) ClearDegraded(ctx context.Context) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.degraded = nil
	return nil
}

func (s *MemoryStateStore) GetDegraded(ctx context.Context) (*Degraded, error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.degraded, nil
}
