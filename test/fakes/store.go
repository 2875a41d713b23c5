// Package fakes provides in-memory record stores for component tests
package fakes

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/eventatlas/eventatlas/db/dao"
	"github.com/eventatlas/eventatlas/db/entities"
	"github.com/eventatlas/eventatlas/db/query"
)

var (
	_ dao.EventDAO  = (*EventStore)(nil)
	_ dao.SourceDAO = (*SourceStore)(nil)
)

// EventStore is an in-memory EventDAO keyed by hash
type EventStore struct {
	mux    sync.RWMutex
	events map[string]*entities.Event

	// Err, when set, is returned by every method
	Err error
	// ScanHook runs before each batch is handed to the Scan callback
	ScanHook func(batch int) error
}

func NewEventStore(events ...*entities.Event) *EventStore {
	s := &EventStore{events: make(map[string]*entities.Event)}
	for _, e := range events {
		copied := *e
		s.events[e.Hash] = &copied
	}
	return s
}

func (s *EventStore) sorted() []*entities.Event {
	list := make([]*entities.Event, 0, len(s.events))
	for _, e := range s.events {
		copied := *e
		list = append(list, &copied)
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].StartsAt.Equal(list[j].StartsAt) {
			return list[i].StartsAt.Before(list[j].StartsAt)
		}
		return list[i].Hash < list[j].Hash
	})
	return list
}

func (s *EventStore) Get(ctx context.Context, key string) (*entities.Event, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mux.RLock()
	defer s.mux.RUnlock()
	e, ok := s.events[key]
	if !ok {
		return nil, nil
	}
	copied := *e
	return &copied, nil
}

func (s *EventStore) Upsert(ctx context.Context, entity *entities.Event) (bool, error) {
	if s.Err != nil {
		return false, s.Err
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	now := time.Now().UTC()
	copied := *entity
	existing, ok := s.events[entity.Hash]
	if ok {
		copied.CreatedAt = existing.CreatedAt
	} else {
		copied.CreatedAt.Time = now
	}
	copied.UpdatedAt.Time = now
	s.events[entity.Hash] = &copied
	return !ok, nil
}

func (s *EventStore) Delete(ctx context.Context, key string) (bool, error) {
	if s.Err != nil {
		return false, s.Err
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	_, ok := s.events[key]
	delete(s.events, key)
	return ok, nil
}

func (s *EventStore) filter(q query.Queryer) []*entities.Event {
	where := q.WhereMap()
	list := make([]*entities.Event, 0)
	for _, e := range s.sorted() {
		if v, ok := where["source"]; ok && e.Source != v {
			continue
		}
		if v, ok := where["country"]; ok && e.Country != v {
			continue
		}
		list = append(list, e)
	}
	return list
}

func (s *EventStore) Page(ctx context.Context, q query.Queryer) ([]*entities.Event, int64, error) {
	list, err := s.List(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	s.mux.RLock()
	total := int64(len(s.filter(q)))
	s.mux.RUnlock()
	return list, total, nil
}

func (s *EventStore) List(ctx context.Context, q query.Queryer) ([]*entities.Event, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mux.RLock()
	defer s.mux.RUnlock()
	list := s.filter(q)
	offset := min(int(q.Offset()), len(list))
	list = list[offset:]
	if q.Limit() > 0 && int(q.Limit()) < len(list) {
		list = list[:q.Limit()]
	}
	return list, nil
}

func (s *EventStore) Count(ctx context.Context, where map[string]interface{}) (int64, error) {
	if s.Err != nil {
		return 0, s.Err
	}
	s.mux.RLock()
	defer s.mux.RUnlock()
	return int64(len(s.events)), nil
}

func (s *EventStore) ListByHashes(ctx context.Context, hashes []string) ([]*entities.Event, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mux.RLock()
	defer s.mux.RUnlock()
	want := make(map[string]bool, len(hashes))
	for _, h := range hashes {
		want[h] = true
	}
	list := make([]*entities.Event, 0, len(hashes))
	for _, e := range s.sorted() {
		if want[e.Hash] {
			list = append(list, e)
		}
	}
	return list, nil
}

// Scan hands out batches from a copy taken up front, writes during the scan are not observed
func (s *EventStore) Scan(ctx context.Context, size int, fn func(events []*entities.Event) error) error {
	if s.Err != nil {
		return s.Err
	}
	s.mux.RLock()
	all := s.sorted()
	s.mux.RUnlock()

	for batch := 0; len(all) > 0; batch++ {
		if s.ScanHook != nil {
			if err := s.ScanHook(batch); err != nil {
				return err
			}
		}
		n := min(size, len(all))
		if err := fn(all[:n]); err != nil {
			return err
		}
		all = all[n:]
	}
	return nil
}

// SourceStore is an in-memory SourceDAO keyed by code
type SourceStore struct {
	mux     sync.RWMutex
	sources map[string]*entities.Source
	gets    int

	Err error
}

func NewSourceStore(sources ...*entities.Source) *SourceStore {
	s := &SourceStore{sources: make(map[string]*entities.Source)}
	for _, src := range sources {
		copied := *src
		s.sources[src.Code] = &copied
	}
	return s
}

// Gets reports how many times Get was called
func (s *SourceStore) Gets() int {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.gets
}

func (s *SourceStore) Get(ctx context.Context, key string) (*entities.Source, error) {
	s.mux.Lock()
	s.gets++
	s.mux.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	s.mux.RLock()
	defer s.mux.RUnlock()
	src, ok := s.sources[key]
	if !ok {
		return nil, nil
	}
	copied := *src
	return &copied, nil
}

func (s *SourceStore) Upsert(ctx context.Context, entity *entities.Source) (bool, error) {
	if s.Err != nil {
		return false, s.Err
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	_, ok := s.sources[entity.Code]
	copied := *entity
	s.sources[entity.Code] = &copied
	return !ok, nil
}

func (s *SourceStore) Delete(ctx context.Context, key string) (bool, error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	_, ok := s.sources[key]
	delete(s.sources, key)
	return ok, nil
}

func (s *SourceStore) list() []*entities.Source {
	list := make([]*entities.Source, 0, len(s.sources))
	for _, src := range s.sources {
		copied := *src
		list = append(list, &copied)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })
	return list
}

func (s *SourceStore) Page(ctx context.Context, q query.Queryer) ([]*entities.Source, int64, error) {
	list, err := s.List(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	return list, int64(len(s.sources)), nil
}

func (s *SourceStore) List(ctx context.Context, q query.Queryer) ([]*entities.Source, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mux.RLock()
	defer s.mux.RUnlock()
	list := s.list()
	offset := min(int(q.Offset()), len(list))
	list = list[offset:]
	if q.Limit() > 0 && int(q.Limit()) < len(list) {
		list = list[:q.Limit()]
	}
	return list, nil
}

func (s *SourceStore) Count(ctx context.Context, where map[string]interface{}) (int64, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return int64(len(s.sources)), nil
}

// Snapshotter runs fn directly, counting the calls
type Snapshotter struct {
	mux   sync.Mutex
	calls int
}

func (s *Snapshotter) Snapshot(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mux.Lock()
	s.calls++
	s.mux.Unlock()
	return fn(ctx)
}

func (s *Snapshotter) Calls() int {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.calls
}
