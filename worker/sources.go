package worker

import (
	"context"
	"time"

	"github.com/eventatlas/eventatlas/db/dao"
	"github.com/eventatlas/eventatlas/db/entities"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// SourceRegistry resolves source codes, caching the known ones
type SourceRegistry struct {
	group   singleflight.Group
	lru     *expirable.LRU[string, *entities.Source]
	sources dao.SourceDAO
}

func NewSourceRegistry(sources dao.SourceDAO, size int, ttl time.Duration) *SourceRegistry {
	return &SourceRegistry{
		lru:     expirable.NewLRU[string, *entities.Source](size, nil, ttl),
		sources: sources,
	}
}

// LookUp returns nil when the source is not registered.
// Unknown codes are not cached so a concurrent registration is seen on the next attempt.
func (r *SourceRegistry) LookUp(ctx context.Context, code string) (*entities.Source, error) {
	if source, ok := r.lru.Get(code); ok {
		return source, nil
	}

	v, err, _ := r.group.Do(code, func() (interface{}, error) {
		source, err := r.sources.Get(ctx, code)
		if err != nil {
			return nil, err
		}
		if source != nil {
			r.lru.Add(code, source)
		}
		return source, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*entities.Source), nil
}

func (r *SourceRegistry) Invalidate(code string) {
	r.lru.Remove(code)
}
