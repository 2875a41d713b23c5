package search

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
)

// MemoryEngine is an in-process Engine with the same collection and alias semantics
type MemoryEngine struct {
	mux         sync.RWMutex
	collections map[string]map[string]*Document
	aliases     map[string]string

	// ImportHook, when set, runs before every import and aborts it on error
	ImportHook func(collection string, docs []*Document) error
}

func NewMemoryEngine() *MemoryEngine {
	return &MemoryEngine{
		collections: make(map[string]map[string]*Document),
		aliases:     make(map[string]string),
	}
}

func (m *MemoryEngine) resolve(name string) string {
	if target, ok := m.aliases[name]; ok {
		return target
	}
	return name
}

func (m *MemoryEngine) Health(ctx context.Context) error {
	return nil
}

func (m *MemoryEngine) CreateCollection(ctx context.Context, schema *CollectionSchema) error {
	m.mux.Lock()
	defer m.mux.Unlock()
	if _, ok := m.collections[schema.Name]; ok {
		return &APIError{Status: 409, Message: fmt.Sprintf("A collection with name `%s` already exists.", schema.Name)}
	}
	m.collections[schema.Name] = make(map[string]*Document)
	return nil
}

func (m *MemoryEngine) GetCollection(ctx context.Context, name string) (*CollectionInfo, error) {
	m.mux.RLock()
	defer m.mux.RUnlock()
	name = m.resolve(name)
	docs, ok := m.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: collection %s", ErrNotFound, name)
	}
	return &CollectionInfo{Name: name, NumDocuments: int64(len(docs))}, nil
}

func (m *MemoryEngine) DropCollection(ctx context.Context, name string) error {
	m.mux.Lock()
	defer m.mux.Unlock()
	delete(m.collections, name)
	return nil
}

func (m *MemoryEngine) Import(ctx context.Context, collection string, docs []*Document) error {
	if m.ImportHook != nil {
		if err := m.ImportHook(collection, docs); err != nil {
			return err
		}
	}
	m.mux.Lock()
	defer m.mux.Unlock()
	c, ok := m.collections[m.resolve(collection)]
	if !ok {
		return fmt.Errorf("%w: collection %s", ErrNotFound, collection)
	}
	for _, doc := range docs {
		copied := *doc
		c[doc.ID] = &copied
	}
	return nil
}

func (m *MemoryEngine) Search(ctx context.Context, collection string, q *Query) (*Result, error) {
	m.mux.RLock()
	defer m.mux.RUnlock()
	c, ok := m.collections[m.resolve(collection)]
	if !ok {
		return nil, fmt.Errorf("%w: collection %s", ErrNotFound, collection)
	}

	text := strings.ToLower(strings.TrimSpace(q.Q))
	matched := make([]*Document, 0)
	for _, doc := range c {
		if text != "" && text != DefaultQuery && !strings.Contains(strings.ToLower(doc.Name), text) {
			continue
		}
		if q.Country != "" && doc.Country != q.Country {
			continue
		}
		if len(q.Types) > 0 && !slices.Contains(q.Types, doc.Type) {
			continue
		}
		matched = append(matched, doc)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].StartsAt != matched[j].StartsAt {
			return matched[i].StartsAt < matched[j].StartsAt
		}
		return matched[i].ID < matched[j].ID
	})

	result := &Result{Found: int64(len(matched)), Documents: []*Document{}}
	start := (q.Page - 1) * q.Limit
	if start >= 0 && start < len(matched) {
		end := min(start+q.Limit, len(matched))
		result.Documents = matched[start:end]
	}
	return result, nil
}

func (m *MemoryEngine) UpsertAlias(ctx context.Context, alias string, collection string) error {
	m.mux.Lock()
	defer m.mux.Unlock()
	m.aliases[alias] = collection
	return nil
}

func (m *MemoryEngine) GetAlias(ctx context.Context, alias string) (string, error) {
	m.mux.RLock()
	defer m.mux.RUnlock()
	target, ok := m.aliases[alias]
	if !ok {
		return "", fmt.Errorf("%w: alias %s", ErrNotFound, alias)
	}
	return target, nil
}

func (m *MemoryEngine) DeleteAlias(ctx context.Context, alias string) error {
	m.mux.Lock()
	defer m.mux.Unlock()
	delete(m.aliases, alias)
	return nil
}

// Collections lists physical collection names
func (m *MemoryEngine) Collections() []string {
	m.mux.RLock()
	defer m.mux.RUnlock()
	names := make([]string, 0, len(m.collections))
	for name := range m.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IDs returns the sorted document ids of a collection or alias
func (m *MemoryEngine) IDs(collection string) []string {
	m.mux.RLock()
	defer m.mux.RUnlock()
	ids := make([]string, 0)
	for id := range m.collections[m.resolve(collection)] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
