package docstore

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/yungbote/subsets-backend/internal/platform/apierr"
	"github.com/yungbote/subsets-backend/internal/platform/schema"
)

type memoryDoc struct {
	body     json.RawMessage
	revision int64
}

// MemoryStore keeps documents in process memory; used by tests and STORE_BACKEND=memory.
type MemoryStore struct {
	mu    sync.RWMutex
	colls map[string]map[string]memoryDoc
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{colls: map[string]map[string]memoryDoc{}}
}

func (s *MemoryStore) coll(name string) map[string]memoryDoc {
	c, ok := s.colls[name]
	if !ok {
		c = map[string]memoryDoc{}
		s.colls[name] = c
	}
	return c
}

func clone(doc json.RawMessage) json.RawMessage {
	return append(json.RawMessage(nil), doc...)
}

func (s *MemoryStore) Get(_ context.Context, collection, id string) (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.colls[collection][id]
	if !ok {
		return nil, apierr.NotFound(collection, id)
	}
	return clone(d.body), nil
}

func (s *MemoryStore) List(_ context.Context, collection string) ([]json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.colls[collection]))
	for id := range s.colls[collection] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]json.RawMessage, 0, len(ids))
	for _, id := range ids {
		out = append(out, clone(s.colls[collection][id].body))
	}
	return out, nil
}

func (s *MemoryStore) Create(_ context.Context, collection, id string, doc json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.coll(collection)
	if _, ok := c[id]; ok {
		return apierr.Conflict("%s %q already exists", collection, id)
	}
	c[id] = memoryDoc{body: clone(doc), revision: RevisionOf(doc)}
	return nil
}

func (s *MemoryStore) Put(_ context.Context, collection, id string, doc json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.coll(collection)
	if _, ok := c[id]; !ok {
		return apierr.NotFound(collection, id)
	}
	c[id] = memoryDoc{body: clone(doc), revision: RevisionOf(doc)}
	return nil
}

func (s *MemoryStore) PutIfRevision(_ context.Context, collection, id string, doc json.RawMessage, expected int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.coll(collection)
	cur, ok := c[id]
	if !ok {
		return apierr.NotFound(collection, id)
	}
	if cur.revision != expected {
		return apierr.Conflict("%s %q was modified concurrently (revision %d, expected %d)", collection, id, cur.revision, expected)
	}
	c[id] = memoryDoc{body: clone(doc), revision: RevisionOf(doc)}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.colls[collection][id]; !ok {
		return apierr.NotFound(collection, id)
	}
	delete(s.colls[collection], id)
	return nil
}

func (s *MemoryStore) Schema(_ context.Context, collection string) (json.RawMessage, error) {
	return schema.Embedded(collection)
}

func (s *MemoryStore) Ping(context.Context) error { return nil }
