package docstore

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/yungbote/subsets-backend/internal/platform/apierr"
	"github.com/yungbote/subsets-backend/internal/platform/lds"
)

// LDSStore adapts the remote linked data store. The remote side has no
// conditional write, so callers serialize writers with a lock.
type LDSStore struct {
	c *lds.Client
}

func NewLDSStore(c *lds.Client) *LDSStore {
	return &LDSStore{c: c}
}

func (s *LDSStore) Get(ctx context.Context, collection, id string) (json.RawMessage, error) {
	return s.c.Get(ctx, collection, id)
}

func (s *LDSStore) List(ctx context.Context, collection string) ([]json.RawMessage, error) {
	return s.c.List(ctx, collection)
}

func (s *LDSStore) Create(ctx context.Context, collection, id string, doc json.RawMessage) error {
	_, err := s.c.Get(ctx, collection, id)
	switch {
	case err == nil:
		return apierr.Conflict("%s %q already exists", collection, id)
	case !errors.Is(err, apierr.ErrNotFound):
		return err
	}
	return s.c.Put(ctx, collection, id, doc)
}

func (s *LDSStore) Put(ctx context.Context, collection, id string, doc json.RawMessage) error {
	if _, err := s.c.Get(ctx, collection, id); err != nil {
		return err
	}
	return s.c.Put(ctx, collection, id, doc)
}

func (s *LDSStore) Delete(ctx context.Context, collection, id string) error {
	return s.c.Delete(ctx, collection, id)
}

func (s *LDSStore) Schema(ctx context.Context, collection string) (json.RawMessage, error) {
	return s.c.Schema(ctx, collection)
}

func (s *LDSStore) Ping(ctx context.Context) error {
	return s.c.Ready(ctx)
}
