package subsets

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/yungbote/subsets-backend/internal/data/docstore"
	"github.com/yungbote/subsets-backend/internal/platform/apierr"
	"github.com/yungbote/subsets-backend/internal/platform/logger"
	"github.com/yungbote/subsets-backend/internal/platform/schema"
)

// collectionRepo holds what both typed repos share: encoding, schema checks and revisioned writes.
type collectionRepo struct {
	store      docstore.Store
	validator  *schema.Validator
	collection string
	log        *logger.Logger

	mu     sync.Mutex
	schema json.RawMessage
}

func (r *collectionRepo) Schema(ctx context.Context) (json.RawMessage, error) {
	r.mu.Lock()
	cached := r.schema
	r.mu.Unlock()
	if cached != nil {
		return cached, nil
	}
	raw, err := r.store.Schema(ctx, r.collection)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.schema = raw
	r.mu.Unlock()
	return raw, nil
}

func (r *collectionRepo) encode(ctx context.Context, rec any) (json.RawMessage, error) {
	doc, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", r.collection, err)
	}
	sch, err := r.Schema(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.validator.Validate(r.collection, sch, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *collectionRepo) decode(id string, doc json.RawMessage, out any) error {
	if err := json.Unmarshal(doc, out); err != nil {
		return apierr.Inconsistent("stored %s %q can not be decoded: %v", r.collection, id, err)
	}
	return nil
}

func (r *collectionRepo) get(ctx context.Context, id string, out any) error {
	doc, err := r.store.Get(ctx, r.collection, id)
	if err != nil {
		return err
	}
	return r.decode(id, doc, out)
}

// create writes a new document; rec must already carry revision 1.
func (r *collectionRepo) create(ctx context.Context, id string, rec any) error {
	doc, err := r.encode(ctx, rec)
	if err != nil {
		return err
	}
	return r.store.Create(ctx, r.collection, id, doc)
}

// replace writes rec (already bumped to expected+1) only while the stored revision is expected.
func (r *collectionRepo) replace(ctx context.Context, id string, rec any, expected int64) error {
	doc, err := r.encode(ctx, rec)
	if err != nil {
		return err
	}
	if cp, ok := r.store.(docstore.ConditionalPutter); ok {
		return cp.PutIfRevision(ctx, r.collection, id, doc, expected)
	}
	cur, err := r.store.Get(ctx, r.collection, id)
	if err != nil {
		return err
	}
	if rev := docstore.RevisionOf(cur); rev != expected {
		return apierr.Conflict("%s %q was modified concurrently (revision %d, expected %d)", r.collection, id, rev, expected)
	}
	return r.store.Put(ctx, r.collection, id, doc)
}

func (r *collectionRepo) delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, r.collection, id)
}
