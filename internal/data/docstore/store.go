package docstore

import (
	"context"
	"encoding/json"
)

// Store is a key-document store partitioned into collections.
//
// Get returns apierr.ErrNotFound for missing documents, Create returns
// apierr.ErrConflict when the id is taken, Put returns apierr.ErrNotFound
// when there is nothing to replace.
type Store interface {
	Get(ctx context.Context, collection, id string) (json.RawMessage, error)
	List(ctx context.Context, collection string) ([]json.RawMessage, error)
	Create(ctx context.Context, collection, id string, doc json.RawMessage) error
	Put(ctx context.Context, collection, id string, doc json.RawMessage) error
	Delete(ctx context.Context, collection, id string) error
	Schema(ctx context.Context, collection string) (json.RawMessage, error)
	Ping(ctx context.Context) error
}

// ConditionalPutter is implemented by stores able to replace a document only
// while its stored revision still equals expected. A mismatch yields apierr.ErrConflict.
type ConditionalPutter interface {
	PutIfRevision(ctx context.Context, collection, id string, doc json.RawMessage, expected int64) error
}

type revisionOnly struct {
	Revision int64 `json:"revision"`
}

// RevisionOf reads the revision field of a document, 0 when absent.
func RevisionOf(doc json.RawMessage) int64 {
	var r revisionOnly
	_ = json.Unmarshal(doc, &r)
	return r.Revision
}
