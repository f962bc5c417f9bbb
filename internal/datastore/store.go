// Package datastore defines the abstract hierarchical document store the
// application is written against: keyed property-bag entities, ancestor-scoped
// queries with equality/inequality predicates, and atomic multi-entity
// transactions. Implementations live in memstore (in-memory) and
// repository/postgres (jsonb document table).
package datastore

import (
	"context"
	"errors"
)

// Sentinel errors shared by all store implementations.
var (
	// ErrNoSuchEntity is returned by Get when the key does not resolve.
	ErrNoSuchEntity = errors.New("datastore: no such entity")
	// Done is returned by Iterator.Next when the result set is exhausted.
	Done = errors.New("datastore: query has no more results")
)

// Entity is a stored document: a key plus a flat property bag. Property
// values are one of string, int64, bool, or []string.
type Entity struct {
	Key   *Key
	Props map[string]any
}

// NewEntity returns an entity with an empty property bag.
func NewEntity(key *Key) *Entity {
	return &Entity{Key: key, Props: map[string]any{}}
}

// Clone returns a deep copy of the entity. Slices in the property bag are
// copied so callers cannot alias stored state.
func (e *Entity) Clone() *Entity {
	out := &Entity{Key: e.Key, Props: make(map[string]any, len(e.Props))}
	for k, v := range e.Props {
		if s, ok := v.([]string); ok {
			cp := make([]string, len(s))
			copy(cp, s)
			out.Props[k] = cp
			continue
		}
		out.Props[k] = v
	}
	return out
}

// Iterator is a single-pass cursor over query results. It is finite and not
// restartable.
type Iterator interface {
	// Next returns the next entity, or Done when exhausted.
	Next() (*Entity, error)
}

// Tx is the view of the store inside a transaction. All reads observe the
// transaction's own writes; the whole write set commits atomically or not at
// all, across entity groups.
type Tx interface {
	Get(key *Key) (*Entity, error)
	Put(e *Entity) error
	Delete(key *Key) error
}

// Store is the document store interface consumed by the services.
type Store interface {
	Get(ctx context.Context, key *Key) (*Entity, error)
	// GetMulti returns one slot per key; missing entities are nil.
	GetMulti(ctx context.Context, keys []*Key) ([]*Entity, error)
	Put(ctx context.Context, e *Entity) error
	Delete(ctx context.Context, key *Key) error
	// AllocateID returns a fresh numeric key of the given kind scoped under
	// parent.
	AllocateID(ctx context.Context, kind string, parent *Key) (*Key, error)
	Run(ctx context.Context, q Query) (Iterator, error)
	// RunInTransaction executes fn atomically. The store retries commits per
	// its own policy; fn may run more than once and must be idempotent over
	// its captured state.
	RunInTransaction(ctx context.Context, fn func(tx Tx) error) error
}

// All drains an iterator into a slice.
func All(it Iterator) ([]*Entity, error) {
	var out []*Entity
	for {
		e, err := it.Next()
		if errors.Is(err, Done) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
}
