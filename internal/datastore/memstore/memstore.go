// Package memstore is the in-memory implementation of the document store.
// All operations serialize on one mutex, which makes transactions atomic and
// serializable across entity groups. It backs the test suites and the
// "memory" storage backend.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"confcentral/internal/datastore"
)

type Store struct {
	mu       sync.Mutex
	entities map[string]*datastore.Entity
	nextID   int64
}

// New returns an empty store.
func New() *Store {
	return &Store{entities: map[string]*datastore.Entity{}, nextID: 1}
}

func (s *Store) Get(ctx context.Context, key *datastore.Key) (*datastore.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(key)
}

func (s *Store) getLocked(key *datastore.Key) (*datastore.Entity, error) {
	e, ok := s.entities[key.Path()]
	if !ok {
		return nil, datastore.ErrNoSuchEntity
	}
	return e.Clone(), nil
}

func (s *Store) GetMulti(ctx context.Context, keys []*datastore.Key) ([]*datastore.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*datastore.Entity, len(keys))
	for i, k := range keys {
		if e, ok := s.entities[k.Path()]; ok {
			out[i] = e.Clone()
		}
	}
	return out, nil
}

func (s *Store) Put(ctx context.Context, e *datastore.Entity) error {
	if e.Key == nil {
		return fmt.Errorf("memstore: put with nil key")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities[e.Key.Path()] = e.Clone()
	return nil
}

func (s *Store) Delete(ctx context.Context, key *datastore.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entities, key.Path())
	return nil
}

func (s *Store) AllocateID(ctx context.Context, kind string, parent *datastore.Key) (*datastore.Key, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	return datastore.IDKey(kind, id, parent), nil
}

// Run snapshots the matching entities under the lock and returns a
// single-pass iterator over the sorted snapshot.
func (s *Store) Run(ctx context.Context, q datastore.Query) (datastore.Iterator, error) {
	s.mu.Lock()
	var matched []*datastore.Entity
	for _, e := range s.entities {
		if s.matchesLocked(e, q) {
			matched = append(matched, e.Clone())
		}
	}
	s.mu.Unlock()

	sortEntities(matched, q.Orders)
	return &sliceIterator{entities: matched}, nil
}

func (s *Store) matchesLocked(e *datastore.Entity, q datastore.Query) bool {
	if e.Key.Kind != q.Kind {
		return false
	}
	if q.Ancestor != nil && !e.Key.HasAncestor(q.Ancestor) {
		return false
	}
	for _, f := range q.Filters {
		if !f.Matches(e.Props[f.Field]) {
			return false
		}
	}
	return true
}

func sortEntities(entities []*datastore.Entity, orders []datastore.Order) {
	if len(orders) == 0 {
		return
	}
	sort.SliceStable(entities, func(i, j int) bool {
		for _, o := range orders {
			cmp, ok := datastore.CompareValues(entities[i].Props[o.Field], entities[j].Props[o.Field])
			if !ok || cmp == 0 {
				continue
			}
			if o.Descending {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

type sliceIterator struct {
	entities []*datastore.Entity
	pos      int
}

func (it *sliceIterator) Next() (*datastore.Entity, error) {
	if it.pos >= len(it.entities) {
		return nil, datastore.Done
	}
	e := it.entities[it.pos]
	it.pos++
	return e, nil
}

// memTx buffers writes until the transaction function returns without error.
// The store mutex is held for the whole transaction, so reads are consistent
// and the commit is atomic across entity groups.
type memTx struct {
	store   *Store
	writes  map[string]*datastore.Entity
	deletes map[string]bool
}

func (tx *memTx) Get(key *datastore.Key) (*datastore.Entity, error) {
	path := key.Path()
	if tx.deletes[path] {
		return nil, datastore.ErrNoSuchEntity
	}
	if e, ok := tx.writes[path]; ok {
		return e.Clone(), nil
	}
	return tx.store.getLocked(key)
}

func (tx *memTx) Put(e *datastore.Entity) error {
	if e.Key == nil {
		return fmt.Errorf("memstore: put with nil key")
	}
	path := e.Key.Path()
	delete(tx.deletes, path)
	tx.writes[path] = e.Clone()
	return nil
}

func (tx *memTx) Delete(key *datastore.Key) error {
	path := key.Path()
	delete(tx.writes, path)
	tx.deletes[path] = true
	return nil
}

func (s *Store) RunInTransaction(ctx context.Context, fn func(tx datastore.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &memTx{
		store:   s,
		writes:  map[string]*datastore.Entity{},
		deletes: map[string]bool{},
	}
	if err := fn(tx); err != nil {
		return err
	}
	for path, e := range tx.writes {
		s.entities[path] = e
	}
	for path := range tx.deletes {
		delete(s.entities, path)
	}
	return nil
}
