package query

import (
	"context"
	"fmt"

	"confcentral/internal/datastore"
	"confcentral/internal/domain"
)

// Build composes validated filters into an ancestor-scoped query. When an
// inequality field exists the primary sort key must be that field, then name;
// otherwise name alone.
func Build(kind string, ancestor *datastore.Key, filters []datastore.Filter, inequalityField string) datastore.Query {
	q := datastore.Query{Kind: kind, Ancestor: ancestor, Filters: filters}
	if inequalityField != "" {
		q.Orders = append(q.Orders, datastore.Order{Field: inequalityField})
	}
	q.Orders = append(q.Orders, datastore.Order{Field: "name"})
	return q
}

// Run parses the raw specs, builds the query, and returns the lazy result
// iterator.
func Run(ctx context.Context, store datastore.Store, kind string, ancestor *datastore.Key, specs []domain.FilterSpec, fields FieldSet) (datastore.Iterator, error) {
	filters, inequalityField, err := ParseFilters(specs, fields)
	if err != nil {
		return nil, err
	}
	return store.Run(ctx, Build(kind, ancestor, filters, inequalityField))
}

// RunDouble is the degraded two-inequality path: the first inequality goes
// through the store, the second is evaluated by materializing the first
// result set and comparing each candidate in memory. Only < and > are
// supported for the second comparator. The intermediate set is fully
// materialized and carries no store-side limit; callers pay that cost.
func RunDouble(ctx context.Context, store datastore.Store, kind string, ancestor *datastore.Key, first, second domain.FilterSpec, fields FieldSet) ([]*datastore.Entity, error) {
	firstFilters, inequalityField, err := ParseFilters([]domain.FilterSpec{first}, fields)
	if err != nil {
		return nil, err
	}
	if inequalityField == "" {
		return nil, fmt.Errorf("%w: first filter must be an inequality", domain.ErrInvalidFilter)
	}
	secondFilters, _, err := ParseFilters([]domain.FilterSpec{second}, fields)
	if err != nil {
		return nil, err
	}
	sf := secondFilters[0]
	if sf.Op != datastore.OpLess && sf.Op != datastore.OpGreater {
		return nil, fmt.Errorf("%w: second filter supports only LT and GT", domain.ErrInvalidFilter)
	}

	it, err := store.Run(ctx, Build(kind, ancestor, firstFilters, inequalityField))
	if err != nil {
		return nil, err
	}
	candidates, err := datastore.All(it)
	if err != nil {
		return nil, err
	}
	return FilterInMemory(candidates, sf), nil
}

// FilterInMemory applies a comparator filter over a materialized result set.
// Kept separate from RunDouble so the two stages of the pipeline stay
// individually visible and testable.
func FilterInMemory(entities []*datastore.Entity, f datastore.Filter) []*datastore.Entity {
	var out []*datastore.Entity
	for _, e := range entities {
		if f.Matches(e.Props[f.Field]) {
			out = append(out, e)
		}
	}
	return out
}
