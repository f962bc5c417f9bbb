package datastore

import "fmt"

// Operator is a comparison operator in a query filter.
type Operator string

const (
	OpEqual        Operator = "="
	OpGreater      Operator = ">"
	OpGreaterEqual Operator = ">="
	OpLess         Operator = "<"
	OpLessEqual    Operator = "<="
	OpNotEqual     Operator = "!="
)

// Inequality reports whether the operator is anything other than equality.
// Hierarchical stores permit inequality filters on at most one property per
// query.
func (op Operator) Inequality() bool {
	return op != OpEqual
}

// Filter is a conjunctive predicate on a single property. Value is a string
// or an int64.
type Filter struct {
	Field string
	Op    Operator
	Value any
}

// Order is a sort key. Ascending unless Descending is set.
type Order struct {
	Field      string
	Descending bool
}

// Query describes an ancestor-scoped collection query: all entities of Kind
// under Ancestor (or all of Kind when Ancestor is nil), narrowed by Filters,
// sorted by Orders.
type Query struct {
	Kind     string
	Ancestor *Key
	Filters  []Filter
	Orders   []Order
}

// CompareValues orders two property values of the same shape. Returns
// (cmp, true) when comparable: ints against ints, strings against strings.
func CompareValues(a, b any) (int, bool) {
	switch av := a.(type) {
	case int64:
		bv, ok := b.(int64)
		if !ok {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		}
		return 0, true
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// Matches evaluates the filter against an entity's property value. A
// multi-valued string property satisfies an equality filter when any element
// matches; inequality filters against multi-valued properties never match.
func (f Filter) Matches(v any) bool {
	if list, ok := v.([]string); ok {
		if f.Op != OpEqual {
			return false
		}
		want, ok := f.Value.(string)
		if !ok {
			return false
		}
		for _, s := range list {
			if s == want {
				return true
			}
		}
		return false
	}
	cmp, ok := CompareValues(v, f.Value)
	if !ok {
		return false
	}
	switch f.Op {
	case OpEqual:
		return cmp == 0
	case OpNotEqual:
		return cmp != 0
	case OpGreater:
		return cmp > 0
	case OpGreaterEqual:
		return cmp >= 0
	case OpLess:
		return cmp < 0
	case OpLessEqual:
		return cmp <= 0
	}
	return false
}

func (f Filter) String() string {
	return fmt.Sprintf("%s %s %v", f.Field, f.Op, f.Value)
}
