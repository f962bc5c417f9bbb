// Package query translates user-supplied filter specs into datastore queries.
// The backing store permits inequality filtering on at most one property per
// query and requires sort keys after an inequality filter to lead with the
// filtered property; this package enforces both rules and provides the
// in-memory fallback for a second inequality.
package query

import (
	"fmt"
	"strconv"

	"confcentral/internal/datastore"
	"confcentral/internal/domain"
)

// Operators maps the wire operator names onto store operators.
var Operators = map[string]datastore.Operator{
	"EQ":   datastore.OpEqual,
	"GT":   datastore.OpGreater,
	"GTEQ": datastore.OpGreaterEqual,
	"LT":   datastore.OpLess,
	"LTEQ": datastore.OpLessEqual,
	"NE":   datastore.OpNotEqual,
}

// FieldSet is the whitelist of queryable fields for one entity kind. Numeric
// marks fields whose values are coerced from string to integer.
type FieldSet struct {
	Fields  map[string]string
	Numeric map[string]bool
}

// ConferenceFields is the filter whitelist for conference queries.
var ConferenceFields = FieldSet{
	Fields: map[string]string{
		"CITY":          "city",
		"TOPIC":         "topics",
		"MONTH":         "month",
		"MAX_ATTENDEES": "maxAttendees",
	},
	Numeric: map[string]bool{"month": true, "maxAttendees": true},
}

// SessionFields is the filter whitelist for session queries.
var SessionFields = FieldSet{
	Fields: map[string]string{
		"TYPE":       "sessionType",
		"DATE":       "date",
		"DURATION":   "duration",
		"START_TIME": "startTime",
	},
	Numeric: map[string]bool{"duration": true, "startTime": true},
}

// ParseFilters validates and normalizes raw filter specs against the field
// set. It returns the coerced filters plus the single field (if any) that
// received a non-equality operator; a second distinct inequality field is
// rejected regardless of order.
func ParseFilters(specs []domain.FilterSpec, fields FieldSet) ([]datastore.Filter, string, error) {
	var filters []datastore.Filter
	inequalityField := ""

	for _, spec := range specs {
		field, ok := fields.Fields[spec.Field]
		if !ok {
			return nil, "", fmt.Errorf("%w: field %q", domain.ErrInvalidFilter, spec.Field)
		}
		op, ok := Operators[spec.Operator]
		if !ok {
			return nil, "", fmt.Errorf("%w: operator %q", domain.ErrInvalidFilter, spec.Operator)
		}

		if op.Inequality() {
			if inequalityField != "" && inequalityField != field {
				return nil, "", domain.ErrMultipleInequalityFields
			}
			inequalityField = field
		}

		var value any = spec.Value
		if fields.Numeric[field] {
			n, err := strconv.ParseInt(spec.Value, 10, 64)
			if err != nil {
				return nil, "", fmt.Errorf("%w: %q is not an integer for field %q",
					domain.ErrInvalidFilterValue, spec.Value, spec.Field)
			}
			value = n
		}

		filters = append(filters, datastore.Filter{Field: field, Op: op, Value: value})
	}
	return filters, inequalityField, nil
}
