package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"confcentral/internal/datastore"
	"confcentral/internal/domain"
)

func TestParseFilters(t *testing.T) {
	specs := []domain.FilterSpec{
		{Field: "CITY", Operator: "EQ", Value: "London"},
		{Field: "MONTH", Operator: "GT", Value: "6"},
		{Field: "MONTH", Operator: "LTEQ", Value: "9"},
	}
	filters, inequalityField, err := ParseFilters(specs, ConferenceFields)
	require.NoError(t, err)
	assert.Equal(t, "month", inequalityField)
	assert.Equal(t, []datastore.Filter{
		{Field: "city", Op: datastore.OpEqual, Value: "London"},
		{Field: "month", Op: datastore.OpGreater, Value: int64(6)},
		{Field: "month", Op: datastore.OpLessEqual, Value: int64(9)},
	}, filters)
}

func TestParseFiltersEqualityOnly(t *testing.T) {
	filters, inequalityField, err := ParseFilters([]domain.FilterSpec{
		{Field: "TOPIC", Operator: "EQ", Value: "Go"},
	}, ConferenceFields)
	require.NoError(t, err)
	assert.Empty(t, inequalityField)
	require.Len(t, filters, 1)
	assert.Equal(t, "topics", filters[0].Field)
}

func TestParseFiltersErrors(t *testing.T) {
	tests := []struct {
		name    string
		specs   []domain.FilterSpec
		fields  FieldSet
		wantErr error
	}{
		{
			name:    "unknown field",
			specs:   []domain.FilterSpec{{Field: "COLOR", Operator: "EQ", Value: "red"}},
			fields:  ConferenceFields,
			wantErr: domain.ErrInvalidFilter,
		},
		{
			name:    "unknown operator",
			specs:   []domain.FilterSpec{{Field: "CITY", Operator: "LIKE", Value: "L%"}},
			fields:  ConferenceFields,
			wantErr: domain.ErrInvalidFilter,
		},
		{
			name:    "non-integer value for numeric field",
			specs:   []domain.FilterSpec{{Field: "MONTH", Operator: "EQ", Value: "June"}},
			fields:  ConferenceFields,
			wantErr: domain.ErrInvalidFilterValue,
		},
		{
			name: "two inequality fields",
			specs: []domain.FilterSpec{
				{Field: "MONTH", Operator: "GT", Value: "6"},
				{Field: "MAX_ATTENDEES", Operator: "LT", Value: "100"},
			},
			fields:  ConferenceFields,
			wantErr: domain.ErrMultipleInequalityFields,
		},
		{
			name: "two inequality fields reversed order",
			specs: []domain.FilterSpec{
				{Field: "DURATION", Operator: "LTEQ", Value: "60"},
				{Field: "START_TIME", Operator: "GT", Value: "540"},
			},
			fields:  SessionFields,
			wantErr: domain.ErrMultipleInequalityFields,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseFilters(tt.specs, tt.fields)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParseFiltersSessionFields(t *testing.T) {
	filters, inequalityField, err := ParseFilters([]domain.FilterSpec{
		{Field: "TYPE", Operator: "NE", Value: "Workshop"},
	}, SessionFields)
	require.NoError(t, err)
	assert.Equal(t, "sessionType", inequalityField, "NE counts as an inequality")
	assert.Equal(t, "Workshop", filters[0].Value)
}
