package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"confcentral/internal/datastore"
	"confcentral/internal/datastore/memstore"
	"confcentral/internal/domain"
)

func TestBuild(t *testing.T) {
	ancestor := datastore.NameKey("Profile", "alice", nil)
	filters := []datastore.Filter{{Field: "month", Op: datastore.OpGreater, Value: int64(6)}}

	q := Build("Conference", ancestor, filters, "month")
	assert.Equal(t, "Conference", q.Kind)
	assert.Equal(t, ancestor, q.Ancestor)
	assert.Equal(t, []datastore.Order{{Field: "month"}, {Field: "name"}}, q.Orders,
		"inequality field must lead the sort order")

	q = Build("Conference", nil, nil, "")
	assert.Equal(t, []datastore.Order{{Field: "name"}}, q.Orders)
}

func seedConferences(t *testing.T) *memstore.Store {
	t.Helper()
	s := memstore.New()
	rows := []struct {
		name  string
		city  string
		month int64
	}{
		{"AppEngine Days", "London", 6},
		{"Borderless Go", "London", 9},
		{"Cloud Summit", "Paris", 7},
		{"Datastore Deep Dive", "London", 7},
	}
	for i, row := range rows {
		key := datastore.IDKey("Conference", int64(i+1), nil)
		require.NoError(t, s.Put(context.Background(), &datastore.Entity{
			Key: key,
			Props: map[string]any{
				"name":  row.name,
				"city":  row.city,
				"month": row.month,
			},
		}))
	}
	return s
}

func TestRun(t *testing.T) {
	s := seedConferences(t)

	it, err := Run(context.Background(), s, "Conference", nil, []domain.FilterSpec{
		{Field: "CITY", Operator: "EQ", Value: "London"},
		{Field: "MONTH", Operator: "GTEQ", Value: "7"},
	}, ConferenceFields)
	require.NoError(t, err)

	entities, err := datastore.All(it)
	require.NoError(t, err)
	var names []string
	for _, e := range entities {
		names = append(names, e.Props["name"].(string))
	}
	// Sorted by the inequality field first, then name.
	assert.Equal(t, []string{"Datastore Deep Dive", "Borderless Go"}, names)
}

func TestRunRejectsInvalidSpecs(t *testing.T) {
	s := seedConferences(t)
	_, err := Run(context.Background(), s, "Conference", nil, []domain.FilterSpec{
		{Field: "CITY", Operator: "GT", Value: "London"},
		{Field: "MONTH", Operator: "LT", Value: "9"},
	}, ConferenceFields)
	require.ErrorIs(t, err, domain.ErrMultipleInequalityFields)
}

func seedSessions(t *testing.T) (*memstore.Store, *datastore.Key) {
	t.Helper()
	s := memstore.New()
	conf := datastore.IDKey("Conference", 1, nil)
	rows := []struct {
		name        string
		sessionType string
		startTime   int64
	}{
		{"Morning Keynote", "Keynote", 9 * 60},
		{"Intro Workshop", "Workshop", 10 * 60},
		{"Evening Workshop", "Workshop", 19 * 60},
		{"Closing Talk", "Presentation", 20 * 60},
	}
	for i, row := range rows {
		key := datastore.IDKey("Session", int64(i+1), conf)
		require.NoError(t, s.Put(context.Background(), &datastore.Entity{
			Key: key,
			Props: map[string]any{
				"name":        row.name,
				"sessionType": row.sessionType,
				"startTime":   row.startTime,
			},
		}))
	}
	return s, conf
}

func TestRunDouble(t *testing.T) {
	s, conf := seedSessions(t)

	// Non-workshop sessions before 19:00: the type inequality runs through the
	// store, the start-time cutoff in memory.
	entities, err := RunDouble(context.Background(), s, "Session", conf,
		domain.FilterSpec{Field: "TYPE", Operator: "NE", Value: "Workshop"},
		domain.FilterSpec{Field: "START_TIME", Operator: "LT", Value: "1140"},
		SessionFields)
	require.NoError(t, err)

	var names []string
	for _, e := range entities {
		names = append(names, e.Props["name"].(string))
	}
	assert.Equal(t, []string{"Morning Keynote"}, names)
}

func TestRunDoubleErrors(t *testing.T) {
	s, conf := seedSessions(t)

	tests := []struct {
		name   string
		first  domain.FilterSpec
		second domain.FilterSpec
	}{
		{
			name:   "first must be inequality",
			first:  domain.FilterSpec{Field: "TYPE", Operator: "EQ", Value: "Workshop"},
			second: domain.FilterSpec{Field: "START_TIME", Operator: "LT", Value: "1140"},
		},
		{
			name:   "second supports only LT and GT",
			first:  domain.FilterSpec{Field: "TYPE", Operator: "NE", Value: "Workshop"},
			second: domain.FilterSpec{Field: "START_TIME", Operator: "LTEQ", Value: "1140"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RunDouble(context.Background(), s, "Session", conf, tt.first, tt.second, SessionFields)
			require.ErrorIs(t, err, domain.ErrInvalidFilter)
		})
	}
}

func TestFilterInMemory(t *testing.T) {
	entities := []*datastore.Entity{
		{Key: datastore.IDKey("Session", 1, nil), Props: map[string]any{"startTime": int64(540)}},
		{Key: datastore.IDKey("Session", 2, nil), Props: map[string]any{"startTime": int64(1200)}},
	}
	out := FilterInMemory(entities, datastore.Filter{Field: "startTime", Op: datastore.OpLess, Value: int64(600)})
	require.Len(t, out, 1)
	assert.Equal(t, int64(540), out[0].Props["startTime"])
}
