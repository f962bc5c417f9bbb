package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"confcentral/internal/datastore/memstore"
	"confcentral/internal/domain"
)

const testTimeout = 5 * time.Second

// fakeQueue records enqueued tasks.
type fakeQueue struct {
	mu    sync.Mutex
	tasks []domain.Task
}

func (q *fakeQueue) Enqueue(_ context.Context, name string, params map[string]string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, domain.Task{Name: name, Params: params})
	return nil
}

func (q *fakeQueue) byName(name string) []domain.Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []domain.Task
	for _, task := range q.tasks {
		if task.Name == name {
			out = append(out, task)
		}
	}
	return out
}

func strPtr(s string) *string { return &s }

func int64Ptr(n int64) *int64 { return &n }

func newConferenceFixture() (*memstore.Store, *fakeQueue, domain.ConferenceService) {
	store := memstore.New()
	queue := &fakeQueue{}
	return store, queue, NewConferenceService(store, queue, testTimeout)
}

func createConference(t *testing.T, svc domain.ConferenceService, userID string, form *domain.ConferenceForm) *domain.ConferenceOut {
	t.Helper()
	out, err := svc.CreateConference(context.Background(), userID, userID, form)
	require.NoError(t, err)
	return out
}

func TestCreateConferenceDefaults(t *testing.T) {
	_, queue, svc := newConferenceFixture()

	out := createConference(t, svc, "alice@example.com", &domain.ConferenceForm{
		Name: strPtr("GopherCon"),
	})

	assert.NotEmpty(t, out.WebsafeKey)
	assert.Equal(t, "GopherCon", out.Name)
	assert.Equal(t, domain.DefaultCity, out.City)
	assert.Equal(t, domain.DefaultTopics, out.Topics)
	assert.Equal(t, "alice@example.com", out.OrganizerUserID)
	assert.Equal(t, "alice", out.OrganizerDisplayName)
	assert.Zero(t, out.Month)
	assert.Zero(t, out.SeatsAvailable)

	emails := queue.byName(domain.TaskSendConfirmationEmail)
	require.Len(t, emails, 1)
	assert.Equal(t, "alice@example.com", emails[0].Params["email"])
	assert.Equal(t, "GopherCon", emails[0].Params["conferenceName"])
}

func TestCreateConferenceFullForm(t *testing.T) {
	_, _, svc := newConferenceFixture()

	out := createConference(t, svc, "alice@example.com", &domain.ConferenceForm{
		Name:         strPtr("GopherCon"),
		Description:  strPtr("The Go conference"),
		City:         strPtr("Denver"),
		Topics:       []string{"Go", "Cloud"},
		StartDate:    strPtr("2026-07-13"),
		EndDate:      strPtr("2026-07-16"),
		MaxAttendees: int64Ptr(100),
	})

	assert.Equal(t, "Denver", out.City)
	assert.Equal(t, []string{"Go", "Cloud"}, out.Topics)
	assert.Equal(t, int64(7), out.Month, "month derives from the start date")
	assert.Equal(t, int64(100), out.MaxAttendees)
	assert.Equal(t, int64(100), out.SeatsAvailable)
	assert.Equal(t, "2026-07-13", out.StartDate)
	assert.Equal(t, "2026-07-16", out.EndDate)
}

func TestCreateConferenceRequiresName(t *testing.T) {
	_, _, svc := newConferenceFixture()
	_, err := svc.CreateConference(context.Background(), "alice@example.com", "alice@example.com", &domain.ConferenceForm{})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreateConferenceRequiresUser(t *testing.T) {
	_, _, svc := newConferenceFixture()
	_, err := svc.CreateConference(context.Background(), "", "", &domain.ConferenceForm{Name: strPtr("X")})
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestGetConference(t *testing.T) {
	_, _, svc := newConferenceFixture()
	created := createConference(t, svc, "alice@example.com", &domain.ConferenceForm{Name: strPtr("GopherCon")})

	got, err := svc.GetConference(context.Background(), created.WebsafeKey)
	require.NoError(t, err)
	assert.Equal(t, created.WebsafeKey, got.WebsafeKey)
	assert.Equal(t, "GopherCon", got.Name)
	assert.Equal(t, "alice", got.OrganizerDisplayName)
}

func TestGetConferenceNotFound(t *testing.T) {
	_, _, svc := newConferenceFixture()
	_, err := svc.GetConference(context.Background(), "not-a-key")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateConference(t *testing.T) {
	_, _, svc := newConferenceFixture()
	created := createConference(t, svc, "alice@example.com", &domain.ConferenceForm{
		Name:      strPtr("GopherCon"),
		City:      strPtr("Denver"),
		StartDate: strPtr("2026-07-13"),
	})

	out, err := svc.UpdateConference(context.Background(), "alice@example.com", created.WebsafeKey, &domain.ConferenceForm{
		City:      strPtr("Berlin"),
		StartDate: strPtr("2026-09-01"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Berlin", out.City)
	assert.Equal(t, int64(9), out.Month, "month follows the new start date")
	assert.Equal(t, "GopherCon", out.Name, "absent fields keep their values")
}

func TestUpdateConferenceLoweredCapClampsSeats(t *testing.T) {
	_, _, svc := newConferenceFixture()
	created := createConference(t, svc, "alice@example.com", &domain.ConferenceForm{
		Name: strPtr("GopherCon"), MaxAttendees: int64Ptr(3),
	})

	ctx := context.Background()
	_, err := svc.Register(ctx, "a@example.com", "a@example.com", created.WebsafeKey)
	require.NoError(t, err)

	// Lowering the cap below the open seats clamps them.
	out, err := svc.UpdateConference(ctx, "alice@example.com", created.WebsafeKey, &domain.ConferenceForm{
		MaxAttendees: int64Ptr(1),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.MaxAttendees)
	assert.Equal(t, int64(1), out.SeatsAvailable)

	// The earlier attendee's returned seat cannot exceed the new cap.
	ok, err := svc.Unregister(ctx, "a@example.com", "a@example.com", created.WebsafeKey)
	require.NoError(t, err)
	assert.True(t, ok)
	got, err := svc.GetConference(ctx, created.WebsafeKey)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.SeatsAvailable)
}

func TestUpdateConferenceOnlyOwner(t *testing.T) {
	_, _, svc := newConferenceFixture()
	created := createConference(t, svc, "alice@example.com", &domain.ConferenceForm{Name: strPtr("GopherCon")})

	_, err := svc.UpdateConference(context.Background(), "bob@example.com", created.WebsafeKey, &domain.ConferenceForm{
		City: strPtr("Berlin"),
	})
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestQueryConferences(t *testing.T) {
	_, _, svc := newConferenceFixture()
	createConference(t, svc, "alice@example.com", &domain.ConferenceForm{
		Name: strPtr("June London"), City: strPtr("London"), StartDate: strPtr("2026-06-01"),
	})
	createConference(t, svc, "alice@example.com", &domain.ConferenceForm{
		Name: strPtr("September London"), City: strPtr("London"), StartDate: strPtr("2026-09-01"),
	})
	createConference(t, svc, "bob@example.com", &domain.ConferenceForm{
		Name: strPtr("June Paris"), City: strPtr("Paris"), StartDate: strPtr("2026-06-01"),
	})

	out, err := svc.QueryConferences(context.Background(), []domain.FilterSpec{
		{Field: "CITY", Operator: "EQ", Value: "London"},
		{Field: "MONTH", Operator: "GT", Value: "6"},
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "September London", out[0].Name)
	assert.Equal(t, "alice", out[0].OrganizerDisplayName)
}

func TestQueryConferencesRejectsTwoInequalityFields(t *testing.T) {
	_, _, svc := newConferenceFixture()
	_, err := svc.QueryConferences(context.Background(), []domain.FilterSpec{
		{Field: "MONTH", Operator: "GT", Value: "6"},
		{Field: "MAX_ATTENDEES", Operator: "LT", Value: "100"},
	})
	require.ErrorIs(t, err, domain.ErrMultipleInequalityFields)
}

func TestGetConferencesCreated(t *testing.T) {
	_, _, svc := newConferenceFixture()
	createConference(t, svc, "alice@example.com", &domain.ConferenceForm{Name: strPtr("B Conf")})
	createConference(t, svc, "alice@example.com", &domain.ConferenceForm{Name: strPtr("A Conf")})
	createConference(t, svc, "bob@example.com", &domain.ConferenceForm{Name: strPtr("Bob Conf")})

	out, err := svc.GetConferencesCreated(context.Background(), "alice@example.com", "alice@example.com")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "A Conf", out[0].Name)
	assert.Equal(t, "B Conf", out[1].Name)
}

func TestRegisterAndAttend(t *testing.T) {
	_, _, svc := newConferenceFixture()
	created := createConference(t, svc, "organizer@example.com", &domain.ConferenceForm{
		Name: strPtr("Tiny Conf"), MaxAttendees: int64Ptr(2),
	})

	ctx := context.Background()
	ok, err := svc.Register(ctx, "a@example.com", "a@example.com", created.WebsafeKey)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = svc.Register(ctx, "b@example.com", "b@example.com", created.WebsafeKey)
	require.NoError(t, err)
	assert.True(t, ok)

	// Sold out for the third attendee.
	_, err = svc.Register(ctx, "c@example.com", "c@example.com", created.WebsafeKey)
	require.ErrorIs(t, err, domain.ErrConflict)

	got, err := svc.GetConference(ctx, created.WebsafeKey)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.SeatsAvailable)

	attending, err := svc.GetConferencesToAttend(ctx, "a@example.com", "a@example.com")
	require.NoError(t, err)
	require.Len(t, attending, 1)
	assert.Equal(t, created.WebsafeKey, attending[0].WebsafeKey)
}

func TestRegisterConcurrent(t *testing.T) {
	_, _, svc := newConferenceFixture()
	const seats = 3
	const attendees = 8
	created := createConference(t, svc, "organizer@example.com", &domain.ConferenceForm{
		Name: strPtr("Tiny Conf"), MaxAttendees: int64Ptr(seats),
	})

	// Race more registrations than seats; the transaction must serialize on
	// seatsAvailable so exactly seats of them win and none oversell.
	ctx := context.Background()
	var wg sync.WaitGroup
	errs := make([]error, attendees)
	for i := 0; i < attendees; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := fmt.Sprintf("user%d@example.com", i)
			_, errs[i] = svc.Register(ctx, user, user, created.WebsafeKey)
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		if err == nil {
			won++
		} else {
			require.ErrorIs(t, err, domain.ErrConflict)
		}
	}
	assert.Equal(t, seats, won)

	got, err := svc.GetConference(ctx, created.WebsafeKey)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.SeatsAvailable)
}

func TestRegisterTwiceConflicts(t *testing.T) {
	_, _, svc := newConferenceFixture()
	created := createConference(t, svc, "organizer@example.com", &domain.ConferenceForm{
		Name: strPtr("Tiny Conf"), MaxAttendees: int64Ptr(10),
	})

	ctx := context.Background()
	_, err := svc.Register(ctx, "a@example.com", "a@example.com", created.WebsafeKey)
	require.NoError(t, err)
	_, err = svc.Register(ctx, "a@example.com", "a@example.com", created.WebsafeKey)
	require.ErrorIs(t, err, domain.ErrConflict)
}

func TestUnregister(t *testing.T) {
	_, _, svc := newConferenceFixture()
	created := createConference(t, svc, "organizer@example.com", &domain.ConferenceForm{
		Name: strPtr("Tiny Conf"), MaxAttendees: int64Ptr(1),
	})

	ctx := context.Background()
	_, err := svc.Register(ctx, "a@example.com", "a@example.com", created.WebsafeKey)
	require.NoError(t, err)

	ok, err := svc.Unregister(ctx, "a@example.com", "a@example.com", created.WebsafeKey)
	require.NoError(t, err)
	assert.True(t, ok)

	// The seat is back and the attend list is empty.
	got, err := svc.GetConference(ctx, created.WebsafeKey)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.SeatsAvailable)
	attending, err := svc.GetConferencesToAttend(ctx, "a@example.com", "a@example.com")
	require.NoError(t, err)
	assert.Empty(t, attending)

	// Unregistering again is not an error, just a no-op.
	ok, err = svc.Unregister(ctx, "a@example.com", "a@example.com", created.WebsafeKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegisterUnknownConference(t *testing.T) {
	_, _, svc := newConferenceFixture()
	_, err := svc.Register(context.Background(), "a@example.com", "a@example.com", "bogus")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
