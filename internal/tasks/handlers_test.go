package tasks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"confcentral/internal/cache"
	"confcentral/internal/datastore"
	"confcentral/internal/datastore/memstore"
	"confcentral/internal/domain"
)

type capturedEmail struct {
	confirmation *domain.ConferenceConfirmationEmailData
}

type captureEmailService struct {
	sent []capturedEmail
}

func (s *captureEmailService) SendConferenceConfirmation(_ context.Context, data *domain.ConferenceConfirmationEmailData) error {
	s.sent = append(s.sent, capturedEmail{confirmation: data})
	return nil
}

func (s *captureEmailService) SendLoginCode(context.Context, *domain.LoginCodeEmailData) error {
	return nil
}

func TestConfirmationEmailHandler(t *testing.T) {
	emails := &captureEmailService{}
	h := NewConfirmationEmailHandler(emails)

	err := h(context.Background(), domain.Task{
		Name: domain.TaskSendConfirmationEmail,
		Params: map[string]string{
			"email":          "alice@example.com",
			"conferenceName": "GopherCon",
			"conferenceInfo": "GopherCon (Denver, 2026-07-13 - 2026-07-16)",
		},
	})
	require.NoError(t, err)
	require.Len(t, emails.sent, 1)
	assert.Equal(t, "alice@example.com", emails.sent[0].confirmation.Email)
	assert.Equal(t, "GopherCon", emails.sent[0].confirmation.ConferenceName)
}

func putSession(t *testing.T, store *memstore.Store, conf *datastore.Key, id int64, name string, speakerKeys []string) {
	t.Helper()
	require.NoError(t, store.Put(context.Background(), &datastore.Entity{
		Key: datastore.IDKey(domain.KindSession, id, conf),
		Props: map[string]any{
			"name":        name,
			"speakerKeys": speakerKeys,
		},
	}))
}

func TestFeaturedSpeakerHandler(t *testing.T) {
	store := memstore.New()
	c := cache.New()
	ctx := context.Background()

	conf := datastore.IDKey(domain.KindConference, 1, nil)
	wsck := conf.Encode()

	speakerKey := datastore.NameKey(domain.KindSpeaker, "rob-id", nil)
	require.NoError(t, store.Put(ctx, &datastore.Entity{
		Key:   speakerKey,
		Props: map[string]any{"name": "Rob"},
	}))
	wsk := speakerKey.Encode()

	putSession(t, store, conf, 1, "First Talk", []string{wsk})

	h := NewFeaturedSpeakerHandler(store, c)

	// One session only: the speaker is not featured yet.
	require.NoError(t, h(ctx, domain.Task{
		Name:   domain.TaskCheckFeaturedSpeaker,
		Params: map[string]string{"wsck": wsck, "sessionName": "First Talk", "speakerKeys": wsk},
	}))
	_, ok := c.Get(domain.FeaturedSpeakerCacheKey(wsck))
	assert.False(t, ok)

	// A second session by the same speaker makes them featured.
	putSession(t, store, conf, 2, "Second Talk", []string{wsk})
	require.NoError(t, h(ctx, domain.Task{
		Name:   domain.TaskCheckFeaturedSpeaker,
		Params: map[string]string{"wsck": wsck, "sessionName": "Second Talk", "speakerKeys": wsk},
	}))

	v, ok := c.Get(domain.FeaturedSpeakerCacheKey(wsck))
	require.True(t, ok)
	featured, ok := v.(*domain.FeaturedSpeaker)
	require.True(t, ok)
	assert.Equal(t, "Rob", featured.SpeakerName)
	assert.Equal(t, "Second Talk", featured.SessionName)
}

func TestFeaturedSpeakerHandlerBadKey(t *testing.T) {
	h := NewFeaturedSpeakerHandler(memstore.New(), cache.New())
	err := h(context.Background(), domain.Task{
		Name:   domain.TaskCheckFeaturedSpeaker,
		Params: map[string]string{"wsck": "not-a-key"},
	})
	require.Error(t, err)
}
