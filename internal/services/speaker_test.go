package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"confcentral/internal/cache"
	"confcentral/internal/datastore/memstore"
	"confcentral/internal/domain"
)

func TestCreateAndGetSpeaker(t *testing.T) {
	svc := NewSpeakerService(memstore.New(), cache.New(), testTimeout)
	ctx := context.Background()

	created, err := svc.CreateSpeaker(ctx, &domain.SpeakerForm{Name: "Rob", Organization: "Acme"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.WebsafeKey)

	got, err := svc.GetSpeaker(ctx, created.WebsafeKey)
	require.NoError(t, err)
	assert.Equal(t, "Rob", got.Name)
	assert.Equal(t, "Acme", got.Organization)
}

func TestCreateSpeakerRequiresName(t *testing.T) {
	svc := NewSpeakerService(memstore.New(), cache.New(), testTimeout)
	_, err := svc.CreateSpeaker(context.Background(), &domain.SpeakerForm{})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGetSpeakerNotFound(t *testing.T) {
	svc := NewSpeakerService(memstore.New(), cache.New(), testTimeout)
	_, err := svc.GetSpeaker(context.Background(), "bogus")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetFeaturedSpeaker(t *testing.T) {
	c := cache.New()
	svc := NewSpeakerService(memstore.New(), c, testTimeout)
	ctx := context.Background()

	// Miss yields an empty tuple, not an error.
	featured, err := svc.GetFeaturedSpeaker(ctx, "some-conf-key")
	require.NoError(t, err)
	assert.Empty(t, featured.SpeakerName)
	assert.Empty(t, featured.SessionName)

	c.Set(domain.FeaturedSpeakerCacheKey("some-conf-key"), &domain.FeaturedSpeaker{
		SpeakerName: "Rob",
		SessionName: "Concurrency Patterns",
	})
	featured, err = svc.GetFeaturedSpeaker(ctx, "some-conf-key")
	require.NoError(t, err)
	assert.Equal(t, "Rob", featured.SpeakerName)
	assert.Equal(t, "Concurrency Patterns", featured.SessionName)
}
