package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"confcentral/internal/datastore/memstore"
	"confcentral/internal/domain"
)

func TestGetProfileCreatesOnFirstAccess(t *testing.T) {
	svc := NewProfileService(memstore.New(), testTimeout)

	prof, err := svc.GetProfile(context.Background(), "alice@example.com", "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", prof.UserID)
	assert.Equal(t, "alice", prof.DisplayName, "display name defaults to the email local part")
	assert.Equal(t, "alice@example.com", prof.MainEmail)
	assert.Equal(t, domain.ShirtNotSpecified, prof.TeeShirtSize)
	assert.Empty(t, prof.ConferenceKeysToAttend)
	assert.Empty(t, prof.SessionWishlistKeys)
}

func TestGetProfileRequiresUser(t *testing.T) {
	svc := NewProfileService(memstore.New(), testTimeout)
	_, err := svc.GetProfile(context.Background(), "", "")
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestSaveProfile(t *testing.T) {
	svc := NewProfileService(memstore.New(), testTimeout)
	ctx := context.Background()

	prof, err := svc.SaveProfile(ctx, "alice@example.com", "alice@example.com", &domain.ProfileForm{
		DisplayName:  "Alice L.",
		TeeShirtSize: "M",
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice L.", prof.DisplayName)
	assert.Equal(t, "M", prof.TeeShirtSize)

	// Empty fields keep their stored values.
	prof, err = svc.SaveProfile(ctx, "alice@example.com", "alice@example.com", &domain.ProfileForm{})
	require.NoError(t, err)
	assert.Equal(t, "Alice L.", prof.DisplayName)
	assert.Equal(t, "M", prof.TeeShirtSize)
}

func TestSaveProfileRejectsUnknownShirtSize(t *testing.T) {
	svc := NewProfileService(memstore.New(), testTimeout)
	_, err := svc.SaveProfile(context.Background(), "alice@example.com", "alice@example.com", &domain.ProfileForm{
		TeeShirtSize: "HUGE",
	})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}
