package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"confcentral/internal/datastore"
	"confcentral/internal/datastore/memstore"
	"confcentral/internal/domain"
)

// fakeEmailService captures outbound emails.
type fakeEmailService struct {
	confirmations []*domain.ConferenceConfirmationEmailData
	loginCodes    []*domain.LoginCodeEmailData
}

func (f *fakeEmailService) SendConferenceConfirmation(_ context.Context, data *domain.ConferenceConfirmationEmailData) error {
	f.confirmations = append(f.confirmations, data)
	return nil
}

func (f *fakeEmailService) SendLoginCode(_ context.Context, data *domain.LoginCodeEmailData) error {
	f.loginCodes = append(f.loginCodes, data)
	return nil
}

// plainHasher stores codes unhashed; good enough for flow tests.
type plainHasher struct{}

func (plainHasher) Hash(code string) (string, error) { return "plain:" + code, nil }

func (plainHasher) Compare(hash, code string) error {
	if hash != "plain:"+code {
		return errors.New("mismatch")
	}
	return nil
}

// fakeIssuer returns a deterministic token.
type fakeIssuer struct{}

func (fakeIssuer) Issue(userID, email string, _ time.Duration) (string, error) {
	return fmt.Sprintf("token-for-%s", userID), nil
}

func newAuthFixture() (*memstore.Store, *fakeEmailService, domain.AuthService) {
	store := memstore.New()
	emails := &fakeEmailService{}
	svc := NewAuthService(store, emails, plainHasher{}, fakeIssuer{}, testTimeout)
	return store, emails, svc
}

func TestLoginCodeFlow(t *testing.T) {
	_, emails, svc := newAuthFixture()
	ctx := context.Background()

	require.NoError(t, svc.RequestLoginCode(ctx, " Alice@Example.com "))
	require.Len(t, emails.loginCodes, 1)
	assert.Equal(t, "alice@example.com", emails.loginCodes[0].Email, "email is normalized")
	code := emails.loginCodes[0].Code
	require.Len(t, code, 6)

	token, err := svc.VerifyLoginCode(ctx, "alice@example.com", code)
	require.NoError(t, err)
	assert.Equal(t, "token-for-alice@example.com", token)

	// Codes are single use.
	_, err = svc.VerifyLoginCode(ctx, "alice@example.com", code)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestRequestLoginCodeRejectsBadEmail(t *testing.T) {
	_, _, svc := newAuthFixture()
	for _, email := range []string{"", "   ", "not-an-email"} {
		err := svc.RequestLoginCode(context.Background(), email)
		require.ErrorIs(t, err, domain.ErrInvalidInput, "email %q", email)
	}
}

func TestVerifyLoginCodeWrongCode(t *testing.T) {
	_, emails, svc := newAuthFixture()
	ctx := context.Background()

	require.NoError(t, svc.RequestLoginCode(ctx, "alice@example.com"))
	require.Len(t, emails.loginCodes, 1)

	_, err := svc.VerifyLoginCode(ctx, "alice@example.com", "000000x")
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestVerifyLoginCodeUnknownEmail(t *testing.T) {
	_, _, svc := newAuthFixture()
	_, err := svc.VerifyLoginCode(context.Background(), "nobody@example.com", "123456")
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestVerifyLoginCodeExpired(t *testing.T) {
	store, emails, svc := newAuthFixture()
	ctx := context.Background()

	require.NoError(t, svc.RequestLoginCode(ctx, "alice@example.com"))
	code := emails.loginCodes[0].Code

	// Age the stored code past its TTL.
	key := datastore.NameKey(domain.KindLoginCode, "alice@example.com", nil)
	e, err := store.Get(ctx, key)
	require.NoError(t, err)
	e.Props["expiresAt"] = time.Now().Add(-time.Minute).Unix()
	require.NoError(t, store.Put(ctx, e))

	_, err = svc.VerifyLoginCode(ctx, "alice@example.com", code)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}
