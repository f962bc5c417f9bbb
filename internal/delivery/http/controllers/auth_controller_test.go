package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"confcentral/internal/delivery/http/helpers"
	"confcentral/internal/domain"
)

// fakeAuthService implements domain.AuthService for handler tests.
type fakeAuthService struct {
	token      string
	requestErr error
	verifyErr  error

	lastEmail string
	lastCode  string
}

func (f *fakeAuthService) RequestLoginCode(ctx context.Context, email string) error {
	f.lastEmail = email
	return f.requestErr
}

func (f *fakeAuthService) VerifyLoginCode(ctx context.Context, email, code string) (string, error) {
	f.lastEmail, f.lastCode = email, code
	if f.verifyErr != nil {
		return "", f.verifyErr
	}
	return f.token, nil
}

func TestAuthController_RequestCode(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		fake         *fakeAuthService
		wantStatus   int
		wantBodyCode string
	}{
		{
			name:       "success",
			body:       `{"email":"alice@example.com"}`,
			fake:       &fakeAuthService{},
			wantStatus: http.StatusAccepted,
		},
		{
			name:         "missing email",
			body:         `{}`,
			fake:         &fakeAuthService{},
			wantStatus:   http.StatusBadRequest,
			wantBodyCode: helpers.ErrCodeBadRequest,
		},
		{
			name:         "malformed email",
			body:         `{"email":"not-an-address"}`,
			fake:         &fakeAuthService{},
			wantStatus:   http.StatusBadRequest,
			wantBodyCode: helpers.ErrCodeBadRequest,
		},
		{
			name:         "service error",
			body:         `{"email":"alice@example.com"}`,
			fake:         &fakeAuthService{requestErr: assert.AnError},
			wantStatus:   http.StatusInternalServerError,
			wantBodyCode: helpers.ErrCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := NewAuthController(testLogger(), tt.fake)

			req := httptest.NewRequest(http.MethodPost, "http://test/auth/request-code", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()

			ctrl.RequestCode(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			envelope := decodeEnvelope(t, rr)
			if tt.wantStatus == http.StatusAccepted {
				require.Nil(t, envelope.Error)
				assert.Equal(t, "alice@example.com", tt.fake.lastEmail)
			} else {
				require.NotNil(t, envelope.Error)
				assert.Equal(t, tt.wantBodyCode, envelope.Error.Code)
			}
		})
	}
}

func TestAuthController_VerifyCode(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		fake         *fakeAuthService
		wantStatus   int
		wantBodyCode string
	}{
		{
			name:       "success",
			body:       `{"email":"alice@example.com","code":"123456"}`,
			fake:       &fakeAuthService{token: "signed-token"},
			wantStatus: http.StatusOK,
		},
		{
			name:         "missing code",
			body:         `{"email":"alice@example.com"}`,
			fake:         &fakeAuthService{},
			wantStatus:   http.StatusBadRequest,
			wantBodyCode: helpers.ErrCodeBadRequest,
		},
		{
			name:         "wrong code",
			body:         `{"email":"alice@example.com","code":"000000"}`,
			fake:         &fakeAuthService{verifyErr: domain.ErrUnauthorized},
			wantStatus:   http.StatusUnauthorized,
			wantBodyCode: helpers.ErrCodeUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := NewAuthController(testLogger(), tt.fake)

			req := httptest.NewRequest(http.MethodPost, "http://test/auth/verify-code", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()

			ctrl.VerifyCode(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			envelope := decodeEnvelope(t, rr)
			if tt.wantStatus == http.StatusOK {
				require.Nil(t, envelope.Error)
				assert.Equal(t, "123456", tt.fake.lastCode)
				raw, err := json.Marshal(envelope.Data)
				require.NoError(t, err)
				var out VerifyCodeResponse
				require.NoError(t, json.Unmarshal(raw, &out))
				assert.Equal(t, "signed-token", out.Token)
				assert.Equal(t, "Bearer", out.TokenType)
			} else {
				require.NotNil(t, envelope.Error)
				assert.Equal(t, tt.wantBodyCode, envelope.Error.Code)
			}
		})
	}
}
