package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTIssuer_Issue(t *testing.T) {
	secret := "test-secret"
	issuer := NewJWTIssuer(secret)

	token, err := issuer.Issue("u@example.com", "u@example.com", 24*time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// Parse and verify claims
	parsed, err := jwt.ParseWithClaims(token, &jwtClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	claims, ok := parsed.Claims.(*jwtClaims)
	require.True(t, ok)
	assert.Equal(t, "u@example.com", claims.Subject)
	assert.Equal(t, "u@example.com", claims.Email)
}

func TestJWTVerifier_Verify(t *testing.T) {
	secret := "test-secret"
	issuer := NewJWTIssuer(secret)
	verifier := NewJWTVerifier(secret)

	token, err := issuer.Issue("alice@example.com", "alice@example.com", time.Hour)
	require.NoError(t, err)

	userID, email, err := verifier.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", userID)
	assert.Equal(t, "alice@example.com", email)
}

func TestJWTVerifier_Verify_Errors(t *testing.T) {
	verifier := NewJWTVerifier("test-secret")

	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{
			name:  "garbage token",
			token: func(t *testing.T) string { return "not-a-token" },
		},
		{
			name: "wrong secret",
			token: func(t *testing.T) string {
				tok, err := NewJWTIssuer("other-secret").Issue("u@example.com", "u@example.com", time.Hour)
				require.NoError(t, err)
				return tok
			},
		},
		{
			name: "expired token",
			token: func(t *testing.T) string {
				tok, err := NewJWTIssuer("test-secret").Issue("u@example.com", "u@example.com", -time.Minute)
				require.NoError(t, err)
				return tok
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := verifier.Verify(tt.token(t))
			require.Error(t, err)
		})
	}
}
