package datastore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyPath(t *testing.T) {
	profile := NameKey("Profile", "alice@example.com", nil)
	conf := IDKey("Conference", 42, profile)
	session := IDKey("Session", 7, conf)

	assert.Equal(t, "Profile,alice@example.com", profile.Path())
	assert.Equal(t, "Profile,alice@example.com/Conference,#42", conf.Path())
	assert.Equal(t, "Profile,alice@example.com/Conference,#42/Session,#7", session.Path())
}

func TestKeyEncodeDecode(t *testing.T) {
	tests := []struct {
		name string
		key  *Key
	}{
		{"name key", NameKey("Profile", "alice@example.com", nil)},
		{"id key", IDKey("Conference", 42, nil)},
		{"nested", IDKey("Session", 7, IDKey("Conference", 42, NameKey("Profile", "alice@example.com", nil)))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := DecodeKey(tt.key.Encode())
			require.NoError(t, err)
			assert.True(t, decoded.Equal(tt.key))
			assert.Equal(t, tt.key.Path(), decoded.Path())
		})
	}
}

func TestDecodeKeyInvalid(t *testing.T) {
	tests := []struct {
		name    string
		websafe string
	}{
		{"not base64", "!!!not-base64!!!"},
		{"empty", ""},
		{"missing ident", "Q29uZmVyZW5jZQ"},          // "Conference"
		{"bad id", "Q29uZmVyZW5jZSwjYWJj"},            // "Conference,#abc"
		{"empty kind", "LGFsaWNl"},                    // ",alice"
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeKey(tt.websafe)
			require.ErrorIs(t, err, ErrInvalidKey)
		})
	}
}

func TestKeyHasAncestor(t *testing.T) {
	profile := NameKey("Profile", "alice", nil)
	conf := IDKey("Conference", 1, profile)
	session := IDKey("Session", 2, conf)
	other := IDKey("Conference", 99, profile)

	assert.True(t, session.HasAncestor(conf))
	assert.True(t, session.HasAncestor(profile))
	assert.True(t, conf.HasAncestor(conf))
	assert.False(t, session.HasAncestor(other))
	assert.False(t, conf.HasAncestor(session))
}

func TestKeyEqual(t *testing.T) {
	a := IDKey("Conference", 1, NameKey("Profile", "alice", nil))
	b := IDKey("Conference", 1, NameKey("Profile", "alice", nil))
	c := IDKey("Conference", 2, NameKey("Profile", "alice", nil))

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(nil))
}
