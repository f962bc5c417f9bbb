package domain

import (
	"context"
	"time"

	"confcentral/internal/datastore"
)

// Entity kinds in the hierarchical keyspace.
const (
	KindProfile    = "Profile"
	KindConference = "Conference"
	KindSession    = "Session"
	KindSpeaker    = "Speaker"
	KindLoginCode  = "LoginCode"
)

// Tee shirt size preference values.
const (
	ShirtNotSpecified = "NOT_SPECIFIED"
)

// ShirtSizes is the set of accepted teeShirtSize values.
var ShirtSizes = []string{ShirtNotSpecified, "XS", "S", "M", "L", "XL", "XXL", "XXXL"}

// ValidShirtSize reports whether s is an accepted teeShirtSize value.
func ValidShirtSize(s string) bool {
	for _, v := range ShirtSizes {
		if v == s {
			return true
		}
	}
	return false
}

// Profile is an attendee profile. Created lazily on first authenticated
// access, never deleted. It is the root of its organizer's conference entity
// group and carries the ordered registration and wishlist key lists.
type Profile struct {
	UserID                 string   `json:"user_id"`
	DisplayName            string   `json:"display_name"`
	MainEmail              string   `json:"main_email"`
	TeeShirtSize           string   `json:"tee_shirt_size"`
	ConferenceKeysToAttend []string `json:"conference_keys_to_attend"`
	SessionWishlistKeys    []string `json:"session_wishlist_keys"`
}

// ProfileKey returns the profile key for a user id.
func ProfileKey(userID string) *datastore.Key {
	return datastore.NameKey(KindProfile, userID, nil)
}

// Key returns the profile's datastore key.
func (p *Profile) Key() *datastore.Key {
	return ProfileKey(p.UserID)
}

// ToEntity maps the profile to its stored representation.
func (p *Profile) ToEntity() *datastore.Entity {
	e := datastore.NewEntity(p.Key())
	e.Props["displayName"] = p.DisplayName
	e.Props["mainEmail"] = p.MainEmail
	e.Props["teeShirtSize"] = p.TeeShirtSize
	e.Props["conferenceKeysToAttend"] = append([]string(nil), p.ConferenceKeysToAttend...)
	e.Props["sessionWishlistKeys"] = append([]string(nil), p.SessionWishlistKeys...)
	return e
}

// ProfileFromEntity is the inverse of ToEntity.
func ProfileFromEntity(e *datastore.Entity) *Profile {
	return &Profile{
		UserID:                 e.Key.Name,
		DisplayName:            propString(e, "displayName"),
		MainEmail:              propString(e, "mainEmail"),
		TeeShirtSize:           propString(e, "teeShirtSize"),
		ConferenceKeysToAttend: propStrings(e, "conferenceKeysToAttend"),
		SessionWishlistKeys:    propStrings(e, "sessionWishlistKeys"),
	}
}

// ProfileForm carries the user-modifiable profile fields for saveProfile.
type ProfileForm struct {
	DisplayName  string `json:"display_name"`
	TeeShirtSize string `json:"tee_shirt_size"`
}

// ProfileService defines the business logic for attendee profiles.
type ProfileService interface {
	// GetProfile returns the caller's profile, creating it on first access.
	GetProfile(ctx context.Context, userID, email string) (*Profile, error)
	// SaveProfile updates the user-modifiable fields and returns the profile.
	SaveProfile(ctx context.Context, userID, email string, form *ProfileForm) (*Profile, error)
}

// TokenIssuer issues tokens (e.g. JWT) for an authenticated user.
type TokenIssuer interface {
	Issue(userID, email string, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the caller identity.
type TokenVerifier interface {
	Verify(token string) (userID, email string, err error)
}

// CodeHasher hashes and verifies one-time login codes at rest.
type CodeHasher interface {
	Hash(code string) (string, error)
	Compare(hash, code string) error
}

// AuthService is the passwordless login flow: an emailed one-time code
// exchanged for a bearer token.
type AuthService interface {
	RequestLoginCode(ctx context.Context, email string) error
	VerifyLoginCode(ctx context.Context, email, code string) (token string, err error)
}

func propString(e *datastore.Entity, name string) string {
	s, _ := e.Props[name].(string)
	return s
}

func propStrings(e *datastore.Entity, name string) []string {
	s, _ := e.Props[name].([]string)
	return s
}

func propInt(e *datastore.Entity, name string) int64 {
	n, _ := e.Props[name].(int64)
	return n
}
