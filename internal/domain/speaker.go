package domain

import (
	"context"
	"fmt"

	"confcentral/internal/datastore"
)

// Speaker is an independent top-level entity, referenced by websafe key from
// zero or more sessions across conferences.
type Speaker struct {
	Key          *datastore.Key `json:"-"`
	Name         string         `json:"name"`
	Organization string         `json:"organization"`
}

// WebsafeKey returns the speaker key in websafe form.
func (s *Speaker) WebsafeKey() string {
	return s.Key.Encode()
}

// ToEntity maps the speaker to its stored representation.
func (s *Speaker) ToEntity() *datastore.Entity {
	e := datastore.NewEntity(s.Key)
	e.Props["name"] = s.Name
	e.Props["organization"] = s.Organization
	return e
}

// SpeakerFromEntity is the inverse of ToEntity.
func SpeakerFromEntity(e *datastore.Entity) *Speaker {
	return &Speaker{
		Key:          e.Key,
		Name:         propString(e, "name"),
		Organization: propString(e, "organization"),
	}
}

// SpeakerForm is the inbound create request for a speaker.
type SpeakerForm struct {
	Name         string `json:"name"`
	Organization string `json:"organization"`
}

// NewSpeaker builds a Speaker from a create request. Name is required; there
// is no ownership restriction.
func NewSpeaker(key *datastore.Key, form *SpeakerForm) (*Speaker, error) {
	if form.Name == "" {
		return nil, fmt.Errorf("%w: speaker 'name' field required", ErrInvalidInput)
	}
	return &Speaker{Key: key, Name: form.Name, Organization: form.Organization}, nil
}

// SpeakerOut is the response representation of a speaker.
type SpeakerOut struct {
	WebsafeKey   string `json:"websafe_key"`
	Name         string `json:"name"`
	Organization string `json:"organization"`
}

// ToForm maps a speaker back to its response representation.
func (s *Speaker) ToForm() *SpeakerOut {
	return &SpeakerOut{WebsafeKey: s.WebsafeKey(), Name: s.Name, Organization: s.Organization}
}

// FeaturedSpeaker is the cached (speaker name, session name) tuple set when a
// speaker appears in more than one session of a conference.
type FeaturedSpeaker struct {
	SpeakerName string `json:"speaker_name"`
	SessionName string `json:"session_name"`
}

// SpeakerService defines the business logic for speakers.
type SpeakerService interface {
	CreateSpeaker(ctx context.Context, form *SpeakerForm) (*SpeakerOut, error)
	GetSpeaker(ctx context.Context, websafeKey string) (*SpeakerOut, error)
	// GetFeaturedSpeaker reads the cached featured-speaker tuple for a
	// conference; a cache miss returns an empty tuple with no error.
	GetFeaturedSpeaker(ctx context.Context, websafeConfKey string) (*FeaturedSpeaker, error)
}
