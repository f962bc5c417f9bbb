package domain

import (
	"context"
	"fmt"
	"time"

	"confcentral/internal/datastore"
)

// Defaults applied to missing optional session fields on creation.
var (
	DefaultSessionType = "Presentation"
	DefaultLocation    = "default location"
)

// Session is a conference session, a child of its Conference in the
// keyspace. StartTime is minutes since midnight; Duration is minutes.
type Session struct {
	Key         *datastore.Key `json:"-"`
	Name        string         `json:"name"`
	Highlights  string         `json:"highlights"`
	SpeakerKeys []string       `json:"speaker_keys"`
	Duration    int64          `json:"duration"`
	SessionType string         `json:"session_type"`
	Date        time.Time      `json:"-"`
	StartTime   int64          `json:"start_time"`
	Location    string         `json:"location"`
}

// WebsafeKey returns the session key in websafe form.
func (s *Session) WebsafeKey() string {
	return s.Key.Encode()
}

// ToEntity maps the session to its stored representation.
func (s *Session) ToEntity() *datastore.Entity {
	e := datastore.NewEntity(s.Key)
	e.Props["name"] = s.Name
	e.Props["highlights"] = s.Highlights
	e.Props["speakerKeys"] = append([]string(nil), s.SpeakerKeys...)
	e.Props["duration"] = s.Duration
	e.Props["sessionType"] = s.SessionType
	e.Props["date"] = FormatDate(s.Date)
	e.Props["startTime"] = s.StartTime
	e.Props["location"] = s.Location
	return e
}

// SessionFromEntity is the inverse of ToEntity.
func SessionFromEntity(e *datastore.Entity) *Session {
	s := &Session{
		Key:         e.Key,
		Name:        propString(e, "name"),
		Highlights:  propString(e, "highlights"),
		SpeakerKeys: propStrings(e, "speakerKeys"),
		Duration:    propInt(e, "duration"),
		SessionType: propString(e, "sessionType"),
		StartTime:   propInt(e, "startTime"),
		Location:    propString(e, "location"),
	}
	if d := propString(e, "date"); d != "" {
		s.Date, _ = ParseDate(d)
	}
	return s
}

// SessionForm is the inbound create request for a session. Date is
// YYYY-MM-DD; StartTime is an HH-MM clock string.
type SessionForm struct {
	Name        string   `json:"name"`
	Highlights  string   `json:"highlights"`
	SpeakerKeys []string `json:"speaker_keys"`
	Duration    int64    `json:"duration"`
	SessionType string   `json:"session_type"`
	Date        string   `json:"date"`
	StartTime   string   `json:"start_time"`
	Location    string   `json:"location"`
}

// NewSession builds a Session from a create request scoped under conf. Name,
// date, and start time are required; the date must fall within the
// conference dates.
func NewSession(key *datastore.Key, conf *Conference, form *SessionForm) (*Session, error) {
	if form.Name == "" {
		return nil, fmt.Errorf("%w: session 'name' field required", ErrInvalidInput)
	}
	if form.Date == "" {
		return nil, fmt.Errorf("%w: session 'date' field required", ErrInvalidInput)
	}
	if form.StartTime == "" {
		return nil, fmt.Errorf("%w: session 'start_time' field required", ErrInvalidInput)
	}
	date, err := ParseDate(form.Date)
	if err != nil {
		return nil, err
	}
	if date.Before(conf.StartDate) || date.After(conf.EndDate) {
		return nil, fmt.Errorf("%w: the session time is outside the dates of the conference", ErrInvalidInput)
	}
	start, err := ParseStartTime(form.StartTime)
	if err != nil {
		return nil, err
	}
	s := &Session{
		Key:         key,
		Name:        form.Name,
		Highlights:  form.Highlights,
		SpeakerKeys: append([]string(nil), form.SpeakerKeys...),
		Duration:    form.Duration,
		SessionType: DefaultSessionType,
		Date:        date,
		StartTime:   start,
		Location:    DefaultLocation,
	}
	if form.SessionType != "" {
		s.SessionType = form.SessionType
	}
	if form.Location != "" {
		s.Location = form.Location
	}
	return s, nil
}

// SessionOut is the response representation of a session.
type SessionOut struct {
	WebsafeKey  string   `json:"websafe_key"`
	Name        string   `json:"name"`
	Highlights  string   `json:"highlights"`
	SpeakerKeys []string `json:"speaker_keys"`
	Duration    int64    `json:"duration"`
	SessionType string   `json:"session_type"`
	Date        string   `json:"date"`
	StartTime   string   `json:"start_time"`
	Location    string   `json:"location"`
}

// ToForm maps a session back to its response representation.
func (s *Session) ToForm() *SessionOut {
	return &SessionOut{
		WebsafeKey:  s.WebsafeKey(),
		Name:        s.Name,
		Highlights:  s.Highlights,
		SpeakerKeys: s.SpeakerKeys,
		Duration:    s.Duration,
		SessionType: s.SessionType,
		Date:        FormatDate(s.Date),
		StartTime:   FormatStartTime(s.StartTime),
		Location:    s.Location,
	}
}

// SessionService defines the business logic for sessions, including the
// wishlist transaction and the session query paths.
type SessionService interface {
	CreateSession(ctx context.Context, userID, websafeConfKey string, form *SessionForm) (*SessionOut, error)
	GetConferenceSessions(ctx context.Context, websafeConfKey string) ([]*SessionOut, error)
	GetConferenceSessionsByType(ctx context.Context, websafeConfKey, sessionType string) ([]*SessionOut, error)
	GetSessionsBySpeaker(ctx context.Context, websafeSpeakerKey string) ([]*SessionOut, error)
	// QuerySessions runs a single validated filter over a conference's
	// sessions.
	QuerySessions(ctx context.Context, websafeConfKey string, filter FilterSpec) ([]*SessionOut, error)
	// DoubleQuerySessions applies the first inequality through the store and
	// the second in memory; only < and > are supported for the second.
	DoubleQuerySessions(ctx context.Context, websafeConfKey string, first, second FilterSpec) ([]*SessionOut, error)
	AddToWishlist(ctx context.Context, userID, email, websafeSessionKey string) (bool, error)
	RemoveFromWishlist(ctx context.Context, userID, email, websafeSessionKey string) (bool, error)
	GetSessionsInWishlist(ctx context.Context, userID, email string) ([]*SessionOut, error)
	GetConferenceSpeakers(ctx context.Context, websafeConfKey string) ([]*SpeakerOut, error)
}
