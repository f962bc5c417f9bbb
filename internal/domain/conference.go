package domain

import (
	"context"
	"fmt"
	"time"

	"confcentral/internal/datastore"
)

// Defaults applied to missing optional conference fields on creation.
var (
	DefaultCity   = "Default City"
	DefaultTopics = []string{"Default", "Topic"}
)

// Conference is a conference owned by (child of) an organizer Profile.
type Conference struct {
	Key             *datastore.Key `json:"-"`
	Name            string         `json:"name"`
	Description     string         `json:"description"`
	OrganizerUserID string         `json:"organizer_user_id"`
	Topics          []string       `json:"topics"`
	City            string         `json:"city"`
	StartDate       time.Time      `json:"-"`
	EndDate         time.Time      `json:"-"`
	Month           int64          `json:"month"`
	MaxAttendees    int64          `json:"max_attendees"`
	SeatsAvailable  int64          `json:"seats_available"`
}

// WebsafeKey returns the conference key in websafe form.
func (c *Conference) WebsafeKey() string {
	return c.Key.Encode()
}

// ToEntity maps the conference to its stored representation. Dates are stored
// as ISO strings so that inequality filters and sort orders compare correctly.
func (c *Conference) ToEntity() *datastore.Entity {
	e := datastore.NewEntity(c.Key)
	e.Props["name"] = c.Name
	e.Props["description"] = c.Description
	e.Props["organizerUserId"] = c.OrganizerUserID
	e.Props["topics"] = append([]string(nil), c.Topics...)
	e.Props["city"] = c.City
	e.Props["startDate"] = FormatDate(c.StartDate)
	e.Props["endDate"] = FormatDate(c.EndDate)
	e.Props["month"] = c.Month
	e.Props["maxAttendees"] = c.MaxAttendees
	e.Props["seatsAvailable"] = c.SeatsAvailable
	return e
}

// ConferenceFromEntity is the inverse of ToEntity. Stored dates are trusted;
// an unparseable date maps to the zero time.
func ConferenceFromEntity(e *datastore.Entity) *Conference {
	c := &Conference{
		Key:             e.Key,
		Name:            propString(e, "name"),
		Description:     propString(e, "description"),
		OrganizerUserID: propString(e, "organizerUserId"),
		Topics:          propStrings(e, "topics"),
		City:            propString(e, "city"),
		Month:           propInt(e, "month"),
		MaxAttendees:    propInt(e, "maxAttendees"),
		SeatsAvailable:  propInt(e, "seatsAvailable"),
	}
	if s := propString(e, "startDate"); s != "" {
		c.StartDate, _ = ParseDate(s)
	}
	if s := propString(e, "endDate"); s != "" {
		c.EndDate, _ = ParseDate(s)
	}
	return c
}

// ConferenceForm is the inbound create/update request. Pointer fields
// distinguish "absent" from "zero" so the update path copies only the fields
// present in a partial request.
type ConferenceForm struct {
	Name         *string  `json:"name"`
	Description  *string  `json:"description"`
	Topics       []string `json:"topics"`
	City         *string  `json:"city"`
	StartDate    *string  `json:"start_date"`
	EndDate      *string  `json:"end_date"`
	MaxAttendees *int64   `json:"max_attendees"`
}

// NewConference builds a Conference from a create request: name is required,
// missing optional fields get defaults, month derives from the start date,
// and seatsAvailable starts at maxAttendees.
func NewConference(key *datastore.Key, organizerUserID string, form *ConferenceForm) (*Conference, error) {
	if form.Name == nil || *form.Name == "" {
		return nil, fmt.Errorf("%w: conference 'name' field required", ErrInvalidInput)
	}
	c := &Conference{
		Key:             key,
		Name:            *form.Name,
		OrganizerUserID: organizerUserID,
		City:            DefaultCity,
		Topics:          append([]string(nil), DefaultTopics...),
	}
	if form.Description != nil {
		c.Description = *form.Description
	}
	if form.City != nil && *form.City != "" {
		c.City = *form.City
	}
	if len(form.Topics) > 0 {
		c.Topics = append([]string(nil), form.Topics...)
	}
	if form.StartDate != nil && *form.StartDate != "" {
		start, err := ParseDate(*form.StartDate)
		if err != nil {
			return nil, err
		}
		c.StartDate = start
		c.Month = int64(start.Month())
	}
	if form.EndDate != nil && *form.EndDate != "" {
		end, err := ParseDate(*form.EndDate)
		if err != nil {
			return nil, err
		}
		c.EndDate = end
	}
	if form.MaxAttendees != nil && *form.MaxAttendees > 0 {
		c.MaxAttendees = *form.MaxAttendees
		c.SeatsAvailable = *form.MaxAttendees
	}
	return c, nil
}

// ApplyUpdate copies the fields present in a partial update request onto the
// conference, recomputing month when the start date changes and clamping
// seatsAvailable when the attendee cap drops below it.
func (c *Conference) ApplyUpdate(form *ConferenceForm) error {
	if form.Name != nil && *form.Name != "" {
		c.Name = *form.Name
	}
	if form.Description != nil && *form.Description != "" {
		c.Description = *form.Description
	}
	if form.City != nil && *form.City != "" {
		c.City = *form.City
	}
	if len(form.Topics) > 0 {
		c.Topics = append([]string(nil), form.Topics...)
	}
	if form.StartDate != nil && *form.StartDate != "" {
		start, err := ParseDate(*form.StartDate)
		if err != nil {
			return err
		}
		c.StartDate = start
		c.Month = int64(start.Month())
	}
	if form.EndDate != nil && *form.EndDate != "" {
		end, err := ParseDate(*form.EndDate)
		if err != nil {
			return err
		}
		c.EndDate = end
	}
	if form.MaxAttendees != nil && *form.MaxAttendees > 0 {
		c.MaxAttendees = *form.MaxAttendees
		// Lowering the cap must not leave more open seats than the cap.
		if c.SeatsAvailable > c.MaxAttendees {
			c.SeatsAvailable = c.MaxAttendees
		}
	}
	return nil
}

// ConferenceOut is the response representation of a conference.
type ConferenceOut struct {
	WebsafeKey           string   `json:"websafe_key"`
	Name                 string   `json:"name"`
	Description          string   `json:"description"`
	OrganizerUserID      string   `json:"organizer_user_id"`
	OrganizerDisplayName string   `json:"organizer_display_name,omitempty"`
	Topics               []string `json:"topics"`
	City                 string   `json:"city"`
	StartDate            string   `json:"start_date"`
	EndDate              string   `json:"end_date"`
	Month                int64    `json:"month"`
	MaxAttendees         int64    `json:"max_attendees"`
	SeatsAvailable       int64    `json:"seats_available"`
}

// ToForm maps a conference back to its response representation.
func (c *Conference) ToForm(organizerDisplayName string) *ConferenceOut {
	return &ConferenceOut{
		WebsafeKey:           c.WebsafeKey(),
		Name:                 c.Name,
		Description:          c.Description,
		OrganizerUserID:      c.OrganizerUserID,
		OrganizerDisplayName: organizerDisplayName,
		Topics:               c.Topics,
		City:                 c.City,
		StartDate:            FormatDate(c.StartDate),
		EndDate:              FormatDate(c.EndDate),
		Month:                c.Month,
		MaxAttendees:         c.MaxAttendees,
		SeatsAvailable:       c.SeatsAvailable,
	}
}

// FilterSpec is one raw, user-supplied query filter: a logical field name, a
// comparison operator, and a literal value, all as strings.
type FilterSpec struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// ConferenceService defines the business logic for conferences, including the
// registration transaction.
type ConferenceService interface {
	CreateConference(ctx context.Context, userID, email string, form *ConferenceForm) (*ConferenceOut, error)
	UpdateConference(ctx context.Context, userID, websafeKey string, form *ConferenceForm) (*ConferenceOut, error)
	GetConference(ctx context.Context, websafeKey string) (*ConferenceOut, error)
	QueryConferences(ctx context.Context, filters []FilterSpec) ([]*ConferenceOut, error)
	GetConferencesCreated(ctx context.Context, userID, email string) ([]*ConferenceOut, error)
	GetConferencesToAttend(ctx context.Context, userID, email string) ([]*ConferenceOut, error)
	// Register atomically appends the conference to the profile's attend list
	// and decrements seatsAvailable.
	Register(ctx context.Context, userID, email, websafeKey string) (bool, error)
	// Unregister is the inverse; it reports false (not an error) when the
	// user was not registered.
	Unregister(ctx context.Context, userID, email, websafeKey string) (bool, error)
}

// AnnouncementService computes and serves the nearly-sold-out announcement.
type AnnouncementService interface {
	// Recompute queries conferences with 0 < seatsAvailable <= 5 and caches
	// the formatted announcement, or clears the cache entry when none match.
	Recompute(ctx context.Context) (string, error)
	// Get returns the cached announcement, or "" on a cache miss.
	Get(ctx context.Context) string
}
