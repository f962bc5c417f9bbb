package domain

import "context"

// Cache keys for the derived, best-effort side channels.
const (
	AnnouncementCacheKey       = "recent_announcements"
	FeaturedSpeakerCachePrefix = "featured_speaker:"
)

// FeaturedSpeakerCacheKey returns the cache key for a conference's featured
// speaker tuple.
func FeaturedSpeakerCacheKey(websafeConfKey string) string {
	return FeaturedSpeakerCachePrefix + websafeConfKey
}

// Cache is the transient key-value store. No persistence guarantee; reads may
// observe a missing or stale value with no error.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
	Delete(key string)
}

// Task names handled by the background dispatcher.
const (
	TaskSendConfirmationEmail = "send_confirmation_email"
	TaskCheckFeaturedSpeaker  = "is_speaker_featured"
)

// Task is a deferred job with a parameter bag. Delivery is at least once,
// with no ordering guarantee between jobs.
type Task struct {
	ID     string
	Name   string
	Params map[string]string
}

// TaskQueue enqueues named deferred jobs for the background workers.
type TaskQueue interface {
	Enqueue(ctx context.Context, name string, params map[string]string) error
}

// Mailer sends a single email.
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders a named template into subject, html body, and
// text body.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// ConferenceConfirmationEmailData is the payload for the conference creation
// confirmation email.
type ConferenceConfirmationEmailData struct {
	Email          string
	ConferenceName string
	ConferenceInfo string
}

// LoginCodeEmailData is the payload for the one-time login code email.
type LoginCodeEmailData struct {
	Email string
	Code  string
}

// EmailService defines the outbound email flows.
type EmailService interface {
	SendConferenceConfirmation(ctx context.Context, data *ConferenceConfirmationEmailData) error
	SendLoginCode(ctx context.Context, data *LoginCodeEmailData) error
}
