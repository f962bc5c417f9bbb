package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"confcentral/internal/delivery/http/controllers"
	"confcentral/internal/delivery/http/middleware"
	"confcentral/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes
func NewRouter(
	conference *controllers.ConferenceController,
	profile *controllers.ProfileController,
	session *controllers.SessionController,
	speaker *controllers.SpeakerController,
	announcement *controllers.AnnouncementController,
	auth *controllers.AuthController,
	verifier domain.TokenVerifier,
	logger *slog.Logger,
) *http.ServeMux {
	mux := http.NewServeMux()
	authed := middleware.RequireAuth(verifier, logger)

	// Conferences
	mux.HandleFunc("POST /conferences", authed(conference.CreateConference))
	mux.HandleFunc("POST /conferences/query", conference.QueryConferences)
	mux.HandleFunc("GET /conferences/created", authed(conference.GetConferencesCreated))
	mux.HandleFunc("GET /conferences/attending", authed(conference.GetConferencesToAttend))
	mux.HandleFunc("GET /conferences/{websafeConferenceKey}", conference.GetConference)
	mux.HandleFunc("PUT /conferences/{websafeConferenceKey}", authed(conference.UpdateConference))
	mux.HandleFunc("POST /conferences/{websafeConferenceKey}/registration", authed(conference.Register))
	mux.HandleFunc("DELETE /conferences/{websafeConferenceKey}/registration", authed(conference.Unregister))

	// Sessions
	mux.HandleFunc("POST /conferences/{websafeConferenceKey}/sessions", authed(session.CreateSession))
	mux.HandleFunc("GET /conferences/{websafeConferenceKey}/sessions", session.GetConferenceSessions)
	mux.HandleFunc("GET /conferences/{websafeConferenceKey}/sessions/type/{typeOfSession}", session.GetConferenceSessionsByType)
	mux.HandleFunc("POST /conferences/{websafeConferenceKey}/sessions/query", session.QuerySessions)
	mux.HandleFunc("POST /conferences/{websafeConferenceKey}/sessions/doublequery", session.DoubleQuerySessions)
	mux.HandleFunc("GET /conferences/{websafeConferenceKey}/speakers", session.GetConferenceSpeakers)
	mux.HandleFunc("GET /speakers/{websafeSpeakerKey}/sessions", session.GetSessionsBySpeaker)

	// Speakers
	mux.HandleFunc("POST /speakers", authed(speaker.CreateSpeaker))
	mux.HandleFunc("GET /speakers/{websafeSpeakerKey}", speaker.GetSpeaker)
	mux.HandleFunc("GET /conferences/{websafeConferenceKey}/featured-speaker", speaker.GetFeaturedSpeaker)

	// Profile and wishlist
	mux.HandleFunc("GET /profile", authed(profile.GetProfile))
	mux.HandleFunc("POST /profile", authed(profile.SaveProfile))
	mux.HandleFunc("GET /profile/wishlist", authed(session.GetSessionsInWishlist))
	mux.HandleFunc("POST /profile/wishlist/{websafeSessionKey}", authed(session.AddToWishlist))
	mux.HandleFunc("DELETE /profile/wishlist/{websafeSessionKey}", authed(session.RemoveFromWishlist))

	// Announcements
	mux.HandleFunc("GET /announcement", announcement.GetAnnouncement)
	mux.HandleFunc("POST /crons/set-announcement", announcement.RecomputeAnnouncement)

	// Auth
	mux.HandleFunc("POST /auth/request-code", auth.RequestCode)
	mux.HandleFunc("POST /auth/verify-code", auth.VerifyCode)

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
