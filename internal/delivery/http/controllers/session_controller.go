package controllers

import (
	"log/slog"
	"net/http"

	h "confcentral/internal/delivery/http/helpers"
	"confcentral/internal/domain"
)

// QuerySessionsRequest is the request body for POST /conferences/{key}/sessions/query.
type QuerySessionsRequest struct {
	Filter domain.FilterSpec `json:"filter"`
}

// DoubleQuerySessionsRequest is the request body for POST /conferences/{key}/sessions/doublequery.
// The first filter must be an inequality; the second supports only LT and GT
// and is applied in memory.
type DoubleQuerySessionsRequest struct {
	First  domain.FilterSpec `json:"first"`
	Second domain.FilterSpec `json:"second"`
}

type SessionController struct {
	Logger  *slog.Logger
	Service domain.SessionService
}

func NewSessionController(logger *slog.Logger, svc domain.SessionService) *SessionController {
	return &SessionController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateSession godoc
// @Summary Create a session in a conference
// @Description Create a session under the given conference. Name, date, and start_time are required; the date must fall within the conference dates. Only the conference owner may create sessions. A featured-speaker check is queued when the session has speakers.
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param websafeConferenceKey path string true "Websafe conference key"
// @Param session body domain.SessionForm true "Session data"
// @Success 201 {object} helpers.APIResponse "data contains the created session"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /conferences/{websafeConferenceKey}/sessions [post]
func (c *SessionController) CreateSession(w http.ResponseWriter, r *http.Request) {
	wsck := r.PathValue("websafeConferenceKey")
	var form domain.SessionForm
	if !h.DecodeAndValidate(w, r, &form) {
		return
	}
	userID, _, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	out, err := c.Service.CreateSession(r.Context(), userID, wsck, &form)
	if err != nil {
		respondError(c.Logger, w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusCreated, out)
}

// GetConferenceSessions godoc
// @Summary List all sessions of a conference
// @Tags sessions
// @Produce json
// @Param websafeConferenceKey path string true "Websafe conference key"
// @Success 200 {object} helpers.APIResponse "data contains the sessions"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /conferences/{websafeConferenceKey}/sessions [get]
func (c *SessionController) GetConferenceSessions(w http.ResponseWriter, r *http.Request) {
	wsck := r.PathValue("websafeConferenceKey")
	out, err := c.Service.GetConferenceSessions(r.Context(), wsck)
	if err != nil {
		respondError(c.Logger, w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, out)
}

// GetConferenceSessionsByType godoc
// @Summary List a conference's sessions of one type
// @Tags sessions
// @Produce json
// @Param websafeConferenceKey path string true "Websafe conference key"
// @Param typeOfSession path string true "Session type"
// @Success 200 {object} helpers.APIResponse "data contains the sessions"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /conferences/{websafeConferenceKey}/sessions/type/{typeOfSession} [get]
func (c *SessionController) GetConferenceSessionsByType(w http.ResponseWriter, r *http.Request) {
	wsck := r.PathValue("websafeConferenceKey")
	sessionType := r.PathValue("typeOfSession")
	if sessionType == "" {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "missing typeOfSession")
		return
	}
	out, err := c.Service.GetConferenceSessionsByType(r.Context(), wsck, sessionType)
	if err != nil {
		respondError(c.Logger, w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, out)
}

// GetSessionsBySpeaker godoc
// @Summary List all sessions given by a speaker across conferences
// @Tags sessions
// @Produce json
// @Param websafeSpeakerKey path string true "Websafe speaker key"
// @Success 200 {object} helpers.APIResponse "data contains the sessions"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /speakers/{websafeSpeakerKey}/sessions [get]
func (c *SessionController) GetSessionsBySpeaker(w http.ResponseWriter, r *http.Request) {
	wssk := r.PathValue("websafeSpeakerKey")
	out, err := c.Service.GetSessionsBySpeaker(r.Context(), wssk)
	if err != nil {
		respondError(c.Logger, w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, out)
}

// QuerySessions godoc
// @Summary Query a conference's sessions with one filter
// @Description Run a single validated filter over a conference's sessions. Fields: TYPE, DATE, DURATION, START_TIME. Operators: EQ, GT, GTEQ, LT, LTEQ, NE.
// @Tags sessions
// @Accept json
// @Produce json
// @Param websafeConferenceKey path string true "Websafe conference key"
// @Param query body QuerySessionsRequest true "Session filter"
// @Success 200 {object} helpers.APIResponse "data contains the matching sessions"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /conferences/{websafeConferenceKey}/sessions/query [post]
func (c *SessionController) QuerySessions(w http.ResponseWriter, r *http.Request) {
	wsck := r.PathValue("websafeConferenceKey")
	var req QuerySessionsRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	out, err := c.Service.QuerySessions(r.Context(), wsck, req.Filter)
	if err != nil {
		respondError(c.Logger, w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, out)
}

// DoubleQuerySessions godoc
// @Summary Query a conference's sessions with two inequality filters
// @Description Apply the first inequality filter through the store and the second in memory. The second filter supports only LT and GT.
// @Tags sessions
// @Accept json
// @Produce json
// @Param websafeConferenceKey path string true "Websafe conference key"
// @Param query body DoubleQuerySessionsRequest true "Two session filters"
// @Success 200 {object} helpers.APIResponse "data contains the matching sessions"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /conferences/{websafeConferenceKey}/sessions/doublequery [post]
func (c *SessionController) DoubleQuerySessions(w http.ResponseWriter, r *http.Request) {
	wsck := r.PathValue("websafeConferenceKey")
	var req DoubleQuerySessionsRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	out, err := c.Service.DoubleQuerySessions(r.Context(), wsck, req.First, req.Second)
	if err != nil {
		respondError(c.Logger, w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, out)
}

// AddToWishlist godoc
// @Summary Add a session to the caller's wishlist
// @Tags wishlist
// @Produce json
// @Security BearerAuth
// @Param websafeSessionKey path string true "Websafe session key"
// @Success 200 {object} helpers.APIResponse "data contains {success: true}"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /profile/wishlist/{websafeSessionKey} [post]
func (c *SessionController) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	wssk := r.PathValue("websafeSessionKey")
	userID, email, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	success, err := c.Service.AddToWishlist(r.Context(), userID, email, wssk)
	if err != nil {
		respondError(c.Logger, w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, RegistrationResponse{Success: success})
}

// RemoveFromWishlist godoc
// @Summary Remove a session from the caller's wishlist
// @Description Remove the session from the wishlist. An absent session is reported as success: false, not an error.
// @Tags wishlist
// @Produce json
// @Security BearerAuth
// @Param websafeSessionKey path string true "Websafe session key"
// @Success 200 {object} helpers.APIResponse "data contains {success: bool}"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /profile/wishlist/{websafeSessionKey} [delete]
func (c *SessionController) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	wssk := r.PathValue("websafeSessionKey")
	userID, email, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	success, err := c.Service.RemoveFromWishlist(r.Context(), userID, email, wssk)
	if err != nil {
		respondError(c.Logger, w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, RegistrationResponse{Success: success})
}

// GetSessionsInWishlist godoc
// @Summary List the sessions in the caller's wishlist
// @Tags wishlist
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the wishlisted sessions"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /profile/wishlist [get]
func (c *SessionController) GetSessionsInWishlist(w http.ResponseWriter, r *http.Request) {
	userID, email, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	out, err := c.Service.GetSessionsInWishlist(r.Context(), userID, email)
	if err != nil {
		respondError(c.Logger, w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, out)
}

// GetConferenceSpeakers godoc
// @Summary List the speakers of a conference's sessions
// @Description List every speaker referenced by the conference's sessions, deduplicated in first-reference order.
// @Tags speakers
// @Produce json
// @Param websafeConferenceKey path string true "Websafe conference key"
// @Success 200 {object} helpers.APIResponse "data contains the speakers"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /conferences/{websafeConferenceKey}/speakers [get]
func (c *SessionController) GetConferenceSpeakers(w http.ResponseWriter, r *http.Request) {
	wsck := r.PathValue("websafeConferenceKey")
	out, err := c.Service.GetConferenceSpeakers(r.Context(), wsck)
	if err != nil {
		respondError(c.Logger, w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, out)
}
