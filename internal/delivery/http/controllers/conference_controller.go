package controllers

import (
	"log/slog"
	"net/http"

	h "confcentral/internal/delivery/http/helpers"
	"confcentral/internal/domain"
)

// QueryConferencesRequest is the request body for POST /conferences/query.
type QueryConferencesRequest struct {
	Filters []domain.FilterSpec `json:"filters"`
}

// RegistrationResponse reports the outcome of a registration or wishlist
// mutation.
type RegistrationResponse struct {
	Success bool `json:"success"`
}

type ConferenceController struct {
	Logger  *slog.Logger
	Service domain.ConferenceService
}

func NewConferenceController(logger *slog.Logger, svc domain.ConferenceService) *ConferenceController {
	return &ConferenceController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateConference godoc
// @Summary Create a new conference
// @Description Create a conference owned by the authenticated user. Name is required; missing city, topics, and dates get defaults, and seats_available starts at max_attendees. A confirmation email is queued.
// @Tags conferences
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param conference body domain.ConferenceForm true "Conference data"
// @Success 201 {object} helpers.APIResponse "data contains the created conference"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /conferences [post]
func (c *ConferenceController) CreateConference(w http.ResponseWriter, r *http.Request) {
	var form domain.ConferenceForm
	if !h.DecodeAndValidate(w, r, &form) {
		return
	}
	userID, email, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	out, err := c.Service.CreateConference(r.Context(), userID, email, &form)
	if err != nil {
		respondError(c.Logger, w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusCreated, out)
}

// UpdateConference godoc
// @Summary Update an existing conference
// @Description Update a conference's fields. Only fields present in the body are applied. Only the conference owner may update it.
// @Tags conferences
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param websafeConferenceKey path string true "Websafe conference key"
// @Param conference body domain.ConferenceForm true "Fields to update"
// @Success 200 {object} helpers.APIResponse "data contains the updated conference"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /conferences/{websafeConferenceKey} [put]
func (c *ConferenceController) UpdateConference(w http.ResponseWriter, r *http.Request) {
	wsck := r.PathValue("websafeConferenceKey")
	if wsck == "" {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "missing websafeConferenceKey")
		return
	}
	var form domain.ConferenceForm
	if !h.DecodeAndValidate(w, r, &form) {
		return
	}
	userID, _, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	out, err := c.Service.UpdateConference(r.Context(), userID, wsck, &form)
	if err != nil {
		respondError(c.Logger, w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, out)
}

// GetConference godoc
// @Summary Get a conference by key
// @Tags conferences
// @Produce json
// @Param websafeConferenceKey path string true "Websafe conference key"
// @Success 200 {object} helpers.APIResponse "data contains the conference"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /conferences/{websafeConferenceKey} [get]
func (c *ConferenceController) GetConference(w http.ResponseWriter, r *http.Request) {
	wsck := r.PathValue("websafeConferenceKey")
	if wsck == "" {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "missing websafeConferenceKey")
		return
	}
	out, err := c.Service.GetConference(r.Context(), wsck)
	if err != nil {
		respondError(c.Logger, w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, out)
}

// QueryConferences godoc
// @Summary Query conferences with filters
// @Description Run a filtered conference query. Fields: CITY, TOPIC, MONTH, MAX_ATTENDEES. Operators: EQ, GT, GTEQ, LT, LTEQ, NE. At most one field may carry inequality filters.
// @Tags conferences
// @Accept json
// @Produce json
// @Param query body QueryConferencesRequest true "Query filters"
// @Success 200 {object} helpers.APIResponse "data contains the matching conferences"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /conferences/query [post]
func (c *ConferenceController) QueryConferences(w http.ResponseWriter, r *http.Request) {
	var req QueryConferencesRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	out, err := c.Service.QueryConferences(r.Context(), req.Filters)
	if err != nil {
		respondError(c.Logger, w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, out)
}

// GetConferencesCreated godoc
// @Summary List conferences created by the caller
// @Tags conferences
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the caller's conferences"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /conferences/created [get]
func (c *ConferenceController) GetConferencesCreated(w http.ResponseWriter, r *http.Request) {
	userID, email, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	out, err := c.Service.GetConferencesCreated(r.Context(), userID, email)
	if err != nil {
		respondError(c.Logger, w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, out)
}

// GetConferencesToAttend godoc
// @Summary List conferences the caller registered for
// @Tags conferences
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the registered conferences"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /conferences/attending [get]
func (c *ConferenceController) GetConferencesToAttend(w http.ResponseWriter, r *http.Request) {
	userID, email, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	out, err := c.Service.GetConferencesToAttend(r.Context(), userID, email)
	if err != nil {
		respondError(c.Logger, w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, out)
}

// Register godoc
// @Summary Register for a conference
// @Description Atomically add the conference to the caller's attend list and decrement seats_available. Fails with 409 when already registered or sold out.
// @Tags conferences
// @Produce json
// @Security BearerAuth
// @Param websafeConferenceKey path string true "Websafe conference key"
// @Success 200 {object} helpers.APIResponse "data contains {success: true}"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /conferences/{websafeConferenceKey}/registration [post]
func (c *ConferenceController) Register(w http.ResponseWriter, r *http.Request) {
	wsck := r.PathValue("websafeConferenceKey")
	userID, email, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	success, err := c.Service.Register(r.Context(), userID, email, wsck)
	if err != nil {
		respondError(c.Logger, w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, RegistrationResponse{Success: success})
}

// Unregister godoc
// @Summary Unregister from a conference
// @Description Atomically remove the conference from the caller's attend list and return the seat. Not being registered is reported as success: false, not an error.
// @Tags conferences
// @Produce json
// @Security BearerAuth
// @Param websafeConferenceKey path string true "Websafe conference key"
// @Success 200 {object} helpers.APIResponse "data contains {success: bool}"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /conferences/{websafeConferenceKey}/registration [delete]
func (c *ConferenceController) Unregister(w http.ResponseWriter, r *http.Request) {
	wsck := r.PathValue("websafeConferenceKey")
	userID, email, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	success, err := c.Service.Unregister(r.Context(), userID, email, wsck)
	if err != nil {
		respondError(c.Logger, w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, RegistrationResponse{Success: success})
}
