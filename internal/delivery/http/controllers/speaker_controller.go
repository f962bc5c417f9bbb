package controllers

import (
	"log/slog"
	"net/http"

	h "confcentral/internal/delivery/http/helpers"
	"confcentral/internal/domain"
)

// CreateSpeakerRequest is the request body for POST /speakers.
type CreateSpeakerRequest struct {
	Name         string `json:"name"`
	Organization string `json:"organization"`
}

// Validate implements Validator.
func (c CreateSpeakerRequest) Validate() []string {
	var errs []string
	if c.Name == "" {
		errs = append(errs, "name is required")
	}
	return errs
}

type SpeakerController struct {
	Logger  *slog.Logger
	Service domain.SpeakerService
}

func NewSpeakerController(logger *slog.Logger, svc domain.SpeakerService) *SpeakerController {
	return &SpeakerController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateSpeaker godoc
// @Summary Create a speaker
// @Description Create a speaker entity. Speakers are full entities rather than plain strings so sessions can reference them by key.
// @Tags speakers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param speaker body CreateSpeakerRequest true "Speaker data"
// @Success 201 {object} helpers.APIResponse "data contains the created speaker"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /speakers [post]
func (c *SpeakerController) CreateSpeaker(w http.ResponseWriter, r *http.Request) {
	var req CreateSpeakerRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	form := domain.SpeakerForm{Name: req.Name, Organization: req.Organization}
	out, err := c.Service.CreateSpeaker(r.Context(), &form)
	if err != nil {
		respondError(c.Logger, w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusCreated, out)
}

// GetSpeaker godoc
// @Summary Get a speaker by key
// @Tags speakers
// @Produce json
// @Param websafeSpeakerKey path string true "Websafe speaker key"
// @Success 200 {object} helpers.APIResponse "data contains the speaker"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /speakers/{websafeSpeakerKey} [get]
func (c *SpeakerController) GetSpeaker(w http.ResponseWriter, r *http.Request) {
	wssk := r.PathValue("websafeSpeakerKey")
	if wssk == "" {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "missing websafeSpeakerKey")
		return
	}
	out, err := c.Service.GetSpeaker(r.Context(), wssk)
	if err != nil {
		respondError(c.Logger, w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, out)
}

// GetFeaturedSpeaker godoc
// @Summary Get the featured speaker for a conference
// @Description Read the cached featured-speaker entry for the conference. A cache miss returns an empty tuple, not an error.
// @Tags speakers
// @Produce json
// @Param websafeConferenceKey path string true "Websafe conference key"
// @Success 200 {object} helpers.APIResponse "data contains the featured speaker tuple"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /conferences/{websafeConferenceKey}/featured-speaker [get]
func (c *SpeakerController) GetFeaturedSpeaker(w http.ResponseWriter, r *http.Request) {
	wsck := r.PathValue("websafeConferenceKey")
	out, err := c.Service.GetFeaturedSpeaker(r.Context(), wsck)
	if err != nil {
		respondError(c.Logger, w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, out)
}
