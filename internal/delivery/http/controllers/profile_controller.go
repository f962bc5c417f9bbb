package controllers

import (
	"log/slog"
	"net/http"

	h "confcentral/internal/delivery/http/helpers"
	"confcentral/internal/domain"
)

// SaveProfileRequest is the request body for POST /profile.
type SaveProfileRequest struct {
	DisplayName  string `json:"display_name"`
	TeeShirtSize string `json:"tee_shirt_size"`
}

// Validate implements Validator.
func (s SaveProfileRequest) Validate() []string {
	var errs []string
	if s.TeeShirtSize != "" && !domain.ValidShirtSize(s.TeeShirtSize) {
		errs = append(errs, "invalid tee_shirt_size")
	}
	return errs
}

// ProfileResponse is the response representation of a profile.
type ProfileResponse struct {
	DisplayName            string   `json:"display_name"`
	MainEmail              string   `json:"main_email"`
	TeeShirtSize           string   `json:"tee_shirt_size"`
	ConferenceKeysToAttend []string `json:"conference_keys_to_attend"`
	SessionWishlistKeys    []string `json:"session_wishlist_keys"`
}

func profileResponse(p *domain.Profile) ProfileResponse {
	return ProfileResponse{
		DisplayName:            p.DisplayName,
		MainEmail:              p.MainEmail,
		TeeShirtSize:           p.TeeShirtSize,
		ConferenceKeysToAttend: p.ConferenceKeysToAttend,
		SessionWishlistKeys:    p.SessionWishlistKeys,
	}
}

type ProfileController struct {
	Logger  *slog.Logger
	Service domain.ProfileService
}

func NewProfileController(logger *slog.Logger, svc domain.ProfileService) *ProfileController {
	return &ProfileController{
		Logger:  logger,
		Service: svc,
	}
}

// GetProfile godoc
// @Summary Get the caller's profile
// @Description Return the caller's profile, creating a default one on first access.
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the profile"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /profile [get]
func (c *ProfileController) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, email, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	profile, err := c.Service.GetProfile(r.Context(), userID, email)
	if err != nil {
		respondError(c.Logger, w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, profileResponse(profile))
}

// SaveProfile godoc
// @Summary Update the caller's profile
// @Description Update display_name and tee_shirt_size. Other profile fields are server-managed.
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param profile body SaveProfileRequest true "Profile fields"
// @Success 200 {object} helpers.APIResponse "data contains the updated profile"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /profile [post]
func (c *ProfileController) SaveProfile(w http.ResponseWriter, r *http.Request) {
	var req SaveProfileRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, email, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	form := domain.ProfileForm{DisplayName: req.DisplayName, TeeShirtSize: req.TeeShirtSize}
	profile, err := c.Service.SaveProfile(r.Context(), userID, email, &form)
	if err != nil {
		respondError(c.Logger, w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, profileResponse(profile))
}
