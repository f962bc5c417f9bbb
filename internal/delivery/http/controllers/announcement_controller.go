package controllers

import (
	"log/slog"
	"net/http"

	h "confcentral/internal/delivery/http/helpers"
	"confcentral/internal/domain"
)

// AnnouncementResponse carries the cached nearly-sold-out announcement.
// Announcement is "" when no announcement is set.
type AnnouncementResponse struct {
	Announcement string `json:"announcement"`
}

type AnnouncementController struct {
	Logger  *slog.Logger
	Service domain.AnnouncementService
}

func NewAnnouncementController(logger *slog.Logger, svc domain.AnnouncementService) *AnnouncementController {
	return &AnnouncementController{
		Logger:  logger,
		Service: svc,
	}
}

// GetAnnouncement godoc
// @Summary Get the current announcement
// @Description Return the cached nearly-sold-out announcement, or an empty string when none is set.
// @Tags announcements
// @Produce json
// @Success 200 {object} helpers.APIResponse "data contains the announcement"
// @Router /announcement [get]
func (c *AnnouncementController) GetAnnouncement(w http.ResponseWriter, r *http.Request) {
	h.WriteJSONSuccess(w, http.StatusOK, AnnouncementResponse{Announcement: c.Service.Get(r.Context())})
}

// RecomputeAnnouncement godoc
// @Summary Recompute the announcement (cron)
// @Description Query conferences that are nearly sold out (1 to 5 seats left) and refresh the cached announcement. Intended to be hit by a scheduler.
// @Tags announcements
// @Produce json
// @Success 200 {object} helpers.APIResponse "data contains the refreshed announcement"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /crons/set-announcement [post]
func (c *AnnouncementController) RecomputeAnnouncement(w http.ResponseWriter, r *http.Request) {
	announcement, err := c.Service.Recompute(r.Context())
	if err != nil {
		respondError(c.Logger, w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, AnnouncementResponse{Announcement: announcement})
}
