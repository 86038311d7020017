package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/wingmanmatch/wingman/internal/pkg/middleware"
	"github.com/wingmanmatch/wingman/internal/profile"
)

// ProfileHandler serves POST /api/profile/complete.
type ProfileHandler struct {
	profiles *profile.Service
}

func NewProfileHandler(profiles *profile.Service) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

type locationRequest struct {
	Latitude    float64 `json:"lat"`
	Longitude   float64 `json:"lng"`
	City        string  `json:"city"`
	PrivacyMode string  `json:"privacy_mode"`
}

type completeProfileRequest struct {
	UserID      string          `json:"user_id"`
	Bio         string          `json:"bio"`
	Location    locationRequest `json:"location"`
	RadiusMiles int             `json:"travel_radius"`
	PhotoURL    string          `json:"photo_url"`
}

type completeProfileResponse struct {
	Success          bool   `json:"success"`
	ReadyForMatching bool   `json:"ready_for_matching"`
	UserID           string `json:"user_id"`
}

// Complete handles POST /api/profile/complete.
func (h *ProfileHandler) Complete(c echo.Context) error {
	var req completeProfileRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}
	if req.UserID == "" {
		req.UserID = middleware.CallerID(c)
	}

	result, err := h.profiles.Complete(c.Request().Context(), profile.CompleteInput{
		UserID: req.UserID,
		Bio:    req.Bio,
		Location: profile.LocationInput{
			Latitude:    req.Location.Latitude,
			Longitude:   req.Location.Longitude,
			City:        req.Location.City,
			PrivacyMode: req.Location.PrivacyMode,
		},
		RadiusMiles: req.RadiusMiles,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, completeProfileResponse{
		Success:          true,
		ReadyForMatching: result.ReadyForMatching,
		UserID:           result.UserID,
	})
}

// Register mounts this handler's routes onto the authenticated API group.
func (h *ProfileHandler) Register(g *echo.Group) {
	g.POST("/profile/complete", h.Complete)
}
