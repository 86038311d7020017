package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/wingmanmatch/wingman/internal/matchsm"
	"github.com/wingmanmatch/wingman/internal/pkg/apperr"
	"github.com/wingmanmatch/wingman/internal/pkg/models"
)

const defaultRespondRadiusMiles = 20

// BuddyHandler serves POST /api/buddy/respond.
type BuddyHandler struct {
	matchsm *matchsm.Service
}

func NewBuddyHandler(m *matchsm.Service) *BuddyHandler {
	return &BuddyHandler{matchsm: m}
}

type respondRequest struct {
	UserID  string `json:"user_id"`
	MatchID string `json:"match_id"`
	Action  string `json:"action"`
}

type nextMatchResponse struct {
	MatchID     string `json:"match_id"`
	BuddyUserID string `json:"buddy_user_id"`
}

type respondResponse struct {
	Success     bool               `json:"success"`
	MatchStatus string             `json:"match_status"`
	NextMatch   *nextMatchResponse `json:"next_match,omitempty"`
}

// Respond handles POST /api/buddy/respond.
func (h *BuddyHandler) Respond(c echo.Context) error {
	var req respondRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}

	var m *models.WingmanMatch
	var resp respondResponse

	switch req.Action {
	case "accept":
		accepted, err := h.matchsm.Accept(c.Request().Context(), req.MatchID, req.UserID)
		if err != nil {
			return respondError(c, err)
		}
		m = accepted
	case "decline":
		declined, next, err := h.matchsm.Decline(c.Request().Context(), req.MatchID, req.UserID, defaultRespondRadiusMiles)
		if err != nil {
			return respondError(c, err)
		}
		m = declined
		if next != nil {
			resp.NextMatch = &nextMatchResponse{MatchID: next.MatchID, BuddyUserID: next.BuddyUserID}
		}
	default:
		return respondError(c, apperr.Validation("action must be 'accept' or 'decline'"))
	}

	resp.Success = true
	resp.MatchStatus = m.Status
	return c.JSON(http.StatusOK, resp)
}

// Register mounts this handler's routes onto the authenticated API group.
func (h *BuddyHandler) Register(g *echo.Group) {
	g.POST("/buddy/respond", h.Respond)
}
