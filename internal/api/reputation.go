package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/wingmanmatch/wingman/internal/reputation"
)

// ReputationHandler serves GET /api/user/reputation/{user_id}.
type ReputationHandler struct {
	reputation *reputation.Service
}

func NewReputationHandler(r *reputation.Service) *ReputationHandler {
	return &ReputationHandler{reputation: r}
}

type reputationResponse struct {
	Score             int       `json:"score"`
	CompletedSessions int       `json:"completed_sessions"`
	NoShows           int       `json:"no_shows"`
	BadgeColor        string    `json:"badge_color"`
	CacheTimestamp    time.Time `json:"cache_timestamp"`
}

// Get handles GET /api/user/reputation/{user_id}.
func (h *ReputationHandler) Get(c echo.Context) error {
	useCache := c.QueryParam("use_cache") != "false"

	view, err := h.reputation.GetUserReputation(c.Request().Context(), c.Param("user_id"), useCache)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, reputationResponse{
		Score:             view.Score,
		CompletedSessions: view.CompletedSessions,
		NoShows:           view.NoShows,
		BadgeColor:        view.BadgeColor,
		CacheTimestamp:    view.CacheTimestamp,
	})
}

// Register mounts this handler's routes onto the authenticated API group.
func (h *ReputationHandler) Register(g *echo.Group) {
	g.GET("/user/reputation/:user_id", h.Get)
}
