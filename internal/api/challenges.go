package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/wingmanmatch/wingman/internal/challenge"
)

// ChallengesHandler serves GET /api/challenges.
type ChallengesHandler struct {
	challenges *challenge.Service
}

func NewChallengesHandler(c *challenge.Service) *ChallengesHandler {
	return &ChallengesHandler{challenges: c}
}

type challengeResponse struct {
	ID          string `json:"id"`
	Difficulty  string `json:"difficulty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Points      int    `json:"points"`
}

type challengesListResponse struct {
	Challenges       []challengeResponse `json:"challenges"`
	Count            int                 `json:"count"`
	DifficultyFilter string              `json:"difficulty_filter,omitempty"`
	Cached           bool                `json:"cached"`
	Timestamp        time.Time           `json:"timestamp"`
}

// List handles GET /api/challenges.
func (h *ChallengesHandler) List(c echo.Context) error {
	difficulty := c.QueryParam("difficulty")

	result, err := h.challenges.List(c.Request().Context(), difficulty)
	if err != nil {
		return respondError(c, err)
	}

	out := make([]challengeResponse, 0, len(result.Challenges))
	for _, ch := range result.Challenges {
		out = append(out, challengeResponse{
			ID: ch.ID, Difficulty: ch.Difficulty, Title: ch.Title, Description: ch.Description, Points: ch.Points,
		})
	}

	return c.JSON(http.StatusOK, challengesListResponse{
		Challenges:       out,
		Count:            len(out),
		DifficultyFilter: difficulty,
		Cached:           result.Cached,
		Timestamp:        time.Now(),
	})
}

// Register mounts this handler's routes onto the authenticated API group.
func (h *ChallengesHandler) Register(g *echo.Group) {
	g.GET("/challenges", h.List)
}
