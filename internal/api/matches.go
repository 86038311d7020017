package api

import (
	"math"
	"net/http"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/wingmanmatch/wingman/internal/geo"
	"github.com/wingmanmatch/wingman/internal/matcher"
	"github.com/wingmanmatch/wingman/internal/pkg/apperr"
)

const (
	defaultCandidateRadiusMiles = 20
	maxCandidateRadiusMiles     = 100
)

// MatchesHandler serves the candidate-search, distance, and auto-match
// endpoints under /api/matches.
type MatchesHandler struct {
	db                  *sqlx.DB
	matcher             *matcher.Service
	maxCandidateResults int
}

func NewMatchesHandler(db *sqlx.DB, m *matcher.Service, maxCandidateResults int) *MatchesHandler {
	return &MatchesHandler{db: db, matcher: m, maxCandidateResults: maxCandidateResults}
}

type candidateResponse struct {
	UserID              string  `json:"user_id"`
	City                string  `json:"city"`
	ExperienceLevel     string  `json:"experience_level"`
	ConfidenceArchetype string  `json:"confidence_archetype"`
	DistanceMiles       float64 `json:"distance_miles"`
}

type candidatesListResponse struct {
	Candidates []candidateResponse `json:"candidates"`
	TotalFound int                 `json:"total_found"`
}

// Candidates handles GET /api/matches/candidates/{user_id}.
func (h *MatchesHandler) Candidates(c echo.Context) error {
	userID := c.Param("user_id")
	radius := queryFloat(c, "radius_miles", defaultCandidateRadiusMiles)
	if radius < 1 || radius > maxCandidateRadiusMiles {
		return respondError(c, apperr.Validation("radius_miles must be between 1 and 100"))
	}

	candidates, err := geo.FindCandidatesWithinRadius(c.Request().Context(), h.db, userID, radius, h.maxCandidateResults, nil)
	if err != nil {
		return respondError(c, err)
	}

	out := make([]candidateResponse, 0, len(candidates))
	for _, cand := range candidates {
		out = append(out, candidateResponse{
			UserID:              cand.UserID,
			City:                cand.City,
			ExperienceLevel:     cand.ExperienceLevel,
			ConfidenceArchetype: cand.ConfidenceArchetype,
			DistanceMiles:       roundToOneDecimal(cand.DistanceMiles),
		})
	}

	return c.JSON(http.StatusOK, candidatesListResponse{Candidates: out, TotalFound: len(out)})
}

type distanceResponse struct {
	DistanceMiles float64 `json:"distance_miles"`
	Within20Miles bool    `json:"within_20_miles"`
}

// Distance handles GET /api/matches/distance/{a}/{b}.
func (h *MatchesHandler) Distance(c echo.Context) error {
	a, b := c.Param("a"), c.Param("b")

	miles, ok, err := geo.DistanceBetweenUsers(c.Request().Context(), h.db, a, b)
	if err != nil {
		return respondError(c, err)
	}
	if !ok {
		return respondError(c, apperr.NotFound("distance unavailable: one or both users have no precise location on file"))
	}

	return c.JSON(http.StatusOK, distanceResponse{DistanceMiles: miles, Within20Miles: miles <= 20})
}

type buddyProfileResponse struct {
	UserID              string `json:"user_id"`
	DisplayName         string `json:"display_name"`
	Bio                 string `json:"bio"`
	ExperienceLevel     string `json:"experience_level"`
	ConfidenceArchetype string `json:"confidence_archetype"`
	PhotoURL            string `json:"photo_url,omitempty"`
}

type autoMatchResponse struct {
	Success      bool                  `json:"success"`
	Message      string                `json:"message"`
	MatchID      string                `json:"match_id,omitempty"`
	BuddyUserID  string                `json:"buddy_user_id,omitempty"`
	BuddyProfile *buddyProfileResponse `json:"buddy_profile,omitempty"`
}

// Auto handles POST /api/matches/auto/{user_id}.
func (h *MatchesHandler) Auto(c echo.Context) error {
	userID := c.Param("user_id")

	var body struct {
		RadiusMiles float64 `json:"radius_miles"`
	}
	_ = bindJSON(c, &body)
	radius := body.RadiusMiles
	if radius <= 0 {
		radius = defaultCandidateRadiusMiles
	}

	result, err := h.matcher.CreateAutomaticMatch(c.Request().Context(), userID, radius)
	if err != nil {
		return respondError(c, err)
	}

	if !result.Success {
		return c.JSON(http.StatusOK, autoMatchResponse{
			Success: false,
			Message: messageForReason(result.Reason),
		})
	}

	resp := autoMatchResponse{
		Success:     true,
		MatchID:     result.MatchID,
		BuddyUserID: result.BuddyUserID,
	}
	if result.AlreadyPending {
		resp.Message = "you already have a pending match"
	} else {
		resp.Message = "match created"
	}
	if result.BuddyProfile != nil {
		resp.BuddyProfile = &buddyProfileResponse{
			UserID:              result.BuddyProfile.ID,
			DisplayName:         result.BuddyProfile.DisplayName,
			Bio:                 result.BuddyProfile.Bio,
			ExperienceLevel:     result.BuddyProfile.ExperienceLevel,
			ConfidenceArchetype: result.BuddyProfile.ConfidenceArchetype,
			PhotoURL:            result.BuddyProfile.PhotoURL,
		}
	}
	return c.JSON(http.StatusOK, resp)
}

func messageForReason(reason string) string {
	switch reason {
	case matcher.ReasonLocationMissing:
		return "complete your profile location before requesting a match"
	case matcher.ReasonNoCandidates:
		return "no compatible wingman buddies found within the search radius"
	default:
		return "no match found"
	}
}

// roundToOneDecimal formats a candidate's distance the way the response
// body promises: miles, one decimal place (spec §4.3).
func roundToOneDecimal(miles float64) float64 {
	return math.Round(miles*10) / 10
}

func queryFloat(c echo.Context, name string, fallback float64) float64 {
	v := c.QueryParam(name)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

// Register mounts this handler's routes onto the authenticated API group.
func (h *MatchesHandler) Register(g *echo.Group) {
	g.GET("/matches/candidates/:user_id", h.Candidates)
	g.GET("/matches/distance/:a/:b", h.Distance)
	g.POST("/matches/auto/:user_id", h.Auto)
}
