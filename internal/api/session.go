package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/wingmanmatch/wingman/internal/pkg/apperr"
	"github.com/wingmanmatch/wingman/internal/pkg/middleware"
	"github.com/wingmanmatch/wingman/internal/pkg/models"
	"github.com/wingmanmatch/wingman/internal/session"
)

// SessionHandler serves the /api/session endpoints.
type SessionHandler struct {
	sessions *session.Service
}

func NewSessionHandler(sessions *session.Service) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

type createSessionRequest struct {
	MatchID          string    `json:"match_id"`
	VenueName        string    `json:"venue_name"`
	Time             time.Time `json:"time"`
	User1ChallengeID string    `json:"user1_challenge_id"`
	User2ChallengeID string    `json:"user2_challenge_id"`
}

type createSessionResponse struct {
	Success           bool      `json:"success"`
	SessionID         string    `json:"session_id"`
	ScheduledTime     time.Time `json:"scheduled_time"`
	VenueName         string    `json:"venue_name"`
	NotificationsSent bool      `json:"notifications_sent"`
}

// Create handles POST /api/session/create.
func (h *SessionHandler) Create(c echo.Context) error {
	var req createSessionRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}

	sess, err := h.sessions.Create(c.Request().Context(), session.CreateInput{
		MatchID:          req.MatchID,
		VenueName:        req.VenueName,
		ScheduledTime:    req.Time,
		User1ChallengeID: req.User1ChallengeID,
		User2ChallengeID: req.User2ChallengeID,
		RequestingUserID: middleware.CallerID(c),
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, createSessionResponse{
		Success:           true,
		SessionID:         sess.ID,
		ScheduledTime:     sess.ScheduledTime,
		VenueName:         sess.VenueName,
		NotificationsSent: true,
	})
}

type sessionChallengeResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Difficulty  string `json:"difficulty"`
	Points      int    `json:"points"`
}

type reputationPreviewResponse struct {
	User1Delta int `json:"user1_delta"`
	User2Delta int `json:"user2_delta"`
}

type sessionDetailResponse struct {
	ID                              string                    `json:"id"`
	MatchID                         string                    `json:"match_id"`
	VenueName                       string                    `json:"venue_name"`
	ScheduledTime                   time.Time                 `json:"scheduled_time"`
	Status                          string                    `json:"status"`
	Notes                           string                    `json:"notes"`
	User1Name                       string                    `json:"user1_name"`
	User2Name                       string                    `json:"user2_name"`
	User1Challenge                  sessionChallengeResponse  `json:"user1_challenge"`
	User2Challenge                  sessionChallengeResponse  `json:"user2_challenge"`
	ReputationPreview               reputationPreviewResponse `json:"reputation_preview"`
	User1CompletedConfirmedByUser2  bool                      `json:"user1_completed_confirmed_by_user2"`
	User2CompletedConfirmedByUser1  bool                      `json:"user2_completed_confirmed_by_user1"`
	CompletedAt                     *time.Time                `json:"completed_at,omitempty"`
}

// Get handles GET /api/session/{id}.
func (h *SessionHandler) Get(c echo.Context) error {
	detail, err := h.sessions.Get(c.Request().Context(), c.Param("id"), middleware.CallerID(c))
	if err != nil {
		return respondError(c, err)
	}

	sess := detail.Session
	return c.JSON(http.StatusOK, sessionDetailResponse{
		ID:             sess.ID,
		MatchID:        sess.MatchID,
		VenueName:      sess.VenueName,
		ScheduledTime:  sess.ScheduledTime,
		Status:         sess.Status,
		Notes:          sess.Notes,
		User1Name:      detail.User1Name,
		User2Name:      detail.User2Name,
		User1Challenge: sessionChallengeResponse{
			ID: detail.User1Challenge.ID, Title: detail.User1Challenge.Title,
			Description: detail.User1Challenge.Description, Difficulty: detail.User1Challenge.Difficulty,
			Points: detail.User1Challenge.Points,
		},
		User2Challenge: sessionChallengeResponse{
			ID: detail.User2Challenge.ID, Title: detail.User2Challenge.Title,
			Description: detail.User2Challenge.Description, Difficulty: detail.User2Challenge.Difficulty,
			Points: detail.User2Challenge.Points,
		},
		ReputationPreview: reputationPreviewResponse{
			User1Delta: detail.ReputationPreview.User1Delta,
			User2Delta: detail.ReputationPreview.User2Delta,
		},
		User1CompletedConfirmedByUser2: sess.User1CompletedConfirmedByUser2,
		User2CompletedConfirmedByUser1: sess.User2CompletedConfirmedByUser1,
		CompletedAt:                    sess.CompletedAt,
	})
}

type confirmBuddyRequest struct {
	BuddyUserID string `json:"buddy_user_id"`
}

type confirmResponse struct {
	Success       bool   `json:"success"`
	SessionStatus string `json:"session_status"`
	BothConfirmed bool   `json:"both_confirmed"`
}

// ConfirmBuddy handles POST /api/session/{id}/confirm.
func (h *SessionHandler) ConfirmBuddy(c echo.Context) error {
	var req confirmBuddyRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}

	sess, err := h.sessions.ConfirmBuddyCompletion(c.Request().Context(), c.Param("id"), middleware.CallerID(c), req.BuddyUserID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, confirmResponse{
		Success:       true,
		SessionStatus: sess.Status,
		BothConfirmed: sess.BothConfirmed(),
	})
}

type confirmCompletionRequest struct {
	SessionID string `json:"session_id"`
}

type confirmCompletionResponse struct {
	Success           bool   `json:"success"`
	BothConfirmed     bool   `json:"both_confirmed"`
	ReputationUpdated bool   `json:"reputation_updated"`
	SessionStatus     string `json:"session_status"`
}

// ConfirmCompletion handles POST /api/session/confirm-completion.
func (h *SessionHandler) ConfirmCompletion(c echo.Context) error {
	var req confirmCompletionRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}

	sess, err := h.sessions.ConfirmSessionCompletion(c.Request().Context(), req.SessionID, middleware.CallerID(c))
	if err != nil {
		return respondError(c, err)
	}

	bothConfirmed := sess.BothConfirmed()
	return c.JSON(http.StatusOK, confirmCompletionResponse{
		Success:           true,
		BothConfirmed:     bothConfirmed,
		ReputationUpdated: sess.Status == models.SessionStatusCompleted,
		SessionStatus:     sess.Status,
	})
}

type updateNotesRequest struct {
	Notes string `json:"notes"`
}

type updateNotesResponse struct {
	Success      bool   `json:"success"`
	UpdatedNotes string `json:"updated_notes"`
}

// UpdateNotes handles PATCH /api/session/{id}/notes.
func (h *SessionHandler) UpdateNotes(c echo.Context) error {
	var req updateNotesRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}
	if len(req.Notes) > 2000 {
		return respondError(c, apperr.Validation("notes must be at most 2000 characters"))
	}

	if err := h.sessions.UpdateNotes(c.Request().Context(), c.Param("id"), middleware.CallerID(c), req.Notes); err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, updateNotesResponse{Success: true, UpdatedNotes: req.Notes})
}

// Register mounts this handler's routes onto the authenticated API group.
func (h *SessionHandler) Register(g *echo.Group) {
	g.POST("/session/create", h.Create)
	g.GET("/session/:id", h.Get)
	g.POST("/session/:id/confirm", h.ConfirmBuddy)
	g.POST("/session/confirm-completion", h.ConfirmCompletion)
	g.PATCH("/session/:id/notes", h.UpdateNotes)
}
