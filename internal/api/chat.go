package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/wingmanmatch/wingman/internal/chat"
	"github.com/wingmanmatch/wingman/internal/pkg/middleware"
)

const defaultChatLimit = 50

// ChatHandler serves the /api/chat endpoints.
type ChatHandler struct {
	chat *chat.Service
}

func NewChatHandler(c *chat.Service) *ChatHandler {
	return &ChatHandler{chat: c}
}

type chatMessageResponse struct {
	ID        string    `json:"id"`
	SenderID  string    `json:"sender_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type listMessagesResponse struct {
	Messages   []chatMessageResponse `json:"messages"`
	HasMore    bool                  `json:"has_more"`
	NextCursor *time.Time            `json:"next_cursor,omitempty"`
}

// ListMessages handles GET /api/chat/messages/{match_id}.
func (h *ChatHandler) ListMessages(c echo.Context) error {
	matchID := c.Param("match_id")

	var cursor *time.Time
	if raw := c.QueryParam("cursor"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err == nil {
			cursor = &t
		}
	}
	limit := int(queryFloat(c, "limit", defaultChatLimit))

	page, err := h.chat.ListMessages(c.Request().Context(), matchID, middleware.CallerID(c), cursor, limit)
	if err != nil {
		return respondError(c, err)
	}

	out := make([]chatMessageResponse, 0, len(page.Messages))
	for _, m := range page.Messages {
		out = append(out, chatMessageResponse{ID: m.ID, SenderID: m.SenderID, Message: m.Message, CreatedAt: m.CreatedAt})
	}

	return c.JSON(http.StatusOK, listMessagesResponse{
		Messages:   out,
		HasMore:    page.HasMore,
		NextCursor: page.NextCursor,
	})
}

type sendMessageRequest struct {
	MatchID string `json:"match_id"`
	Message string `json:"message"`
}

type sendMessageResponse struct {
	Success   bool      `json:"success"`
	MessageID string    `json:"message_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Send handles POST /api/chat/send.
func (h *ChatHandler) Send(c echo.Context) error {
	var req sendMessageRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}

	msg, err := h.chat.Send(c.Request().Context(), req.MatchID, middleware.CallerID(c), req.Message)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, sendMessageResponse{Success: true, MessageID: msg.ID, CreatedAt: msg.CreatedAt})
}

// Register mounts this handler's routes onto the authenticated API group.
func (h *ChatHandler) Register(g *echo.Group) {
	g.GET("/chat/messages/:match_id", h.ListMessages)
	g.POST("/chat/send", h.Send)
}
