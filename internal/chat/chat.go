// Package chat implements the pair-scoped chat transport: participant
// authorization, cursor-paginated reads, per-sender rate-limited sends, and
// text sanitization (spec §4.8). Structured the way the teacher structures
// a thin usecase over its stores, generalizing from ride-chat patterns in
// the corpus's websocket handlers to a plain request/response HTTP shape.
package chat

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/wingmanmatch/wingman/internal/pkg/apperr"
	"github.com/wingmanmatch/wingman/internal/pkg/converter"
	"github.com/wingmanmatch/wingman/internal/pkg/models"
	"github.com/wingmanmatch/wingman/internal/pkg/ratelimit"
	"github.com/wingmanmatch/wingman/internal/store"
)

const (
	minMessageLength = 2
	maxMessageLength = 2000
	defaultPageLimit = 50
	maxPageLimit     = 100
	rateLimitPolicy  = "chat"
)

// Service implements participant-scoped chat send/list.
type Service struct {
	messages *store.ChatStore
	matches  *store.MatchStore
	limiter  *ratelimit.Limiter
	logger   *logrus.Entry
}

func NewService(messages *store.ChatStore, matches *store.MatchStore, limiter *ratelimit.Limiter, logger *logrus.Entry) *Service {
	return &Service{messages: messages, matches: matches, limiter: limiter, logger: logger}
}

// Page is the response shape for ListMessages: the page in chronological
// order plus cursor-pagination metadata (spec §4.8).
type Page struct {
	Messages   []models.ChatMessage
	HasMore    bool
	NextCursor *time.Time
}

// ListMessages returns a page of messages for matchID, authorizing callerID
// as a participant first. cursor, if non-nil, excludes messages at or after
// that timestamp so repeated calls walk backward through history.
func (s *Service) ListMessages(ctx context.Context, matchID, callerID string, cursor *time.Time, limit int) (*Page, error) {
	if err := s.requireParticipant(ctx, matchID, callerID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	// Fetched newest-first per spec §4.8, then reversed below to
	// chronological order for display.
	page, err := s.messages.ListBefore(ctx, matchID, cursor, limit)
	if err != nil {
		return nil, err
	}

	hasMore := len(page) == limit
	var nextCursor *time.Time
	if hasMore {
		oldest := page[len(page)-1].CreatedAt
		nextCursor = &oldest
	}

	reverse(page)
	return &Page{Messages: page, HasMore: hasMore, NextCursor: nextCursor}, nil
}

// Send appends a chat message from callerID after authorizing participant
// membership, applying the per-sender token bucket, and sanitizing text
// (spec §4.8). System messages bypass this path entirely — they're
// inserted directly by internal/session via ChatStore.
func (s *Service) Send(ctx context.Context, matchID, callerID, text string) (*models.ChatMessage, error) {
	if err := s.requireParticipant(ctx, matchID, callerID); err != nil {
		return nil, err
	}

	result, err := s.limiter.Consume(ctx, rateLimitPolicy, callerID, 1)
	if err != nil {
		s.logger.WithError(err).Warn("chat rate limiter unavailable, failing open")
	} else if !result.Allowed {
		return nil, apperr.RateLimited("chat rate limit exceeded, please slow down", result.RetryAfterSeconds)
	}

	clean := Sanitize(text)
	if len(clean) < minMessageLength || len(clean) > maxMessageLength {
		return nil, apperr.Validation("message must be between 2 and 2000 characters after sanitization")
	}

	msg := &models.ChatMessage{ID: uuid.New().String(), MatchID: matchID, SenderID: callerID, Message: clean}
	if err := s.messages.Insert(ctx, msg); err != nil {
		return nil, err
	}

	if err := s.messages.SetReadCursor(ctx, matchID, callerID, msg.CreatedAt); err != nil {
		s.logger.WithError(err).Warn("failed to advance sender's read cursor")
	}

	return msg, nil
}

func (s *Service) requireParticipant(ctx context.Context, matchID, userID string) error {
	m, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return err
	}
	if !m.IsParticipant(userID) {
		return apperr.Forbidden("user is not a participant in this match")
	}
	return nil
}

// Sanitize HTML-escapes text and strips control characters, delegating to
// the shared converter helper (no corpus example imports a dedicated HTML
// sanitizer directly for plain-text chat — see DESIGN.md).
func Sanitize(text string) string {
	return converter.SanitizeText(text)
}

func reverse(msgs []models.ChatMessage) {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}
