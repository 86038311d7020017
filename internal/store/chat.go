package store

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/wingmanmatch/wingman/internal/pkg/apperr"
	"github.com/wingmanmatch/wingman/internal/pkg/models"
)

// ChatStore persists pair-scoped chat_messages and chat_read_cursors rows.
type ChatStore struct {
	db *sqlx.DB
}

func NewChatStore(db *sqlx.DB) *ChatStore {
	log.Println("initializing chat store")
	return &ChatStore{db: db}
}

// Insert writes a chat message, including system messages (spec §4.7:
// system messages use SystemSenderID and bypass rate limiting upstream).
func (s *ChatStore) Insert(ctx context.Context, msg *models.ChatMessage) error {
	msg.CreatedAt = time.Now()
	query := `
		INSERT INTO chat_messages (id, match_id, sender_id, message, created_at)
		VALUES (:id, :match_id, :sender_id, :message, :created_at)
	`
	if _, err := s.db.NamedExecContext(ctx, query, msg); err != nil {
		return apperr.Internal("failed to insert chat message", err)
	}
	return nil
}

// ListBefore returns up to limit messages for matchID older than cursor (or
// the most recent limit messages when cursor is nil), ordered descending by
// created_at — the caller reverses this page to chronological order (spec
// §4.8: "Query ... ordered descending ... Reverse the returned slice").
func (s *ChatStore) ListBefore(ctx context.Context, matchID string, cursor *time.Time, limit int) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	var err error
	if cursor != nil {
		err = s.db.SelectContext(ctx, &messages, `
			SELECT * FROM chat_messages
			WHERE match_id = $1 AND created_at < $2
			ORDER BY created_at DESC
			LIMIT $3
		`, matchID, *cursor, limit)
	} else {
		err = s.db.SelectContext(ctx, &messages, `
			SELECT * FROM chat_messages
			WHERE match_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		`, matchID, limit)
	}
	if err != nil {
		return nil, apperr.Internal("failed to list chat messages", err)
	}
	return messages, nil
}

// GetReadCursor returns a user's last-read marker for a match, or the zero
// time if they have never read it.
func (s *ChatStore) GetReadCursor(ctx context.Context, matchID, userID string) (time.Time, error) {
	var cursor models.ChatReadCursor
	err := s.db.GetContext(ctx, &cursor, `
		SELECT * FROM chat_read_cursors WHERE match_id = $1 AND user_id = $2
	`, matchID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, nil
		}
		return time.Time{}, apperr.Internal("failed to get read cursor", err)
	}
	return cursor.LastReadAt, nil
}

// SetReadCursor upserts a user's last-read marker for a match.
func (s *ChatStore) SetReadCursor(ctx context.Context, matchID, userID string, at time.Time) error {
	query := `
		INSERT INTO chat_read_cursors (match_id, user_id, last_read_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (match_id, user_id) DO UPDATE SET last_read_at = EXCLUDED.last_read_at
	`
	if _, err := s.db.ExecContext(ctx, query, matchID, userID, at); err != nil {
		return apperr.Internal("failed to set read cursor", err)
	}
	return nil
}
