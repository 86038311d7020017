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

// SessionStore persists wingman_sessions rows.
type SessionStore struct {
	db *sqlx.DB
}

func NewSessionStore(db *sqlx.DB) *SessionStore {
	log.Println("initializing session store")
	return &SessionStore{db: db}
}

// Create inserts a scheduled session for an accepted match (spec §4.5).
func (s *SessionStore) Create(ctx context.Context, sess *models.WingmanSession) error {
	sess.CreatedAt = time.Now()
	if sess.Status == "" {
		sess.Status = models.SessionStatusScheduled
	}
	query := `
		INSERT INTO wingman_sessions (
			id, match_id, user1_challenge_id, user2_challenge_id, venue_name,
			scheduled_time, status, notes,
			user1_completed_confirmed_by_user2, user2_completed_confirmed_by_user1,
			completed_at, created_at
		) VALUES (
			:id, :match_id, :user1_challenge_id, :user2_challenge_id, :venue_name,
			:scheduled_time, :status, :notes,
			:user1_completed_confirmed_by_user2, :user2_completed_confirmed_by_user1,
			:completed_at, :created_at
		)
	`
	if _, err := s.db.NamedExecContext(ctx, query, sess); err != nil {
		return apperr.Internal("failed to insert session", err)
	}
	return nil
}

// GetByID returns a session by id.
func (s *SessionStore) GetByID(ctx context.Context, id string) (*models.WingmanSession, error) {
	var sess models.WingmanSession
	err := s.db.GetContext(ctx, &sess, `SELECT * FROM wingman_sessions WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("session not found")
		}
		return nil, apperr.Internal("failed to get session", err)
	}
	return &sess, nil
}

// GetForUpdate returns a session locked FOR UPDATE within tx, used by the
// confirmation endpoints so two concurrent confirmations can't race past
// the BothConfirmed transition (spec §4.6).
func (s *SessionStore) GetForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.WingmanSession, error) {
	var sess models.WingmanSession
	err := tx.GetContext(ctx, &sess, `SELECT * FROM wingman_sessions WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("session not found")
		}
		return nil, apperr.Internal("failed to get session", err)
	}
	return &sess, nil
}

// ListForMatch returns every session belonging to a match, oldest first.
func (s *SessionStore) ListForMatch(ctx context.Context, matchID string) ([]models.WingmanSession, error) {
	var sessions []models.WingmanSession
	err := s.db.SelectContext(ctx, &sessions, `
		SELECT * FROM wingman_sessions WHERE match_id = $1 ORDER BY scheduled_time
	`, matchID)
	if err != nil {
		return nil, apperr.Internal("failed to list sessions", err)
	}
	return sessions, nil
}

// BeginTx starts a transaction for multi-step session updates.
func (s *SessionStore) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, apperr.Internal("failed to begin transaction", err)
	}
	return tx, nil
}

// SetConfirmationFlag sets one of the two counterpart-confirmation flags and,
// when tx is provided, does so inside the caller's transaction.
func (s *SessionStore) SetConfirmationFlag(ctx context.Context, tx *sqlx.Tx, sessionID string, confirmUser1, value bool) error {
	column := "user2_completed_confirmed_by_user1"
	if confirmUser1 {
		column = "user1_completed_confirmed_by_user2"
	}
	query := "UPDATE wingman_sessions SET " + column + " = $1 WHERE id = $2"

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, value, sessionID)
	} else {
		_, err = s.db.ExecContext(ctx, query, value, sessionID)
	}
	if err != nil {
		return apperr.Internal("failed to set confirmation flag", err)
	}
	return nil
}

// CompleteIfBothConfirmed transitions a session to completed, stamping
// CompletedAt, only if both confirmation flags are true. Returns whether the
// transition happened.
func (s *SessionStore) CompleteIfBothConfirmed(ctx context.Context, tx *sqlx.Tx, sessionID string) (bool, error) {
	query := `
		UPDATE wingman_sessions
		SET status = $1, completed_at = $2
		WHERE id = $3
		  AND user1_completed_confirmed_by_user2 = true
		  AND user2_completed_confirmed_by_user1 = true
		  AND status != $1
	`
	now := time.Now()
	var result sql.Result
	var err error
	if tx != nil {
		result, err = tx.ExecContext(ctx, query, models.SessionStatusCompleted, now, sessionID)
	} else {
		result, err = s.db.ExecContext(ctx, query, models.SessionStatusCompleted, now, sessionID)
	}
	if err != nil {
		return false, apperr.Internal("failed to complete session", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, apperr.Internal("failed to read completion result", err)
	}
	return rows > 0, nil
}

// UpdateNotes overwrites a session's freeform notes field.
func (s *SessionStore) UpdateNotes(ctx context.Context, sessionID, notes string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE wingman_sessions SET notes = $1 WHERE id = $2`, notes, sessionID)
	if err != nil {
		return apperr.Internal("failed to update notes", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperr.Internal("failed to read update result", err)
	}
	if rows == 0 {
		return apperr.NotFound("session not found")
	}
	return nil
}

// ListForUser returns every session belonging to a match the user
// participated in (across both match roles), regardless of status; the
// reputation calculation filters by status and confirmation flags itself,
// mirroring reputation_service.py's approach of pulling the full session set
// once rather than issuing a query per status.
func (s *SessionStore) ListForUser(ctx context.Context, userID string) ([]models.WingmanSession, error) {
	var sessions []models.WingmanSession
	err := s.db.SelectContext(ctx, &sessions, `
		SELECT s.* FROM wingman_sessions s
		JOIN wingman_matches m ON m.id = s.match_id
		WHERE (m.user1_id = $1 OR m.user2_id = $1)
	`, userID)
	if err != nil {
		return nil, apperr.Internal("failed to list sessions for user", err)
	}
	return sessions, nil
}
