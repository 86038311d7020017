package store

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/wingmanmatch/wingman/internal/pkg/apperr"
	"github.com/wingmanmatch/wingman/internal/pkg/models"
)

// postgres unique_violation, see https://www.postgresql.org/docs/current/errcodes-appendix.html
const pgUniqueViolation = "23505"

// MatchStore persists wingman_matches rows.
type MatchStore struct {
	db *sqlx.DB
}

func NewMatchStore(db *sqlx.DB) *MatchStore {
	log.Println("initializing match store")
	return &MatchStore{db: db}
}

// Create inserts a pending match between userA and userB, ordering them into
// the deterministic (user1, user2) pair key. If a pending match already
// exists for this pair — caught via the partial unique index, not a
// read-then-write check — it returns a Conflict apperr so the caller can
// treat concurrent match creation as idempotent (spec §4.3).
func (s *MatchStore) Create(ctx context.Context, m *models.WingmanMatch) error {
	m.User1ID, m.User2ID = models.PairKey(m.User1ID, m.User2ID)
	if m.ID == "" {
		return apperr.Internal("match id must be set before insert", nil)
	}
	m.CreatedAt = time.Now()
	if m.Status == "" {
		m.Status = models.MatchStatusPending
	}

	query := `
		INSERT INTO wingman_matches (
			id, user1_id, user2_id, status, user1_reputation, user2_reputation, created_at
		) VALUES (
			:id, :user1_id, :user2_id, :status, :user1_reputation, :user2_reputation, :created_at
		)
	`
	_, err := s.db.NamedExecContext(ctx, query, m)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return apperr.Conflict("a pending match already exists for this pair")
		}
		return apperr.Internal("failed to insert match", err)
	}
	return nil
}

// GetByID returns a match by id.
func (s *MatchStore) GetByID(ctx context.Context, id string) (*models.WingmanMatch, error) {
	var m models.WingmanMatch
	err := s.db.GetContext(ctx, &m, `SELECT * FROM wingman_matches WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("match not found")
		}
		return nil, apperr.Internal("failed to get match", err)
	}
	return &m, nil
}

// BeginTx starts a transaction for the accept/decline status transition.
func (s *MatchStore) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, apperr.Internal("failed to begin transaction", err)
	}
	return tx, nil
}

// GetForUpdate returns a match locked FOR UPDATE within tx, used by
// Accept/Decline so two concurrent transitions on the same pending match
// can't both commit (spec §4.4's tie-break invariant: only the first
// transition wins).
func (s *MatchStore) GetForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.WingmanMatch, error) {
	var m models.WingmanMatch
	err := tx.GetContext(ctx, &m, `SELECT * FROM wingman_matches WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("match not found")
		}
		return nil, apperr.Internal("failed to get match", err)
	}
	return &m, nil
}

// GetPendingForPair returns the pending match between a and b, if any.
func (s *MatchStore) GetPendingForPair(ctx context.Context, a, b string) (*models.WingmanMatch, error) {
	u1, u2 := models.PairKey(a, b)
	var m models.WingmanMatch
	err := s.db.GetContext(ctx, &m, `
		SELECT * FROM wingman_matches
		WHERE user1_id = $1 AND user2_id = $2 AND status = $3
	`, u1, u2, models.MatchStatusPending)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperr.Internal("failed to query pending match", err)
	}
	return &m, nil
}

// HasPendingForUser reports whether userID is party to any pending match,
// enforcing the single-active-pending-match throttle (spec §4.3).
func (s *MatchStore) HasPendingForUser(ctx context.Context, userID string) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `
		SELECT count(*) FROM wingman_matches
		WHERE (user1_id = $1 OR user2_id = $1) AND status = $2
	`, userID, models.MatchStatusPending)
	if err != nil {
		return false, apperr.Internal("failed to count pending matches", err)
	}
	return count > 0, nil
}

// WasRecentlyPaired reports whether a and b have any match (any status)
// created within the recency window, preventing immediate re-pairing
// (spec §4.3).
func (s *MatchStore) WasRecentlyPaired(ctx context.Context, a, b string, since time.Time) (bool, error) {
	u1, u2 := models.PairKey(a, b)
	var count int
	err := s.db.GetContext(ctx, &count, `
		SELECT count(*) FROM wingman_matches
		WHERE user1_id = $1 AND user2_id = $2 AND created_at >= $3
	`, u1, u2, since)
	if err != nil {
		return false, apperr.Internal("failed to check recent pairing", err)
	}
	return count > 0, nil
}

// UpdateStatusIfPending transitions a match out of pending within tx, but
// only if it is still pending at the moment of the write. Returns whether
// the transition actually happened; a false return with no error means
// another transition (accept or decline) already won the race (spec §4.4).
func (s *MatchStore) UpdateStatusIfPending(ctx context.Context, tx *sqlx.Tx, matchID, status string, user1Rep, user2Rep int) (bool, error) {
	result, err := tx.ExecContext(ctx, `
		UPDATE wingman_matches
		SET status = $1, user1_reputation = $2, user2_reputation = $3
		WHERE id = $4 AND status = $5
	`, status, user1Rep, user2Rep, matchID, models.MatchStatusPending)
	if err != nil {
		return false, apperr.Internal("failed to update match status", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, apperr.Internal("failed to read update result", err)
	}
	return rows > 0, nil
}

// IncrementReputation bumps the diagnostic per-match reputation counters
// within tx, used by the session completion transition so the increment is
// atomic with the confirmation-flag write and the status=completed flip
// (spec §5, §9 open question b: these columns mirror, never override, the
// recomputed read-side view).
func (s *MatchStore) IncrementReputation(ctx context.Context, tx *sqlx.Tx, matchID string, user1Delta, user2Delta int) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE wingman_matches
		SET user1_reputation = user1_reputation + $1, user2_reputation = user2_reputation + $2
		WHERE id = $3
	`, user1Delta, user2Delta, matchID)
	if err != nil {
		return apperr.Internal("failed to increment match reputation counters", err)
	}
	return nil
}

// ListForUser returns every match a user has participated in, most recent first.
func (s *MatchStore) ListForUser(ctx context.Context, userID string) ([]models.WingmanMatch, error) {
	var matches []models.WingmanMatch
	err := s.db.SelectContext(ctx, &matches, `
		SELECT * FROM wingman_matches
		WHERE user1_id = $1 OR user2_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, apperr.Internal("failed to list matches", err)
	}
	return matches, nil
}
