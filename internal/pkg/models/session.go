package models

import "time"

// WingmanSession statuses.
const (
	SessionStatusScheduled  = "scheduled"
	SessionStatusInProgress = "in_progress"
	SessionStatusCompleted  = "completed"
	SessionStatusNoShow     = "no_show"
	SessionStatusCancelled  = "cancelled"
)

// WingmanSession is a scheduled meetup instance belonging to a WingmanMatch.
//
// Flag semantics (resolved open question, see DESIGN.md): each flag is named
// for the *subject* whose attendance it records, and is set by the
// counterpart confirming that subject. User1CompletedConfirmedByUser2 means
// "user1's attendance was confirmed by user2".
type WingmanSession struct {
	ID                            string     `db:"id" json:"id"`
	MatchID                       string     `db:"match_id" json:"match_id"`
	User1ChallengeID              string     `db:"user1_challenge_id" json:"user1_challenge_id"`
	User2ChallengeID              string     `db:"user2_challenge_id" json:"user2_challenge_id"`
	VenueName                     string     `db:"venue_name" json:"venue_name"`
	ScheduledTime                 time.Time  `db:"scheduled_time" json:"scheduled_time"`
	Status                        string     `db:"status" json:"status"`
	Notes                         string     `db:"notes" json:"notes"`
	User1CompletedConfirmedByUser2 bool      `db:"user1_completed_confirmed_by_user2" json:"user1_completed_confirmed_by_user2"`
	User2CompletedConfirmedByUser1 bool      `db:"user2_completed_confirmed_by_user1" json:"user2_completed_confirmed_by_user1"`
	CompletedAt                   *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt                     time.Time  `db:"created_at" json:"created_at"`
}

// BothConfirmed reports whether both participants have confirmed the
// counterpart's attendance.
func (s WingmanSession) BothConfirmed() bool {
	return s.User1CompletedConfirmedByUser2 && s.User2CompletedConfirmedByUser1
}

// ChatMessage is a pair-scoped message belonging to a WingmanMatch.
const SystemSenderID = "system"

type ChatMessage struct {
	ID        string    `db:"id" json:"id"`
	MatchID   string    `db:"match_id" json:"match_id"`
	SenderID  string    `db:"sender_id" json:"sender_id"`
	Message   string    `db:"message" json:"message"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ChatReadCursor is a per-user last-read marker per match.
type ChatReadCursor struct {
	MatchID    string    `db:"match_id" json:"match_id"`
	UserID     string    `db:"user_id" json:"user_id"`
	LastReadAt time.Time `db:"last_read_at" json:"last_read_at"`
}

// ReputationView is derived, never persisted as a single row.
type ReputationView struct {
	UserID            string    `json:"user_id"`
	Score             int       `json:"score"`
	CompletedSessions int       `json:"completed_sessions"`
	NoShows           int       `json:"no_shows"`
	BadgeColor        string    `json:"badge_color"`
	CacheTimestamp    time.Time `json:"cache_timestamp"`
}

// Reputation badge colors and bounds.
const (
	BadgeGold  = "gold"
	BadgeGreen = "green"
	BadgeRed   = "red"

	ReputationMin = -5
	ReputationMax = 20
)

// ClampReputation bounds a raw completed-no_shows delta to [ReputationMin, ReputationMax].
func ClampReputation(delta int) int {
	if delta < ReputationMin {
		return ReputationMin
	}
	if delta > ReputationMax {
		return ReputationMax
	}
	return delta
}

// ReputationBadge derives the badge color for a clamped score.
func ReputationBadge(score int) string {
	switch {
	case score >= 10:
		return BadgeGold
	case score >= 0:
		return BadgeGreen
	default:
		return BadgeRed
	}
}
