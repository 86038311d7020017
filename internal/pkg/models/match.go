package models

import "time"

// WingmanMatch statuses.
const (
	MatchStatusPending  = "pending"
	MatchStatusAccepted = "accepted"
	MatchStatusDeclined = "declined"
)

// WingmanMatch is a candidate pairing between two users, keyed deterministically
// so that User1ID < User2ID lexicographically regardless of who initiated it.
type WingmanMatch struct {
	ID              string    `db:"id" json:"id"`
	User1ID         string    `db:"user1_id" json:"user1_id"`
	User2ID         string    `db:"user2_id" json:"user2_id"`
	Status          string    `db:"status" json:"status"`
	User1Reputation int       `db:"user1_reputation" json:"user1_reputation"`
	User2Reputation int       `db:"user2_reputation" json:"user2_reputation"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// OtherParticipant returns the counterpart of userID within the match, or
// "" if userID is not a participant.
func (m WingmanMatch) OtherParticipant(userID string) string {
	switch userID {
	case m.User1ID:
		return m.User2ID
	case m.User2ID:
		return m.User1ID
	default:
		return ""
	}
}

// IsParticipant reports whether userID is one of the two match participants.
func (m WingmanMatch) IsParticipant(userID string) bool {
	return userID == m.User1ID || userID == m.User2ID
}

// PairKey returns the deterministic pair key (min, max) for two user ids.
func PairKey(a, b string) (string, string) {
	if a < b {
		return a, b
	}
	return b, a
}

// ApproachChallenge is a read-only catalog entry.
type ApproachChallenge struct {
	ID          string `db:"id" json:"id"`
	Difficulty  string `db:"difficulty" json:"difficulty"`
	Title       string `db:"title" json:"title"`
	Description string `db:"description" json:"description"`
	Points      int    `db:"points" json:"points"`
}
