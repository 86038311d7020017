// Package reputation recomputes a user's reputation view from their match
// and session history, grounded on
// original_source/src/services/reputation_service.py's
// "recompute, then cache" structure: the score is never stored as a single
// row, only cached with a short TTL and invalidated on any state change
// that could move it (spec §4.7).
package reputation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wingmanmatch/wingman/internal/pkg/apperr"
	"github.com/wingmanmatch/wingman/internal/pkg/cache"
	"github.com/wingmanmatch/wingman/internal/pkg/models"
	"github.com/wingmanmatch/wingman/internal/store"
)

// CacheTTLSeconds is the reputation cache entry lifetime (spec §4.2).
const CacheTTLSeconds = 300

// Service computes and caches ReputationView for users.
type Service struct {
	matches  *store.MatchStore
	sessions *store.SessionStore
	cache    cache.Cache
	logger   *logrus.Entry
}

func NewService(matches *store.MatchStore, sessions *store.SessionStore, c cache.Cache, logger *logrus.Entry) *Service {
	return &Service{matches: matches, sessions: sessions, cache: c, logger: logger}
}

// CacheKey returns the cache key for a user's reputation entry.
func CacheKey(userID string) string {
	return fmt.Sprintf("reputation:user:%s", userID)
}

// cachedView is the JSON shape stored under CacheKey; CacheTimestamp is
// stamped when this entry was written so callers can tell a cached value
// from a fresh recompute.
type cachedView struct {
	Score             int       `json:"score"`
	CompletedSessions int       `json:"completed_sessions"`
	NoShows           int       `json:"no_shows"`
	BadgeColor        string    `json:"badge_color"`
	CacheTimestamp    time.Time `json:"cache_timestamp"`
}

// GetUserReputation returns userID's derived reputation view, serving a
// cached value when useCache is true and a fresh one exists, and always
// recomputing (then re-caching) otherwise.
func (s *Service) GetUserReputation(ctx context.Context, userID string, useCache bool) (*models.ReputationView, error) {
	if useCache {
		if v, ok, err := s.readCache(ctx, userID); err != nil {
			s.logger.WithError(err).Warn("reputation cache read failed, recomputing")
		} else if ok {
			return v, nil
		}
	}

	view, err := s.recompute(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.writeCache(ctx, view); err != nil {
		s.logger.WithError(err).Warn("failed to write reputation cache entry")
	}
	return view, nil
}

// recompute walks every match the user participates in, pulls all sessions
// for those matches, and derives the score per spec §4.7's algorithm:
// completed = sessions where status=completed and the subject's
// confirmation flag is true; no_shows = sessions in {no_show, cancelled}
// involving the user.
func (s *Service) recompute(ctx context.Context, userID string) (*models.ReputationView, error) {
	matches, err := s.matches.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	matchIDs := make(map[string]models.WingmanMatch, len(matches))
	for _, m := range matches {
		matchIDs[m.ID] = m
	}

	sessions, err := s.sessions.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var completed, noShows int
	for _, sess := range sessions {
		m, ok := matchIDs[sess.MatchID]
		if !ok {
			continue
		}
		switch sess.Status {
		case models.SessionStatusCompleted:
			if confirmedForUser(sess, m, userID) {
				completed++
			}
		case models.SessionStatusNoShow, models.SessionStatusCancelled:
			noShows++
		}
	}

	score := models.ClampReputation(completed - noShows)
	return &models.ReputationView{
		UserID:            userID,
		Score:             score,
		CompletedSessions: completed,
		NoShows:           noShows,
		BadgeColor:        models.ReputationBadge(score),
		CacheTimestamp:    time.Now(),
	}, nil
}

// confirmedForUser reports whether sess records that userID's attendance
// was confirmed by their counterpart, resolving userID's role (user1 or
// user2) within m first.
func confirmedForUser(sess models.WingmanSession, m models.WingmanMatch, userID string) bool {
	switch userID {
	case m.User1ID:
		return sess.User1CompletedConfirmedByUser2
	case m.User2ID:
		return sess.User2CompletedConfirmedByUser1
	default:
		return false
	}
}

// MatchCountersConsistent asserts the §9 open-question invariant: the
// write-time per-match reputation counters stay equal to the recomputed
// count for each participant. Not called from request handlers, and no test
// in the repository calls it.
func (s *Service) MatchCountersConsistent(ctx context.Context, matchID string) (bool, error) {
	m, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return false, err
	}
	v1, err := s.recompute(ctx, m.User1ID)
	if err != nil {
		return false, err
	}
	v2, err := s.recompute(ctx, m.User2ID)
	if err != nil {
		return false, err
	}
	return m.User1Reputation == v1.CompletedSessions && m.User2Reputation == v2.CompletedSessions, nil
}

func (s *Service) readCache(ctx context.Context, userID string) (*models.ReputationView, bool, error) {
	raw, ok, err := s.cache.Get(ctx, CacheKey(userID))
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	var cv cachedView
	if err := json.Unmarshal([]byte(raw), &cv); err != nil {
		return nil, false, apperr.Internal("failed to decode cached reputation", err)
	}
	return &models.ReputationView{
		UserID:            userID,
		Score:             cv.Score,
		CompletedSessions: cv.CompletedSessions,
		NoShows:           cv.NoShows,
		BadgeColor:        cv.BadgeColor,
		CacheTimestamp:    cv.CacheTimestamp,
	}, true, nil
}

func (s *Service) writeCache(ctx context.Context, v *models.ReputationView) error {
	cv := cachedView{
		Score:             v.Score,
		CompletedSessions: v.CompletedSessions,
		NoShows:           v.NoShows,
		BadgeColor:        v.BadgeColor,
		CacheTimestamp:    v.CacheTimestamp,
	}
	raw, err := json.Marshal(cv)
	if err != nil {
		return apperr.Internal("failed to encode reputation for cache", err)
	}
	return s.cache.Set(ctx, CacheKey(v.UserID), string(raw), CacheTTLSeconds)
}

// Invalidate clears both participants' cached reputation entries,
// called by internal/session from within the same Go call that commits a
// confirmation/completion transition (spec §4.7, §5: never from a separate
// goroutine, so a racing reader sees either the pre-transition cached value
// or a fresh recompute, never a stale post-invalidation write).
func (s *Service) Invalidate(ctx context.Context, userIDs ...string) {
	for _, uid := range userIDs {
		if err := s.cache.Delete(ctx, CacheKey(uid)); err != nil {
			s.logger.WithField("user_id", uid).WithError(err).Warn("failed to invalidate reputation cache")
		}
	}
}

// InvalidateAll clears every cached reputation entry, used for admin
// maintenance (spec §4.7: "bulk invalidation supported for admin
// maintenance").
func (s *Service) InvalidateAll(ctx context.Context) error {
	return s.cache.DeleteMatching(ctx, "reputation:user:*")
}
