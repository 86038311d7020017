// Package matcher implements automatic wingman buddy matching, generalizing
// the teacher's services/match/usecase (MatchUC.CreateMatchRequest /
// FindMatchForPassenger) from ride-hailing driver/passenger pairing to
// compatibility-scored buddy pairing. The algorithm itself — radius search,
// experience-level compatibility, recency filtering, deterministic pair
// ordering — is grounded directly on
// original_source/src/services/wingman_matcher.py.
package matcher

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/wingmanmatch/wingman/internal/geo"
	"github.com/wingmanmatch/wingman/internal/pkg/apperr"
	"github.com/wingmanmatch/wingman/internal/pkg/collab"
	"github.com/wingmanmatch/wingman/internal/pkg/models"
	"github.com/wingmanmatch/wingman/internal/store"
)

// maxExperienceLevelGap is the compatibility window: a candidate is
// eligible if their experience rank is within this many steps of the
// requester's (wingman_matcher.py: "same or ±1 level").
const maxExperienceLevelGap = 1

// Reason codes for a soft (non-error) match failure, returned in Result
// when Success is false (spec §4.4).
const (
	ReasonLocationMissing = "location_missing"
	ReasonNoCandidates    = "no_candidates"
)

// Result mirrors create_automatic_match's response shape: callers render it
// directly without re-deriving buddy profile info. A business-logic
// failure to find a match (no location on file, or no eligible candidate)
// is reported as Success=false with Reason set, never as an error — only
// genuine internal/dependency failures are returned via the error return
// value (spec §4.4).
type Result struct {
	Success        bool
	Reason         string
	MatchID        string
	BuddyUserID    string
	BuddyProfile   *models.UserProfile
	AlreadyPending bool
}

// Service creates automatic wingman matches.
type Service struct {
	db          *sqlx.DB
	profiles    *store.ProfileStore
	matches     *store.MatchStore
	locations   *store.LocationStore
	mailer      collab.EmailSender
	logger      *logrus.Entry
	recencyDays int
	maxResults  int
}

// NewService constructs a matcher service. recencyDays and maxResults come
// from MatcherConfig (spec §4.3, the resolved MATCH_RECENCY_WINDOW_DAYS
// open question).
func NewService(db *sqlx.DB, profiles *store.ProfileStore, matches *store.MatchStore, locations *store.LocationStore, mailer collab.EmailSender, logger *logrus.Entry, recencyDays, maxResults int) *Service {
	return &Service{
		db:          db,
		profiles:    profiles,
		matches:     matches,
		locations:   locations,
		mailer:      mailer,
		logger:      logger,
		recencyDays: recencyDays,
		maxResults:  maxResults,
	}
}

// CreateAutomaticMatch finds and pairs userID with the best compatible
// wingman buddy within radiusMiles, mirroring
// WingmanMatcher.create_automatic_match's control flow: ensure profile,
// check throttle, check location, find candidate, create record.
func (s *Service) CreateAutomaticMatch(ctx context.Context, userID string, radiusMiles float64) (*Result, error) {
	if err := s.ensureProfile(ctx, userID); err != nil {
		return nil, err
	}

	if existing, err := s.matches.HasPendingForUser(ctx, userID); err != nil {
		return nil, err
	} else if existing {
		return s.existingPendingResult(ctx, userID)
	}

	hasLocation, err := s.hasUsableLocation(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !hasLocation {
		return &Result{Success: false, Reason: ReasonLocationMissing}, nil
	}

	candidateID, err := s.findBestCandidate(ctx, userID, radiusMiles)
	if err != nil {
		return nil, err
	}
	if candidateID == "" {
		return &Result{Success: false, Reason: ReasonNoCandidates}, nil
	}

	match := &models.WingmanMatch{
		ID:     uuid.New().String(),
		Status: models.MatchStatusPending,
	}
	match.User1ID, match.User2ID = models.PairKey(userID, candidateID)

	if err := s.matches.Create(ctx, match); err != nil {
		// A Conflict here means a concurrent request already created the
		// pending match between this exact pair; treat it the same as
		// check_existing_pending_match finding one (idempotent, not an error).
		if ae, ok := apperr.As(err); ok && ae.Kind == apperr.KindConflict {
			return s.existingPendingResult(ctx, userID)
		}
		return nil, err
	}

	buddy, err := s.profiles.GetByID(ctx, candidateID)
	if err != nil {
		s.logger.WithError(err).Warn("match created but failed to load buddy profile for response")
		buddy = nil
	}

	s.logger.WithFields(logrus.Fields{"match_id": match.ID, "user1": match.User1ID, "user2": match.User2ID}).
		Info("created automatic wingman match")

	s.notify(ctx, userID, candidateID, match.ID)

	return &Result{Success: true, MatchID: match.ID, BuddyUserID: candidateID, BuddyProfile: buddy}, nil
}

// hasUsableLocation reports whether userID has a location on file that
// precise matching can use — absent, or city_only sentinel, both count as
// unusable (spec §4.3 step 1).
func (s *Service) hasUsableLocation(ctx context.Context, userID string) (bool, error) {
	loc, err := s.locations.GetByUserID(ctx, userID)
	if err != nil {
		return false, err
	}
	if loc == nil {
		return false, nil
	}
	return !loc.IsSentinel(), nil
}

func (s *Service) existingPendingResult(ctx context.Context, userID string) (*Result, error) {
	matches, err := s.matches.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, m := range matches {
		if m.Status != models.MatchStatusPending {
			continue
		}
		buddyID := m.OtherParticipant(userID)
		buddy, err := s.profiles.GetByID(ctx, buddyID)
		if err != nil {
			buddy = nil
		}
		return &Result{Success: true, MatchID: m.ID, BuddyUserID: buddyID, BuddyProfile: buddy, AlreadyPending: true}, nil
	}
	return nil, apperr.Internal("pending match reported but not found", nil)
}

// ensureProfile auto-creates a minimal profile row if one doesn't exist yet,
// mirroring ensure_user_profile's "auto-dependency creation pattern" so a
// match request never fails on a missing foreign key.
func (s *Service) ensureProfile(ctx context.Context, userID string) error {
	_, err := s.profiles.GetByID(ctx, userID)
	if err == nil {
		return nil
	}
	ae, ok := apperr.As(err)
	if !ok || ae.Kind != apperr.KindNotFound {
		return err
	}

	placeholder := &models.UserProfile{
		ID:              userID,
		Email:           userID + "@wingmanmatch.temp",
		DisplayName:     "New member",
		ExperienceLevel: models.ExperienceBeginner,
	}
	if err := s.profiles.Create(ctx, placeholder); err != nil {
		return err
	}
	s.logger.WithField("user_id", userID).Info("auto-created placeholder profile for match request")
	return nil
}

// findBestCandidate applies the three compatibility filters in the same
// order as find_best_candidate: radius, experience level, recency — then
// picks the nearest survivor.
func (s *Service) findBestCandidate(ctx context.Context, userID string, radiusMiles float64) (string, error) {
	candidates, err := geo.FindCandidatesWithinRadius(ctx, s.db, userID, radiusMiles, s.maxResults, nil)
	if err != nil {
		return "", err
	}
	if len(candidates) == 0 {
		return "", nil
	}

	me, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	myRank := models.ExperienceRank(me.ExperienceLevel)

	cutoff := time.Now().AddDate(0, 0, -s.recencyDays)

	for _, c := range candidates {
		rank := models.ExperienceRank(c.ExperienceLevel)
		diff := myRank - rank
		if diff < 0 {
			diff = -diff
		}
		if diff > maxExperienceLevelGap {
			continue
		}

		recent, err := s.matches.WasRecentlyPaired(ctx, userID, c.UserID, cutoff)
		if err != nil {
			return "", err
		}
		if recent {
			s.logger.WithFields(logrus.Fields{"user_id": userID, "candidate_id": c.UserID}).
				Info("excluding candidate: recently paired")
			continue
		}

		return c.UserID, nil
	}

	return "", nil
}

// notify sends a best-effort match notification to both participants;
// failures never roll back the match (spec §5).
func (s *Service) notify(ctx context.Context, userID, buddyID, matchID string) {
	data := map[string]interface{}{"match_id": matchID}
	if err := s.mailer.Send(ctx, userID, "wingman_match_created", data); err != nil {
		s.logger.WithError(err).Warn("failed to notify requester of new match")
	}
	if err := s.mailer.Send(ctx, buddyID, "wingman_match_created", data); err != nil {
		s.logger.WithError(err).Warn("failed to notify buddy of new match")
	}
}
