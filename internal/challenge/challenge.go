// Package challenge serves the read-only approach-challenge catalog,
// cached under challenges:all / challenges:difficulty:<level> (spec §4.2,
// §6 GET /api/challenges). The catalog itself is content-managed
// externally (spec §3); this package only reads and caches it.
package challenge

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"
	"github.com/wingmanmatch/wingman/internal/pkg/apperr"
	"github.com/wingmanmatch/wingman/internal/pkg/cache"
	"github.com/wingmanmatch/wingman/internal/pkg/models"
	"github.com/wingmanmatch/wingman/internal/store"
)

// CacheTTLSeconds is the challenge catalog cache entry lifetime (spec §4.2).
const CacheTTLSeconds = 1800

// Service lists the approach-challenge catalog, optionally filtered by
// difficulty, with a cache layer in front of the read-only store.
type Service struct {
	challenges *store.ChallengeStore
	cache      cache.Cache
	logger     *logrus.Entry
}

func NewService(challenges *store.ChallengeStore, c cache.Cache, logger *logrus.Entry) *Service {
	return &Service{challenges: challenges, cache: c, logger: logger}
}

// Result is the list response, including whether the value served from
// cache (spec §6's `cached` response field).
type Result struct {
	Challenges []models.ApproachChallenge
	Cached     bool
}

// List returns the catalog, filtered to one difficulty tier if difficulty
// is non-empty.
func (s *Service) List(ctx context.Context, difficulty string) (*Result, error) {
	key := "challenges:all"
	if difficulty != "" {
		key = "challenges:difficulty:" + difficulty
	}

	if raw, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.WithError(err).Warn("challenge cache read failed, falling back to store")
	} else if ok {
		var challenges []models.ApproachChallenge
		if err := json.Unmarshal([]byte(raw), &challenges); err == nil {
			return &Result{Challenges: challenges, Cached: true}, nil
		}
	}

	var challenges []models.ApproachChallenge
	var err error
	if difficulty != "" {
		challenges, err = s.challenges.ListByDifficulty(ctx, difficulty)
	} else {
		challenges, err = s.challenges.ListAll(ctx)
	}
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(challenges); err != nil {
		s.logger.WithError(err).Warn("failed to encode challenge catalog for cache")
	} else if err := s.cache.Set(ctx, key, string(raw), CacheTTLSeconds); err != nil {
		s.logger.WithError(err).Warn("failed to write challenge catalog cache entry")
	}

	return &Result{Challenges: challenges, Cached: false}, nil
}

// Get returns a single challenge by id. internal/session does not call it;
// it validates challenge ids through store.ChallengeStore directly.
func (s *Service) Get(ctx context.Context, id string) (*models.ApproachChallenge, error) {
	c, err := s.challenges.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	return c, nil
}
