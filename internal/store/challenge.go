package store

import (
	"context"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/wingmanmatch/wingman/internal/pkg/apperr"
	"github.com/wingmanmatch/wingman/internal/pkg/models"
)

// ChallengeStore reads the read-only approach_challenges catalog.
type ChallengeStore struct {
	db *sqlx.DB
}

func NewChallengeStore(db *sqlx.DB) *ChallengeStore {
	log.Println("initializing challenge store")
	return &ChallengeStore{db: db}
}

// ListAll returns the full catalog, ordered for stable pagination-free display.
func (s *ChallengeStore) ListAll(ctx context.Context) ([]models.ApproachChallenge, error) {
	var challenges []models.ApproachChallenge
	err := s.db.SelectContext(ctx, &challenges, `
		SELECT * FROM approach_challenges ORDER BY difficulty, points, id
	`)
	if err != nil {
		return nil, apperr.Internal("failed to list challenges", err)
	}
	return challenges, nil
}

// ListByDifficulty returns the catalog filtered to one difficulty tier.
func (s *ChallengeStore) ListByDifficulty(ctx context.Context, difficulty string) ([]models.ApproachChallenge, error) {
	var challenges []models.ApproachChallenge
	err := s.db.SelectContext(ctx, &challenges, `
		SELECT * FROM approach_challenges WHERE difficulty = $1 ORDER BY points, id
	`, difficulty)
	if err != nil {
		return nil, apperr.Internal("failed to list challenges by difficulty", err)
	}
	return challenges, nil
}

// GetByID returns a single challenge.
func (s *ChallengeStore) GetByID(ctx context.Context, id string) (*models.ApproachChallenge, error) {
	var c models.ApproachChallenge
	err := s.db.GetContext(ctx, &c, `SELECT * FROM approach_challenges WHERE id = $1`, id)
	if err != nil {
		return nil, apperr.NotFound("challenge not found")
	}
	return &c, nil
}
