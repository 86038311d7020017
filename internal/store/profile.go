// Package store holds typed, sqlx-backed repositories, one file per entity,
// following the teacher's services/user/repository package: plain structs
// wrapping *sqlx.DB, context-first methods, GetContext/SelectContext for
// reads and NamedExecContext/transactions for writes.
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

// ProfileStore persists user_profiles rows.
type ProfileStore struct {
	db *sqlx.DB
}

func NewProfileStore(db *sqlx.DB) *ProfileStore {
	log.Println("initializing profile store")
	return &ProfileStore{db: db}
}

// Create inserts a new profile, defaulting experience level to beginner
// when unset (spec §4.1 default).
func (s *ProfileStore) Create(ctx context.Context, p *models.UserProfile) error {
	if p.ExperienceLevel == "" {
		p.ExperienceLevel = models.ExperienceBeginner
	}
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now

	query := `
		INSERT INTO user_profiles (
			id, email, display_name, first_name, bio, experience_level,
			confidence_archetype, photo_url, created_at, updated_at
		) VALUES (
			:id, :email, :display_name, :first_name, :bio, :experience_level,
			:confidence_archetype, :photo_url, :created_at, :updated_at
		)
	`
	if _, err := s.db.NamedExecContext(ctx, query, p); err != nil {
		return apperr.Internal("failed to insert profile", err)
	}
	return nil
}

// GetByID returns the profile for userID, or a NotFound apperr if absent.
func (s *ProfileStore) GetByID(ctx context.Context, userID string) (*models.UserProfile, error) {
	var p models.UserProfile
	err := s.db.GetContext(ctx, &p, `SELECT * FROM user_profiles WHERE id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("profile not found")
		}
		return nil, apperr.Internal("failed to get profile", err)
	}
	return &p, nil
}

// Update applies a partial update to the mutable fields of a profile.
func (s *ProfileStore) Update(ctx context.Context, p *models.UserProfile) error {
	p.UpdatedAt = time.Now()
	query := `
		UPDATE user_profiles SET
			display_name = :display_name,
			first_name = :first_name,
			bio = :bio,
			experience_level = :experience_level,
			confidence_archetype = :confidence_archetype,
			photo_url = :photo_url,
			updated_at = :updated_at
		WHERE id = :id
	`
	result, err := s.db.NamedExecContext(ctx, query, p)
	if err != nil {
		return apperr.Internal("failed to update profile", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperr.Internal("failed to read update result", err)
	}
	if rows == 0 {
		return apperr.NotFound("profile not found")
	}
	return nil
}

// LocationStore persists user_locations rows, one per user (upsert).
type LocationStore struct {
	db *sqlx.DB
}

func NewLocationStore(db *sqlx.DB) *LocationStore {
	return &LocationStore{db: db}
}

// Upsert writes a user's location, used both for precise coordinates and the
// (0,0) sentinel that signals city_only privacy mode (spec §4.2).
func (s *LocationStore) Upsert(ctx context.Context, loc *models.UserLocation) error {
	loc.UpdatedAt = time.Now()
	query := `
		INSERT INTO user_locations (
			user_id, latitude, longitude, city, geohash, travel_radius_miles, privacy_mode, updated_at
		) VALUES (
			:user_id, :latitude, :longitude, :city, :geohash, :travel_radius_miles, :privacy_mode, :updated_at
		)
		ON CONFLICT (user_id) DO UPDATE SET
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			city = EXCLUDED.city,
			geohash = EXCLUDED.geohash,
			travel_radius_miles = EXCLUDED.travel_radius_miles,
			privacy_mode = EXCLUDED.privacy_mode,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := s.db.NamedExecContext(ctx, query, loc); err != nil {
		return apperr.Internal("failed to upsert location", err)
	}
	return nil
}

// GetByUserID returns a user's location row, or nil if they have never set one.
func (s *LocationStore) GetByUserID(ctx context.Context, userID string) (*models.UserLocation, error) {
	var loc models.UserLocation
	err := s.db.GetContext(ctx, &loc, `SELECT * FROM user_locations WHERE user_id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperr.Internal("failed to get location", err)
	}
	return &loc, nil
}
