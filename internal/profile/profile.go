// Package profile implements profile completion: upserting a user's bio,
// photo URL, and location geometry in one call (experience level and
// archetype are not set here), grounded
// on original_source/src/services/profile_service.py's complete_profile
// (bio sanitization, coordinate validation, sentinel handling for
// city_only privacy mode). The core never deletes a profile (spec §3).
package profile

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/wingmanmatch/wingman/internal/geo"
	"github.com/wingmanmatch/wingman/internal/pkg/apperr"
	"github.com/wingmanmatch/wingman/internal/pkg/converter"
	"github.com/wingmanmatch/wingman/internal/pkg/models"
	"github.com/wingmanmatch/wingman/internal/store"
)

const (
	minBioLength    = 1
	maxBioLength    = 400
	minRadiusMiles  = 1
	maxRadiusMiles  = 50
)

// Service completes and reads user profiles and their location geometry.
type Service struct {
	profiles  *store.ProfileStore
	locations *store.LocationStore
	logger    *logrus.Entry
}

func NewService(profiles *store.ProfileStore, locations *store.LocationStore, logger *logrus.Entry) *Service {
	return &Service{profiles: profiles, locations: locations, logger: logger}
}

// LocationInput mirrors the nested `location` object of POST
// /api/profile/complete.
type LocationInput struct {
	Latitude    float64
	Longitude   float64
	City        string
	PrivacyMode string
}

// CompleteInput mirrors the POST /api/profile/complete request body.
type CompleteInput struct {
	UserID      string
	Bio         string
	Location    LocationInput
	RadiusMiles int
	PhotoURL    string
}

// Result mirrors the endpoint's success response.
type Result struct {
	UserID          string
	ReadyForMatching bool
}

// Complete validates and persists a profile-completion request: the bio is
// sanitized and length-checked, the location is validated (and the
// sentinel (0,0) written for city_only privacy mode per spec §4.1), and
// the profile row is created if this is the user's first completion.
func (s *Service) Complete(ctx context.Context, in CompleteInput) (*Result, error) {
	if len(in.Bio) < minBioLength {
		return nil, apperr.Validation("bio is required")
	}
	bio := converter.SanitizeText(in.Bio)
	if len(bio) > maxBioLength {
		return nil, apperr.Validation("bio must be at most 400 characters after sanitization")
	}

	if in.RadiusMiles < minRadiusMiles || in.RadiusMiles > maxRadiusMiles {
		return nil, apperr.Validation("travel_radius must be between 1 and 50 miles")
	}

	loc, err := s.buildLocation(in.UserID, in.Location, in.RadiusMiles)
	if err != nil {
		return nil, err
	}

	p, err := s.profiles.GetByID(ctx, in.UserID)
	if err != nil {
		ae, ok := apperr.As(err)
		if !ok || ae.Kind != apperr.KindNotFound {
			return nil, err
		}
		p = &models.UserProfile{
			ID:          in.UserID,
			Email:       in.UserID + "@wingmanmatch.temp",
			DisplayName: "New member",
		}
		if err := s.profiles.Create(ctx, p); err != nil {
			return nil, err
		}
	}

	p.Bio = bio
	p.PhotoURL = in.PhotoURL
	if err := s.profiles.Update(ctx, p); err != nil {
		return nil, err
	}

	if err := s.locations.Upsert(ctx, loc); err != nil {
		return nil, err
	}

	return &Result{UserID: in.UserID, ReadyForMatching: true}, nil
}

func (s *Service) buildLocation(userID string, in LocationInput, radiusMiles int) (*models.UserLocation, error) {
	privacy := in.PrivacyMode
	if privacy == "" {
		privacy = models.PrivacyPrecise
	}
	if privacy != models.PrivacyPrecise && privacy != models.PrivacyCityOnly {
		return nil, apperr.Validation("privacy_mode must be 'precise' or 'city_only'")
	}

	loc := &models.UserLocation{
		UserID:      userID,
		City:        in.City,
		RadiusMiles: radiusMiles,
		PrivacyMode: privacy,
	}

	if privacy == models.PrivacyCityOnly {
		// Sentinel coordinates must be stored, never the real ones, so
		// precise-distance queries exclude this user entirely (spec §3).
		loc.Latitude, loc.Longitude = 0, 0
		loc.Geohash = ""
		return loc, nil
	}

	if in.Latitude < -90 || in.Latitude > 90 || in.Longitude < -180 || in.Longitude > 180 {
		return nil, apperr.Validation("latitude/longitude out of range")
	}
	loc.Latitude = in.Latitude
	loc.Longitude = in.Longitude
	loc.Geohash = geo.Encode(in.Latitude, in.Longitude)
	return loc, nil
}
