// Package geo finds buddy candidates within a travel radius, grounded on
// original_source/src/db/distance.py's find_candidates_within_radius (the
// haversine_miles SQL function called from a straight SELECT) and the
// teacher's Redis geo-index pattern in
// services/match/repository/match.go (AddAvailableDriver/FindNearbyDrivers)
// for the secondary geohash column written with each precise location. The
// candidate query does not read that column; it computes haversine_miles
// for every located user.
package geo

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/mmcloughlin/geohash"
	"github.com/wingmanmatch/wingman/internal/pkg/apperr"
	"github.com/wingmanmatch/wingman/internal/pkg/models"
)

// geohashPrecision is the geohash length stored in the secondary column;
// 5 characters covers roughly a 4.9km x 4.9km cell.
const geohashPrecision = 5

// Candidate is a ranked buddy match candidate.
type Candidate struct {
	UserID              string  `db:"user_id"`
	City                string  `db:"city"`
	ExperienceLevel     string  `db:"experience_level"`
	ConfidenceArchetype string  `db:"confidence_archetype"`
	DistanceMiles       float64 `db:"distance_miles"`
}

// Encode returns the geohash for a coordinate pair at the package's
// indexing precision. Sentinel (0,0) coordinates (city_only privacy mode)
// still encode to a real geohash, but LocationStore callers skip indexing
// sentinel rows per spec §4.2.
func Encode(lat, lng float64) string {
	return geohash.EncodeWithPrecision(lat, lng, geohashPrecision)
}

// DistanceBetween computes the great-circle distance in miles between two
// coordinates via the database's haversine_miles function, keeping the
// single source of truth for the formula on the server side rather than
// duplicating it in Go (spec §4.2, grounded on db/distance.py).
func DistanceBetween(ctx context.Context, db *sqlx.DB, lat1, lng1, lat2, lng2 float64) (float64, error) {
	var miles float64
	err := db.GetContext(ctx, &miles, `SELECT haversine_miles($1, $2, $3, $4)`, lat1, lng1, lat2, lng2)
	if err != nil {
		return 0, apperr.Internal("failed to compute distance", err)
	}
	return miles, nil
}

// DistanceBetweenUsers returns the great-circle distance in miles between
// two users' locations, or (0, false) if either location is missing or
// either is in city_only privacy mode (spec §4.3 distance_between).
func DistanceBetweenUsers(ctx context.Context, db *sqlx.DB, userA, userB string) (float64, bool, error) {
	var locA, locB models.UserLocation
	if err := db.GetContext(ctx, &locA, `SELECT * FROM user_locations WHERE user_id = $1`, userA); err != nil {
		return 0, false, nil
	}
	if err := db.GetContext(ctx, &locB, `SELECT * FROM user_locations WHERE user_id = $1`, userB); err != nil {
		return 0, false, nil
	}
	if locA.IsSentinel() || locB.IsSentinel() {
		return 0, false, nil
	}

	miles, err := DistanceBetween(ctx, db, locA.Latitude, locA.Longitude, locB.Latitude, locB.Longitude)
	if err != nil {
		return 0, false, err
	}
	return miles, true, nil
}

// FindCandidatesWithinRadius returns up to limit buddy candidates for
// userID within radiusMiles, excluding sentinel (0,0) locations and
// incomplete profiles, ordered nearest-first with equal distances ordered
// by ascending user id. excludeUserIDs additionally
// filters out ids the caller already knows are ineligible (e.g. recently
// paired or pending-matched users) so the matcher doesn't have to re-rank a
// candidate only to discard it.
func FindCandidatesWithinRadius(ctx context.Context, db *sqlx.DB, userID string, radiusMiles float64, limit int, excludeUserIDs []string) ([]Candidate, error) {
	var origin models.UserLocation
	err := db.GetContext(ctx, &origin, `SELECT * FROM user_locations WHERE user_id = $1`, userID)
	if err != nil {
		// Fail soft: no location row means no candidates, not an error
		// (spec §4.3 step 1).
		return nil, nil
	}
	if origin.IsSentinel() {
		// city_only privacy mode: precise matching is never attempted
		// (spec §4.3 step 1), so this is an empty result, not an error.
		return nil, nil
	}

	exclude := append([]string{userID}, excludeUserIDs...)

	query := `
		SELECT
			ul.user_id,
			ul.city,
			up.experience_level,
			up.confidence_archetype,
			haversine_miles($1, $2, ul.latitude, ul.longitude) AS distance_miles
		FROM user_locations ul
		JOIN user_profiles up ON up.id = ul.user_id
		WHERE NOT (ul.latitude = 0 AND ul.longitude = 0)
		  AND ul.user_id != ALL($3)
		  AND up.experience_level <> ''
		  AND up.confidence_archetype <> ''
		  AND haversine_miles($1, $2, ul.latitude, ul.longitude) <= $4
		ORDER BY distance_miles ASC, ul.user_id ASC
		LIMIT $5
	`
	var candidates []Candidate
	err = db.SelectContext(ctx, &candidates, query, origin.Latitude, origin.Longitude, pqStringArray(exclude), radiusMiles, limit)
	if err != nil {
		return nil, apperr.Internal("failed to find candidates", err)
	}
	return candidates, nil
}

// pqStringArray renders a Go string slice as a Postgres text[] literal,
// since the pgx stdlib driver doesn't auto-convert []string for ANY($n)
// the way pgx's native interface does.
func pqStringArray(values []string) string {
	out := "{"
	for i, v := range values {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf("%q", v)
	}
	return out + "}"
}
