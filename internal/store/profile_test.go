package store

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/wingmanmatch/wingman/internal/pkg/apperr"
	"github.com/wingmanmatch/wingman/internal/pkg/models"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

func TestProfileStoreCreate(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewProfileStore(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO user_profiles")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	p := &models.UserProfile{ID: "u1", Email: "u1@example.com", DisplayName: "U1"}
	err := store.Create(context.Background(), p)

	assert.NoError(t, err)
	assert.Equal(t, models.ExperienceBeginner, p.ExperienceLevel)
	assert.False(t, p.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileStoreGetByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewProfileStore(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM user_profiles WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := store.GetByID(context.Background(), "missing")
	assert.Error(t, err)
	ae, ok := apperr.As(err)
	assert.True(t, ok)
	assert.Equal(t, apperr.KindNotFound, ae.Kind)
}

func TestProfileStoreGetByIDFound(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewProfileStore(db)

	rows := sqlmock.NewRows([]string{
		"id", "email", "display_name", "first_name", "bio", "experience_level",
		"confidence_archetype", "photo_url", "created_at", "updated_at",
	}).AddRow("u1", "u1@example.com", "U1", "", "bio here", models.ExperienceIntermediate, "", "", time.Now(), time.Now())

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM user_profiles WHERE id = $1")).
		WithArgs("u1").
		WillReturnRows(rows)

	p, err := store.GetByID(context.Background(), "u1")
	assert.NoError(t, err)
	assert.Equal(t, "u1", p.ID)
	assert.Equal(t, models.ExperienceIntermediate, p.ExperienceLevel)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileStoreUpdateNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewProfileStore(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE user_profiles SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Update(context.Background(), &models.UserProfile{ID: "ghost"})
	assert.Error(t, err)
	ae, ok := apperr.As(err)
	assert.True(t, ok)
	assert.Equal(t, apperr.KindNotFound, ae.Kind)
}

func TestLocationStoreUpsertAndGet(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewLocationStore(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO user_locations")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := store.Upsert(context.Background(), &models.UserLocation{
		UserID: "u1", Latitude: 40.0, Longitude: -73.0, PrivacyMode: models.PrivacyPrecise,
	})
	assert.NoError(t, err)

	rows := sqlmock.NewRows([]string{
		"user_id", "latitude", "longitude", "city", "geohash", "travel_radius_miles", "privacy_mode", "updated_at",
	}).AddRow("u1", 40.0, -73.0, "NYC", "dr5regw", 20, models.PrivacyPrecise, time.Now())

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM user_locations WHERE user_id = $1")).
		WithArgs("u1").
		WillReturnRows(rows)

	loc, err := store.GetByUserID(context.Background(), "u1")
	assert.NoError(t, err)
	assert.False(t, loc.IsSentinel())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLocationStoreGetByUserIDMissingReturnsNilNotError(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewLocationStore(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM user_locations WHERE user_id = $1")).
		WithArgs("nobody").
		WillReturnError(sql.ErrNoRows)

	loc, err := store.GetByUserID(context.Background(), "nobody")
	assert.NoError(t, err)
	assert.Nil(t, loc)
}
