package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/wingmanmatch/wingman/internal/pkg/apperr"
	"github.com/wingmanmatch/wingman/internal/pkg/models"
)

func TestMatchStoreCreateOrdersPairKey(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewMatchStore(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO wingman_matches")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	m := &models.WingmanMatch{ID: "match-1", User1ID: "bob", User2ID: "alice"}
	err := store.Create(context.Background(), m)

	assert.NoError(t, err)
	assert.Equal(t, "alice", m.User1ID)
	assert.Equal(t, "bob", m.User2ID)
	assert.Equal(t, models.MatchStatusPending, m.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchStoreCreateConflictOnDuplicatePending(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewMatchStore(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO wingman_matches")).
		WillReturnError(&pgconn.PgError{Code: pgUniqueViolation})

	err := store.Create(context.Background(), &models.WingmanMatch{ID: "match-1", User1ID: "a", User2ID: "b"})
	ae, ok := apperr.As(err)
	assert.True(t, ok)
	assert.Equal(t, apperr.KindConflict, ae.Kind)
}

func TestMatchStoreHasPendingForUser(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewMatchStore(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM wingman_matches")).
		WithArgs("u1", models.MatchStatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	has, err := store.HasPendingForUser(context.Background(), "u1")
	assert.NoError(t, err)
	assert.True(t, has)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchStoreWasRecentlyPairedFalse(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewMatchStore(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM wingman_matches")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	recent, err := store.WasRecentlyPaired(context.Background(), "a", "b", time.Now().AddDate(0, 0, -7))
	assert.NoError(t, err)
	assert.False(t, recent)
}

func TestMatchStoreUpdateStatusIfPendingLosesRace(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewMatchStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE wingman_matches")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	assert.NoError(t, err)

	won, err := store.UpdateStatusIfPending(context.Background(), tx, "match-1", models.MatchStatusAccepted, 0, 0)
	assert.NoError(t, err)
	assert.False(t, won, "a match already transitioned out of pending must not be overwritten")
	assert.NoError(t, tx.Commit())
}

func TestMatchStoreUpdateStatusIfPendingWinsRace(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewMatchStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE wingman_matches")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	assert.NoError(t, err)

	won, err := store.UpdateStatusIfPending(context.Background(), tx, "match-1", models.MatchStatusAccepted, 0, 0)
	assert.NoError(t, err)
	assert.True(t, won)
	assert.NoError(t, tx.Commit())
}
