package store

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/wingmanmatch/wingman/internal/pkg/apperr"
)

func TestSessionStoreGetByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewSessionStore(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM wingman_sessions WHERE id = $1")).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := store.GetByID(context.Background(), "ghost")
	ae, ok := apperr.As(err)
	assert.True(t, ok)
	assert.Equal(t, apperr.KindNotFound, ae.Kind)
}

func TestSessionStoreSetConfirmationFlagPicksColumnByFlag(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewSessionStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE wingman_sessions SET user1_completed_confirmed_by_user2 = $1 WHERE id = $2")).
		WithArgs(true, "sess-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE wingman_sessions SET user2_completed_confirmed_by_user1 = $1 WHERE id = $2")).
		WithArgs(true, "sess-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	assert.NoError(t, err)
	assert.NoError(t, store.SetConfirmationFlag(context.Background(), tx, "sess-1", true, true))
	assert.NoError(t, store.SetConfirmationFlag(context.Background(), tx, "sess-1", false, true))
	assert.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionStoreCompleteIfBothConfirmedRequiresBothFlags(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewSessionStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE wingman_sessions")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	assert.NoError(t, err)

	completed, err := store.CompleteIfBothConfirmed(context.Background(), tx, "sess-1")
	assert.NoError(t, err)
	assert.False(t, completed, "only one confirmation flag set must not complete the session")
	assert.NoError(t, tx.Commit())
}

func TestSessionStoreCompleteIfBothConfirmedTransitionsOnce(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewSessionStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE wingman_sessions")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	assert.NoError(t, err)

	completed, err := store.CompleteIfBothConfirmed(context.Background(), tx, "sess-1")
	assert.NoError(t, err)
	assert.True(t, completed)
	assert.NoError(t, tx.Commit())
}

func TestSessionStoreUpdateNotesNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewSessionStore(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE wingman_sessions SET notes")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.UpdateNotes(context.Background(), "ghost", "notes")
	ae, ok := apperr.As(err)
	assert.True(t, ok)
	assert.Equal(t, apperr.KindNotFound, ae.Kind)
}
