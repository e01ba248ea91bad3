package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTxManagerCommitsAndLocksInOrder(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	m := NewTxManager(db)

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).WithArgs("EQUIPMENT:eq-1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).WithArgs("SPACE:lab").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := m.WithinTx(context.Background(), func(exec sqlx.ExtContext) error {
		return m.Lock(context.Background(), exec, "SPACE:lab", "EQUIPMENT:eq-1", "SPACE:lab")
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTxManagerRollsBackOnError(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	m := NewTxManager(db)

	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectRollback()

	err := m.WithinTx(context.Background(), func(sqlx.ExtContext) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTxManagerRollsBackOnPanic(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	m := NewTxManager(db)

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.Panics(t, func() {
		_ = m.WithinTx(context.Background(), func(sqlx.ExtContext) error { panic("unexpected") })
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTxManagerUsesReadCommitted(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	m := NewTxManager(db)

	require.NotNil(t, m.opts)
	assert.Equal(t, sql.LevelReadCommitted, m.opts.Isolation)
	assert.False(t, m.opts.ReadOnly)

	mock.ExpectBegin()
	mock.ExpectCommit()
	require.NoError(t, m.WithinTx(context.Background(), func(sqlx.ExtContext) error { return nil }))
	assert.NoError(t, mock.ExpectationsWereMet())
}
