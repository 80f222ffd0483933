package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db := NewDB(sqlDB, zap.NewNop())
	db.busyBackoff = time.Millisecond
	return db, mock
}

func TestWithTransaction_Commits(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO requests").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := db.WithTransaction(context.Background(), func(ctx context.Context) error {
		require.NotNil(t, TxFromContext(ctx))
		_, err := ExecutorFor(ctx, db.DB).ExecContext(ctx, "INSERT INTO requests (form_key) VALUES (?)", "x")
		return err
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTransaction_RollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := db.WithTransaction(context.Background(), func(ctx context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTransaction_NestedJoinsOuter(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	calls := 0
	err := db.WithTransaction(context.Background(), func(ctx context.Context) error {
		outer := TxFromContext(ctx)
		return db.WithTransaction(ctx, func(inner context.Context) error {
			calls++
			assert.Same(t, outer, TxFromContext(inner))
			return nil
		})
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTransaction_RetriesWhenBusy(t *testing.T) {
	db, mock := newMockDB(t)
	busy := sqlite3.Error{Code: sqlite3.ErrBusy}
	mock.ExpectBegin()
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectCommit()

	attempts := 0
	err := db.WithTransaction(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts == 1 {
			return busy
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTransaction_GivesUpAfterAttempts(t *testing.T) {
	db, mock := newMockDB(t)
	for i := 0; i < defaultBusyAttempts; i++ {
		mock.ExpectBegin()
		mock.ExpectRollback()
	}

	attempts := 0
	err := db.WithTransaction(context.Background(), func(ctx context.Context) error {
		attempts++
		return sqlite3.Error{Code: sqlite3.ErrLocked}
	})
	assert.True(t, IsBusy(err))
	assert.Equal(t, defaultBusyAttempts, attempts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsBusy(t *testing.T) {
	assert.False(t, IsBusy(nil))
	assert.False(t, IsBusy(errors.New("disk I/O error")))
	assert.False(t, IsBusy(sqlite3.Error{Code: sqlite3.ErrConstraint}))
	assert.True(t, IsBusy(sqlite3.Error{Code: sqlite3.ErrBusy}))
}
