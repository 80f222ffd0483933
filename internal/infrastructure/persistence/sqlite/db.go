package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/garyjia/travel-support/internal/application/port"
)

type txKey struct{}

const (
	defaultBusyAttempts = 3
	defaultBusyBackoff  = 50 * time.Millisecond
)

// DB is the transaction manager of the SQLite record store
type DB struct {
	*sql.DB
	logger       *zap.Logger
	busyAttempts int
	busyBackoff  time.Duration
}

// NewDB wraps an open connection pool
func NewDB(sqlDB *sql.DB, logger *zap.Logger) *DB {
	return &DB{
		DB:           sqlDB,
		logger:       logger,
		busyAttempts: defaultBusyAttempts,
		busyBackoff:  defaultBusyBackoff,
	}
}

// WithTransaction runs fn in a transaction carried by the context it receives; a
// returned error rolls it back. Calls nested in fn join the outer transaction.
// When SQLite reports the database busy or locked the whole unit is retried, so fn
// may run more than once.
func (db *DB) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if TxFromContext(ctx) != nil {
		return fn(ctx)
	}

	var err error
	for attempt := 1; attempt <= db.busyAttempts; attempt++ {
		err = db.runOnce(ctx, fn)
		if !IsBusy(err) || attempt == db.busyAttempts {
			break
		}

		db.logger.Info("Database busy, retrying transaction", zap.Int("attempt", attempt), zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * db.busyBackoff):
		}
	}
	return err
}

func (db *DB) runOnce(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			db.logger.Error("Transaction panicked, rolled back", zap.Any("panic", p))
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Error("Failed to rollback transaction", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// IsBusy reports whether err is SQLite's busy or locked condition
func IsBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
}

// TxFromContext returns the transaction WithTransaction stored in ctx, if any
func TxFromContext(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(txKey{}).(*sql.Tx)
	return tx
}

// Executor is the query surface shared by *sql.DB and *sql.Tx
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// ExecutorFor returns the transaction in ctx, or db when there is none
func ExecutorFor(ctx context.Context, db *sql.DB) Executor {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return db
}

var _ port.TransactionManager = (*DB)(nil)
