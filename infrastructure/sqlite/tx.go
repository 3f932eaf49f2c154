package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
)

// writeRetries bounds how often a write tx is retried after SQLITE_BUSY
// outlasted the driver's busy timeout.
const writeRetries = 3

var writeRetryDelay = 50 * time.Millisecond

// WithWriteTx runs fn in an explicit write transaction. fn may run more than
// once when the database stays locked, so it must not have effects outside tx.
func (db *DB) WithWriteTx(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error {
	if db == nil || db.W == nil {
		return fmt.Errorf("write db is not initialized")
	}
	var err error
	for attempt := 1; ; attempt++ {
		err = db.W.RunInTx(ctx, &sql.TxOptions{}, fn)
		if !IsBusy(err) || attempt >= writeRetries {
			return err
		}
		slog.Warn("sqlite: database busy, retrying write", slog.Int("attempt", attempt), slog.Any("err", err))
		select {
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		case <-time.After(time.Duration(attempt) * writeRetryDelay):
		}
	}
}

// WithReadTx runs fn in an explicit read transaction.
func (db *DB) WithReadTx(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error {
	if db == nil || db.R == nil {
		return fmt.Errorf("read db is not initialized")
	}
	return db.R.RunInTx(ctx, &sql.TxOptions{ReadOnly: true}, fn)
}

// IsBusy reports whether err is a SQLITE_BUSY or SQLITE_LOCKED failure.
func IsBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
}
