// Package stores implements the history and notification stores on SQLite.
package stores

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Firings of different tasks finish at the same moment often enough that a
// write can find the database locked past the busy timeout.
const (
	busyAttempts = 3
	busyBackoff  = 50 * time.Millisecond
)

// IsBusyError reports whether SQLite refused err's statement because another
// connection holds the write lock.
func IsBusyError(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_BUSY || code&0xff == sqlite3.SQLITE_BUSY
}

// IsNotFoundError reports whether a single-row query matched nothing.
func IsNotFoundError(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// withBusyRetry runs write, retrying with doubling backoff while it fails
// with a busy error.
func withBusyRetry(ctx context.Context, write func() error) error {
	wait := busyBackoff
	for attempt := 1; ; attempt++ {
		err := write()
		if err == nil || !IsBusyError(err) || attempt == busyAttempts {
			return err
		}

		select {
		case <-ctx.Done():
			return err
		case <-time.After(wait):
		}
		wait *= 2
	}
}
