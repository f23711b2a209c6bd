package db

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// IsCorrupt reports whether err means the database file cannot be read as
// SQLite at all.
func IsCorrupt(err error) bool {
	if err == nil {
		return false
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CORRUPT, sqlite3.SQLITE_NOTADB:
			return true
		}
	}

	msg := err.Error()
	return strings.Contains(msg, "database disk image is malformed") ||
		strings.Contains(msg, "file is not a database")
}

// OpenRecovering opens the database like Open. If the file is corrupt it is
// moved aside and a fresh database is created: sync history and stored
// notifications are not worth refusing to sync over.
func OpenRecovering(dataDir string, opts OpenOptions, log zerolog.Logger) (*DB, error) {
	db, err := Open(dataDir, opts)
	if err == nil || !IsCorrupt(err) {
		return db, err
	}

	moved, qerr := quarantine(dataDir, time.Now())
	if qerr != nil {
		return nil, fmt.Errorf("move corrupt database aside: %w (open: %w)", qerr, err)
	}

	log.Warn().
		Err(err).
		Str("moved_to", moved).
		Msg("history database unreadable, starting with empty history")

	return Open(dataDir, opts)
}

// quarantine renames the database and its WAL and shared-memory files to
// <name>.corrupt-<stamp>. A leftover WAL would be replayed into the new
// database, so files that cannot be renamed are removed.
func quarantine(dataDir string, now time.Time) (string, error) {
	base := filepath.Join(dataDir, FileName)
	dest := fmt.Sprintf("%s.corrupt-%s", base, now.Format("20060102-150405"))

	for _, suffix := range []string{"", "-wal", "-shm"} {
		src := base + suffix
		err := os.Rename(src, dest+suffix)
		switch {
		case err == nil, errors.Is(err, os.ErrNotExist):
		default:
			if rerr := os.Remove(src); rerr != nil && !errors.Is(rerr, os.ErrNotExist) {
				return "", fmt.Errorf("remove %s: %w", filepath.Base(src), err)
			}
		}
	}

	return dest, nil
}
