// Package instance keeps two gitsync processes from syncing the same data
// directory at once.
package instance

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFile is the name of the lock file inside the data directory.
const LockFile = "gitsync.lock"

// ErrLocked is returned when another process holds the lock.
var ErrLocked = errors.New("another gitsync process is running")

// Lock is an exclusive advisory lock on a data directory.
type Lock struct {
	fl *flock.Flock
}

// Acquire takes the lock for dataDir without blocking. It fails with
// ErrLocked if another holder has it.
func Acquire(dataDir string) (*Lock, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	path := filepath.Join(dataDir, LockFile)
	fl := flock.New(path)

	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !ok {
		_ = fl.Close()
		return nil, fmt.Errorf("%w (lock held on %s)", ErrLocked, path)
	}

	return &Lock{fl: fl}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.fl.Path()
}

// Release drops the lock. The lock file itself is left in place.
func (l *Lock) Release() error {
	return l.fl.Unlock()
}
