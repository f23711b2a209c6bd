package stores

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/gitsync/internal/core/history"
	"github.com/colonyops/gitsync/internal/data/db"
)

// lockedPair opens two handles on one database without busy waiting and
// returns a transaction on the first that holds the write lock.
func lockedPair(t *testing.T) (*sql.Tx, *db.DB) {
	t.Helper()
	dir := t.TempDir()
	opts := db.DefaultOpenOptions()
	opts.BusyTimeout = 0

	holder, err := db.Open(dir, opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = holder.Close() })

	writer, err := db.Open(dir, opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })

	tx, err := holder.Conn().BeginTx(context.Background(), nil)
	require.NoError(t, err)
	_, err = tx.Exec(`INSERT INTO runs (id, task, outcome, error, started_at, finished_at) VALUES ('held', 'docs', 'noop', '', 0, 0)`)
	require.NoError(t, err)

	return tx, writer
}

func TestIsNotFoundError(t *testing.T) {
	assert.True(t, IsNotFoundError(sql.ErrNoRows))
	assert.True(t, IsNotFoundError(fmt.Errorf("scan run: %w", sql.ErrNoRows)))
	assert.False(t, IsNotFoundError(errors.New("no such table: runs")))
}

func TestIsBusyError(t *testing.T) {
	tx, writer := lockedPair(t)
	defer func() { _ = tx.Rollback() }()

	_, err := writer.Conn().Exec(`INSERT INTO notifications (level, task, title, message, created_at) VALUES ('info', '', 't', 'm', 0)`)
	require.Error(t, err)
	assert.True(t, IsBusyError(err))
	assert.True(t, IsBusyError(fmt.Errorf("insert notification: %w", err)))

	assert.False(t, IsBusyError(errors.New("database is locked")))
	assert.False(t, IsBusyError(nil))
}

func TestRunStore_RecordWaitsOutWriteLock(t *testing.T) {
	tx, writer := lockedPair(t)
	store := NewRunStore(writer)

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = tx.Rollback()
	}()

	run := history.Run{ID: "r1", Task: "docs", Outcome: history.OutcomeSynced, StartedAt: time.Now(), FinishedAt: time.Now()}
	require.NoError(t, store.Record(context.Background(), run))

	last, err := store.Last(context.Background(), "docs")
	require.NoError(t, err)
	assert.Equal(t, "r1", last.ID)
}

func TestWithBusyRetry(t *testing.T) {
	t.Run("other errors are not retried", func(t *testing.T) {
		calls := 0
		err := withBusyRetry(context.Background(), func() error {
			calls++
			return errors.New("constraint failed")
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("busy errors give up after the last attempt", func(t *testing.T) {
		tx, writer := lockedPair(t)
		defer func() { _ = tx.Rollback() }()

		calls := 0
		err := withBusyRetry(context.Background(), func() error {
			calls++
			_, err := writer.Conn().Exec(`INSERT INTO runs (id, task, outcome, error, started_at, finished_at) VALUES ('x', 'docs', 'noop', '', 0, 0)`)
			return err
		})
		require.Error(t, err)
		assert.True(t, IsBusyError(err))
		assert.Equal(t, busyAttempts, calls)
	})
}
