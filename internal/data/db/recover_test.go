package db

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsCorrupt(t *testing.T) {
	assert.True(t, IsCorrupt(errors.New("database disk image is malformed")))
	assert.True(t, IsCorrupt(fmt.Errorf("migrate: %w", errors.New("file is not a database (26)"))))
	assert.False(t, IsCorrupt(errors.New("no such table: runs")))
	assert.False(t, IsCorrupt(nil))
}

func TestQuarantine(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(base, []byte("db"), 0o644))
	require.NoError(t, os.WriteFile(base+"-wal", []byte("wal"), 0o644))

	now := time.Date(2026, 10, 17, 8, 30, 0, 0, time.UTC)
	dest, err := quarantine(dir, now)
	require.NoError(t, err)

	assert.Equal(t, base+".corrupt-20261017-083000", dest)
	assert.NoFileExists(t, base)
	assert.NoFileExists(t, base+"-wal")
	assert.FileExists(t, dest)
	assert.FileExists(t, dest+"-wal")
	assert.NoFileExists(t, dest+"-shm")

	// Nothing to move is not an error.
	_, err = quarantine(t.TempDir(), now)
	require.NoError(t, err)
}

func TestOpenRecovering(t *testing.T) {
	t.Run("garbage file is replaced by a fresh database", func(t *testing.T) {
		dir := t.TempDir()
		garbage := bytes.Repeat([]byte("this is not sqlite "), 512)
		require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), garbage, 0o644))

		database, err := OpenRecovering(dir, DefaultOpenOptions(), zerolog.Nop())
		require.NoError(t, err)
		t.Cleanup(func() { _ = database.Close() })

		var runs int
		require.NoError(t, database.Conn().QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&runs))
		assert.Zero(t, runs)

		matches, err := filepath.Glob(filepath.Join(dir, FileName+".corrupt-*"))
		require.NoError(t, err)
		require.Len(t, matches, 1)

		kept, err := os.ReadFile(matches[0])
		require.NoError(t, err)
		assert.Equal(t, garbage, kept)
	})

	t.Run("healthy database is opened in place", func(t *testing.T) {
		dir := t.TempDir()

		database, err := OpenRecovering(dir, DefaultOpenOptions(), zerolog.Nop())
		require.NoError(t, err)
		require.NoError(t, database.Close())

		matches, err := filepath.Glob(filepath.Join(dir, FileName+".corrupt-*"))
		require.NoError(t, err)
		assert.Empty(t, matches)
	})
}
