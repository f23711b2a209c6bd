package instance

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire(t *testing.T) {
	dir := t.TempDir()

	first, err := Acquire(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, LockFile), first.Path())

	_, err = Acquire(dir)
	require.ErrorIs(t, err, ErrLocked)
	assert.Contains(t, err.Error(), first.Path())

	require.NoError(t, first.Release())

	second, err := Acquire(dir)
	require.NoError(t, err, "lock is free again after Release")
	require.NoError(t, second.Release())
}

func TestAcquire_CreatesDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")

	l, err := Acquire(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Release() })

	assert.FileExists(t, filepath.Join(dir, LockFile))
}

func TestAcquire_OtherDataDirsAreIndependent(t *testing.T) {
	a, err := Acquire(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Release() })

	b, err := Acquire(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Release() })
}
