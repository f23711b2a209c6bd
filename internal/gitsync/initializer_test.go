package gitsync

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/gitsync/internal/core/git/gittest"
	"github.com/colonyops/gitsync/internal/core/task"
)

func TestInitializer_Ensure(t *testing.T) {
	ctx := context.Background()

	t.Run("existing repository is left alone", func(t *testing.T) {
		dir := t.TempDir()
		rec := gittest.Repo(dir)

		initialized, err := newTestInitializer(rec).Ensure(ctx, docsTask(dir))
		require.NoError(t, err)
		assert.False(t, initialized)
		assert.Equal(t, []string{"status --porcelain", "rev-parse --show-toplevel"}, rec.Lines())
	})

	t.Run("fresh directory against empty remote", func(t *testing.T) {
		dir := t.TempDir()
		rec := uninitialized("A  .gitignore\n").
			On("pull origin master", gittest.Fail("fatal: couldn't find remote ref master"))
		def := docsTask(dir)
		def.IgnorePatterns = task.NewPatternSet("*.tmp")

		initialized, err := newTestInitializer(rec).Ensure(ctx, def)
		require.NoError(t, err)
		assert.True(t, initialized)

		assert.Equal(t, "*.tmp\n", readFile(t, filepath.Join(dir, ".gitignore")))
		assert.Equal(t, 1, rec.Count("commit"), "exactly one commit")
		assert.Equal(t, 1, rec.Count("push --set-upstream origin master"))
		assert.Equal(t, 0, rec.Count("lfs"))
		assert.Equal(t, []string{
			"status --porcelain",
			"init --initial-branch=master",
			"remote add origin " + testRemote,
			"pull origin master",
			"add .",
			"status --porcelain",
			"commit -m Initial sync at 2026-01-02 03:04:05",
			"push --set-upstream origin master",
		}, rec.Lines())
	})

	t.Run("existing files are committed and pushed", func(t *testing.T) {
		dir := t.TempDir()
		rec := uninitialized("A  notes.md\n").
			On("pull origin master", gittest.Fail("fatal: couldn't find remote ref master"))

		initialized, err := newTestInitializer(rec).Ensure(ctx, docsTask(dir))
		require.NoError(t, err)
		assert.True(t, initialized)

		lines := rec.Lines()
		assert.Equal(t, "commit -m Initial sync at 2026-01-02 03:04:05", lines[len(lines)-2])
		assert.Equal(t, "push --set-upstream origin master", lines[len(lines)-1])
	})

	t.Run("re-run tolerates existing remote", func(t *testing.T) {
		dir := t.TempDir()
		rec := uninitialized("").
			On("remote add origin "+testRemote, gittest.Fail("error: remote origin already exists."))

		initialized, err := newTestInitializer(rec).Ensure(ctx, docsTask(dir))
		require.NoError(t, err)
		assert.True(t, initialized)
		assert.Equal(t, 0, rec.Count("commit"))
	})

	t.Run("pull failure is an init error", func(t *testing.T) {
		dir := t.TempDir()
		rec := uninitialized("").
			On("pull origin master", gittest.Fail("fatal: Could not read from remote repository."))

		initialized, err := newTestInitializer(rec).Ensure(ctx, docsTask(dir))
		require.Error(t, err)
		assert.False(t, initialized)
		assert.Equal(t, KindInit, KindOf(err))

		var syncErr *Error
		require.True(t, errors.As(err, &syncErr))
		assert.Equal(t, "pull", syncErr.Op)
		assert.Equal(t, "docs", syncErr.Task)
		assert.Equal(t, 0, rec.Count("add"))
		assert.Equal(t, 0, rec.Count("commit"))
	})

	t.Run("tracks LFS patterns during initialization", func(t *testing.T) {
		dir := t.TempDir()
		rec := uninitialized("A  .gitattributes\n").
			On("lfs track *.psd", gittest.Stdout("Tracking \"*.psd\"\n"))
		def := docsTask(dir)
		def.LFSPatterns = task.NewPatternSet("*.psd")

		_, err := newTestInitializer(rec).Ensure(ctx, def)
		require.NoError(t, err)
		assert.Equal(t, 1, rec.Count("lfs install"))
		assert.Equal(t, 1, rec.Count("lfs track *.psd"))
		assert.Equal(t, 0, rec.Count("commit -m Update LFS tracking rules"))
		assert.Equal(t, 1, rec.Count("commit"), "rule files ride in the initial commit")
		assert.Equal(t, 1, rec.Count("push"))
	})
}
