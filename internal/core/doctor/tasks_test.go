package doctor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/gitsync/internal/core/git/gittest"
	"github.com/colonyops/gitsync/internal/core/task"
)

func TestTasksCheck(t *testing.T) {
	ctx := context.Background()

	t.Run("no tasks warns", func(t *testing.T) {
		result := NewTasksCheck(nil, gittest.Client(gittest.Missing())).Run(ctx)

		require.Len(t, result.Items, 1)
		assert.Equal(t, StatusWarn, result.Items[0].Status)
	})

	t.Run("repository passes", func(t *testing.T) {
		dir := t.TempDir()
		defs := []task.Definition{{Name: "docs", LocalPath: dir}}

		result := NewTasksCheck(defs, gittest.Client(gittest.Repo(dir))).Run(ctx)

		require.Len(t, result.Items, 1)
		assert.Equal(t, "docs", result.Items[0].Label)
		assert.Equal(t, StatusPass, result.Items[0].Status)
	})

	t.Run("uninitialized directory warns", func(t *testing.T) {
		defs := []task.Definition{{Name: "notes", LocalPath: t.TempDir()}}

		result := NewTasksCheck(defs, gittest.Client(gittest.Missing())).Run(ctx)

		require.Len(t, result.Items, 1)
		assert.Equal(t, StatusWarn, result.Items[0].Status)
		assert.Contains(t, result.Items[0].Detail, "first run")
	})

	t.Run("missing path fails", func(t *testing.T) {
		defs := []task.Definition{{Name: "gone", LocalPath: filepath.Join(t.TempDir(), "nope")}}

		result := NewTasksCheck(defs, gittest.Client(gittest.Missing())).Run(ctx)

		require.Len(t, result.Items, 1)
		assert.Equal(t, StatusFail, result.Items[0].Status)
	})

	t.Run("file path fails", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "file.txt")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
		defs := []task.Definition{{Name: "file", LocalPath: file}}

		result := NewTasksCheck(defs, gittest.Client(gittest.Missing())).Run(ctx)

		require.Len(t, result.Items, 1)
		assert.Equal(t, StatusFail, result.Items[0].Status)
		assert.Contains(t, result.Items[0].Detail, "not a directory")
	})
}
