package doctor

import (
	"context"
	"fmt"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubLookPath(t *testing.T, missing ...string) {
	t.Helper()
	orig := lookPathFunc
	t.Cleanup(func() { lookPathFunc = orig })

	lookPathFunc = func(file string) (string, error) {
		for _, m := range missing {
			if file == m {
				return "", &exec.Error{Name: file, Err: fmt.Errorf("not found")}
			}
		}
		return "/usr/bin/" + file, nil
	}
}

func TestToolsCheck_BothPresent(t *testing.T) {
	stubLookPath(t)

	result := NewToolsCheck("git", true).Run(context.Background())

	assert.Equal(t, "Tools", result.Name)
	require.Len(t, result.Items, 2)
	assert.Equal(t, "git", result.Items[0].Label)
	assert.Equal(t, StatusPass, result.Items[0].Status)
	assert.Equal(t, "/usr/bin/git", result.Items[0].Detail)
	assert.Equal(t, "git-lfs", result.Items[1].Label)
	assert.Equal(t, StatusPass, result.Items[1].Status)
}

func TestToolsCheck_GitMissing(t *testing.T) {
	stubLookPath(t, "git")

	result := NewToolsCheck("git", false).Run(context.Background())

	require.Len(t, result.Items, 2)
	assert.Equal(t, StatusFail, result.Items[0].Status)
	assert.Equal(t, StatusPass, result.Items[1].Status)
}

func TestToolsCheck_CustomGitPath(t *testing.T) {
	stubLookPath(t, "/opt/git/bin/git")

	result := NewToolsCheck("/opt/git/bin/git", false).Run(context.Background())

	assert.Equal(t, StatusFail, result.Items[0].Status)
	assert.Contains(t, result.Items[0].Detail, "/opt/git/bin/git")
}

func TestToolsCheck_LFSMissing(t *testing.T) {
	stubLookPath(t, "git-lfs")

	t.Run("warns when no task needs it", func(t *testing.T) {
		result := NewToolsCheck("git", false).Run(context.Background())
		assert.Equal(t, StatusWarn, result.Items[1].Status)
		assert.Contains(t, result.Items[1].Detail, "not found on PATH")
	})

	t.Run("fails when a task needs it", func(t *testing.T) {
		result := NewToolsCheck("git", true).Run(context.Background())
		assert.Equal(t, StatusFail, result.Items[1].Status)
	})
}
