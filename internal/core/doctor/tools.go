package doctor

import (
	"context"
	"os/exec"
)

// lookPathFunc is the function used to find executables on PATH.
// Package-level variable to allow test overrides.
var lookPathFunc = exec.LookPath

// ToolsCheck verifies that git, and git-lfs when a task needs it, are available.
type ToolsCheck struct {
	gitPath     string
	lfsRequired bool
}

// NewToolsCheck creates a new tools check. lfsRequired makes a missing
// git-lfs a failure instead of a warning.
func NewToolsCheck(gitPath string, lfsRequired bool) *ToolsCheck {
	return &ToolsCheck{gitPath: gitPath, lfsRequired: lfsRequired}
}

func (c *ToolsCheck) Name() string {
	return "Tools"
}

func (c *ToolsCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	if path, err := lookPathFunc(c.gitPath); err != nil {
		result.Items = append(result.Items, CheckItem{
			Label:  "git",
			Status: StatusFail,
			Detail: c.gitPath + " not found on PATH",
		})
	} else {
		result.Items = append(result.Items, CheckItem{
			Label:  "git",
			Status: StatusPass,
			Detail: path,
		})
	}

	path, err := lookPathFunc("git-lfs")
	switch {
	case err == nil:
		result.Items = append(result.Items, CheckItem{
			Label:  "git-lfs",
			Status: StatusPass,
			Detail: path,
		})
	case c.lfsRequired:
		result.Items = append(result.Items, CheckItem{
			Label:  "git-lfs",
			Status: StatusFail,
			Detail: "not found on PATH (required by tasks with lfs patterns)",
		})
	default:
		result.Items = append(result.Items, CheckItem{
			Label:  "git-lfs",
			Status: StatusWarn,
			Detail: "not found on PATH (only needed for lfs patterns)",
		})
	}

	return result
}
