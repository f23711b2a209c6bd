// Package gittest provides scripted git executors for tests.
package gittest

import (
	"github.com/rs/zerolog"

	"github.com/colonyops/gitsync/internal/core/git"
	"github.com/colonyops/gitsync/pkg/executil"
)

// Fail returns an output with exit code 1 and the given stderr.
func Fail(stderr string) executil.Output {
	return executil.Output{ExitCode: 1, Stderr: []byte(stderr)}
}

// Stdout returns a successful output with the given stdout.
func Stdout(s string) executil.Output {
	return executil.Output{Stdout: []byte(s)}
}

// Repo returns a recording executor scripted so that dir probes as a healthy
// repository root. Every other command succeeds with empty output unless
// scripted with On.
func Repo(dir string) *executil.RecordingExecutor {
	return (&executil.RecordingExecutor{}).On("rev-parse --show-toplevel", Stdout(dir+"\n"))
}

// Missing returns a recording executor scripted so that dir is not a repository.
func Missing() *executil.RecordingExecutor {
	return (&executil.RecordingExecutor{}).
		On("status --porcelain", Fail("fatal: not a git repository (or any of the parent directories): .git"))
}

// Client wraps rec in a git executor with logging disabled.
func Client(rec *executil.RecordingExecutor) *git.Executor {
	return git.NewExecutor(git.NewGateway("git", rec, zerolog.Nop()))
}
