package gitsync

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/gitsync/internal/core/git/gittest"
	"github.com/colonyops/gitsync/internal/core/task"
	"github.com/colonyops/gitsync/pkg/executil"
)

const testRemote = "git@example.com:me/docs.git"

var testOpts = Options{Remote: "origin", Branch: "master"}

func fixedClock() time.Time {
	return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
}

func docsTask(dir string) task.Definition {
	return task.Definition{
		Name:           "docs",
		LocalPath:      dir,
		RemoteURL:      testRemote,
		Cron:           "*/5 * * * *",
		IgnorePatterns: task.NewPatternSet(),
		LFSPatterns:    task.NewPatternSet(),
	}
}

func newTestReconciler(rec *executil.RecordingExecutor) *Reconciler {
	return NewReconciler(gittest.Client(rec), testOpts, zerolog.Nop())
}

func newTestInitializer(rec *executil.RecordingExecutor) *Initializer {
	g := gittest.Client(rec)
	return NewInitializer(g, NewReconciler(g, testOpts, zerolog.Nop()), testOpts, fixedClock, zerolog.Nop())
}

func newTestSyncer(rec *executil.RecordingExecutor) *Syncer {
	g := gittest.Client(rec)
	return NewSyncer(g, NewReconciler(g, testOpts, zerolog.Nop()), testOpts, fixedClock, zerolog.Nop())
}

// uninitialized scripts a directory that is not yet a repository and whose
// working tree, once initialized, reports status.
func uninitialized(status string) *executil.RecordingExecutor {
	return (&executil.RecordingExecutor{}).On("status --porcelain",
		gittest.Fail("fatal: not a git repository (or any of the parent directories): .git"),
		gittest.Stdout(status),
	)
}
