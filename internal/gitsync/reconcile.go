package gitsync

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/colonyops/gitsync/internal/core/git"
	"github.com/colonyops/gitsync/internal/core/task"
)

// Commit messages for reconciliation commits.
const (
	ignoreCommitMessage = "Update ignore rules"
	lfsCommitMessage    = "Update LFS tracking rules"
)

// Reconciler brings a task's ignore file and LFS tracking rules in line with
// its definition, committing and pushing only when something changed.
//
// LFS rules only grow: a pattern removed from the definition stays tracked.
type Reconciler struct {
	git  git.Git
	opts Options
	log  zerolog.Logger
}

// NewReconciler creates a reconciler.
func NewReconciler(g git.Git, opts Options, log zerolog.Logger) *Reconciler {
	return &Reconciler{git: g, opts: opts, log: log}
}

// Reconcile applies ignore rules and then LFS rules.
func (r *Reconciler) Reconcile(ctx context.Context, def task.Definition) error {
	if _, err := r.ReconcileIgnore(ctx, def); err != nil {
		return err
	}
	if _, err := r.ReconcileLFS(ctx, def); err != nil {
		return err
	}
	return nil
}

// Apply writes the ignore file and declares the LFS patterns without
// committing anything. It is used before a repository's first commit, which
// then carries both rule files.
func (r *Reconciler) Apply(ctx context.Context, def task.Definition) error {
	if _, err := r.writeIgnore(def); err != nil {
		return err
	}
	if _, err := r.trackLFS(ctx, def); err != nil {
		return err
	}
	return nil
}

// ReconcileIgnore rewrites the ignore file when its pattern set differs from
// the definition. It reports whether a commit was pushed.
func (r *Reconciler) ReconcileIgnore(ctx context.Context, def task.Definition) (bool, error) {
	changed, err := r.writeIgnore(def)
	if err != nil || !changed {
		return false, err
	}
	return r.commitFile(ctx, def.LocalPath, git.IgnoreFile, ignoreCommitMessage)
}

// ReconcileLFS declares every desired pattern as LFS tracked. It commits the
// attributes file only when git-lfs reports at least one new pattern, and
// reports whether a commit was pushed.
func (r *Reconciler) ReconcileLFS(ctx context.Context, def task.Definition) (bool, error) {
	added, err := r.trackLFS(ctx, def)
	if err != nil || len(added) == 0 {
		return false, err
	}
	return r.commitFile(ctx, def.LocalPath, git.AttributesFile, lfsCommitMessage)
}

// writeIgnore reports whether the ignore file had to be rewritten.
func (r *Reconciler) writeIgnore(def task.Definition) (bool, error) {
	path := filepath.Join(def.LocalPath, git.IgnoreFile)

	current, err := readPatternFile(path)
	if err != nil {
		return false, err
	}
	if current.Equal(def.IgnorePatterns) {
		return false, nil
	}

	r.log.Info().
		Strs("current", current.Sorted()).
		Strs("desired", def.IgnorePatterns.Sorted()).
		Msg("updating ignore rules")

	if err := os.WriteFile(path, []byte(def.IgnorePatterns.String()), 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", git.IgnoreFile, err)
	}
	return true, nil
}

// trackLFS returns the patterns git-lfs had not tracked before.
func (r *Reconciler) trackLFS(ctx context.Context, def task.Definition) ([]string, error) {
	if len(def.LFSPatterns) == 0 {
		return nil, nil
	}

	if err := r.git.LFSInstall(ctx, def.LocalPath); err != nil {
		return nil, err
	}

	var added []string
	for _, pattern := range def.LFSPatterns.Sorted() {
		isNew, err := r.git.LFSTrack(ctx, def.LocalPath, pattern)
		if err != nil {
			return nil, err
		}
		if isNew {
			added = append(added, pattern)
		}
	}

	if len(added) > 0 {
		r.log.Info().Strs("patterns", added).Msg("tracking new LFS patterns")
	}
	return added, nil
}

// commitFile stages file and, if that produced a staged change, commits only
// that file and pushes it. Other staged changes are left for the next sync.
func (r *Reconciler) commitFile(ctx context.Context, dir, file, message string) (bool, error) {
	if err := r.git.Add(ctx, dir, file); err != nil {
		return false, err
	}

	status, err := r.git.Status(ctx, dir, file)
	if err != nil {
		return false, err
	}
	if status == "" {
		return false, nil
	}

	if err := r.git.Commit(ctx, dir, message, file); err != nil {
		return false, err
	}
	if err := r.git.Push(ctx, dir, r.opts.Remote, r.opts.Branch); err != nil {
		return false, err
	}
	return true, nil
}

// readPatternFile returns the patterns in path, or an empty set if it does not exist.
func readPatternFile(path string) (task.PatternSet, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return task.NewPatternSet(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return task.ParsePatternSet(string(data)), nil
}
