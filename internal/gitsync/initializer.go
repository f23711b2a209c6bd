package gitsync

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/colonyops/gitsync/internal/core/git"
	"github.com/colonyops/gitsync/internal/core/task"
)

// Initializer makes a task directory a committed, remote-linked repository
// the first time the task runs.
type Initializer struct {
	git        git.Git
	reconciler *Reconciler
	opts       Options
	now        Clock
	log        zerolog.Logger
}

// NewInitializer creates an initializer.
func NewInitializer(g git.Git, reconciler *Reconciler, opts Options, now Clock, log zerolog.Logger) *Initializer {
	return &Initializer{git: g, reconciler: reconciler, opts: opts, now: now, log: log}
}

// Ensure initializes def's directory unless it already probes as a
// repository. It reports whether initialization ran. Every step tolerates
// being re-run against a partially initialized directory.
func (i *Initializer) Ensure(ctx context.Context, def task.Definition) (bool, error) {
	log := i.log.With().Str("task", def.Name).Logger()

	dir := def.LocalPath

	err := i.git.Probe(ctx, dir)
	if err == nil {
		return false, nil
	}
	log.Info().Err(err).Str("path", dir).Msg("repository not found, initializing")

	if err := i.git.Init(ctx, dir, i.opts.Branch); err != nil {
		return false, wrap(KindInit, def.Name, "init", err)
	}
	if err := i.git.AddRemote(ctx, dir, i.opts.Remote, def.RemoteURL); err != nil {
		return false, wrap(KindInit, def.Name, "remote add", err)
	}

	err = i.git.Pull(ctx, dir, i.opts.Remote, i.opts.Branch)
	switch {
	case err == nil:
	case errors.Is(err, git.ErrRemoteBranchMissing):
		log.Info().Str("branch", i.opts.Branch).Msg("remote is empty, nothing to merge")
	default:
		return false, wrap(KindInit, def.Name, "pull", err)
	}

	if err := i.reconciler.Apply(ctx, def); err != nil {
		return false, wrap(KindInit, def.Name, "reconcile", err)
	}

	if err := i.git.Add(ctx, dir, "."); err != nil {
		return false, wrap(KindInit, def.Name, "add", err)
	}

	status, err := i.git.Status(ctx, dir)
	if err != nil {
		return false, wrap(KindInit, def.Name, "status", err)
	}
	if status == "" {
		log.Info().Msg("repository initialized, nothing to commit")
		return true, nil
	}

	msg := fmt.Sprintf("Initial sync at %s", i.now().Format(timestampLayout))
	if err := i.git.Commit(ctx, dir, msg); err != nil {
		return false, wrap(KindInit, def.Name, "commit", err)
	}
	if err := i.git.Push(ctx, dir, i.opts.Remote, i.opts.Branch); err != nil {
		return false, wrap(KindInit, def.Name, "push", err)
	}

	log.Info().Msg("repository initialized and pushed")
	return true, nil
}
