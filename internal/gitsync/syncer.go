package gitsync

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/colonyops/gitsync/internal/core/git"
	"github.com/colonyops/gitsync/internal/core/history"
	"github.com/colonyops/gitsync/internal/core/task"
)

// Syncer runs one firing of a task: pull, reconcile, then commit and push
// local changes if there are any.
type Syncer struct {
	git        git.Git
	reconciler *Reconciler
	opts       Options
	now        Clock
	log        zerolog.Logger
}

// NewSyncer creates a syncer.
func NewSyncer(g git.Git, reconciler *Reconciler, opts Options, now Clock, log zerolog.Logger) *Syncer {
	return &Syncer{git: g, reconciler: reconciler, opts: opts, now: now, log: log}
}

// Sync performs one firing. A directory that no longer probes as a
// repository fails the firing; it is never re-initialized here, since that
// could overwrite a manual fix in progress.
func (s *Syncer) Sync(ctx context.Context, def task.Definition) (history.Outcome, error) {
	dir := def.LocalPath
	log := s.log.With().Str("task", def.Name).Logger()

	if err := s.git.Probe(ctx, dir); err != nil {
		return history.OutcomeFailed, wrap(KindExecution, def.Name, "probe", err)
	}

	err := s.git.Pull(ctx, dir, s.opts.Remote, s.opts.Branch)
	switch {
	case err == nil:
	case errors.Is(err, git.ErrRemoteBranchMissing):
		log.Debug().Msg("remote branch does not exist yet, skipping merge")
	default:
		return history.OutcomeFailed, wrap(KindExecution, def.Name, "pull", err)
	}

	if err := s.reconciler.Reconcile(ctx, def); err != nil {
		return history.OutcomeFailed, wrap(KindExecution, def.Name, "reconcile", err)
	}

	status, err := s.git.Status(ctx, dir)
	if err != nil {
		return history.OutcomeFailed, wrap(KindExecution, def.Name, "status", err)
	}
	if status == "" {
		return s.pushPending(ctx, def, log)
	}

	if err := s.git.Add(ctx, dir, "."); err != nil {
		return history.OutcomeFailed, wrap(KindExecution, def.Name, "add", err)
	}

	msg := fmt.Sprintf("Auto sync at %s", s.now().Format(timestampLayout))
	if err := s.git.Commit(ctx, dir, msg); err != nil {
		return history.OutcomeFailed, wrap(KindExecution, def.Name, "commit", err)
	}
	if err := s.git.Push(ctx, dir, s.opts.Remote, s.opts.Branch); err != nil {
		return history.OutcomeFailed, wrap(KindExecution, def.Name, "push", err)
	}

	return history.OutcomeSynced, nil
}

// pushPending pushes commits left behind by an earlier firing whose push
// failed. A clean tree with nothing to push is a no-op.
func (s *Syncer) pushPending(ctx context.Context, def task.Definition, log zerolog.Logger) (history.Outcome, error) {
	pending, err := s.git.Unpushed(ctx, def.LocalPath, s.opts.Remote, s.opts.Branch)
	if err != nil {
		return history.OutcomeFailed, wrap(KindExecution, def.Name, "unpushed", err)
	}
	if !pending {
		return history.OutcomeNoop, nil
	}

	log.Info().Msg("pushing commits left by an earlier sync")
	if err := s.git.Push(ctx, def.LocalPath, s.opts.Remote, s.opts.Branch); err != nil {
		return history.OutcomeFailed, wrap(KindExecution, def.Name, "push", err)
	}
	return history.OutcomeSynced, nil
}
