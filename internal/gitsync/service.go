package gitsync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/colonyops/gitsync/internal/core/git"
	"github.com/colonyops/gitsync/internal/core/history"
	"github.com/colonyops/gitsync/internal/core/logging"
	"github.com/colonyops/gitsync/internal/core/notify"
	"github.com/colonyops/gitsync/internal/core/task"
)

// Service is the boundary the scheduler drives. It owns the engine parts and
// turns their results into log entries, notifications and history rows.
type Service struct {
	init     *Initializer
	syncer   *Syncer
	notifier notify.Notifier
	history  history.Store
	now      Clock
	log      zerolog.Logger
}

// ServiceParams configures a Service. History and Notifier may be nil.
type ServiceParams struct {
	Git      git.Git
	Options  Options
	Notifier notify.Notifier
	History  history.Store
	Clock    Clock
	Logger   zerolog.Logger
}

// NewService wires an initializer and syncer around a shared reconciler.
func NewService(p ServiceParams) *Service {
	if p.Clock == nil {
		p.Clock = time.Now
	}
	if p.Notifier == nil {
		p.Notifier = notify.NotifierFunc(func(context.Context, notify.Notification) {})
	}

	log := p.Logger.With().Str("cmp", "gitsync").Logger()
	reconciler := NewReconciler(p.Git, p.Options, log)

	return &Service{
		init:     NewInitializer(p.Git, reconciler, p.Options, p.Clock, log),
		syncer:   NewSyncer(p.Git, reconciler, p.Options, p.Clock, log),
		notifier: p.Notifier,
		history:  p.History,
		now:      p.Clock,
		log:      log,
	}
}

// Initialize prepares def's directory. Failures are notified and returned;
// the caller decides whether they abort startup.
func (s *Service) Initialize(ctx context.Context, def task.Definition) error {
	ctx = logging.WithTask(ctx, def.Name)

	initialized, err := s.init.Ensure(ctx, def)
	if err != nil {
		s.log.Error().Err(err).Str("task", def.Name).Msg("initialization failed")
		s.notify(ctx, notify.LevelError, def.Name,
			"Initialization failed",
			fmt.Sprintf("Task %s could not be initialized: %v", def.Name, err))
		return err
	}

	if initialized {
		s.notify(ctx, notify.LevelInfo, def.Name,
			"Repository initialized",
			fmt.Sprintf("Task %s is now synchronized with %s", def.Name, def.RemoteURL))
	}
	return nil
}

// Fire runs one sync firing for def. Errors never escape: they are logged,
// notified and recorded.
func (s *Service) Fire(ctx context.Context, def task.Definition) history.Run {
	log := s.log.With().Str("task", def.Name).Logger()

	run := history.Run{
		ID:        uuid.NewString(),
		Task:      def.Name,
		StartedAt: s.now(),
	}

	ctx = logging.WithRunID(logging.WithTask(ctx, def.Name), run.ID)
	log.Debug().Str("run_id", run.ID).Msg("sync started")

	outcome, err := s.syncer.Sync(ctx, def)
	run.Outcome = outcome
	run.FinishedAt = s.now()

	switch {
	case err != nil:
		run.Error = err.Error()
		log.Error().Err(err).Str("kind", string(KindOf(err))).Msg("sync failed")
		s.notify(ctx, notify.LevelError, def.Name,
			"Sync failed",
			fmt.Sprintf("Task %s: %v", def.Name, err))
	case outcome == history.OutcomeSynced:
		log.Info().Dur("took", run.Duration()).Msg("changes synced")
		if def.NotifyOnSuccess {
			s.notify(ctx, notify.LevelInfo, def.Name,
				"Sync complete",
				fmt.Sprintf("Task %s pushed local changes", def.Name))
		}
	default:
		log.Debug().Msg("nothing to sync")
	}

	if s.history != nil {
		if err := s.history.Record(context.WithoutCancel(ctx), run); err != nil {
			log.Warn().Err(err).Msg("failed to record sync history")
		}
	}

	return run
}

func (s *Service) notify(ctx context.Context, level notify.Level, taskName, title, message string) {
	s.notifier.Notify(ctx, notify.Notification{
		Level:     level,
		Task:      taskName,
		Title:     title,
		Message:   message,
		CreatedAt: s.now(),
	})
}
