package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/gitsync/internal/core/config"
	"github.com/colonyops/gitsync/internal/core/instance"
	"github.com/colonyops/gitsync/internal/core/logging"
	"github.com/colonyops/gitsync/internal/core/notify"
	"github.com/colonyops/gitsync/internal/core/styles"
	"github.com/colonyops/gitsync/internal/gitsync"
	"github.com/colonyops/gitsync/internal/scheduler"
)

// ErrForcedExit is returned when a second signal interrupts the wait for
// in-flight syncs.
var ErrForcedExit = errors.New("forced exit while sync in progress")

type RunCmd struct {
	flags *Flags
	app   *gitsync.App

	pollInterval time.Duration
	reloadMu     sync.Mutex
}

// NewRunCmd creates a new run command
func NewRunCmd(flags *Flags, app *gitsync.App) *RunCmd {
	return &RunCmd{flags: flags, app: app, pollInterval: time.Second}
}

// Register adds the run command to the application
func (cmd *RunCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "run",
		Usage:     "Run the sync daemon",
		UsageText: "gitsync run",
		Description: `Initializes every configured task and then syncs each one on its cron schedule.

Startup is all or nothing: if any task cannot be initialized, no task runs.
Each task syncs once right away and then on every cron boundary.

Only one daemon may run per data directory; a second one exits with an error.

On SIGINT or SIGTERM the scheduler stops and gitsync waits for syncs in
progress to finish. A second signal exits immediately.`,
		Before: cmd.flags.setup,
		Action: cmd.run,
	})

	return app
}

func (cmd *RunCmd) run(ctx context.Context, c *cli.Command) error {
	cfg := cmd.app.Config
	logger := logging.Component("run")

	defs := cfg.TaskDefinitions()
	if len(defs) == 0 {
		return fmt.Errorf("no tasks configured in %s", cmd.flags.ConfigPath)
	}

	lock, err := instance.Acquire(cfg.DataDir)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()
	logger.Debug().Str("path", lock.Path()).Msg("instance lock acquired")

	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)

	sched := scheduler.New(cmd.app.Service, cfg.Workers, log.Logger)
	if err := sched.Start(ctx, defs); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	out := c.Root().Writer
	_, _ = fmt.Fprintf(out, "%s syncing %d task(s)\n", styles.SuccessStyle.Render(styles.IconOK), len(defs))
	for _, e := range sched.Entries() {
		_, _ = fmt.Fprintf(out, "  %s %s\n",
			styles.TextStyle.Render(e.Task.Name),
			styles.MutedStyle.Render("next "+e.Next.Format(time.DateTime)))
	}

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	if cfg.WatchEnabled() {
		cmd.watchConfig(watchCtx, sched, logger)
	}

	select {
	case sig := <-sigs:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case <-ctx.Done():
		logger.Info().Msg("context cancelled, shutting down")
	}

	stopWatch()
	sched.Stop()

	return cmd.drain(sched, sigs, os.Stderr, logger)
}

// runningCounter reports git work still in progress.
type runningCounter interface {
	Running() int64
}

// drain blocks until no firing is running, or until another signal arrives.
func (cmd *RunCmd) drain(sched runningCounter, sigs <-chan os.Signal, w io.Writer, logger zerolog.Logger) error {
	ticker := time.NewTicker(cmd.pollInterval)
	defer ticker.Stop()

	for {
		n := sched.Running()
		if n == 0 {
			logger.Info().Msg("all syncs finished")
			return nil
		}

		logger.Info().Int64("running", n).Msg("sync in progress, waiting before exit")
		_, _ = fmt.Fprintf(w, "%s\n",
			styles.WarningStyle.Render(fmt.Sprintf("%d sync(s) in progress, waiting... press Ctrl+C again to force exit", n)))

		select {
		case <-ticker.C:
		case <-sigs:
			logger.Warn().Int64("running", n).Msg("forced exit")
			return ErrForcedExit
		}
	}
}

func (cmd *RunCmd) watchConfig(ctx context.Context, sched *scheduler.Scheduler, logger zerolog.Logger) {
	path := cmd.flags.ConfigPath
	if _, err := os.Stat(path); err != nil {
		logger.Debug().Str("path", path).Msg("config file not found, not watching")
		return
	}

	w, err := config.NewWatcher(path, log.Logger)
	if err != nil {
		logger.Warn().Err(err).Msg("config watcher unavailable, live reload disabled")
		return
	}

	go func() {
		defer func() { _ = w.Close() }()
		w.Run(ctx, func() { cmd.reload(ctx, sched, logger) })
	}()
}

func (cmd *RunCmd) reload(ctx context.Context, sched *scheduler.Scheduler, logger zerolog.Logger) {
	cmd.reloadMu.Lock()
	defer cmd.reloadMu.Unlock()

	if ctx.Err() != nil || !sched.Started() {
		return
	}

	next, err := config.Load(cmd.flags.ConfigPath, cmd.flags.DataDir)
	if err != nil {
		logger.Error().Err(err).Msg("config reload rejected, keeping current tasks")
		cmd.app.Notifier.Notify(ctx, notify.Notification{
			Level:   notify.LevelWarning,
			Title:   "Config reload rejected",
			Message: err.Error(),
		})
		return
	}

	current := cmd.app.Config
	if next.GitPath != current.GitPath || next.Branch != current.Branch ||
		next.Remote != current.Remote || next.Workers != current.Workers {
		logger.Warn().Msg("global settings changed, restart gitsync to apply them")
	}

	if err := sched.Reload(ctx, next.TaskDefinitions()); err != nil {
		logger.Error().Err(err).Msg("config reloaded with errors")
		return
	}

	logger.Info().Int("tasks", len(sched.Tasks())).Msg("config reloaded")
}
