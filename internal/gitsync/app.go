package gitsync

import (
	"github.com/rs/zerolog"

	"github.com/colonyops/gitsync/internal/core/config"
	"github.com/colonyops/gitsync/internal/core/doctor"
	"github.com/colonyops/gitsync/internal/core/git"
	"github.com/colonyops/gitsync/internal/core/history"
	"github.com/colonyops/gitsync/internal/core/notify"
	"github.com/colonyops/gitsync/internal/data/db"
	"github.com/colonyops/gitsync/internal/data/stores"
	"github.com/colonyops/gitsync/pkg/executil"
)

// App holds the services shared by every command.
type App struct {
	Config        *config.Config
	DB            *db.DB
	Service       *Service
	History       history.Store
	Notifications notify.Store
	Notifier      notify.Notifier
	Git           git.Git

	hook *notify.CommandNotifier
}

// NewApp constructs an App from explicit dependencies.
func NewApp(cfg *config.Config, database *db.DB, exec executil.Executor, log zerolog.Logger) *App {
	runs := stores.NewRunStore(database)
	notifications := stores.NewNotifyStore(database)

	notifiers := notify.Multi{notify.LogNotifier{Log: log.With().Str("cmp", "notify").Logger()}}
	if cfg.StoreNotifications() {
		notifiers = append(notifiers, notify.StoreNotifier{Store: notifications, Log: log})
	}

	var hook *notify.CommandNotifier
	if cfg.Notify.Command != "" {
		hook = notify.NewCommandNotifier(cfg.Notify.Command, log)
		notifiers = append(notifiers, hook)
	}

	gitClient := git.NewExecutor(git.NewGateway(cfg.GitPath, exec, log.With().Str("cmp", "git").Logger()))

	svc := NewService(ServiceParams{
		Git:      gitClient,
		Options:  Options{Remote: cfg.Remote, Branch: cfg.Branch},
		Notifier: notifiers,
		History:  runs,
		Logger:   log,
	})

	return &App{
		Config:        cfg,
		DB:            database,
		Service:       svc,
		History:       runs,
		Notifications: notifications,
		Notifier:      notifiers,
		Git:           gitClient,
		hook:          hook,
	}
}

// Close waits for notification commands still running.
func (a *App) Close() {
	if a.hook != nil {
		a.hook.Wait()
	}
}

// DoctorChecks returns the health checks for the loaded configuration.
func (a *App) DoctorChecks() []doctor.Check {
	defs := a.Config.TaskDefinitions()

	lfs := false
	for _, def := range defs {
		if len(def.LFSPatterns) > 0 {
			lfs = true
			break
		}
	}

	return []doctor.Check{
		doctor.NewToolsCheck(a.Config.GitPath, lfs),
		doctor.NewTasksCheck(defs, a.Git),
		doctor.NewHistoryCheck(defs, a.History),
	}
}
