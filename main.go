package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/gitsync/internal/commands"
	"github.com/colonyops/gitsync/internal/core/config"
	"github.com/colonyops/gitsync/internal/core/logging"
	"github.com/colonyops/gitsync/internal/core/styles"
	"github.com/colonyops/gitsync/internal/data/db"
	"github.com/colonyops/gitsync/internal/gitsync"
	"github.com/colonyops/gitsync/pkg/executil"
	"github.com/colonyops/gitsync/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, init() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func openDatabase(cfg *config.Config) (*db.DB, error) {
	return db.OpenRecovering(cfg.DataDir, db.OpenOptions{
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		BusyTimeout:  cfg.Database.BusyTimeout,
	}, log.Logger.With().Str("cmp", "db").Logger())
}

func main() {
	ctx := context.Background()

	var (
		logCloser func()
		app       = &gitsync.App{}
		database  *db.DB
	)

	flags := &commands.Flags{}

	flags.Setup = func(ctx context.Context) error {
		cfg := flags.Config
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		var err error
		database, err = openDatabase(cfg)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}

		// Populate the pre-allocated App struct (commands already hold a pointer to it)
		*app = *gitsync.NewApp(cfg, database, &executil.RealExecutor{}, log.Logger)
		return nil
	}

	root := &cli.Command{
		Name:      "gitsync",
		Usage:     "Keep local directories synchronized with git remotes",
		UsageText: "gitsync [global options] command [command options]",
		Description: `gitsync commits and pushes local directories to git remotes on a cron
schedule, pulling remote changes first.

Each task in the config file names a directory, a remote and a schedule,
plus optional ignore and LFS patterns that gitsync keeps in sync.

Run 'gitsync run' to start the daemon.
Run 'gitsync validate' to check the config file.`,
		Version:               build(),
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("GITSYNC_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <data-dir>/gitsync.log)",
				Sources:     cli.EnvVars("GITSYNC_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("GITSYNC_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("GITSYNC_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
			&cli.StringFlag{
				Name:    "theme",
				Usage:   "output color theme",
				Sources: cli.EnvVars("GITSYNC_THEME"),
				Value:   styles.DefaultTheme,
				Validator: func(name string) error {
					if _, ok := styles.GetPalette(name); !ok {
						return fmt.Errorf("unknown theme %q, available: %v", name, styles.ThemeNames())
					}
					return nil
				},
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			// Always log to a file; use explicit path or default to <datadir>/gitsync.log
			logFile := flags.LogFile
			if logFile == "" {
				logFile = filepath.Join(flags.DataDir, "gitsync.log")
			}

			logger, closer, err := logutils.New(flags.LogLevel, logFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logging.Attach(logger)
			logCloser = closer

			palette, _ := styles.GetPalette(c.String("theme"))
			styles.SetTheme(palette)

			cfg, err := config.Read(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Config = cfg

			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			app.Close()

			// Close database connection
			if database != nil {
				if err := database.Close(); err != nil {
					log.Error().Err(err).Msg("failed to close database")
					return err
				}
			}

			// Close log file
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	root = commands.NewRunCmd(flags, app).Register(root)
	root = commands.NewSyncCmd(flags, app).Register(root)
	root = commands.NewTasksCmd(flags, app).Register(root)
	root = commands.NewHistoryCmd(flags, app).Register(root)
	root = commands.NewNotificationsCmd(flags, app).Register(root)
	root = commands.NewDoctorCmd(flags, app).Register(root)
	root = commands.NewValidateCmd(flags).Register(root)

	exitCode := 0
	runErr := root.Run(ctx, os.Args)
	if runErr != nil {
		fmt.Println()
		fmt.Println(runErr.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}
