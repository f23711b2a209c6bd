package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/gitsync/internal/core/instance"
	"github.com/colonyops/gitsync/internal/core/styles"
	"github.com/colonyops/gitsync/internal/gitsync"
	"github.com/colonyops/gitsync/pkg/iojson"
)

type SyncCmd struct {
	flags *Flags
	app   *gitsync.App

	// flags
	format string
}

// NewSyncCmd creates a new sync command
func NewSyncCmd(flags *Flags, app *gitsync.App) *SyncCmd {
	return &SyncCmd{flags: flags, app: app}
}

// Register adds the sync command to the application
func (cmd *SyncCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "sync",
		Usage:     "Sync one task now",
		UsageText: "gitsync sync <task> [--format text|json]",
		Description: `Initializes the task's repository if needed, then runs a single sync
in the foreground: pull, reconcile ignore and LFS rules, commit and push.

The run is recorded in history like a scheduled sync. It refuses to start
while 'gitsync run' or another sync holds the data directory lock.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "format",
				Usage:       "output format (text, json)",
				Value:       "text",
				Destination: &cmd.format,
			},
		},
		ShellComplete: TaskNameCompleter(cmd.flags),
		Before:        cmd.flags.setup,
		Action:        cmd.run,
	})

	return app
}

func (cmd *SyncCmd) run(ctx context.Context, c *cli.Command) error {
	name := c.Args().First()
	if name == "" {
		return fmt.Errorf("task name required. Usage: %s", c.UsageText)
	}

	def, ok := cmd.app.Config.Task(name)
	if !ok {
		return fmt.Errorf("task %q not found in %s", name, cmd.flags.ConfigPath)
	}

	lock, err := instance.Acquire(cmd.app.Config.DataDir)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	if err := cmd.app.Service.Initialize(ctx, def); err != nil {
		return err
	}

	run := cmd.app.Service.Fire(ctx, def)

	out := c.Root().Writer
	if cmd.format == "json" {
		if err := iojson.Write(out, run); err != nil {
			return err
		}
	} else {
		style, icon := styles.ForSeverity(string(run.Outcome))
		_, _ = fmt.Fprintf(out, "%s %s %s %s\n",
			style.Render(icon),
			styles.TextStyle.Render(run.Task),
			style.Render(string(run.Outcome)),
			styles.MutedStyle.Render(run.Duration().Round(time.Millisecond).String()))
		if run.Error != "" {
			_, _ = fmt.Fprintf(out, "  %s\n", styles.ErrorStyle.Render(run.Error))
		}
	}

	if run.Failed() {
		return cli.Exit("", 1)
	}
	return nil
}
