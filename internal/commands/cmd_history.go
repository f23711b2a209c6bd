package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/gitsync/internal/core/history"
	"github.com/colonyops/gitsync/internal/core/styles"
	"github.com/colonyops/gitsync/internal/gitsync"
	"github.com/colonyops/gitsync/pkg/iojson"
)

type HistoryCmd struct {
	flags *Flags
	app   *gitsync.App

	// flags
	task   string
	limit  int
	format string
}

// NewHistoryCmd creates a new history command
func NewHistoryCmd(flags *Flags, app *gitsync.App) *HistoryCmd {
	return &HistoryCmd{flags: flags, app: app}
}

// Register adds the history command to the application
func (cmd *HistoryCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "history",
		Usage:     "Show recent syncs",
		UsageText: "gitsync history [--task name] [--limit n] [--format text|json]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "task",
				Aliases:     []string{"t"},
				Usage:       "only show syncs of this task",
				Destination: &cmd.task,
			},
			&cli.IntFlag{
				Name:        "limit",
				Aliases:     []string{"n"},
				Usage:       "maximum number of syncs to show (0 for all)",
				Value:       20,
				Destination: &cmd.limit,
			},
			&cli.StringFlag{
				Name:        "format",
				Usage:       "output format (text, json)",
				Value:       "text",
				Destination: &cmd.format,
			},
		},
		Before: cmd.flags.setup,
		Action: cmd.run,
	})

	return app
}

func (cmd *HistoryCmd) run(ctx context.Context, c *cli.Command) error {
	runs, err := cmd.app.History.List(ctx, history.Filter{Task: cmd.task, Limit: cmd.limit})
	if err != nil {
		return fmt.Errorf("list history: %w", err)
	}

	out := c.Root().Writer
	if cmd.format == "json" {
		return iojson.Write(out, runs)
	}

	if len(runs) == 0 {
		_, _ = fmt.Fprintln(out, styles.MutedStyle.Render("No syncs recorded"))
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "STARTED\tTASK\tOUTCOME\tDURATION\tERROR")
	for _, run := range runs {
		style, _ := styles.ForSeverity(string(run.Outcome))
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			run.StartedAt.Local().Format(time.DateTime),
			run.Task,
			style.Render(string(run.Outcome)),
			run.Duration().Round(time.Millisecond),
			run.Error,
		)
	}
	return w.Flush()
}
