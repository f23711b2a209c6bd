package commands

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/gitsync/internal/core/history"
	"github.com/colonyops/gitsync/internal/core/styles"
	"github.com/colonyops/gitsync/internal/core/task"
	"github.com/colonyops/gitsync/internal/gitsync"
	"github.com/colonyops/gitsync/pkg/iojson"
)

type TasksCmd struct {
	flags *Flags
	app   *gitsync.App

	// flags
	jsonOutput bool
}

// NewTasksCmd creates a new tasks command
func NewTasksCmd(flags *Flags, app *gitsync.App) *TasksCmd {
	return &TasksCmd{flags: flags, app: app}
}

// Register adds the tasks command to the application
func (cmd *TasksCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "tasks",
		Aliases:   []string{"ls"},
		Usage:     "List configured tasks",
		UsageText: "gitsync tasks [--json]",
		Description: `Displays every configured task with its schedule, next trigger time and
the outcome of its last recorded sync.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON lines",
				Destination: &cmd.jsonOutput,
			},
		},
		Before: cmd.flags.setup,
		Action: cmd.run,
	})

	return app
}

// taskInfo is the JSON output format for gitsync tasks --json.
type taskInfo struct {
	Name       string     `json:"name"`
	Path       string     `json:"path"`
	Repo       string     `json:"repo"`
	Cron       string     `json:"cron"`
	Next       time.Time  `json:"next"`
	LastRun    *time.Time `json:"last_run,omitempty"`
	LastResult string     `json:"last_result,omitempty"`
}

func (cmd *TasksCmd) run(ctx context.Context, c *cli.Command) error {
	defs := cmd.app.Config.TaskDefinitions()
	out := c.Root().Writer
	now := time.Now()

	infos := make([]taskInfo, 0, len(defs))
	for _, def := range defs {
		info, err := cmd.buildTaskInfo(ctx, def, now)
		if err != nil {
			return err
		}
		infos = append(infos, info)
	}

	if cmd.jsonOutput {
		for _, info := range infos {
			if err := iojson.WriteLine(out, info); err != nil {
				return fmt.Errorf("encode task: %w", err)
			}
		}
		return nil
	}

	if len(infos) == 0 {
		_, _ = fmt.Fprintln(out, styles.MutedStyle.Render("No tasks configured"))
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tCRON\tNEXT\tLAST\tPATH")
	for _, info := range infos {
		last := "-"
		if info.LastRun != nil {
			last = fmt.Sprintf("%s %s", info.LastResult, info.LastRun.Local().Format(time.DateTime))
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			info.Name, info.Cron, info.Next.Local().Format(time.DateTime), last, info.Path)
	}
	return w.Flush()
}

func (cmd *TasksCmd) buildTaskInfo(ctx context.Context, def task.Definition, now time.Time) (taskInfo, error) {
	info := taskInfo{
		Name: def.Name,
		Path: def.LocalPath,
		Repo: def.RemoteURL,
		Cron: def.Cron,
	}

	if sched, err := task.ParseCron(def.Cron); err == nil {
		info.Next = sched.Next(now)
	}

	last, err := cmd.app.History.Last(ctx, def.Name)
	switch {
	case err == nil:
		info.LastRun = &last.FinishedAt
		info.LastResult = string(last.Outcome)
	case errors.Is(err, history.ErrNotFound):
	default:
		return info, fmt.Errorf("last run for %s: %w", def.Name, err)
	}

	return info, nil
}
