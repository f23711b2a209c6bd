package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/gitsync/internal/core/styles"
	"github.com/colonyops/gitsync/internal/gitsync"
	"github.com/colonyops/gitsync/pkg/iojson"
)

type NotificationsCmd struct {
	flags *Flags
	app   *gitsync.App

	// flags
	clear  bool
	format string
}

// NewNotificationsCmd creates a new notifications command
func NewNotificationsCmd(flags *Flags, app *gitsync.App) *NotificationsCmd {
	return &NotificationsCmd{flags: flags, app: app}
}

// Register adds the notifications command to the application
func (cmd *NotificationsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "notifications",
		Usage:     "List or clear stored notifications",
		UsageText: "gitsync notifications [--clear] [--format text|json]",
		Description: `Shows notifications recorded by the daemon, newest first: initialization
milestones, sync failures and, for tasks that ask for it, sync successes.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "clear",
				Usage:       "delete all stored notifications",
				Destination: &cmd.clear,
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

func (cmd *NotificationsCmd) run(ctx context.Context, c *cli.Command) error {
	out := c.Root().Writer
	store := cmd.app.Notifications

	if cmd.clear {
		n, err := store.Count(ctx)
		if err != nil {
			return fmt.Errorf("count notifications: %w", err)
		}
		if err := store.Clear(ctx); err != nil {
			return fmt.Errorf("clear notifications: %w", err)
		}
		_, _ = fmt.Fprintf(out, "%s cleared %d notification(s)\n", styles.SuccessStyle.Render(styles.IconOK), n)
		return nil
	}

	list, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("list notifications: %w", err)
	}

	if cmd.format == "json" {
		return iojson.Write(out, list)
	}

	if len(list) == 0 {
		_, _ = fmt.Fprintln(out, styles.MutedStyle.Render("No notifications"))
		return nil
	}

	for _, n := range list {
		style, icon := styles.ForSeverity(string(n.Level))
		_, _ = fmt.Fprintf(out, "%s %s %s\n",
			style.Render(icon),
			styles.HeaderStyle.Render(n.Title),
			styles.MutedStyle.Render(n.CreatedAt.Local().Format(time.DateTime)))
		if n.Task != "" {
			_, _ = fmt.Fprintf(out, "  %s\n", styles.MutedStyle.Render("task "+n.Task))
		}
		_, _ = fmt.Fprintf(out, "  %s\n", styles.TextStyle.Render(n.Message))
	}
	return nil
}
