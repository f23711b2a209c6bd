package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/gitsync/internal/core/doctor"
	"github.com/colonyops/gitsync/internal/core/styles"
	"github.com/colonyops/gitsync/internal/gitsync"
	"github.com/colonyops/gitsync/pkg/iojson"
)

type DoctorCmd struct {
	flags  *Flags
	app    *gitsync.App
	format string
}

// NewDoctorCmd creates a new doctor command.
func NewDoctorCmd(flags *Flags, app *gitsync.App) *DoctorCmd {
	return &DoctorCmd{flags: flags, app: app}
}

// Register adds the doctor command to the application.
func (cmd *DoctorCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "doctor",
		Usage:       "Run health checks on your gitsync setup",
		UsageText:   "gitsync doctor [options]",
		Description: "Checks that git and git-lfs are installed, that every task directory exists and whether it is already a repository, and reports each task's last run.",
		Flags: []cli.Flag{
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

type summaryJSON struct {
	Passed int `json:"passed"`
	Warned int `json:"warned"`
	Failed int `json:"failed"`
}

func (cmd *DoctorCmd) run(ctx context.Context, c *cli.Command) error {
	results := doctor.RunAll(ctx, cmd.app.DoctorChecks())
	passed, warned, failed := doctor.Summary(results)

	w := c.Root().Writer
	if cmd.format == "json" {
		out := struct {
			Healthy bool            `json:"healthy"`
			Summary summaryJSON     `json:"summary"`
			Checks  []doctor.Result `json:"checks"`
		}{
			Healthy: failed == 0,
			Summary: summaryJSON{Passed: passed, Warned: warned, Failed: failed},
			Checks:  results,
		}
		if err := iojson.Write(w, out); err != nil {
			return err
		}
	} else {
		printDoctor(w, results, passed, warned, failed)
	}

	if failed > 0 {
		return cli.Exit("", 1)
	}
	return nil
}

func printDoctor(w io.Writer, results []doctor.Result, passed, warned, failed int) {
	divider := styles.DividerStyle.Render(strings.Repeat("─", 40))

	_, _ = fmt.Fprintln(w, styles.HeaderStyle.Render("gitsync doctor"))
	_, _ = fmt.Fprintln(w, divider)
	_, _ = fmt.Fprintln(w)

	for _, result := range results {
		_, _ = fmt.Fprintln(w, styles.TextStyle.Bold(true).Render(result.Name))

		for _, item := range result.Items {
			var detail string
			if item.Detail != "" {
				detail = " " + styles.MutedStyle.Render(item.Detail)
			}

			style, icon := styles.ForSeverity(severity(item.Status))
			_, _ = fmt.Fprintf(w, "  %s %s%s\n", style.Render(icon), item.Label, detail)
		}

		_, _ = fmt.Fprintln(w)
	}

	_, _ = fmt.Fprintf(w, "%s  %s  %s\n",
		styles.SuccessStyle.Render(fmt.Sprintf("%d passed", passed)),
		styles.WarningStyle.Render(fmt.Sprintf("%d warnings", warned)),
		styles.ErrorStyle.Render(fmt.Sprintf("%d failed", failed)),
	)
}

func severity(s doctor.Status) string {
	switch s {
	case doctor.StatusPass:
		return "ok"
	case doctor.StatusWarn:
		return "warning"
	default:
		return "error"
	}
}
