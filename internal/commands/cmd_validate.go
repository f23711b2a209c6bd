package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hay-kot/criterio"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/gitsync/internal/core/styles"
	"github.com/colonyops/gitsync/internal/core/task"
	"github.com/colonyops/gitsync/pkg/iojson"
)

type ValidateCmd struct {
	flags  *Flags
	format string
}

// NewValidateCmd creates a new validate command.
func NewValidateCmd(flags *Flags) *ValidateCmd {
	return &ValidateCmd{flags: flags}
}

// Register adds the validate command to the application.
func (cmd *ValidateCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "validate",
		Usage:       "Validate configuration file",
		UsageText:   "gitsync validate [options]",
		Description: "Validates the configuration file, checking task definitions, cron expressions, patterns, the git executable and the data directory.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "format",
				Usage:       "output format (text, json)",
				Value:       "text",
				Destination: &cmd.format,
			},
		},
		Action: cmd.run,
	})

	return app
}

type validationIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type validationResult struct {
	Valid  bool              `json:"valid"`
	Tasks  int               `json:"tasks"`
	Errors []validationIssue `json:"errors,omitempty"`
}

func (cmd *ValidateCmd) run(ctx context.Context, c *cli.Command) error {
	cfg := cmd.flags.Config
	result := validationResult{Valid: true, Tasks: len(cfg.Tasks)}

	if err := cfg.ValidateDeep(cmd.flags.ConfigPath); err != nil {
		result.Valid = false

		var fieldErrs criterio.FieldErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				result.Errors = append(result.Errors, validationIssue{Field: fe.Field, Message: fe.Err.Error()})
			}
		} else {
			result.Errors = append(result.Errors, validationIssue{Field: "config", Message: err.Error()})
		}
	}

	out := c.Root().Writer
	if cmd.format == "json" {
		if err := iojson.Write(out, result); err != nil {
			return err
		}
		if !result.Valid {
			return cli.Exit("", 1)
		}
		return nil
	}

	if result.Valid {
		now := time.Now()
		for _, def := range cfg.TaskDefinitions() {
			next := ""
			if sched, err := task.ParseCron(def.Cron); err == nil {
				next = sched.Next(now).Format(time.DateTime)
			}
			_, _ = fmt.Fprintf(out, "%s %s %s\n",
				styles.SuccessStyle.Render(styles.IconOK),
				styles.TextStyle.Render(def.Name),
				styles.MutedStyle.Render(fmt.Sprintf("%s (next %s)", def.Cron, next)))
		}
		if len(cfg.Tasks) == 0 {
			_, _ = fmt.Fprintln(out, styles.WarningStyle.Render("no tasks configured"))
		}
		_, _ = fmt.Fprintln(out)
		_, _ = fmt.Fprintln(out, styles.SuccessStyle.Render("Configuration is valid"))
		return nil
	}

	for _, issue := range result.Errors {
		_, _ = fmt.Fprintf(out, "%s %s: %s\n",
			styles.ErrorStyle.Render(styles.IconFail),
			styles.TextStyle.Render(issue.Field),
			issue.Message)
	}
	_, _ = fmt.Fprintln(out)
	return cli.Exit(styles.ErrorStyle.Render(fmt.Sprintf("%d error(s) found", len(result.Errors))), 1)
}
