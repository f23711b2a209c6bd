package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/gitsync/internal/core/config"
)

// TaskNameCompleter returns a ShellCompleteFunc that suggests configured task
// names as positional completions.
//
// When the user's last typed argument starts with "-", it falls back to the
// default flag completion behavior.
func TaskNameCompleter(flags *Flags) cli.ShellCompleteFunc {
	return func(ctx context.Context, cmd *cli.Command) {
		if args := cmd.Args(); args.Present() {
			last := args.Slice()[args.Len()-1]
			if len(last) > 0 && last[0] == '-' {
				cli.DefaultCompleteWithFlags(ctx, cmd)
				return
			}
		}

		cfg := flags.Config
		if cfg == nil {
			var err error
			cfg, err = config.Read(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return
			}
		}

		w := cmd.Root().Writer
		for _, def := range cfg.TaskDefinitions() {
			_, _ = fmt.Fprintln(w, def.Name)
		}
	}
}
