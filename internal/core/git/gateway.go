package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/colonyops/gitsync/pkg/executil"
)

// Result is the captured outcome of one git invocation.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// OK reports whether the command exited zero.
func (r Result) OK() bool {
	return r.ExitCode == 0
}

// Output returns stdout and stderr joined, for pattern matching on messages
// that git may print to either stream.
func (r Result) Output() string {
	return r.Stdout + r.Stderr
}

// CommandError is returned by a fail-fast invocation that exited non-zero.
type CommandError struct {
	Dir      string
	Args     []string
	ExitCode int
	Stdout   string
	Stderr   string
}

func (e *CommandError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		msg = strings.TrimSpace(e.Stdout)
	}
	if msg == "" {
		return fmt.Sprintf("git %s: exit status %d", strings.Join(e.Args, " "), e.ExitCode)
	}
	return fmt.Sprintf("git %s: exit status %d: %s", strings.Join(e.Args, " "), e.ExitCode, msg)
}

// Gateway invokes the git executable. It spawns one process per call and
// never retries.
type Gateway struct {
	gitPath string
	exec    executil.Executor
	log     zerolog.Logger
}

// NewGateway creates a gateway for the git binary at gitPath.
func NewGateway(gitPath string, exec executil.Executor, log zerolog.Logger) *Gateway {
	return &Gateway{gitPath: gitPath, exec: exec, log: log}
}

// Run executes git with args in dir. When failFast is set a non-zero exit
// is returned as a *CommandError carrying the captured output; otherwise the
// result is returned for the caller to interpret.
func (g *Gateway) Run(ctx context.Context, dir string, failFast bool, args ...string) (Result, error) {
	out, err := g.exec.RunDir(ctx, dir, g.gitPath, args...)
	res := Result{
		ExitCode: out.ExitCode,
		Stdout:   string(out.Stdout),
		Stderr:   string(out.Stderr),
	}

	g.log.Debug().
		Ctx(ctx).
		Str("dir", dir).
		Strs("args", args).
		Int("exit", res.ExitCode).
		Msg("git")

	if err != nil {
		return res, fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}

	if failFast && !res.OK() {
		return res, &CommandError{
			Dir:      dir,
			Args:     args,
			ExitCode: res.ExitCode,
			Stdout:   res.Stdout,
			Stderr:   res.Stderr,
		}
	}

	return res, nil
}
