// Package executil provides shell execution utilities.
package executil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

const maxStderrLen = 500

// limitedWriter caps writes to a bytes.Buffer at a maximum byte count.
// Bytes beyond the limit are silently discarded.
type limitedWriter struct {
	buf *bytes.Buffer
	n   int64
	max int64
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	if w.n >= w.max {
		return len(p), nil
	}
	remaining := w.max - w.n
	origLen := len(p)
	if int64(origLen) > remaining {
		p = p[:remaining]
	}
	n, err := w.buf.Write(p)
	w.n += int64(n)
	if err != nil {
		return n, err
	}
	return origLen, nil
}

// RunSh executes a shell command in the given directory (empty means inherit cwd).
// On failure, stderr is returned as the error message, capped at 500 bytes to
// prevent large or ANSI-polluted output from corrupting logs.
// The original *exec.ExitError is preserved via wrapping so callers can inspect
// exit codes with errors.As.
func RunSh(ctx context.Context, dir, cmd string) error {
	c := exec.CommandContext(ctx, "sh", "-c", cmd)
	if dir != "" {
		c.Dir = dir
	}
	var buf bytes.Buffer
	c.Stdout = io.Discard
	c.Stderr = &limitedWriter{buf: &buf, max: maxStderrLen}
	if err := c.Run(); err != nil {
		msg := strings.TrimSpace(buf.String())
		if msg != "" {
			return fmt.Errorf("%s: %w", msg, err)
		}
		return err
	}
	return nil
}

// Output is the captured result of a finished process.
type Output struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Executor runs external commands.
type Executor interface {
	// RunDir executes a command in dir and captures both output streams.
	//
	// A process that starts and exits non-zero is not an error: the exit code
	// is reported in Output. An error is returned only when the process could
	// not be started or waited on.
	RunDir(ctx context.Context, dir, cmd string, args ...string) (Output, error)
}

// RealExecutor calls actual commands.
type RealExecutor struct{}

// RunDir executes a command in a specific directory.
//
// Stdout and stderr are written to separate buffers by the exec package's
// copying goroutines, and Run only returns after both pipes are drained, so a
// child producing large output cannot block on a full pipe.
func (e *RealExecutor) RunDir(ctx context.Context, dir, cmd string, args ...string) (Output, error) {
	c := exec.CommandContext(ctx, cmd, args...)
	c.Dir = dir

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	err := c.Run()
	out := Output{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return out, nil
	case errors.As(err, &exitErr):
		out.ExitCode = exitErr.ExitCode()
		return out, nil
	default:
		out.ExitCode = -1
		return out, fmt.Errorf("exec %s in %s: %w", cmd, dir, err)
	}
}
