package git

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// Output markers matched against git and git-lfs messages.
const (
	markerRemoteRefMissing = "couldn't find remote ref"
	markerRemoteExists     = "already exists"
	markerLFSTracked       = "already supported"
)

// Executor implements Git on top of a Gateway.
type Executor struct {
	gw *Gateway
}

var _ Git = (*Executor)(nil)

// NewExecutor creates a git executor routing every call through gw.
func NewExecutor(gw *Gateway) *Executor {
	return &Executor{gw: gw}
}

func (e *Executor) Probe(ctx context.Context, dir string) error {
	res, err := e.gw.Run(ctx, dir, false, "status", "--porcelain")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotRepository, err)
	}
	if !res.OK() {
		return fmt.Errorf("%w: %s", ErrNotRepository, strings.TrimSpace(res.Stderr))
	}

	res, err = e.gw.Run(ctx, dir, false, "rev-parse", "--show-toplevel")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotRepository, err)
	}
	if !res.OK() {
		return fmt.Errorf("%w: %s", ErrNotRepository, strings.TrimSpace(res.Stderr))
	}

	top := strings.TrimSpace(res.Stdout)
	if !samePath(top, dir) {
		return fmt.Errorf("%w: %s is inside repository %s", ErrNotRepository, dir, top)
	}

	return nil
}

func (e *Executor) Status(ctx context.Context, dir string, paths ...string) (string, error) {
	args := []string{"status", "--porcelain"}
	if len(paths) > 0 {
		args = append(args, "--")
		args = append(args, paths...)
	}

	res, err := e.gw.Run(ctx, dir, true, args...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Stdout), nil
}

func (e *Executor) Init(ctx context.Context, dir, branch string) error {
	if _, err := e.gw.Run(ctx, dir, true, "init", "--initial-branch="+branch); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	return nil
}

func (e *Executor) AddRemote(ctx context.Context, dir, name, url string) error {
	res, err := e.gw.Run(ctx, dir, false, "remote", "add", name, url)
	if err != nil {
		return fmt.Errorf("remote add: %w", err)
	}
	if res.OK() || strings.Contains(res.Stderr, markerRemoteExists) {
		return nil
	}
	return fmt.Errorf("remote add: %w", &CommandError{
		Dir:      dir,
		Args:     []string{"remote", "add", name, url},
		ExitCode: res.ExitCode,
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
	})
}

func (e *Executor) Pull(ctx context.Context, dir, remote, branch string) error {
	res, err := e.gw.Run(ctx, dir, true, "pull", remote, branch)
	if err == nil {
		return nil
	}

	var cmdErr *CommandError
	if errors.As(err, &cmdErr) && strings.Contains(res.Output(), markerRemoteRefMissing) {
		return fmt.Errorf("pull %s %s: %w", remote, branch, ErrRemoteBranchMissing)
	}
	return fmt.Errorf("pull: %w", err)
}

func (e *Executor) Add(ctx context.Context, dir string, paths ...string) error {
	args := append([]string{"add"}, paths...)
	if _, err := e.gw.Run(ctx, dir, true, args...); err != nil {
		return fmt.Errorf("add: %w", err)
	}
	return nil
}

func (e *Executor) Commit(ctx context.Context, dir, message string, paths ...string) error {
	args := []string{"commit", "-m", message}
	if len(paths) > 0 {
		args = append(args, "--")
		args = append(args, paths...)
	}
	if _, err := e.gw.Run(ctx, dir, true, args...); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (e *Executor) Unpushed(ctx context.Context, dir, remote, branch string) (bool, error) {
	res, err := e.gw.Run(ctx, dir, false, "rev-parse", "--verify", "--quiet", "HEAD")
	if err != nil {
		return false, fmt.Errorf("rev-parse: %w", err)
	}
	if !res.OK() {
		return false, nil
	}

	res, err = e.gw.Run(ctx, dir, false, "rev-list", "--count", remote+"/"+branch+"..HEAD")
	if err != nil {
		return false, fmt.Errorf("rev-list: %w", err)
	}
	if !res.OK() {
		// The remote-tracking branch is unknown, so the remote has never
		// received this branch.
		return true, nil
	}

	count := strings.TrimSpace(res.Stdout)
	if count == "" {
		return false, nil
	}
	n, err := strconv.Atoi(count)
	if err != nil {
		return false, fmt.Errorf("rev-list: unexpected output %q", count)
	}
	return n > 0, nil
}

func (e *Executor) Push(ctx context.Context, dir, remote, branch string) error {
	if _, err := e.gw.Run(ctx, dir, true, "push", "--set-upstream", remote, branch); err != nil {
		return fmt.Errorf("push: %w", err)
	}
	return nil
}

func (e *Executor) LFSInstall(ctx context.Context, dir string) error {
	if _, err := e.gw.Run(ctx, dir, true, "lfs", "install"); err != nil {
		return fmt.Errorf("lfs install: %w", err)
	}
	return nil
}

func (e *Executor) LFSTrack(ctx context.Context, dir, pattern string) (bool, error) {
	res, err := e.gw.Run(ctx, dir, true, "lfs", "track", pattern)
	if err != nil {
		return false, fmt.Errorf("lfs track %s: %w", pattern, err)
	}
	return !strings.Contains(res.Output(), markerLFSTracked), nil
}

// samePath compares two directory paths after resolving symlinks, so that
// /var and /private/var on macOS compare equal.
func samePath(a, b string) bool {
	a = filepath.Clean(filepath.FromSlash(a))
	b = filepath.Clean(filepath.FromSlash(b))
	if ra, err := filepath.EvalSymlinks(a); err == nil {
		a = ra
	}
	if rb, err := filepath.EvalSymlinks(b); err == nil {
		b = rb
	}
	return a == b
}
