// Package git drives the git command-line tool for repository synchronization.
package git

import (
	"context"
	"errors"
)

// Files written by reconciliation.
const (
	IgnoreFile     = ".gitignore"
	AttributesFile = ".gitattributes"
)

var (
	// ErrNotRepository is returned by Probe when dir is not the root of a git repository.
	ErrNotRepository = errors.New("not a git repository")

	// ErrRemoteBranchMissing is returned by Pull when the remote has no such
	// branch yet, which is the case for a freshly created empty remote.
	ErrRemoteBranchMissing = errors.New("remote branch not found")
)

// Git defines the git operations needed to keep a directory synchronized.
type Git interface {
	// Probe verifies that dir is the root of a working repository.
	Probe(ctx context.Context, dir string) error
	// Status returns `status --porcelain` output, optionally limited to paths.
	Status(ctx context.Context, dir string, paths ...string) (string, error)
	// Init creates a repository in dir with branch as the initial branch.
	Init(ctx context.Context, dir, branch string) error
	// AddRemote registers a remote. An existing remote of the same name is tolerated.
	AddRemote(ctx context.Context, dir, name, url string) error
	// Pull fetches and merges branch from remote.
	Pull(ctx context.Context, dir, remote, branch string) error
	// Add stages paths.
	Add(ctx context.Context, dir string, paths ...string) error
	// Commit records staged changes with message. With paths, only those
	// paths are committed and anything else staged stays staged.
	Commit(ctx context.Context, dir, message string, paths ...string) error
	// Unpushed reports whether HEAD has commits that remote/branch lacks,
	// including when the remote branch does not exist yet. A repository
	// without commits has nothing unpushed.
	Unpushed(ctx context.Context, dir, remote, branch string) (bool, error)
	// Push pushes branch to remote and sets it as upstream.
	Push(ctx context.Context, dir, remote, branch string) error
	// LFSInstall installs the LFS hooks into the repository.
	LFSInstall(ctx context.Context, dir string) error
	// LFSTrack declares pattern as LFS tracked. added is false when git-lfs
	// reports the pattern was already tracked.
	LFSTrack(ctx context.Context, dir, pattern string) (added bool, err error)
}
