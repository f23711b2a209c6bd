// Package gitsync implements the repository synchronization engine: rule
// reconciliation, first-run repository initialization and the recurring
// pull/commit/push cycle.
package gitsync

import (
	"errors"
	"time"

	"github.com/colonyops/gitsync/internal/core/git"
)

// Options are the settings shared by every task.
type Options struct {
	Remote string
	Branch string
}

// Clock returns the current time. Commit messages are stamped with it.
type Clock func() time.Time

const timestampLayout = "2006-01-02 15:04:05"

func isGatewayError(err error) bool {
	var cmdErr *git.CommandError
	return errors.As(err, &cmdErr)
}
