// Package history defines sync firing history domain types and interfaces.
package history

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Store.Last when a task has no recorded firing.
var ErrNotFound = errors.New("no recorded runs")

// Outcome is the result of one firing.
type Outcome string

const (
	// OutcomeNoop means the working tree was clean and nothing was committed.
	OutcomeNoop Outcome = "noop"
	// OutcomeSynced means local changes were committed and pushed.
	OutcomeSynced Outcome = "synced"
	// OutcomeFailed means the firing ended early with an error.
	OutcomeFailed Outcome = "failed"
)

// Run represents a recorded firing of a task.
type Run struct {
	ID         string    `json:"id"`
	Task       string    `json:"task"`
	Outcome    Outcome   `json:"outcome"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Failed returns true if the firing ended in an error.
func (r *Run) Failed() bool {
	return r.Outcome == OutcomeFailed
}

// Duration returns how long the firing took.
func (r *Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Filter narrows a history listing.
type Filter struct {
	Task  string // empty = all tasks
	Limit int    // 0 = no limit
}

// Store persists firing records.
type Store interface {
	Record(ctx context.Context, run Run) error
	List(ctx context.Context, filter Filter) ([]Run, error)
	// Last returns the most recent firing of task, or an error wrapping
	// ErrNotFound.
	Last(ctx context.Context, task string) (Run, error)
}
