package doctor

import (
	"context"
	"errors"

	"github.com/colonyops/gitsync/internal/core/history"
	"github.com/colonyops/gitsync/internal/core/task"
)

// HistoryCheck reports the most recent recorded firing of each task.
type HistoryCheck struct {
	defs  []task.Definition
	store history.Store
}

// NewHistoryCheck creates a new history check.
func NewHistoryCheck(defs []task.Definition, store history.Store) *HistoryCheck {
	return &HistoryCheck{defs: defs, store: store}
}

func (c *HistoryCheck) Name() string {
	return "Last Runs"
}

func (c *HistoryCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}

	for _, def := range c.defs {
		item := CheckItem{Label: def.Name}

		run, err := c.store.Last(ctx, def.Name)
		switch {
		case errors.Is(err, history.ErrNotFound):
			item.Status = StatusPass
			item.Detail = "never synced"
		case err != nil:
			item.Status = StatusFail
			item.Detail = err.Error()
		case run.Failed():
			item.Status = StatusWarn
			item.Detail = run.Error
		default:
			item.Status = StatusPass
			item.Detail = string(run.Outcome) + " at " + run.FinishedAt.Local().Format("2006-01-02 15:04:05")
		}

		result.Items = append(result.Items, item)
	}

	return result
}
