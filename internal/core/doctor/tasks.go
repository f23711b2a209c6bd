package doctor

import (
	"context"
	"errors"
	"os"

	"github.com/colonyops/gitsync/internal/core/git"
	"github.com/colonyops/gitsync/internal/core/task"
)

// TasksCheck verifies that each task's local path exists and is either a
// repository root or a directory awaiting initialization.
type TasksCheck struct {
	defs []task.Definition
	git  git.Git
}

// NewTasksCheck creates a new tasks check.
func NewTasksCheck(defs []task.Definition, g git.Git) *TasksCheck {
	return &TasksCheck{defs: defs, git: g}
}

func (c *TasksCheck) Name() string {
	return "Tasks"
}

func (c *TasksCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}

	if len(c.defs) == 0 {
		result.Items = append(result.Items, CheckItem{
			Label:  "tasks",
			Status: StatusWarn,
			Detail: "no tasks configured",
		})
		return result
	}

	for _, def := range c.defs {
		result.Items = append(result.Items, c.checkTask(ctx, def))
	}

	return result
}

func (c *TasksCheck) checkTask(ctx context.Context, def task.Definition) CheckItem {
	item := CheckItem{Label: def.Name}

	info, err := os.Stat(def.LocalPath)
	switch {
	case err != nil:
		item.Status = StatusFail
		item.Detail = err.Error()
		return item
	case !info.IsDir():
		item.Status = StatusFail
		item.Detail = def.LocalPath + " is not a directory"
		return item
	}

	err = c.git.Probe(ctx, def.LocalPath)
	switch {
	case err == nil:
		item.Status = StatusPass
		item.Detail = "repository"
	case errors.Is(err, git.ErrNotRepository):
		item.Status = StatusWarn
		item.Detail = "not initialized yet, initialized on first run"
	default:
		item.Status = StatusFail
		item.Detail = err.Error()
	}

	return item
}
