package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// ContextHook extracts task and run_id from the event context so that git
// invocations deep in a firing can be traced back to it.
type ContextHook struct{}

// Run adds contextual fields to the zerolog event.
func (h ContextHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == context.Background() || ctx == nil {
		return
	}

	if name := GetTask(ctx); name != "" {
		e.Str("task", name)
	}

	if id := GetRunID(ctx); id != "" {
		e.Str("run_id", id)
	}
}
