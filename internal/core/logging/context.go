package logging

import "context"

type contextKey string

const (
	taskKey  contextKey = "task"
	runIDKey contextKey = "run_id"
)

// WithTask adds a task name to the context.
func WithTask(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, taskKey, name)
}

// WithRunID adds a firing run ID to the context.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// GetTask retrieves the task name from the context.
// Returns empty string if not present.
func GetTask(ctx context.Context) string {
	if name, ok := ctx.Value(taskKey).(string); ok {
		return name
	}
	return ""
}

// GetRunID retrieves the run ID from the context.
// Returns empty string if not present.
func GetRunID(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey).(string); ok {
		return id
	}
	return ""
}
