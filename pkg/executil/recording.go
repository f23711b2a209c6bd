package executil

import (
	"context"
	"strings"
	"sync"
)

// RecordedCommand captures a command that was executed.
type RecordedCommand struct {
	Dir  string
	Cmd  string
	Args []string
}

// Line returns the arguments joined by a single space.
func (c RecordedCommand) Line() string {
	return strings.Join(c.Args, " ")
}

// RecordingExecutor captures commands for testing.
//
// Responses are keyed by the space-joined argument list (for example
// "status --porcelain"). Each key holds a queue: calls consume entries in
// order and the final entry is repeated once the queue is exhausted.
// Unscripted commands succeed with empty output.
type RecordingExecutor struct {
	mu       sync.Mutex
	Commands []RecordedCommand

	Responses map[string][]Output

	// Errors maps an argument line to a start failure.
	Errors map[string]error

	calls map[string]int
}

// On appends scripted outputs for the given argument line.
func (e *RecordingExecutor) On(line string, outs ...Output) *RecordingExecutor {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.Responses == nil {
		e.Responses = make(map[string][]Output)
	}
	e.Responses[line] = append(e.Responses[line], outs...)
	return e
}

// RunDir records the command with directory and returns the scripted output.
func (e *RecordingExecutor) RunDir(ctx context.Context, dir, cmd string, args ...string) (Output, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.Commands = append(e.Commands, RecordedCommand{
		Dir:  dir,
		Cmd:  cmd,
		Args: args,
	})

	line := strings.Join(args, " ")

	if err, ok := e.Errors[line]; ok {
		return Output{ExitCode: -1}, err
	}

	queue := e.Responses[line]
	if len(queue) == 0 {
		return Output{}, nil
	}

	if e.calls == nil {
		e.calls = make(map[string]int)
	}
	idx := e.calls[line]
	e.calls[line]++
	if idx >= len(queue) {
		idx = len(queue) - 1
	}
	return queue[idx], nil
}

// Lines returns the argument lines of every recorded command in call order.
func (e *RecordingExecutor) Lines() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	lines := make([]string, 0, len(e.Commands))
	for _, c := range e.Commands {
		lines = append(lines, c.Line())
	}
	return lines
}

// Count returns how many recorded commands start with the given argument prefix.
func (e *RecordingExecutor) Count(prefix string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := 0
	for _, c := range e.Commands {
		line := c.Line()
		if line == prefix || strings.HasPrefix(line, prefix+" ") {
			n++
		}
	}
	return n
}

// Reset clears recorded commands and response cursors.
func (e *RecordingExecutor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Commands = nil
	e.calls = nil
}
