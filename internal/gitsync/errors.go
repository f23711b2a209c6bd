package gitsync

import (
	"errors"
	"fmt"
)

// Kind classifies failures by where they are handled.
type Kind string

const (
	// KindConfig is an invalid or duplicate task definition. Fatal at load.
	KindConfig Kind = "config"
	// KindInit is an unrecoverable initialization failure. Fatal at startup.
	KindInit Kind = "init"
	// KindExecution is a failure during a recurring firing. The firing ends,
	// the scheduler and other tasks continue.
	KindExecution Kind = "execution"
	// KindGateway is a non-zero exit from git when fail-fast was requested.
	KindGateway Kind = "gateway"
)

// Error is a classified failure for one task.
type Error struct {
	Kind Kind
	Task string
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %s: %v", e.Kind, e.Task, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the outermost *Error in err's chain, or
// KindGateway for bare gateway failures, or "" for anything else.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if isGatewayError(err) {
		return KindGateway
	}
	return ""
}

func wrap(kind Kind, task, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Task: task, Op: op, Err: err}
}
