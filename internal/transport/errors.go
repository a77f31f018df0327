package transport

import (
	"errors"
	"fmt"
)

// ErrTransport matches every *Error via errors.Is.
var ErrTransport = errors.New("transport failure")

// ErrTimeout is wrapped when a bounded operation ran out of time.
var ErrTimeout = errors.New("operation timed out")

// Error is a failure to reach or write to a printer: connection refused,
// timeout, missing device, permission denied. It is never retried here.
type Error struct {
	Op     string
	Target string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == ErrTransport }

func wrap(op, target string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Target: target, Err: err}
}
