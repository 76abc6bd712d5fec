package store

import (
	"errors"
	"fmt"
)

// ErrInvalidState is returned by StoreResult/StoreError when the task is not
// in a state a worker could plausibly be reporting against (UNKNOWN or
// PENDING): reporting on those is a protocol violation by the caller.
var ErrInvalidState = errors.New("invalid state for this operation")

// ErrNotReady is returned by Result when the task has not reached a
// terminal state yet.
var ErrNotReady = errors.New("task not ready")

// ProcessingErr wraps the message a processor reported via StoreError; it is
// what Result returns when the task's state is ERROR.
type ProcessingErr struct {
	Module, ID string
	Message    []byte
}

func (e *ProcessingErr) Error() string {
	return fmt.Sprintf("%s/%s: %s", e.Module, e.ID, e.Message)
}

func errorf(method, format string, a ...interface{}) error {
	return fmt.Errorf("store."+method+": "+format, a...)
}
