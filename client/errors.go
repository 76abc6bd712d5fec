package client

import (
	"errors"
	"fmt"
)

// ErrNoTask is returned by GetTask when a module's queue is empty.
var ErrNoTask = errors.New("no task available")

func errorf(method, format string, a ...interface{}) error {
	return fmt.Errorf("client."+method+": "+format, a...)
}
