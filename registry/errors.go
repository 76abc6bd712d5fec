package registry

import (
	"errors"
	"fmt"
)

// ErrUnknownModule is returned by Get when no processor is registered under
// the requested name.
var ErrUnknownModule = errors.New("unknown module")

// ErrAlreadyRegistered is returned by Register when the name is taken.
var ErrAlreadyRegistered = errors.New("module already registered")

// ErrUnsupportedFormat is the default Convert result for processors that do
// not implement format conversion.
var ErrUnsupportedFormat = errors.New("format not supported")

func errorf(method, format string, a ...interface{}) error {
	return fmt.Errorf("registry."+method+": "+format, a...)
}
