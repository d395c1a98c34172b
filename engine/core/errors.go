package core

import (
	"errors"
)

var (
	// ErrAlreadyLoaded is returned when a load is attempted on a resource that already holds content.
	ErrAlreadyLoaded = errors.New("resource already loaded")
	// ErrUnsupported is returned by resource kinds that do not implement a capability (parsing, saving).
	ErrUnsupported     = errors.New("operation not supported by this resource kind")
	ErrUnnamedResource = errors.New("resource has no name")
)
