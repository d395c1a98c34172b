package resources

import (
	"fmt"
)

// LoadError means a resource could not be loaded from file. It wraps the
// cause, which may be core.ErrAlreadyLoaded, core.ErrUnsupported or a parse error.
type LoadError struct {
	Name string
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load resource %q from %s: %v", e.Name, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// TypeMismatchError means the resource cached under a name is not of the requested kind.
type TypeMismatchError struct {
	Name     string
	Expected string
	Actual   string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("resource type mismatch for %q: expected=%s actual=%s", e.Name, e.Expected, e.Actual)
}

// UnknownKindError means no resource kind is registered for a file extension.
type UnknownKindError struct {
	Ext string
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("no resource kind registered for extension %q", e.Ext)
}
