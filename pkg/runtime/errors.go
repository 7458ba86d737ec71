package runtime

import (
	"errors"
	"fmt"
)

// ErrNotLoaded is returned by operations that require a loaded protocol.
var ErrNotLoaded = errors.New("no protocol loaded")

// NotFoundError reports an unknown method or state key.
type NotFoundError struct {
	Kind string // "method" or "state"
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Name)
}

// ArityError reports an argument count mismatch. Method logic never executes
// when this is returned.
type ArityError struct {
	Method string
	Want   int
	Got    int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("method %s: parameter count mismatch: expected %d, got %d", e.Method, e.Want, e.Got)
}

// EvalError reports a malformed statement or expression inside an otherwise
// valid method. It is recoverable: the runtime instance stays loaded and
// usable.
type EvalError struct {
	Method string
	Err    error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("method %s: %v", e.Method, e.Err)
}

func (e *EvalError) Unwrap() error { return e.Err }

// PersistenceError reports a snapshot or state serialization failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
