package sandbox

import (
	"errors"
	"fmt"
)

var (
	// ErrReleased is returned when a callable of a released unit is invoked.
	ErrReleased = errors.New("unit released")
	// ErrNoEntryPoint reports that a unit exposes no callable to draw with.
	ErrNoEntryPoint = errors.New("no callable entry point")
	// ErrBudgetExceeded is the interrupt reason for a call that ran too long.
	ErrBudgetExceeded = errors.New("frame budget exceeded")
)

// LoadError is returned when source text could not become a unit: syntax
// errors, exceptions thrown by top-level code, or a load timeout.
type LoadError struct {
	Name string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Name, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// RejectionError carries the reason of a promise returned by an entry point
// that settled as rejected.
type RejectionError struct {
	Reason string
}

func (e *RejectionError) Error() string {
	return "promise rejected: " + e.Reason
}
