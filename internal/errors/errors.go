// Package errors provides centralized error definitions for drawbridge.
//
// It defines the sentinel errors raised by the bridge monitor, the
// simulation harness and the trace checker, a typed [CrossingError] that
// records which actor and operation failed, and classification helpers.
//
// # Usage
//
//	// Check for a sentinel
//	if errors.Is(err, errors.ErrNotCrossing) { ... }
//
//	// Recover the actor that failed
//	var crossErr *errors.CrossingError
//	if errors.As(err, &crossErr) {
//	    log.Printf("%s %d failed during %s", crossErr.Species, crossErr.ID, crossErr.Op)
//	}
//
//	// Cancellation is expected when a run is interrupted
//	if errors.IsCanceled(err) { ... }
package errors

import (
	"context"
	"errors"
	"fmt"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Monitor sentinel errors
var (
	// ErrNotCrossing indicates a release by an actor that does not hold the crossing.
	ErrNotCrossing = New("actor is not on the crossing")
	// ErrUnknownSpecies indicates a species value other than car or ship.
	ErrUnknownSpecies = New("unknown species")
)

// Harness sentinel errors
var (
	// ErrInvalidWave indicates a wave description with characters other than c/s.
	ErrInvalidWave = New("invalid wave")
	// ErrEmptyPlan indicates a simulation plan with no actors.
	ErrEmptyPlan = New("plan has no actors")
)

// Trace sentinel errors
var (
	// ErrInvariantViolated is matched by every trace violation report.
	ErrInvariantViolated = New("bridge invariant violated")
)

// -----------------------------------------------------------------------------
// CrossingError
// -----------------------------------------------------------------------------

// CrossingError records a failed monitor operation for a single actor.
type CrossingError struct {
	Species string // "car" or "ship"
	ID      int
	Op      string // request or release
	Err     error
}

// NewCrossingError wraps err with the actor and operation that produced it.
func NewCrossingError(species string, id int, op string, err error) *CrossingError {
	return &CrossingError{Species: species, ID: id, Op: op, Err: err}
}

func (e *CrossingError) Error() string {
	return fmt.Sprintf("%s %d: %s crossing: %v", e.Species, e.ID, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *CrossingError) Unwrap() error {
	return e.Err
}

// -----------------------------------------------------------------------------
// Classification
// -----------------------------------------------------------------------------

// IsCanceled reports whether err was caused by context cancellation or an
// expired deadline. Canceled runs are interrupted, not broken.
func IsCanceled(err error) bool {
	if err == nil {
		return false
	}
	return Is(err, context.Canceled) || Is(err, context.DeadlineExceeded)
}

// IsCallerBug reports whether err signals misuse of the monitor API, as
// opposed to an interrupted wait.
func IsCallerBug(err error) bool {
	return Is(err, ErrNotCrossing) || Is(err, ErrUnknownSpecies)
}
