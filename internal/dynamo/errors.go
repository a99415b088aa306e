package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for engine operations.
var (
	// ErrInvalidParams indicates a malformed parameter bundle (missing or
	// negative cutoff, non-positive timestep, non-finite values).
	ErrInvalidParams = errors.New("dynamo: invalid parameters")

	// ErrUnknownElement indicates an element symbol outside the supported set.
	ErrUnknownElement = errors.New("dynamo: unknown element")

	// ErrInvalidOrder indicates a bond order outside 1..3.
	ErrInvalidOrder = errors.New("dynamo: invalid bond order")

	// ErrInvariant indicates the atom/bond store violated one of its invariants.
	ErrInvariant = errors.New("dynamo: store invariant violated")

	// ErrContextCanceled indicates a run was interrupted.
	ErrContextCanceled = errors.New("dynamo: run canceled by context")
)

// StepError wraps a failure with the step it happened on.
type StepError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
