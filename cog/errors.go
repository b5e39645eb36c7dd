package cog

import "fmt"

// TransitionError tags a transition failure delivered on a unit's output
// side. The caller observing Take receives it once inside a failed Result;
// the unit's state is unchanged and subsequent inputs process normally.
type TransitionError struct {
	// Cog is the name of the unit whose transition failed.
	Cog string
	// Seq is the 1-based input sequence number within the unit.
	Seq uint64
	// Err is the error returned (or recovered) from the transition.
	Err error
}

// Error implements the error interface.
func (e *TransitionError) Error() string {
	return fmt.Sprintf("cog %q: transition %d failed: %v", e.Cog, e.Seq, e.Err)
}

// Unwrap exposes the underlying transition error to errors.Is and errors.As.
func (e *TransitionError) Unwrap() error { return e.Err }
