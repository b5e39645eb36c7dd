package flow

import (
	"fmt"
)

// BroadcastError reports that a fan-out broadcast could not feed every
// member. Errs is positional: slot i holds the enqueue error for member i,
// or nil when the member accepted the value.
//
// A broadcast that feeds at least one member still produces a joined row;
// the slots of unfed members carry failure markers wrapping the same
// errors. When no member accepts the value, no row forms and the
// BroadcastError is the only trace of the attempt.
type BroadcastError struct {
	Fanout string
	Errs   []error
}

// Error implements the error interface.
func (e *BroadcastError) Error() string {
	fed := 0
	for _, err := range e.Errs {
		if err == nil {
			fed++
		}
	}
	return fmt.Sprintf("fanout %q: broadcast fed %d of %d members", e.Fanout, fed, len(e.Errs))
}

// Unwrap exposes the member errors so errors.Is and errors.As see through
// the aggregate.
func (e *BroadcastError) Unwrap() []error {
	errs := make([]error, 0, len(e.Errs))
	for _, err := range e.Errs {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
