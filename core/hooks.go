package core

import "time"

// TransitionEvent describes the processing of one input by a stateful
// unit. Seq counts processed inputs per unit starting at 1; Err is nil for
// committed transitions and carries the tagged failure otherwise. A unit
// configured with retries reports the final outcome, not each attempt.
type TransitionEvent struct {
	Unit     string
	Seq      uint64
	Duration time.Duration
	Err      error
}

// Hooks are optional observation points invoked synchronously from a unit's
// worker. Leave fields nil to opt out. Implementations must be fast and
// must not call back into the unit, since they run between a transition
// commit and the output enqueue.
type Hooks struct {
	OnTransition func(TransitionEvent)
}

// EmitTransition invokes the OnTransition hook when set.
func (h Hooks) EmitTransition(ev TransitionEvent) {
	if h.OnTransition != nil {
		h.OnTransition(ev)
	}
}
