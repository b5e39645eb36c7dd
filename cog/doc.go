// Package cog implements the stateful unit at the center of cogmesh: a
// channel that quacks like an agent. A Cog pairs independently buffered
// input and output queues with an owned, opaque state value and a pluggable
// transition function, and runs one dedicated worker goroutine that
// serializes every state change. The package focuses on three concerns:
//
//  1. Channel semantics (Put, Take, Close with drain-then-end teardown)
//  2. Serialized state transitions with atomic whole-value commits
//  3. Branching via Fork (independent unit from a state snapshot)
//
// Execution model:
//   - Exactly one transition executes at a time per unit; concurrent Put
//     callers are queued by the input queue, never interleaved into the
//     transition function.
//   - Snapshot always observes a fully committed state, never a value from
//     a transition still in flight.
//   - A failed transition leaves the state untouched and surfaces on the
//     output side as a failure-tagged Result; the worker keeps going.
//
// The transition function is the sole point where model, tool or database
// logic plugs in; the core treats it as an opaque synchronous call.
package cog
