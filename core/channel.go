package core

import "context"

// Channel is the bidirectional contract that lets a stateful unit be used
// exactly like a message channel: callers push inputs with Put and pull
// outputs with Take without knowing whether a pure function, a tool or a
// model call sits behind the interface.
//
// Implementations pair two independent bounded queues, so a slow consumer on
// the Take side never blocks Put until the input side's own capacity is
// reached. Put blocks while the input side is full and fails with
// queue.ErrClosed once the channel is closed. Take blocks while the output
// side is empty, drains buffered outputs after a close, and then reports
// queue.ErrEnd.
type Channel[In, Out any] interface {
	// Put pushes one input value, honoring the input queue's backpressure.
	Put(ctx context.Context, v In) error

	// Take pulls the next output value in FIFO order.
	Take(ctx context.Context) (Out, error)

	// Close stops input acceptance. Closing is terminal and idempotent;
	// already-accepted inputs are still processed and their outputs remain
	// takeable until drained.
	Close() error
}

// Stage is a Channel whose outputs are failure-tagged values of the same
// payload type as its inputs, plus a relay face for feeding such tagged
// values back in. Pipelines are built from stages: a relay moves each
// Result from one stage's output to the next stage's input, and PutResult
// lets already-failed values ride through untouched instead of being run
// through another transition.
type Stage[V any] interface {
	Channel[V, Result[V]]

	// PutResult pushes a possibly-failed value. Failed values bypass the
	// stage's transition and surface on its output side unchanged.
	PutResult(ctx context.Context, r Result[V]) error
}
