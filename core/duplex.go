package core

import (
	"context"

	"github.com/hupe1980/cogmesh/queue"
)

// DuplexConfig sizes the two queues of a Duplex and optionally attaches a
// transform to each side. Capacities are explicit: zero means rendezvous,
// unbounded is not available.
type DuplexConfig[In, Out any] struct {
	InputCapacity   int
	OutputCapacity  int
	InputTransform  Transform[In]
	OutputTransform Transform[Out]
}

// Duplex pairs an input and an output bounded queue behind one put/take
// surface. The two queues are independent, which is the core fix for the
// single-channel backpressure problem: a slow consumer fills the output
// queue without blocking producers until the input queue is full too.
//
// A Duplex has two faces. The outer face (Put, Take) is for producers and
// consumers and applies the configured transforms. The inner face
// (Recv, Send) is for an owning worker that drains inputs and publishes
// outputs; it operates on the raw queues.
type Duplex[In, Out any] struct {
	in           *queue.Bounded[In]
	out          *queue.Bounded[Out]
	inTransform  Transform[In]
	outTransform Transform[Out]
}

// NewDuplex creates a Duplex from the given configuration.
func NewDuplex[In, Out any](cfg DuplexConfig[In, Out]) *Duplex[In, Out] {
	return &Duplex[In, Out]{
		in:           queue.NewBounded[In](cfg.InputCapacity),
		out:          queue.NewBounded[Out](cfg.OutputCapacity),
		inTransform:  cfg.InputTransform,
		outTransform: cfg.OutputTransform,
	}
}

// Put applies the input transform and enqueues the value on the input side,
// blocking while it is full. A transform error fails the call synchronously
// and nothing is enqueued.
func (d *Duplex[In, Out]) Put(ctx context.Context, v In) error {
	if d.inTransform != nil {
		var err error
		if v, err = d.inTransform(v); err != nil {
			return err
		}
	}
	return d.in.Put(ctx, v)
}

// Take dequeues from the output side, blocking while it is empty, and
// applies the output transform before delivery.
func (d *Duplex[In, Out]) Take(ctx context.Context) (Out, error) {
	v, err := d.out.Take(ctx)
	if err != nil {
		return v, err
	}
	if d.outTransform != nil {
		return d.outTransform(v)
	}
	return v, nil
}

// Recv dequeues the next raw input for the owning worker.
func (d *Duplex[In, Out]) Recv(ctx context.Context) (In, error) {
	return d.in.Take(ctx)
}

// Send enqueues a raw output from the owning worker, blocking while the
// output side is full.
func (d *Duplex[In, Out]) Send(ctx context.Context, v Out) error {
	return d.out.Put(ctx, v)
}

// Close closes both sides. Owners that propagate closure through a worker
// should use CloseInput and let the worker call CloseOutput after draining.
func (d *Duplex[In, Out]) Close() error {
	d.in.Close()
	d.out.Close()
	return nil
}

// CloseInput closes only the input side.
func (d *Duplex[In, Out]) CloseInput() { d.in.Close() }

// CloseOutput closes only the output side.
func (d *Duplex[In, Out]) CloseOutput() { d.out.Close() }

// InputLen reports the number of buffered inputs.
func (d *Duplex[In, Out]) InputLen() int { return d.in.Len() }

// OutputLen reports the number of buffered outputs.
func (d *Duplex[In, Out]) OutputLen() int { return d.out.Len() }
