package cog

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hupe1980/cogmesh/core"
	"github.com/hupe1980/cogmesh/logging"
	"github.com/hupe1980/cogmesh/queue"
)

// Compile-time check: a Cog is usable wherever a pipeline stage is expected.
var _ core.Stage[string] = (*Cog[int, string])(nil)

// Transition computes the unit's next state and one output from the current
// state and one input. It runs on the unit's worker goroutine, one call at a
// time. Returning an error leaves the state unchanged and delivers a tagged
// failure on the output side. The context is the unit's base context; model
// or tool calls inside the transition should honor it.
type Transition[S, V any] func(ctx context.Context, state S, in V) (S, V, error)

// Config is the explicit construction surface of a unit: both queue
// capacities must be chosen (zero means rendezvous), and each queue side may
// carry an optional transform applied as values pass.
type Config[V any] struct {
	InputCapacity   int
	OutputCapacity  int
	InputTransform  core.Transform[V]
	OutputTransform core.Transform[V]
}

// Cog is a stateful unit usable exactly like a bidirectional message
// channel. Callers push inputs with Put and pull failure-tagged outputs
// with Take; a dedicated worker drains the input queue, runs the transition
// and commits the new state atomically before publishing the output.
//
// The state value is owned by the worker: it is replaced wholesale after
// each successful transition and never mutated in place, so Snapshot is an
// atomic load free of partial writes.
type Cog[S, V any] struct {
	id         string
	name       string
	transition Transition[S, V]
	cfg        Config[V]

	dx    *core.Duplex[core.Result[V], core.Result[V]]
	state atomic.Pointer[S]

	baseCtx context.Context
	logger  logging.Logger
	hooks   core.Hooks
	retries int

	done chan struct{}
}

// New creates a unit with the given initial state, transition function and
// queue configuration, and starts its worker immediately. The unit runs
// until Close; closing is terminal, there is no restart.
func New[S, V any](initial S, transition Transition[S, V], cfg Config[V], optFns ...func(o *Options)) *Cog[S, V] {
	if transition == nil {
		panic("cog: nil transition")
	}
	opts := Options{
		Logger:      logging.NoOpLogger{},
		BaseContext: context.Background(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.BaseContext == nil {
		opts.BaseContext = context.Background()
	}

	c := &Cog[S, V]{
		id:         core.NewID(),
		name:       opts.Name,
		transition: transition,
		cfg:        cfg,
		baseCtx:    opts.BaseContext,
		logger:     opts.Logger,
		hooks:      opts.Hooks,
		retries:    opts.Retries,
		done:       make(chan struct{}),
	}
	if c.name == "" {
		c.name = "cog-" + c.id[:8]
	}
	c.dx = core.NewDuplex(core.DuplexConfig[core.Result[V], core.Result[V]]{
		InputCapacity:   cfg.InputCapacity,
		OutputCapacity:  cfg.OutputCapacity,
		InputTransform:  core.LiftResult(cfg.InputTransform),
		OutputTransform: core.LiftResult(cfg.OutputTransform),
	})
	c.state.Store(&initial)

	go c.work()
	return c
}

// ID returns the unit's unique identifier.
func (c *Cog[S, V]) ID() string { return c.id }

// Name returns the unit's name.
func (c *Cog[S, V]) Name() string { return c.name }

// Put pushes one input value, blocking while the input queue is full. It
// returns queue.ErrClosed once the unit is closed.
func (c *Cog[S, V]) Put(ctx context.Context, v V) error {
	return c.dx.Put(ctx, core.Ok(v))
}

// PutResult pushes a possibly-failed value. Relays use this face: failed
// values ride through the unit untouched instead of being fed to the
// transition, so a fault raised early in a pipeline surfaces at its end.
func (c *Cog[S, V]) PutResult(ctx context.Context, r core.Result[V]) error {
	return c.dx.Put(ctx, r)
}

// Take pulls the next output in FIFO order, blocking while the output queue
// is empty. After Close it drains the remaining outputs and then reports
// queue.ErrEnd. Transition failures arrive as failed Results, not as the
// returned error.
func (c *Cog[S, V]) Take(ctx context.Context) (core.Result[V], error) {
	return c.dx.Take(ctx)
}

// Close stops input acceptance. The worker keeps processing already
// accepted inputs, then closes the output side so consumers drain and
// observe queue.ErrEnd. Close is idempotent and never blocks.
func (c *Cog[S, V]) Close() error {
	c.dx.CloseInput()
	return nil
}

// Snapshot returns the current state: always the result of a fully
// completed transition, never a value observed mid-transition.
func (c *Cog[S, V]) Snapshot() S {
	return *c.state.Load()
}

// Done is closed when the worker has terminated and the output side is
// closed.
func (c *Cog[S, V]) Done() <-chan struct{} { return c.done }

// InputLen reports the number of buffered inputs.
func (c *Cog[S, V]) InputLen() int { return c.dx.InputLen() }

// OutputLen reports the number of buffered outputs.
func (c *Cog[S, V]) OutputLen() int { return c.dx.OutputLen() }

// work is the unit's dedicated worker loop. It is the only goroutine that
// writes the state cell, which is what makes transitions serialized and
// commits atomic without caller-visible locking.
func (c *Cog[S, V]) work() {
	defer close(c.done)
	defer c.dx.CloseOutput()
	defer c.dx.CloseInput()

	c.logger.Debug("cog worker started", "cog", c.name, "id", c.id)
	var seq uint64
	for {
		r, err := c.dx.Recv(c.baseCtx)
		if err != nil {
			if errors.Is(err, queue.ErrEnd) {
				c.logger.Debug("cog input drained, worker shutting down", "cog", c.name)
			} else {
				c.logger.Warn("cog worker stopped before drain", "cog", c.name, "reason", err)
			}
			return
		}
		if r.Failed() {
			// Upstream failure riding the rails; forward unchanged.
			if err := c.dx.Send(c.baseCtx, r); err != nil {
				return
			}
			continue
		}
		seq++
		out := c.step(seq, r.Value())
		if err := c.dx.Send(c.baseCtx, out); err != nil {
			return
		}
	}
}

// step runs one transition attempt (plus configured retries), commits the
// state on success and converts a failure into a tagged result. The commit
// happens before the output is published, so a Take that observes the
// output always observes the matching Snapshot too.
func (c *Cog[S, V]) step(seq uint64, in V) core.Result[V] {
	start := time.Now()
	state := *c.state.Load()

	newState, out, err := c.runTransition(state, in)
	for attempt := 0; err != nil && attempt < c.retries; attempt++ {
		newState, out, err = c.runTransition(state, in)
	}
	dur := time.Since(start)

	if err != nil {
		terr := &TransitionError{Cog: c.name, Seq: seq, Err: err}
		c.hooks.EmitTransition(core.TransitionEvent{Unit: c.name, Seq: seq, Duration: dur, Err: terr})
		c.logger.Warn("transition failed", "cog", c.name, "seq", seq, "duration", dur, "error", err)
		return core.Fail[V](terr)
	}

	c.state.Store(&newState)
	c.hooks.EmitTransition(core.TransitionEvent{Unit: c.name, Seq: seq, Duration: dur})
	c.logger.Debug("transition committed", "cog", c.name, "seq", seq, "duration", dur)
	return core.Ok(out)
}

// runTransition invokes the transition with panic containment, so a
// panicking collaborator degrades into a tagged failure instead of killing
// the worker.
func (c *Cog[S, V]) runTransition(state S, in V) (newState S, out V, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("transition panic: %v", r)
		}
	}()
	return c.transition(c.baseCtx, state, in)
}
