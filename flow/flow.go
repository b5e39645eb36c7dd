package flow

import (
	"context"
	"sync"

	"github.com/hupe1980/cogmesh/core"
	"github.com/hupe1980/cogmesh/logging"
)

// Compile-time check that flows compose like any other stage.
var _ core.Stage[string] = (*Flow[string])(nil)

// Flow chains stages into a pipeline where each unit's output stream feeds
// the next unit's input stream.
//
// A relay goroutine runs between every adjacent pair, moving results from
// the upstream stage's output to the downstream stage's input. Because the
// relays use the stages' outer faces, each stage's own transforms apply
// before a value crosses the seam.
//
// The composite behaves as a single stage:
//   - Put feeds the first stage
//   - Take drains the last stage
//   - Close closes the first stage; end-of-stream then cascades through
//     the workers and relays so every buffered value is still delivered
//
// Backpressure propagates transitively: when a downstream queue fills, the
// relay feeding it blocks, the upstream output fills, and eventually the
// composite Put blocks.
//
// Failed results ride through the chain untouched, so a failure in stage i
// surfaces at the composite output without invoking stages i+1..n.
type Flow[V any] struct {
	id      string
	name    string
	stages  []core.Stage[V]
	logger  logging.Logger
	baseCtx context.Context

	relays sync.WaitGroup
}

// New wires the given stages into a pipeline and starts its relays.
// At least one stage is required; a single-stage flow is a transparent
// wrapper around that stage.
func New[V any](stages []core.Stage[V], optFns ...func(o *Options)) *Flow[V] {
	if len(stages) == 0 {
		panic("flow: at least one stage required")
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

	f := &Flow[V]{
		id:      core.NewID(),
		name:    opts.Name,
		stages:  append([]core.Stage[V](nil), stages...),
		logger:  opts.Logger,
		baseCtx: opts.BaseContext,
	}
	if f.name == "" {
		f.name = "flow-" + f.id[:8]
	}

	for i := 0; i < len(f.stages)-1; i++ {
		f.relays.Add(1)
		go f.relay(i, f.stages[i], f.stages[i+1])
	}

	return f
}

// ID returns the unique identifier of the flow.
func (f *Flow[V]) ID() string { return f.id }

// Name returns the human-readable name of the flow.
func (f *Flow[V]) Name() string { return f.name }

// Stages returns the number of stages in the pipeline.
func (f *Flow[V]) Stages() int { return len(f.stages) }

// Put submits a value to the first stage, blocking while its input queue
// is full.
func (f *Flow[V]) Put(ctx context.Context, v V) error {
	return f.stages[0].Put(ctx, v)
}

// PutResult submits an already-tagged result to the first stage. Failed
// results traverse the whole chain without invoking any transition.
func (f *Flow[V]) PutResult(ctx context.Context, r core.Result[V]) error {
	return f.stages[0].PutResult(ctx, r)
}

// Take removes the next result from the last stage, blocking while the
// pipeline is still working.
func (f *Flow[V]) Take(ctx context.Context) (core.Result[V], error) {
	return f.stages[len(f.stages)-1].Take(ctx)
}

// Close closes the first stage. The end-of-stream marker then travels the
// chain: each worker drains its remaining input, each relay forwards the
// remaining output and closes its downstream neighbor. Close is idempotent.
func (f *Flow[V]) Close() error {
	return f.stages[0].Close()
}

// relay pumps results from stage i's output into stage i+1's input until
// one of the two sides terminates.
func (f *Flow[V]) relay(i int, from, to core.Stage[V]) {
	defer f.relays.Done()

	for {
		r, err := from.Take(f.baseCtx)
		if err != nil {
			// Upstream end of stream, or the flow context was cancelled.
			// Either way the downstream stage must learn that nothing else
			// is coming.
			if cerr := to.Close(); cerr != nil {
				f.logger.Warn("flow relay close failed", "flow", f.name, "stage", i+1, "error", cerr)
			}
			f.logger.Debug("flow relay finished", "flow", f.name, "seam", i)
			return
		}

		if err := to.PutResult(f.baseCtx, r); err != nil {
			// The downstream stage stopped accepting while a value was in
			// hand. Close the upstream so producers stop feeding a dead
			// pipeline; the value is dropped.
			f.logger.Warn("flow relay dropped value", "flow", f.name, "seam", i, "error", err)
			from.Close()
			return
		}
	}
}
