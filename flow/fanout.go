package flow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/cogmesh/core"
	"github.com/hupe1980/cogmesh/logging"
	"github.com/hupe1980/cogmesh/queue"
)

// Compile-time check: a fan-out consumes single values and emits joined rows.
var _ core.Channel[int, Row[int]] = (*Fanout[int])(nil)

// Row is one joined fan-out emission. Slot i holds member i's result for
// the same broadcast input, in the member order passed to NewFanout.
type Row[V any] []core.Result[V]

// ticket records the broadcast outcome for one input so the collector
// knows which members owe an output for the corresponding row.
type ticket struct {
	errs []error
}

// Fanout broadcasts each input to several member stages concurrently and
// joins their outputs into positionally ordered rows.
//
// Every accepted input produces exactly one row. Within a row, slot i is
// member i's result: a regular result when the member processed the value,
// or a failure marker when the member could not be fed, failed the
// transition, or ended before producing. Rows appear in input order even
// though members process concurrently, so the wall-clock cost of a row
// approaches the slowest member rather than the sum.
//
// Fanout is ideal for:
//   - running independent analyses of the same input side by side
//   - comparing the evolution of differently seeded units
//   - gathering results that must stay attributable to their producer
//
// Concurrent puts are serialized internally so member feed order and row
// order always agree. Closing the fan-out stops new inputs, closes every
// member, and lets the collector finish all pending rows before the output
// reports end of stream. Cancelling BaseContext instead abandons
// collection without draining; members stay open and must still be closed
// by the caller.
type Fanout[V any] struct {
	id            string
	name          string
	members       []core.Stage[V]
	memberTimeout time.Duration
	logger        logging.Logger
	baseCtx       context.Context

	putMu   sync.Mutex
	tickets *queue.Bounded[ticket]
	out     *queue.Bounded[Row[V]]
	done    chan struct{}
}

// NewFanout wires the members into a broadcast-join composition and starts
// its collector. outCap bounds both the joined output queue and the number
// of in-flight rows; zero makes hand-offs rendezvous. At least one member
// is required.
func NewFanout[V any](outCap int, members []core.Stage[V], optFns ...func(o *Options)) *Fanout[V] {
	if len(members) == 0 {
		panic("flow: at least one fanout member required")
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

	f := &Fanout[V]{
		id:            core.NewID(),
		name:          opts.Name,
		members:       append([]core.Stage[V](nil), members...),
		memberTimeout: opts.MemberTimeout,
		logger:        opts.Logger,
		baseCtx:       opts.BaseContext,
		tickets:       queue.NewBounded[ticket](outCap),
		out:           queue.NewBounded[Row[V]](outCap),
		done:          make(chan struct{}),
	}
	if f.name == "" {
		f.name = "fanout-" + f.id[:8]
	}

	go f.collect()

	return f
}

// ID returns the unique identifier of the fan-out.
func (f *Fanout[V]) ID() string { return f.id }

// Name returns the human-readable name of the fan-out.
func (f *Fanout[V]) Name() string { return f.name }

// Members returns the number of member stages.
func (f *Fanout[V]) Members() int { return len(f.members) }

// Put broadcasts a value to every member. It blocks while member input
// queues are full, subject to the configured member timeout.
//
// When some members cannot be fed, Put still enqueues the row, marks the
// affected slots as failed, and returns a *BroadcastError describing the
// partial delivery. When no member accepts the value, no row forms and
// only the error is returned.
func (f *Fanout[V]) Put(ctx context.Context, v V) error {
	return f.PutResult(ctx, core.Ok(v))
}

// PutResult broadcasts an already-tagged result. Failed results pass
// through every member untouched, producing a row of bypassed failures.
func (f *Fanout[V]) PutResult(ctx context.Context, r core.Result[V]) error {
	f.putMu.Lock()
	defer f.putMu.Unlock()

	errs := make([]error, len(f.members))

	var wg sync.WaitGroup
	for i, m := range f.members {
		wg.Add(1)
		go func(i int, m core.Stage[V]) {
			defer wg.Done()

			putCtx := ctx
			if f.memberTimeout > 0 {
				var cancel context.CancelFunc
				putCtx, cancel = context.WithTimeout(ctx, f.memberTimeout)
				defer cancel()
			}

			if err := m.PutResult(putCtx, r); err != nil {
				if f.memberTimeout > 0 && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
					err = fmt.Errorf("member %d: enqueue timed out after %s: %w", i, f.memberTimeout, queue.ErrFull)
				} else {
					err = fmt.Errorf("member %d: %w", i, err)
				}
				errs[i] = err
			}
		}(i, m)
	}
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}

	if failed == len(f.members) {
		return &BroadcastError{Fanout: f.name, Errs: errs}
	}

	if err := f.tickets.Put(ctx, ticket{errs: errs}); err != nil {
		// Closed between broadcast and ticketing. The outputs the members
		// still produce for this value are discarded during teardown.
		return err
	}

	if failed > 0 {
		f.logger.Warn("fanout broadcast partially failed", "fanout", f.name, "failed", failed, "members", len(f.members))
		return &BroadcastError{Fanout: f.name, Errs: errs}
	}

	return nil
}

// Take removes the next joined row, blocking while rows are still being
// assembled. After Close it keeps returning buffered rows until the
// backlog is empty, then reports end of stream.
func (f *Fanout[V]) Take(ctx context.Context) (Row[V], error) {
	return f.out.Take(ctx)
}

// Close stops accepting inputs and closes every member. Pending rows are
// still assembled and delivered before the output ends. Close is
// idempotent.
func (f *Fanout[V]) Close() error {
	// Ticket intake closes first so a racing put cannot slip a row behind
	// the member closes.
	f.tickets.Close()
	for i, m := range f.members {
		if err := m.Close(); err != nil {
			f.logger.Warn("fanout member close failed", "fanout", f.name, "member", i, "error", err)
		}
	}
	return nil
}

// Done reports collector termination. The channel closes after the final
// row has been handed to the output queue.
func (f *Fanout[V]) Done() <-chan struct{} { return f.done }

// collect assembles rows in ticket order. For each ticket it takes exactly
// one output from every fed member; per-member FIFO then guarantees the
// outputs belong to the ticket's input.
func (f *Fanout[V]) collect() {
	defer close(f.done)
	defer f.out.Close()

	for {
		tk, err := f.tickets.Take(f.baseCtx)
		if err != nil {
			// Ticket stream ended. Unblock any member outputs left behind
			// by broadcasts that lost the race with Close, then finish.
			f.drainMembers()
			return
		}

		start := time.Now()
		row := make(Row[V], len(f.members))

		var wg sync.WaitGroup
		for i := range f.members {
			if tk.errs[i] != nil {
				row[i] = core.Fail[V](tk.errs[i])
				continue
			}
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				r, err := f.members[i].Take(f.baseCtx)
				if err != nil {
					row[i] = core.Fail[V](fmt.Errorf("member %d ended before producing: %w", i, err))
					return
				}
				row[i] = r
			}(i)
		}
		wg.Wait()

		failures := 0
		for _, r := range row {
			if r.Failed() {
				failures++
			}
		}
		f.logger.Debug("fanout row joined",
			"fanout", f.name, "members", len(f.members), "failures", failures, "duration", time.Since(start))

		if err := f.out.Put(f.baseCtx, row); err != nil {
			f.logger.Warn("fanout row dropped", "fanout", f.name, "error", err)
			return
		}
	}
}

// drainMembers consumes whatever the members still emit so their workers
// are not left parked on full output queues.
func (f *Fanout[V]) drainMembers() {
	for i, m := range f.members {
		for {
			if _, err := m.Take(f.baseCtx); err != nil {
				break
			}
			f.logger.Debug("fanout drained stray member output", "fanout", f.name, "member", i)
		}
	}
}
