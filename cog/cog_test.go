package cog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/cogmesh/core"
	"github.com/hupe1980/cogmesh/internal/testutil"
	"github.com/hupe1980/cogmesh/queue"
)

const settle = 50 * time.Millisecond

// drain collects outputs until the unit reports end of stream.
func drain[S, V any](t *testing.T, c *Cog[S, V]) []core.Result[V] {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var out []core.Result[V]
	for {
		r, err := c.Take(ctx)
		if err != nil {
			require.ErrorIs(t, err, queue.ErrEnd)
			return out
		}
		out = append(out, r)
	}
}

func TestCog_PutTake_RunsTransition(t *testing.T) {
	c := New(0, testutil.Sum(), Config[int]{InputCapacity: 2, OutputCapacity: 2})
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, 5))
	r, err := c.Take(ctx)
	require.NoError(t, err)
	require.False(t, r.Failed())
	assert.Equal(t, 5, r.Value())
	assert.Equal(t, 5, c.Snapshot(), "snapshot matches the committed state behind the output")

	require.NoError(t, c.Put(ctx, 3))
	r, err = c.Take(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, r.Value())
	assert.Equal(t, 8, c.Snapshot())
}

func TestCog_ConcurrentPuts_AreSerialized(t *testing.T) {
	const (
		producers = 10
		perProd   = 20
	)
	c := New(0, testutil.Sum(), Config[int]{InputCapacity: 4, OutputCapacity: 4})
	ctx := context.Background()

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProd; i++ {
				assert.NoError(t, c.Put(ctx, 1))
			}
		}()
	}
	go func() {
		wg.Wait()
		c.Close()
	}()

	results := drain(t, c)
	require.Len(t, results, producers*perProd)

	// Every transition added exactly one, so the outputs must be the exact
	// running totals 1..n: interleaved producers cannot corrupt the fold.
	for i, r := range results {
		require.False(t, r.Failed())
		assert.Equal(t, i+1, r.Value())
	}
	assert.Equal(t, producers*perProd, c.Snapshot())
}

func TestCog_TransitionFailure_LeavesStateUntouched(t *testing.T) {
	boom := errors.New("boom")
	tr := func(_ context.Context, state []string, in string) ([]string, string, error) {
		if in == "bad" {
			return state, "", boom
		}
		next := append(append([]string{}, state...), in)
		return next, in, nil
	}
	c := New([]string(nil), tr, Config[string]{InputCapacity: 2, OutputCapacity: 2})
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "a"))
	r, err := c.Take(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", r.Value())

	require.NoError(t, c.Put(ctx, "bad"))
	r, err = c.Take(ctx)
	require.NoError(t, err, "failures are tagged values, not take errors")
	require.True(t, r.Failed())

	var terr *TransitionError
	require.ErrorAs(t, r.Err(), &terr)
	assert.Equal(t, c.Name(), terr.Cog)
	assert.Equal(t, uint64(2), terr.Seq)
	assert.ErrorIs(t, r.Err(), boom)
	assert.Equal(t, []string{"a"}, c.Snapshot(), "failed transition committed nothing")

	// The worker keeps going.
	require.NoError(t, c.Put(ctx, "c"))
	r, err = c.Take(ctx)
	require.NoError(t, err)
	assert.Equal(t, "c", r.Value())
	assert.Equal(t, []string{"a", "c"}, c.Snapshot())
}

func TestCog_Snapshot_NeverObservesInFlightTransition(t *testing.T) {
	gate := testutil.NewGate()
	c := New(0, testutil.Gated(gate, testutil.Sum()), Config[int]{InputCapacity: 1, OutputCapacity: 1})
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, 7))
	gate.WaitEntered(t)
	assert.Equal(t, 0, c.Snapshot(), "mid-transition snapshot returns the prior commit")

	gate.Proceed()
	r, err := c.Take(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, r.Value())
	assert.Equal(t, 7, c.Snapshot())
}

func TestCog_CapacityOneInput_BlocksSecondQueuedPut(t *testing.T) {
	gate := testutil.NewGate()
	c := New(0, testutil.Gated(gate, testutil.Sum()), Config[int]{InputCapacity: 1, OutputCapacity: 4})
	ctx := context.Background()

	// First input is dequeued by the worker, which then parks inside the
	// transition; the second fills the single buffer slot.
	require.NoError(t, c.Put(ctx, 1))
	gate.WaitEntered(t)
	require.NoError(t, c.Put(ctx, 2))

	third := make(chan error, 1)
	go func() {
		third <- c.Put(ctx, 3)
	}()

	select {
	case err := <-third:
		t.Fatalf("third put returned %v while the buffer was full", err)
	case <-time.After(settle):
	}

	// Finishing the first transition lets the worker dequeue the second
	// input, freeing the slot for the third.
	gate.Proceed()
	select {
	case err := <-third:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("third put still blocked after the worker dequeued")
	}

	gate.Proceed()
	gate.Proceed()
	c.Close()

	results := drain(t, c)
	require.Len(t, results, 3)
	assert.Equal(t, 1, results[0].Value())
	assert.Equal(t, 3, results[1].Value())
	assert.Equal(t, 6, results[2].Value())
}

func TestCog_SlowConsumer_DoesNotBlockInputSide(t *testing.T) {
	c := New(0, testutil.Sum(), Config[int]{InputCapacity: 4, OutputCapacity: 1})
	ctx := context.Background()

	// Nobody takes: the worker fills the single output slot, then parks on
	// the next publish while the input side keeps accepting.
	require.NoError(t, c.Put(ctx, 1))
	require.Eventually(t, func() bool { return c.OutputLen() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, c.Put(ctx, 2))
	require.Eventually(t, func() bool { return c.InputLen() == 0 }, time.Second, time.Millisecond)

	for v := 3; v <= 6; v++ {
		require.NoError(t, c.Put(ctx, v))
	}

	seventh := make(chan error, 1)
	go func() {
		seventh <- c.Put(ctx, 7)
	}()
	select {
	case err := <-seventh:
		t.Fatalf("put returned %v beyond the input capacity", err)
	case <-time.After(settle):
	}

	c.Close()
	results := drain(t, c)

	select {
	case err := <-seventh:
		// Draining freed space before the close was observed, or the close
		// won; both are valid outcomes for a put racing a close.
		if err != nil {
			assert.ErrorIs(t, err, queue.ErrClosed)
		}
	case <-time.After(time.Second):
		t.Fatal("blocked put was never woken")
	}

	require.GreaterOrEqual(t, len(results), 6)
	for i := 1; i < len(results); i++ {
		assert.Greater(t, results[i].Value(), results[i-1].Value())
	}
}

func TestCog_Close_DrainsThenEnds(t *testing.T) {
	c := New(0, testutil.Sum(), Config[int]{InputCapacity: 4, OutputCapacity: 4})
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, 1))
	require.NoError(t, c.Put(ctx, 2))
	require.NoError(t, c.Close())

	assert.ErrorIs(t, c.Put(ctx, 3), queue.ErrClosed)

	r, err := c.Take(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Value())

	r, err = c.Take(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, r.Value())

	_, err = c.Take(ctx)
	assert.ErrorIs(t, err, queue.ErrEnd)

	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("worker did not terminate after close")
	}
}

func TestCog_Close_Idempotent(t *testing.T) {
	c := New(0, testutil.Sum(), Config[int]{InputCapacity: 1, OutputCapacity: 1})
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}

func TestCog_InputTransform_RewritesBeforeTransition(t *testing.T) {
	double := core.Transform[int](func(v int) (int, error) { return v * 2, nil })
	c := New(0, testutil.Sum(), Config[int]{InputCapacity: 2, OutputCapacity: 2, InputTransform: double})
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, 5))
	r, err := c.Take(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, r.Value())
	assert.Equal(t, 10, c.Snapshot())
}

func TestCog_OutputTransformFailure_BecomesTaggedResult(t *testing.T) {
	reject := errors.New("unlucky")
	unlucky := core.Transform[int](func(v int) (int, error) {
		if v == 13 {
			return 0, reject
		}
		return v, nil
	})
	c := New(0, testutil.Sum(), Config[int]{InputCapacity: 2, OutputCapacity: 2, OutputTransform: unlucky})
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, 13))
	r, err := c.Take(ctx)
	require.NoError(t, err, "transform faults surface as tagged values")
	require.True(t, r.Failed())
	assert.ErrorIs(t, r.Err(), reject)
}

func TestCog_TransitionPanic_IsContained(t *testing.T) {
	tr := func(_ context.Context, state int, in string) (int, string, error) {
		if in == "explode" {
			panic("kaboom")
		}
		return state + 1, in, nil
	}
	c := New(0, tr, Config[string]{InputCapacity: 2, OutputCapacity: 2})
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "explode"))
	r, err := c.Take(ctx)
	require.NoError(t, err)
	require.True(t, r.Failed())
	assert.Contains(t, r.Err().Error(), "transition panic")
	assert.Equal(t, 0, c.Snapshot())

	require.NoError(t, c.Put(ctx, "fine"))
	r, err = c.Take(ctx)
	require.NoError(t, err)
	assert.Equal(t, "fine", r.Value())
	assert.Equal(t, 1, c.Snapshot())
}

func TestCog_WithRetries_RerunsFailedTransition(t *testing.T) {
	var attempts atomic.Int32
	flaky := func(_ context.Context, state, in int) (int, int, error) {
		if attempts.Add(1) < 3 {
			return state, 0, fmt.Errorf("attempt %d failed", attempts.Load())
		}
		return state + in, in, nil
	}
	c := New(0, flaky, Config[int]{InputCapacity: 1, OutputCapacity: 1}, WithRetries(2))
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, 4))
	r, err := c.Take(ctx)
	require.NoError(t, err)
	require.False(t, r.Failed(), "third attempt succeeds within two retries")
	assert.Equal(t, 4, r.Value())
	assert.EqualValues(t, 3, attempts.Load())
}

func TestCog_WithRetries_ExhaustedTagsFailure(t *testing.T) {
	var attempts atomic.Int32
	boom := errors.New("still down")
	broken := func(_ context.Context, state, in int) (int, int, error) {
		attempts.Add(1)
		return state, 0, boom
	}
	c := New(0, broken, Config[int]{InputCapacity: 1, OutputCapacity: 1}, WithRetries(1))
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, 1))
	r, err := c.Take(ctx)
	require.NoError(t, err)
	require.True(t, r.Failed())
	assert.ErrorIs(t, r.Err(), boom)
	assert.EqualValues(t, 2, attempts.Load(), "one initial attempt plus one retry")
}

func TestCog_PutResult_FailureBypassesTransition(t *testing.T) {
	var invoked atomic.Int32
	tr := func(_ context.Context, state, in int) (int, int, error) {
		invoked.Add(1)
		return state + in, in, nil
	}
	c := New(0, tr, Config[int]{InputCapacity: 2, OutputCapacity: 2})
	defer c.Close()
	ctx := context.Background()

	upstream := errors.New("upstream stage failed")
	require.NoError(t, c.PutResult(ctx, core.Fail[int](upstream)))

	r, err := c.Take(ctx)
	require.NoError(t, err)
	require.True(t, r.Failed())
	assert.ErrorIs(t, r.Err(), upstream)
	assert.EqualValues(t, 0, invoked.Load(), "failed values ride through untouched")

	require.NoError(t, c.Put(ctx, 2))
	r, err = c.Take(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Value())
	assert.EqualValues(t, 1, invoked.Load())
}

func TestCog_BaseContextCancel_StopsWorkerHard(t *testing.T) {
	ctx := context.Background()
	workerCtx, cancel := context.WithCancel(ctx)

	c := New(0, testutil.Sum(), Config[int]{InputCapacity: 2, OutputCapacity: 2}, WithBaseContext(workerCtx))
	require.NoError(t, c.Put(ctx, 1))
	r, err := c.Take(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Value())

	cancel()
	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on base context cancellation")
	}

	assert.ErrorIs(t, c.Put(ctx, 2), queue.ErrClosed)
	_, err = c.Take(ctx)
	assert.ErrorIs(t, err, queue.ErrEnd)
}

func TestCog_Hooks_ObserveEveryTransition(t *testing.T) {
	var mu sync.Mutex
	var events []core.TransitionEvent
	hooks := core.Hooks{OnTransition: func(ev core.TransitionEvent) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, ev)
	}}

	boom := errors.New("boom")
	c := New(struct{}{}, testutil.FailWhen[struct{}](boom, func(in string) bool { return in == "bad" }),
		Config[string]{InputCapacity: 2, OutputCapacity: 2},
		WithName("observed"), WithHooks(hooks))
	defer c.Close()
	ctx := context.Background()

	for _, in := range []string{"ok", "bad", "fine"} {
		require.NoError(t, c.Put(ctx, in))
		_, err := c.Take(ctx)
		require.NoError(t, err)
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 3)
	assert.Equal(t, "observed", events[0].Unit)
	assert.Equal(t, uint64(1), events[0].Seq)
	assert.NoError(t, events[0].Err)
	assert.Equal(t, uint64(2), events[1].Seq)
	assert.Error(t, events[1].Err)
	assert.Equal(t, uint64(3), events[2].Seq)
	assert.NoError(t, events[2].Err)
}

func TestCog_NameAndID(t *testing.T) {
	named := New(0, testutil.Sum(), Config[int]{InputCapacity: 1, OutputCapacity: 1}, WithName("critic"))
	defer named.Close()
	assert.Equal(t, "critic", named.Name())
	assert.Len(t, named.ID(), 36)

	anon := New(0, testutil.Sum(), Config[int]{InputCapacity: 1, OutputCapacity: 1})
	defer anon.Close()
	assert.Contains(t, anon.Name(), "cog-")
	assert.NotEqual(t, named.ID(), anon.ID())
}

func TestNew_NilTransitionPanics(t *testing.T) {
	assert.Panics(t, func() {
		New(0, Transition[int, int](nil), Config[int]{InputCapacity: 1, OutputCapacity: 1})
	})
}
