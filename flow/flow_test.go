package flow

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/cogmesh/cog"
	"github.com/hupe1980/cogmesh/core"
	"github.com/hupe1980/cogmesh/internal/testutil"
	"github.com/hupe1980/cogmesh/queue"
)

const settle = 50 * time.Millisecond

// intCog builds a stateless unit applying f to every input.
func intCog(f func(int) int, capIn, capOut int) *cog.Cog[struct{}, int] {
	tr := func(_ context.Context, s struct{}, in int) (struct{}, int, error) {
		return s, f(in), nil
	}
	return cog.New(struct{}{}, tr, cog.Config[int]{InputCapacity: capIn, OutputCapacity: capOut})
}

// drainFlow collects results until the pipeline reports end of stream.
func drainFlow[V any](t *testing.T, f *Flow[V]) []core.Result[V] {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var out []core.Result[V]
	for {
		r, err := f.Take(ctx)
		if err != nil {
			require.ErrorIs(t, err, queue.ErrEnd)
			return out
		}
		out = append(out, r)
	}
}

func TestFlow_ComposesStagesInOrder(t *testing.T) {
	double := intCog(func(v int) int { return v * 2 }, 2, 2)
	inc := intCog(func(v int) int { return v + 1 }, 2, 2)

	f := New([]core.Stage[int]{double, inc}, WithName("arith"))
	ctx := context.Background()

	for _, v := range []int{3, 5, 7} {
		require.NoError(t, f.Put(ctx, v))
	}
	require.NoError(t, f.Close())

	results := drainFlow(t, f)
	require.Len(t, results, 3)
	assert.Equal(t, 7, results[0].Value())
	assert.Equal(t, 11, results[1].Value())
	assert.Equal(t, 15, results[2].Value())
	assert.Equal(t, "arith", f.Name())
	assert.Equal(t, 2, f.Stages())
}

func TestFlow_SingleStage_IsTransparent(t *testing.T) {
	f := New([]core.Stage[int]{intCog(func(v int) int { return -v }, 1, 1)})
	ctx := context.Background()

	require.NoError(t, f.Put(ctx, 9))
	r, err := f.Take(ctx)
	require.NoError(t, err)
	assert.Equal(t, -9, r.Value())
	require.NoError(t, f.Close())

	_, err = f.Take(ctx)
	assert.ErrorIs(t, err, queue.ErrEnd)
}

func TestFlow_FailureBypassesDownstreamStages(t *testing.T) {
	boom := errors.New("boom")
	first := cog.New(struct{}{},
		testutil.FailWhen[struct{}](boom, func(in string) bool { return in == "bad" }),
		cog.Config[string]{InputCapacity: 2, OutputCapacity: 2},
		cog.WithName("filter"))

	var downstream atomic.Int32
	second := cog.New(struct{}{},
		func(_ context.Context, s struct{}, in string) (struct{}, string, error) {
			downstream.Add(1)
			return s, in + "!", nil
		},
		cog.Config[string]{InputCapacity: 2, OutputCapacity: 2})

	f := New([]core.Stage[string]{first, second})
	ctx := context.Background()

	require.NoError(t, f.Put(ctx, "ok"))
	require.NoError(t, f.Put(ctx, "bad"))
	require.NoError(t, f.Put(ctx, "fine"))
	require.NoError(t, f.Close())

	results := drainFlow(t, f)
	require.Len(t, results, 3)

	assert.Equal(t, "ok!", results[0].Value())

	require.True(t, results[1].Failed())
	var terr *cog.TransitionError
	require.ErrorAs(t, results[1].Err(), &terr)
	assert.Equal(t, "filter", terr.Cog)
	assert.ErrorIs(t, results[1].Err(), boom)

	assert.Equal(t, "fine!", results[2].Value())
	assert.EqualValues(t, 2, downstream.Load(), "the failed value never reached the second stage")
}

func TestFlow_Close_DrainsEveryStage(t *testing.T) {
	f := New([]core.Stage[int]{
		intCog(func(v int) int { return v + 1 }, 4, 4),
		intCog(func(v int) int { return v * 10 }, 4, 4),
	})
	ctx := context.Background()

	for v := 1; v <= 4; v++ {
		require.NoError(t, f.Put(ctx, v))
	}
	require.NoError(t, f.Close())

	assert.ErrorIs(t, f.Put(ctx, 5), queue.ErrClosed)

	results := drainFlow(t, f)
	require.Len(t, results, 4)
	for i, r := range results {
		assert.Equal(t, (i+2)*10, r.Value())
	}
}

func TestFlow_Nesting_FlowsComposeAsStages(t *testing.T) {
	inner := New([]core.Stage[int]{
		intCog(func(v int) int { return v + 1 }, 1, 1),
		intCog(func(v int) int { return v + 1 }, 1, 1),
	}, WithName("inner"))

	outer := New([]core.Stage[int]{
		intCog(func(v int) int { return v * 2 }, 1, 1),
		inner,
	}, WithName("outer"))
	ctx := context.Background()

	require.NoError(t, outer.Put(ctx, 5))
	r, err := outer.Take(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12, r.Value())

	require.NoError(t, outer.Close())
	results := drainFlow(t, outer)
	assert.Empty(t, results)
}

func TestFlow_BackpressureReachesTheProducer(t *testing.T) {
	gate := testutil.NewGate()
	first := intCog(func(v int) int { return v * 2 }, 1, 1)
	second := cog.New(struct{}{},
		testutil.Gated(gate, testutil.Echo[struct{}, int](0)),
		cog.Config[int]{InputCapacity: 1, OutputCapacity: 1})

	f := New([]core.Stage[int]{first, second})
	ctx := context.Background()

	// Capacity audit while the second worker is parked: one value in its
	// hands, one in each queue, one in each relay or worker hand. Six
	// values saturate the pipeline; the seventh put must block.
	for v := 1; v <= 6; v++ {
		require.NoError(t, f.Put(ctx, v))
	}
	gate.WaitEntered(t)

	seventh := make(chan error, 1)
	go func() {
		seventh <- f.Put(ctx, 7)
	}()
	select {
	case err := <-seventh:
		t.Fatalf("put returned %v through a saturated pipeline", err)
	case <-time.After(settle):
	}

	gate.Proceed()
	select {
	case err := <-seventh:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("put still blocked after a slot opened")
	}

	go func() {
		for i := 0; i < 6; i++ {
			gate.Proceed()
		}
	}()
	require.NoError(t, f.Close())

	results := drainFlow(t, f)
	require.Len(t, results, 7)
	for i, r := range results {
		assert.Equal(t, (i+1)*2, r.Value())
	}
}

func TestFlow_DownstreamClose_SealsTheIntake(t *testing.T) {
	first := intCog(func(v int) int { return v }, 1, 1)
	second := intCog(func(v int) int { return v }, 1, 1)
	f := New([]core.Stage[int]{first, second})
	ctx := context.Background()

	// Closing an interior stage directly starves the relay, which then
	// seals the upstream intake.
	require.NoError(t, second.Close())

	require.Eventually(t, func() bool {
		return errors.Is(f.Put(ctx, 1), queue.ErrClosed)
	}, time.Second, 5*time.Millisecond)

	_, err := f.Take(ctx)
	assert.ErrorIs(t, err, queue.ErrEnd)
}
