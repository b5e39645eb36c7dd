package testutil

import (
	"context"
	"testing"
	"time"
)

// Sum returns a transition that adds each input to an int state and outputs
// the running total.
func Sum() func(context.Context, int, int) (int, int, error) {
	return func(_ context.Context, state, in int) (int, int, error) {
		state += in
		return state, state, nil
	}
}

// Record returns a transition that appends each input to a copied state log
// and echoes the input. The copy keeps snapshots of forked units isolated.
func Record() func(context.Context, []string, string) ([]string, string, error) {
	return func(_ context.Context, state []string, in string) ([]string, string, error) {
		next := make([]string, len(state), len(state)+1)
		copy(next, state)
		next = append(next, in)
		return next, in, nil
	}
}

// Echo returns a transition that sleeps for d, leaves the state untouched
// and echoes the input.
func Echo[S, V any](d time.Duration) func(context.Context, S, V) (S, V, error) {
	return func(_ context.Context, state S, in V) (S, V, error) {
		if d > 0 {
			time.Sleep(d)
		}
		return state, in, nil
	}
}

// FailWhen returns a transition that reports err whenever pred matches the
// input and otherwise echoes it.
func FailWhen[S, V any](err error, pred func(V) bool) func(context.Context, S, V) (S, V, error) {
	return func(_ context.Context, state S, in V) (S, V, error) {
		if pred(in) {
			var zero V
			return state, zero, err
		}
		return state, in, nil
	}
}

// Gate coordinates tests with a unit's worker: a gated transition signals
// Entered when it starts and then parks until the test sends on Release.
type Gate struct {
	Entered chan struct{}
	Release chan struct{}
}

// NewGate creates a gate with room to record many entries without blocking
// the worker.
func NewGate() *Gate {
	return &Gate{
		Entered: make(chan struct{}, 64),
		Release: make(chan struct{}),
	}
}

// WaitEntered blocks until the gated transition has started or the timeout
// elapses.
func (g *Gate) WaitEntered(t *testing.T) {
	t.Helper()
	select {
	case <-g.Entered:
	case <-time.After(time.Second):
		t.Fatal("transition was never entered")
	}
}

// Proceed releases exactly one parked transition call.
func (g *Gate) Proceed() {
	g.Release <- struct{}{}
}

// Gated wraps a transition so every call reports entry on the gate and
// waits for a release before running inner.
func Gated[S, V any](g *Gate, inner func(context.Context, S, V) (S, V, error)) func(context.Context, S, V) (S, V, error) {
	return func(ctx context.Context, state S, in V) (S, V, error) {
		g.Entered <- struct{}{}
		<-g.Release
		return inner(ctx, state, in)
	}
}
