package cog

import (
	"context"

	"github.com/hupe1980/cogmesh/core"
	"github.com/hupe1980/cogmesh/logging"
)

// Options carry the optional knobs shared by New and Fork. Queue capacities
// and transforms are deliberately not here: they are part of Config, the
// explicit construction surface.
type Options struct {
	// Name identifies the unit in logs, hooks and errors. Defaults to a
	// short form of the generated ID.
	Name string

	// Logger receives worker lifecycle and transition logs. Defaults to
	// logging.NoOpLogger.
	Logger logging.Logger

	// Hooks observe completed transitions, for metrics and tracing.
	Hooks core.Hooks

	// Retries re-runs a failed transition up to this many extra times
	// before tagging the failure. State commits only on success, so retries
	// never publish intermediate values.
	Retries int

	// BaseContext is passed to every transition call and bounds the worker
	// itself: canceling it stops the unit hard, without draining. Close
	// remains the graceful path. Defaults to context.Background().
	BaseContext context.Context
}

// WithName sets the unit name used in logs, hooks and errors.
func WithName(name string) func(o *Options) {
	return func(o *Options) {
		o.Name = name
	}
}

// WithLogger sets the logger for worker lifecycle and transition logs.
func WithLogger(logger logging.Logger) func(o *Options) {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithHooks attaches observation hooks invoked from the worker.
func WithHooks(hooks core.Hooks) func(o *Options) {
	return func(o *Options) {
		o.Hooks = hooks
	}
}

// WithRetries enables re-running failed transitions up to n extra times.
func WithRetries(n int) func(o *Options) {
	return func(o *Options) {
		o.Retries = n
	}
}

// WithBaseContext sets the context delivered to transition calls.
func WithBaseContext(ctx context.Context) func(o *Options) {
	return func(o *Options) {
		o.BaseContext = ctx
	}
}
