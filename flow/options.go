package flow

import (
	"context"
	"time"

	"github.com/hupe1980/cogmesh/logging"
)

// Options configures composition behavior shared by Flow and Fanout.
type Options struct {
	// Name identifies the composition in logs and errors. Defaults to a
	// generated name derived from the composition's ID.
	Name string

	// Logger receives relay and join diagnostics. Defaults to a no-op logger.
	Logger logging.Logger

	// BaseContext governs the internal relay and collector goroutines.
	// Cancelling it stops them without draining. Defaults to
	// context.Background.
	BaseContext context.Context

	// MemberTimeout bounds how long a fan-out broadcast waits for space in
	// each member's input queue. Zero means wait indefinitely. Expired waits
	// are reported per slot as queue.ErrFull. Ignored by Flow.
	MemberTimeout time.Duration
}

// WithName sets a human-readable name for the composition.
func WithName(name string) func(o *Options) {
	return func(o *Options) {
		o.Name = name
	}
}

// WithLogger sets the logger used for relay and join diagnostics.
func WithLogger(logger logging.Logger) func(o *Options) {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithBaseContext sets the context governing internal goroutines.
func WithBaseContext(ctx context.Context) func(o *Options) {
	return func(o *Options) {
		o.BaseContext = ctx
	}
}

// WithMemberTimeout bounds the per-member enqueue wait during a fan-out
// broadcast.
func WithMemberTimeout(d time.Duration) func(o *Options) {
	return func(o *Options) {
		o.MemberTimeout = d
	}
}
