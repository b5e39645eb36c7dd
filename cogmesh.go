// Package cogmesh makes stateful computations usable as bidirectional
// channels. A unit ("cog") owns an opaque state and a transition function;
// callers feed inputs into one side and collect outputs from the other
// while the state evolves privately inside the unit. Most applications
// interact with this module by:
//  1. Wrapping a transition and its initial state in a unit (cog.New)
//  2. Composing units into pipelines (flow.New) or broadcast panels
//     (flow.NewFanout), both of which compose like units themselves
//  3. Feeding values with Put, collecting results with Take, snapshotting
//     committed state at any time, and forking units to branch their
//     evolution
//
// The root package adds a small lifecycle facade: a Mesh keeps named units
// and closes them in reverse registration order, so producers shut down
// before the consumers they feed. All defaults are safe for local
// development and testing; production deployments typically supply a
// structured logger and durable snapshot stores.
package cogmesh

import (
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/cogmesh/logging"
)

// Unit is anything the mesh can own. Cogs, flows, and fan-outs all
// qualify through their Close method.
type Unit interface {
	Close() error
}

// Options configures the Mesh instance.
type Options struct {
	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// WithLogger sets the logger used for lifecycle events.
func WithLogger(logger logging.Logger) func(o *Options) {
	return func(o *Options) {
		o.Logger = logger
	}
}

// Mesh is a registry of named units with ordered teardown.
type Mesh struct {
	logger logging.Logger

	mu    sync.Mutex
	names []string
	units map[string]Unit
}

// New creates an empty mesh.
func New(optFns ...func(o *Options)) *Mesh {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Mesh{
		logger: opts.Logger,
		units:  make(map[string]Unit),
	}
}

// Register adds a unit under a unique name. Registration order determines
// teardown order: Close closes the most recently registered unit first.
func (m *Mesh) Register(name string, unit Unit) error {
	if unit == nil {
		return fmt.Errorf("cogmesh: unit %q is nil", name)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.units[name]; exists {
		return fmt.Errorf("cogmesh: unit %q already registered", name)
	}

	m.units[name] = unit
	m.names = append(m.names, name)
	m.logger.Debug("unit registered", "name", name)
	return nil
}

// Get returns the unit registered under name.
func (m *Mesh) Get(name string) (Unit, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	unit, ok := m.units[name]
	return unit, ok
}

// Names returns the registered names in registration order.
func (m *Mesh) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.names...)
}

// Close closes every unit in reverse registration order and reports all
// failures. The mesh is empty afterwards; Close is idempotent.
func (m *Mesh) Close() error {
	m.mu.Lock()
	names := m.names
	units := m.units
	m.names = nil
	m.units = make(map[string]Unit)
	m.mu.Unlock()

	var errs []error
	for i := len(names) - 1; i >= 0; i-- {
		name := names[i]
		if err := units[name].Close(); err != nil {
			m.logger.Warn("unit close failed", "name", name, "error", err)
			errs = append(errs, fmt.Errorf("unit %q: %w", name, err))
			continue
		}
		m.logger.Debug("unit closed", "name", name)
	}
	return errors.Join(errs...)
}
