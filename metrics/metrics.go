// Package metrics exposes Prometheus instrumentation for stateful units.
//
// A Recorder owns the unit-level collectors and adapts them to core.Hooks,
// so any cog can be observed by passing the recorder's hooks at
// construction time:
//
//	rec := metrics.NewRecorder()
//	c := cog.New(initial, transition, cfg, cog.WithHooks(rec.Hooks()))
//
// Serve the metrics with promhttp in the embedding application.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/cogmesh/core"
)

// Options configure the recorder.
type Options struct {
	// Namespace prefixes every metric name. Defaults to "cogmesh".
	Namespace string

	// Registerer receives the collectors. Defaults to the global registry.
	Registerer prometheus.Registerer
}

// WithNamespace overrides the metric name prefix.
func WithNamespace(ns string) func(o *Options) {
	return func(o *Options) {
		o.Namespace = ns
	}
}

// WithRegisterer registers the collectors somewhere other than the global
// registry.
func WithRegisterer(r prometheus.Registerer) func(o *Options) {
	return func(o *Options) {
		o.Registerer = r
	}
}

// Recorder tracks transition counts and latencies per unit.
type Recorder struct {
	transitions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewRecorder builds and registers the collectors. Registering the same
// namespace twice on one registry panics, as with any Prometheus collector.
func NewRecorder(optFns ...func(o *Options)) *Recorder {
	opts := Options{
		Namespace:  "cogmesh",
		Registerer: prometheus.DefaultRegisterer,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Registerer == nil {
		opts.Registerer = prometheus.DefaultRegisterer
	}

	r := &Recorder{
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: opts.Namespace,
				Name:      "transitions_total",
				Help:      "Total number of transitions by unit and status.",
			},
			[]string{"unit", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: opts.Namespace,
				Name:      "transition_duration_seconds",
				Help:      "Duration of transitions by unit.",
			},
			[]string{"unit"},
		),
	}

	opts.Registerer.MustRegister(r.transitions, r.duration)

	return r
}

// Hooks adapts the recorder to the hook points of a unit. Each processed
// input is counted once with its final status.
func (r *Recorder) Hooks() core.Hooks {
	return core.Hooks{
		OnTransition: func(ev core.TransitionEvent) {
			status := "success"
			if ev.Err != nil {
				status = "failure"
			}
			r.transitions.WithLabelValues(ev.Unit, status).Inc()
			r.duration.WithLabelValues(ev.Unit).Observe(ev.Duration.Seconds())
		},
	}
}
