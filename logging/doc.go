// Package logging provides a minimal logging interface and adapters for cogmesh.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that units, pipelines and the mesh facade use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - CogMeshLogger with contextual helpers and domain logging methods
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	c := cog.New(initial, transition, cfg, cog.WithLogger(logger))
//
// The design intentionally keeps the interface minimal to avoid vendor lock-in
// while supporting structured logging where available.
package logging
