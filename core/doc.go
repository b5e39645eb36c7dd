// Package core provides the foundational contracts shared by every cogmesh
// component. It defines the core abstractions for:
//
//   - Channel / Stage (the bidirectional put/take/close contract units satisfy)
//   - Duplex (paired independent input/output queues behind one surface)
//   - Result (failure-tagged values flowing on output sides)
//   - Transform (per-queue-side value rewriting, composable as plain functions)
//   - Hooks (observation points for metrics and logging at the edges)
//
// The package intentionally keeps implementation concerns (worker loops,
// composition, model adapters, persistence) out of scope, exposing small
// generic contracts so units, pipelines and fanouts remain interchangeable
// wherever a Channel is expected.
package core
