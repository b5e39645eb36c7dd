// Package store persists unit snapshots outside the running process.
//
// Persistence is a collaborator concern, not unit behavior: callers decide
// when to snapshot a unit and where the bytes go. The package provides:
//
//   - Store: the byte-level persistence port (Save, Load, Delete, List)
//   - Codec: state (de)serialization, with a JSON implementation
//   - SaveState / LoadState: one-step helpers combining codec and store
//   - RunContract: a reusable conformance suite for Store implementations
//
// Backends live in subpackages: memory (volatile, for tests and demos) and
// redis (durable, shared between processes).
package store
