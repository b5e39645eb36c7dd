// Package testutil contains helper builders used across tests to reduce
// boilerplate when constructing transition functions (accumulators, gated
// and slow transitions, deterministic failures) and coordinating worker
// timing. The helpers return plain function values assignable to the
// transition types of the consuming packages, keeping this package free of
// dependencies on them. Not intended for production usage.
package testutil
