package core

// Result is a failure-tagged value. Output sides of stateful units carry
// Results rather than raw values so a failed transition surfaces to the
// consumer as data instead of crashing the unit's worker: the caller takes
// the tagged failure once and normal processing resumes with the next input.
type Result[V any] struct {
	value  V
	err    error
	failed bool
}

// Ok wraps a successful value.
func Ok[V any](v V) Result[V] {
	return Result[V]{value: v}
}

// Fail wraps a failure. The zero payload is carried alongside the error.
func Fail[V any](err error) Result[V] {
	return Result[V]{err: err, failed: true}
}

// Failed reports whether the result carries a failure.
func (r Result[V]) Failed() bool { return r.failed }

// Value returns the payload, which is the zero value for failed results.
func (r Result[V]) Value() V { return r.value }

// Err returns the carried failure, nil for successful results.
func (r Result[V]) Err() error { return r.err }

// Unwrap returns the payload and error in the conventional Go pairing.
func (r Result[V]) Unwrap() (V, error) { return r.value, r.err }
