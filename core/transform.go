package core

// Transform rewrites a value as it passes a queue boundary. Input-side
// transforms run before enqueue, output-side transforms before delivery to
// the taker. Transforms are ordinary function values; compose them with
// Chain.
type Transform[V any] func(V) (V, error)

// Chain composes transforms left to right. The first error stops the chain.
// Chain() returns nil so "no transforms" and "nil transform" behave alike.
func Chain[V any](transforms ...Transform[V]) Transform[V] {
	if len(transforms) == 0 {
		return nil
	}
	return func(v V) (V, error) {
		var err error
		for _, t := range transforms {
			if t == nil {
				continue
			}
			v, err = t(v)
			if err != nil {
				return v, err
			}
		}
		return v, nil
	}
}

// LiftResult lifts a payload transform onto failure-tagged values: failed
// results pass through untouched, successful ones are rewritten, and a
// transform error converts the result into a failure. This is how a
// side-transform fault becomes a tagged value on the output side instead of
// a synchronous error.
func LiftResult[V any](t Transform[V]) Transform[Result[V]] {
	if t == nil {
		return nil
	}
	return func(r Result[V]) (Result[V], error) {
		if r.Failed() {
			return r, nil
		}
		v, err := t(r.Value())
		if err != nil {
			return Fail[V](err), nil
		}
		return Ok(v), nil
	}
}
