package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// Codec translates a state type to and from its stored representation.
// States are opaque to the persistence layer; the codec is where their
// concrete shape matters.
type Codec[S any] interface {
	Marshal(state S) ([]byte, error)
	Unmarshal(data []byte) (S, error)
}

// JSONCodec stores states as JSON documents.
type JSONCodec[S any] struct{}

// JSON returns a JSON codec for S.
func JSON[S any]() JSONCodec[S] { return JSONCodec[S]{} }

// Marshal implements Codec.
func (JSONCodec[S]) Marshal(state S) ([]byte, error) { return json.Marshal(state) }

// Unmarshal implements Codec.
func (JSONCodec[S]) Unmarshal(data []byte) (S, error) {
	var state S
	if err := json.Unmarshal(data, &state); err != nil {
		return state, err
	}
	return state, nil
}

// SaveState marshals a snapshot and persists it in one step.
func SaveState[S any](ctx context.Context, st Store, codec Codec[S], id string, state S) error {
	data, err := codec.Marshal(state)
	if err != nil {
		return fmt.Errorf("store: marshal snapshot %q: %w", id, err)
	}
	return st.Save(ctx, id, data)
}

// LoadState retrieves a snapshot and unmarshals it in one step.
func LoadState[S any](ctx context.Context, st Store, codec Codec[S], id string) (S, error) {
	var zero S

	data, err := st.Load(ctx, id)
	if err != nil {
		return zero, err
	}

	state, err := codec.Unmarshal(data)
	if err != nil {
		return zero, fmt.Errorf("store: unmarshal snapshot %q: %w", id, err)
	}
	return state, nil
}
