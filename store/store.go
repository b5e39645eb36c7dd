package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no snapshot exists under the requested id.
var ErrNotFound = errors.New("store: snapshot not found")

// Store defines the interface for persisting serialized unit snapshots.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save persists the snapshot bytes under id, overwriting any previous
	// value.
	Save(ctx context.Context, id string, snapshot []byte) error

	// Load retrieves the snapshot saved under id.
	// Returns ErrNotFound if the id does not exist.
	Load(ctx context.Context, id string) ([]byte, error)

	// Delete removes the snapshot under id. Deleting an absent id is not
	// an error.
	Delete(ctx context.Context, id string) error

	// List returns the ids of all stored snapshots.
	List(ctx context.Context) ([]string, error)
}
