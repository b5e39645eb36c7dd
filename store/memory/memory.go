// Package memory provides a volatile Store backed by a process-local map.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/hupe1980/cogmesh/store"
)

// Store keeps snapshots in memory. It is safe for concurrent access and
// best suited for tests or ephemeral demo setups. Snapshot bytes are copied
// on both save and load to prevent external mutation of internal state.
type Store struct {
	mu        sync.RWMutex
	snapshots map[string][]byte
}

// New constructs an empty in-memory store.
func New() *Store {
	return &Store{snapshots: make(map[string][]byte)}
}

// Save implements store.Store.
func (s *Store) Save(ctx context.Context, id string, snapshot []byte) error {
	data := make([]byte, len(snapshot))
	copy(data, snapshot)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[id] = data
	return nil
}

// Load implements store.Store.
func (s *Store) Load(ctx context.Context, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.snapshots[id]
	if !ok {
		return nil, store.ErrNotFound
	}

	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Delete implements store.Store.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, id)
	return nil
}

// List implements store.Store. Ids come back sorted for determinism.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.snapshots))
	for id := range s.snapshots {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
