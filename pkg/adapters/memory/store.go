// Package memory provides in-memory adapters, primarily for tests and
// single-process deployments without external infrastructure.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/weftworks/weft/pkg/ports"
)

// Store implements ports.RunStore in memory.
// Safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	runs map[string][]byte
}

// NewStore creates a new in-memory run store.
func NewStore() *Store {
	return &Store{
		runs: make(map[string][]byte),
	}
}

var _ ports.RunStore = (*Store)(nil)

// Save persists the record, overwriting any previous version. Records are
// stored serialized so callers cannot mutate stored data through shared
// references.
func (s *Store) Save(ctx context.Context, record *ports.RunRecord) error {
	if record.ID == "" {
		return fmt.Errorf("run record missing ID")
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal run %s: %w", record.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[record.ID] = data
	return nil
}

// Load retrieves a record by run ID.
func (s *Store) Load(ctx context.Context, runID string) (*ports.RunRecord, error) {
	s.mu.RLock()
	data, ok := s.runs[runID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("run %s: %w", runID, ports.ErrRunNotFound)
	}

	var record ports.RunRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run %s: %w", runID, err)
	}
	return &record, nil
}

// Delete removes a record by run ID. Deleting a missing run is not an error.
func (s *Store) Delete(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.runs, runID)
	return nil
}

// List returns the IDs of all stored runs in deterministic order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.runs))
	for id := range s.runs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
