package domain

import "encoding/json"

// State is the mutable record that flows through a workflow run.
// Keys map to JSON-shaped values (nil, bool, float64, string, []any,
// map[string]any). A node's output replaces the whole state; dropping a
// key deletes it. A State belongs to exactly one run and is never shared.
type State struct {
	data map[string]any
}

// NewState creates an empty state.
func NewState() *State {
	return &State{data: make(map[string]any)}
}

// FromRecord creates a state from a JSON-shaped record.
// The record is deep-copied, so the caller keeps ownership of its map.
func FromRecord(record map[string]any) *State {
	s := NewState()
	for k, v := range record {
		s.data[k] = deepCopyValue(v)
	}
	return s
}

// Get returns the value for key, or def if the key is absent.
func (s *State) Get(key string, def any) any {
	if v, ok := s.data[key]; ok {
		return v
	}
	return def
}

// Lookup returns the value for key and whether it was present.
func (s *State) Lookup(key string) (any, bool) {
	v, ok := s.data[key]
	return v, ok
}

// Set stores a value under key.
func (s *State) Set(key string, value any) {
	s.data[key] = value
}

// Update merges a partial record into the state.
func (s *State) Update(partial map[string]any) {
	for k, v := range partial {
		s.data[k] = v
	}
}

// Delete removes a key from the state.
func (s *State) Delete(key string) {
	delete(s.data, key)
}

// Len returns the number of keys.
func (s *State) Len() int {
	return len(s.data)
}

// Snapshot returns a deep, non-aliased copy of the state record.
// Trace entries are built from snapshots: mutating the live state after a
// snapshot was taken must never change the snapshot.
func (s *State) Snapshot() map[string]any {
	out := make(map[string]any, len(s.data))
	for k, v := range s.data {
		out[k] = deepCopyValue(v)
	}
	return out
}

// ToRecord returns the state as a JSON-shaped record (deep copy).
func (s *State) ToRecord() map[string]any {
	return s.Snapshot()
}

// Clone returns an independent copy of the state.
func (s *State) Clone() *State {
	return &State{data: s.Snapshot()}
}

// Equal reports whether two states hold the same record.
func (s *State) Equal(other *State) bool {
	if s == nil || other == nil {
		return s == other
	}
	a, err := json.Marshal(s.data)
	if err != nil {
		return false
	}
	b, err := json.Marshal(other.data)
	if err != nil {
		return false
	}
	return string(a) == string(b)
}

// deepCopyValue copies a JSON-shaped value. Scalars are immutable and
// returned as-is; sequences and mappings are copied recursively.
func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = deepCopyValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = deepCopyValue(item)
		}
		return out
	default:
		return val
	}
}
