package domain

import (
	"reflect"
	"testing"
)

func TestState_GetSetUpdate(t *testing.T) {
	s := NewState()
	s.Set("a", 1.0)
	s.Update(map[string]any{"b": "two", "c": true})

	if got := s.Get("a", nil); got != 1.0 {
		t.Errorf("Get(a) = %v, want 1.0", got)
	}
	if got := s.Get("missing", "fallback"); got != "fallback" {
		t.Errorf("Get(missing) = %v, want fallback", got)
	}
	if _, ok := s.Lookup("c"); !ok {
		t.Error("Lookup(c) = false, want true")
	}
	s.Delete("b")
	if _, ok := s.Lookup("b"); ok {
		t.Error("Delete(b) did not remove the key")
	}
}

func TestState_RecordRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		record map[string]any
	}{
		{"Empty", map[string]any{}},
		{"Scalars", map[string]any{"n": nil, "b": false, "f": 3.5, "s": "txt"}},
		{"NestedContainers", map[string]any{
			"seq":    []any{1.0, "two", nil, []any{true}},
			"nested": map[string]any{"inner": map[string]any{"deep": []any{}}},
		}},
		{"EmptyContainers", map[string]any{"seq": []any{}, "obj": map[string]any{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := FromRecord(tt.record)
			got := s.ToRecord()
			if !reflect.DeepEqual(got, tt.record) {
				t.Errorf("round trip mismatch:\n got %#v\nwant %#v", got, tt.record)
			}
		})
	}
}

func TestState_SnapshotIsolation(t *testing.T) {
	s := FromRecord(map[string]any{
		"list": []any{1.0, 2.0},
		"obj":  map[string]any{"k": "v"},
	})

	snap := s.Snapshot()

	// Mutating the live state must never change an earlier snapshot.
	s.Get("list", nil).([]any)[0] = 99.0
	s.Get("obj", nil).(map[string]any)["k"] = "mutated"
	s.Set("new", true)

	if snap["list"].([]any)[0] != 1.0 {
		t.Error("snapshot sequence aliased the live state")
	}
	if snap["obj"].(map[string]any)["k"] != "v" {
		t.Error("snapshot mapping aliased the live state")
	}
	if _, ok := snap["new"]; ok {
		t.Error("snapshot saw a key set after it was taken")
	}
}

func TestState_FromRecordCopiesInput(t *testing.T) {
	record := map[string]any{"obj": map[string]any{"k": "v"}}
	s := FromRecord(record)

	record["obj"].(map[string]any)["k"] = "changed"

	if s.Get("obj", nil).(map[string]any)["k"] != "v" {
		t.Error("FromRecord aliased the caller's map")
	}
}

func TestState_Equal(t *testing.T) {
	a := FromRecord(map[string]any{"x": 1.0, "y": []any{"a"}})
	b := FromRecord(map[string]any{"y": []any{"a"}, "x": 1.0})
	c := FromRecord(map[string]any{"x": 2.0})

	if !a.Equal(b) {
		t.Error("states with equal records should be equal regardless of key order")
	}
	if a.Equal(c) {
		t.Error("states with different records should not be equal")
	}
}
