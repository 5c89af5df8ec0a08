// Package functions ships a small library of general-purpose node
// functions, so workflows defined in YAML have something to call without a
// custom host. Hosts embedding the engine register their own functions
// alongside or instead of these.
package functions

import (
	"context"
	"fmt"
	"time"

	"github.com/weftworks/weft/pkg/registry"
)

// Register adds the built-in functions to the registry.
func Register(reg *registry.Registry) error {
	builtins := []struct {
		name string
		fn   func(ctx context.Context, state map[string]any) (map[string]any, error)
		desc string
	}{
		{"echo", Echo, "Returns the state unchanged"},
		{"increment", Increment, "Adds one to the numeric 'count' key"},
		{"stamp_time", StampTime, "Sets 'timestamp' to the current UTC time (RFC 3339)"},
		{"fail", Fail, "Always fails; the optional 'fail_message' key becomes the error"},
	}
	for _, b := range builtins {
		if err := reg.Register(b.name, b.fn, b.desc); err != nil {
			return err
		}
	}
	return nil
}

// Echo returns the state unchanged.
func Echo(ctx context.Context, state map[string]any) (map[string]any, error) {
	return state, nil
}

// Increment adds one to the numeric "count" key, treating a missing or
// non-numeric value as zero.
func Increment(ctx context.Context, state map[string]any) (map[string]any, error) {
	count, _ := state["count"].(float64)
	state["count"] = count + 1
	return state, nil
}

// StampTime records the current UTC time under "timestamp".
func StampTime(ctx context.Context, state map[string]any) (map[string]any, error) {
	state["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	return state, nil
}

// Fail always returns an error, for exercising failure paths in demos and
// tests. The "fail_message" key, when present, becomes the error text.
func Fail(ctx context.Context, state map[string]any) (map[string]any, error) {
	msg, _ := state["fail_message"].(string)
	if msg == "" {
		msg = "node failed"
	}
	return nil, fmt.Errorf("%s", msg)
}
