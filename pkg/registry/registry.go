// Package registry provides an in-memory function registry.
//
// A Registry is an explicit instance injected at graph-build time, never a
// process-wide singleton: tests and hosts can run multiple independent
// registries side by side.
package registry

import (
	"fmt"
	"sync"

	"github.com/weftworks/weft/pkg/domain"
	"github.com/weftworks/weft/pkg/ports"
)

type entry struct {
	fn          domain.Func
	description string
}

// Registry manages the available node functions. Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]entry
}

// New creates a new empty registry.
func New() *Registry {
	return &Registry{
		funcs: make(map[string]entry),
	}
}

// Register adds a function under a unique name.
// Registering an existing name is an error, never a silent overwrite.
func (r *Registry) Register(name string, fn domain.Func, description string) error {
	if name == "" {
		return fmt.Errorf("function name must not be empty")
	}
	if fn == nil {
		return fmt.Errorf("function %q must not be nil", name)
	}
	if description == "" {
		description = "Function: " + name
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.funcs[name]; exists {
		return fmt.Errorf("function %q is already registered", name)
	}
	r.funcs[name] = entry{fn: fn, description: description}
	return nil
}

// MustRegister is Register but panics on error. Intended for host bootstrap
// code where a registration conflict is a programming mistake.
func (r *Registry) MustRegister(name string, fn domain.Func, description string) {
	if err := r.Register(name, fn, description); err != nil {
		panic(err)
	}
}

// Resolve returns the function registered under name.
func (r *Registry) Resolve(name string) (domain.Func, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.funcs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ports.ErrFuncNotFound, name)
	}
	return e.fn, nil
}

// List returns all registered names mapped to their descriptions.
func (r *Registry) List() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string, len(r.funcs))
	for name, e := range r.funcs {
		out[name] = e.description
	}
	return out
}

var _ ports.FuncRegistry = (*Registry)(nil)
