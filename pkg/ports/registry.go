package ports

import (
	"errors"

	"github.com/weftworks/weft/pkg/domain"
)

// ErrFuncNotFound is returned when a function name cannot be resolved.
var ErrFuncNotFound = errors.New("function not found in registry")

// FuncRegistry resolves node function references at graph-build time.
// The engine never looks functions up by name during a run; it only invokes
// the callables it was handed when the graph was built.
type FuncRegistry interface {
	// Resolve returns the function registered under name.
	// It returns ErrFuncNotFound if the name is absent.
	Resolve(name string) (domain.Func, error)

	// List returns the registered function names mapped to their
	// descriptions, for introspection surfaces.
	List() map[string]string
}
