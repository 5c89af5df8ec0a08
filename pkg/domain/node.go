package domain

import "context"

// NodeKind discriminates the closed set of node variants.
// The set is small and fixed per deployment; dispatch happens by switching
// on the kind rather than through an open interface hierarchy.
type NodeKind string

const (
	// KindFunc is a node backed by an externally resolved function.
	KindFunc NodeKind = "func"
)

// Func is the unit of work wrapped by a function-backed node.
// It receives the current state record and returns the record that fully
// replaces it. Side effects performed inside are opaque to the engine.
type Func func(ctx context.Context, state map[string]any) (map[string]any, error)

// Node is a named unit of work in a workflow graph.
// Names are unique within their owning graph.
type Node struct {
	Name        string
	Description string
	Kind        NodeKind

	// Fn holds the callable for KindFunc nodes. The engine never resolves
	// functions by name itself; the callable is supplied at build time.
	Fn Func
}

// NewFuncNode creates a function-backed node.
func NewFuncNode(name string, fn Func, description string) *Node {
	if description == "" {
		description = "Node: " + name
	}
	return &Node{
		Name:        name,
		Description: description,
		Kind:        KindFunc,
		Fn:          fn,
	}
}

// Execute runs the node's work against the given state and returns the
// replacement state. The input state is not mutated.
func (n *Node) Execute(ctx context.Context, state *State) (*State, error) {
	switch n.Kind {
	case KindFunc:
		record, err := n.Fn(ctx, state.ToRecord())
		if err != nil {
			return nil, err
		}
		return FromRecord(record), nil
	default:
		return nil, &UnknownNodeKindError{Name: n.Name, Kind: n.Kind}
	}
}
