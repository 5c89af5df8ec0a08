package dsl

import (
	"fmt"

	"github.com/weftworks/weft/pkg/domain"
	"github.com/weftworks/weft/pkg/expr"
	"github.com/weftworks/weft/pkg/ports"
)

// Builder manages the graph construction.
type Builder struct {
	name        string
	description string
	start       string
	nodes       []*NodeBuilder
	byName      map[string]*NodeBuilder
}

// New creates a new graph builder.
func New(name string) *Builder {
	return &Builder{
		name:   name,
		byName: make(map[string]*NodeBuilder),
	}
}

// Describe sets the graph description.
func (b *Builder) Describe(description string) *Builder {
	b.description = description
	return b
}

// Start overrides the implicit start node (the first one added).
func (b *Builder) Start(name string) *Builder {
	b.start = name
	return b
}

// Add creates a new node in the graph and returns its builder.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(name string) *NodeBuilder {
	if nb, ok := b.byName[name]; ok {
		return nb
	}
	nb := &NodeBuilder{name: name, builder: b}
	b.nodes = append(b.nodes, nb)
	b.byName[name] = nb
	return nb
}

// Build compiles the graph, resolving function references through the
// registry and guard expressions through pkg/expr.
func (b *Builder) Build(reg ports.FuncRegistry) (*domain.Graph, error) {
	graph := domain.NewGraph(b.name, b.description)

	for _, nb := range b.nodes {
		fn := nb.fn
		if fn == nil {
			if nb.funcRef == "" {
				return nil, fmt.Errorf("graph %q: node %q has no function", b.name, nb.name)
			}
			resolved, err := reg.Resolve(nb.funcRef)
			if err != nil {
				return nil, fmt.Errorf("graph %q: node %q: %w", b.name, nb.name, err)
			}
			fn = resolved
		}
		if err := graph.AddNode(domain.NewFuncNode(nb.name, fn, nb.description)); err != nil {
			return nil, fmt.Errorf("graph %q: %w", b.name, err)
		}
	}

	for _, nb := range b.nodes {
		for _, e := range nb.edges {
			var guard domain.Predicate
			if e.condition != "" {
				compiled, err := expr.Compile(e.condition)
				if err != nil {
					return nil, fmt.Errorf("graph %q: edge %s -> %s: %w", b.name, nb.name, e.to, err)
				}
				guard = compiled
			}
			if err := graph.AddEdgeExpr(nb.name, e.to, guard, e.condition); err != nil {
				return nil, fmt.Errorf("graph %q: %w", b.name, err)
			}
		}
	}

	if b.start != "" {
		if err := graph.SetStartNode(b.start); err != nil {
			return nil, fmt.Errorf("graph %q: %w", b.name, err)
		}
	}

	return graph, nil
}
