package dsl

import "github.com/weftworks/weft/pkg/domain"

type edgeDecl struct {
	to        string
	condition string
}

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	name        string
	description string
	funcRef     string
	fn          domain.Func
	edges       []edgeDecl
	builder     *Builder
}

// Func sets the registry reference of the function backing this node.
func (n *NodeBuilder) Func(ref string) *NodeBuilder {
	n.funcRef = ref
	return n
}

// FuncOf binds an in-process function directly, bypassing the registry.
func (n *NodeBuilder) FuncOf(fn domain.Func) *NodeBuilder {
	n.fn = fn
	return n
}

// Describe sets the node description.
func (n *NodeBuilder) Describe(description string) *NodeBuilder {
	n.description = description
	return n
}

// Go adds an unconditional transition to the target node.
func (n *NodeBuilder) Go(target string) *NodeBuilder {
	n.edges = append(n.edges, edgeDecl{to: target})
	return n
}

// Branch adds a conditional transition to the target node. The condition
// is a guard expression compiled at Build time.
func (n *NodeBuilder) Branch(condition, target string) *NodeBuilder {
	n.edges = append(n.edges, edgeDecl{to: target, condition: condition})
	return n
}

// Add continues the chain by adding another node to the owning builder.
func (n *NodeBuilder) Add(name string) *NodeBuilder {
	return n.builder.Add(name)
}

// Graph returns the owning builder, ready to Build.
func (n *NodeBuilder) Graph() *Builder {
	return n.builder
}
