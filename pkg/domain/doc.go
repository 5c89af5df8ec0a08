/*
Package domain contains the core domain models of the Weft engine.

It defines the fundamental entities of a workflow: Nodes, guarded Edges, the
Graph that owns them, the State record flowing through a run, and the
ExecutionStep audit trail. This package is kept pure and free of external
dependencies like I/O or persistence, following Hexagonal Architecture
principles.

# Key Entities

  - State: the mutable-by-replacement record flowing through the graph.
  - Node: a named unit of work transforming State (function-backed today).
  - Graph: the node table plus the ordered, guarded adjacency list; supplies
    structural validation and next-node resolution.
  - ExecutionStep: the immutable per-step audit record of one run.
  - Event: a best-effort progress notification for external observers.
*/
package domain
