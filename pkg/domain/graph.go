package domain

import "fmt"

// Predicate guards an edge. It is an opaque capability evaluated against a
// read-only view of the state; the engine does not interpret its internals.
// A returned error is a guard fault and aborts the run, it is never coerced
// to false.
type Predicate func(state *State) (bool, error)

// Edge is a directed transition between two nodes, optionally guarded.
type Edge struct {
	From  string
	To    string
	Guard Predicate

	// Expr keeps the original guard expression for introspection and
	// error reporting. Empty for unconditional edges and in-code guards.
	Expr string
}

// Graph owns the node table and the guarded adjacency list of a workflow.
// A graph is built once and must be treated as read-only after a run has
// started using it; a built graph is safe to share across concurrent runs.
type Graph struct {
	Name        string
	Description string

	nodes     map[string]*Node
	nodeOrder []string
	edges     map[string][]Edge
	start     string
}

// NewGraph creates an empty workflow graph.
func NewGraph(name, description string) *Graph {
	if description == "" {
		description = "Workflow: " + name
	}
	return &Graph{
		Name:        name,
		Description: description,
		nodes:       make(map[string]*Node),
		edges:       make(map[string][]Edge),
	}
}

// AddNode adds a node to the graph. The first node added becomes the start
// node unless SetStartNode is called afterward. Duplicate names are a
// construction-time error, never a silent overwrite.
func (g *Graph) AddNode(node *Node) error {
	if node == nil || node.Name == "" {
		return fmt.Errorf("node must have a name")
	}
	if _, exists := g.nodes[node.Name]; exists {
		return &DuplicateNodeError{Name: node.Name}
	}
	g.nodes[node.Name] = node
	g.nodeOrder = append(g.nodeOrder, node.Name)
	if g.start == "" {
		g.start = node.Name
	}
	return nil
}

// AddEdge appends a guarded transition to the ordered edge list of from.
// Declaration order is semantically significant: NextNode follows the first
// matching edge and never reaches later ones.
func (g *Graph) AddEdge(from, to string, guard Predicate) error {
	return g.addEdge(Edge{From: from, To: to, Guard: guard})
}

// AddEdgeExpr is AddEdge carrying the source expression of the guard for
// introspection. Compilation of the expression happens outside the graph.
func (g *Graph) AddEdgeExpr(from, to string, guard Predicate, expr string) error {
	return g.addEdge(Edge{From: from, To: to, Guard: guard, Expr: expr})
}

func (g *Graph) addEdge(e Edge) error {
	if _, ok := g.nodes[e.From]; !ok {
		return &UnknownNodeError{Name: e.From}
	}
	if _, ok := g.nodes[e.To]; !ok {
		return &UnknownNodeError{Name: e.To}
	}
	g.edges[e.From] = append(g.edges[e.From], e)
	return nil
}

// SetStartNode overrides the implicit start node.
func (g *Graph) SetStartNode(name string) error {
	if _, ok := g.nodes[name]; !ok {
		return &UnknownNodeError{Name: name}
	}
	g.start = name
	return nil
}

// StartNode returns the start node name, or "" for an empty graph.
func (g *Graph) StartNode() string {
	return g.start
}

// Node returns the node with the given name.
func (g *Graph) Node(name string) (*Node, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// NodeNames returns all node names in insertion order.
func (g *Graph) NodeNames() []string {
	out := make([]string, len(g.nodeOrder))
	copy(out, g.nodeOrder)
	return out
}

// Edges returns the ordered outgoing edges of a node.
func (g *Graph) Edges(from string) []Edge {
	return g.edges[from]
}

// NextNode resolves the transition out of current against the given state.
// It scans the outgoing edges in declaration order and returns the target of
// the first edge whose guard is absent or evaluates to true. It returns
// ("", nil) when the node is terminal. A guard fault is returned as a
// *GuardEvaluationError and must abort the run.
func (g *Graph) NextNode(current string, state *State) (string, error) {
	for _, e := range g.edges[current] {
		if e.Guard == nil {
			return e.To, nil
		}
		ok, err := e.Guard(state)
		if err != nil {
			return "", &GuardEvaluationError{From: e.From, To: e.To, Expr: e.Expr, Cause: err}
		}
		if ok {
			return e.To, nil
		}
	}
	return "", nil
}

// Validate checks the structural integrity of the graph and returns every
// finding, not just the first.
func (g *Graph) Validate() []string {
	var findings []string

	if len(g.nodes) == 0 {
		findings = append(findings, "graph has no nodes")
		return findings
	}

	startValid := true
	if g.start == "" {
		findings = append(findings, "no start node set")
		startValid = false
	} else if _, ok := g.nodes[g.start]; !ok {
		findings = append(findings, fmt.Sprintf("start node %q not found in graph", g.start))
		startValid = false
	}

	for _, name := range g.nodeOrder {
		for _, e := range g.edges[name] {
			if _, ok := g.nodes[e.To]; !ok {
				findings = append(findings, fmt.Sprintf("edge %s -> %s targets a node that does not exist", e.From, e.To))
			}
		}
	}

	// Reachability crawl from the start node. Anything the crawl never
	// visits is an orphan.
	if startValid {
		visited := map[string]bool{g.start: true}
		queue := []string{g.start}
		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]
			for _, e := range g.edges[current] {
				if _, ok := g.nodes[e.To]; ok && !visited[e.To] {
					visited[e.To] = true
					queue = append(queue, e.To)
				}
			}
		}
		for _, name := range g.nodeOrder {
			if !visited[name] {
				findings = append(findings, fmt.Sprintf("orphaned node %q is unreachable from the start node", name))
			}
		}
	}

	return findings
}
