package domain

import (
	"fmt"
	"strings"
)

// DuplicateNodeError is returned when a node name is added twice.
type DuplicateNodeError struct {
	Name string
}

func (e *DuplicateNodeError) Error() string {
	return fmt.Sprintf("node %q already exists in graph", e.Name)
}

// UnknownNodeError is returned when an edge endpoint or start node
// references a node that is not in the graph.
type UnknownNodeError struct {
	Name string
}

func (e *UnknownNodeError) Error() string {
	return fmt.Sprintf("node %q not found in graph", e.Name)
}

// UnknownNodeKindError is returned when a node carries a kind the engine
// does not dispatch on.
type UnknownNodeKindError struct {
	Name string
	Kind NodeKind
}

func (e *UnknownNodeKindError) Error() string {
	return fmt.Sprintf("node %q has unknown kind %q", e.Name, e.Kind)
}

// ValidationError is returned when a graph is structurally invalid.
// No steps run and no trace entries are produced.
type ValidationError struct {
	Findings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid graph: %s", strings.Join(e.Findings, "; "))
}

// NodeExecutionError is returned when a node's work fails. The run aborts
// and is not resumable; the partial trace is preserved for diagnosis.
type NodeExecutionError struct {
	Node  string
	Step  int
	Cause error
}

func (e *NodeExecutionError) Error() string {
	return fmt.Sprintf("error executing node %q (step %d): %v", e.Node, e.Step, e.Cause)
}

func (e *NodeExecutionError) Unwrap() error {
	return e.Cause
}

// GuardEvaluationError is returned when an edge predicate itself faults.
// It is treated exactly like a node failure: the run aborts. Coercing a
// faulting guard to false would mask configuration bugs as normal
// termination.
type GuardEvaluationError struct {
	From  string
	To    string
	Expr  string
	Cause error
}

func (e *GuardEvaluationError) Error() string {
	if e.Expr != "" {
		return fmt.Sprintf("guard %q on edge %s -> %s failed: %v", e.Expr, e.From, e.To, e.Cause)
	}
	return fmt.Sprintf("guard on edge %s -> %s failed: %v", e.From, e.To, e.Cause)
}

func (e *GuardEvaluationError) Unwrap() error {
	return e.Cause
}

// StepBoundError is returned when a run hits its step bound while a next
// node is still pending, which signals a probable non-terminating cycle.
// The trace accumulated so far is still returned to the caller.
type StepBoundError struct {
	MaxSteps int
}

func (e *StepBoundError) Error() string {
	return fmt.Sprintf("workflow exceeded maximum steps (%d): possible infinite loop", e.MaxSteps)
}
