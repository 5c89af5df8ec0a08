package domain

import "time"

// ExecutionStep is the immutable audit record of one attempted node
// execution. StateBefore and StateAfter are deep snapshots; on failure
// StateAfter equals StateBefore even if the failing call mutated its input
// in-flight, so the record shows no forward progress.
type ExecutionStep struct {
	NodeName    string         `json:"node_name"`
	StepNumber  int            `json:"step_number"`
	StateBefore map[string]any `json:"state_before"`
	StateAfter  map[string]any `json:"state_after"`
	ExecutedAt  time.Time      `json:"executed_at"`
	Error       string         `json:"error,omitempty"`
}

// Failed reports whether this step recorded an execution error.
func (s ExecutionStep) Failed() bool {
	return s.Error != ""
}

// Trace is the ordered sequence of steps for one run. It is owned by the
// caller of the run; the engine never persists it.
type Trace []ExecutionStep
