package domain

import "time"

// EventType defines the category of a progress event.
type EventType string

const (
	// EventConnected greets a freshly attached subscriber. It is emitted
	// by transports on subscribe, not by the executor.
	EventConnected EventType = "connected"
	// EventStepComplete reports a successfully executed step.
	EventStepComplete EventType = "step_complete"
	// EventError reports a failed step or guard fault.
	EventError EventType = "error"
	// EventWorkflowComplete reports a run that reached a terminal node.
	EventWorkflowComplete EventType = "workflow_complete"
)

// Event is a best-effort progress notification for one run. Delivery is
// never allowed to delay, retry, or fail the run that emitted it.
type Event struct {
	Type      EventType      `json:"type"`
	RunID     string         `json:"run_id"`
	Step      int            `json:"step,omitempty"`
	Node      string         `json:"node,omitempty"`
	State     map[string]any `json:"state,omitempty"`
	Error     string         `json:"error,omitempty"`
	Message   string         `json:"message,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}
