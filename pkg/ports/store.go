package ports

import (
	"context"
	"errors"
	"time"

	"github.com/weftworks/weft/pkg/domain"
)

// ErrRunNotFound is returned when a run ID cannot be found in the store.
var ErrRunNotFound = errors.New("run not found")

// RunStatus tracks the lifecycle of a persisted run record.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// RunRecord is the persisted shape of one workflow run. The engine core
// never persists anything itself; hosts save records around Execute calls.
type RunRecord struct {
	ID            string         `json:"id"`
	GraphName     string         `json:"graph_name"`
	Status        RunStatus      `json:"status"`
	InitialState  map[string]any `json:"initial_state"`
	FinalState    map[string]any `json:"final_state,omitempty"`
	Trace         domain.Trace   `json:"trace,omitempty"`
	StepsExecuted int            `json:"steps_executed"`
	Error         string         `json:"error,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty"`
}

// RunStore persists run records and their traces.
type RunStore interface {
	// Save persists the record, overwriting any previous version.
	Save(ctx context.Context, record *RunRecord) error

	// Load retrieves a record by run ID.
	// Returns ErrRunNotFound if the run does not exist.
	Load(ctx context.Context, runID string) (*RunRecord, error)

	// Delete removes a record by run ID.
	Delete(ctx context.Context, runID string) error

	// List returns the IDs of all stored runs.
	List(ctx context.Context) ([]string, error)
}
