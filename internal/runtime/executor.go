// Package runtime contains the core workflow executor.
//
// The executor drives one run at a time: it validates the graph, executes
// the current node, resolves the next transition, accumulates the audit
// trace, and pushes best-effort progress events to an observer through a
// bounded queue. Multiple executors (or multiple runs on the same built
// graph) may be in flight concurrently; each run owns its state and trace.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/weftworks/weft/internal/logging"
	"github.com/weftworks/weft/pkg/domain"
	"github.com/weftworks/weft/pkg/ports"
)

// DefaultMaxSteps bounds a run when the host does not configure one.
const DefaultMaxSteps = 100

// Status is the lifecycle phase of a single run.
type Status string

const (
	StatusInit       Status = "init"
	StatusValidating Status = "validating"
	StatusRunning    Status = "running"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Result is the outcome of one run. On failure it still carries the trace
// accumulated up to the failing step, for diagnosis.
type Result struct {
	RunID         string         `json:"run_id"`
	Status        Status         `json:"status"`
	FinalState    map[string]any `json:"final_state,omitempty"`
	Trace         domain.Trace   `json:"trace"`
	StepsExecuted int            `json:"steps_executed"`
}

// Executor runs workflow graphs. It is stateless across runs and safe for
// concurrent use; per-run state lives on the stack of Execute.
type Executor struct {
	maxSteps  int
	queueSize int
	observer  ports.Observer
	logger    *slog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithMaxSteps sets the hard step bound per run.
func WithMaxSteps(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.maxSteps = n
		}
	}
}

// WithObserver attaches a progress event sink.
func WithObserver(o ports.Observer) Option {
	return func(e *Executor) {
		e.observer = o
	}
}

// WithQueueSize sets the capacity of the event queue. Events beyond
// capacity are dropped, never waited on.
func WithQueueSize(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.queueSize = n
		}
	}
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExecutor creates an executor with the given options.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{
		maxSteps:  DefaultMaxSteps,
		queueSize: defaultQueueSize,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxSteps returns the configured step bound.
func (e *Executor) MaxSteps() int {
	return e.maxSteps
}

// Execute runs the graph with a fresh run ID.
func (e *Executor) Execute(ctx context.Context, graph *domain.Graph, initialState map[string]any) (*Result, error) {
	return e.ExecuteRun(ctx, uuid.NewString(), graph, initialState)
}

// ExecuteRun runs the graph under a caller-chosen run ID.
//
// The run proceeds init -> validating -> running -> completed|failed. A
// structurally invalid graph fails before any step executes. Node failures,
// guard faults and the step bound abort the run; the partial result
// (including the trace so far) is returned alongside the error.
func (e *Executor) ExecuteRun(ctx context.Context, runID string, graph *domain.Graph, initialState map[string]any) (*Result, error) {
	logger := e.logger.With("run_id", runID, "graph", graph.Name)
	res := &Result{RunID: runID, Status: StatusValidating}

	if findings := graph.Validate(); len(findings) > 0 {
		res.Status = StatusFailed
		logger.Warn("graph validation failed", "findings", len(findings))
		return res, &domain.ValidationError{Findings: findings}
	}

	notifier := newNotifier(e.observer, logger, e.queueSize)
	defer notifier.Close()

	state := domain.FromRecord(initialState)
	current := graph.StartNode()
	step := 0
	res.Status = StatusRunning
	logger.Debug("run started", "start_node", current)

	for current != "" && step < e.maxSteps {
		step++
		node, ok := graph.Node(current)
		if !ok {
			// Unreachable after validation; kept as a hard failure
			// rather than a panic.
			res.Status = StatusFailed
			res.StepsExecuted = step - 1
			return res, &domain.UnknownNodeError{Name: current}
		}

		before := state.Snapshot()
		newState, err := node.Execute(ctx, state)
		if err != nil {
			res.Trace = append(res.Trace, domain.ExecutionStep{
				NodeName:    current,
				StepNumber:  step,
				StateBefore: before,
				StateAfter:  before, // no forward progress on record
				ExecutedAt:  time.Now().UTC(),
				Error:       err.Error(),
			})
			execErr := &domain.NodeExecutionError{Node: current, Step: step, Cause: err}
			notifier.Emit(domain.Event{
				Type:    domain.EventError,
				RunID:   runID,
				Step:    step,
				Node:    current,
				Error:   err.Error(),
				Message: fmt.Sprintf("Error executing node '%s'", current),
			})
			res.Status = StatusFailed
			res.StepsExecuted = step
			logger.Error("node execution failed", "node", current, "step", step, "err", err)
			return res, execErr
		}

		after := newState.Snapshot()
		res.Trace = append(res.Trace, domain.ExecutionStep{
			NodeName:    current,
			StepNumber:  step,
			StateBefore: before,
			StateAfter:  after,
			ExecutedAt:  time.Now().UTC(),
		})
		notifier.Emit(domain.Event{
			Type:    domain.EventStepComplete,
			RunID:   runID,
			Step:    step,
			Node:    current,
			State:   after,
			Message: fmt.Sprintf("Completed node '%s'", current),
		})
		logger.Debug("step complete", "node", current, "step", step)

		state = newState
		next, err := graph.NextNode(current, state)
		if err != nil {
			// A faulting guard aborts exactly like a failing node; it is
			// never coerced to false.
			notifier.Emit(domain.Event{
				Type:    domain.EventError,
				RunID:   runID,
				Step:    step,
				Node:    current,
				Error:   err.Error(),
				Message: fmt.Sprintf("Guard evaluation failed after node '%s'", current),
			})
			res.Status = StatusFailed
			res.StepsExecuted = step
			logger.Error("guard evaluation failed", "node", current, "step", step, "err", err)
			return res, err
		}
		current = next
	}

	res.StepsExecuted = step

	if current != "" {
		boundErr := &domain.StepBoundError{MaxSteps: e.maxSteps}
		notifier.Emit(domain.Event{
			Type:    domain.EventError,
			RunID:   runID,
			Step:    step,
			Node:    current,
			Error:   boundErr.Error(),
			Message: "Workflow aborted at step bound",
		})
		res.Status = StatusFailed
		logger.Error("step bound exceeded", "max_steps", e.maxSteps)
		return res, boundErr
	}

	res.Status = StatusCompleted
	res.FinalState = state.ToRecord()
	notifier.Emit(domain.Event{
		Type:    domain.EventWorkflowComplete,
		RunID:   runID,
		Step:    step,
		State:   res.FinalState,
		Message: "Workflow completed",
	})
	logger.Info("run completed", "steps", step)
	return res, nil
}
