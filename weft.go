package weft

import (
	"context"
	"log/slog"

	"github.com/weftworks/weft/internal/logging"
	"github.com/weftworks/weft/internal/runtime"
	"github.com/weftworks/weft/pkg/definition"
	"github.com/weftworks/weft/pkg/domain"
	"github.com/weftworks/weft/pkg/ports"
	"github.com/weftworks/weft/pkg/registry"
)

// Result is the outcome of one workflow run.
type Result = runtime.Result

// RunStatus is the lifecycle phase of a run.
type RunStatus = runtime.Status

// Lifecycle phases of a run.
const (
	StatusInit       = runtime.StatusInit
	StatusValidating = runtime.StatusValidating
	StatusRunning    = runtime.StatusRunning
	StatusCompleted  = runtime.StatusCompleted
	StatusFailed     = runtime.StatusFailed
)

// DefaultMaxSteps bounds a run when the host does not configure one.
const DefaultMaxSteps = runtime.DefaultMaxSteps

// Engine is the high-level entry point for the Weft library.
// It wraps the internal executor and provides a simplified API for hosts.
type Engine struct {
	registry  ports.FuncRegistry
	observers []ports.Observer
	logger    *slog.Logger
	maxSteps  int
	queueSize int
	executor  *runtime.Executor
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithRegistry injects the function registry used to resolve node
// references at graph-build time.
func WithRegistry(reg ports.FuncRegistry) Option {
	return func(e *Engine) {
		e.registry = reg
	}
}

// WithObserver attaches a progress event sink. May be given multiple times;
// every sink receives every event, best-effort.
func WithObserver(o ports.Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observers = append(e.observers, o)
		}
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMaxSteps sets the hard per-run step bound (default 100).
func WithMaxSteps(n int) Option {
	return func(e *Engine) {
		e.maxSteps = n
	}
}

// WithEventQueueSize sets the capacity of the per-run event queue.
func WithEventQueueSize(n int) Option {
	return func(e *Engine) {
		e.queueSize = n
	}
}

// New initializes a new Weft Engine. Without options it carries an empty
// registry, a no-op logger and no observers.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger:   logging.NewNop(),
		maxSteps: runtime.DefaultMaxSteps,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.registry == nil {
		e.registry = registry.New()
	}

	execOpts := []runtime.Option{
		runtime.WithMaxSteps(e.maxSteps),
		runtime.WithLogger(e.logger),
		runtime.WithQueueSize(e.queueSize),
	}
	if len(e.observers) == 1 {
		execOpts = append(execOpts, runtime.WithObserver(e.observers[0]))
	} else if len(e.observers) > 1 {
		execOpts = append(execOpts, runtime.WithObserver(fanout(e.observers)))
	}
	e.executor = runtime.NewExecutor(execOpts...)
	return e
}

// Registry returns the function registry used at graph-build time.
func (e *Engine) Registry() ports.FuncRegistry {
	return e.registry
}

// Functions lists the registered function names and descriptions.
func (e *Engine) Functions() map[string]string {
	return e.registry.List()
}

// Execute validates and runs a built graph against an initial state.
// On failure the returned Result still carries the trace accumulated up to
// the failing step.
func (e *Engine) Execute(ctx context.Context, graph *domain.Graph, initialState map[string]any) (*Result, error) {
	return e.executor.Execute(ctx, graph, initialState)
}

// ExecuteRun is Execute with a caller-chosen run ID, for hosts that mint
// their own identifiers before starting the run.
func (e *Engine) ExecuteRun(ctx context.Context, runID string, graph *domain.Graph, initialState map[string]any) (*Result, error) {
	return e.executor.ExecuteRun(ctx, runID, graph, initialState)
}

// BuildGraph compiles a graph definition against the engine's registry.
func (e *Engine) BuildGraph(def *definition.GraphDefinition) (*domain.Graph, error) {
	return def.Build(e.registry)
}

// ExecuteDefinition builds a graph definition and runs it in one call.
func (e *Engine) ExecuteDefinition(ctx context.Context, def *definition.GraphDefinition, initialState map[string]any) (*Result, error) {
	graph, err := def.Build(e.registry)
	if err != nil {
		return nil, err
	}
	return e.Execute(ctx, graph, initialState)
}

// ValidateDefinition builds the definition and returns the structural
// findings of the resulting graph. Build errors (unknown function, bad
// guard expression) are returned as the error.
func (e *Engine) ValidateDefinition(def *definition.GraphDefinition) ([]string, error) {
	graph, err := def.Build(e.registry)
	if err != nil {
		return nil, err
	}
	return graph.Validate(), nil
}

// fanout delivers each event to every attached observer in order.
type fanout []ports.Observer

// Notify implements ports.Observer.
func (f fanout) Notify(ctx context.Context, ev domain.Event) {
	for _, o := range f {
		o.Notify(ctx, ev)
	}
}
