package weft_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/weftworks/weft"
	"github.com/weftworks/weft/pkg/definition"
	"github.com/weftworks/weft/pkg/domain"
	"github.com/weftworks/weft/pkg/dsl"
	"github.com/weftworks/weft/pkg/registry"
)

func counterRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()
	reg.MustRegister("increment", func(ctx context.Context, state map[string]any) (map[string]any, error) {
		count, _ := state["count"].(float64)
		state["count"] = count + 1
		return state, nil
	}, "")
	reg.MustRegister("echo", func(ctx context.Context, state map[string]any) (map[string]any, error) {
		return state, nil
	}, "")
	return reg
}

func TestFacade_Integration(t *testing.T) {
	reg := counterRegistry(t)
	engine := weft.New(weft.WithRegistry(reg))

	graph, err := dsl.New("counter").
		Add("tick").Func("increment").
		Branch("count < 3", "tick").
		Go("report").
		Add("report").Func("echo").
		Graph().
		Build(reg)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	result, err := engine.Execute(context.Background(), graph, map[string]any{"count": 0.0})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if result.Status != weft.StatusCompleted {
		t.Errorf("Expected status %q, got %q", weft.StatusCompleted, result.Status)
	}
	if result.StepsExecuted != 4 {
		t.Errorf("Expected 4 steps (three ticks plus report), got %d", result.StepsExecuted)
	}
	if got := result.FinalState["count"]; got != 3.0 {
		t.Errorf("Expected final count 3, got %v", got)
	}
	if len(result.Trace) != 4 {
		t.Errorf("Expected 4 trace entries, got %d", len(result.Trace))
	}
	if result.Trace[0].NodeName != "tick" || result.Trace[3].NodeName != "report" {
		t.Errorf("Unexpected trace order: %v", result.Trace)
	}
}

func TestFacade_ExecuteDefinition(t *testing.T) {
	engine := weft.New(weft.WithRegistry(counterRegistry(t)))

	def := &definition.GraphDefinition{
		Name: "counter",
		Nodes: []definition.NodeDef{
			{Name: "tick", Function: "increment"},
			{Name: "report", Function: "echo"},
		},
		Edges: []definition.EdgeDef{
			{From: "tick", To: "tick", Condition: "count < 2"},
			{From: "tick", To: "report"},
		},
	}

	result, err := engine.ExecuteDefinition(context.Background(), def, nil)
	if err != nil {
		t.Fatalf("ExecuteDefinition failed: %v", err)
	}
	if got := result.FinalState["count"]; got != 2.0 {
		t.Errorf("Expected final count 2, got %v", got)
	}
}

func TestFacade_ValidateDefinition(t *testing.T) {
	engine := weft.New(weft.WithRegistry(counterRegistry(t)))

	def := &definition.GraphDefinition{
		Name: "orphaned",
		Nodes: []definition.NodeDef{
			{Name: "a", Function: "echo"},
			{Name: "island", Function: "echo"},
		},
	}

	findings, err := engine.ValidateDefinition(def)
	if err != nil {
		t.Fatalf("ValidateDefinition failed: %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("Expected 1 finding, got %d: %v", len(findings), findings)
	}
}

func TestFacade_StepBound(t *testing.T) {
	reg := counterRegistry(t)
	engine := weft.New(weft.WithRegistry(reg), weft.WithMaxSteps(2))

	graph, err := dsl.New("forever").
		Add("tick").Func("increment").
		Go("tick").
		Graph().
		Build(reg)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	result, err := engine.Execute(context.Background(), graph, nil)
	if err == nil {
		t.Fatal("Expected step bound error, got nil")
	}
	var bound *domain.StepBoundError
	if !errors.As(err, &bound) {
		t.Fatalf("Expected StepBoundError, got %T: %v", err, err)
	}
	if result == nil || len(result.Trace) != 2 {
		t.Errorf("Expected partial trace with 2 entries, got %+v", result)
	}
}

type collectObserver struct {
	mu     sync.Mutex
	events []domain.Event
}

func (c *collectObserver) Notify(ctx context.Context, ev domain.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *collectObserver) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func TestFacade_FanoutObservers(t *testing.T) {
	reg := counterRegistry(t)
	first := &collectObserver{}
	second := &collectObserver{}

	engine := weft.New(
		weft.WithRegistry(reg),
		weft.WithObserver(first),
		weft.WithObserver(second),
	)

	graph, err := dsl.New("single").
		Add("only").Func("echo").
		Graph().
		Build(reg)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if _, err := engine.Execute(context.Background(), graph, nil); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	// Delivery is asynchronous; poll briefly.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if first.count() >= 2 && second.count() >= 2 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	if first.count() < 2 || second.count() < 2 {
		t.Fatalf("Expected both observers to see 2 events, got %d and %d", first.count(), second.count())
	}
	if first.count() != second.count() {
		t.Errorf("Observers diverged: %d vs %d events", first.count(), second.count())
	}
}
