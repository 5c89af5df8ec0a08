package weft_test

import (
	"context"
	"fmt"
	"log"

	"github.com/weftworks/weft"
	"github.com/weftworks/weft/pkg/dsl"
	"github.com/weftworks/weft/pkg/registry"
)

// ExampleNew demonstrates building and running a small looping workflow
// entirely in memory.
func ExampleNew() {
	reg := registry.New()
	reg.MustRegister("increment", func(ctx context.Context, state map[string]any) (map[string]any, error) {
		count, _ := state["count"].(float64)
		state["count"] = count + 1
		return state, nil
	}, "Adds one to the count")

	graph, err := dsl.New("counter").
		Add("tick").Func("increment").
		Branch("count < 3", "tick").
		Graph().
		Build(reg)
	if err != nil {
		log.Fatal(err)
	}

	engine := weft.New(weft.WithRegistry(reg))
	result, err := engine.Execute(context.Background(), graph, map[string]any{"count": 0.0})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("status:", result.Status)
	fmt.Println("steps:", result.StepsExecuted)
	fmt.Println("count:", result.FinalState["count"])
	// Output:
	// status: completed
	// steps: 3
	// count: 3
}
