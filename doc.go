/*
Package weft is a deterministic workflow engine that executes declaratively
defined graphs of named processing steps over a mutable shared state.

A workflow is a directed graph: nodes wrap externally registered functions
that transform the state, and edges (optionally guarded by predicates over
that state) decide where control flows next. The engine validates the graph,
runs one node at a time, resolves transitions in declaration order
(first-match wins), bounds iteration against runaway cycles, and records an
immutable per-step audit trace. Progress events flow to external observers
on a best-effort, never-blocking side channel.

# Concept

Weft separates the graph (Logic) from the run state (State) and from the
functions doing actual work (Registry). The engine owns sequencing and
bookkeeping; the host owns I/O, persistence, and transports. This Hexagonal
Architecture lets Weft be embedded in any interface: CLI, HTTP server, or
agent infrastructure.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/weftworks/weft"
		"github.com/weftworks/weft/pkg/dsl"
		"github.com/weftworks/weft/pkg/registry"
	)

	func main() {
		reg := registry.New()
		reg.MustRegister("increment", func(ctx context.Context, state map[string]any) (map[string]any, error) {
			count, _ := state["count"].(float64)
			state["count"] = count + 1
			return state, nil
		}, "adds one to count")

		graph, err := dsl.New("counter").
			Add("tick").Func("increment").
			Branch("count < 3", "tick").
			Graph().
			Build(reg)
		if err != nil {
			log.Fatal(err)
		}

		engine := weft.New(weft.WithRegistry(reg))
		res, err := engine.Execute(context.Background(), graph, map[string]any{"count": 0.0})
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(res.FinalState["count"], res.StepsExecuted)
	}

Guard expressions are compiled by pkg/expr into restricted predicates with
read-only access to the state record: no calls, no ambient capability, no
arbitrary code execution.
*/
package weft
