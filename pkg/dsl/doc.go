/*
Package dsl provides a fluent, in-code builder for workflow graphs.

It complements pkg/definition (the declarative YAML/JSON shape) for hosts
that assemble graphs programmatically:

	graph, err := dsl.New("review").
		Add("analyze").Func("analyze_code").
		Go("score").
		Add("score").Func("score_issues").
		Branch("score < 80", "analyze").
		Go("report").
		Add("report").Func("write_report").
		Graph().
		Build(reg)

Nodes are added in call order (the first becomes the start node unless
Start overrides it) and edges keep their declaration order, which decides
transition priority at run time.
*/
package dsl
