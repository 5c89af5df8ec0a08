// Package definition holds the declarative input shape of a workflow graph
// and compiles it into a runnable domain.Graph.
//
// Definitions arrive as YAML documents (files, CLI) or as loosely typed
// JSON maps (HTTP). Node and edge order in the definition is preserved:
// edge declaration order decides transition priority at run time.
package definition

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/weftworks/weft/pkg/domain"
	"github.com/weftworks/weft/pkg/expr"
	"github.com/weftworks/weft/pkg/ports"
)

// NodeDef describes one node: its unique name and the registry reference of
// the function backing it.
type NodeDef struct {
	Name        string `yaml:"name" json:"name" mapstructure:"name"`
	Function    string `yaml:"function" json:"function" mapstructure:"function"`
	Description string `yaml:"description,omitempty" json:"description,omitempty" mapstructure:"description"`
}

// EdgeDef describes one directed transition. Condition, when present, is a
// guard expression compiled by pkg/expr; an empty condition is an
// unconditional edge.
type EdgeDef struct {
	From      string `yaml:"from" json:"from" mapstructure:"from"`
	To        string `yaml:"to" json:"to" mapstructure:"to"`
	Condition string `yaml:"condition,omitempty" json:"condition,omitempty" mapstructure:"condition"`
}

// GraphDefinition is the portable description of a workflow graph.
type GraphDefinition struct {
	Name        string    `yaml:"name" json:"name" mapstructure:"name"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty" mapstructure:"description"`
	StartNode   string    `yaml:"start_node,omitempty" json:"start_node,omitempty" mapstructure:"start_node"`
	Nodes       []NodeDef `yaml:"nodes" json:"nodes" mapstructure:"nodes"`
	Edges       []EdgeDef `yaml:"edges,omitempty" json:"edges,omitempty" mapstructure:"edges"`
}

// FromYAML parses a YAML document into a definition.
func FromYAML(data []byte) (*GraphDefinition, error) {
	var def GraphDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse graph definition: %w", err)
	}
	if def.Name == "" {
		return nil, fmt.Errorf("graph definition missing name")
	}
	return &def, nil
}

// FromMap decodes a loosely typed map (e.g. a decoded JSON body) into a
// definition.
func FromMap(raw map[string]any) (*GraphDefinition, error) {
	var def GraphDefinition
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &def,
		ErrorUnused: false,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode graph definition: %w", err)
	}
	if def.Name == "" {
		return nil, fmt.Errorf("graph definition missing name")
	}
	return &def, nil
}

// ToYAML renders the definition back to YAML.
func (d *GraphDefinition) ToYAML() ([]byte, error) {
	return yaml.Marshal(d)
}

// Build compiles the definition into a domain.Graph: node functions are
// resolved through the registry and guard expressions are compiled into
// predicates. All errors here are construction-time errors; nothing from
// this definition executes before Build succeeds.
func (d *GraphDefinition) Build(reg ports.FuncRegistry) (*domain.Graph, error) {
	graph := domain.NewGraph(d.Name, d.Description)

	for _, nd := range d.Nodes {
		if nd.Name == "" {
			return nil, fmt.Errorf("graph %q: node missing name", d.Name)
		}
		if nd.Function == "" {
			return nil, fmt.Errorf("graph %q: node %q missing function reference", d.Name, nd.Name)
		}
		fn, err := reg.Resolve(nd.Function)
		if err != nil {
			return nil, fmt.Errorf("graph %q: node %q: %w", d.Name, nd.Name, err)
		}
		if err := graph.AddNode(domain.NewFuncNode(nd.Name, fn, nd.Description)); err != nil {
			return nil, fmt.Errorf("graph %q: %w", d.Name, err)
		}
	}

	for _, ed := range d.Edges {
		var guard domain.Predicate
		if ed.Condition != "" {
			compiled, err := expr.Compile(ed.Condition)
			if err != nil {
				return nil, fmt.Errorf("graph %q: edge %s -> %s: %w", d.Name, ed.From, ed.To, err)
			}
			guard = compiled
		}
		if err := graph.AddEdgeExpr(ed.From, ed.To, guard, ed.Condition); err != nil {
			return nil, fmt.Errorf("graph %q: %w", d.Name, err)
		}
	}

	if d.StartNode != "" {
		if err := graph.SetStartNode(d.StartNode); err != nil {
			return nil, fmt.Errorf("graph %q: %w", d.Name, err)
		}
	}

	return graph, nil
}
