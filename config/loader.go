package config

import (
	"encoding/json"
	"fmt"

	"github.com/flowmesh/engine/flowerr"
)

// flatConfig mirrors the flat JSON form from spec.md section 6:
//
//	{ "agents": [...], "tools": [...], "flow": {...} }
type flatConfig struct {
	Agents    []AgentDescriptor `json:"agents,omitempty"`
	Tools     []ToolDescriptor  `json:"tools,omitempty"`
	Pipelines []ToolPipeline    `json:"pipelines,omitempty"`
	Flow      flatFlow          `json:"flow"`
}

type flatFlow struct {
	Name        string       `json:"name"`
	Start       string       `json:"start"`
	Parameters  []Parameter  `json:"parameters,omitempty"`
	Variables   []Variable   `json:"variables,omitempty"`
	Nodes       []Node       `json:"nodes"`
	Transitions []Transition `json:"transitions,omitempty"`
}

// Load parses a declarative JSON configuration (either accepted form) into
// a verified WorkflowBundle, per spec.md sections 4.1 and 6.
func Load(data []byte) (*WorkflowBundle, error) {
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, flowerr.Wrap(flowerr.KindConfig, "parse JSON", err)
	}

	expanded, err := expandEnvValue(generic)
	if err != nil {
		return nil, err
	}

	root, ok := expanded.(map[string]any)
	if !ok {
		return nil, flowerr.New(flowerr.KindConfig, "top-level configuration must be a JSON object")
	}

	reencoded, err := json.Marshal(root)
	if err != nil {
		return nil, flowerr.Wrap(flowerr.KindConfig, "re-encode expanded configuration", err)
	}

	var bundle *WorkflowBundle
	if _, isFlat := root["flow"]; isFlat {
		bundle, err = loadFlat(reencoded)
	} else if _, isGraph := root["nodes"]; isGraph {
		bundle, err = loadGraph(reencoded)
	} else {
		return nil, flowerr.New(flowerr.KindConfig, "configuration must have either a top-level \"flow\" or \"nodes\" key")
	}
	if err != nil {
		return nil, err
	}

	if err := Validate(bundle); err != nil {
		return nil, err
	}
	return bundle, nil
}

func loadFlat(data []byte) (*WorkflowBundle, error) {
	var cfg flatConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, flowerr.Wrap(flowerr.KindConfig, "parse flat flow configuration", err)
	}

	flow := &Flow{
		Name:        cfg.Flow.Name,
		Start:       cfg.Flow.Start,
		Parameters:  cfg.Flow.Parameters,
		Variables:   cfg.Flow.Variables,
		Nodes:       make(map[string]*Node, len(cfg.Flow.Nodes)),
		Transitions: make(map[string][]Transition),
	}
	for i := range cfg.Flow.Nodes {
		n := cfg.Flow.Nodes[i]
		if _, dup := flow.Nodes[n.Name]; dup {
			return nil, flowerr.New(flowerr.KindConfig, fmt.Sprintf("duplicate node name %q", n.Name))
		}
		flow.Nodes[n.Name] = &n
	}
	for _, t := range cfg.Flow.Transitions {
		if t.Kind == "" {
			t.Kind = Always
		}
		flow.Transitions[t.From] = append(flow.Transitions[t.From], t)
	}

	bundle := &WorkflowBundle{
		Flow:      flow,
		Agents:    make(map[string]*AgentDescriptor, len(cfg.Agents)),
		Tools:     cfg.Tools,
		Pipelines: make(map[string]*ToolPipeline, len(cfg.Pipelines)),
	}
	for i := range cfg.Agents {
		a := cfg.Agents[i]
		bundle.Agents[a.Name] = &a
	}
	for i := range cfg.Pipelines {
		p := cfg.Pipelines[i]
		bundle.Pipelines[p.ID] = &p
	}
	return bundle, nil
}

// graphNode is one element of the graph form's nodes[] array.
type graphNode struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Config   json.RawMessage `json:"config"`
	Workflow string          `json:"workflow,omitempty"`
}

// graphEdge is one element of the graph form's edges[] array.
type graphEdge struct {
	From      string         `json:"from"`
	To        string         `json:"to"`
	Type      TransitionKind `json:"type,omitempty"`
	Condition *Condition     `json:"condition,omitempty"`
	Workflow  string         `json:"workflow,omitempty"`
}

type graphWorkflowMeta struct {
	Name  string `json:"name"`
	Start string `json:"start"`
}

type graphRoot struct {
	Agents    []AgentDescriptor `json:"agents,omitempty"`
	Tools     []ToolDescriptor  `json:"tools,omitempty"`
	Pipelines []ToolPipeline    `json:"pipelines,omitempty"`
	Nodes     []graphNode       `json:"nodes"`
	Edges     []graphEdge       `json:"edges,omitempty"`
}

// graphNodeKinds maps the graph form's node `type` vocabulary (spec.md
// section 6) onto the canonical NodeKind set. "agent" and "agent_node" are
// synonyms; a bare "terminal" is accepted alongside "terminal_node" since
// the spec's vocabulary list does not otherwise name a terminal type.
var graphNodeKinds = map[string]NodeKind{
	"agent":         NodeAgent,
	"agent_node":    NodeAgent,
	"tool_node":     NodeTool,
	"decision_node": NodeDecision,
	"loop_node":     NodeLoop,
	"join_node":     NodeJoin,
	"terminal_node": NodeTerminal,
	"terminal":      NodeTerminal,
}

func loadGraph(data []byte) (*WorkflowBundle, error) {
	var g graphRoot
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, flowerr.Wrap(flowerr.KindConfig, "parse graph flow configuration", err)
	}

	flow := &Flow{
		Nodes:       make(map[string]*Node, len(g.Nodes)),
		Transitions: make(map[string][]Transition),
	}

	for _, n := range g.Nodes {
		if n.Type == "workflow" {
			var meta graphWorkflowMeta
			if len(n.Config) > 0 {
				if err := json.Unmarshal(n.Config, &meta); err != nil {
					return nil, flowerr.Wrap(flowerr.KindConfig, "parse workflow node config", err)
				}
			}
			if flow.Name == "" {
				flow.Name = meta.Name
			}
			if flow.Start == "" {
				flow.Start = meta.Start
			}
			continue
		}
		if n.Type == "service" {
			return nil, flowerr.New(flowerr.KindConfig,
				fmt.Sprintf("node %q: \"service\" nodes are not part of the executable node set", n.ID))
		}

		kind, ok := graphNodeKinds[n.Type]
		if !ok {
			return nil, flowerr.New(flowerr.KindConfig, fmt.Sprintf("node %q: unknown node type %q", n.ID, n.Type))
		}

		node := Node{Kind: kind, Name: n.ID}
		if len(n.Config) > 0 {
			if err := json.Unmarshal(n.Config, &node); err != nil {
				return nil, flowerr.Wrap(flowerr.KindConfig, fmt.Sprintf("node %q: parse config", n.ID), err)
			}
			node.Kind, node.Name = kind, n.ID
		}
		if _, dup := flow.Nodes[node.Name]; dup {
			return nil, flowerr.New(flowerr.KindConfig, fmt.Sprintf("duplicate node id %q", node.Name))
		}
		flow.Nodes[node.Name] = &node
	}

	for _, e := range g.Edges {
		kind := e.Type
		if kind == "" {
			kind = Always
		}
		flow.Transitions[e.From] = append(flow.Transitions[e.From], Transition{
			From: e.From, To: e.To, Kind: kind, Condition: e.Condition,
		})
	}

	bundle := &WorkflowBundle{
		Flow:      flow,
		Agents:    make(map[string]*AgentDescriptor, len(g.Agents)),
		Tools:     g.Tools,
		Pipelines: make(map[string]*ToolPipeline, len(g.Pipelines)),
	}
	for i := range g.Agents {
		a := g.Agents[i]
		bundle.Agents[a.Name] = &a
	}
	for i := range g.Pipelines {
		p := g.Pipelines[i]
		bundle.Pipelines[p.ID] = &p
	}
	return bundle, nil
}
