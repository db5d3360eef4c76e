// Package config parses declarative JSON/YAML configuration into a
// verified in-memory Flow graph with typed parameters, variables, and
// transitions, per spec.md sections 3, 4.1, and 6.
package config

// ============================================================================
// FLOW / NODE / TRANSITION / CONDITION — the graph shape
// ============================================================================

// Parameter is a named, optionally-defaulted input declared on a Flow.
type Parameter struct {
	Name     string `json:"name" yaml:"name"`
	Type     string `json:"type,omitempty" yaml:"type,omitempty"`
	Default  string `json:"default,omitempty" yaml:"default,omitempty"`
	Required bool   `json:"required,omitempty" yaml:"required,omitempty"`
}

// Variable is a named, optionally-defaulted Flow-scoped store entry.
type Variable struct {
	Name    string `json:"name" yaml:"name"`
	Default string `json:"default,omitempty" yaml:"default,omitempty"`
}

// NodeKind discriminates the tagged Node union.
type NodeKind string

const (
	NodeAgent    NodeKind = "agent"
	NodeTool     NodeKind = "tool"
	NodeDecision NodeKind = "decision"
	NodeLoop     NodeKind = "loop"
	NodeJoin     NodeKind = "join"
	NodeTerminal NodeKind = "terminal"
)

// DecisionPolicy selects how a Decision node's branches are evaluated.
type DecisionPolicy string

const (
	FirstMatch DecisionPolicy = "first_match"
	AllMatches DecisionPolicy = "all_matches"
)

// JoinStrategy selects when a Join node releases its barrier.
type JoinStrategy string

const (
	JoinAll    JoinStrategy = "all"
	JoinAny    JoinStrategy = "any"
	JoinQuorum JoinStrategy = "quorum"
)

// DecisionBranch is one arm of a Decision node.
type DecisionBranch struct {
	Name      string     `json:"name,omitempty" yaml:"name,omitempty"`
	Condition *Condition `json:"condition,omitempty" yaml:"condition,omitempty"`
	Target    string     `json:"target" yaml:"target"`
}

// Node is the tagged union of node kinds a Flow can contain. Only the
// fields relevant to Kind are populated; see spec.md section 3.
type Node struct {
	Kind NodeKind `json:"kind" yaml:"kind"`
	Name string   `json:"name" yaml:"name"`

	// Agent
	AgentRef string `json:"agent_ref,omitempty" yaml:"agent_ref,omitempty"`

	// Tool
	PipelineRef string `json:"pipeline_ref,omitempty" yaml:"pipeline_ref,omitempty"`

	// Decision
	Policy   DecisionPolicy   `json:"policy,omitempty" yaml:"policy,omitempty"`
	Branches []DecisionBranch `json:"branches,omitempty" yaml:"branches,omitempty"`

	// Loop
	Entry         string     `json:"entry,omitempty" yaml:"entry,omitempty"`
	LoopCondition *Condition `json:"condition,omitempty" yaml:"condition,omitempty"`
	MaxIterations *int       `json:"max_iterations,omitempty" yaml:"max_iterations,omitempty"`
	Exit          string     `json:"exit,omitempty" yaml:"exit,omitempty"`

	// Join
	Strategy JoinStrategy `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	Inbound  []string     `json:"inbound,omitempty" yaml:"inbound,omitempty"`
	Quorum   int          `json:"quorum,omitempty" yaml:"quorum,omitempty"`
}

// TransitionKind discriminates whether a Transition always fires or is
// gated on a Condition.
type TransitionKind string

const (
	Always      TransitionKind = "always"
	Conditional TransitionKind = "conditional"
)

// Transition is an outbound edge from a node, optionally gated.
type Transition struct {
	From      string         `json:"from" yaml:"from"`
	To        string         `json:"to" yaml:"to"`
	Kind      TransitionKind `json:"type,omitempty" yaml:"type,omitempty"`
	Condition *Condition     `json:"condition,omitempty" yaml:"condition,omitempty"`
	Name      string         `json:"name,omitempty" yaml:"name,omitempty"`
}

// ConditionKind discriminates the tagged Condition union.
type ConditionKind string

const (
	CondStateEquals ConditionKind = "state_equals"
	CondStateExists ConditionKind = "state_exists"
	CondAlways      ConditionKind = "always"
	CondNot         ConditionKind = "not"
	CondAll         ConditionKind = "all"
	CondAny         ConditionKind = "any"
)

// Condition is an algebraic predicate evaluated against a scoped context
// store. See routing evaluation in the workflow package.
type Condition struct {
	Kind  ConditionKind `json:"kind" yaml:"kind"`
	Key   string        `json:"key,omitempty" yaml:"key,omitempty"`
	Value string        `json:"value,omitempty" yaml:"value,omitempty"`
	Not   *Condition    `json:"not,omitempty" yaml:"not,omitempty"`
	All   []Condition   `json:"all,omitempty" yaml:"all,omitempty"`
	Any   []Condition   `json:"any,omitempty" yaml:"any,omitempty"`
}

// StateEquals builds a Condition that matches when key resolves to value.
func StateEquals(key, value string) Condition {
	return Condition{Kind: CondStateEquals, Key: key, Value: value}
}

// StateExists builds a Condition that matches when key resolves to anything.
func StateExists(key string) Condition {
	return Condition{Kind: CondStateExists, Key: key}
}

// AlwaysCondition builds a Condition that always matches.
func AlwaysCondition() Condition {
	return Condition{Kind: CondAlways}
}

// NotCondition negates c.
func NotCondition(c Condition) Condition {
	return Condition{Kind: CondNot, Not: &c}
}

// AllConditions matches when every one of cs matches.
func AllConditions(cs ...Condition) Condition {
	return Condition{Kind: CondAll, All: cs}
}

// AnyConditions matches when at least one of cs matches.
func AnyConditions(cs ...Condition) Condition {
	return Condition{Kind: CondAny, Any: cs}
}

// Flow is the immutable, loaded, validated graph.
type Flow struct {
	Name        string                  `json:"name" yaml:"name"`
	Parameters  []Parameter             `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Variables   []Variable              `json:"variables,omitempty" yaml:"variables,omitempty"`
	Start       string                  `json:"start" yaml:"start"`
	Nodes       map[string]*Node        `json:"nodes" yaml:"nodes"`
	Transitions map[string][]Transition `json:"transitions" yaml:"transitions"`
}

// OutboundTransitions returns node's outbound transitions in configuration
// order — the tie-break order the executor uses to pick the first matching
// Conditional transition (spec.md section 4.2).
func (f *Flow) OutboundTransitions(node string) []Transition {
	return f.Transitions[node]
}
