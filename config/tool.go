package config

import "encoding/json"

// StrategyKind discriminates the tagged ToolStrategy union.
type StrategyKind string

const (
	StrategySequential StrategyKind = "sequential"
	StrategyParallel   StrategyKind = "parallel"
	StrategyFallback   StrategyKind = "fallback"
)

// ToolStep is one step of a ToolPipeline.
type ToolStep struct {
	ToolName      string          `json:"tool_name" yaml:"tool_name"`
	InputTemplate json.RawMessage `json:"input_template,omitempty" yaml:"input_template,omitempty"`
	Retries       uint32          `json:"retries,omitempty" yaml:"retries,omitempty"`

	// TimeoutSeconds bounds a single tool call (spec.md section 5); zero
	// means no timeout is applied.
	TimeoutSeconds int `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`
}

// ToolStrategy is the tagged union of pipeline execution strategies.
type ToolStrategy struct {
	Kind  StrategyKind `json:"kind" yaml:"kind"`
	Steps []ToolStep   `json:"steps" yaml:"steps"`
}

// ToolPipeline is a named composition of tool steps under a strategy.
type ToolPipeline struct {
	ID       string       `json:"id" yaml:"id"`
	Strategy ToolStrategy `json:"strategy" yaml:"strategy"`
}

// ToolDescriptor is a flat-form registration of a tool's manifest (the
// concrete Tool capability implementation is supplied at runtime by the
// host program and registered against this name).
type ToolDescriptor struct {
	Name        string        `json:"name" yaml:"name"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	Manifest    *ToolManifest `json:"manifest,omitempty" yaml:"manifest,omitempty"`
}

// WorkflowBundle is the Loader's output: a verified Flow plus the agent and
// tool-pipeline registries it references (spec.md section 4.1).
type WorkflowBundle struct {
	Flow      *Flow
	Agents    map[string]*AgentDescriptor
	Tools     []ToolDescriptor
	Pipelines map[string]*ToolPipeline
}
