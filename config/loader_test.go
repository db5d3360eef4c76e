package config

import (
	"testing"

	"github.com/flowmesh/engine/flowerr"
	"github.com/stretchr/testify/require"
)

const flatFixture = `{
  "agents": [
    {"name": "planner", "driver_id": "echo", "role": "a planner"},
    {"name": "finalizer", "driver_id": "echo", "role": "a finalizer"}
  ],
  "flow": {
    "name": "simple-chain",
    "start": "ingest",
    "nodes": [
      {"kind": "agent", "name": "ingest", "agent_ref": "planner"},
      {"kind": "agent", "name": "plan", "agent_ref": "planner"},
      {"kind": "agent", "name": "finish", "agent_ref": "finalizer"},
      {"kind": "terminal", "name": "done"}
    ],
    "transitions": [
      {"from": "ingest", "to": "plan"},
      {"from": "plan", "to": "finish"},
      {"from": "finish", "to": "done"}
    ]
  }
}`

func TestLoadFlatFormProducesValidatedBundle(t *testing.T) {
	b, err := Load([]byte(flatFixture))
	require.NoError(t, err)
	require.Equal(t, "simple-chain", b.Flow.Name)
	require.Equal(t, "ingest", b.Flow.Start)
	require.Len(t, b.Flow.Nodes, 4)
	require.Equal(t, []Transition{{From: "plan", To: "finish", Kind: Always}}, b.Flow.Transitions["plan"])
}

func TestLoadFlatFormExpandsEnvVars(t *testing.T) {
	t.Setenv("FLOWMESH_DRIVER", "echo")
	fixture := `{
	  "agents": [{"name": "a", "driver_id": "${FLOWMESH_DRIVER}"}],
	  "flow": {
	    "name": "f", "start": "n",
	    "nodes": [{"kind": "agent", "name": "n", "agent_ref": "a"}]
	  }
	}`
	b, err := Load([]byte(fixture))
	require.NoError(t, err)
	require.Equal(t, "echo", b.Agents["a"].DriverID)
}

func TestLoadFlatFormRejectsUnknownStartNode(t *testing.T) {
	fixture := `{"flow": {"name": "f", "start": "missing", "nodes": []}}`
	_, err := Load([]byte(fixture))
	require.Error(t, err)
}

const graphFixture = `{
  "nodes": [
    {"id": "wf", "type": "workflow", "config": {"name": "graph-flow", "start": "ingest"}},
    {"id": "ingest", "type": "agent_node", "config": {"agent_ref": "planner"}},
    {"id": "done", "type": "terminal_node", "config": {}}
  ],
  "edges": [
    {"from": "ingest", "to": "done"}
  ],
  "agents": [{"name": "planner", "driver_id": "echo"}]
}`

func TestLoadGraphFormFlattensWorkflowNode(t *testing.T) {
	b, err := Load([]byte(graphFixture))
	require.NoError(t, err)
	require.Equal(t, "graph-flow", b.Flow.Name)
	require.Equal(t, "ingest", b.Flow.Start)
	require.Len(t, b.Flow.Nodes, 2)
	require.Equal(t, NodeAgent, b.Flow.Nodes["ingest"].Kind)
}

func TestLoadGraphFormRejectsServiceNode(t *testing.T) {
	fixture := `{
	  "nodes": [
	    {"id": "wf", "type": "workflow", "config": {"name": "f", "start": "svc"}},
	    {"id": "svc", "type": "service", "config": {}}
	  ]
	}`
	_, err := Load([]byte(fixture))
	require.Error(t, err)
}

func TestLoadRejectsMissingTopLevelShape(t *testing.T) {
	_, err := Load([]byte(`{"foo": "bar"}`))
	require.Error(t, err)
}

const flatToolPipelineFixture = `{
  "pipelines": [
    {
      "id": "lookup",
      "strategy": {
        "kind": "sequential",
        "steps": [{"tool_name": "search"}]
      }
    }
  ],
  "flow": {
    "name": "tool-chain",
    "start": "lookup_node",
    "nodes": [
      {"kind": "tool", "name": "lookup_node", "pipeline_ref": "lookup"},
      {"kind": "terminal", "name": "done"}
    ],
    "transitions": [
      {"from": "lookup_node", "to": "done"}
    ]
  }
}`

func TestLoadFlatFormResolvesToolNodeThroughRegisteredPipeline(t *testing.T) {
	b, err := Load([]byte(flatToolPipelineFixture))
	require.NoError(t, err)
	require.Len(t, b.Pipelines, 1)
	pipeline, ok := b.Pipelines["lookup"]
	require.True(t, ok)
	require.Equal(t, StrategySequential, pipeline.Strategy.Kind)
	require.Len(t, pipeline.Strategy.Steps, 1)
	require.Equal(t, "search", pipeline.Strategy.Steps[0].ToolName)
	require.Equal(t, NodeTool, b.Flow.Nodes["lookup_node"].Kind)
}

func TestLoadFlatFormRejectsToolNodeWithUnregisteredPipeline(t *testing.T) {
	fixture := `{
	  "flow": {
	    "name": "f", "start": "n",
	    "nodes": [{"kind": "tool", "name": "n", "pipeline_ref": "missing"}]
	  }
	}`
	_, err := Load([]byte(fixture))
	require.Error(t, err)
	fe, ok := flowerr.As(err)
	require.True(t, ok)
	require.Equal(t, flowerr.KindToolMissing, fe.Kind)
}

const graphToolPipelineFixture = `{
  "pipelines": [
    {
      "id": "lookup",
      "strategy": {"kind": "fallback", "steps": [{"tool_name": "search"}]}
    }
  ],
  "nodes": [
    {"id": "wf", "type": "workflow", "config": {"name": "graph-tool-chain", "start": "lookup_node"}},
    {"id": "lookup_node", "type": "tool_node", "config": {"pipeline_ref": "lookup"}},
    {"id": "done", "type": "terminal_node", "config": {}}
  ],
  "edges": [
    {"from": "lookup_node", "to": "done"}
  ]
}`

func TestLoadGraphFormResolvesToolNodeThroughRegisteredPipeline(t *testing.T) {
	b, err := Load([]byte(graphToolPipelineFixture))
	require.NoError(t, err)
	require.Len(t, b.Pipelines, 1)
	require.Equal(t, StrategyFallback, b.Pipelines["lookup"].Strategy.Kind)
	require.Equal(t, NodeTool, b.Flow.Nodes["lookup_node"].Kind)
	require.Equal(t, "lookup", b.Flow.Nodes["lookup_node"].PipelineRef)
}

func TestLoadYAMLMatchesJSONEquivalent(t *testing.T) {
	yamlDoc := `
agents:
  - name: planner
    driver_id: echo
flow:
  name: simple-chain
  start: ingest
  nodes:
    - kind: agent
      name: ingest
      agent_ref: planner
    - kind: terminal
      name: done
  transitions:
    - from: ingest
      to: done
`
	b, err := LoadYAML([]byte(yamlDoc))
	require.NoError(t, err)
	require.Equal(t, "simple-chain", b.Flow.Name)
	require.Len(t, b.Flow.Nodes, 2)
}
