package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/flowmesh/engine/config"
	"github.com/flowmesh/engine/flowctx"
	"github.com/stretchr/testify/require"
)

func newTestFlowContext() *flowctx.FlowContext {
	return flowctx.New(flowctx.NewInMemoryStore())
}

func TestSequentialPipelineChainsStepOutputAsNextInput(t *testing.T) {
	reg := NewToolRegistry()
	require.NoError(t, reg.RegisterTool("alpha", newFakeTool("alpha")))
	require.NoError(t, reg.RegisterTool("beta", newFakeTool("beta")))

	pipeline := &config.ToolPipeline{
		ID: "alpha-then-beta",
		Strategy: config.ToolStrategy{
			Kind: config.StrategySequential,
			Steps: []config.ToolStep{
				{ToolName: "alpha"},
				{ToolName: "beta", InputTemplate: json.RawMessage(`{"extra":"from-template"}`)},
			},
		},
	}

	o := NewToolOrchestrator(reg)
	result, err := o.Execute(context.Background(), pipeline, json.RawMessage(`{"seed":1}`), newTestFlowContext())
	require.NoError(t, err)
	require.Equal(t, "beta", result.From)

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(result.Content), &out))
	betaInput := out["input"].(map[string]any)
	require.Equal(t, "from-template", betaInput["extra"])

	innerInput := betaInput["input"].(map[string]any)
	require.Equal(t, float64(1), innerInput["seed"])
}

func TestSequentialPipelineTemplateWinsOnCollision(t *testing.T) {
	reg := NewToolRegistry()
	require.NoError(t, reg.RegisterTool("alpha", newFakeTool("alpha")))

	pipeline := &config.ToolPipeline{
		ID: "override",
		Strategy: config.ToolStrategy{
			Kind: config.StrategySequential,
			Steps: []config.ToolStep{
				{ToolName: "alpha", InputTemplate: json.RawMessage(`{"seed":99}`)},
			},
		},
	}

	o := NewToolOrchestrator(reg)
	result, err := o.Execute(context.Background(), pipeline, json.RawMessage(`{"seed":1}`), newTestFlowContext())
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(result.Content), &out))
	input := out["input"].(map[string]any)
	require.Equal(t, float64(99), input["seed"])
}

func TestParallelPipelineAggregatesInDeclarationOrder(t *testing.T) {
	reg := NewToolRegistry()
	require.NoError(t, reg.RegisterTool("alpha", newFakeTool("alpha")))
	require.NoError(t, reg.RegisterTool("beta", newFakeTool("beta")))

	pipeline := &config.ToolPipeline{
		ID: "parallel-pipe",
		Strategy: config.ToolStrategy{
			Kind: config.StrategyParallel,
			Steps: []config.ToolStep{
				{ToolName: "alpha"},
				{ToolName: "beta"},
			},
		},
	}

	o := NewToolOrchestrator(reg)
	result, err := o.Execute(context.Background(), pipeline, json.RawMessage(`{}`), newTestFlowContext())
	require.NoError(t, err)
	require.Equal(t, "parallel-pipe", result.From)

	var out []stepOutput
	require.NoError(t, json.Unmarshal([]byte(result.Content), &out))
	require.Len(t, out, 2)
	require.Equal(t, "alpha", out[0].Step)
	require.Equal(t, "beta", out[1].Step)
}

func TestFallbackPipelineFallsThroughToNextStepOnFailure(t *testing.T) {
	reg := NewToolRegistry()
	flaky := newFakeTool("flaky")
	flaky.failTimes = 1
	require.NoError(t, reg.RegisterTool("flaky", flaky))
	require.NoError(t, reg.RegisterTool("stable", newFakeTool("stable")))

	pipeline := &config.ToolPipeline{
		ID: "fallback-pipe",
		Strategy: config.ToolStrategy{
			Kind: config.StrategyFallback,
			Steps: []config.ToolStep{
				{ToolName: "flaky"},
				{ToolName: "stable"},
			},
		},
	}

	o := NewToolOrchestrator(reg)
	result, err := o.Execute(context.Background(), pipeline, json.RawMessage(`{}`), newTestFlowContext())
	require.NoError(t, err)
	require.Equal(t, "stable", result.From)
}

func TestFallbackPipelineWithRetrySucceedsWithoutFallingThrough(t *testing.T) {
	reg := NewToolRegistry()
	flaky := newFakeTool("flaky")
	flaky.failTimes = 1
	require.NoError(t, reg.RegisterTool("flaky", flaky))
	require.NoError(t, reg.RegisterTool("stable", newFakeTool("stable")))

	pipeline := &config.ToolPipeline{
		ID: "fallback-retry",
		Strategy: config.ToolStrategy{
			Kind: config.StrategyFallback,
			Steps: []config.ToolStep{
				{ToolName: "flaky", Retries: 1},
				{ToolName: "stable"},
			},
		},
	}

	o := NewToolOrchestrator(reg)
	result, err := o.Execute(context.Background(), pipeline, json.RawMessage(`{}`), newTestFlowContext())
	require.NoError(t, err)
	require.Equal(t, "flaky", result.From)
}

func TestFallbackPipelineFailsWhenAllStepsFail(t *testing.T) {
	reg := NewToolRegistry()
	bad1 := newFakeTool("bad1")
	bad1.failTimes = 100
	bad2 := newFakeTool("bad2")
	bad2.failTimes = 100
	require.NoError(t, reg.RegisterTool("bad1", bad1))
	require.NoError(t, reg.RegisterTool("bad2", bad2))

	pipeline := &config.ToolPipeline{
		ID: "all-fail",
		Strategy: config.ToolStrategy{
			Kind:  config.StrategyFallback,
			Steps: []config.ToolStep{{ToolName: "bad1"}, {ToolName: "bad2"}},
		},
	}

	o := NewToolOrchestrator(reg)
	_, err := o.Execute(context.Background(), pipeline, json.RawMessage(`{}`), newTestFlowContext())
	require.Error(t, err)
}

func TestExecuteRejectsMissingTool(t *testing.T) {
	reg := NewToolRegistry()
	pipeline := &config.ToolPipeline{
		ID: "missing",
		Strategy: config.ToolStrategy{
			Kind:  config.StrategySequential,
			Steps: []config.ToolStep{{ToolName: "nope"}},
		},
	}
	o := NewToolOrchestrator(reg)
	_, err := o.Execute(context.Background(), pipeline, json.RawMessage(`{}`), newTestFlowContext())
	require.Error(t, err)
}
