package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/flowmesh/engine/config"
	"github.com/flowmesh/engine/flowctx"
	"github.com/flowmesh/engine/flowerr"
	"github.com/flowmesh/engine/message"
	"golang.org/x/sync/errgroup"
)

// ToolOrchestrator dispatches named ToolPipeline configurations over a
// ToolRegistry, implementing the Sequential, Parallel, and Fallback
// strategies of spec.md section 4.4.
type ToolOrchestrator struct {
	registry *ToolRegistry
}

// NewToolOrchestrator builds an orchestrator backed by registry.
func NewToolOrchestrator(registry *ToolRegistry) *ToolOrchestrator {
	return &ToolOrchestrator{registry: registry}
}

// Execute runs pipeline against input (the node's invocation payload),
// returning the pipeline's output Message.
func (o *ToolOrchestrator) Execute(ctx context.Context, pipeline *config.ToolPipeline, input json.RawMessage, fc *flowctx.FlowContext) (message.Message, error) {
	switch pipeline.Strategy.Kind {
	case config.StrategySequential:
		return o.runSequential(ctx, pipeline, input, fc)
	case config.StrategyParallel:
		return o.runParallel(ctx, pipeline, input, fc)
	case config.StrategyFallback:
		return o.runFallback(ctx, pipeline, input, fc)
	default:
		return message.Message{}, flowerr.New(flowerr.KindConfig, fmt.Sprintf("tools: unknown strategy %q", pipeline.Strategy.Kind))
	}
}

// runSequential feeds each step's output forward as the next step's input,
// merging the step's own input_template on top (template keys win).
func (o *ToolOrchestrator) runSequential(ctx context.Context, pipeline *config.ToolPipeline, input json.RawMessage, fc *flowctx.FlowContext) (message.Message, error) {
	current := input
	var last message.Message

	for _, step := range pipeline.Strategy.Steps {
		merged, err := mergeJSON(current, step.InputTemplate)
		if err != nil {
			return message.Message{}, flowerr.Wrap(flowerr.KindToolFailure, "tools: merge sequential step input", err)
		}

		result, err := o.invokeWithRetries(ctx, step, merged, fc)
		if err != nil {
			return message.Message{}, flowerr.Wrap(flowerr.KindToolFailure, fmt.Sprintf("tools: sequential pipeline %q step %q failed", pipeline.ID, step.ToolName), err)
		}
		last = result
		current = json.RawMessage(result.Content)
	}
	return last, nil
}

// stepOutput is one entry of a Parallel pipeline's aggregated output array.
type stepOutput struct {
	Step   string `json:"step"`
	Output any    `json:"output"`
}

// runParallel invokes every step concurrently with the same original
// input (each merged with its own input_template), and aggregates results
// in declaration order regardless of completion order.
func (o *ToolOrchestrator) runParallel(ctx context.Context, pipeline *config.ToolPipeline, input json.RawMessage, fc *flowctx.FlowContext) (message.Message, error) {
	steps := pipeline.Strategy.Steps
	outputs := make([]stepOutput, len(steps))

	g, gctx := errgroup.WithContext(ctx)
	for i, step := range steps {
		i, step := i, step
		g.Go(func() error {
			merged, err := mergeJSON(input, step.InputTemplate)
			if err != nil {
				return flowerr.Wrap(flowerr.KindToolFailure, "tools: merge parallel step input", err)
			}
			result, err := o.invokeWithRetries(gctx, step, merged, fc)
			if err != nil {
				return flowerr.Wrap(flowerr.KindToolFailure, fmt.Sprintf("tools: parallel pipeline %q step %q failed", pipeline.ID, step.ToolName), err)
			}
			var parsed any
			if err := json.Unmarshal([]byte(result.Content), &parsed); err != nil {
				parsed = result.Content
			}
			outputs[i] = stepOutput{Step: step.ToolName, Output: parsed}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return message.Message{}, err
	}

	return message.Encode(message.RoleTool, pipeline.ID, "", outputs)
}

// runFallback tries each step in order and returns the first success. If
// every step fails, the last failure is returned.
func (o *ToolOrchestrator) runFallback(ctx context.Context, pipeline *config.ToolPipeline, input json.RawMessage, fc *flowctx.FlowContext) (message.Message, error) {
	var lastErr error
	for _, step := range pipeline.Strategy.Steps {
		merged, err := mergeJSON(input, step.InputTemplate)
		if err != nil {
			lastErr = err
			continue
		}
		result, err := o.invokeWithRetries(ctx, step, merged, fc)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}
	return message.Message{}, flowerr.Wrap(flowerr.KindToolFailure, fmt.Sprintf("tools: fallback pipeline %q: all steps failed", pipeline.ID), lastErr)
}

// invokeWithRetries invokes step.ToolName up to 1+step.Retries times,
// returning the first success. A missing tool is not retried.
func (o *ToolOrchestrator) invokeWithRetries(ctx context.Context, step config.ToolStep, input json.RawMessage, fc *flowctx.FlowContext) (message.Message, error) {
	tool, err := o.registry.Resolve(step.ToolName)
	if err != nil {
		return message.Message{}, err
	}

	var lastErr error
	attempts := 1 + int(step.Retries)
	for i := 0; i < attempts; i++ {
		callCtx := ctx
		var cancel context.CancelFunc
		if step.TimeoutSeconds > 0 {
			callCtx, cancel = context.WithTimeout(ctx, time.Duration(step.TimeoutSeconds)*time.Second)
		}
		result, err := tool.Invoke(callCtx, input, fc)
		if cancel != nil {
			cancel()
		}
		if err == nil {
			return result, nil
		}
		lastErr = err
	}
	return message.Message{}, lastErr
}

// mergeJSON merges template over base (both JSON objects; nil/empty is
// treated as {}), with template keys winning on collision.
func mergeJSON(base, template json.RawMessage) (json.RawMessage, error) {
	baseMap := map[string]any{}
	if len(base) > 0 {
		if err := json.Unmarshal(base, &baseMap); err != nil {
			return nil, fmt.Errorf("tools: merge: base is not a JSON object: %w", err)
		}
	}
	if len(template) > 0 {
		templateMap := map[string]any{}
		if err := json.Unmarshal(template, &templateMap); err != nil {
			return nil, fmt.Errorf("tools: merge: input_template is not a JSON object: %w", err)
		}
		for k, v := range templateMap {
			baseMap[k] = v
		}
	}
	return json.Marshal(baseMap)
}
