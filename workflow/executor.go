// Package workflow implements FlowExecutor, the top-level state machine
// that drives a loaded Flow from its start node to a Terminal, dispatching
// to the Agent, Tool, Decision, Loop, Join, and Terminal node handlers
// (spec.md section 4.2).
package workflow

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/flowmesh/engine/agent"
	"github.com/flowmesh/engine/config"
	"github.com/flowmesh/engine/decision"
	"github.com/flowmesh/engine/flowctx"
	"github.com/flowmesh/engine/flowerr"
	"github.com/flowmesh/engine/message"
	"github.com/flowmesh/engine/tools"
	"golang.org/x/sync/errgroup"
)

// FlowExecutor drives one Flow's graph to completion over a FlowContext.
// A Flow, its Agents, and its Pipelines are immutable after load and safe
// to share across concurrent Run calls (spec.md section 5); a single Run
// call's own bookkeeping (loop counters, join barriers) lives in a fresh
// execState and never leaks into another execution.
type FlowExecutor struct {
	Flow      *config.Flow
	Agents    map[string]*config.AgentDescriptor
	Pipelines map[string]*config.ToolPipeline

	Runner *agent.AgentRunner
	Tools  *tools.ToolOrchestrator

	// ParallelLimit bounds concurrent fanout branches; zero means no cap
	// (spec.md section 9's "Concurrency" design note).
	ParallelLimit int
}

// NewFlowExecutor builds an executor over a loaded WorkflowBundle.
func NewFlowExecutor(bundle *config.WorkflowBundle, runner *agent.AgentRunner, orchestrator *tools.ToolOrchestrator) *FlowExecutor {
	return &FlowExecutor{
		Flow:      bundle.Flow,
		Agents:    bundle.Agents,
		Pipelines: bundle.Pipelines,
		Runner:    runner,
		Tools:     orchestrator,
	}
}

// Run drives initial from its target node (or the flow's start node, if
// initial carries none) to a Terminal or to exhaustion, returning an
// ExecutionResult that is never nil even on fatal failure (spec.md
// section 7: "a failing execution still returns an ExecutionResult").
func (e *FlowExecutor) Run(ctx context.Context, fc *flowctx.FlowContext, initial message.Message) *ExecutionResult {
	res := &ExecutionResult{FlowName: e.Flow.Name}
	st := newExecState()

	fc.AppendHistory(initial)
	start := initial.To
	if start == "" {
		start = e.Flow.Start
	}
	e.runPath(ctx, fc, st, res, start, initial)
	return res
}

// runPath walks a single sequential path of the graph, starting at
// current, until it reaches a Terminal (Stop), a dead end, a fatal error,
// or a Fanout (at which point it spawns one runPath per branch and
// returns once they all finish).
func (e *FlowExecutor) runPath(ctx context.Context, fc *flowctx.FlowContext, st *execState, res *ExecutionResult, current string, incoming message.Message) {
	for {
		select {
		case <-ctx.Done():
			res.addError(flowerr.WithNode(flowerr.KindCancelled, current, "execution cancelled", ctx.Err()))
			res.setLastNode(current)
			return
		default:
		}

		node, ok := e.Flow.Nodes[current]
		if !ok {
			res.addError(flowerr.New(flowerr.KindNodeNotFound, fmt.Sprintf("node %q not found", current)))
			return
		}

		emitted, next, err := e.dispatch(ctx, fc, st, node, incoming)
		if err != nil {
			ferr, ok := flowerr.As(err)
			if !ok {
				ferr = flowerr.Wrap(flowerr.KindOther, "node handler failed", err)
			}
			if ferr.Node == "" {
				ferr.Node = current
			}
			res.addError(ferr)
			if flowerr.IsFatal(ferr.Kind) || next.IsZero() {
				res.setLastNode(current)
				return
			}
		}

		if emitted.ID != "" {
			fc.AppendHistory(emitted)
			res.setLastMessage(emitted)
		}

		switch next.Kind {
		case decision.KindStop:
			res.setLastNode(current)
			return
		case decision.KindContinue:
			incoming = emitted
			current = next.Target
		case decision.KindFollow:
			target, ferr := e.followTransitions(ctx, fc, res, current)
			if ferr != nil {
				res.addError(ferr)
				res.setLastNode(current)
				return
			}
			incoming = emitted
			current = target
		case decision.KindFanout:
			e.runFanout(ctx, fc, st, res, next.Targets, emitted)
			return
		default:
			// Zero decision: this path was absorbed without producing a
			// usable continuation (e.g. a non-releasing Join arrival).
			return
		}
	}
}

// followTransitions evaluates current's outbound transitions in
// configuration order, returning the first whose condition holds (an
// Always transition always holds). A Conditional transition whose
// condition errors is treated as false and recorded (spec.md section
// 4.2); no match is an error.
func (e *FlowExecutor) followTransitions(ctx context.Context, fc *flowctx.FlowContext, res *ExecutionResult, current string) (string, *flowerr.Error) {
	for _, t := range e.Flow.OutboundTransitions(current) {
		if t.Kind != config.Conditional {
			return t.To, nil
		}
		ok, cerr := EvaluateCondition(ctx, t.Condition, fc)
		if cerr != nil {
			res.addError(flowerr.WithNode(flowerr.KindOther, current, "condition evaluation failed, treated as false", cerr))
			continue
		}
		if ok {
			return t.To, nil
		}
	}
	return "", flowerr.WithNode(flowerr.KindOther, current, "no outbound transition matched", nil)
}

// runFanout spawns one concurrent runPath per target (Decision.AllMatches,
// spec.md section 4.6) and waits for all of them. Any join barrier left
// unreleased once every branch has finished can never receive another
// arrival, which is the JoinDeadlock condition (spec.md section 7).
func (e *FlowExecutor) runFanout(ctx context.Context, fc *flowctx.FlowContext, st *execState, res *ExecutionResult, targets []string, incoming message.Message) {
	g, gctx := errgroup.WithContext(ctx)
	if e.ParallelLimit > 0 {
		g.SetLimit(e.ParallelLimit)
	}
	for _, target := range targets {
		target := target
		g.Go(func() error {
			e.runPath(gctx, fc, st, res, target, incoming)
			return nil
		})
	}
	_ = g.Wait()

	for _, node := range st.unreleasedJoinNodes() {
		res.addError(flowerr.WithNode(flowerr.KindJoinDeadlock, node, "fanout completed without releasing join barrier", nil))
	}
}

// dispatch invokes the handler for node.Kind (spec.md sections 4.3–4.7).
func (e *FlowExecutor) dispatch(ctx context.Context, fc *flowctx.FlowContext, st *execState, node *config.Node, incoming message.Message) (message.Message, decision.Decision, error) {
	switch node.Kind {
	case config.NodeAgent:
		return e.dispatchAgent(ctx, fc, node, incoming)
	case config.NodeTool:
		return e.dispatchTool(ctx, fc, node, incoming)
	case config.NodeDecision:
		return e.dispatchDecision(ctx, fc, node)
	case config.NodeLoop:
		return e.dispatchLoop(ctx, fc, st, node)
	case config.NodeJoin:
		return e.dispatchJoin(ctx, fc, st, node, incoming)
	case config.NodeTerminal:
		return message.Message{}, decision.Stop(), nil
	default:
		return message.Message{}, decision.Decision{}, flowerr.New(flowerr.KindOther, fmt.Sprintf("unknown node kind %q", node.Kind))
	}
}

func (e *FlowExecutor) dispatchAgent(ctx context.Context, fc *flowctx.FlowContext, node *config.Node, incoming message.Message) (message.Message, decision.Decision, error) {
	desc, ok := e.Agents[node.AgentRef]
	if !ok {
		return message.Message{}, decision.Decision{}, flowerr.New(flowerr.KindAgentMissing, fmt.Sprintf("agent_ref %q not registered", node.AgentRef))
	}
	candidates := append(e.outboundNodeNames(node.Name), desc.RouteTargets...)
	return e.Runner.Run(ctx, desc, fc, incoming, candidates)
}

func (e *FlowExecutor) dispatchTool(ctx context.Context, fc *flowctx.FlowContext, node *config.Node, incoming message.Message) (message.Message, decision.Decision, error) {
	pipeline, ok := e.Pipelines[node.PipelineRef]
	if !ok {
		return message.Message{}, decision.Decision{}, flowerr.New(flowerr.KindToolMissing, fmt.Sprintf("pipeline_ref %q not registered", node.PipelineRef))
	}
	out, err := e.Tools.Execute(ctx, pipeline, json.RawMessage(incoming.Content), fc)
	if err != nil {
		return message.Message{}, decision.Decision{}, err
	}
	return out, decision.Follow(), nil
}

func (e *FlowExecutor) outboundNodeNames(nodeName string) []string {
	transitions := e.Flow.OutboundTransitions(nodeName)
	names := make([]string, 0, len(transitions))
	for _, t := range transitions {
		names = append(names, t.To)
	}
	return names
}
