package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/flowmesh/engine/config"
	"github.com/flowmesh/engine/decision"
	"github.com/flowmesh/engine/flowctx"
	"github.com/flowmesh/engine/flowerr"
	"github.com/flowmesh/engine/message"
)

// dispatchDecision implements the Decision handler of spec.md section 4.6.
func (e *FlowExecutor) dispatchDecision(ctx context.Context, fc *flowctx.FlowContext, node *config.Node) (message.Message, decision.Decision, error) {
	switch node.Policy {
	case config.AllMatches:
		return e.decisionAllMatches(ctx, fc, node)
	default:
		return e.decisionFirstMatch(ctx, fc, node)
	}
}

// evaluateBranch treats an unconditioned branch as unconditionally
// matching, per spec.md section 4.6 ("a branch without a condition acts
// as unconditional").
func evaluateBranch(ctx context.Context, fc *flowctx.FlowContext, b config.DecisionBranch) (bool, error) {
	if b.Condition == nil {
		return true, nil
	}
	return EvaluateCondition(ctx, b.Condition, fc)
}

func (e *FlowExecutor) decisionFirstMatch(ctx context.Context, fc *flowctx.FlowContext, node *config.Node) (message.Message, decision.Decision, error) {
	for _, b := range node.Branches {
		matched, err := evaluateBranch(ctx, fc, b)
		if err != nil {
			continue
		}
		if matched {
			return decisionMessage(node.Name, b.Target), decision.Continue(b.Target), nil
		}
	}
	return message.Message{}, decision.Decision{}, flowerr.WithNode(flowerr.KindOther, node.Name, "no decision branch matched", nil)
}

// decisionAllMatches collects every matching branch's target. A branch
// with no condition matches unconditionally exactly as in FirstMatch, so
// it naturally serves as the "default branch" spec.md section 4.6
// describes as the AllMatches fallback: if it is present the collected
// targets can never come back empty. This is recorded as an open
// question resolution in DESIGN.md.
func (e *FlowExecutor) decisionAllMatches(ctx context.Context, fc *flowctx.FlowContext, node *config.Node) (message.Message, decision.Decision, error) {
	var targets []string
	for _, b := range node.Branches {
		matched, err := evaluateBranch(ctx, fc, b)
		if err != nil {
			continue
		}
		if matched {
			targets = append(targets, b.Target)
		}
	}
	if len(targets) == 0 {
		return message.Message{}, decision.Decision{}, flowerr.WithNode(flowerr.KindOther, node.Name, "no decision branch matched", nil)
	}
	return decisionMessage(node.Name, strings.Join(targets, ",")), decision.Fanout(targets), nil
}

func decisionMessage(nodeName, target string) message.Message {
	return message.New(message.RoleSystem, nodeName, "", fmt.Sprintf(`{"decision":%q}`, target))
}

// dispatchLoop implements the Loop handler of spec.md section 4.6.
func (e *FlowExecutor) dispatchLoop(ctx context.Context, fc *flowctx.FlowContext, st *execState, node *config.Node) (message.Message, decision.Decision, error) {
	ls, firstEntry := st.loopEntry(node.Name)
	if firstEntry {
		ls.guard = fc.EnterScope(flowctx.ScopeNode, node.Name)
		return loopMessage(node.Name, "enter"), decision.Continue(node.Entry), nil
	}

	ls.iterations++

	cond := true
	if node.LoopCondition != nil {
		var err error
		cond, err = EvaluateCondition(ctx, node.LoopCondition, fc)
		if err != nil {
			cond = false
		}
	}

	maxIterations := -1
	if node.MaxIterations != nil {
		maxIterations = *node.MaxIterations
	}
	limitReached := maxIterations >= 0 && ls.iterations >= maxIterations

	if cond && !limitReached {
		return loopMessage(node.Name, "continue"), decision.Continue(node.Entry), nil
	}

	_ = ls.guard.Drop(ctx)
	st.clearLoop(node.Name)

	if node.Exit != "" {
		return loopMessage(node.Name, "exit"), decision.Continue(node.Exit), nil
	}
	if limitReached {
		return message.Message{}, decision.Decision{}, flowerr.WithNode(flowerr.KindLoopExceeded, node.Name, "iteration limit exceeded without an exit", nil)
	}
	return loopMessage(node.Name, "exit"), decision.Follow(), nil
}

func loopMessage(nodeName, phase string) message.Message {
	return message.New(message.RoleSystem, nodeName, "", fmt.Sprintf(`{"loop":%q}`, phase))
}

// dispatchJoin implements the Join handler of spec.md section 4.6. A
// return of (zero Message, zero Decision, nil) means the arrival was
// recorded but the barrier has not released yet (or already has, and
// this is a discarded late arrival) — the executor ends this branch's
// path silently.
func (e *FlowExecutor) dispatchJoin(ctx context.Context, fc *flowctx.FlowContext, st *execState, node *config.Node, incoming message.Message) (message.Message, decision.Decision, error) {
	corr := correlationID(fc, incoming)
	barrier := st.joinBarrierFor(node.Name, corr)

	barrier.mu.Lock()
	if barrier.released {
		barrier.mu.Unlock()
		return message.Message{}, decision.Decision{}, nil
	}

	arrivedFrom := incoming.From
	barrier.arrived[arrivedFrom] = incoming

	var release bool
	switch node.Strategy {
	case config.JoinAny:
		release = true
	case config.JoinQuorum:
		release = len(barrier.arrived) >= node.Quorum
	default: // JoinAll
		release = allInboundArrived(node.Inbound, barrier.arrived)
	}
	if !release {
		barrier.mu.Unlock()
		return message.Message{}, decision.Decision{}, nil
	}

	barrier.released = true
	joined := make([]any, len(node.Inbound))
	for i, name := range node.Inbound {
		if m, ok := barrier.arrived[name]; ok {
			joined[i] = decodeJoinedPayload(m.Content)
		}
	}
	barrier.mu.Unlock()
	st.clearJoin(node.Name, corr)

	out, err := message.Encode(message.RoleSystem, node.Name, "", map[string]any{"joined": joined})
	if err != nil {
		return message.Message{}, decision.Decision{}, flowerr.WithNode(flowerr.KindOther, node.Name, "encode join result", err)
	}
	return out, decision.Follow(), nil
}

func allInboundArrived(inbound []string, arrived map[string]message.Message) bool {
	for _, name := range inbound {
		if _, ok := arrived[name]; !ok {
			return false
		}
	}
	return true
}

func decodeJoinedPayload(content string) any {
	var v any
	if err := json.Unmarshal([]byte(content), &v); err == nil {
		return v
	}
	return content
}

// correlationID defaults to the execution id (fc.ID()), overridable by an
// arriving message's metadata (spec.md section 4.6).
func correlationID(fc *flowctx.FlowContext, incoming message.Message) string {
	if incoming.Metadata != nil {
		if v, ok := incoming.Metadata["correlation_id"].(string); ok && v != "" {
			return v
		}
	}
	return fc.ID()
}
