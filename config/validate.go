package config

import (
	"fmt"

	"github.com/flowmesh/engine/flowerr"
)

// Validate checks a loaded WorkflowBundle against the structural invariants
// of spec.md section 4.1: every reference must resolve, only a Decision's
// last branch may omit its condition, every Loop must be able to terminate, and no
// node or transition may be declared twice.
func Validate(b *WorkflowBundle) error {
	if b == nil || b.Flow == nil {
		return flowerr.New(flowerr.KindConfig, "configuration produced no flow")
	}
	f := b.Flow

	if f.Name == "" {
		return flowerr.New(flowerr.KindConfig, "flow must have a name")
	}
	if f.Start == "" {
		return flowerr.New(flowerr.KindConfig, "flow must declare a start node")
	}
	if _, ok := f.Nodes[f.Start]; !ok {
		return flowerr.New(flowerr.KindNodeNotFound, fmt.Sprintf("start node %q is not defined", f.Start))
	}

	for name, n := range f.Nodes {
		if n.Name == "" {
			n.Name = name
		}
		if err := validateNode(b, n); err != nil {
			return err
		}
	}

	for from, transitions := range f.Transitions {
		if _, ok := f.Nodes[from]; !ok {
			return flowerr.New(flowerr.KindNodeNotFound, fmt.Sprintf("transition source %q is not a defined node", from))
		}
		seen := make(map[string]bool)
		for _, t := range transitions {
			if _, ok := f.Nodes[t.To]; !ok {
				return flowerr.New(flowerr.KindNodeNotFound,
					fmt.Sprintf("transition %s -> %s: target is not a defined node", t.From, t.To))
			}
			if t.Kind == Conditional && t.Condition == nil {
				return flowerr.New(flowerr.KindConfig,
					fmt.Sprintf("transition %s -> %s: conditional transition has no condition", t.From, t.To))
			}
			dupKey := t.To + "|" + t.Name
			if seen[dupKey] {
				return flowerr.New(flowerr.KindConfig,
					fmt.Sprintf("duplicate transition %s -> %s", t.From, t.To))
			}
			seen[dupKey] = true
		}
	}

	return nil
}

func validateNode(b *WorkflowBundle, n *Node) error {
	f := b.Flow
	switch n.Kind {
	case NodeAgent:
		if n.AgentRef == "" {
			return flowerr.New(flowerr.KindConfig, fmt.Sprintf("node %q: agent node has no agent_ref", n.Name))
		}
		if _, ok := b.Agents[n.AgentRef]; !ok {
			return flowerr.New(flowerr.KindAgentMissing, fmt.Sprintf("node %q: agent %q is not registered", n.Name, n.AgentRef))
		}

	case NodeTool:
		if n.PipelineRef == "" {
			return flowerr.New(flowerr.KindConfig, fmt.Sprintf("node %q: tool node has no pipeline_ref", n.Name))
		}
		if _, ok := b.Pipelines[n.PipelineRef]; !ok {
			return flowerr.New(flowerr.KindToolMissing, fmt.Sprintf("node %q: pipeline %q is not registered", n.Name, n.PipelineRef))
		}

	case NodeDecision:
		if len(n.Branches) == 0 {
			return flowerr.New(flowerr.KindConfig, fmt.Sprintf("node %q: decision node has no branches", n.Name))
		}
		for i, branch := range n.Branches {
			if branch.Target == "" {
				return flowerr.New(flowerr.KindConfig, fmt.Sprintf("node %q: branch %d has no target", n.Name, i))
			}
			if _, ok := f.Nodes[branch.Target]; !ok {
				return flowerr.New(flowerr.KindNodeNotFound, fmt.Sprintf("node %q: branch target %q is not defined", n.Name, branch.Target))
			}
			isLast := i == len(n.Branches)-1
			if branch.Condition == nil && !isLast {
				return flowerr.New(flowerr.KindConfig,
					fmt.Sprintf("node %q: only the last branch may omit a condition (found unconditioned branch %d of %d)", n.Name, i, len(n.Branches)))
			}
		}

	case NodeLoop:
		if n.Entry == "" {
			return flowerr.New(flowerr.KindConfig, fmt.Sprintf("node %q: loop node has no entry", n.Name))
		}
		if _, ok := f.Nodes[n.Entry]; !ok {
			return flowerr.New(flowerr.KindNodeNotFound, fmt.Sprintf("node %q: loop entry %q is not defined", n.Name, n.Entry))
		}
		if n.MaxIterations == nil && n.LoopCondition == nil {
			return flowerr.New(flowerr.KindConfig,
				fmt.Sprintf("node %q: loop has neither max_iterations nor an exit condition — it cannot terminate", n.Name))
		}
		if n.MaxIterations != nil && *n.MaxIterations < 1 {
			return flowerr.New(flowerr.KindConfig, fmt.Sprintf("node %q: max_iterations must be >= 1", n.Name))
		}
		if n.Exit != "" {
			if _, ok := f.Nodes[n.Exit]; !ok {
				return flowerr.New(flowerr.KindNodeNotFound, fmt.Sprintf("node %q: loop exit %q is not defined", n.Name, n.Exit))
			}
		}

	case NodeJoin:
		if len(n.Inbound) == 0 {
			return flowerr.New(flowerr.KindConfig, fmt.Sprintf("node %q: join node has no inbound branches", n.Name))
		}
		switch n.Strategy {
		case JoinAll, JoinAny:
		case JoinQuorum:
			if n.Quorum < 1 || n.Quorum > len(n.Inbound) {
				return flowerr.New(flowerr.KindConfig,
					fmt.Sprintf("node %q: quorum %d is out of range for %d inbound branches", n.Name, n.Quorum, len(n.Inbound)))
			}
		default:
			return flowerr.New(flowerr.KindConfig, fmt.Sprintf("node %q: unknown join strategy %q", n.Name, n.Strategy))
		}

	case NodeTerminal:
		// no required fields

	default:
		return flowerr.New(flowerr.KindConfig, fmt.Sprintf("node %q: unknown node kind %q", n.Name, n.Kind))
	}
	return nil
}
