package config

import (
	"testing"

	"github.com/flowmesh/engine/flowerr"
	"github.com/stretchr/testify/require"
)

func bundleWithNodes(start string, nodes map[string]*Node) *WorkflowBundle {
	return &WorkflowBundle{
		Flow: &Flow{
			Name:        "test",
			Start:       start,
			Nodes:       nodes,
			Transitions: map[string][]Transition{},
		},
		Agents:    map[string]*AgentDescriptor{},
		Pipelines: map[string]*ToolPipeline{},
	}
}

func TestValidateRejectsDecisionWithUnconditionedNonLastBranch(t *testing.T) {
	cond := StateExists("x")
	b := bundleWithNodes("d", map[string]*Node{
		"d":    {Kind: NodeDecision, Name: "d", Branches: []DecisionBranch{{Target: "end"}, {Condition: &cond, Target: "end"}}},
		"end":  {Kind: NodeTerminal, Name: "end"},
	})
	err := Validate(b)
	require.Error(t, err)
	fe, ok := flowerr.As(err)
	require.True(t, ok)
	require.Equal(t, flowerr.KindConfig, fe.Kind)
}

func TestValidateAcceptsDecisionWithUnconditionedLastBranch(t *testing.T) {
	cond := StateExists("x")
	b := bundleWithNodes("d", map[string]*Node{
		"d": {Kind: NodeDecision, Name: "d", Branches: []DecisionBranch{
			{Condition: &cond, Target: "a"},
			{Target: "b"},
		}},
		"a": {Kind: NodeTerminal, Name: "a"},
		"b": {Kind: NodeTerminal, Name: "b"},
	})
	require.NoError(t, Validate(b))
}

func TestValidateRejectsLoopWithNoTerminationMechanism(t *testing.T) {
	b := bundleWithNodes("l", map[string]*Node{
		"l":     {Kind: NodeLoop, Name: "l", Entry: "body"},
		"body":  {Kind: NodeTerminal, Name: "body"},
	})
	err := Validate(b)
	require.Error(t, err)
}

func TestValidateAcceptsLoopWithMaxIterationsOnly(t *testing.T) {
	max := 3
	b := bundleWithNodes("l", map[string]*Node{
		"l":    {Kind: NodeLoop, Name: "l", Entry: "body", MaxIterations: &max},
		"body": {Kind: NodeTerminal, Name: "body"},
	})
	require.NoError(t, Validate(b))
}

func TestValidateRejectsLoopWithZeroMaxIterations(t *testing.T) {
	zero := 0
	b := bundleWithNodes("l", map[string]*Node{
		"l":    {Kind: NodeLoop, Name: "l", Entry: "body", MaxIterations: &zero},
		"body": {Kind: NodeTerminal, Name: "body"},
	})
	require.Error(t, Validate(b))
}

func TestValidateRejectsJoinQuorumOutOfRange(t *testing.T) {
	b := bundleWithNodes("j", map[string]*Node{
		"j": {Kind: NodeJoin, Name: "j", Strategy: JoinQuorum, Quorum: 5, Inbound: []string{"a", "b"}},
	})
	require.Error(t, Validate(b))
}

func TestValidateAcceptsJoinAll(t *testing.T) {
	b := bundleWithNodes("j", map[string]*Node{
		"j": {Kind: NodeJoin, Name: "j", Strategy: JoinAll, Inbound: []string{"a", "b"}},
	})
	require.NoError(t, Validate(b))
}

func TestValidateRejectsAgentNodeWithUnregisteredAgent(t *testing.T) {
	b := bundleWithNodes("a", map[string]*Node{
		"a": {Kind: NodeAgent, Name: "a", AgentRef: "missing"},
	})
	err := Validate(b)
	require.Error(t, err)
	fe, ok := flowerr.As(err)
	require.True(t, ok)
	require.Equal(t, flowerr.KindAgentMissing, fe.Kind)
}

func TestValidateRejectsTransitionToUndefinedNode(t *testing.T) {
	b := bundleWithNodes("a", map[string]*Node{
		"a": {Kind: NodeTerminal, Name: "a"},
	})
	b.Flow.Transitions["a"] = []Transition{{From: "a", To: "ghost", Kind: Always}}
	require.Error(t, Validate(b))
}
