package agent

import (
	"context"
	"testing"

	"github.com/flowmesh/engine/config"
	"github.com/flowmesh/engine/decision"
	"github.com/flowmesh/engine/flowctx"
	"github.com/flowmesh/engine/llms"
	"github.com/flowmesh/engine/message"
	"github.com/stretchr/testify/require"
)

func newRunner(t *testing.T, driverID string, client llms.LlmClient) *AgentRunner {
	t.Helper()
	factory := llms.NewLlmClientFactory()
	require.NoError(t, factory.RegisterDriver(driverID, client))
	return NewAgentRunner(factory)
}

func TestRunEmitsStructuredOutputAndFollows(t *testing.T) {
	runner := newRunner(t, "echo", llms.NewEchoLlmClient())
	desc := &config.AgentDescriptor{Name: "planner", DriverID: "echo", Role: "a planner"}
	fc := flowctx.New(flowctx.NewInMemoryStore())

	incoming := message.User(`{"user":"hi","goal":"plan a trip"}`, "planner")
	out, next, err := runner.Run(context.Background(), desc, fc, incoming, nil)

	require.NoError(t, err)
	require.Equal(t, decision.Follow(), next)
	require.Equal(t, message.RoleAgent, out.Role)
	require.Equal(t, "planner", out.From)

	decoded, err := message.Decode[message.Payload](out)
	require.NoError(t, err)
	require.Equal(t, "plan a trip", decoded.Payload.Goal)
	require.Len(t, decoded.Payload.Steps, 1)
	require.Equal(t, "planner", decoded.Payload.Steps[0].Agent)
	require.Equal(t, "planner", decoded.Payload.LastAgent)
}

func TestRunAutoRoutingWithFencedJSON(t *testing.T) {
	fencedResponse := "```json\n{\"route\":\"urgent\",\"response\":\"help\",\"reason\":\"vip\"}\n```"
	runner := newRunner(t, "fixed", fixedClient{text: fencedResponse})

	desc := &config.AgentDescriptor{
		Name:         "classifier",
		DriverID:     "fixed",
		RouteMode:    config.RouteAuto,
		RouteTargets: []string{"node_urgent_handler", "node_normal_handler"},
	}
	fc := flowctx.New(flowctx.NewInMemoryStore())
	incoming := message.User(`{"user":"please help now"}`, "classifier")

	out, next, err := runner.Run(context.Background(), desc, fc, incoming,
		[]string{"node_urgent_handler", "node_normal_handler"})
	require.NoError(t, err)
	require.Equal(t, decision.Continue("node_urgent_handler"), next)

	route, ok, err := fc.Get(context.Background(), "route")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "urgent", route)

	decoded, err := message.Decode[message.Payload](out)
	require.NoError(t, err)
	require.Equal(t, "help", decoded.Payload.Response)
}

func TestRunFallsBackToDefaultRouteOnLlmFailure(t *testing.T) {
	runner := newRunner(t, "broken", failingClient{})
	desc := &config.AgentDescriptor{Name: "a", DriverID: "broken", DefaultRoute: "fallback_node"}
	fc := flowctx.New(flowctx.NewInMemoryStore())

	_, next, err := runner.Run(context.Background(), desc, fc, message.User("hi", "a"), nil)
	require.Error(t, err)
	require.Equal(t, decision.Continue("fallback_node"), next)
}

func TestRunFailsFatallyWithoutDefaultRoute(t *testing.T) {
	runner := newRunner(t, "broken", failingClient{})
	desc := &config.AgentDescriptor{Name: "a", DriverID: "broken"}
	fc := flowctx.New(flowctx.NewInMemoryStore())

	_, next, err := runner.Run(context.Background(), desc, fc, message.User("hi", "a"), nil)
	require.Error(t, err)
	require.True(t, next.IsZero())
}

func TestRunExtractsUserInputByFieldPriority(t *testing.T) {
	runner := newRunner(t, "echo", llms.NewEchoLlmClient())
	desc := &config.AgentDescriptor{Name: "planner", DriverID: "echo"}
	fc := flowctx.New(flowctx.NewInMemoryStore())

	incoming := message.User(`{"raw":"picked","user":"ignored","goal":""}`, "planner")
	out, _, err := runner.Run(context.Background(), desc, fc, incoming, nil)
	require.NoError(t, err)

	// The echo client returns the prompt, which ends with the extracted input.
	decoded, err := message.Decode[message.Payload](out)
	require.NoError(t, err)
	require.Contains(t, decoded.Payload.Response, "User: picked")
}

type fixedClient struct{ text string }

func (f fixedClient) Chat(ctx context.Context, prompt string, params llms.ChatParams) (string, error) {
	return f.text, nil
}

type failingClient struct{}

func (failingClient) Chat(ctx context.Context, prompt string, params llms.ChatParams) (string, error) {
	return "", context.DeadlineExceeded
}
