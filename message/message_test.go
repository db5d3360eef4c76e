package message

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConstructorsSetRoleFromToAndID(t *testing.T) {
	m := User("hello", "ingest")
	require.Equal(t, RoleUser, m.Role)
	require.Equal(t, "user", m.From)
	require.Equal(t, "ingest", m.To)
	require.Equal(t, "hello", m.Content)
	require.NotEmpty(t, m.ID)

	tool := Tool("search", `{"query":"go"}`)
	require.Equal(t, RoleTool, tool.Role)
	require.Equal(t, "search", tool.From)

	agentMsg := Agent("planner", "finalizer", "plan text")
	require.Equal(t, RoleAgent, agentMsg.Role)
	require.Equal(t, "planner", agentMsg.From)
	require.Equal(t, "finalizer", agentMsg.To)
}

func TestTwoNewCallsProduceDistinctIDs(t *testing.T) {
	a := New(RoleSystem, "x", "y", "z")
	b := New(RoleSystem, "x", "y", "z")
	require.NotEqual(t, a.ID, b.ID)
}

func TestEncodeAndDecodeRoundTripPayload(t *testing.T) {
	p := Payload{User: "hi", Goal: "plan", Steps: []Step{{Agent: "ingest", Driver: "echo"}}}
	m, err := Encode(RoleAgent, "ingest", "planner", p)
	require.NoError(t, err)

	decoded, err := Decode[Payload](m)
	require.NoError(t, err)
	require.Equal(t, "hi", decoded.Payload.User)
	require.Equal(t, "plan", decoded.Payload.Goal)
	require.Len(t, decoded.Payload.Steps, 1)
	require.Equal(t, "ingest", decoded.Payload.Steps[0].Agent)
}

func TestPayloadMarshalFlattensExtraAlongsideNamedFields(t *testing.T) {
	p := Payload{Response: "ok", Extra: map[string]any{"route": "handler_a"}}
	raw, err := p.MarshalJSON()
	require.NoError(t, err)
	require.JSONEq(t, `{"response":"ok","route":"handler_a"}`, string(raw))
}

func TestPayloadUnmarshalCapturesUnknownFieldsIntoExtra(t *testing.T) {
	var p Payload
	err := p.UnmarshalJSON([]byte(`{"user":"u","goal":"g","route":"handler_a","score":3}`))
	require.NoError(t, err)
	require.Equal(t, "u", p.User)
	require.Equal(t, "g", p.Goal)
	require.Equal(t, "handler_a", p.Extra["route"])
	require.InDelta(t, 3, p.Extra["score"], 0)
}

func TestTryDecodeJSONReturnsErrorOnInvalidInput(t *testing.T) {
	_, err := TryDecodeJSON("not json")
	require.Error(t, err)

	out, err := TryDecodeJSON(`{"a":1}`)
	require.NoError(t, err)
	require.Equal(t, float64(1), out["a"])
}
