package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/flowmesh/engine/flowctx"
	"github.com/flowmesh/engine/message"
)

// fakeTool is a deterministic test Tool: it returns its own name under a
// "from" key and its decoded input under an "input" key (plus any
// outputExtr entries), and can be made to fail the first N invocations to
// exercise retry/fallback logic.
type fakeTool struct {
	name       string
	failTimes  int
	calls      int
	outputExtr map[string]any
}

func newFakeTool(name string) *fakeTool { return &fakeTool{name: name} }

func (t *fakeTool) Name() string { return t.name }

func (t *fakeTool) Invoke(ctx context.Context, input json.RawMessage, fc *flowctx.FlowContext) (message.Message, error) {
	t.calls++
	if t.calls <= t.failTimes {
		return message.Message{}, fmt.Errorf("fakeTool %s: simulated failure %d", t.name, t.calls)
	}
	var in map[string]any
	_ = json.Unmarshal(input, &in)
	out := map[string]any{"from": t.name, "input": in}
	for k, v := range t.outputExtr {
		out[k] = v
	}
	raw, _ := json.Marshal(out)
	return message.Message{Role: message.RoleTool, From: t.name, Content: string(raw)}, nil
}
