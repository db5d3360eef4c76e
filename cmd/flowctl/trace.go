package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/flowmesh/engine/agent"
	"github.com/flowmesh/engine/flowctx"
	"github.com/flowmesh/engine/flowerr"
	"github.com/flowmesh/engine/llms"
	"github.com/flowmesh/engine/message"
	"github.com/flowmesh/engine/tools"
	"github.com/flowmesh/engine/workflow"
)

// FlowTraceCmd runs a flow to completion and prints its message history in
// emission order, followed by the recorded errors and the reached node.
// flowctl carries no concrete LLM provider clients (spec.md's "concrete
// LLM HTTP clients" are an external collaborator), so every distinct
// driver_id referenced by the loaded agents is backed by llms.EchoLlmClient
// here: enough to drive a flow's control flow end to end without
// credentials, the same role the teacher's zero-config mode plays for a
// quick local run.
type FlowTraceCmd struct {
	ID     string `arg:"" help:"Trace label attached to the run's output, for correlating against external logs."`
	Config string `required:"" help:"Configuration file path." type:"path"`
	Input  string `help:"Path to a JSON message.Payload seed; '-' reads stdin; omitted starts from an empty payload."`
}

func (c *FlowTraceCmd) Run(cli *CLI) error {
	bundle, err := loadBundle(c.Config)
	if err != nil {
		return err
	}

	factory := llms.NewLlmClientFactory()
	for _, a := range bundle.Agents {
		if _, err := factory.Resolve(a.DriverID); err != nil {
			_ = factory.RegisterDriver(a.DriverID, llms.NewEchoLlmClient())
		}
	}

	runner := agent.NewAgentRunner(factory)
	orchestrator := tools.NewToolOrchestrator(tools.NewToolRegistry())
	executor := workflow.NewFlowExecutor(bundle, runner, orchestrator)

	seed, err := c.seedMessage()
	if err != nil {
		return err
	}

	fc := flowctx.New(flowctx.NewInMemoryStore())
	fmt.Printf("trace %s: execution %s, flow %q\n", c.ID, fc.ID(), bundle.Flow.Name)

	res := executor.Run(context.Background(), fc, seed)

	for i, m := range fc.History() {
		fmt.Printf("  [%d] %s %s -> %s: %s\n", i, m.Role, m.From, m.To, m.Content)
	}

	for _, e := range res.Errors {
		if fe, ok := flowerr.As(e); ok {
			fmt.Printf("error: kind=%s node=%s message=%s\n", fe.Kind, fe.Node, fe.Message)
			continue
		}
		fmt.Printf("error: %v\n", e)
	}

	fmt.Printf("last_node: %s\n", res.LastNode)

	if hasFatal(res.Errors) {
		return fmt.Errorf("flowctl: trace %s ended with a fatal error", c.ID)
	}
	return nil
}

func (c *FlowTraceCmd) seedMessage() (message.Message, error) {
	if c.Input == "" {
		return message.User("{}", ""), nil
	}

	var data []byte
	var err error
	if c.Input == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(c.Input)
	}
	if err != nil {
		return message.Message{}, fmt.Errorf("flowctl: read input: %w", err)
	}
	return message.User(string(data), ""), nil
}

func hasFatal(errs []error) bool {
	for _, e := range errs {
		if fe, ok := flowerr.As(e); ok && flowerr.IsFatal(fe.Kind) {
			return true
		}
	}
	return false
}
