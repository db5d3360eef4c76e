// Package agent implements AgentRunner, the handler for Agent nodes
// (spec.md section 4.3): parse payload, extract user input, build a system
// prompt, invoke an LlmClient, post-process the response (including
// auto-routing), emit a structured output message, and decide the next
// node.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/flowmesh/engine/config"
	"github.com/flowmesh/engine/decision"
	"github.com/flowmesh/engine/flowctx"
	"github.com/flowmesh/engine/flowerr"
	"github.com/flowmesh/engine/llms"
	"github.com/flowmesh/engine/message"
	"github.com/flowmesh/engine/routing"
)

// AgentRunner dispatches Agent nodes to a registered LlmClient and applies
// the post-processing/auto-routing pipeline.
type AgentRunner struct {
	Factory *llms.LlmClientFactory
	Prompts PromptBuilder
}

// NewAgentRunner builds a runner backed by factory.
func NewAgentRunner(factory *llms.LlmClientFactory) *AgentRunner {
	return &AgentRunner{Factory: factory}
}

// Run executes the full AgentRunner algorithm for one Agent node
// invocation. outboundCandidates lists the node names an auto-routing
// agent's resolved route may be matched against (typically the node's
// outbound transition targets, plus its own route_targets).
//
// A non-nil error paired with a non-zero Decision means the error is
// recorded but recoverable — the caller should append it to the
// execution's error log and continue using the returned Decision. A
// non-nil error paired with a zero Decision is fatal.
func (r *AgentRunner) Run(ctx context.Context, desc *config.AgentDescriptor, fc *flowctx.FlowContext, incoming message.Message, outboundCandidates []string) (message.Message, decision.Decision, error) {
	payload := parsePayload(incoming)
	userInput := extractUserInput(incoming, payload, desc.Rules.FieldExtraction.WithDefaults())

	prompt := r.Prompts.Build(ctx, desc, fc)
	fullPrompt := prompt + "\n\nUser: " + userInput

	client, err := r.Factory.Resolve(desc.DriverID)
	if err != nil {
		return r.failLlm(desc, flowerr.Wrap(flowerr.KindLlmFailure, fmt.Sprintf("agent %q: resolve driver %q", desc.Name, desc.DriverID), err))
	}

	params := llms.ChatParams{
		Model:       desc.Model,
		Endpoint:    desc.Endpoint,
		APIKey:      desc.APIKey,
		Temperature: resolveTemperature(desc),
	}

	chatCtx := ctx
	if desc.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		chatCtx, cancel = context.WithTimeout(ctx, time.Duration(desc.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	text, err := invokeWithRetry(chatCtx, client, fullPrompt, params, int(desc.Rules.LlmRetries))
	if err != nil {
		return r.failLlm(desc, flowerr.Wrap(flowerr.KindLlmFailure, fmt.Sprintf("agent %q: chat", desc.Name), err))
	}

	route, reason, responseText := r.postProcess(ctx, desc, fc, text)
	applyExtractToState(ctx, fc, desc, responseText, text)

	outPayload := buildOutputPayload(desc, payload, responseText)
	outMsg, err := message.Encode(message.RoleAgent, desc.Name, "", outPayload)
	if err != nil {
		return message.Message{}, decision.Decision{}, flowerr.Wrap(flowerr.KindOther, fmt.Sprintf("agent %q: encode output", desc.Name), err)
	}

	if route != "" {
		if target, ok := matchRouteTarget(route, outboundCandidates, desc.Rules.Routing.WithDefaults()); ok {
			return outMsg, decision.Continue(target), nil
		}
	}
	return outMsg, decision.Follow(), nil
}

// failLlm implements the failure semantics of spec.md section 4.3's final
// paragraph: recoverable via default_route, else fatal.
func (r *AgentRunner) failLlm(desc *config.AgentDescriptor, err *flowerr.Error) (message.Message, decision.Decision, error) {
	if desc.DefaultRoute != "" {
		failureMsg := message.Agent(desc.Name, "", fmt.Sprintf(`{"error":%q}`, err.Error()))
		return failureMsg, decision.Continue(desc.DefaultRoute), err
	}
	return message.Message{}, decision.Decision{}, err
}

func resolveTemperature(desc *config.AgentDescriptor) float64 {
	if desc.Temperature != nil {
		return *desc.Temperature
	}
	rules := desc.Rules.PromptBuilding.WithDefaults()
	return *rules.Temperature
}

func invokeWithRetry(ctx context.Context, client llms.LlmClient, prompt string, params llms.ChatParams, retries int) (string, error) {
	var lastErr error
	for i := 0; i < 1+retries; i++ {
		text, err := client.Chat(ctx, prompt, params)
		if err == nil {
			return text, nil
		}
		lastErr = err
	}
	return "", lastErr
}

func parsePayload(incoming message.Message) message.Payload {
	var payload message.Payload
	if err := json.Unmarshal([]byte(incoming.Content), &payload); err != nil {
		return message.Payload{Response: incoming.Content}
	}
	return payload
}

func extractUserInput(incoming message.Message, payload message.Payload, rules config.FieldExtractionRules) string {
	generic, err := message.TryDecodeJSON(incoming.Content)
	if err != nil {
		return incoming.Content
	}
	for _, field := range rules.UserInputFields {
		if v, ok := generic[field].(string); ok && v != "" {
			return v
		}
	}
	return incoming.Content
}

// postProcess runs step 5 of spec.md section 4.3 and returns the resolved
// route (empty if none), its reason, and the final response text.
func (r *AgentRunner) postProcess(ctx context.Context, desc *config.AgentDescriptor, fc *flowctx.FlowContext, text string) (route, reason, responseText string) {
	if desc.RouteMode != config.RouteAuto {
		return "", "", text
	}

	rules := desc.Rules.Routing.WithDefaults()
	cleaned := routing.CleanResponse(text, rules)
	responseText = cleaned

	var parsed map[string]any
	if err := json.Unmarshal([]byte(cleaned), &parsed); err == nil {
		if routeField, ok := parsed["route"].(string); ok && routeField != "" {
			route = routeField
			if rs, ok := parsed["reason"].(string); ok {
				reason = rs
			}
			if rsp, ok := parsed["response"].(string); ok {
				responseText = rsp
			}
		}
	}

	if route == "" {
		if extracted, ok := routing.ExtractRouteFromText(cleaned, desc.RouteTargets, rules); ok {
			route = extracted.Route
			reason = extracted.Reason
		}
	}
	if route == "" && desc.DefaultRoute != "" {
		route = desc.DefaultRoute
	}

	if route != "" {
		_ = fc.Set(ctx, "route", route)
		_ = fc.Set(ctx, "route_reason", reason)
		_ = fc.Set(ctx, "last_agent", desc.Name)
	}
	return route, reason, responseText
}

// applyExtractToState implements rules.field_extraction.extract_to_state:
// copy named response fields into the scoped store.
func applyExtractToState(ctx context.Context, fc *flowctx.FlowContext, desc *config.AgentDescriptor, responseText, rawText string) {
	rules := desc.Rules.FieldExtraction.WithDefaults()
	if len(rules.ExtractToState) == 0 {
		return
	}
	var parsed map[string]any
	_ = json.Unmarshal([]byte(rawText), &parsed)

	for responseField, stateKey := range rules.ExtractToState {
		if responseField == "response" {
			_ = fc.Set(ctx, stateKey, responseText)
			continue
		}
		if v, ok := parsed[responseField]; ok {
			if s, ok := v.(string); ok {
				_ = fc.Set(ctx, stateKey, s)
			} else if raw, err := json.Marshal(v); err == nil {
				_ = fc.Set(ctx, stateKey, string(raw))
			}
		}
	}
}

func buildOutputPayload(desc *config.AgentDescriptor, prior message.Payload, responseText string) message.Payload {
	steps := append(append([]message.Step{}, prior.Steps...), message.Step{
		Agent:  desc.Name,
		Intent: desc.Intent,
		Driver: desc.DriverID,
		Model:  desc.Model,
	})

	out := message.Payload{
		User:      prior.User,
		Goal:      prior.Goal,
		Steps:     steps,
		Response:  responseText,
		LastAgent: desc.Name,
	}

	fieldsToAdd := desc.Rules.PayloadBuilding.FieldsToAdd
	if len(fieldsToAdd) > 0 && prior.Extra != nil {
		out.Extra = make(map[string]any, len(fieldsToAdd))
		for _, f := range fieldsToAdd {
			if v, ok := prior.Extra[f]; ok {
				out.Extra[f] = v
			}
		}
	}
	return out
}

// matchRouteTarget finds the candidate whose bare label matches route,
// trying exact equality first (route already names a node) and falling
// back to the fuzzy RouteMatcher.
func matchRouteTarget(route string, candidates []string, rules config.RoutingRules) (string, bool) {
	for _, c := range candidates {
		if c == route {
			return c, true
		}
	}
	for _, c := range candidates {
		if routing.IsRouteMatch(route, c, rules) {
			return c, true
		}
	}
	return "", false
}
