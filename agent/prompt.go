package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/flowmesh/engine/config"
	"github.com/flowmesh/engine/flowctx"
	"github.com/flowmesh/engine/message"
)

// PromptBuilder assembles an Agent node's system prompt per spec.md
// section 4.3 step 3: role/prompt templates, an optional auto-routing
// block, injected store keys, and a bounded recent-history summary.
type PromptBuilder struct{}

func renderTemplate(tmpl, role, prompt string) string {
	out := strings.ReplaceAll(tmpl, "{role}", role)
	out = strings.ReplaceAll(out, "{prompt}", prompt)
	return out
}

// Build renders desc's full system prompt against the current FlowContext.
func (PromptBuilder) Build(ctx context.Context, desc *config.AgentDescriptor, fc *flowctx.FlowContext) string {
	rules := desc.Rules.PromptBuilding.WithDefaults()

	var base string
	switch {
	case desc.Role != "" && desc.SystemPrompt != "":
		base = renderTemplate(rules.RolePromptTemplate, desc.Role, desc.SystemPrompt)
	case desc.Role != "":
		base = renderTemplate(rules.RoleTemplate, desc.Role, "")
	default:
		base = desc.SystemPrompt
	}

	var b strings.Builder
	b.WriteString(base)

	if desc.RouteMode == config.RouteAuto && len(desc.RouteTargets) > 0 {
		block := desc.RoutePrompt
		if block == "" {
			block = fmt.Sprintf(
				"You must analyze the request and choose a route. Available routes: %s. "+
					`You MUST respond with JSON {"route": "<label>", "response": "<text>", "reason": "<why>"}.`,
				strings.Join(desc.RouteTargets, ", "))
		}
		b.WriteString("\n")
		b.WriteString(block)
	}

	for _, key := range rules.IncludeStoreKeys {
		if v, ok, err := fc.Get(ctx, key); err == nil && ok {
			fmt.Fprintf(&b, "\n%s: %s", key, v)
		}
	}

	if summary := historySummary(fc, *rules.MaxHistoryItems); summary != "" {
		b.WriteString("\nRecent history:\n")
		b.WriteString(summary)
	}

	return b.String()
}

// historySummary renders up to maxItems of the most recent FlowContext
// history entries as "from(role): content" lines, oldest of the window
// first, dropping older entries beyond the bound.
func historySummary(fc *flowctx.FlowContext, maxItems int) string {
	if maxItems <= 0 {
		return ""
	}
	hist := fc.History()
	if len(hist) == 0 {
		return ""
	}
	if len(hist) > maxItems {
		hist = hist[len(hist)-maxItems:]
	}
	lines := make([]string, 0, len(hist))
	for _, m := range hist {
		content := m.Content
		const maxLen = 200
		if len(content) > maxLen {
			content = content[:maxLen] + "..."
		}
		lines = append(lines, fmt.Sprintf("%s(%s): %s", m.From, m.Role, content))
	}
	return strings.Join(lines, "\n")
}
