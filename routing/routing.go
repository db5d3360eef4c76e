// Package routing implements RouteMatcher: the response-cleaning,
// label-extraction, and fuzzy target-matching sub-routines an auto-routing
// agent uses to turn a free-text or JSON-fenced LLM response into the name
// of the next node (spec.md section 4.5).
package routing

import (
	"strings"

	"github.com/flowmesh/engine/config"
)

// CleanResponse strips a leading JSON code fence (default ```json) and its
// matching closing fence from text, then trims surrounding whitespace. Per
// spec.md section 8, CleanResponse must be idempotent:
// CleanResponse(CleanResponse(x)) == CleanResponse(x).
func CleanResponse(text string, rules config.RoutingRules) string {
	rules = rules.WithDefaults()

	t := strings.TrimSpace(text)
	if strings.HasPrefix(t, rules.JSONCodeFence) {
		t = strings.TrimPrefix(t, rules.JSONCodeFence)
		t = strings.TrimPrefix(t, "\n")
	} else if strings.HasPrefix(t, rules.CodeFenceStart) {
		t = strings.TrimPrefix(t, rules.CodeFenceStart)
		t = strings.TrimPrefix(t, "\n")
	} else {
		return t
	}

	if idx := strings.LastIndex(t, rules.CodeFenceEnd); idx >= 0 {
		t = t[:idx]
	}
	return strings.TrimSpace(t)
}

// bareLabel normalizes a route target into its comparable core: split on
// separator, drop configured prefix/suffix tokens, lowercase, rejoin.
func bareLabel(target string, rules config.RoutingRules) string {
	parts := strings.Split(target, rules.TargetSeparator)
	parts = trimTokens(parts, rules.TargetPrefixes, true)
	parts = trimTokens(parts, rules.TargetSuffixes, false)

	for i, p := range parts {
		parts[i] = strings.ToLower(p)
	}
	return strings.Join(parts, rules.TargetSeparator)
}

// trimTokens removes the leading (fromStart) or trailing token if it is in
// the drop set, case-insensitively, and never removes the last remaining
// token: only the outermost matching token is dropped (matching the single-prefix,
// single-suffix example "node_urgent_handler" -> "urgent").
func trimTokens(parts []string, drop []string, fromStart bool) []string {
	if len(parts) == 0 || len(drop) == 0 {
		return parts
	}
	matches := func(s string) bool {
		for _, d := range drop {
			if strings.EqualFold(s, d) {
				return true
			}
		}
		return false
	}
	if fromStart {
		if matches(parts[0]) && len(parts) > 1 {
			return parts[1:]
		}
		return parts
	}
	last := len(parts) - 1
	if matches(parts[last]) && len(parts) > 1 {
		return parts[:last]
	}
	return parts
}

// IsRouteMatch reports whether label and target name the same route once
// both sides are normalized via bareLabel. Per spec.md section 8, this is
// symmetric in case folding and separator normalization. If either side's
// normalized remainder is empty, the match is false.
func IsRouteMatch(label, target string, rules config.RoutingRules) bool {
	rules = rules.WithDefaults()

	normLabel := bareLabel(label, rules)
	normTarget := bareLabel(target, rules)

	if normLabel == "" || normTarget == "" {
		return false
	}
	return normLabel == normTarget
}

// ExtractedRoute is the result of a successful ExtractRouteFromText call.
type ExtractedRoute struct {
	Route  string
	Reason string
}

// ExtractRouteFromText scans routeTargets in order and returns the first
// whose bare label appears as a case-insensitive substring of text. Returns
// (zero, false) if none match.
func ExtractRouteFromText(text string, routeTargets []string, rules config.RoutingRules) (ExtractedRoute, bool) {
	rules = rules.WithDefaults()
	lowerText := strings.ToLower(text)

	for _, target := range routeTargets {
		label := bareLabel(target, rules)
		if label == "" {
			continue
		}
		if strings.Contains(lowerText, strings.ToLower(label)) {
			return ExtractedRoute{Route: label, Reason: "Extracted from response text"}, true
		}
	}
	return ExtractedRoute{}, false
}
