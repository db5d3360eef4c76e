// Package decision defines NextDecision, the tagged union a node handler
// returns to tell the FlowExecutor where to go next (spec.md section 4.2).
// It is kept dependency-free so both node handlers (agent, tools-backed
// Tool nodes) and the executor that dispatches to them can share it without
// an import cycle.
package decision

// Kind discriminates the NextDecision union.
type Kind string

const (
	KindContinue Kind = "continue"
	KindFollow   Kind = "follow"
	KindFanout   Kind = "fanout"
	KindStop     Kind = "stop"
)

// Decision is the tagged union of control-flow results a node handler
// yields after processing one message.
type Decision struct {
	Kind    Kind
	Target  string
	Targets []string
}

// Continue explicitly names the next node (decisions, loops, and resolved
// auto-routing agents yield this).
func Continue(target string) Decision { return Decision{Kind: KindContinue, Target: target} }

// Follow defers to the current node's outbound transitions, evaluated in
// configuration order by the executor.
func Follow() Decision { return Decision{Kind: KindFollow} }

// Fanout starts one concurrent branch per target (Decision.AllMatches).
func Fanout(targets []string) Decision { return Decision{Kind: KindFanout, Targets: targets} }

// Stop terminates execution normally (Terminal nodes).
func Stop() Decision { return Decision{Kind: KindStop} }

// IsZero reports whether d is the unset zero value, used by callers to
// distinguish "no usable decision" from an explicit Stop.
func (d Decision) IsZero() bool { return d.Kind == "" }
