package flowctx

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// ScopeKind is the lifetime classification of a variable scope. Global and
// Session are durable; Flow, Node, and Custom are cleared when their guard
// drops.
type ScopeKind string

const (
	ScopeGlobal  ScopeKind = "global"
	ScopeSession ScopeKind = "session"
	ScopeFlow    ScopeKind = "flow"
	ScopeNode    ScopeKind = "node"
	ScopeCustom  ScopeKind = "custom"
)

func (k ScopeKind) durable() bool {
	return k == ScopeGlobal || k == ScopeSession
}

// scopeFrame is one entry on a FlowContext's scope stack. Every non-durable
// frame gets a unique instance id baked into its key prefix so concurrent
// fanout branches pushing same-kind/same-label scopes never collide or
// observe each other's writes (spec.md section 5).
type scopeFrame struct {
	kind       ScopeKind
	label      string
	instanceID string
	prefix     string
}

func newFrame(kind ScopeKind, label, disambiguator string) *scopeFrame {
	return &scopeFrame{
		kind:       kind,
		label:      label,
		instanceID: disambiguator,
		prefix:     fmt.Sprintf("scope:%s:%s:%s:", kind, label, disambiguator),
	}
}

// ScopeGuard represents one entered scope. Callers must Drop it on every
// exit path, including cancellation, so no scoped key leaks past its
// lifetime.
type ScopeGuard struct {
	fc    *FlowContext
	frame *scopeFrame
}

// Kind returns the scope kind this guard holds open.
func (g *ScopeGuard) Kind() ScopeKind { return g.frame.kind }

// Drop ends the scope. For Flow/Node/Custom scopes this deletes exactly the
// keys written under this scope's prefix and nothing else; Global and
// Session scopes are durable and Drop is then a pure stack-pop.
func (g *ScopeGuard) Drop(ctx context.Context) error {
	g.fc.popFrame(g.frame)

	if g.frame.kind.durable() {
		return nil
	}

	keys, err := g.fc.store.Keys(ctx, g.frame.prefix)
	if err != nil {
		return fmt.Errorf("flowctx: list scope keys: %w", err)
	}
	for _, k := range keys {
		if err := g.fc.store.Delete(ctx, k); err != nil {
			return fmt.Errorf("flowctx: delete scope key %q: %w", k, err)
		}
	}
	return nil
}

// EnterScope pushes a new scope frame and returns a guard that must be
// dropped on every exit path (see RunScoped in this package for the
// common case).
func (fc *FlowContext) EnterScope(kind ScopeKind, label string) *ScopeGuard {
	frame := newFrame(kind, label, uuid.NewString())
	fc.mu.Lock()
	fc.scopes = append(fc.scopes, frame)
	fc.mu.Unlock()
	return &ScopeGuard{fc: fc, frame: frame}
}

func (fc *FlowContext) popFrame(target *scopeFrame) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	for i := len(fc.scopes) - 1; i >= 0; i-- {
		if fc.scopes[i] == target {
			fc.scopes = append(fc.scopes[:i], fc.scopes[i+1:]...)
			return
		}
	}
}

// RunScoped enters a scope, runs fn, and drops the scope on every return
// path (including panics), the Go idiom for the "enter/exit pair wrapped in
// a scope-bounded helper" design note in spec.md section 9.
func (fc *FlowContext) RunScoped(ctx context.Context, kind ScopeKind, label string, fn func(*ScopeGuard) error) (err error) {
	guard := fc.EnterScope(kind, label)
	defer func() {
		if dropErr := guard.Drop(ctx); dropErr != nil && err == nil {
			err = dropErr
		}
	}()
	return fn(guard)
}
