package flowctx

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/flowmesh/engine/message"
)

// FlowContext owns a shared ContextStore, an append-only message history,
// and a stack of lifetime-scoped variable views, per spec.md section 3.
type FlowContext struct {
	mu      sync.RWMutex
	store   ContextStore
	id      string
	history []message.Message
	scopes  []*scopeFrame
}

// New creates a FlowContext backed by store, with its base Global and
// Session scope frames already pushed.
func New(store ContextStore) *FlowContext {
	fc := &FlowContext{
		store: store,
		id:    uuid.NewString(),
	}
	fc.scopes = []*scopeFrame{
		newFrame(ScopeGlobal, "", ""),
		newFrame(ScopeSession, "", fc.id),
	}
	return fc
}

// ID returns this FlowContext's unique identifier, also used as the
// default join correlation id and the Session scope's disambiguator.
func (fc *FlowContext) ID() string { return fc.id }

// AppendHistory appends m to the ordered history. History order equals
// emission order at the executor level (spec.md section 8).
func (fc *FlowContext) AppendHistory(m message.Message) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.history = append(fc.history, m)
}

// History returns a snapshot copy of the message history in emission order.
func (fc *FlowContext) History() []message.Message {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	out := make([]message.Message, len(fc.history))
	copy(out, fc.history)
	return out
}

func (fc *FlowContext) snapshotFrames() []*scopeFrame {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	out := make([]*scopeFrame, len(fc.scopes))
	copy(out, fc.scopes)
	return out
}

func (fc *FlowContext) topFrame() *scopeFrame {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	return fc.scopes[len(fc.scopes)-1]
}

// Set writes key into the innermost currently active scope.
func (fc *FlowContext) Set(ctx context.Context, key, value string) error {
	frame := fc.topFrame()
	if err := fc.store.Set(ctx, frame.prefix+key, value); err != nil {
		return fmt.Errorf("flowctx: set %q: %w", key, err)
	}
	return nil
}

// SetGlobal writes key into the durable Global scope regardless of the
// currently active scope, so it survives beyond any single execution.
func (fc *FlowContext) SetGlobal(ctx context.Context, key, value string) error {
	frame := newFrame(ScopeGlobal, "", "")
	if err := fc.store.Set(ctx, frame.prefix+key, value); err != nil {
		return fmt.Errorf("flowctx: set global %q: %w", key, err)
	}
	return nil
}

// SetSession writes key into this FlowContext's durable Session scope.
func (fc *FlowContext) SetSession(ctx context.Context, key, value string) error {
	frame := newFrame(ScopeSession, "", fc.id)
	if err := fc.store.Set(ctx, frame.prefix+key, value); err != nil {
		return fmt.Errorf("flowctx: set session %q: %w", key, err)
	}
	return nil
}

// Get resolves key by walking the scope stack innermost-to-outermost,
// returning the first scope in which it was written.
func (fc *FlowContext) Get(ctx context.Context, key string) (string, bool, error) {
	frames := fc.snapshotFrames()
	for i := len(frames) - 1; i >= 0; i-- {
		v, ok, err := fc.store.Get(ctx, frames[i].prefix+key)
		if err != nil {
			return "", false, fmt.Errorf("flowctx: get %q: %w", key, err)
		}
		if ok {
			return v, true, nil
		}
	}
	return "", false, nil
}

// Exists reports whether key resolves to any value in the scope stack.
func (fc *FlowContext) Exists(ctx context.Context, key string) (bool, error) {
	_, ok, err := fc.Get(ctx, key)
	return ok, err
}

// Delete removes key from the innermost currently active scope only.
func (fc *FlowContext) Delete(ctx context.Context, key string) error {
	frame := fc.topFrame()
	if err := fc.store.Delete(ctx, frame.prefix+key); err != nil {
		return fmt.Errorf("flowctx: delete %q: %w", key, err)
	}
	return nil
}

// Store exposes the underlying ContextStore for components that need raw,
// unscoped access to it.
func (fc *FlowContext) Store() ContextStore { return fc.store }
