// Package flowerr defines the closed error-kind taxonomy surfaced by the
// loader and the executor, matching the error envelope in spec.md section 6.
package flowerr

import (
	"errors"
	"fmt"
)

// Kind is one of the closed set of error categories the engine can raise.
type Kind string

const (
	KindConfig           Kind = "Config"
	KindNodeNotFound     Kind = "NodeNotFound"
	KindAgentMissing     Kind = "AgentMissing"
	KindToolMissing      Kind = "ToolMissing"
	KindLlmFailure       Kind = "LlmFailure"
	KindToolFailure      Kind = "ToolFailure"
	KindLoopExceeded     Kind = "LoopExceeded"
	KindJoinDeadlock     Kind = "JoinDeadlock"
	KindManifestMismatch Kind = "ManifestMismatch"
	KindCancelled        Kind = "Cancelled"
	KindOther            Kind = "Other"
)

// Error is the envelope carried by loader and executor failures.
type Error struct {
	Kind    Kind
	Message string
	Node    string
	Cause   error
}

func (e *Error) Error() string {
	if e.Node != "" {
		if e.Cause != nil {
			return fmt.Sprintf("[%s] node %q: %s: %v", e.Kind, e.Node, e.Message, e.Cause)
		}
		return fmt.Sprintf("[%s] node %q: %s", e.Kind, e.Node, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error with no node context.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error that carries an underlying cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// WithNode builds an Error scoped to a specific node.
func WithNode(kind Kind, node, message string, cause error) *Error {
	return &Error{Kind: kind, Node: node, Message: message, Cause: cause}
}

// IsFatal reports whether an error of this kind must abort execution, per
// spec.md §4.2: missing node/agent/tool, loop/join exhaustion, and manifest
// mismatches always are; LlmFailure and condition-evaluation errors are not
// (they are recorded and the executor proceeds via default_route / false).
func IsFatal(kind Kind) bool {
	switch kind {
	case KindNodeNotFound, KindAgentMissing, KindToolMissing,
		KindLoopExceeded, KindJoinDeadlock, KindManifestMismatch:
		return true
	case KindConfig:
		return true
	case KindCancelled:
		return false
	default:
		return false
	}
}

// As reports whether err (or something it wraps) is a *Error, and returns it.
func As(err error) (*Error, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
