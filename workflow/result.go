package workflow

import (
	"sync"

	"github.com/flowmesh/engine/message"
)

// ExecutionResult is FlowExecutor.Run's output (spec.md section 4.2): the
// deepest node reached, the last message emitted by any handler, and the
// full (possibly empty) list of recorded errors — fatal ones, and any
// error that leaves a handler without a next decision, stop the path; the
// rest are recorded and execution proceeds.
type ExecutionResult struct {
	mu sync.Mutex

	FlowName    string
	LastNode    string
	LastMessage *message.Message
	Errors      []error
}

func (r *ExecutionResult) addError(err error) {
	if err == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Errors = append(r.Errors, err)
}

func (r *ExecutionResult) setLastMessage(m message.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	mm := m
	r.LastMessage = &mm
}

func (r *ExecutionResult) setLastNode(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.LastNode = name
}
