package workflow

import (
	"sync"

	"github.com/flowmesh/engine/flowctx"
	"github.com/flowmesh/engine/message"
)

// loopState tracks one Loop node's per-execution iteration count and the
// node-scope guard pushed on first entry (spec.md section 4.6).
type loopState struct {
	guard      *flowctx.ScopeGuard
	iterations int
}

// joinBarrier accumulates arrivals for one (node, correlation_id) pair
// until its release condition is met (spec.md section 4.6).
type joinBarrier struct {
	mu       sync.Mutex
	arrived  map[string]message.Message
	released bool
}

type joinKey struct {
	node string
	corr string
}

// execState holds the Loop and Join bookkeeping for a single
// FlowExecutor.Run call. It is never shared across executions.
type execState struct {
	mu    sync.Mutex
	loops map[string]*loopState
	joins map[joinKey]*joinBarrier
}

func newExecState() *execState {
	return &execState{
		loops: make(map[string]*loopState),
		joins: make(map[joinKey]*joinBarrier),
	}
}

// loopEntry returns the loopState for name, creating it (and reporting
// firstEntry) the first time it is requested.
func (s *execState) loopEntry(name string) (*loopState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ls, ok := s.loops[name]
	if ok {
		return ls, false
	}
	ls = &loopState{}
	s.loops[name] = ls
	return ls, true
}

func (s *execState) clearLoop(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.loops, name)
}

// joinBarrierFor returns the barrier for (node, corr), creating it on
// first arrival.
func (s *execState) joinBarrierFor(node, corr string) *joinBarrier {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := joinKey{node: node, corr: corr}
	b, ok := s.joins[key]
	if ok {
		return b
	}
	b = &joinBarrier{arrived: make(map[string]message.Message)}
	s.joins[key] = b
	return b
}

func (s *execState) clearJoin(node, corr string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.joins, joinKey{node: node, corr: corr})
}

// unreleasedJoinNodes returns the node names of every barrier still
// waiting. Because a released barrier is removed via clearJoin, anything
// left here once a fanout's branches have all finished can never receive
// another arrival — the deadlock condition of spec.md section 4.2.
func (s *execState) unreleasedJoinNodes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.joins))
	for k := range s.joins {
		names = append(names, k.node)
	}
	return names
}
