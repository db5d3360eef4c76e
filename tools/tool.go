// Package tools implements the Tool capability, a registry of named tools,
// and the ToolOrchestrator that executes declarative pipelines over them
// under the Sequential, Parallel, and Fallback strategies (spec.md section
// 4.4).
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/flowmesh/engine/flowctx"
	"github.com/flowmesh/engine/flowerr"
	"github.com/flowmesh/engine/message"
	"github.com/flowmesh/engine/registry"
)

// Tool is the capability a ToolOrchestrator step invokes. A tool invocation
// receives the step's merged input JSON plus the executing FlowContext, and
// must return a Message with Role == message.RoleTool and From == the
// tool's own declared name.
type Tool interface {
	Name() string
	Invoke(ctx context.Context, input json.RawMessage, fc *flowctx.FlowContext) (message.Message, error)
}

// ToolRegistry is a name -> Tool registry. Registration enforces that a
// tool's declared name matches what it reports via Name(), since the
// orchestrator dispatches by the registered name and a mismatch would
// silently execute the wrong tool.
type ToolRegistry struct {
	*registry.BaseRegistry[Tool]
	mu sync.RWMutex
}

// NewToolRegistry builds an empty ToolRegistry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{BaseRegistry: registry.NewBaseRegistry[Tool]()}
}

// RegisterTool registers t under name. A name/Name() mismatch is a fatal
// ManifestMismatch (spec.md section 4.4).
func (r *ToolRegistry) RegisterTool(name string, t Tool) error {
	if t == nil {
		return flowerr.New(flowerr.KindManifestMismatch, "tools: tool cannot be nil")
	}
	if t.Name() != name {
		return flowerr.New(flowerr.KindManifestMismatch,
			fmt.Sprintf("tools: declared name %q does not match tool's reported name %q", name, t.Name()))
	}
	if err := r.Register(name, t); err != nil {
		return flowerr.Wrap(flowerr.KindManifestMismatch, "tools: register", err)
	}
	return nil
}

// Resolve looks up a tool by name.
func (r *ToolRegistry) Resolve(name string) (Tool, error) {
	t, ok := r.Get(name)
	if !ok {
		return nil, flowerr.New(flowerr.KindToolMissing, fmt.Sprintf("tools: tool %q is not registered", name))
	}
	return t, nil
}
