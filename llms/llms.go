// Package llms defines the LlmClient capability the AgentRunner invokes and
// a factory for looking one up by driver id. Concrete HTTP-backed drivers
// (OpenAI, Anthropic, Ollama, ...) are an external collaborator out of
// scope for this module (spec.md section 1) — only the abstraction and a
// registration point live here, plus an EchoLlmClient test double.
package llms

import (
	"context"
	"fmt"

	"github.com/flowmesh/engine/registry"
)

// ChatParams carries the per-call tuning an AgentRunner resolves from an
// AgentDescriptor before invoking a driver.
type ChatParams struct {
	Model       string
	Endpoint    string
	APIKey      string
	Temperature float64
}

// LlmClient is the single capability the workflow engine needs from a
// language model backend: turn a fully-built prompt into text.
type LlmClient interface {
	Chat(ctx context.Context, prompt string, params ChatParams) (string, error)
}

// LlmClientFactory builds an LlmClient for a driver id. Driver ids are
// opaque strings — the factory, not the core, owns the mapping from id to
// concrete implementation.
type LlmClientFactory struct {
	*registry.BaseRegistry[LlmClient]
}

// NewLlmClientFactory builds an empty factory.
func NewLlmClientFactory() *LlmClientFactory {
	return &LlmClientFactory{BaseRegistry: registry.NewBaseRegistry[LlmClient]()}
}

// RegisterDriver registers client under driverID, so later lookups by that
// id return it. Registering the same id twice is an error.
func (f *LlmClientFactory) RegisterDriver(driverID string, client LlmClient) error {
	if driverID == "" {
		return fmt.Errorf("llms: driver id cannot be empty")
	}
	if client == nil {
		return fmt.Errorf("llms: client cannot be nil")
	}
	return f.Register(driverID, client)
}

// Resolve looks up the LlmClient registered for driverID.
func (f *LlmClientFactory) Resolve(driverID string) (LlmClient, error) {
	client, ok := f.Get(driverID)
	if !ok {
		return nil, fmt.Errorf("llms: no client registered for driver %q", driverID)
	}
	return client, nil
}
