package llms

import (
	"context"
	"fmt"
)

// EchoLlmClient is a deterministic LlmClient test double: it returns the
// prompt it was given (optionally prefixed), so tests can assert on agent
// wiring without a real provider. It errors only when ctx is already done.
type EchoLlmClient struct {
	Prefix string
}

// NewEchoLlmClient builds an EchoLlmClient with no prefix.
func NewEchoLlmClient() *EchoLlmClient { return &EchoLlmClient{} }

// Chat returns prompt unchanged (or prefixed), ignoring params.
func (e *EchoLlmClient) Chat(ctx context.Context, prompt string, params ChatParams) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("llms: echo client: %w", err)
	}
	if e.Prefix == "" {
		return prompt, nil
	}
	return e.Prefix + prompt, nil
}
