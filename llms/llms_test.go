package llms

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLlmClientFactoryRegisterAndResolve(t *testing.T) {
	f := NewLlmClientFactory()
	client := NewEchoLlmClient()
	require.NoError(t, f.RegisterDriver("echo", client))

	got, err := f.Resolve("echo")
	require.NoError(t, err)
	require.Same(t, client, got)
}

func TestLlmClientFactoryResolveMissingDriver(t *testing.T) {
	f := NewLlmClientFactory()
	_, err := f.Resolve("missing")
	require.Error(t, err)
}

func TestLlmClientFactoryRejectsDuplicateRegistration(t *testing.T) {
	f := NewLlmClientFactory()
	require.NoError(t, f.RegisterDriver("echo", NewEchoLlmClient()))
	require.Error(t, f.RegisterDriver("echo", NewEchoLlmClient()))
}

func TestEchoLlmClientReturnsPromptUnchanged(t *testing.T) {
	client := NewEchoLlmClient()
	out, err := client.Chat(context.Background(), "hello", ChatParams{})
	require.NoError(t, err)
	require.Equal(t, "hello", out)
}

func TestEchoLlmClientAppliesPrefix(t *testing.T) {
	client := &EchoLlmClient{Prefix: "echo: "}
	out, err := client.Chat(context.Background(), "hello", ChatParams{})
	require.NoError(t, err)
	require.Equal(t, "echo: hello", out)
}
