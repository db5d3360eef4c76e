package mcptool

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToolNameReportsLocalName(t *testing.T) {
	tool := NewTool("search", "web_search", ServerConfig{Transport: "stdio", Command: "mcp-server"})
	require.Equal(t, "search", tool.Name())
}

func TestInvokeBeforeConnectFails(t *testing.T) {
	tool := NewTool("search", "web_search", ServerConfig{Transport: "stdio", Command: "mcp-server"})
	_, err := tool.Invoke(context.Background(), json.RawMessage(`{}`), nil)
	require.Error(t, err)
}

func TestConnectRejectsUnknownTransport(t *testing.T) {
	tool := NewTool("search", "web_search", ServerConfig{Transport: "carrier-pigeon"})
	err := tool.Connect(context.Background())
	require.Error(t, err)
}

func TestCloseWithoutConnectIsNoop(t *testing.T) {
	tool := NewTool("search", "web_search", ServerConfig{})
	require.NoError(t, tool.Close())
}
