// Package mcptool adapts a remote MCP (Model Context Protocol) server's
// tool into the core tools.Tool capability, so a ToolPipeline step can
// invoke an MCP-hosted tool exactly like a locally registered one.
package mcptool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sdkclient "github.com/mark3labs/mcp-go/client"
	sdkmcp "github.com/mark3labs/mcp-go/mcp"

	"github.com/flowmesh/engine/flowctx"
	"github.com/flowmesh/engine/message"
)

// ServerConfig describes a single MCP server connection.
type ServerConfig struct {
	Transport string   // "stdio" | "sse"
	Command   string   // stdio: executable path
	Args      []string // stdio: command arguments
	URL       string   // sse: base URL
	Env       []string // stdio: extra environment variables
}

// Tool adapts one remote MCP tool, reached over a connection to Server, as
// a tools.Tool. LocalName is the locally-registered tool name that Name()
// reports; ToolRegistry.RegisterTool's ManifestMismatch check compares the
// registered name against Name(), not RemoteName, so the two may differ
// when a workflow wants a local alias.
type Tool struct {
	LocalName  string
	RemoteName string
	Server     ServerConfig

	inner sdkclient.MCPClient
}

// NewTool builds an adapter for remoteName on an MCP server reached via cfg,
// registered locally under localName.
func NewTool(localName, remoteName string, cfg ServerConfig) *Tool {
	return &Tool{LocalName: localName, RemoteName: remoteName, Server: cfg}
}

// Name reports the locally-registered name, satisfying tools.Tool.
func (t *Tool) Name() string { return t.LocalName }

// Connect establishes the transport connection and completes the MCP
// initialize handshake. Must be called once before Invoke.
func (t *Tool) Connect(ctx context.Context) error {
	var inner sdkclient.MCPClient

	switch t.Server.Transport {
	case "stdio":
		cli, err := sdkclient.NewStdioMCPClient(t.Server.Command, t.Server.Env, t.Server.Args...)
		if err != nil {
			return fmt.Errorf("mcptool: start stdio server for %q: %w", t.RemoteName, err)
		}
		inner = cli
	case "sse":
		cli, err := sdkclient.NewSSEMCPClient(t.Server.URL)
		if err != nil {
			return fmt.Errorf("mcptool: create SSE client for %q: %w", t.RemoteName, err)
		}
		if err := cli.Start(ctx); err != nil {
			return fmt.Errorf("mcptool: start SSE client for %q: %w", t.RemoteName, err)
		}
		inner = cli
	default:
		return fmt.Errorf("mcptool: unknown transport %q", t.Server.Transport)
	}

	_, err := inner.Initialize(ctx, sdkmcp.InitializeRequest{
		Params: sdkmcp.InitializeParams{
			ProtocolVersion: sdkmcp.LATEST_PROTOCOL_VERSION,
			ClientInfo:      sdkmcp.Implementation{Name: "flowmesh-engine", Version: "0.1.0"},
		},
	})
	if err != nil {
		_ = inner.Close()
		return fmt.Errorf("mcptool: initialize %q: %w", t.RemoteName, err)
	}
	t.inner = inner
	return nil
}

// Invoke calls the remote tool with input decoded as its argument map, and
// wraps the concatenated text content of the response as a Tool-role
// Message, satisfying tools.Tool.
func (t *Tool) Invoke(ctx context.Context, input json.RawMessage, fc *flowctx.FlowContext) (message.Message, error) {
	if t.inner == nil {
		return message.Message{}, fmt.Errorf("mcptool: %q not connected", t.RemoteName)
	}

	var args map[string]any
	if len(input) > 0 {
		if err := json.Unmarshal(input, &args); err != nil {
			return message.Message{}, fmt.Errorf("mcptool: decode input for %q: %w", t.RemoteName, err)
		}
	}

	req := sdkmcp.CallToolRequest{}
	req.Params.Name = t.RemoteName
	req.Params.Arguments = args

	result, err := t.inner.CallTool(ctx, req)
	if err != nil {
		return message.Message{}, fmt.Errorf("mcptool: call %q: %w", t.RemoteName, err)
	}

	var parts []string
	for _, content := range result.Content {
		if tc, ok := content.(sdkmcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	text := strings.Join(parts, "\n")
	if result.IsError {
		return message.Message{}, fmt.Errorf("mcptool: %q returned error: %s", t.RemoteName, text)
	}

	payload, _ := json.Marshal(map[string]any{"text": text})
	return message.Message{Role: message.RoleTool, From: t.LocalName, Content: string(payload)}, nil
}

// Close releases the underlying MCP connection.
func (t *Tool) Close() error {
	if t.inner == nil {
		return nil
	}
	inner := t.inner
	t.inner = nil
	return inner.Close()
}
