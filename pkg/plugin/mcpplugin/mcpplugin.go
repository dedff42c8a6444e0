// Package mcpplugin exposes the tools of a Model Context Protocol server as a
// kernel plugin.
package mcpplugin

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/germanamz/kernelkit/pkg/plugin"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Client is a live MCP session.
type Client struct {
	name    string
	session *mcp.ClientSession
}

// Start spawns an MCP server process and connects to it over stdio.
func Start(ctx context.Context, name, command string, args ...string) (*Client, error) {
	transport := &mcp.CommandTransport{
		Command: exec.Command(command, args...), //nolint:gosec // command comes from the caller's configuration
	}

	return Connect(ctx, name, transport)
}

// Dial connects to an SSE MCP server.
func Dial(ctx context.Context, name, url string) (*Client, error) {
	return Connect(ctx, name, &mcp.SSEClientTransport{Endpoint: url})
}

// Connect opens a session over an arbitrary transport. The SDK performs the
// initialize handshake before Connect returns.
func Connect(ctx context.Context, name string, transport mcp.Transport) (*Client, error) {
	client := mcp.NewClient(&mcp.Implementation{
		Name:    "kernelkit",
		Version: "0.1.0",
	}, nil)

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("mcpplugin: connect %q: %w", name, err)
	}

	return &Client{name: name, session: session}, nil
}

// Plugin lists the server's tools and wraps them as plugin functions named
// after the client. Each handler calls back into this session.
func (c *Client) Plugin(ctx context.Context) (*plugin.Plugin, error) {
	result, err := c.session.ListTools(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("mcpplugin: %s: list tools: %w", c.name, err)
	}

	p := plugin.New(c.name, fmt.Sprintf("tools served by MCP server %q", c.name))
	for _, tool := range result.Tools {
		schema, err := json.Marshal(tool.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("mcpplugin: %s: tool %q schema: %w", c.name, tool.Name, err)
		}

		name := tool.Name
		p.Add(plugin.Function{
			Name:        name,
			Description: tool.Description,
			Parameters:  schema,
			Handler: func(ctx context.Context, args json.RawMessage) (string, error) {
				return c.Call(ctx, name, args)
			},
		})
	}

	return p, nil
}

// Call invokes a tool by name. A tool-level error result is returned as an
// error carrying the tool's text output.
func (c *Client) Call(ctx context.Context, tool string, args json.RawMessage) (string, error) {
	var params map[string]any
	if len(args) > 0 {
		if err := json.Unmarshal(args, &params); err != nil {
			return "", fmt.Errorf("mcpplugin: %s: decode arguments for %q: %w", c.name, tool, err)
		}
	}

	result, err := c.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      tool,
		Arguments: params,
	})
	if err != nil {
		return "", fmt.Errorf("mcpplugin: %s: call %q: %w", c.name, tool, err)
	}

	text := joinText(result)
	if result.IsError {
		return "", fmt.Errorf("mcpplugin: %s: %q failed: %s", c.name, tool, text)
	}

	return text, nil
}

// Close ends the session; for command transports the SDK also stops the process.
func (c *Client) Close() error {
	return c.session.Close()
}

func joinText(result *mcp.CallToolResult) string {
	var texts []string
	for _, item := range result.Content {
		if tc, ok := item.(*mcp.TextContent); ok {
			texts = append(texts, tc.Text)
		}
	}
	return strings.Join(texts, "\n")
}
