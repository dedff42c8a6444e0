package mcpplugin

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type tool struct {
	name    string
	schema  json.RawMessage
	handler func(args json.RawMessage) (string, bool)
}

// connectTestServer runs an in-memory MCP server with the given tools and
// returns a Client connected to it.
func connectTestServer(t *testing.T, tools ...tool) *Client {
	t.Helper()

	server := mcp.NewServer(&mcp.Implementation{Name: "test-server", Version: "1.0.0"}, nil)
	for _, tl := range tools {
		h := tl.handler
		server.AddTool(&mcp.Tool{
			Name:        tl.name,
			Description: tl.name + " tool",
			InputSchema: tl.schema,
		}, func(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			text, isErr := h(req.Params.Arguments)
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: text}},
				IsError: isErr,
			}, nil
		})
	}

	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.Run(ctx, serverTransport)
	}()

	client, err := Connect(ctx, "test", clientTransport)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()
		cancel()
		<-done
	})

	return client
}

var objectSchema = json.RawMessage(`{"type":"object","properties":{"q":{"type":"string"}}}`)

func TestPlugin_ListsTools(t *testing.T) {
	client := connectTestServer(t,
		tool{name: "search", schema: objectSchema, handler: func(json.RawMessage) (string, bool) { return "", false }},
		tool{name: "fetch", schema: objectSchema, handler: func(json.RawMessage) (string, bool) { return "", false }},
	)

	p, err := client.Plugin(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "test", p.Name)
	require.Equal(t, 2, p.Len())

	f, ok := p.Function("search")
	require.True(t, ok)
	assert.Equal(t, "search tool", f.Description)
	assert.Contains(t, string(f.Parameters), `"q"`)
}

func TestPlugin_HandlerCallsServer(t *testing.T) {
	client := connectTestServer(t, tool{
		name:   "echo",
		schema: objectSchema,
		handler: func(args json.RawMessage) (string, bool) {
			return string(args), false
		},
	})

	p, err := client.Plugin(context.Background())
	require.NoError(t, err)

	f, ok := p.Function("echo")
	require.True(t, ok)

	out, err := f.Handler(context.Background(), json.RawMessage(`{"q":"go"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"q":"go"}`, out)
}

func TestCall_ToolError(t *testing.T) {
	client := connectTestServer(t, tool{
		name:   "broken",
		schema: objectSchema,
		handler: func(json.RawMessage) (string, bool) {
			return "disk full", true
		},
	})

	_, err := client.Call(context.Background(), "broken", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestCall_BadArguments(t *testing.T) {
	client := connectTestServer(t)

	_, err := client.Call(context.Background(), "anything", json.RawMessage(`not json`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode arguments")
}
