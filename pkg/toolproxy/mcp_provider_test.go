package toolproxy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftagentkit/agentkit-go/pkg/mcp"
)

type fakeMCPClient struct {
	tools []mcp.ToolDescriptor
	calls map[string][]mcp.Content
}

func (f *fakeMCPClient) Tools(ctx context.Context) ([]mcp.ToolDescriptor, error) {
	return f.tools, nil
}

func (f *fakeMCPClient) CallTool(ctx context.Context, name string, arguments map[string]any) ([]mcp.Content, error) {
	return f.calls[name], nil
}

func TestMCPProviderDefinitionsMirrorsClientTools(t *testing.T) {
	client := &fakeMCPClient{tools: []mcp.ToolDescriptor{{Name: "echo", Description: "echoes input"}}}
	provider := &MCPProvider{client: client}

	defs, err := provider.Definitions(context.Background())
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "echo", defs[0].Name)
}

func TestMCPProviderOwnsReflectsClientToolSet(t *testing.T) {
	client := &fakeMCPClient{tools: []mcp.ToolDescriptor{{Name: "echo"}}}
	provider := &MCPProvider{client: client}

	assert.True(t, provider.Owns(context.Background(), "echo"))
	assert.False(t, provider.Owns(context.Background(), "missing"))
}

func TestMCPProviderCallJoinsTextContent(t *testing.T) {
	client := &fakeMCPClient{
		tools: []mcp.ToolDescriptor{{Name: "echo"}},
		calls: map[string][]mcp.Content{
			"echo": {mcp.TextContent("hello"), mcp.TextContent("world")},
		},
	}
	provider := &MCPProvider{client: client}

	content, _, err := provider.Call(context.Background(), "echo", nil)
	require.NoError(t, err)
	assert.Equal(t, "hello\nworld", content)
}
