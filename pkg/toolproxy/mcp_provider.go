package toolproxy

import (
	"context"
	"strings"

	"github.com/swiftagentkit/agentkit-go/pkg/jsonvalue"
	"github.com/swiftagentkit/agentkit-go/pkg/llmadapter"
	"github.com/swiftagentkit/agentkit-go/pkg/mcp"
)

// mcpClient is the subset of *mcp.Client a ToolProvider needs; narrowed to
// an interface so tests can fake it without a live transport.
type mcpClient interface {
	Tools(ctx context.Context) ([]mcp.ToolDescriptor, error)
	CallTool(ctx context.Context, name string, arguments map[string]any) ([]mcp.Content, error)
}

// MCPProvider adapts a single mcp.Client into a ToolProvider, so the
// orchestrator never has to know whether a tool lives behind MCP or A2A.
type MCPProvider struct {
	client mcpClient
}

func NewMCPProvider(client *mcp.Client) *MCPProvider {
	return &MCPProvider{client: client}
}

func (p *MCPProvider) Definitions(ctx context.Context) ([]llmadapter.ToolDefinition, error) {
	tools, err := p.client.Tools(ctx)
	if err != nil {
		return nil, err
	}
	defs := make([]llmadapter.ToolDefinition, len(tools))
	for i, t := range tools {
		var schema jsonvalue.Value
		if len(t.InputSchema) > 0 {
			_ = schema.UnmarshalJSON(t.InputSchema)
		}
		defs[i] = llmadapter.ToolDefinition{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  schema,
		}
	}
	return defs, nil
}

func (p *MCPProvider) Owns(ctx context.Context, name string) bool {
	tools, err := p.client.Tools(ctx)
	if err != nil {
		return false
	}
	for _, t := range tools {
		if t.Name == name {
			return true
		}
	}
	return false
}

func (p *MCPProvider) Call(ctx context.Context, name string, arguments map[string]any) (string, jsonvalue.Value, error) {
	contents, err := p.client.CallTool(ctx, name, arguments)
	if err != nil {
		return "", jsonvalue.Null(), err
	}
	var sb strings.Builder
	for i, c := range contents {
		if i > 0 {
			sb.WriteString("\n")
		}
		switch c.Kind {
		case mcp.ContentText:
			sb.WriteString(c.Text)
		case mcp.ContentResource:
			sb.WriteString(c.ResourceText)
		case mcp.ContentImage:
			sb.WriteString("[image: " + c.MimeType + "]")
		}
	}
	return sb.String(), jsonvalue.Null(), nil
}
