// Package toolproxy implements the tool-aware adapter/proxy (C9,
// spec.md §4.9): aggregating tool definitions from registered
// ToolProviders, extracting tool calls from LLM output (structured or
// textual), and routing calls to the provider that owns each tool name.
package toolproxy

import (
	"context"

	"github.com/swiftagentkit/agentkit-go/pkg/jsonvalue"
	"github.com/swiftagentkit/agentkit-go/pkg/llmadapter"
)

// ToolProvider exposes a set of callable tools, typically backed by an
// MCP client or an A2A peer agent.
type ToolProvider interface {
	Definitions(ctx context.Context) ([]llmadapter.ToolDefinition, error)
	// Owns reports whether this provider's tool set contains name,
	// without making it the routing decision by itself (two providers
	// may both report true; registration order breaks the tie).
	Owns(ctx context.Context, name string) bool
	Call(ctx context.Context, name string, arguments map[string]any) (content string, metadata jsonvalue.Value, err error)
}

// ToolResult is the outcome of dispatching one tool call (spec.md §3).
type ToolResult struct {
	Success    bool
	Content    string
	Metadata   jsonvalue.Value
	ToolCallID string
	Error      string
}
