// Package llmadapter defines the vendor-agnostic LLM adapter contract
// the tool-aware proxy (pkg/toolproxy) and orchestrator (pkg/orchestrator)
// are built against. Concrete vendor SDKs (OpenAI/Anthropic/Gemini wire
// formats) are out of scope (spec.md §1); this package only specifies the
// shape adapters must present.
package llmadapter

import (
	"context"

	"github.com/swiftagentkit/agentkit-go/pkg/jsonvalue"
)

// Capability is one optional behavior an adapter may support. Rather than
// subclassing a base adapter type per vendor quirk, adapters advertise a
// capability set the proxy inspects at runtime (spec.md §9 Design Notes:
// "Protocol extension / subclassing of adapters").
type Capability string

const (
	CapabilityCompletion      Capability = "completion"
	CapabilityTools           Capability = "tools"
	CapabilityImageGeneration Capability = "imageGeneration"
	CapabilityStreaming       Capability = "streaming"
)

// Role mirrors the orchestrator-level Message role vocabulary.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// ToolCall is a tool invocation extracted from, or produced for, an LLM
// exchange (spec.md §3).
type ToolCall struct {
	ID        string
	Name      string
	Arguments jsonvalue.Value
}

// Message is one turn of LLM conversation history.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
}

// ToolDefinition is presented to the LLM so it can decide to call a tool.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  jsonvalue.Value
}

// Response is one LLM completion: text content plus any tool calls the
// model requested.
type Response struct {
	Content   string
	ToolCalls []ToolCall
}

// StreamChunk is one increment of a streaming completion.
type StreamChunk struct {
	ContentDelta string
	ToolCalls    []ToolCall
	Done         bool
}

// Adapter is the minimal contract every LLM backend implements.
type Adapter interface {
	Capabilities() map[Capability]bool
	DefaultModel() string
	// Complete runs one non-streaming completion.
	Complete(ctx context.Context, messages []Message, tools []ToolDefinition, model string) (Response, error)
	// Stream runs one streaming completion, delivering chunks to out
	// until Done or ctx is cancelled. Adapters without
	// CapabilityStreaming may implement this by synthesizing a single
	// final chunk from Complete.
	Stream(ctx context.Context, messages []Message, tools []ToolDefinition, model string, out chan<- StreamChunk) error
}

// HasCapability is a convenience check over an Adapter's capability set.
func HasCapability(a Adapter, c Capability) bool {
	caps := a.Capabilities()
	return caps != nil && caps[c]
}
