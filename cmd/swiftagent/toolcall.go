package main

import (
	"github.com/google/uuid"

	"github.com/swiftagentkit/agentkit-go/pkg/jsonvalue"
	"github.com/swiftagentkit/agentkit-go/pkg/llmadapter"
)

// toolCall builds a directly-invoked tool call with a generated id, the
// same `call_<uuid>` shape ExtractToolCalls assigns to calls the LLM
// output left unidentified (spec.md §4.9).
func toolCall(name string, arguments map[string]any) llmadapter.ToolCall {
	return llmadapter.ToolCall{
		ID:        "call_" + uuid.NewString(),
		Name:      name,
		Arguments: jsonvalue.FromMap(arguments),
	}
}
