package toolproxy

import (
	"context"

	"github.com/swiftagentkit/agentkit-go/pkg/llmadapter"
)

// RunWithTools drives the full tool-call loop described in spec.md §4.9
// against base, resolving every extracted tool call internally and
// feeding the tool-role follow-up messages back to the LLM until it
// returns a response with no further tool calls. It is the self-
// contained counterpart to the lower-level Definitions/Dispatch
// primitives pkg/orchestrator uses directly for per-round streaming
// (spec.md §4.10); callers that just want a drop-in Adapter with tools
// already resolved use this instead.
func (p *Proxy) RunWithTools(ctx context.Context, base llmadapter.Adapter, messages []llmadapter.Message, model string) (llmadapter.Response, error) {
	if model == "" {
		model = base.DefaultModel()
	}
	defs, err := p.Definitions(ctx)
	if err != nil {
		return llmadapter.Response{}, err
	}
	names, err := p.KnownNames(ctx)
	if err != nil {
		return llmadapter.Response{}, err
	}

	history := append([]llmadapter.Message(nil), messages...)
	limiter := NewRoundLimiter(p.maxRounds)

	for {
		resp, err := base.Complete(ctx, history, defs, model)
		if err != nil {
			return llmadapter.Response{}, err
		}

		calls := resp.ToolCalls
		if len(calls) == 0 {
			calls = ExtractToolCalls(resp.Content, names)
		} else {
			calls = BackfillToolCallIDs(calls)
		}
		if len(calls) == 0 {
			return resp, nil
		}

		if err := limiter.Advance(); err != nil {
			return llmadapter.Response{}, err
		}

		history = append(history, llmadapter.Message{
			Role:      llmadapter.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: calls,
		})
		history = append(history, p.DispatchAll(ctx, calls)...)
	}
}
