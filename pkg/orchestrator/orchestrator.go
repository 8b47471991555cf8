// Package orchestrator implements the conversation control loop (C10,
// spec.md §4.10): consult an LLM, detect tool calls in its response,
// dispatch them through pkg/toolproxy, feed results back, and repeat
// until the LLM answers with no further tool calls.
package orchestrator

import (
	"context"
	"sync"

	"github.com/swiftagentkit/agentkit-go/pkg/agenterrors"
	"github.com/swiftagentkit/agentkit-go/pkg/llmadapter"
	"github.com/swiftagentkit/agentkit-go/pkg/logger"
	"github.com/swiftagentkit/agentkit-go/pkg/toolproxy"
)

// ToolManager is the subset of toolproxy.Proxy the orchestrator drives
// directly (spec.md §4.10: "dispatch each via the ToolManager, which owns
// C9's providers"), narrowed to an interface so tests can substitute a
// fake without a live MCP/A2A backend.
type ToolManager interface {
	Definitions(ctx context.Context) ([]llmadapter.ToolDefinition, error)
	KnownNames(ctx context.Context) (map[string]bool, error)
	DispatchAll(ctx context.Context, calls []llmadapter.ToolCall) []llmadapter.Message
	MaxRounds() int
}

var _ ToolManager = (*toolproxy.Proxy)(nil)

// Orchestrator owns one conversation: its ordered message history and the
// append-only stream of messages published as updateConversation runs.
type Orchestrator struct {
	log     *logger.Logger
	adapter llmadapter.Adapter
	tools   ToolManager
	model   string

	mu           sync.Mutex
	conversation []llmadapter.Message
	hub          *messageHub
}

// Option configures an Orchestrator at construction.
type Option func(*Orchestrator)

func WithModel(model string) Option { return func(o *Orchestrator) { o.model = model } }

func New(log *logger.Logger, adapter llmadapter.Adapter, tools ToolManager, opts ...Option) *Orchestrator {
	if log == nil {
		log = logger.Nop()
	}
	o := &Orchestrator{
		log:     log.With("orchestrator", nil),
		adapter: adapter,
		tools:   tools,
		hub:     newMessageHub(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Messages returns a snapshot of the conversation so far.
func (o *Orchestrator) Messages() []llmadapter.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]llmadapter.Message(nil), o.conversation...)
}

// Subscribe opens a live feed of messages published from this point
// forward. Cancelling the subscription stops delivery to it alone.
func (o *Orchestrator) Subscribe() (<-chan llmadapter.Message, func()) {
	return o.hub.subscribe()
}

func (o *Orchestrator) appendAndPublish(msg llmadapter.Message) {
	o.mu.Lock()
	o.conversation = append(o.conversation, msg)
	o.mu.Unlock()
	o.hub.publish(msg)
}

// UpdateConversation runs the control loop described in spec.md §4.10:
// append initial to the conversation, invoke the LLM, dispatch any tool
// calls it returns, feed the results back, and repeat until the LLM
// responds with no further tool calls.
//
// Ordering guarantee: the messages published during one call are
// `(assistant chunks)* (tool messages in tool-call order) (next assistant
// chunks)* …`.
func (o *Orchestrator) UpdateConversation(ctx context.Context, initial []llmadapter.Message) error {
	for _, msg := range initial {
		o.appendAndPublish(msg)
	}

	tools, err := o.tools.Definitions(ctx)
	if err != nil {
		return err
	}
	knownNames, err := o.tools.KnownNames(ctx)
	if err != nil {
		return err
	}
	limiter := toolproxy.NewRoundLimiter(o.tools.MaxRounds())

	for {
		resp, err := o.completeOneRound(ctx, tools)
		if err != nil {
			return err
		}

		calls := resp.ToolCalls
		if len(calls) == 0 {
			calls = toolproxy.ExtractToolCalls(resp.Content, knownNames)
		} else {
			calls = toolproxy.BackfillToolCallIDs(calls)
		}

		o.appendAndPublish(llmadapter.Message{
			Role:      llmadapter.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: calls,
		})

		if len(calls) == 0 {
			return nil
		}

		if err := limiter.Advance(); err != nil {
			o.log.Error("tool loop limit exceeded", map[string]any{"rounds": limiter.Count()})
			return err
		}

		toolMessages := o.tools.DispatchAll(ctx, calls)
		for _, tm := range toolMessages {
			o.appendAndPublish(tm)
		}
	}
}

// completeOneRound invokes the LLM once, streaming partial assistant
// chunks to subscribers as they arrive when the adapter supports it, and
// returns the accumulated Response.
func (o *Orchestrator) completeOneRound(ctx context.Context, tools []llmadapter.ToolDefinition) (llmadapter.Response, error) {
	model := o.model
	if model == "" {
		model = o.adapter.DefaultModel()
	}
	history := o.Messages()

	if !llmadapter.HasCapability(o.adapter, llmadapter.CapabilityStreaming) {
		resp, err := o.adapter.Complete(ctx, history, tools, model)
		if err != nil {
			return llmadapter.Response{}, agenterrors.New(agenterrors.KindTool, "llm-complete", err)
		}
		return resp, nil
	}

	out := make(chan llmadapter.StreamChunk, 16)
	errCh := make(chan error, 1)
	go func() {
		errCh <- o.adapter.Stream(ctx, history, tools, model, out)
	}()

	var resp llmadapter.Response
	for chunk := range out {
		if chunk.ContentDelta != "" {
			o.hub.publish(llmadapter.Message{Role: llmadapter.RoleAssistant, Content: chunk.ContentDelta})
			resp.Content += chunk.ContentDelta
		}
		resp.ToolCalls = append(resp.ToolCalls, chunk.ToolCalls...)
	}
	if err := <-errCh; err != nil {
		return llmadapter.Response{}, agenterrors.New(agenterrors.KindTool, "llm-stream", err)
	}
	return resp, nil
}
