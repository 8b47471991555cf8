package toolproxy

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/swiftagentkit/agentkit-go/pkg/agenterrors"
	"github.com/swiftagentkit/agentkit-go/pkg/llmadapter"
	"github.com/swiftagentkit/agentkit-go/pkg/logger"
)

// maxParallelProviderCalls bounds fan-out across ToolProviders so a proxy
// wired to many MCP/A2A peers doesn't open unbounded concurrent requests
// for one definitions refresh or one dispatch round.
const maxParallelProviderCalls = 8

// DefaultMaxRounds is the default tool-call round limit (spec.md §4.9).
const DefaultMaxRounds = 8

// Proxy aggregates ToolProviders and routes extracted tool calls to the
// provider that owns each name, in provider registration order.
type Proxy struct {
	log       *logger.Logger
	providers []ToolProvider
	maxRounds int
}

// Option configures a Proxy at construction.
type Option func(*Proxy)

func WithMaxRounds(n int) Option {
	return func(p *Proxy) {
		if n > 0 {
			p.maxRounds = n
		}
	}
}

// New builds a Proxy over the given providers, in the order they should
// be consulted when more than one could own the same tool name.
func New(log *logger.Logger, providers []ToolProvider, opts ...Option) *Proxy {
	if log == nil {
		log = logger.Nop()
	}
	p := &Proxy{
		log:       log.With("toolproxy", nil),
		providers: providers,
		maxRounds: DefaultMaxRounds,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Proxy) MaxRounds() int { return p.maxRounds }

// Definitions aggregates the ToolDefinitions of every registered provider,
// in registration order. A name registered by more than one provider is
// listed once per provider that advertises it; routing still resolves to
// the first owner (see Dispatch).
func (p *Proxy) Definitions(ctx context.Context) ([]llmadapter.ToolDefinition, error) {
	perProvider := make([][]llmadapter.ToolDefinition, len(p.providers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelProviderCalls)
	for i, prov := range p.providers {
		i, prov := i, prov
		g.Go(func() error {
			defs, err := prov.Definitions(gctx)
			if err != nil {
				return err
			}
			perProvider[i] = defs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, agenterrors.New(agenterrors.KindTool, "list-definitions", err)
	}

	var all []llmadapter.ToolDefinition
	for _, defs := range perProvider {
		all = append(all, defs...)
	}
	return all, nil
}

// KnownNames returns the set of tool names any registered provider
// advertises, for use with ExtractToolCalls' textual-form scan.
func (p *Proxy) KnownNames(ctx context.Context) (map[string]bool, error) {
	defs, err := p.Definitions(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]bool, len(defs))
	for _, d := range defs {
		names[d.Name] = true
	}
	return names, nil
}

// Dispatch routes call to the first registered provider that owns its
// tool name, and reports ErrProviderNotFound if none does.
func (p *Proxy) Dispatch(ctx context.Context, call llmadapter.ToolCall) ToolResult {
	for _, prov := range p.providers {
		if !prov.Owns(ctx, call.Name) {
			continue
		}
		content, meta, err := prov.Call(ctx, call.Name, call.Arguments.ToMap())
		if err != nil {
			p.log.Warn("tool call failed", map[string]any{"tool": call.Name, "error": err.Error()})
			return ToolResult{
				ToolCallID: call.ID,
				Success:    false,
				Error:      err.Error(),
			}
		}
		return ToolResult{
			ToolCallID: call.ID,
			Success:    true,
			Content:    content,
			Metadata:   meta,
		}
	}
	p.log.Warn("no provider owns tool", map[string]any{"tool": call.Name})
	return ToolResult{
		ToolCallID: call.ID,
		Success:    false,
		Error:      fmt.Sprintf("%s: %q", agenterrors.ErrProviderNotFound, call.Name),
	}
}

// DispatchAll dispatches every call and returns one tool-role Message per
// result, in call order, the shape the orchestrator feeds back to the LLM
// (spec.md §4.9/§4.10).
func (p *Proxy) DispatchAll(ctx context.Context, calls []llmadapter.ToolCall) []llmadapter.Message {
	out := make([]llmadapter.Message, len(calls))

	var g errgroup.Group
	g.SetLimit(maxParallelProviderCalls)
	for i, call := range calls {
		i, call := i, call
		g.Go(func() error {
			result := p.Dispatch(ctx, call)
			content := result.Content
			if !result.Success {
				content = result.Error
			}
			out[i] = llmadapter.Message{
				Role:       llmadapter.RoleTool,
				Content:    content,
				ToolCallID: result.ToolCallID,
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// RoundLimiter tracks the number of tool-call rounds within one
// conversation turn and reports when the limit is exceeded.
type RoundLimiter struct {
	max   int
	count int
}

func NewRoundLimiter(max int) *RoundLimiter {
	if max <= 0 {
		max = DefaultMaxRounds
	}
	return &RoundLimiter{max: max}
}

// Advance records one more round and reports agenterrors.ErrToolLoopLimit
// once the configured limit is exceeded.
func (r *RoundLimiter) Advance() error {
	r.count++
	if r.count > r.max {
		return agenterrors.New(agenterrors.KindTool, "tool-loop", agenterrors.ErrToolLoopLimit)
	}
	return nil
}

func (r *RoundLimiter) Count() int { return r.count }
