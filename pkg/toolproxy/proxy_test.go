package toolproxy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftagentkit/agentkit-go/pkg/agenterrors"
	"github.com/swiftagentkit/agentkit-go/pkg/jsonvalue"
	"github.com/swiftagentkit/agentkit-go/pkg/llmadapter"
)

// stubProvider is a minimal in-memory ToolProvider for exercising
// aggregation, routing, and loop-limit behavior without a live MCP/A2A
// backend.
type stubProvider struct {
	names map[string]bool
	calls []string
	fail  map[string]string
}

func newStubProvider(names ...string) *stubProvider {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return &stubProvider{names: set}
}

func (p *stubProvider) Definitions(ctx context.Context) ([]llmadapter.ToolDefinition, error) {
	var defs []llmadapter.ToolDefinition
	for n := range p.names {
		defs = append(defs, llmadapter.ToolDefinition{Name: n})
	}
	return defs, nil
}

func (p *stubProvider) Owns(ctx context.Context, name string) bool { return p.names[name] }

func (p *stubProvider) Call(ctx context.Context, name string, arguments map[string]any) (string, jsonvalue.Value, error) {
	p.calls = append(p.calls, name)
	if msg, ok := p.fail[name]; ok {
		return "", jsonvalue.Null(), assertError(msg)
	}
	return "ok:" + name, jsonvalue.Null(), nil
}

type assertError string

func (e assertError) Error() string { return string(e) }

func TestDefinitionsAggregatesAcrossProviders(t *testing.T) {
	p1 := newStubProvider("a")
	p2 := newStubProvider("b")
	proxy := New(nil, []ToolProvider{p1, p2})

	defs, err := proxy.Definitions(context.Background())
	require.NoError(t, err)
	assert.Len(t, defs, 2)
}

func TestDispatchRoutesToFirstOwnerByRegistrationOrder(t *testing.T) {
	first := newStubProvider("dup")
	second := newStubProvider("dup")
	proxy := New(nil, []ToolProvider{first, second})

	result := proxy.Dispatch(context.Background(), llmadapter.ToolCall{ID: "1", Name: "dup"})
	assert.True(t, result.Success)
	assert.Equal(t, []string{"dup"}, first.calls)
	assert.Empty(t, second.calls)
}

func TestDispatchReportsProviderNotFound(t *testing.T) {
	proxy := New(nil, []ToolProvider{newStubProvider("known")})
	result := proxy.Dispatch(context.Background(), llmadapter.ToolCall{ID: "1", Name: "missing"})
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "missing")
}

func TestDispatchFailureReportedAsUnsuccessfulNotPanic(t *testing.T) {
	p := newStubProvider("flaky")
	p.fail = map[string]string{"flaky": "boom"}
	proxy := New(nil, []ToolProvider{p})

	result := proxy.Dispatch(context.Background(), llmadapter.ToolCall{ID: "1", Name: "flaky"})
	assert.False(t, result.Success)
	assert.Equal(t, "boom", result.Error)
}

func TestDispatchAllPreservesCallOrder(t *testing.T) {
	p := newStubProvider("a", "b", "c")
	proxy := New(nil, []ToolProvider{p})

	msgs := proxy.DispatchAll(context.Background(), []llmadapter.ToolCall{
		{ID: "1", Name: "a"},
		{ID: "2", Name: "b"},
		{ID: "3", Name: "c"},
	})
	require.Len(t, msgs, 3)
	assert.Equal(t, "1", msgs[0].ToolCallID)
	assert.Equal(t, "2", msgs[1].ToolCallID)
	assert.Equal(t, "3", msgs[2].ToolCallID)
	assert.Equal(t, "ok:a", msgs[0].Content)
}

func TestRoundLimiterAllowsUpToMaxThenFails(t *testing.T) {
	limiter := NewRoundLimiter(2)
	require.NoError(t, limiter.Advance())
	require.NoError(t, limiter.Advance())
	err := limiter.Advance()
	require.Error(t, err)
	assert.ErrorIs(t, err, agenterrors.ErrToolLoopLimit)
}

func TestRoundLimiterDefaultsWhenNonPositive(t *testing.T) {
	limiter := NewRoundLimiter(0)
	assert.Equal(t, DefaultMaxRounds, limiter.max)
}
