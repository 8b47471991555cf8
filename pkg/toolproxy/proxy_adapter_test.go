package toolproxy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftagentkit/agentkit-go/pkg/agenterrors"
	"github.com/swiftagentkit/agentkit-go/pkg/llmadapter"
)

// scriptedAdapter returns one scripted Response per call, in order, so
// tests can drive the tool-call loop deterministically.
type scriptedAdapter struct {
	responses []llmadapter.Response
	calls     int
}

func (a *scriptedAdapter) Capabilities() map[llmadapter.Capability]bool { return nil }
func (a *scriptedAdapter) DefaultModel() string                         { return "scripted" }

func (a *scriptedAdapter) Complete(ctx context.Context, messages []llmadapter.Message, tools []llmadapter.ToolDefinition, model string) (llmadapter.Response, error) {
	resp := a.responses[a.calls]
	a.calls++
	return resp, nil
}

func (a *scriptedAdapter) Stream(ctx context.Context, messages []llmadapter.Message, tools []llmadapter.ToolDefinition, model string, out chan<- llmadapter.StreamChunk) error {
	return nil
}

// TestRunWithToolsStopsWhenNoFurtherToolCalls is spec.md's S5 scenario:
// one round of tool calls, then a final assistant message with none.
func TestRunWithToolsStopsWhenNoFurtherToolCalls(t *testing.T) {
	provider := newStubProvider("lookup")
	proxy := New(nil, []ToolProvider{provider})

	base := &scriptedAdapter{responses: []llmadapter.Response{
		{ToolCalls: []llmadapter.ToolCall{{ID: "1", Name: "lookup"}}},
		{Content: "final answer"},
	}}

	resp, err := proxy.RunWithTools(context.Background(), base, []llmadapter.Message{{Role: llmadapter.RoleUser, Content: "go"}}, "")
	require.NoError(t, err)
	assert.Equal(t, "final answer", resp.Content)
	assert.Equal(t, 2, base.calls)
	assert.Equal(t, []string{"lookup"}, provider.calls)
}

func TestRunWithToolsEnforcesRoundLimit(t *testing.T) {
	provider := newStubProvider("lookup")
	proxy := New(nil, []ToolProvider{provider}, WithMaxRounds(2))

	responses := make([]llmadapter.Response, 0, 5)
	for i := 0; i < 5; i++ {
		responses = append(responses, llmadapter.Response{ToolCalls: []llmadapter.ToolCall{{ID: "1", Name: "lookup"}}})
	}
	base := &scriptedAdapter{responses: responses}

	_, err := proxy.RunWithTools(context.Background(), base, []llmadapter.Message{{Role: llmadapter.RoleUser, Content: "go"}}, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, agenterrors.ErrToolLoopLimit)
}

func TestRunWithToolsExtractsTextualCallsWhenAdapterHasNoStructuredCalls(t *testing.T) {
	provider := newStubProvider("lookup")
	proxy := New(nil, []ToolProvider{provider})

	base := &scriptedAdapter{responses: []llmadapter.Response{
		{Content: `lookup(city="Boston")`},
		{Content: "final"},
	}}

	resp, err := proxy.RunWithTools(context.Background(), base, nil, "")
	require.NoError(t, err)
	assert.Equal(t, "final", resp.Content)
	assert.Equal(t, []string{"lookup"}, provider.calls)
}
