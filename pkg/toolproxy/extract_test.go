package toolproxy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftagentkit/agentkit-go/pkg/llmadapter"
)

func TestExtractStructuredToolCallsFromFencedBlock(t *testing.T) {
	text := "Let me check that.\n```json\n" +
		`{"tool_calls":[{"id":"abc","type":"function","function":{"name":"get_weather","arguments":"{\"city\":\"Boston\"}"}}]}` +
		"\n```\nDone."
	calls := ExtractToolCalls(text, nil)
	require.Len(t, calls, 1)
	assert.Equal(t, "abc", calls[0].ID)
	assert.Equal(t, "get_weather", calls[0].Name)
	city, ok := calls[0].Arguments.Field("city")
	require.True(t, ok)
	s, _ := city.AsString()
	assert.Equal(t, "Boston", s)
}

func TestExtractStructuredToolCallsGeneratesIDWhenMissing(t *testing.T) {
	text := `{"tool_calls":[{"type":"function","function":{"name":"ping","arguments":"{}"}}]}`
	calls := ExtractToolCalls(text, nil)
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].ID, "call_")
}

// TestBackfillToolCallIDsFillsOnlyMissingIDs covers the invariant (spec.md
// §8: "for all tool calls emitted to providers, toolCallId != null") for
// calls an adapter returns natively (Response.ToolCalls), not just calls
// ExtractToolCalls parsed out of raw text — both call sites that consume
// Response.ToolCalls route through this same helper.
func TestBackfillToolCallIDsFillsOnlyMissingIDs(t *testing.T) {
	calls := []llmadapter.ToolCall{
		{ID: "keep-me", Name: "a"},
		{Name: "b"},
	}
	out := BackfillToolCallIDs(calls)
	require.Len(t, out, 2)
	assert.Equal(t, "keep-me", out[0].ID)
	assert.Contains(t, out[1].ID, "call_")
}

func TestExtractTextualToolCallAgainstKnownNames(t *testing.T) {
	text := `I'll call lookup(city="Boston", limit=3) now.`
	known := map[string]bool{"lookup": true}
	calls := ExtractToolCalls(text, known)
	require.Len(t, calls, 1)
	assert.Equal(t, "lookup", calls[0].Name)
	city, _ := calls[0].Arguments.Field("city")
	s, _ := city.AsString()
	assert.Equal(t, "Boston", s)
	limit, _ := calls[0].Arguments.Field("limit")
	n, _ := limit.AsFloat()
	assert.Equal(t, 3.0, n)
}

func TestExtractTextualIgnoresUnknownNames(t *testing.T) {
	text := `Some prose mentions something(not, a, call).`
	calls := ExtractToolCalls(text, map[string]bool{"lookup": true})
	assert.Empty(t, calls)
}

func TestExtractTextualDoesNotMatchSuffixOfLongerIdentifier(t *testing.T) {
	text := `We call do_lookup(x=1) which is unrelated to lookup.`
	calls := ExtractToolCalls(text, map[string]bool{"lookup": true})
	assert.Empty(t, calls)
}

func TestStripToolCallsRemovesFencedBlock(t *testing.T) {
	text := "Before.\n```json\n" +
		`{"tool_calls":[{"id":"1","function":{"name":"x","arguments":"{}"}}]}` +
		"\n```\nAfter."
	stripped := StripToolCalls(text)
	assert.Equal(t, "Before.\n\nAfter.", stripped)
}
