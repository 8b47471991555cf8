package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToolCallGeneratesPrefixedIDAndCarriesArguments(t *testing.T) {
	call := toolCall("search", map[string]any{"query": "x"})

	assert.True(t, strings.HasPrefix(call.ID, "call_"))
	assert.Equal(t, "search", call.Name)
	q, ok := call.Arguments.Field("query")
	assert.True(t, ok)
	s, ok := q.AsString()
	assert.True(t, ok)
	assert.Equal(t, "x", s)
}
