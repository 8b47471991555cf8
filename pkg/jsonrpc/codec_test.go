package jsonrpc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftagentkit/agentkit-go/pkg/agenterrors"
)

func TestNewRequestRoundTrips(t *testing.T) {
	msg, err := NewRequest(json.RawMessage("1"), "tools/call", map[string]any{"name": "echo"})
	require.NoError(t, err)
	require.NoError(t, msg.Validate())
	assert.True(t, msg.IsRequest())
	assert.False(t, msg.IsNotification())

	data, err := Encode(msg)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "tools/call", decoded.Method)
	assert.JSONEq(t, `{"name":"echo"}`, string(decoded.Params))
}

func TestNewNotificationHasNoID(t *testing.T) {
	msg, err := NewNotification("notifications/tools/list_changed", nil)
	require.NoError(t, err)
	assert.True(t, msg.IsNotification())
	assert.False(t, msg.IsRequest())
	assert.Nil(t, msg.ID)
}

func TestResponseMustHaveExactlyOneOfResultOrError(t *testing.T) {
	ok, err := NewResultResponse(json.RawMessage("1"), map[string]any{"ok": true})
	require.NoError(t, err)
	require.NoError(t, ok.Validate())

	errResp := NewErrorResponse(json.RawMessage("1"), CodeMethodNotFound, "not found", nil)
	require.NoError(t, errResp.Validate())

	both := &Message{JSONRPC: Version, ID: json.RawMessage("1"), Result: json.RawMessage("1"), Error: &ErrorObject{Code: -1, Message: "x"}}
	err = both.Validate()
	assert.Error(t, err)
	var agentErr *agenterrors.Error
	assert.ErrorAs(t, err, &agentErr)
	assert.Equal(t, agenterrors.KindProtocol, agentErr.Kind)

	neither := &Message{JSONRPC: Version, ID: json.RawMessage("1")}
	assert.Error(t, neither.Validate())
}

func TestDecodeRejectsWrongVersion(t *testing.T) {
	_, err := Decode([]byte(`{"jsonrpc":"1.0","id":1,"result":{}}`))
	assert.Error(t, err)
}

func TestDecodeRejectsMalformedJSON(t *testing.T) {
	_, err := Decode([]byte(`{not json`))
	assert.Error(t, err)
	var agentErr *agenterrors.Error
	assert.ErrorAs(t, err, &agentErr)
	assert.Equal(t, agenterrors.KindProtocol, agentErr.Kind)
}

func TestIDAllocatorIsMonotonic(t *testing.T) {
	var a IDAllocator
	first := a.Next()
	second := a.Next()
	assert.Equal(t, json.RawMessage("1"), first)
	assert.Equal(t, json.RawMessage("2"), second)
}

func TestErrorObjectErrorString(t *testing.T) {
	e := &ErrorObject{Code: CodeInvalidParams, Message: "bad params"}
	assert.Contains(t, e.Error(), "bad params")
	assert.Contains(t, e.Error(), "-32602")
}
