// Package jsonrpc implements the JSON-RPC 2.0 envelope encoding/decoding
// shared by the MCP and A2A wire protocols (spec.md §4.1): request,
// response, notification, and error envelopes, plus per-connection id
// allocation.
//
// The transport layer (pkg/transport) and the MCP/A2A clients build on top
// of this codec; it has no knowledge of sockets, pipes, or HTTP.
package jsonrpc

import (
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/swiftagentkit/agentkit-go/pkg/agenterrors"
)

const Version = "2.0"

// Reserved JSON-RPC 2.0 error codes (spec.md §4.1).
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// ErrorObject is the JSON-RPC error envelope.
type ErrorObject struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *ErrorObject) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// Message is the full JSON-RPC 2.0 envelope: a request, a notification, or
// a response, discriminated at decode time.
type Message struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ErrorObject    `json:"error,omitempty"`
}

// IsRequest reports whether m is a request (has a method and an id).
func (m *Message) IsRequest() bool {
	return m.Method != "" && m.ID != nil
}

// IsNotification reports whether m is a notification (has a method, no id).
func (m *Message) IsNotification() bool {
	return m.Method != "" && m.ID == nil
}

// IsResponse reports whether m is a response (no method).
func (m *Message) IsResponse() bool {
	return m.Method == ""
}

// Validate enforces the envelope invariants from spec.md §4.1: a response
// MUST have exactly one of result/error, never both, never neither.
func (m *Message) Validate() error {
	if m.JSONRPC != Version {
		return agenterrors.MalformedEnvelope(fmt.Errorf("jsonrpc field must be %q, got %q", Version, m.JSONRPC))
	}
	if m.IsResponse() {
		hasResult := len(m.Result) > 0 && string(m.Result) != "null"
		hasError := m.Error != nil
		if hasResult == hasError {
			return agenterrors.MalformedEnvelope(fmt.Errorf("response must have exactly one of result/error"))
		}
	}
	return nil
}

// IDAllocator hands out monotonically increasing JSON-RPC request ids, per
// client connection (spec.md §4.1: "id is monotonically allocated per
// client").
type IDAllocator struct {
	counter uint64
}

// Next returns the next id as a JSON number, marshaled for embedding
// directly in a Message.ID.
func (a *IDAllocator) Next() json.RawMessage {
	n := atomic.AddUint64(&a.counter, 1)
	return json.RawMessage(fmt.Sprintf("%d", n))
}

// NewRequest builds a request Message with an allocated id.
func NewRequest(id json.RawMessage, method string, params any) (*Message, error) {
	raw, err := marshalParams(params)
	if err != nil {
		return nil, err
	}
	return &Message{JSONRPC: Version, ID: id, Method: method, Params: raw}, nil
}

// NewNotification builds a notification Message (no id).
func NewNotification(method string, params any) (*Message, error) {
	raw, err := marshalParams(params)
	if err != nil {
		return nil, err
	}
	return &Message{JSONRPC: Version, Method: method, Params: raw}, nil
}

// NewResultResponse builds a successful response Message for id.
func NewResultResponse(id json.RawMessage, result any) (*Message, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return &Message{JSONRPC: Version, ID: id, Result: raw}, nil
}

// NewErrorResponse builds an error response Message for id.
func NewErrorResponse(id json.RawMessage, code int, message string, data any) *Message {
	var raw json.RawMessage
	if data != nil {
		raw, _ = json.Marshal(data)
	}
	return &Message{
		JSONRPC: Version,
		ID:      id,
		Error:   &ErrorObject{Code: code, Message: message, Data: raw},
	}
}

func marshalParams(params any) (json.RawMessage, error) {
	if params == nil {
		return nil, nil
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal params: %w", err)
	}
	return raw, nil
}

// Decode parses raw bytes into a Message and validates the envelope.
func Decode(data []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, agenterrors.New(agenterrors.KindProtocol, "decode", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Encode serializes a Message to bytes.
func Encode(m *Message) ([]byte, error) {
	return json.Marshal(m)
}
