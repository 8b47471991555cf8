// Package mcp implements the Model Context Protocol client (C3) and
// server (C4): JSON-RPC 2.0 request/response/notification exchange over a
// pkg/transport.Transport, covering the initialize handshake, tool and
// resource lifecycle, and server-side dispatch of registered handlers.
package mcp

import (
	"encoding/json"

	"github.com/swiftagentkit/agentkit-go/pkg/jsonvalue"
)

// State is the MCP client connection state machine (spec.md §4.3).
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateInitialized
	StateOperational
	StateShuttingDown
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateInitialized:
		return "initialized"
	case StateOperational:
		return "operational"
	case StateShuttingDown:
		return "shuttingDown"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ClientInfo identifies this client during the initialize handshake.
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ServerInfo identifies the remote server, returned from initialize.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Capabilities is an open bag of capability flags, decoded loosely since
// MCP server implementations vary in which capabilities they advertise.
type Capabilities map[string]any

// InitializeResult is the result of the initialize handshake.
type InitializeResult struct {
	ProtocolVersion string       `json:"protocolVersion"`
	ServerInfo      ServerInfo   `json:"serverInfo"`
	Capabilities    Capabilities `json:"capabilities"`
}

// ToolDescriptor is the MCP wire shape of a registered tool (spec.md §3).
type ToolDescriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// ContentKind discriminates the MCP Content union.
type ContentKind string

const (
	ContentText     ContentKind = "text"
	ContentImage    ContentKind = "image"
	ContentResource ContentKind = "resource"
)

// Content is one item of a tool-call result (spec.md §4.3): text, an
// inline image, or a resource reference. Exactly the fields relevant to
// Kind are populated.
type Content struct {
	Kind ContentKind `json:"type"`

	Text string `json:"text,omitempty"`

	Data     []byte `json:"data,omitempty"`
	MimeType string `json:"mimeType,omitempty"`

	URI string `json:"uri,omitempty"`
	// ResourceText holds the textual body read from a file:// resource
	// URI; attached as structured metadata per spec.md §4.3.
	ResourceText string `json:"resourceText,omitempty"`
}

func TextContent(text string) Content { return Content{Kind: ContentText, Text: text} }

// ResourceDescriptor is the MCP wire shape of a registered resource.
type ResourceDescriptor struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// ResourceContents is the result of reading a resource.
type ResourceContents struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
	Blob     []byte `json:"blob,omitempty"`
}

// ToolCallParams/ResourceParams mirror the JSON-RPC params shapes for the
// corresponding methods.
type ToolCallParams struct {
	Name      string          `json:"name"`
	Arguments jsonvalue.Value `json:"arguments"`
}

type ToolCallResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

type ToolsListResult struct {
	Tools []ToolDescriptor `json:"tools"`
}

type ResourcesListResult struct {
	Resources []ResourceDescriptor `json:"resources"`
}

type ReadResourceParams struct {
	URI string `json:"uri"`
}

type ReadResourceResult struct {
	Contents []ResourceContents `json:"contents"`
}

type SubscribeParams struct {
	URI string `json:"uri"`
}

// NotificationHandler receives server-pushed notifications: tools/list_changed
// carries nil params; resources/updated carries the updated URI.
type NotificationHandler func(method string, params json.RawMessage)
