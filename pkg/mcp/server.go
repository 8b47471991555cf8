package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/swiftagentkit/agentkit-go/pkg/jsonrpc"
	"github.com/swiftagentkit/agentkit-go/pkg/logger"
	"github.com/swiftagentkit/agentkit-go/pkg/transport"
)

// ToolHandler implements one registered tool: given JSON-decoded
// arguments, it returns the ordered Content result or an error (mapped to
// a JSON-RPC application error, spec.md §4.4).
type ToolHandler func(ctx context.Context, arguments map[string]any) ([]Content, error)

// ResourceHandler reads a registered resource's contents.
type ResourceHandler func(ctx context.Context, uri string) ([]ResourceContents, error)

type registeredTool struct {
	descriptor ToolDescriptor
	handler    ToolHandler
}

type registeredResource struct {
	descriptor ResourceDescriptor
	handler    ResourceHandler
}

// Server dispatches MCP requests arriving over a transport.Transport to
// registered tool and resource handlers (spec.md §4.4).
type Server struct {
	log  *logger.Logger
	info ServerInfo
	caps Capabilities

	mu        sync.RWMutex
	tools     []registeredTool
	resources []registeredResource

	tr transport.Transport
}

// NewServer constructs a Server bound to tr.
func NewServer(log *logger.Logger, info ServerInfo, tr transport.Transport) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		log:  log.With("mcp-server", map[string]any{"server": info.Name}),
		info: info,
		caps: Capabilities{"tools": map[string]any{"listChanged": true}, "resources": map[string]any{"subscribe": true}},
		tr:   tr,
	}
}

// RegisterTool registers a tool and its handler.
func (s *Server) RegisterTool(descriptor ToolDescriptor, handler ToolHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tools = append(s.tools, registeredTool{descriptor: descriptor, handler: handler})
}

// RegisterResource registers a resource and its read handler.
func (s *Server) RegisterResource(descriptor ResourceDescriptor, handler ResourceHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources = append(s.resources, registeredResource{descriptor: descriptor, handler: handler})
}

// NotifyToolsListChanged emits notifications/tools/list_changed.
func (s *Server) NotifyToolsListChanged(ctx context.Context) error {
	return s.emit(ctx, "notifications/tools/list_changed", nil)
}

// NotifyResourceUpdated emits notifications/resources/updated for uri.
func (s *Server) NotifyResourceUpdated(ctx context.Context, uri string) error {
	return s.emit(ctx, "notifications/resources/updated", map[string]any{"uri": uri})
}

func (s *Server) emit(ctx context.Context, method string, params any) error {
	msg, err := jsonrpc.NewNotification(method, params)
	if err != nil {
		return err
	}
	data, err := jsonrpc.Encode(msg)
	if err != nil {
		return err
	}
	return s.tr.Send(ctx, data)
}

// Serve reads requests from the transport until it closes or ctx is
// cancelled, dispatching each to the appropriate handler and writing back
// a response. A registered handler panicking or returning a malformed
// result is reported as an internal JSON-RPC error; it never takes down
// the server (spec.md §4.4).
func (s *Server) Serve(ctx context.Context) error {
	for {
		data, err := s.tr.Receive(ctx)
		if err != nil {
			return nil
		}
		msg, err := jsonrpc.Decode(data)
		if err != nil {
			s.log.Warn("dropping malformed request", map[string]any{"error": err.Error()})
			continue
		}
		if msg.IsNotification() {
			continue
		}
		resp := s.dispatch(ctx, msg)
		out, err := jsonrpc.Encode(resp)
		if err != nil {
			s.log.Error("failed to encode response", map[string]any{"error": err.Error()})
			continue
		}
		if err := s.tr.Send(ctx, out); err != nil {
			return translateTransportErr(err)
		}
	}
}

func (s *Server) dispatch(ctx context.Context, msg *jsonrpc.Message) *jsonrpc.Message {
	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "tools/list":
		return s.handleToolsList(msg)
	case "tools/call":
		return s.handleToolsCall(ctx, msg)
	case "resources/list":
		return s.handleResourcesList(msg)
	case "resources/read":
		return s.handleResourcesRead(ctx, msg)
	case "resources/subscribe", "resources/unsubscribe":
		return mustResult(msg.ID, map[string]any{})
	default:
		return jsonrpc.NewErrorResponse(msg.ID, jsonrpc.CodeMethodNotFound, fmt.Sprintf("unknown method %q", msg.Method), nil)
	}
}

func (s *Server) handleInitialize(msg *jsonrpc.Message) *jsonrpc.Message {
	result := InitializeResult{
		ProtocolVersion: "2025-06-18",
		ServerInfo:      s.info,
		Capabilities:    s.caps,
	}
	return mustResult(msg.ID, result)
}

func (s *Server) handleToolsList(msg *jsonrpc.Message) *jsonrpc.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	descriptors := make([]ToolDescriptor, 0, len(s.tools))
	for _, t := range s.tools {
		descriptors = append(descriptors, t.descriptor)
	}
	return mustResult(msg.ID, ToolsListResult{Tools: descriptors})
}

func (s *Server) handleToolsCall(ctx context.Context, msg *jsonrpc.Message) *jsonrpc.Message {
	var params ToolCallParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return jsonrpc.NewErrorResponse(msg.ID, jsonrpc.CodeInvalidParams, err.Error(), nil)
	}

	s.mu.RLock()
	var handler ToolHandler
	for _, t := range s.tools {
		if t.descriptor.Name == params.Name {
			handler = t.handler
			break
		}
	}
	s.mu.RUnlock()

	if handler == nil {
		return jsonrpc.NewErrorResponse(msg.ID, jsonrpc.CodeInvalidParams, fmt.Sprintf("unknown tool %q", params.Name), nil)
	}

	content, err := func() (content []Content, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("tool handler panicked: %v", r)
			}
		}()
		return handler(ctx, params.Arguments.ToMap())
	}()
	if err != nil {
		return jsonrpc.NewErrorResponse(msg.ID, jsonrpc.CodeInternalError, err.Error(), nil)
	}
	return mustResult(msg.ID, ToolCallResult{Content: content})
}

func (s *Server) handleResourcesList(msg *jsonrpc.Message) *jsonrpc.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	descriptors := make([]ResourceDescriptor, 0, len(s.resources))
	for _, r := range s.resources {
		descriptors = append(descriptors, r.descriptor)
	}
	return mustResult(msg.ID, ResourcesListResult{Resources: descriptors})
}

func (s *Server) handleResourcesRead(ctx context.Context, msg *jsonrpc.Message) *jsonrpc.Message {
	var params ReadResourceParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return jsonrpc.NewErrorResponse(msg.ID, jsonrpc.CodeInvalidParams, err.Error(), nil)
	}

	s.mu.RLock()
	var handler ResourceHandler
	for _, r := range s.resources {
		if r.descriptor.URI == params.URI {
			handler = r.handler
			break
		}
	}
	s.mu.RUnlock()

	if handler == nil {
		return jsonrpc.NewErrorResponse(msg.ID, jsonrpc.CodeInvalidParams, fmt.Sprintf("unknown resource %q", params.URI), nil)
	}
	contents, err := handler(ctx, params.URI)
	if err != nil {
		return jsonrpc.NewErrorResponse(msg.ID, jsonrpc.CodeInternalError, err.Error(), nil)
	}
	return mustResult(msg.ID, ReadResourceResult{Contents: contents})
}

func mustResult(id json.RawMessage, result any) *jsonrpc.Message {
	msg, err := jsonrpc.NewResultResponse(id, result)
	if err != nil {
		return jsonrpc.NewErrorResponse(id, jsonrpc.CodeInternalError, err.Error(), nil)
	}
	return msg
}
